package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"paperbase/internal/model"
	"paperbase/pkg/secret"
)

// CursorStore persists per-user mailbox settings.
type CursorStore interface {
	Upsert(ctx context.Context, c *model.MailboxCursor) error
}

type MailboxHandler struct {
	cursors CursorStore
	sealer  *secret.Sealer
	logger  *zap.Logger
}

func NewMailboxHandler(cursors CursorStore, sealer *secret.Sealer, logger *zap.Logger) *MailboxHandler {
	return &MailboxHandler{cursors: cursors, sealer: sealer, logger: logger}
}

type mailboxSettingsRequest struct {
	Enabled  bool   `json:"enabled"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Username string `json:"username"`
	Password string `json:"password"`
	Folder   string `json:"folder"`
}

// Update handles PUT /settings/mailbox. The mailbox password is sealed before
// it reaches the database and never comes back out through the API.
func (h *MailboxHandler) Update(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	var req mailboxSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	if req.Enabled {
		if req.Host == "" || req.Username == "" || req.Password == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "host, username and password are required when enabled"})
			return
		}
		if req.Port <= 0 || req.Port > 65535 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "port out of range"})
			return
		}
	}
	if req.Folder == "" {
		req.Folder = "INBOX"
	}

	sealed, err := h.sealer.Seal([]byte(req.Password))
	if err != nil {
		h.logger.Error("Failed to seal mailbox credential", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store settings"})
		return
	}

	cursor := &model.MailboxCursor{
		UserID:           userID,
		Enabled:          req.Enabled,
		Host:             req.Host,
		Port:             req.Port,
		Username:         req.Username,
		CredentialSealed: sealed,
		Folder:           req.Folder,
	}
	if err := h.cursors.Upsert(c.Request.Context(), cursor); err != nil {
		h.logger.Error("Failed to store mailbox settings", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store settings"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "saved"})
}
