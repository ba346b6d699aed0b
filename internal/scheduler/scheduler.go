// Package scheduler runs the periodic mailbox discovery loop. Each tick it
// finds new mail per user and spawns one ingestion pipeline run per message
// by publishing a task; the worker pool does the actual processing, so a
// large batch never blocks the tick.
package scheduler

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	contracts "paperbase/contracts/mq"
	"paperbase/internal/mailbox"
	"paperbase/internal/model"
	"paperbase/internal/renderer"
	"paperbase/pkg/metrics"
	"paperbase/pkg/trace"
)

// CursorStore reads and advances per-user mailbox watermarks.
type CursorStore interface {
	ListEnabled(ctx context.Context) ([]model.MailboxCursor, error)
	AdvanceUID(ctx context.Context, userID int, uid int64) error
}

// DocumentCreator creates document shells for discovered messages.
type DocumentCreator interface {
	Create(ctx context.Context, d *model.Document) (int, error)
	AttachSourceFile(ctx context.Context, id int, filePath string) error
}

// Publisher enqueues ingestion tasks.
type Publisher interface {
	Publish(routingKey string, payload any) error
}

// CredentialOpener decrypts the sealed mailbox credential.
type CredentialOpener interface {
	Open(sealed []byte) ([]byte, error)
}

// TickLock suppresses overlapping ticks of the same schedule.
type TickLock interface {
	TryAcquire(ctx context.Context) bool
	Release(ctx context.Context)
}

type Scheduler struct {
	cursors     CursorStore
	documents   DocumentCreator
	adapter     mailbox.Adapter
	renderer    renderer.HTMLRenderer
	publisher   Publisher
	opener      CredentialOpener
	lock        TickLock
	storageRoot string
	interval    time.Duration
	logger      *zap.Logger
}

func NewScheduler(
	cursors CursorStore,
	documents DocumentCreator,
	adapter mailbox.Adapter,
	htmlRenderer renderer.HTMLRenderer,
	publisher Publisher,
	opener CredentialOpener,
	lock TickLock,
	storageRoot string,
	interval time.Duration,
	log *zap.Logger,
) *Scheduler {
	if interval == 0 {
		interval = time.Minute
	}
	return &Scheduler{
		cursors:     cursors,
		documents:   documents,
		adapter:     adapter,
		renderer:    htmlRenderer,
		publisher:   publisher,
		opener:      opener,
		lock:        lock,
		storageRoot: storageRoot,
		interval:    interval,
		logger:      log,
	}
}

// Run ticks on the configured interval until the context is cancelled.
func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info("Mailbox scheduler started", zap.Duration("interval", s.interval))

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Mailbox scheduler stopping")
			return
		case <-ticker.C:
			s.Tick(ctx)
		}
	}
}

// Tick runs one discovery pass. A tick still running from a previous firing
// makes this one a no-op.
func (s *Scheduler) Tick(ctx context.Context) {
	if !s.lock.TryAcquire(ctx) {
		s.logger.Info("Previous tick still running, skipping")
		return
	}
	defer s.lock.Release(ctx)

	cursors, err := s.cursors.ListEnabled(ctx)
	if err != nil {
		s.logger.Error("Failed to list mailbox cursors", zap.Error(err))
		return
	}
	if len(cursors) == 0 {
		return
	}

	// users are independent: one adapter failure never blocks the rest
	var wg sync.WaitGroup
	for _, cursor := range cursors {
		cursor := cursor
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.checkUser(ctx, cursor)
		}()
	}
	wg.Wait()
}

// checkUser discovers and dispatches one user's new mail. The cursor advances
// to the batch maximum only when every message in the batch has been
// dispatched; any failure leaves it untouched so the next pass retries.
func (s *Scheduler) checkUser(ctx context.Context, cursor model.MailboxCursor) {
	log := s.logger.With(zap.Int("user_id", cursor.UserID))

	defer func() {
		if r := recover(); r != nil {
			log.Error("Panic in mailbox check", zap.Any("panic", r))
		}
	}()

	credential, err := s.opener.Open(cursor.CredentialSealed)
	if err != nil {
		log.Error("Failed to decrypt mailbox credential", zap.Error(err))
		return
	}
	conn := mailbox.Connection{
		Host:     cursor.Host,
		Port:     cursor.Port,
		Username: cursor.Username,
		Password: string(credential),
		Folder:   cursor.Folder,
	}

	messages, err := s.adapter.ListNew(ctx, conn, cursor.LastUID)
	if err != nil {
		log.Error("Failed to list new mail", zap.Error(err))
		return
	}
	if len(messages) == 0 {
		return
	}

	sort.Slice(messages, func(i, j int) bool { return messages[i].UID < messages[j].UID })

	log.Info("Discovered new mail",
		zap.Int("count", len(messages)),
		zap.Int64("last_uid", cursor.LastUID),
	)
	metrics.MailboxMessagesDiscovered.Add(float64(len(messages)))

	maxUID := cursor.LastUID
	for _, msg := range messages {
		if err := s.dispatchMessage(ctx, conn, cursor.UserID, msg); err != nil {
			log.Error("Failed to dispatch message, cursor will not advance",
				zap.Int64("uid", msg.UID),
				zap.Error(err),
			)
			return
		}
		if msg.UID > maxUID {
			maxUID = msg.UID
		}
	}

	if err := s.cursors.AdvanceUID(ctx, cursor.UserID, maxUID); err != nil {
		log.Error("Failed to advance mailbox cursor", zap.Error(err))
		return
	}
	log.Info("Mailbox batch dispatched",
		zap.Int("count", len(messages)),
		zap.Int64("new_last_uid", maxUID),
	)
}

// dispatchMessage converts one message into a document shell and enqueues its
// ingestion run. The spawned run is fire-and-forget: it outlives this tick.
func (s *Scheduler) dispatchMessage(ctx context.Context, conn mailbox.Connection, userID int, msg mailbox.Message) error {
	html, sender, err := s.adapter.FetchBody(ctx, conn, msg.UID)
	if err != nil {
		return fmt.Errorf("failed to fetch body of uid %d: %w", msg.UID, err)
	}

	notes := fmt.Sprintf("From: %s\nTo: %s\nDate: %s",
		sender.From, sender.To, sender.Date.Format(time.RFC1123))

	docID, err := s.documents.Create(ctx, &model.Document{
		UserID: userID,
		Title:  msg.Subject,
		Notes:  notes,
		Status: model.StatusUploaded,
	})
	if err != nil {
		return fmt.Errorf("failed to create document shell: %w", err)
	}

	rendered, err := s.renderer.Render(ctx, html)
	if err != nil {
		return fmt.Errorf("failed to render message body: %w", err)
	}

	filePath := filepath.Join(s.storageRoot, "mail", fmt.Sprintf("%d-%s.pdf", msg.UID, uuid.NewString()))
	if err := os.MkdirAll(filepath.Dir(filePath), 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(filePath, rendered, 0o644); err != nil {
		return fmt.Errorf("failed to store rendered message: %w", err)
	}
	if err := s.documents.AttachSourceFile(ctx, docID, filePath); err != nil {
		return fmt.Errorf("failed to attach rendered file: %w", err)
	}

	payload := contracts.DocumentIngestPayload{
		DocumentID: docID,
		UserID:     userID,
		TraceID:    trace.GenerateTraceID(),
		EnqueuedAt: time.Now(),
	}
	if err := s.publisher.Publish(contracts.RoutingKeyDocumentIngest, payload); err != nil {
		return fmt.Errorf("failed to publish ingest task: %w", err)
	}
	return nil
}
