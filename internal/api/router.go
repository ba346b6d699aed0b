package api

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"paperbase/pkg/mq"
)

type Router struct {
	Engine *gin.Engine
}

func NewRouter(
	documents *DocumentHandler,
	searchHandler *SearchHandler,
	mailbox *MailboxHandler,
	db *pgxpool.Pool,
	publisher *mq.Publisher,
	jwtSecret string,
) *Router {
	r := gin.Default()
	r.Use(TraceMiddleware())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	r.HEAD("/healthz", func(c *gin.Context) {
		c.Status(200)
	})

	r.GET("/readyz", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c, 1*time.Second)
		defer cancel()

		if err := db.Ping(ctx); err != nil {
			c.JSON(500, gin.H{"status": "db_not_ready", "error": err.Error()})
			return
		}

		if publisher != nil && !publisher.IsConnected() {
			c.JSON(500, gin.H{"status": "mq_not_ready"})
			return
		}

		c.JSON(200, gin.H{"status": "ready"})
	})

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	authed := r.Group("/", AuthMiddleware(jwtSecret))
	{
		authed.POST("/documents", documents.Upload)
		authed.GET("/documents/:id", documents.Get)
		authed.PATCH("/documents/:id", documents.UpdateMetadata)
		authed.POST("/documents/:id/reprocess", documents.Reprocess)
		authed.DELETE("/documents/:id", documents.Delete)

		authed.GET("/search", searchHandler.Search)

		authed.PUT("/settings/mailbox", mailbox.Update)
	}

	return &Router{Engine: r}
}

func (r *Router) Run(port string) error {
	return r.Engine.Run(port)
}
