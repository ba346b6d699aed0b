package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"paperbase/internal/config"
	"paperbase/internal/mailbox"
	"paperbase/internal/renderer"
	"paperbase/internal/repository"
	"paperbase/internal/scheduler"
	"paperbase/pkg/db"
	"paperbase/pkg/logger"
	"paperbase/pkg/mq"
	redisclient "paperbase/pkg/redis"
	"paperbase/pkg/secret"
)

func main() {
	cfg := config.Load()

	zlog := logger.NewLogger()
	defer zlog.Sync()

	zlog.Info("Starting mailbox scheduler...")

	dbConn, err := db.NewConnection(cfg.DB, zlog)
	if err != nil {
		zlog.Fatal("DB initialization failed", zap.Error(err))
	}
	defer dbConn.Close()

	rdb := redisclient.NewClient(cfg.Redis)
	defer rdb.Close()

	publisher, err := mq.NewPublisher(cfg.MQ.URL)
	if err != nil {
		log.Fatalf("failed to init publisher: %v", err)
	}
	defer publisher.Close()

	sealer, err := secret.NewSealer(cfg.Mailbox.SecretKey)
	if err != nil {
		zlog.Fatal("Sealer initialization failed", zap.Error(err))
	}

	interval := time.Duration(cfg.Mailbox.CheckInterval) * time.Second
	if interval == 0 {
		interval = time.Minute
	}

	cursorRepo := repository.NewCursorRepository(dbConn)
	documentRepo := repository.NewDocumentRepository(dbConn)
	adapter := mailbox.NewHTTPAdapter(cfg.Mailbox.AdapterURL)
	htmlRenderer := renderer.NewClient(cfg.Render.URL)
	lock := scheduler.NewRedisTickLock(rdb, interval, zlog)

	sched := scheduler.NewScheduler(
		cursorRepo,
		documentRepo,
		adapter,
		htmlRenderer,
		publisher,
		sealer,
		lock,
		cfg.Storage.Root,
		interval,
		zlog,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sched.Run(ctx)
}
