package main

import (
	"log"

	"go.uber.org/zap"

	"paperbase/internal/api"
	"paperbase/internal/config"
	"paperbase/internal/pipeline"
	"paperbase/internal/repository"
	"paperbase/internal/search"
	"paperbase/pkg/db"
	"paperbase/pkg/logger"
	"paperbase/pkg/mq"
	"paperbase/pkg/secret"
)

func main() {
	cfg := config.Load()

	zlog := logger.NewLogger()
	defer zlog.Sync()

	dbConn, err := db.NewConnection(cfg.DB, zlog)
	if err != nil {
		zlog.Fatal("DB initialization failed", zap.Error(err))
	}
	defer dbConn.Close()

	publisher, err := mq.NewPublisher(cfg.MQ.URL)
	if err != nil {
		log.Fatalf("failed to init publisher: %v", err)
	}
	defer publisher.Close()

	sealer, err := secret.NewSealer(cfg.Mailbox.SecretKey)
	if err != nil {
		zlog.Fatal("Sealer initialization failed", zap.Error(err))
	}

	documentRepo := repository.NewDocumentRepository(dbConn)
	statusRepo := repository.NewStatusRepository(dbConn)
	vectorRepo := repository.NewVectorRepository(dbConn)
	cursorRepo := repository.NewCursorRepository(dbConn)

	searchEngine := search.NewEngine(vectorRepo, zlog)
	reindexer := pipeline.NewMetadataIndexer(documentRepo, vectorRepo)

	documentHandler := api.NewDocumentHandler(documentRepo, statusRepo, publisher, reindexer, cfg.Storage.Root, zlog)
	searchHandler := api.NewSearchHandler(searchEngine, zlog)
	mailboxHandler := api.NewMailboxHandler(cursorRepo, sealer, zlog)

	router := api.NewRouter(documentHandler, searchHandler, mailboxHandler, dbConn, publisher, cfg.JWT.Secret)

	zlog.Info("Starting API server", zap.String("port", cfg.Server.Port))
	if err := router.Run(cfg.Server.Port); err != nil {
		log.Fatalf("server start failed: %v", err)
	}
}
