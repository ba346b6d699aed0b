package main

import (
	"log"
	"time"

	"go.uber.org/zap"

	contracts "paperbase/contracts/mq"
	"paperbase/internal/config"
	"paperbase/internal/mqhandler"
	"paperbase/internal/ocr"
	"paperbase/internal/pipeline"
	"paperbase/internal/raster"
	"paperbase/internal/repository"
	"paperbase/pkg/db"
	"paperbase/pkg/logger"
	"paperbase/pkg/mq"
	redisclient "paperbase/pkg/redis"
	"paperbase/pkg/util"
)

func main() {
	cfg := config.Load()

	zlog := logger.NewLogger()
	defer zlog.Sync()

	zlog.Info("Starting ingest worker...")

	dbConn, err := db.NewConnection(cfg.DB, zlog)
	if err != nil {
		zlog.Fatal("DB initialization failed", zap.Error(err))
	}
	defer dbConn.Close()

	rdb := redisclient.NewClient(cfg.Redis)
	defer rdb.Close()

	deduper := util.NewDeduper(rdb, time.Hour, zlog)

	publisher, err := mq.NewPublisher(cfg.MQ.URL)
	if err != nil {
		log.Fatalf("failed to init publisher: %v", err)
	}
	defer publisher.Close()

	if err := publisher.SetupDLQ(contracts.RoutingKeyDocumentIngest); err != nil {
		zlog.Fatal("DLQ setup failed", zap.Error(err))
	}

	documentRepo := repository.NewDocumentRepository(dbConn)
	statusRepo := repository.NewStatusRepository(dbConn)
	vectorRepo := repository.NewVectorRepository(dbConn)

	ocrTimeout := time.Duration(cfg.OCR.Timeout) * time.Second
	if ocrTimeout == 0 {
		ocrTimeout = 30 * time.Second
	}
	extractor := ocr.NewClient(cfg.OCR.URL, ocrTimeout)
	rasterizer := raster.NewAdapter(raster.NewHTTPRenderer(cfg.Raster.URL), cfg.Storage.Root)

	orchestrator := pipeline.NewOrchestrator(documentRepo, statusRepo, vectorRepo, rasterizer, extractor, zlog)
	ingestHandler := mqhandler.NewDocumentIngestHandler(orchestrator, deduper, publisher, zlog)

	zlog.Info("Initializing ingest consumer", zap.String("queue", "document.ingest.q"))
	consumer, err := mq.NewConsumer(cfg.MQ.URL, "document.ingest.q", contracts.RoutingKeyDocumentIngest, zlog)
	if err != nil {
		zlog.Fatal("failed to init ingest consumer", zap.Error(err))
	}
	consumer.SetHandler(ingestHandler.Handle)
	go func() {
		zlog.Info("Starting ingest consumer")
		if err := consumer.StartConsuming(); err != nil {
			zlog.Fatal("ingest consumer failed", zap.Error(err))
		}
	}()
	defer consumer.Close()

	zlog.Info("Consumer started, worker is ready to process documents")

	select {}
}
