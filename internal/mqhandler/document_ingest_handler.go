package mqhandler

import (
	"context"
	"encoding/json"
	"errors"

	"go.uber.org/zap"

	contracts "paperbase/contracts/mq"
	"paperbase/internal/pipeline"
	"paperbase/pkg/trace"
	"paperbase/pkg/util"
)

// PipelineRunner runs the ingestion pipeline for one document.
type PipelineRunner interface {
	Run(ctx context.Context, documentID int) error
}

// DLQPublisher parks messages that must not be redelivered.
type DLQPublisher interface {
	PublishToDLQ(routingKey string, payload []byte, originalError string) error
}

type DocumentIngestHandler struct {
	runner  PipelineRunner
	deduper *util.Deduper
	dlq     DLQPublisher
	logger  *zap.Logger
}

func NewDocumentIngestHandler(
	runner PipelineRunner,
	deduper *util.Deduper,
	dlq DLQPublisher,
	logger *zap.Logger,
) *DocumentIngestHandler {
	return &DocumentIngestHandler{
		runner:  runner,
		deduper: deduper,
		dlq:     dlq,
		logger:  logger,
	}
}

// Handle processes one document.ingest task. It acks (returns nil) for
// terminal outcomes: success, duplicate, poisoned payload, document driven
// to ERROR. It returns an error only for transient infrastructure failures
// so the consumer nacks and MQ redelivers.
func (h *DocumentIngestHandler) Handle(ctx context.Context, raw json.RawMessage) error {
	var p contracts.DocumentIngestPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		h.logger.Error("Failed to unmarshal ingest payload, parking in DLQ",
			zap.Error(err),
			zap.String("raw_payload", string(raw)),
		)
		if dlqErr := h.dlq.PublishToDLQ(contracts.RoutingKeyDocumentIngest, raw, err.Error()); dlqErr != nil {
			h.logger.Error("Failed to publish to DLQ", zap.Error(dlqErr))
			return dlqErr
		}
		return nil
	}

	if p.TraceID != "" {
		ctx = trace.WithContext(ctx, p.TraceID)
	}
	log := h.logger.With(
		zap.Int("document_id", p.DocumentID),
		zap.Int("user_id", p.UserID),
		zap.String("trace_id", p.TraceID),
	)

	if !h.deduper.AcquireOnce(ctx, "ingest", p.DocumentID) {
		return nil
	}

	log.Info("Running ingestion pipeline")

	if err := h.runner.Run(ctx, p.DocumentID); err != nil {
		var sf *pipeline.StageFailure
		if errors.As(err, &sf) {
			// document is in ERROR; recovery is manual, not a requeue
			log.Error("Pipeline terminally failed",
				zap.String("stage", sf.Stage),
				zap.Error(sf.Err),
			)
			if dlqErr := h.dlq.PublishToDLQ(contracts.RoutingKeyDocumentIngest, raw, sf.Error()); dlqErr != nil {
				log.Error("Failed to publish to DLQ", zap.Error(dlqErr))
			}
			return nil
		}

		// transient failure: release the dedup key and let MQ retry
		h.deduper.Release(ctx, "ingest", p.DocumentID)
		log.Error("Pipeline run failed, requeueing", zap.Error(err))
		return err
	}

	log.Info("Ingestion pipeline finished")
	return nil
}
