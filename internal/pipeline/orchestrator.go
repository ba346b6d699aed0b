// Package pipeline drives the document ingestion state machine:
// rasterize -> OCR fan-out -> vectorize -> index, with per-stage status
// records, the shared retry policy, and terminal ERROR handling.
package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"paperbase/internal/model"
	"paperbase/internal/ocr"
	"paperbase/internal/raster"
	"paperbase/internal/vectorizer"
	"paperbase/pkg/logger"
	"paperbase/pkg/metrics"
	"paperbase/pkg/retry"
)

// defaultStageTimeout bounds one attempt of one stage activity.
const defaultStageTimeout = 5 * time.Minute

// Rasterizer converts one source file into page images starting at offset.
type Rasterizer interface {
	RenderPages(ctx context.Context, documentID int, filePath string, offset int) ([]raster.Page, error)
}

// DocumentStore is the slice of document persistence the pipeline needs.
type DocumentStore interface {
	FindByID(ctx context.Context, id int) (*model.Document, error)
	UpdateStatus(ctx context.Context, id int, next model.Status) error
}

// StatusStore persists the append-only per-stage history.
type StatusStore interface {
	OpenStage(ctx context.Context, documentID int, stage string) (int, error)
	CompleteStage(ctx context.Context, recordID int) error
	FailStage(ctx context.Context, recordID int, errMsg string, retryCount int) error
	WriteCompleted(ctx context.Context, documentID int, stage string) error
}

// VectorStore writes page vectors keyed by (document, page).
type VectorStore interface {
	Upsert(ctx context.Context, pv *model.PageVector) error
}

type Orchestrator struct {
	documents    DocumentStore
	status       StatusStore
	vectors      VectorStore
	rasterizer   Rasterizer
	extractor    ocr.Extractor
	policy       retry.Policy
	stageTimeout time.Duration
	logger       *zap.Logger
}

func NewOrchestrator(
	documents DocumentStore,
	status StatusStore,
	vectors VectorStore,
	rasterizer Rasterizer,
	extractor ocr.Extractor,
	log *zap.Logger,
) *Orchestrator {
	return &Orchestrator{
		documents:    documents,
		status:       status,
		vectors:      vectors,
		rasterizer:   rasterizer,
		extractor:    extractor,
		policy:       retry.DefaultPolicy(),
		stageTimeout: defaultStageTimeout,
		logger:       log,
	}
}

// Run executes the full pipeline for one document. It is safe to re-run after
// a crash or an external redelivery: page vector writes are keyed by
// (document, page) and a READY document is skipped outright. A terminal stage
// failure drives the document to ERROR and is reported as *StageFailure.
func (o *Orchestrator) Run(ctx context.Context, documentID int) error {
	log := logger.WithTrace(ctx, o.logger).With(zap.Int("document_id", documentID))

	doc, err := o.documents.FindByID(ctx, documentID)
	if err != nil {
		return fmt.Errorf("failed to load document %d: %w", documentID, err)
	}

	switch doc.Status {
	case model.StatusReady:
		log.Info("Document already READY, skipping")
		return nil
	case model.StatusError:
		log.Info("Document in ERROR, skipping (re-trigger resets status first)")
		return nil
	}

	log.Info("Starting ingestion pipeline",
		zap.String("status", string(doc.Status)),
		zap.Int("source_files", len(doc.SourceFiles)),
	)

	if doc.Status == model.StatusUploaded {
		if err := o.documents.UpdateStatus(ctx, documentID, model.StatusProcessing); err != nil {
			return fmt.Errorf("failed to mark document processing: %w", err)
		}
	}

	// Stage 1: rasterize all source files sequentially, threading the page
	// offset forward so numbering stays contiguous across files.
	var pages []raster.Page
	err = o.runStage(ctx, log, documentID, model.StageRasterize, func(ctx context.Context) error {
		pages = pages[:0]
		offset := 0
		for _, file := range doc.SourceFiles {
			filePages, err := o.rasterizer.RenderPages(ctx, documentID, file, offset)
			if err != nil {
				return err
			}
			pages = append(pages, filePages...)
			offset += len(filePages)
		}
		if len(pages) == 0 {
			return retry.Permanent(ErrImageConversion)
		}
		return nil
	})
	if err != nil {
		return o.fail(ctx, log, documentID, model.StageRasterize, err)
	}

	// Stage 2: OCR fan-out over all pages, join before moving on.
	var texts []string
	err = o.runStage(ctx, log, documentID, model.StageOCRExtraction, func(ctx context.Context) error {
		var fanErr error
		texts, fanErr = o.extractAll(ctx, log, pages)
		return fanErr
	})
	if err != nil {
		return o.fail(ctx, log, documentID, model.StageOCRExtraction, err)
	}

	// A run resumed after a crash or redelivery may already be at
	// OCR_COMPLETE; the transition table rejects a self-transition.
	if doc.Status != model.StatusOCRComplete {
		if err := o.documents.UpdateStatus(ctx, documentID, model.StatusOCRComplete); err != nil {
			return fmt.Errorf("failed to mark document OCR complete: %w", err)
		}
	}

	// Stage 3: vectorize and index every non-empty page, plus the synthetic
	// title/notes page when there is anything to index.
	err = o.runStage(ctx, log, documentID, model.StageVectorize, func(ctx context.Context) error {
		if meta := metadataPageText(doc); meta != "" {
			if err := o.indexPage(ctx, documentID, model.MetadataPageNumber, meta); err != nil {
				return err
			}
		}
		for i, page := range pages {
			if strings.TrimSpace(texts[i]) == "" {
				continue
			}
			if err := o.indexPage(ctx, documentID, page.Number, texts[i]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return o.fail(ctx, log, documentID, model.StageVectorize, err)
	}

	// Finalize: immediate-completion marker plus the READY transition.
	if err := o.status.WriteCompleted(ctx, documentID, model.StageFinalize); err != nil {
		return fmt.Errorf("failed to write finalize record: %w", err)
	}
	if err := o.documents.UpdateStatus(ctx, documentID, model.StatusReady); err != nil {
		return fmt.Errorf("failed to mark document ready: %w", err)
	}

	metrics.IncrementDocumentsProcessed("ready")
	log.Info("Ingestion pipeline completed",
		zap.Int("pages", len(pages)),
	)
	return nil
}

func (o *Orchestrator) indexPage(ctx context.Context, documentID, pageNumber int, text string) error {
	return indexPage(ctx, o.vectors, documentID, pageNumber, text)
}

func indexPage(ctx context.Context, vectors VectorStore, documentID, pageNumber int, text string) error {
	dense, sparse := vectorizer.Vectorize(text)
	err := vectors.Upsert(ctx, &model.PageVector{
		DocumentID:    documentID,
		PageNumber:    pageNumber,
		Embedding:     dense,
		SparseWeights: sparse,
		Text:          text,
	})
	if err != nil {
		return fmt.Errorf("failed to write page vector %d/%d: %w", documentID, pageNumber, err)
	}
	metrics.PagesIndexed.Inc()
	return nil
}

// runStage brackets fn with an append-only status record and the shared retry
// policy. Each attempt gets its own bounded timeout.
func (o *Orchestrator) runStage(ctx context.Context, log *zap.Logger, documentID int, stage string, fn func(ctx context.Context) error) error {
	recordID, err := o.status.OpenStage(ctx, documentID, stage)
	if err != nil {
		return fmt.Errorf("failed to open stage record: %w", err)
	}

	start := time.Now()
	attempts, err := o.policy.Do(ctx, func(ctx context.Context) error {
		attemptCtx, cancel := context.WithTimeout(ctx, o.stageTimeout)
		defer cancel()
		return fn(attemptCtx)
	})
	if err != nil {
		metrics.ObserveStageDuration(stage, "error", time.Since(start))
		log.Error("Stage failed",
			zap.String("stage", stage),
			zap.Int("attempts", attempts),
			zap.Error(err),
		)
		if ferr := o.status.FailStage(ctx, recordID, err.Error(), attempts); ferr != nil {
			log.Error("Failed to record stage failure", zap.Error(ferr))
		}
		return err
	}

	metrics.ObserveStageDuration(stage, "success", time.Since(start))
	if err := o.status.CompleteStage(ctx, recordID); err != nil {
		log.Error("Failed to complete stage record", zap.Error(err))
	}
	log.Info("Stage completed",
		zap.String("stage", stage),
		zap.Int("attempts", attempts),
		zap.Duration("took", time.Since(start)),
	)
	return nil
}

// fail drives the document to the absorbing ERROR state. Recovery requires a
// manual re-trigger, never an automatic whole-document retry.
func (o *Orchestrator) fail(ctx context.Context, log *zap.Logger, documentID int, stage string, cause error) error {
	if err := o.documents.UpdateStatus(ctx, documentID, model.StatusError); err != nil {
		log.Error("Failed to mark document ERROR", zap.Error(err))
	}
	metrics.IncrementDocumentsProcessed("error")
	return &StageFailure{DocumentID: documentID, Stage: stage, Err: cause}
}

// metadataPageText builds the synthetic page (-1) text from title and notes.
func metadataPageText(doc *model.Document) string {
	title := strings.TrimSpace(doc.Title)
	notes := strings.TrimSpace(doc.Notes)
	switch {
	case title == "" && notes == "":
		return ""
	case notes == "":
		return title
	case title == "":
		return notes
	default:
		return title + "\n" + notes
	}
}
