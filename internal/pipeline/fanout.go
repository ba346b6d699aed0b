package pipeline

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"paperbase/internal/raster"
	"paperbase/pkg/retry"
)

// extractAll issues one OCR request per page concurrently and joins all
// results before returning. Every page is retried independently under the
// shared policy; a page that exhausts its budget fails the stage, and that
// failure is permanent at the stage level because the page already spent its
// retries. Empty text on a page is success. All pages empty (or no pages) is
// ErrOCRExtraction, which stays retryable at the stage level.
func (o *Orchestrator) extractAll(ctx context.Context, log *zap.Logger, pages []raster.Page) ([]string, error) {
	if len(pages) == 0 {
		return nil, ErrOCRExtraction
	}

	texts := make([]string, len(pages))

	// plain Group, not WithContext: join semantics require every in-flight
	// request to settle even after a sibling fails
	var g errgroup.Group
	for i, page := range pages {
		i, page := i, page
		g.Go(func() error {
			_, err := o.policy.Do(ctx, func(ctx context.Context) error {
				attemptCtx, cancel := context.WithTimeout(ctx, o.stageTimeout)
				defer cancel()

				text, err := o.extractor.Extract(attemptCtx, page.ImagePath)
				if err != nil {
					return err
				}
				texts[i] = text
				return nil
			})
			if err != nil {
				log.Error("Page extraction failed",
					zap.Int("page", page.Number),
					zap.String("image", page.ImagePath),
					zap.Error(err),
				)
				return retry.Permanent(fmt.Errorf("page %d extraction failed: %w", page.Number, err))
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	allEmpty := true
	for _, t := range texts {
		if strings.TrimSpace(t) != "" {
			allEmpty = false
			break
		}
	}
	if allEmpty {
		return nil, ErrOCRExtraction
	}

	return texts, nil
}
