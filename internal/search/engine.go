// Package search implements hybrid retrieval: dense ANN candidates fused with
// sparse keyword scores, reduced to the best page per document.
package search

import (
	"context"
	"math"
	"sort"
	"time"

	"go.uber.org/zap"

	"paperbase/internal/model"
	"paperbase/internal/vectorizer"
	"paperbase/pkg/logger"
	"paperbase/pkg/metrics"
)

// denseDistanceScale converts cosine distance (range [0,2]) into a [0,1]
// similarity. Tied to the current embedding scheme; re-derive it if the dense
// embedding changes.
const denseDistanceScale = 2.0

const (
	denseWeight  = 0.6
	sparseWeight = 0.4

	// defaultCandidateLimit caps the per-query candidate pool.
	defaultCandidateLimit = 100
)

// PageIndex is the persisted vector index, queried by dense distance with the
// best-page-per-document reduction already applied.
type PageIndex interface {
	BestPages(ctx context.Context, ownerID int, query []float32, filters model.SearchFilters, limit int) ([]model.PageCandidate, error)
}

// Result is one ranked document.
type Result struct {
	DocumentID int     `json:"document_id"`
	BestPage   int     `json:"best_page"`
	Score      float64 `json:"score"`
	Snippet    string  `json:"snippet"`
}

type Engine struct {
	index          PageIndex
	candidateLimit int
	logger         *zap.Logger
}

func NewEngine(index PageIndex, log *zap.Logger) *Engine {
	return &Engine{
		index:          index,
		candidateLimit: defaultCandidateLimit,
		logger:         log,
	}
}

// Search ranks the owner's documents against the query text. Callers validate
// that the query is non-empty before invoking; an owner with no indexed pages
// gets an empty result list, never an error.
func (e *Engine) Search(ctx context.Context, queryText string, ownerID int, filters model.SearchFilters) ([]Result, error) {
	start := time.Now()
	log := logger.WithTrace(ctx, e.logger).With(zap.Int("owner_id", ownerID))

	qDense, qSparse := vectorizer.Vectorize(queryText)

	candidates, err := e.index.BestPages(ctx, ownerID, qDense, filters, e.candidateLimit)
	if err != nil {
		metrics.ObserveSearch("error", time.Since(start))
		log.Error("Candidate scan failed", zap.Error(err))
		return nil, err
	}
	if len(candidates) == 0 {
		metrics.ObserveSearch("success", time.Since(start))
		return []Result{}, nil
	}

	queryTokens := vectorizer.TokenizeFiltered(queryText)

	results := make([]Result, 0, len(candidates))
	for _, c := range candidates {
		dense := denseSimilarity(c.Distance)
		sparse := sparseSimilarity(qSparse, c.SparseWeights)
		fused := denseWeight*dense + sparseWeight*sparse

		results = append(results, Result{
			DocumentID: c.DocumentID,
			BestPage:   c.PageNumber,
			Score:      fused,
			Snippet:    ExtractSnippet(c.Text, queryTokens),
		})
	}

	// stable keeps the underlying dense-distance order as the tie-break
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	metrics.ObserveSearch("success", time.Since(start))
	log.Info("Search completed",
		zap.Int("candidates", len(candidates)),
		zap.Duration("took", time.Since(start)),
	)
	return results, nil
}

// denseSimilarity maps a bounded distance into [0,1].
func denseSimilarity(distance float64) float64 {
	sim := 1.0 - distance/denseDistanceScale
	if sim < 0 {
		return 0
	}
	return sim
}

// sparseSimilarity is the cosine of the two weight maps: the raw dot product
// grows with every matched term, so it is normalized by both norms. A page
// matching the query exactly scores 1, and the fused score never exceeds
// denseWeight + sparseWeight.
func sparseSimilarity(a, b map[string]float64) float64 {
	dot := sparseDotProduct(a, b)
	if dot == 0 {
		return 0
	}
	return dot / (sparseNorm(a) * sparseNorm(b))
}

// sparseDotProduct iterates over the smaller of the two maps; a pure
// optimization with no semantic effect.
func sparseDotProduct(a, b map[string]float64) float64 {
	if len(b) < len(a) {
		a, b = b, a
	}
	var sum float64
	for tok, wa := range a {
		if wb, ok := b[tok]; ok {
			sum += wa * wb
		}
	}
	return sum
}

func sparseNorm(m map[string]float64) float64 {
	var sum float64
	for _, w := range m {
		sum += w * w
	}
	return math.Sqrt(sum)
}
