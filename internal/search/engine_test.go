package search

import (
	"context"
	"math"
	"strings"
	"testing"

	"go.uber.org/zap"

	"paperbase/internal/model"
	"paperbase/internal/vectorizer"
)

// fakeIndex serves pre-canned candidates, emulating the dense-distance scan.
type fakeIndex struct {
	pages   []model.PageCandidate
	lastCap int
}

func (f *fakeIndex) BestPages(ctx context.Context, ownerID int, query []float32, filters model.SearchFilters, limit int) ([]model.PageCandidate, error) {
	f.lastCap = limit
	return f.pages, nil
}

func candidateFor(docID, pageNumber int, text string, queryText string) model.PageCandidate {
	dense, sparse := vectorizer.Vectorize(text)
	qDense, _ := vectorizer.Vectorize(queryText)

	// cosine distance between the two unit vectors
	var dot float64
	for i := range dense {
		dot += float64(dense[i]) * float64(qDense[i])
	}
	return model.PageCandidate{
		DocumentID:    docID,
		PageNumber:    pageNumber,
		Distance:      1 - dot,
		SparseWeights: sparse,
		Text:          text,
	}
}

func TestSearchRanksRelevantDocumentFirst(t *testing.T) {
	query := "invoice payment"

	relevant := candidateFor(1, 3,
		"Invoice 2042: payment due within 30 days of the invoice date. Wire payment details below.",
		query)
	offTopic := candidateFor(2, 1,
		"Meeting notes from the offsite: team structure, roadmap discussion and hiring plans.",
		query)

	idx := &fakeIndex{pages: []model.PageCandidate{offTopic, relevant}}
	engine := NewEngine(idx, zap.NewNop())

	results, err := engine.Search(context.Background(), query, 7, model.SearchFilters{})
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}

	if results[0].DocumentID != 1 {
		t.Errorf("expected document 1 ranked first, got %d", results[0].DocumentID)
	}
	if results[0].Score <= results[1].Score {
		t.Errorf("expected strictly descending scores, got %f then %f", results[0].Score, results[1].Score)
	}
	if results[0].BestPage != 3 {
		t.Errorf("expected best page 3, got %d", results[0].BestPage)
	}
	if !strings.Contains(strings.ToLower(results[0].Snippet), "invoice") {
		t.Errorf("snippet should surface a query term, got %q", results[0].Snippet)
	}
}

func TestSearchOneResultPerDocument(t *testing.T) {
	query := "contract"
	idx := &fakeIndex{pages: []model.PageCandidate{
		candidateFor(10, 1, "contract terms page one", query),
		candidateFor(11, 4, "signed contract appendix", query),
		candidateFor(12, 2, "unrelated shipping manifest", query),
	}}
	engine := NewEngine(idx, zap.NewNop())

	results, err := engine.Search(context.Background(), query, 7, model.SearchFilters{})
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}

	seen := make(map[int]bool)
	for _, r := range results {
		if seen[r.DocumentID] {
			t.Errorf("document %d appears more than once", r.DocumentID)
		}
		seen[r.DocumentID] = true
	}
}

func TestSearchEmptyIndex(t *testing.T) {
	engine := NewEngine(&fakeIndex{}, zap.NewNop())

	results, err := engine.Search(context.Background(), "anything", 7, model.SearchFilters{})
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if results == nil {
		t.Fatal("expected empty slice, got nil")
	}
	if len(results) != 0 {
		t.Errorf("expected no results, got %d", len(results))
	}
}

func TestSearchScoreBounds(t *testing.T) {
	query := "budget forecast revenue"
	idx := &fakeIndex{pages: []model.PageCandidate{
		candidateFor(1, 1, "budget forecast revenue", query),
		candidateFor(2, 1, "completely different subject matter entirely", query),
	}}
	engine := NewEngine(idx, zap.NewNop())

	results, err := engine.Search(context.Background(), query, 7, model.SearchFilters{})
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	for _, r := range results {
		if r.Score < 0 {
			t.Errorf("score below zero: %f", r.Score)
		}
		if r.Score > 1.0+1e-9 {
			t.Errorf("fused score exceeds 1.0: %f", r.Score)
		}
	}
}

func TestSearchSelfMatchScoresOne(t *testing.T) {
	// a multi-term query against its own text: dense similarity is 1 and the
	// sparse cosine is 1, so the fused score is exactly the weight sum
	query := "quarterly invoice payment summary"
	idx := &fakeIndex{pages: []model.PageCandidate{
		candidateFor(1, 0, query, query),
	}}
	engine := NewEngine(idx, zap.NewNop())

	results, err := engine.Search(context.Background(), query, 7, model.SearchFilters{})
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if math.Abs(results[0].Score-1.0) > 1e-6 {
		t.Errorf("expected self-match score 1.0, got %f", results[0].Score)
	}
}

func TestSearchPassesCandidateLimit(t *testing.T) {
	idx := &fakeIndex{}
	engine := NewEngine(idx, zap.NewNop())

	if _, err := engine.Search(context.Background(), "anything", 7, model.SearchFilters{}); err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if idx.lastCap != defaultCandidateLimit {
		t.Errorf("expected candidate limit %d, got %d", defaultCandidateLimit, idx.lastCap)
	}
}

func TestDenseSimilarity(t *testing.T) {
	cases := []struct {
		distance float64
		want     float64
	}{
		{0, 1},
		{1, 0.5},
		{2, 0},
		{2.5, 0}, // clamped
	}
	for _, c := range cases {
		if got := denseSimilarity(c.distance); math.Abs(got-c.want) > 1e-9 {
			t.Errorf("denseSimilarity(%f) = %f, want %f", c.distance, got, c.want)
		}
	}
}

func TestSparseDotProduct(t *testing.T) {
	a := map[string]float64{"invoice": 1.0, "payment": 0.5}
	b := map[string]float64{"payment": 0.8, "ledger": 1.0}

	got := sparseDotProduct(a, b)
	if math.Abs(got-0.4) > 1e-9 {
		t.Errorf("expected dot product 0.4, got %f", got)
	}
	if sparseDotProduct(a, map[string]float64{}) != 0 {
		t.Error("expected zero dot product against empty map")
	}
}

func TestSparseSimilarity(t *testing.T) {
	self := map[string]float64{"invoice": 1.0, "payment": 0.5, "ledger": 0.25}
	if got := sparseSimilarity(self, self); math.Abs(got-1.0) > 1e-9 {
		t.Errorf("expected self similarity 1.0, got %f", got)
	}

	disjoint := map[string]float64{"shipping": 1.0}
	if got := sparseSimilarity(self, disjoint); got != 0 {
		t.Errorf("expected zero similarity for disjoint maps, got %f", got)
	}
	if got := sparseSimilarity(self, map[string]float64{}); got != 0 {
		t.Errorf("expected zero similarity against empty map, got %f", got)
	}

	// cosine is bounded even when many terms overlap
	a := map[string]float64{"a": 1, "b": 1, "c": 1, "d": 1}
	if got := sparseSimilarity(a, a); got > 1.0+1e-9 {
		t.Errorf("similarity exceeds 1.0: %f", got)
	}
}
