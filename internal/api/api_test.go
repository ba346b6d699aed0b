package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"paperbase/internal/model"
	"paperbase/internal/search"
)

const testSecret = "test-secret"

func init() {
	gin.SetMode(gin.TestMode)
}

func signedToken(t *testing.T, userID int) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": userID,
		"exp":     time.Now().Add(time.Hour).Unix(),
	})
	s, err := token.SignedString([]byte(testSecret))
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestAuthMiddleware(t *testing.T) {
	r := gin.New()
	r.GET("/protected", AuthMiddleware(testSecret), func(c *gin.Context) {
		id, ok := currentUserID(c)
		if !ok {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.JSON(http.StatusOK, gin.H{"user_id": id})
	})

	cases := []struct {
		name   string
		header string
		want   int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"not bearer", "Basic abc", http.StatusUnauthorized},
		{"garbage token", "Bearer not-a-token", http.StatusUnauthorized},
		{"wrong secret", "Bearer " + wrongSecretToken(t), http.StatusUnauthorized},
		{"valid", "Bearer " + signedToken(t, 42), http.StatusOK},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/protected", nil)
			if c.header != "" {
				req.Header.Set("Authorization", c.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			if w.Code != c.want {
				t.Errorf("expected %d, got %d (%s)", c.want, w.Code, w.Body.String())
			}
		})
	}
}

func wrongSecretToken(t *testing.T) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"user_id": 42})
	s, err := token.SignedString([]byte("other-secret"))
	if err != nil {
		t.Fatal(err)
	}
	return s
}

type stubSearcher struct {
	results []search.Result
	gotQ    string
	gotUser int
	filters model.SearchFilters
}

func (s *stubSearcher) Search(ctx context.Context, queryText string, ownerID int, filters model.SearchFilters) ([]search.Result, error) {
	s.gotQ = queryText
	s.gotUser = ownerID
	s.filters = filters
	return s.results, nil
}

func searchRouter(s Searcher) *gin.Engine {
	r := gin.New()
	h := NewSearchHandler(s, zap.NewNop())
	r.GET("/search", AuthMiddleware(testSecret), h.Search)
	return r
}

func TestSearchRejectsEmptyQuery(t *testing.T) {
	r := searchRouter(&stubSearcher{})
	for _, q := range []string{"", "   "} {
		req := httptest.NewRequest(http.MethodGet, "/search?q="+strings.ReplaceAll(q, " ", "%20"), nil)
		req.Header.Set("Authorization", "Bearer "+signedToken(t, 1))
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		if w.Code != http.StatusBadRequest {
			t.Errorf("query %q: expected 400, got %d", q, w.Code)
		}
	}
}

func TestSearchPassesFilters(t *testing.T) {
	stub := &stubSearcher{results: []search.Result{{DocumentID: 5, BestPage: 2, Score: 0.7, Snippet: "hit"}}}
	r := searchRouter(stub)

	req := httptest.NewRequest(http.MethodGet,
		"/search?q=invoice&file_type=PDF&tags=work,tax&created_after=2026-01-01T00:00:00Z", nil)
	req.Header.Set("Authorization", "Bearer "+signedToken(t, 9))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", w.Code, w.Body.String())
	}
	if stub.gotQ != "invoice" || stub.gotUser != 9 {
		t.Errorf("unexpected query/user: %q / %d", stub.gotQ, stub.gotUser)
	}
	if stub.filters.FileType != "pdf" {
		t.Errorf("expected lowercased file type, got %q", stub.filters.FileType)
	}
	if len(stub.filters.Tags) != 2 {
		t.Errorf("expected 2 tags, got %v", stub.filters.Tags)
	}
	if stub.filters.CreatedAfter == nil {
		t.Error("expected created_after parsed")
	}

	var body struct {
		Results []search.Result `json:"results"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if len(body.Results) != 1 || body.Results[0].DocumentID != 5 {
		t.Errorf("unexpected results: %+v", body.Results)
	}
}

func TestSearchRejectsBadTimestamp(t *testing.T) {
	r := searchRouter(&stubSearcher{})
	req := httptest.NewRequest(http.MethodGet, "/search?q=x&created_after=yesterday", nil)
	req.Header.Set("Authorization", "Bearer "+signedToken(t, 1))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for bad timestamp, got %d", w.Code)
	}
}

type stubDocuments struct {
	docs map[int]*model.Document
}

func (s *stubDocuments) Create(ctx context.Context, d *model.Document) (int, error) { return 1, nil }
func (s *stubDocuments) FindByID(ctx context.Context, id int) (*model.Document, error) {
	d, ok := s.docs[id]
	if !ok {
		return nil, fmt.Errorf("not found")
	}
	return d, nil
}
func (s *stubDocuments) UpdateStatus(ctx context.Context, id int, next model.Status) error {
	s.docs[id].Status = next
	return nil
}
func (s *stubDocuments) UpdateTitleNotes(ctx context.Context, id int, title, notes string) error {
	return nil
}
func (s *stubDocuments) Delete(ctx context.Context, id, userID int) error { return nil }

type stubStatus struct{}

func (stubStatus) History(ctx context.Context, documentID int) ([]model.ProcessingStatusRecord, error) {
	return nil, nil
}

type stubPublisher struct{ published int }

func (s *stubPublisher) Publish(routingKey string, payload any) error {
	s.published++
	return nil
}

type stubReindexer struct{}

func (stubReindexer) ReindexMetadata(ctx context.Context, documentID int) error { return nil }

func documentRouter(t *testing.T, docs *stubDocuments, pub *stubPublisher) *gin.Engine {
	t.Helper()
	h := NewDocumentHandler(docs, stubStatus{}, pub, stubReindexer{}, t.TempDir(), zap.NewNop())
	r := gin.New()
	g := r.Group("/", AuthMiddleware(testSecret))
	g.GET("/documents/:id", h.Get)
	g.POST("/documents/:id/reprocess", h.Reprocess)
	return r
}

func TestReprocessOnlyFromError(t *testing.T) {
	docs := &stubDocuments{docs: map[int]*model.Document{
		1: {ID: 1, UserID: 7, Status: model.StatusReady},
		2: {ID: 2, UserID: 7, Status: model.StatusError},
	}}
	pub := &stubPublisher{}
	r := documentRouter(t, docs, pub)

	req := httptest.NewRequest(http.MethodPost, "/documents/1/reprocess", nil)
	req.Header.Set("Authorization", "Bearer "+signedToken(t, 7))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusConflict {
		t.Errorf("expected 409 for READY document, got %d", w.Code)
	}
	if pub.published != 0 {
		t.Errorf("no task should be published on conflict, got %d", pub.published)
	}

	req = httptest.NewRequest(http.MethodPost, "/documents/2/reprocess", nil)
	req.Header.Set("Authorization", "Bearer "+signedToken(t, 7))
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 for ERROR document, got %d (%s)", w.Code, w.Body.String())
	}
	if docs.docs[2].Status != model.StatusUploaded {
		t.Errorf("expected reset to UPLOADED, got %s", docs.docs[2].Status)
	}
	if pub.published != 1 {
		t.Errorf("expected 1 published task, got %d", pub.published)
	}
}

func TestGetHidesOtherUsersDocuments(t *testing.T) {
	docs := &stubDocuments{docs: map[int]*model.Document{
		1: {ID: 1, UserID: 7, Status: model.StatusReady},
	}}
	r := documentRouter(t, docs, &stubPublisher{})

	req := httptest.NewRequest(http.MethodGet, "/documents/1", nil)
	req.Header.Set("Authorization", "Bearer "+signedToken(t, 8))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404 for another user's document, got %d", w.Code)
	}
}
