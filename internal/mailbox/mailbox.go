// Package mailbox defines the external mailbox adapter used by the ingestion
// scheduler. The adapter is an external collaborator; only the contract lives
// here, plus an HTTP-backed implementation.
package mailbox

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"paperbase/pkg/trace"
)

// Message is a discovered mailbox message. UID orders messages within a
// folder and drives the per-user cursor.
type Message struct {
	UID     int64  `json:"uid"`
	ID      string `json:"id"`
	Subject string `json:"subject"`
}

// SenderMetadata describes the envelope of a fetched message.
type SenderMetadata struct {
	From string    `json:"from"`
	To   string    `json:"to"`
	Date time.Time `json:"date"`
}

// Connection carries the decrypted parameters for one user's mailbox.
type Connection struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Username string `json:"username"`
	Password string `json:"password"`
	Folder   string `json:"folder"`
}

// Adapter lists and fetches mailbox messages.
type Adapter interface {
	// ListNew returns all messages with UID greater than sinceUID, sorted
	// ascending. sinceUID zero means a first sync.
	ListNew(ctx context.Context, conn Connection, sinceUID int64) ([]Message, error)
	// FetchBody returns the HTML body and envelope metadata of one message.
	FetchBody(ctx context.Context, conn Connection, uid int64) ([]byte, SenderMetadata, error)
}

type HTTPAdapter struct {
	baseURL    string
	httpClient *http.Client
}

func NewHTTPAdapter(baseURL string) *HTTPAdapter {
	return &HTTPAdapter{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: time.Minute,
		},
	}
}

type listNewRequest struct {
	Connection
	SinceUID int64 `json:"since_uid"`
}

func (a *HTTPAdapter) ListNew(ctx context.Context, conn Connection, sinceUID int64) ([]Message, error) {
	var out []Message
	if err := a.post(ctx, "/messages", listNewRequest{Connection: conn, SinceUID: sinceUID}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

type fetchBodyRequest struct {
	Connection
	UID int64 `json:"uid"`
}

type fetchBodyResponse struct {
	HTML   string         `json:"html"`
	Sender SenderMetadata `json:"sender"`
}

func (a *HTTPAdapter) FetchBody(ctx context.Context, conn Connection, uid int64) ([]byte, SenderMetadata, error) {
	var out fetchBodyResponse
	if err := a.post(ctx, "/body", fetchBodyRequest{Connection: conn, UID: uid}, &out); err != nil {
		return nil, SenderMetadata{}, err
	}
	return []byte(out.HTML), out.Sender, nil
}

func (a *HTTPAdapter) post(ctx context.Context, path string, payload any, out any) error {
	b, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+path, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if traceID := trace.FromContext(ctx); traceID != "" {
		req.Header.Set(trace.HeaderName(), traceID)
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("mailbox adapter error: %d", resp.StatusCode)
	}

	return json.NewDecoder(resp.Body).Decode(out)
}
