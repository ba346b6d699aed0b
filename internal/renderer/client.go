// Package renderer calls the external HTML-to-PDF renderer used for mailbox
// message bodies.
package renderer

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"paperbase/pkg/trace"
)

// HTMLRenderer renders an HTML body into a document file.
type HTMLRenderer interface {
	Render(ctx context.Context, html []byte) ([]byte, error)
}

type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: time.Minute,
		},
	}
}

func (c *Client) Render(ctx context.Context, html []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/render", bytes.NewReader(html))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "text/html")
	if traceID := trace.FromContext(ctx); traceID != "" {
		req.Header.Set(trace.HeaderName(), traceID)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("renderer error: %d", resp.StatusCode)
	}

	return io.ReadAll(resp.Body)
}
