// Package ocr calls the external vision-based text-extraction service.
package ocr

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"paperbase/pkg/circuitbreaker"
	"paperbase/pkg/metrics"
	"paperbase/pkg/trace"
)

// Extractor returns the text of one page image. The service may be slow or
// flaky; callers retry per the shared pipeline policy.
type Extractor interface {
	Extract(ctx context.Context, imagePath string) (string, error)
}

type Client struct {
	baseURL    string
	httpClient *http.Client
	cb         *circuitbreaker.CircuitBreaker
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout == 0 {
		timeout = 2 * time.Minute
	}
	cbConfig := circuitbreaker.Config{
		FailureThreshold:    5,
		SuccessThreshold:    2,
		Timeout:             30 * time.Second,
		HalfOpenMaxRequests: 3,
	}

	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		cb: circuitbreaker.NewCircuitBreaker(cbConfig),
	}
}

type extractResponse struct {
	Text string `json:"text"`
}

// Extract sends the page image and returns the recognized text. Empty text is
// a valid result, not an error.
func (c *Client) Extract(ctx context.Context, imagePath string) (string, error) {
	imageBytes, err := os.ReadFile(imagePath)
	if err != nil {
		return "", fmt.Errorf("failed to read page image %s: %w", imagePath, err)
	}

	var text string
	err = c.cb.Execute(func() error {
		start := time.Now()

		req, reqErr := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/extract", bytes.NewReader(imageBytes))
		if reqErr != nil {
			return reqErr
		}
		req.Header.Set("Content-Type", "application/octet-stream")
		if traceID := trace.FromContext(ctx); traceID != "" {
			req.Header.Set(trace.HeaderName(), traceID)
		}

		resp, doErr := c.httpClient.Do(req)
		latency := time.Since(start)

		if doErr != nil {
			metrics.ObserveOCRCall("error", latency)
			return doErr
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 500 {
			metrics.ObserveOCRCall("5xx", latency)
			return fmt.Errorf("ocr service 5xx: %d", resp.StatusCode)
		}
		if resp.StatusCode != http.StatusOK {
			metrics.ObserveOCRCall(fmt.Sprintf("%d", resp.StatusCode), latency)
			return fmt.Errorf("ocr service error: %d", resp.StatusCode)
		}

		metrics.ObserveOCRCall("success", latency)
		var out extractResponse
		if decodeErr := json.NewDecoder(resp.Body).Decode(&out); decodeErr != nil {
			return decodeErr
		}
		text = out.Text
		return nil
	})
	if err != nil {
		return "", err
	}

	return text, nil
}
