package raster

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"paperbase/pkg/trace"
)

// HTTPRenderer calls the external rasterizer service.
type HTTPRenderer struct {
	baseURL    string
	httpClient *http.Client
}

func NewHTTPRenderer(baseURL string) *HTTPRenderer {
	return &HTTPRenderer{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 2 * time.Minute,
		},
	}
}

type pageCountRequest struct {
	FilePath string `json:"file_path"`
}

type pageCountResponse struct {
	Pages int `json:"pages"`
}

func (r *HTTPRenderer) PageCount(ctx context.Context, filePath string) (int, error) {
	b, err := json.Marshal(pageCountRequest{FilePath: filePath})
	if err != nil {
		return 0, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+"/pages", bytes.NewReader(b))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	if traceID := trace.FromContext(ctx); traceID != "" {
		req.Header.Set(trace.HeaderName(), traceID)
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("rasterizer error: %d", resp.StatusCode)
	}

	var out pageCountResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return 0, err
	}
	return out.Pages, nil
}

type renderRequest struct {
	FilePath  string `json:"file_path"`
	PageIndex int    `json:"page_index"`
}

func (r *HTTPRenderer) RenderPage(ctx context.Context, filePath string, pageIndex int) ([]byte, error) {
	b, err := json.Marshal(renderRequest{FilePath: filePath, PageIndex: pageIndex})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+"/render", bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if traceID := trace.FromContext(ctx); traceID != "" {
		req.Header.Set(trace.HeaderName(), traceID)
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("rasterizer error: %d", resp.StatusCode)
	}

	return io.ReadAll(resp.Body)
}
