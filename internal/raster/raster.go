// Package raster converts source documents into ordered page images.
package raster

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"paperbase/pkg/retry"
)

// ErrUnsupportedFormat means the source file type cannot be rasterized.
// It is non-retryable.
var ErrUnsupportedFormat = errors.New("unsupported source file format")

// Renderer is the external rasterizer service.
type Renderer interface {
	PageCount(ctx context.Context, filePath string) (int, error)
	RenderPage(ctx context.Context, filePath string, pageIndex int) ([]byte, error)
}

// Page is one rasterized page addressed by its global page number.
type Page struct {
	Number    int
	ImagePath string
}

// Adapter turns one source file into page images under the storage root.
// Page numbers are zero-based externally and start at the caller's offset,
// which the orchestrator threads forward across a document's files to keep
// numbering contiguous.
type Adapter struct {
	renderer    Renderer
	storageRoot string
}

func NewAdapter(renderer Renderer, storageRoot string) *Adapter {
	return &Adapter{
		renderer:    renderer,
		storageRoot: storageRoot,
	}
}

var imageExtensions = map[string]struct{}{
	".png":  {},
	".jpg":  {},
	".jpeg": {},
	".tiff": {},
	".webp": {},
}

var documentExtensions = map[string]struct{}{
	".pdf": {},
}

// Supported reports whether files with the given extension (lowercase, with
// leading dot) can be rasterized.
func Supported(ext string) bool {
	if _, ok := imageExtensions[ext]; ok {
		return true
	}
	_, ok := documentExtensions[ext]
	return ok
}

// RenderPages rasterizes filePath into page images numbered from offset.
// Image files pass through as a single page. Unsupported formats fail with a
// permanent ErrUnsupportedFormat; everything else is retryable.
func (a *Adapter) RenderPages(ctx context.Context, documentID int, filePath string, offset int) ([]Page, error) {
	ext := strings.ToLower(filepath.Ext(filePath))

	if _, ok := imageExtensions[ext]; ok {
		page, err := a.passThroughImage(documentID, filePath, offset)
		if err != nil {
			return nil, err
		}
		return []Page{page}, nil
	}

	if _, ok := documentExtensions[ext]; !ok {
		return nil, retry.Permanent(fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext))
	}

	count, err := a.renderer.PageCount(ctx, filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to count pages of %s: %w", filePath, err)
	}

	pages := make([]Page, 0, count)
	// the renderer numbers pages one-based; external numbering is zero-based
	// from the offset
	for i := 1; i <= count; i++ {
		imageBytes, err := a.renderer.RenderPage(ctx, filePath, i)
		if err != nil {
			return nil, fmt.Errorf("failed to render page %d of %s: %w", i, filePath, err)
		}

		number := offset + i - 1
		imagePath := a.pagePath(documentID, number)
		if err := writeFile(imagePath, imageBytes); err != nil {
			return nil, err
		}
		pages = append(pages, Page{Number: number, ImagePath: imagePath})
	}

	return pages, nil
}

func (a *Adapter) passThroughImage(documentID int, filePath string, number int) (Page, error) {
	src, err := os.Open(filePath)
	if err != nil {
		return Page{}, fmt.Errorf("failed to open image %s: %w", filePath, err)
	}
	defer src.Close()

	imagePath := a.pagePath(documentID, number)
	if err := os.MkdirAll(filepath.Dir(imagePath), 0o755); err != nil {
		return Page{}, err
	}
	dst, err := os.Create(imagePath)
	if err != nil {
		return Page{}, err
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return Page{}, fmt.Errorf("failed to copy image %s: %w", filePath, err)
	}
	return Page{Number: number, ImagePath: imagePath}, nil
}

func (a *Adapter) pagePath(documentID, number int) string {
	return filepath.Join(a.storageRoot, "pages", fmt.Sprintf("%d", documentID), fmt.Sprintf("page_%d.png", number))
}

func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write page image %s: %w", path, err)
	}
	return nil
}
