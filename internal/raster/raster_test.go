package raster

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"paperbase/pkg/retry"
)

type fakeRenderer struct {
	pages int
	err   error
}

func (f *fakeRenderer) PageCount(ctx context.Context, filePath string) (int, error) {
	if f.err != nil {
		return 0, f.err
	}
	return f.pages, nil
}

func (f *fakeRenderer) RenderPage(ctx context.Context, filePath string, pageIndex int) ([]byte, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []byte("png bytes"), nil
}

func TestRenderPagesPDFNumbersFromOffset(t *testing.T) {
	a := NewAdapter(&fakeRenderer{pages: 3}, t.TempDir())

	pages, err := a.RenderPages(context.Background(), 1, "/uploads/doc.pdf", 5)
	if err != nil {
		t.Fatalf("render failed: %v", err)
	}
	if len(pages) != 3 {
		t.Fatalf("expected 3 pages, got %d", len(pages))
	}
	for i, p := range pages {
		want := 5 + i
		if p.Number != want {
			t.Errorf("page %d: expected number %d, got %d", i, want, p.Number)
		}
		if _, err := os.Stat(p.ImagePath); err != nil {
			t.Errorf("page image not written: %v", err)
		}
	}
}

func TestRenderPagesImagePassthrough(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "scan.png")
	if err := os.WriteFile(src, []byte("image bytes"), 0o644); err != nil {
		t.Fatal(err)
	}

	a := NewAdapter(&fakeRenderer{}, dir)
	pages, err := a.RenderPages(context.Background(), 2, src, 4)
	if err != nil {
		t.Fatalf("render failed: %v", err)
	}
	if len(pages) != 1 {
		t.Fatalf("expected a single page, got %d", len(pages))
	}
	if pages[0].Number != 4 {
		t.Errorf("expected page number 4, got %d", pages[0].Number)
	}
	data, err := os.ReadFile(pages[0].ImagePath)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "image bytes" {
		t.Errorf("image content not copied: %q", data)
	}
}

func TestRenderPagesUnsupportedFormat(t *testing.T) {
	a := NewAdapter(&fakeRenderer{}, t.TempDir())

	_, err := a.RenderPages(context.Background(), 3, "/uploads/sheet.xlsx", 0)
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
	}
	if !retry.IsPermanent(err) {
		t.Error("unsupported format must be non-retryable")
	}
}

func TestRenderPagesRendererErrorIsRetryable(t *testing.T) {
	a := NewAdapter(&fakeRenderer{err: errors.New("service down")}, t.TempDir())

	_, err := a.RenderPages(context.Background(), 4, "/uploads/doc.pdf", 0)
	if err == nil {
		t.Fatal("expected error")
	}
	if retry.IsPermanent(err) {
		t.Error("renderer outage must stay retryable")
	}
}

func TestSupported(t *testing.T) {
	for _, ext := range []string{".pdf", ".png", ".jpg", ".jpeg", ".tiff", ".webp"} {
		if !Supported(ext) {
			t.Errorf("expected %s supported", ext)
		}
	}
	for _, ext := range []string{".xlsx", ".docx", ".txt", ""} {
		if Supported(ext) {
			t.Errorf("expected %s unsupported", ext)
		}
	}
}
