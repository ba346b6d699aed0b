package search

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestExtractSnippetAroundEarliestHit(t *testing.T) {
	prefix := strings.Repeat("a", 200)
	suffix := strings.Repeat("b", 200)
	text := prefix + " invoice " + suffix

	snippet := ExtractSnippet(text, []string{"invoice"})

	if !strings.Contains(snippet, "invoice") {
		t.Fatalf("snippet does not contain the matched token: %q", snippet)
	}
	if !strings.HasPrefix(snippet, "...") {
		t.Error("expected leading ellipsis when snippet is cut from the front")
	}
	if !strings.HasSuffix(snippet, "...") {
		t.Error("expected trailing ellipsis when snippet is cut at the back")
	}
	if len(snippet) > 2*snippetContext+6 {
		t.Errorf("snippet too long: %d chars", len(snippet))
	}
}

func TestExtractSnippetEarliestOfSeveralTokens(t *testing.T) {
	text := "payment schedule ... much later the word invoice shows up"

	snippet := ExtractSnippet(text, []string{"invoice", "payment"})
	if !strings.HasPrefix(snippet, "payment") {
		t.Errorf("expected snippet anchored at the earliest hit, got %q", snippet)
	}
}

func TestExtractSnippetFallback(t *testing.T) {
	short := "no matching terms here"
	if got := ExtractSnippet(short, []string{"zzz"}); got != short {
		t.Errorf("expected short text returned whole, got %q", got)
	}

	long := strings.Repeat("x", 500)
	got := ExtractSnippet(long, []string{"zzz"})
	if len(got) != snippetFallback+3 {
		t.Errorf("expected %d-char fallback with ellipsis, got %d", snippetFallback+3, len(got))
	}
	if !strings.HasSuffix(got, "...") {
		t.Error("expected trailing ellipsis on fallback")
	}
}

func TestExtractSnippetKeepsRuneBoundaries(t *testing.T) {
	// the window edges land inside multi-byte runes; the cut must not emit
	// invalid UTF-8
	text := strings.Repeat("я", 200) + " invoice " + strings.Repeat("ю", 200)

	snippet := ExtractSnippet(text, []string{"invoice"})
	if !utf8.ValidString(snippet) {
		t.Errorf("snippet is not valid UTF-8: %q", snippet)
	}
	if !strings.Contains(snippet, "invoice") {
		t.Errorf("snippet lost the matched token: %q", snippet)
	}

	fallback := ExtractSnippet("a"+strings.Repeat("日", 200), []string{"zzz"})
	if !utf8.ValidString(fallback) {
		t.Errorf("fallback snippet is not valid UTF-8: %q", fallback)
	}
	if !strings.HasSuffix(fallback, "...") {
		t.Error("expected trailing ellipsis on truncated fallback")
	}
}

func TestExtractSnippetNoQueryTokens(t *testing.T) {
	text := "plain page text"
	if got := ExtractSnippet(text, nil); got != text {
		t.Errorf("expected full text when there are no query tokens, got %q", got)
	}
}
