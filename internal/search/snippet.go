package search

import (
	"strings"
	"unicode/utf8"
)

const (
	// characters kept on each side of the earliest query-token hit
	snippetContext = 150
	// fallback prefix length when no query token occurs in the page
	snippetFallback = 300
)

// ExtractSnippet returns the context around the earliest occurrence of any
// query token in the page text, with ellipses at truncated boundaries. When
// no token matches (or there are no query terms) it falls back to the first
// snippetFallback characters.
func ExtractSnippet(text string, queryTokens []string) string {
	lower := strings.ToLower(text)

	earliest := -1
	for _, tok := range queryTokens {
		if pos := strings.Index(lower, tok); pos >= 0 {
			if earliest < 0 || pos < earliest {
				earliest = pos
			}
		}
	}

	if earliest < 0 {
		if len(text) <= snippetFallback {
			return text
		}
		return text[:clampToRuneStart(text, snippetFallback)] + "..."
	}

	start := earliest - snippetContext
	if start < 0 {
		start = 0
	}
	start = clampToRuneStart(text, start)
	end := earliest + snippetContext
	if end > len(text) {
		end = len(text)
	} else {
		end = clampToRuneStart(text, end)
	}

	snippet := text[start:end]
	if start > 0 {
		snippet = "..." + snippet
	}
	if end < len(text) {
		snippet = snippet + "..."
	}
	return snippet
}

// clampToRuneStart moves a byte cut point left onto a rune boundary so the
// window never splits a multi-byte character.
func clampToRuneStart(s string, i int) int {
	for i > 0 && !utf8.RuneStart(s[i]) {
		i--
	}
	return i
}
