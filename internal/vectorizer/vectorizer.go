// Package vectorizer turns page text into its dual index representation:
// a dense hash-projected embedding and a sparse keyword-weight map.
// Both are pure functions of the text, so re-vectorizing a page is idempotent.
package vectorizer

import (
	"hash/fnv"
	"math"
	"regexp"
	"strings"
)

// Width is the dense vector dimensionality. It must match the vector column
// declared in the page index.
const Width = 256

// numSeeds is how many independent hash positions each token contributes to.
const numSeeds = 3

// tokenPattern accepts digit-leading tokens too: years, amounts and invoice
// numbers carry retrieval signal.
var tokenPattern = regexp.MustCompile(`[\p{L}\p{N}]+`)

// Vectorize computes the dense embedding and the sparse weight map for the
// given text. Empty or degenerate text yields a zero vector and an empty map.
func Vectorize(text string) ([]float32, map[string]float64) {
	tokens := Tokenize(text)
	return denseEmbed(tokens), sparseWeights(tokens)
}

// Tokenize splits text into lowercase word tokens.
func Tokenize(text string) []string {
	return tokenPattern.FindAllString(strings.ToLower(text), -1)
}

// TokenizeFiltered applies the sparse-side filter: stopwords and tokens of
// length <= 2 are dropped. Snippet extraction uses the same filter so query
// terms line up with indexed terms.
func TokenizeFiltered(text string) []string {
	raw := Tokenize(text)
	out := make([]string, 0, len(raw))
	for _, tok := range raw {
		if len(tok) <= 2 {
			continue
		}
		if _, isStop := stopwords[tok]; isStop {
			continue
		}
		out = append(out, tok)
	}
	return out
}

// denseEmbed hashes every token into numSeeds positions of a Width-wide
// vector, accumulating a position weight that favors earlier tokens, then
// L2-normalizes the result.
func denseEmbed(tokens []string) []float32 {
	vec := make([]float32, Width)
	n := len(tokens)
	if n == 0 {
		return vec
	}

	for i, tok := range tokens {
		// earlier tokens weigh more: 1 at the front, 1/2 at the end
		weight := 1.0 - float64(i)/(2.0*float64(n))
		for seed := 0; seed < numSeeds; seed++ {
			vec[hashToken(tok, seed)%Width] += float32(weight)
		}
	}

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	norm = math.Sqrt(norm)
	if norm > 0 {
		for i := range vec {
			vec[i] = float32(float64(vec[i]) / norm)
		}
	}
	return vec
}

// sparseWeights computes dampened TF weights with an intra-document rarity
// factor standing in for corpus-level IDF, min-max normalized so the largest
// weight in a non-empty map is exactly 1.
func sparseWeights(tokens []string) map[string]float64 {
	counts := make(map[string]int)
	totalTerms := 0
	for _, tok := range tokens {
		if len(tok) <= 2 {
			continue
		}
		if _, isStop := stopwords[tok]; isStop {
			continue
		}
		counts[tok]++
		totalTerms++
	}

	weights := make(map[string]float64, len(counts))
	maxWeight := 0.0
	for tok, count := range counts {
		score := math.Log(1 + float64(count))
		rarity := math.Log(1 + float64(totalTerms)/float64(count))
		w := score * rarity
		weights[tok] = w
		if w > maxWeight {
			maxWeight = w
		}
	}

	// never divide by less than 1 so an empty map stays empty and tiny
	// weights stay in [0,1]
	if maxWeight < 1 {
		maxWeight = 1
	}
	for tok := range weights {
		weights[tok] /= maxWeight
	}
	return weights
}

func hashToken(token string, seed int) int {
	h := fnv.New32a()
	h.Write([]byte{byte(seed)})
	h.Write([]byte(token))
	return int(h.Sum32() & 0x7fffffff)
}
