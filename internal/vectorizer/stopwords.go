package vectorizer

var stopwords = map[string]struct{}{}

func init() {
	words := []string{
		"the", "and", "for", "are", "but", "not", "you", "all", "can",
		"had", "her", "was", "one", "our", "out", "day", "get", "has",
		"him", "his", "how", "man", "new", "now", "old", "see", "two",
		"way", "who", "its", "did", "yes", "this", "that", "with",
		"from", "they", "have", "been", "were", "will", "would",
		"there", "their", "what", "about", "which", "when", "your",
		"said", "each", "she", "them", "than", "then", "into", "only",
		"over", "such", "very", "also", "more", "some", "these",
		"those", "after", "before", "other", "should", "could",
	}
	for _, w := range words {
		stopwords[w] = struct{}{}
	}
}
