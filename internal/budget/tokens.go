package budget

import (
	"strings"
	"unicode"
)

// CountTokens gives a rough token count: ~1.33 tokens per word plus one for
// every two punctuation marks. Exact tokenization is not required; the
// selection margin absorbs the error.
func CountTokens(text string) int {
	if text == "" {
		return 0
	}
	words := len(strings.Fields(text))
	punct := 0
	for _, r := range text {
		if unicode.IsPunct(r) {
			punct++
		}
	}
	tokens := int(float64(words)*1.33) + punct/2
	if tokens < 1 && strings.TrimSpace(text) != "" {
		tokens = 1
	}
	return tokens
}
