// Package tokeniser provides the lightweight lexical helpers shared by
// the chunker and the reranker: approximate token counting, lowercase
// word extraction and markdown heading detection. It deliberately
// avoids any model-specific tokenisation; a character-based estimate
// is accurate enough for chunk budgeting.
package tokeniser

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var wordPattern = regexp.MustCompile(`[a-z0-9]+`)

// EstimateTokens approximates the token count of text, assuming one
// token per four characters. Counts runes, not bytes, so multibyte
// text is not over-estimated. Never returns less than 1.
func EstimateTokens(text string) int {
	n := utf8.RuneCountInString(text) / 4
	if n < 1 {
		return 1
	}
	return n
}

// Tokenise splits text into lowercase alphanumeric runs.
func Tokenise(text string) []string {
	return wordPattern.FindAllString(strings.ToLower(text), -1)
}

// TokenSet returns the distinct tokens of text.
func TokenSet(text string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, tok := range Tokenise(text) {
		set[tok] = struct{}{}
	}
	return set
}

// ExtractHeading returns the text of the first markdown heading line,
// or the empty string if there is none.
func ExtractHeading(text string) string {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "#") {
			return strings.TrimSpace(strings.TrimLeft(line, "#"))
		}
	}
	return ""
}
