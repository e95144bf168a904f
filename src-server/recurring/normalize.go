package recurring

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var nonWordRe = regexp.MustCompile(`[^\w\s]`)

var stopWords = map[string]struct{}{
	"with": {}, "prof": {}, "professor": {}, "dr": {}, "mr": {}, "ms": {}, "mrs": {},
	"the": {}, "a": {}, "an": {}, "and": {}, "or": {}, "but": {},
	"in": {}, "on": {}, "at": {}, "to": {}, "for": {}, "of": {}, "by": {}, "from": {},
}

// Normalize folds a title into its comparison form: lower-cased, punctuation
// replaced by spaces, stop words dropped, single-spaced.
func Normalize(title string) string {
	lowered := cases.Lower(language.Und).String(title)
	stripped := nonWordRe.ReplaceAllString(lowered, " ")

	words := make([]string, 0)
	for _, word := range strings.Fields(stripped) {
		if _, ok := stopWords[word]; ok {
			continue
		}
		words = append(words, word)
	}
	return strings.Join(words, " ")
}
