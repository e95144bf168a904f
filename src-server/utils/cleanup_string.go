package utils

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// DisplayTitle collapses whitespace, title-cases every word and drops a
// trailing period.
func DisplayTitle(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	s = cases.Title(language.English, cases.NoLower).String(s)
	return strings.TrimSuffix(s, ".")
}
