package shared

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// FoldUpper trims raw and upper-cases it for enum parsing.
// A Caser holds state, so one is built per call.
func FoldUpper(raw string) string {
	return cases.Upper(language.Und).String(strings.TrimSpace(raw))
}
