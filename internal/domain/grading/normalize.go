package grading

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// Normalize prepares an answer for comparison: surrounding whitespace is
// trimmed, inner whitespace collapsed, the text composed to NFC so that
// precomposed and combining accents compare equal, and case folded.
func Normalize(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	s = norm.NFC.String(s)
	// cases.Caser is stateful, so a fresh one is used per call.
	return cases.Fold().String(s)
}
