package role

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// Normalize returns the comparison form of a backend role string.
func Normalize(raw string) string {
	s := norm.NFC.String(raw)
	s = strings.Join(strings.Fields(s), " ")
	if s == "" {
		return ""
	}
	// cases.Caser is stateful, so a fresh one per call keeps Normalize goroutine-safe.
	return cases.Fold().String(s)
}
