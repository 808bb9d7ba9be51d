// Package diff reports differences between a committed schema file and
// freshly generated output.
package diff

import (
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

// DefaultContext is the number of unchanged lines around each hunk.
const DefaultContext = 3

// Unified returns a unified diff turning a into b, or "" when they are equal.
func Unified(aName, bName string, a, b []byte) (string, error) {
	if string(a) == string(b) {
		return "", nil
	}
	u := difflib.UnifiedDiff{
		A:        splitLinesKeepNL(string(a)),
		B:        splitLinesKeepNL(string(b)),
		FromFile: aName,
		ToFile:   bName,
		Context:  DefaultContext,
	}
	return difflib.GetUnifiedDiffString(u)
}

// splitLinesKeepNL splits into lines and keeps newline characters,
// which produces better unified hunks.
func splitLinesKeepNL(s string) []string {
	if s == "" {
		return []string{}
	}
	lines := strings.SplitAfter(s, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}
