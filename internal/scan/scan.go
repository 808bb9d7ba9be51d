// Package scan provides the delimiter-aware scanners shared by the command
// extractor and the command schema builder.
//
// All scanners skip the contents of double-quoted string literals, honoring
// backslash escapes, so delimiters inside literals never count.
package scan

import "strings"

// Balance returns the number of '(' and ')' characters in s outside string
// literals.
func Balance(s string) (opens, closes int) {
	walk(s, func(i int, c byte, depth int) bool {
		switch c {
		case '(':
			opens++
		case ')':
			closes++
		}
		return true
	})
	return opens, closes
}

// ClosingIndex returns the index of the ')' that balances the first '(' in s,
// or -1 if s never balances.
func ClosingIndex(s string) int {
	idx := -1
	seen := false
	walk(s, func(i int, c byte, depth int) bool {
		if c == '(' {
			seen = true
		}
		if seen && c == ')' && depth == 0 {
			idx = i
			return false
		}
		return true
	})
	return idx
}

// SplitTopLevel splits s on sep wherever sep is outside string literals and
// not nested inside (), [] or {}.
func SplitTopLevel(s string, sep byte) []string {
	var parts []string
	start := 0
	walk(s, func(i int, c byte, depth int) bool {
		if c == sep && depth == 0 {
			parts = append(parts, s[start:i])
			start = i + 1
		}
		return true
	})
	return append(parts, s[start:])
}

// IndexTopLevel returns the index of the first occurrence of substr in s that
// starts outside string literals at nesting depth zero, or -1.
func IndexTopLevel(s, substr string) int {
	if substr == "" {
		return 0
	}
	idx := -1
	walk(s, func(i int, c byte, depth int) bool {
		if depth == 0 && strings.HasPrefix(s[i:], substr) {
			idx = i
			return false
		}
		return true
	})
	return idx
}

// CutTopLevel splits s around the first top-level occurrence of sep.
func CutTopLevel(s, sep string) (before, after string, found bool) {
	i := IndexTopLevel(s, sep)
	if i < 0 {
		return s, "", false
	}
	return s[:i], s[i+len(sep):], true
}

// walk calls fn for every byte of s outside string literals. depth is the
// nesting depth before an opening delimiter and after a closing one, so a
// delimiter is reported at the depth of its surroundings. Returning false
// stops the walk.
func walk(s string, fn func(i int, c byte, depth int) bool) {
	depth := 0
	inString := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if inString {
			switch c {
			case '\\':
				i++
			case '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
			if !fn(i, c, depth) {
				return
			}
			continue
		case ')', ']', '}':
			if depth > 0 {
				depth--
			}
		}
		if !fn(i, c, depth) {
			return
		}
		switch c {
		case '(', '[', '{':
			depth++
		}
	}
}
