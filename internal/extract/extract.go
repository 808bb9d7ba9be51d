// Package extract locates the command construction call inside a function
// body and reassembles it onto a single line.
package extract

import (
	"strings"

	"github.com/phobologic/cmdschema/internal/scan"
)

// Lines returns the body lines making up the call that starts at the first
// line containing marker. The first line is cut to start at the marker. Lines
// are appended while the captured text has more '(' than ')'. ok is false if
// no line contains marker.
func Lines(body []string, marker string) (lines []string, ok bool) {
	opens, closes := 0, 0
	for _, line := range body {
		if len(lines) == 0 {
			i := strings.Index(line, marker)
			if i < 0 {
				continue
			}
			line = line[i:]
		} else if opens <= closes {
			break
		}
		lines = append(lines, line)
		o, c := scan.Balance(line)
		opens += o
		closes += c
	}
	return lines, len(lines) > 0
}

// Call returns the call expression starting at marker, trimmed lines joined
// by single spaces. Text after the ')' that closes the call is dropped.
func Call(body []string, marker string) (string, bool) {
	lines, ok := Lines(body, marker)
	if !ok {
		return "", false
	}
	text := strings.Join(trimAll(lines), " ")
	if end := scan.ClosingIndex(text); end >= 0 {
		text = text[:end+1]
	}
	return text, true
}

func trimAll(lines []string) []string {
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = strings.TrimSpace(l)
	}
	return out
}
