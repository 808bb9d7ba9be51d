// Package segment splits Swift source text into per-function blocks.
package segment

import (
	"regexp"
	"strings"

	"github.com/phobologic/cmdschema/internal/model"
)

// Options configures segmentation.
type Options struct {
	Keyword       string // function declaration keyword, e.g. "func"
	CommentMarker string // line comment marker, e.g. "//"
}

// Segmenter folds source lines into function blocks.
type Segmenter struct {
	opts    Options
	keyword *regexp.Regexp
}

// New returns a Segmenter for opts.
func New(opts Options) *Segmenter {
	return &Segmenter{
		opts:    opts,
		keyword: regexp.MustCompile(`(^|\W)` + regexp.QuoteMeta(opts.Keyword) + `\s`),
	}
}

// IsDeclaration reports whether line contains the declaration keyword as a
// whole word followed by whitespace.
func (s *Segmenter) IsDeclaration(line string) bool {
	return s.keyword.MatchString(line)
}

// Split returns the function blocks of text in source order. Lines before
// the first declaration are dropped. It never fails: malformed input yields
// fewer or malformed blocks.
func (s *Segmenter) Split(text string) []model.FunctionBlock {
	var blocks []model.FunctionBlock
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimRight(line, "\r")
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, s.opts.CommentMarker) {
			continue
		}
		if s.IsDeclaration(line) {
			blocks = append(blocks, model.FunctionBlock{Lines: []string{line}})
			continue
		}
		if len(blocks) > 0 {
			last := &blocks[len(blocks)-1]
			last.Lines = append(last.Lines, line)
		}
	}
	return blocks
}
