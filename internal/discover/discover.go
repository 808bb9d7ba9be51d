// Package discover finds Swift command sources under a directory.
package discover

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gobwas/glob"
	ignore "github.com/sabhiram/go-gitignore"
)

// ErrNoSources indicates no file matched the source pattern.
var ErrNoSources = errors.New("no source files found")

// Options controls discovery.
type Options struct {
	// Pattern is matched against slash-separated paths relative to the root.
	Pattern string

	// RespectGitignore skips paths matched by the root .gitignore.
	RespectGitignore bool
}

var skipDirs = map[string]struct{}{
	".git":         {},
	".hg":          {},
	".svn":         {},
	".build":       {},
	".swiftpm":     {},
	"DerivedData":  {},
	"Pods":         {},
	"Carthage":     {},
	"xcuserdata":   {},
	".bundle":      {},
	".gradle":      {},
	"__pycache__":  {},
	".mypy_cache":  {},
	".ruff_cache":  {},
	".idea":        {},
	".vscode":      {},
	"fastlane_log": {},
}

// Files returns the paths of files under root matching opts.Pattern, sorted.
// Returned paths are joined to root.
func Files(root string, opts Options) ([]string, error) {
	matcher, err := glob.Compile(opts.Pattern, '/')
	if err != nil {
		return nil, fmt.Errorf("compiling %q: %w", opts.Pattern, err)
	}

	var gi *ignore.GitIgnore
	if opts.RespectGitignore {
		gi = loadGitignore(root)
	}

	var results []string

	err = filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil // skip errors
		}

		if d.IsDir() {
			if path == root {
				return nil
			}
			if _, skip := skipDirs[d.Name()]; skip {
				return filepath.SkipDir
			}
			return nil
		}

		// Skip symlinks
		if d.Type()&os.ModeSymlink != 0 {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)

		if gi != nil && gi.MatchesPath(rel) {
			return nil
		}
		if !matches(matcher, rel) {
			return nil
		}

		results = append(results, path)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, fmt.Errorf("%w under %s matching %q", ErrNoSources, root, opts.Pattern)
	}

	sort.Strings(results)
	return results, nil
}

// matches treats a leading "**/" as also matching at the root, so
// "**/Fastlane.swift" finds a top-level Fastlane.swift.
func matches(g glob.Glob, rel string) bool {
	if g.Match(rel) {
		return true
	}
	return !strings.Contains(rel, "/") && g.Match("/"+rel)
}

func loadGitignore(root string) *ignore.GitIgnore {
	path := filepath.Join(root, ".gitignore")
	gi, err := ignore.CompileIgnoreFile(path)
	if err != nil {
		return nil
	}
	return gi
}
