// cmdschema extracts the RubyCommand schema of every function in a
// Fastlane.swift file and emits it as JSON.
package main

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/phobologic/cmdschema/internal/config"
	"github.com/phobologic/cmdschema/internal/diff"
	"github.com/phobologic/cmdschema/internal/discover"
	"github.com/phobologic/cmdschema/internal/emit"
	"github.com/phobologic/cmdschema/internal/lang"
	"github.com/phobologic/cmdschema/internal/model"
	"github.com/phobologic/cmdschema/internal/pipeline"
	"github.com/phobologic/cmdschema/internal/signature"
	"github.com/phobologic/cmdschema/internal/toon"
	"github.com/phobologic/cmdschema/internal/watch"
)

var version = "dev"

// ErrStale is returned by --check when the output file is out of date.
var ErrStale = errors.New("output is out of date")

const (
	formatJSON = "json"
	formatTOON = "toon"
)

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	root := newRootCmd(stdout, stderr)
	root.AddCommand(newDocsCmd(stdout, stderr))
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	return root.Execute()
}

type options struct {
	output      string
	pretty      bool
	format      string
	configPath  string
	workers     int
	include     []string
	exclude     []string
	check       bool
	verify      bool
	watch       bool
	cachePath   string
	noIgnore    bool
	verbose     bool
	showVersion bool
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	var opts options

	cmd := &cobra.Command{
		Use:   "cmdschema [flags] <Fastlane.swift | dir>",
		Short: "Extract the RubyCommand schema of a Fastlane.swift file",
		Long: `cmdschema reads a Swift file whose functions wrap RubyCommand(...) calls and
emits a JSON object mapping each function name to the command's metadata and
its arguments, each argument resolved to the declared parameter's type,
default value and nullability.

If the path is a directory, files matching source_glob (default
**/Fastlane.swift) are merged in path order.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.showVersion {
				_, _ = fmt.Fprintf(stdout, "cmdschema %s\n", version)
				return nil
			}
			if len(args) == 0 {
				return errors.New("missing source path")
			}
			if !cmd.Flags().Changed("workers") {
				opts.workers = -1
			}
			return generate(cmd.Context(), args[0], opts, stdout, stderr)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.output, "output", "o", "", "file to write results to (default: standard output)")
	f.BoolVar(&opts.pretty, "pretty", false, "indent file output (standard output is always indented)")
	f.StringVar(&opts.format, "format", formatJSON, "output format: json or toon")
	f.StringVar(&opts.configPath, "config", "", "config file (default: "+config.DefaultFile+" if present)")
	f.IntVarP(&opts.workers, "workers", "w", 0, "parallel workers (default: GOMAXPROCS)")
	f.StringArrayVar(&opts.include, "include", nil, "only emit functions matching this glob (repeatable)")
	f.StringArrayVar(&opts.exclude, "exclude", nil, "skip functions matching this glob (repeatable)")
	f.BoolVar(&opts.check, "check", false, "fail with a diff if the --output file is out of date")
	f.BoolVar(&opts.verify, "verify", false, "warn about declarations the segmenter missed")
	f.BoolVar(&opts.watch, "watch", false, "regenerate whenever the source changes")
	f.StringVar(&opts.cachePath, "cache", "", "cache file path (reused only while sources, format and config are unchanged)")
	f.BoolVar(&opts.noIgnore, "no-ignore", false, "do not honor .gitignore during directory discovery")
	f.BoolVarP(&opts.verbose, "verbose", "v", false, "log skipped functions")
	f.BoolVarP(&opts.showVersion, "version", "V", false, "show version and exit")

	return cmd
}

func newLogger(stderr io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))
}

// loadConfig applies flag overrides on top of the file and environment
// layers. A negative workers value leaves the configured count alone.
func loadConfig(opts options) (config.Config, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return config.Config{}, err
	}
	if opts.workers >= 0 {
		cfg.Workers = opts.workers
	}
	cfg.Include = append(cfg.Include, opts.include...)
	cfg.Exclude = append(cfg.Exclude, opts.exclude...)
	return cfg, cfg.Validate()
}

func generate(ctx context.Context, path string, opts options, stdout, stderr io.Writer) error {
	if opts.format != formatJSON && opts.format != formatTOON {
		return fmt.Errorf("unsupported format %q", opts.format)
	}
	if opts.check && opts.output == "" {
		return errors.New("--check requires --output")
	}

	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}
	logger := newLogger(stderr, opts.verbose)

	p, err := pipeline.New(cfg, logger)
	if err != nil {
		return err
	}

	sources, err := resolveSources(path, cfg, !opts.noIgnore)
	if err != nil {
		return err
	}

	// Check cache freshness
	key := cacheKey(cfg, opts)
	if opts.cachePath != "" && !opts.check && !opts.watch && cacheIsFresh(opts.cachePath, sources) {
		if data, ok := readCache(opts.cachePath, key); ok {
			return deliver(data, opts.output, stdout)
		}
	}

	build := func() error {
		schema, err := buildSchema(p, sources)
		if err != nil {
			return err
		}
		if opts.verify {
			if err := verifySegmentation(ctx, p, cfg, sources, logger); err != nil {
				return err
			}
		}

		data, err := encode(schema, opts)
		if err != nil {
			return err
		}

		if opts.check {
			return checkOutput(opts.output, data, stdout)
		}

		// Write cache
		if opts.cachePath != "" {
			_ = writeCache(opts.cachePath, key, data)
		}
		return deliver(data, opts.output, stdout)
	}

	if err := build(); err != nil {
		return err
	}
	if !opts.watch {
		return nil
	}

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	logger.Info("watching for changes", "files", len(sources))
	return watch.Run(ctx, watch.Options{Paths: sources, Logger: logger}, build)
}

// resolveSources returns path itself for a file, or the discovered sources
// for a directory.
func resolveSources(path string, cfg config.Config, respectGitignore bool) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("source path: %w", err)
	}
	if !info.IsDir() {
		return []string{path}, nil
	}
	return discover.Files(path, discover.Options{
		Pattern:          cfg.SourceGlob,
		RespectGitignore: respectGitignore,
	})
}

func buildSchema(p *pipeline.Pipeline, sources []string) (*model.Schema, error) {
	schema := &model.Schema{}
	for _, src := range sources {
		data, err := os.ReadFile(src)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", src, err)
		}
		schema.Merge(p.Run(string(data)))
	}
	return schema, nil
}

// encode renders the schema. Standard output is always indented; file output
// only with --pretty.
func encode(schema *model.Schema, opts options) ([]byte, error) {
	if opts.format == formatTOON {
		return []byte(toon.Encode(schema) + "\n"), nil
	}
	return emit.JSON(schema, opts.output == "" || opts.pretty)
}

func deliver(data []byte, output string, stdout io.Writer) error {
	if output == "" {
		_, _ = stdout.Write(data)
		return nil
	}
	if err := os.WriteFile(output, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", output, err)
	}
	return nil
}

func checkOutput(output string, data []byte, stdout io.Writer) error {
	existing, err := os.ReadFile(output)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("reading %s: %w", output, err)
	}
	patch, err := diff.Unified(output, "generated", existing, data)
	if err != nil {
		return fmt.Errorf("diffing %s: %w", output, err)
	}
	if patch == "" {
		return nil
	}
	_, _ = fmt.Fprint(stdout, patch)
	return fmt.Errorf("%s: %w", output, ErrStale)
}

// verifySegmentation warns about functions tree-sitter declares that the
// segmenter never started a block for.
func verifySegmentation(ctx context.Context, p *pipeline.Pipeline, cfg config.Config, sources []string, logger *slog.Logger) error {
	if ctx == nil {
		ctx = context.Background()
	}
	for _, src := range sources {
		l := lang.Languages[lang.ForExtension(filepath.Ext(src))]
		if l == nil {
			logger.Debug("verify skipped: unsupported language", "file", src)
			continue
		}
		data, err := os.ReadFile(src)
		if err != nil {
			return fmt.Errorf("reading %s: %w", src, err)
		}
		decls, err := l.Declarations(ctx, data)
		if err != nil {
			return fmt.Errorf("verifying %s: %w", src, err)
		}

		segmented := make(map[string]struct{})
		for _, b := range p.Segment(string(data)) {
			name := signature.FunctionName(b.Lines[0], cfg.FuncKeyword)
			// tree-sitter names generic functions without their parameter clause.
			name, _, _ = strings.Cut(name, "<")
			segmented[strings.TrimSpace(name)] = struct{}{}
		}
		for _, d := range lang.Missing(decls, segmented) {
			logger.Warn("declaration not segmented", "file", src, "function", d.Name, "line", d.Line)
		}
	}
	return nil
}

func cacheIsFresh(cachePath string, sources []string) bool {
	cacheInfo, err := os.Stat(cachePath)
	if err != nil {
		return false
	}
	cacheMtime := cacheInfo.ModTime()

	for _, src := range sources {
		fi, err := os.Stat(src)
		if err != nil {
			return false
		}
		if !fi.ModTime().Before(cacheMtime) {
			return false
		}
	}
	return true
}

const cacheHeader = "cmdschema-cache "

// cacheKey identifies everything besides the sources that shapes the output.
func cacheKey(cfg config.Config, opts options) string {
	h := sha256.New()
	_, _ = fmt.Fprintf(h, "%s\n%t\n%+v", opts.format, opts.output == "" || opts.pretty, cfg)
	return hex.EncodeToString(h.Sum(nil))
}

// readCache returns the cached output if it was written under key.
func readCache(path, key string) ([]byte, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, false
	}
	header, body, ok := bytes.Cut(data, []byte("\n"))
	if !ok || string(header) != cacheHeader+key {
		return nil, false
	}
	return body, true
}

func writeCache(path, key string, data []byte) error {
	buf := make([]byte, 0, len(cacheHeader)+len(key)+1+len(data))
	buf = append(buf, cacheHeader+key+"\n"...)
	buf = append(buf, data...)
	return os.WriteFile(path, buf, 0o644)
}
