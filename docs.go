package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/phobologic/cmdschema/internal/model"
	"github.com/phobologic/cmdschema/internal/pipeline"
)

const (
	sentinelStart = "<!-- cmdschema:start -->"
	sentinelEnd   = "<!-- cmdschema:end -->"

	defaultDocsPath = "COMMANDS.md"
)

// newDocsCmd implements `cmdschema docs`, which writes (or updates) a
// Markdown reference of every command in a docs file.
func newDocsCmd(stdout, stderr io.Writer) *cobra.Command {
	var (
		dryRun     bool
		configPath string
		noIgnore   bool
	)

	cmd := &cobra.Command{
		Use:   "docs [flags] <Fastlane.swift | dir> [path-to-docs.md]",
		Short: "Write a Markdown command reference",
		Long: `Write a Markdown reference of every command to a docs file. The section is
wrapped in sentinel comments so it can be updated in place on subsequent runs
without touching surrounding content. Creates the file if it does not exist.

path-to-docs.md defaults to ./` + defaultDocsPath + `.`,
		Args:          cobra.RangeArgs(1, 2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := options{configPath: configPath, noIgnore: noIgnore, workers: -1}
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			p, err := pipeline.New(cfg, newLogger(stderr, false))
			if err != nil {
				return err
			}
			sources, err := resolveSources(args[0], cfg, !noIgnore)
			if err != nil {
				return err
			}
			schema, err := buildSchema(p, sources)
			if err != nil {
				return err
			}

			path := defaultDocsPath
			if len(args) > 1 {
				path = args[1]
			}
			return writeDocs(path, generateSection(schema), dryRun, stdout, stderr)
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print what would be written without modifying the file")
	cmd.Flags().StringVar(&configPath, "config", "", "config file")
	cmd.Flags().BoolVar(&noIgnore, "no-ignore", false, "do not honor .gitignore during directory discovery")
	return cmd
}

func writeDocs(path, section string, dryRun bool, stdout, stderr io.Writer) error {
	existing, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	updated := applySection(string(existing), section)

	if dryRun {
		_, _ = fmt.Fprint(stdout, updated)
		return nil
	}

	if err := os.WriteFile(path, []byte(updated), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}

	_, _ = fmt.Fprintf(stderr, "wrote command reference to %s\n", path)
	return nil
}

// generateSection renders schema as a sentinel-wrapped Markdown block.
func generateSection(schema *model.Schema) string {
	var b strings.Builder
	b.WriteString("## Commands\n")
	for _, e := range schema.Entries {
		fmt.Fprintf(&b, "\n### `%s`\n", e.Name)
		for _, f := range e.Schema.Metadata {
			fmt.Fprintf(&b, "\n- %s: `%s`", f.Key, f.Value)
		}
		if len(e.Schema.Metadata) > 0 {
			b.WriteString("\n")
		}
		if len(e.Schema.Arguments) == 0 {
			b.WriteString("\nNo arguments.\n")
			continue
		}
		b.WriteString("\n| Argument | Type | Default | Nullable |\n")
		b.WriteString("|---|---|---|---|\n")
		for _, a := range e.Schema.Arguments {
			fmt.Fprintf(&b, "| `%s` | %s |\n", a.Name, argumentCells(a.Value))
		}
	}
	return sentinelStart + "\n" + strings.TrimRight(b.String(), "\n") + "\n" + sentinelEnd
}

func argumentCells(v model.ArgumentValue) string {
	if v.Descriptor == nil {
		return fmt.Sprintf("literal `%s` | | ", escapeCell(v.Literal))
	}
	td := v.Descriptor
	def := ""
	if td.DefaultValue != nil {
		def = fmt.Sprintf("`%v`", formatDefault(td.DefaultValue))
	}
	nullable := "no"
	if td.IsNullable {
		nullable = "yes"
	}
	return fmt.Sprintf("`%s` | %s | %s", escapeCell(td.Type), def, nullable)
}

func formatDefault(v any) string {
	switch v := v.(type) {
	case []any:
		return "[]"
	case map[string]any:
		return "{}"
	case string:
		return fmt.Sprintf("%q", v)
	default:
		return fmt.Sprint(v)
	}
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}

// applySection inserts section into content, replacing an existing sentinel
// block if present or appending if not. It is a pure function for easy testing.
func applySection(content, section string) string {
	start := strings.Index(content, sentinelStart)
	end := strings.Index(content, sentinelEnd)

	if start >= 0 && end > start {
		return content[:start] + section + content[end+len(sentinelEnd):]
	}

	// Append, ensuring a blank line separator.
	if len(content) > 0 && !strings.HasSuffix(content, "\n") {
		content += "\n"
	}
	return content + "\n" + section + "\n"
}
