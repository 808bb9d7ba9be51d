// Package toon implements TOON (Token-Oriented Object Notation) encoding.
package toon

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/phobologic/cmdschema/internal/model"
)

var (
	needsQuoting = regexp.MustCompile(`[,:"\\{}\[\]]`)
	looksNumeric = regexp.MustCompile(`^-?(?:0|[1-9]\d*)(?:\.\d+)?$`)
	keywords     = map[string]struct{}{
		"true":  {},
		"false": {},
		"null":  {},
	}
)

// Encode converts a schema into TOON format: a commands table of metadata
// and an arguments table of reconciled arguments.
func Encode(s *model.Schema) string {
	var commandRows, argRows [][]string
	for _, e := range s.Entries {
		for _, f := range e.Schema.Metadata {
			commandRows = append(commandRows, []string{e.Name, f.Key, f.Value})
		}
		for _, a := range e.Schema.Arguments {
			argRows = append(argRows, argumentRow(e.Name, a))
		}
	}

	parts := []string{
		fmt.Sprintf("functions: %d", s.Len()),
		formatTabular("commands", []string{"function", "key", "value"}, commandRows),
		formatTabular("arguments", []string{"function", "argument", "type", "default", "nullable", "literal"}, argRows),
	}
	return strings.Join(parts, "\n")
}

func argumentRow(function string, a model.NamedArgument) []string {
	td := a.Value.Descriptor
	if td == nil {
		return []string{function, a.Name, "", "", "", a.Value.Literal}
	}
	return []string{
		function,
		a.Name,
		td.Type,
		defaultText(td.DefaultValue),
		fmt.Sprintf("%t", td.IsNullable),
		"",
	}
}

// defaultText renders a default as its JSON text; strings stay bare.
func defaultText(v any) string {
	switch v := v.(type) {
	case nil:
		return ""
	case string:
		return v
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}

func formatTabular(name string, columns []string, rows [][]string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s[%d]{%s}:", name, len(rows), strings.Join(columns, ","))
	for _, row := range rows {
		encoded := make([]string, len(row))
		for i, cell := range row {
			encoded[i] = encodeValue(cell)
		}
		fmt.Fprintf(&b, "\n  %s", strings.Join(encoded, ","))
	}
	return b.String()
}

func encodeValue(value string) string {
	if value == "" {
		return `""`
	}

	if value != strings.TrimSpace(value) {
		return quote(value)
	}

	if strings.ContainsAny(value, "\n\r\t") {
		return quote(value)
	}

	if _, ok := keywords[strings.ToLower(value)]; ok {
		return quote(value)
	}

	if looksNumeric.MatchString(value) {
		return value
	}

	if needsQuoting.MatchString(value) {
		return quote(value)
	}

	if strings.HasPrefix(value, "-") {
		return quote(value)
	}

	return value
}

func quote(value string) string {
	escaped := strings.ReplaceAll(value, `\`, `\\`)
	escaped = strings.ReplaceAll(escaped, `"`, `\"`)
	escaped = strings.ReplaceAll(escaped, "\n", `\n`)
	escaped = strings.ReplaceAll(escaped, "\r", `\r`)
	escaped = strings.ReplaceAll(escaped, "\t", `\t`)
	return `"` + escaped + `"`
}
