// Package command parses a reassembled command construction call into its
// metadata and argument descriptors.
package command

import (
	"strings"

	"github.com/phobologic/cmdschema/internal/model"
	"github.com/phobologic/cmdschema/internal/scan"
)

// CommandIDKey is dropped from the metadata when it has no value.
const CommandIDKey = "commandID"

// Options names the markers of the command call grammar.
type Options struct {
	ArgsKeyword    string // "args:"
	ArgumentMarker string // "RubyCommand.Argument"
	NilLiteral     string // "nil"
}

// Build parses callText, e.g.
//
//	RubyCommand(commandID: "", methodName: "adb", className: nil, args: [RubyCommand.Argument(name: "serial", value: serial)])
//
// into its metadata and (name, value) argument pairs.
func Build(callText string, opts Options) model.RawCommandSchema {
	inner := strings.TrimSpace(callText)
	if i := strings.Index(inner, "("); i >= 0 {
		inner = inner[i+1:]
	}
	inner = strings.TrimSuffix(inner, ")")

	metaText, arrayText, _ := scan.CutTopLevel(inner, opts.ArgsKeyword)

	raw := model.RawCommandSchema{Metadata: parseMetadata(metaText, opts)}
	raw.Arguments = parseArguments(arrayText, opts)
	return raw
}

func parseMetadata(text string, opts Options) model.Fields {
	var fields model.Fields
	for _, entry := range scan.SplitTopLevel(text, ',') {
		key, value, ok := keyValue(entry)
		if !ok || key == "" || value == opts.NilLiteral {
			continue
		}
		fields.Set(key, unquote(value))
	}
	if v, ok := fields.Get(CommandIDKey); ok && v == "" {
		fields.Delete(CommandIDKey)
	}
	return fields
}

// parseArguments reads the descriptor array. Descriptors missing a name or a
// value are dropped; a repeated name overwrites the earlier value in place.
func parseArguments(text string, opts Options) []model.ArgumentPair {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "[")
	text = strings.TrimSuffix(text, "]")

	var pairs []model.ArgumentPair
	index := make(map[string]int)
	for _, elem := range scan.SplitTopLevel(text, ',') {
		name, value, ok := parseDescriptor(elem, opts.ArgumentMarker)
		if !ok {
			continue
		}
		if i, seen := index[name]; seen {
			pairs[i].Value = value
			continue
		}
		index[name] = len(pairs)
		pairs = append(pairs, model.ArgumentPair{Name: name, Value: value})
	}
	return pairs
}

// parseDescriptor reads one `RubyCommand.Argument(name: "x", value: x)`.
func parseDescriptor(elem, marker string) (name, value string, ok bool) {
	elem = strings.TrimSpace(elem)
	if !strings.HasPrefix(elem, marker) {
		return "", "", false
	}
	elem = strings.TrimSpace(strings.TrimPrefix(elem, marker))
	if !strings.HasPrefix(elem, "(") || !strings.HasSuffix(elem, ")") {
		return "", "", false
	}
	elem = elem[1 : len(elem)-1]

	var hasName, hasValue bool
	for _, field := range scan.SplitTopLevel(elem, ',') {
		k, v, ok := keyValue(field)
		if !ok {
			continue
		}
		switch k {
		case "name":
			name, hasName = unquote(v), true
		case "value":
			value, hasValue = v, true
		}
	}
	if !hasName || !hasValue || name == "" {
		return "", "", false
	}
	return name, value, true
}

// keyValue splits "key: value" on the first colon.
func keyValue(s string) (key, value string, ok bool) {
	key, value, ok = strings.Cut(s, ":")
	if !ok {
		return "", "", false
	}
	return strings.TrimSpace(key), strings.TrimSpace(value), true
}

func unquote(s string) string {
	return strings.Trim(s, `"`)
}
