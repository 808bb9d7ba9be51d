// Package resolve maps Swift type tokens to canonical type descriptors.
package resolve

import (
	"strings"

	"github.com/phobologic/cmdschema/internal/model"
)

// Canonical type names.
const (
	Boolean = "boolean"
	Number  = "number"
	String  = "string"
	Object  = "object"
)

// Options tunes resolution.
type Options struct {
	// DistinctIntegerType resolves Int to "number". When false, Int falls
	// through to the String case and resolves to "string".
	DistinctIntegerType bool

	// NilLiteral is the default literal meaning "no default".
	NilLiteral string
}

// DefaultOptions returns the options matching the historical output.
func DefaultOptions() Options {
	return Options{NilLiteral: "nil"}
}

// Resolve returns the descriptor for a raw type token and its raw default.
// hasDefault reports whether the declaration carried "= <default>" at all.
// Unknown tokens pass through as opaque type names.
func Resolve(token, rawDefault string, hasDefault bool, opts Options) model.TypeDescriptor {
	token = strings.TrimSpace(token)
	rawDefault = strings.TrimSpace(rawDefault)

	var td model.TypeDescriptor
	if strings.HasSuffix(token, "?") {
		td.IsNullable = true
		token = strings.TrimSuffix(token, "?")
	}

	if hasDefault && rawDefault != opts.NilLiteral {
		td.DefaultValue = literal(rawDefault)
	}

	switch token {
	case "Bool":
		td.DefaultValue = rawDefault == "true"
		token = Boolean
	case "Int":
		if opts.DistinctIntegerType {
			token = Number
			break
		}
		fallthrough
	case "String":
		token = String
	}

	if strings.HasPrefix(token, "[") {
		if strings.Contains(token, ":") {
			token = Object
			if rawDefault == "[:]" {
				td.DefaultValue = map[string]any{}
			}
		} else {
			elem := Resolve(stripBrackets(token), "", false, opts)
			token = elem.Type + "[]"
			if rawDefault == "[]" {
				td.DefaultValue = []any{}
			}
		}
	}

	td.Type = token
	return td
}

// stripBrackets removes every bracket, so nested arrays collapse to a single
// level: [[String]] resolves like [String].
func stripBrackets(token string) string {
	return strings.TrimSpace(bracketStripper.Replace(token))
}

var bracketStripper = strings.NewReplacer("[", "", "]", "")

// literal unquotes a double-quoted string default and returns any other
// default text unchanged.
func literal(raw string) any {
	if len(raw) >= 2 && strings.HasPrefix(raw, `"`) && strings.HasSuffix(raw, `"`) {
		return raw[1 : len(raw)-1]
	}
	return raw
}
