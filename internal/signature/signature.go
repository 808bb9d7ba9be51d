// Package signature parses the declaration of one function block into its
// name, parameter table and body lines.
package signature

import (
	"strings"

	"github.com/phobologic/cmdschema/internal/model"
	"github.com/phobologic/cmdschema/internal/resolve"
	"github.com/phobologic/cmdschema/internal/scan"
)

// Options configures signature parsing.
type Options struct {
	Keyword       string
	CommandMarker string
	Resolve       resolve.Options
}

// Result is the parsed declaration of one function.
type Result struct {
	Name   string
	Params model.ParameterTable
	Body   []string
}

// Parse splits block at the first line containing '{'. Lines up to and
// including it declare the parameters; the rest is the body. ok is false when
// the body is empty. Later parameters with a duplicate name overwrite earlier
// ones.
func Parse(block model.FunctionBlock, opts Options) (Result, bool) {
	if len(block.Lines) == 0 {
		return Result{}, false
	}

	brace := len(block.Lines) - 1
	for i, line := range block.Lines {
		if strings.Contains(line, "{") {
			brace = i
			break
		}
	}
	head := block.Lines[:brace+1]
	body := block.Lines[brace+1:]
	if len(body) == 0 {
		return Result{}, false
	}

	table := model.ParameterTable{Params: make(map[string]model.Parameter)}
	for _, line := range body {
		if strings.Contains(line, opts.CommandMarker) {
			table.HasCommandMarker = true
			break
		}
	}
	for _, p := range parameters(head, opts.Resolve) {
		table.Params[p.Name] = p
	}

	return Result{
		Name:   FunctionName(block.Lines[0], opts.Keyword),
		Params: table,
		Body:   body,
	}, true
}

// FunctionName returns the text between keyword and the first '(' of a
// declaration line.
func FunctionName(line, keyword string) string {
	i := strings.Index(line, keyword+" ")
	if i < 0 {
		return ""
	}
	rest := line[i+len(keyword)+1:]
	if j := strings.Index(rest, "("); j >= 0 {
		rest = rest[:j]
	}
	return strings.TrimSpace(rest)
}

// parameters parses the parameter list of the declaration lines. The list
// runs from the first '(' to its balancing ')'; if it never balances, it runs
// to the last ')' seen.
func parameters(head []string, opts resolve.Options) []model.Parameter {
	decl := strings.Join(trimAll(head), " ")
	open := strings.Index(decl, "(")
	if open < 0 {
		return nil
	}
	list := decl[open:]
	if end := scan.ClosingIndex(list); end >= 0 {
		list = list[1:end]
	} else if end := strings.LastIndex(list, ")"); end > 0 {
		list = list[1:end]
	} else {
		list = list[1:]
	}

	var params []model.Parameter
	for _, entry := range scan.SplitTopLevel(list, ',') {
		if p, ok := parseParameter(entry, opts); ok {
			params = append(params, p)
		}
	}
	return params
}

// parseParameter reads one "name: Type = default" entry.
func parseParameter(entry string, opts resolve.Options) (model.Parameter, bool) {
	assignment, rawDefault, hasDefault := scan.CutTopLevel(strings.TrimSpace(entry), "=")
	name, typeToken, ok := strings.Cut(assignment, ":")
	if !ok {
		return model.Parameter{}, false
	}

	// "_ command" and "from path" declare an external label; the body
	// refers to the last word.
	fields := strings.Fields(name)
	if len(fields) == 0 {
		return model.Parameter{}, false
	}
	name = fields[len(fields)-1]

	return model.Parameter{
		Name: name,
		Type: resolve.Resolve(typeToken, rawDefault, hasDefault, opts),
	}, true
}

func trimAll(lines []string) []string {
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = strings.TrimSpace(l)
	}
	return out
}
