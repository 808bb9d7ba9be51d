// Package reconcile merges a function's parameter table into its raw command
// schema.
package reconcile

import (
	"github.com/phobologic/cmdschema/internal/model"
)

// Merge replaces every argument value that names a declared parameter with
// that parameter's descriptor. Other values pass through as literals.
func Merge(params model.ParameterTable, raw model.RawCommandSchema) model.FunctionSchema {
	fs := model.FunctionSchema{
		Metadata:  append(model.Fields(nil), raw.Metadata...),
		Arguments: make([]model.NamedArgument, 0, len(raw.Arguments)),
	}
	for _, pair := range raw.Arguments {
		v := model.ArgumentValue{Literal: pair.Value}
		if p, ok := params.Lookup(pair.Value); ok {
			td := p.Type
			v = model.ArgumentValue{Descriptor: &td}
		}
		fs.Arguments = append(fs.Arguments, model.NamedArgument{Name: pair.Name, Value: v})
	}
	return fs
}
