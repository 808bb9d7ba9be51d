package lang

import (
	"context"
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"
)

// Declaration is a function declaration found by tree-sitter.
type Declaration struct {
	Name string
	Line int
}

// Declarations parses source with l and returns its function declarations in
// source order.
func (l *Language) Declarations(ctx context.Context, source []byte) ([]Declaration, error) {
	if len(source) == 0 {
		return nil, nil
	}
	query, err := l.GetDeclQuery()
	if err != nil {
		return nil, err
	}

	parser := l.NewParser()
	defer parser.Close()

	tree, err := parser.ParseCtx(ctx, nil, source)
	if err != nil {
		return nil, fmt.Errorf("parsing %s source: %w", l.Name, err)
	}
	defer tree.Close()

	qc := sitter.NewQueryCursor()
	defer qc.Close()
	qc.Exec(query, tree.RootNode())

	var decls []Declaration
	for {
		match, ok := qc.NextMatch()
		if !ok {
			break
		}
		match = qc.FilterPredicates(match, source)

		for _, c := range match.Captures {
			if query.CaptureNameForId(c.Index) != "name" {
				continue
			}
			decls = append(decls, Declaration{
				Name: NodeText(c.Node, source),
				Line: int(c.Node.StartPoint().Row) + 1,
			})
		}
	}
	return decls, nil
}

// Missing returns the declarations whose name is not in found.
func Missing(decls []Declaration, found map[string]struct{}) []Declaration {
	var missing []Declaration
	for _, d := range decls {
		if _, ok := found[d.Name]; !ok {
			missing = append(missing, d)
		}
	}
	return missing
}
