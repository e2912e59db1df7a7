// Package resolver statically determines the values of module-level
// variables in a Python submission. Only literals and a small set of
// operators are evaluated; anything that would require running the
// program resolves to Unresolvable.
package resolver

import (
	"context"
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"
)

// Unresolvable marks a variable whose value cannot be determined without
// executing the submission.
var Unresolvable = unresolvable{}

type unresolvable struct{}

func (unresolvable) String() string { return "Unresolvable dynamic value" }

// Resolver walks a parse tree and evaluates simple assignments
type Resolver struct {
	parser *sitter.Parser
}

// New creates a new Resolver with the Python grammar loaded
func New() *Resolver {
	parser := sitter.NewParser()
	parser.SetLanguage(python.GetLanguage())
	return &Resolver{
		parser: parser,
	}
}

// Resolve evaluates every plain assignment to a single name, in source
// order, and returns the final value of each variable. Later bindings
// overwrite earlier ones. Values are Go primitives (int64, float64,
// string, bool, nil), []any for lists and tuples, map[string]any for
// dictionaries with string keys, or Unresolvable.
func (r *Resolver) Resolve(source []byte) (map[string]any, error) {
	tree, err := r.parser.ParseCtx(context.Background(), nil, source)
	if err != nil {
		return nil, fmt.Errorf("parsing: %w", err)
	}
	defer tree.Close()

	values := make(map[string]any)
	bind(tree.RootNode(), source, values)
	return values, nil
}

// bind visits assignment nodes in source order, including those nested
// in function and class bodies, and records the evaluated right-hand
// side for single-name targets. Annotated assignments and unpacking
// targets are skipped.
func bind(node *sitter.Node, source []byte, values map[string]any) {
	if node.Type() == "assignment" && node.ChildByFieldName("type") == nil {
		left := node.ChildByFieldName("left")
		right := node.ChildByFieldName("right")
		if left != nil && right != nil && left.Type() == "identifier" {
			values[left.Content(source)] = eval(right, source, values)
		}
	}

	for i := 0; i < int(node.NamedChildCount()); i++ {
		bind(node.NamedChild(i), source, values)
	}
}
