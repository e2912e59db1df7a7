package extractor

import (
	"context"
	"errors"
	"fmt"
	"os"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"

	"github.com/dsu-arl/paceAITester/internal/statement"
)

// ErrSourceNotFound reports that a submission file does not exist.
var ErrSourceNotFound = errors.New("source file not found")

// Extractor uses Tree-sitter to parse Python submissions and normalize
// them into statement values
type Extractor struct {
	parser *sitter.Parser
}

// New creates a new Extractor with the Python grammar loaded
func New() *Extractor {
	parser := sitter.NewParser()
	parser.SetLanguage(python.GetLanguage())
	return &Extractor{
		parser: parser,
	}
}

// ReadSource reads a submission file, distinguishing a missing file
// from other I/O failures
func ReadSource(path string) ([]byte, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrSourceNotFound, path)
		}
		return nil, fmt.Errorf("reading source: %w", err)
	}
	return content, nil
}

// ExtractFile parses a Python file and normalizes its top-level statements
func (e *Extractor) ExtractFile(path string) ([]statement.Statement, error) {
	content, err := ReadSource(path)
	if err != nil {
		return nil, err
	}
	return e.Extract(content)
}

// Extract parses Python source and normalizes every top-level statement.
// Syntax errors do not fail the parse: Tree-sitter produces ERROR nodes
// for unparseable regions, and those surface as generic statements.
func (e *Extractor) Extract(source []byte) ([]statement.Statement, error) {
	tree, err := e.parser.ParseCtx(context.Background(), nil, source)
	if err != nil {
		return nil, fmt.Errorf("parsing: %w", err)
	}
	defer tree.Close()

	return e.normalizeBlock(tree.RootNode(), source), nil
}

// normalizeBlock normalizes every named child of a module or block node
func (e *Extractor) normalizeBlock(node *sitter.Node, source []byte) []statement.Statement {
	var stmts []statement.Statement
	for i := 0; i < int(node.NamedChildCount()); i++ {
		if stmt := e.normalize(node.NamedChild(i), source); stmt != nil {
			stmts = append(stmts, stmt)
		}
	}
	return stmts
}

// normalize maps one syntax node to its statement value. Every node kind
// produces something: forms the checks never inspect become Generic, so
// a submission full of unfamiliar constructs still normalizes cleanly.
func (e *Extractor) normalize(node *sitter.Node, source []byte) statement.Statement {
	line := int(node.StartPoint().Row) + 1

	switch node.Type() {
	case "comment":
		return nil

	case "expression_statement":
		return e.normalizeExpression(node, source)

	case "import_statement":
		return e.extractImport(node, source)

	case "import_from_statement", "future_import_statement":
		return e.extractImportFrom(node, source)

	case "class_definition":
		return e.extractClassDef(node, source)

	case "function_definition":
		if hasAsyncKeyword(node) {
			return &statement.Generic{NodeType: "async_function_definition", Line: line}
		}
		return e.extractFunctionDef(node, source)

	case "decorated_definition":
		if def := node.ChildByFieldName("definition"); def != nil {
			return e.normalize(def, source)
		}
		return &statement.Generic{NodeType: node.Type(), Line: line}

	case "for_statement":
		if hasAsyncKeyword(node) {
			return &statement.Generic{NodeType: "async_for_statement", Line: line}
		}
		return e.extractFor(node, source)

	case "with_statement":
		if hasAsyncKeyword(node) {
			return &statement.Generic{NodeType: "async_with_statement", Line: line}
		}
		return e.extractWith(node, source)

	case "if_statement":
		return e.extractIf(node, source)

	default:
		return &statement.Generic{NodeType: node.Type(), Line: line}
	}
}

// normalizeExpression unwraps an expression statement. Bare calls and
// assignments get their own statement kinds; any other expression is
// kept as rendered text.
func (e *Extractor) normalizeExpression(node *sitter.Node, source []byte) statement.Statement {
	line := int(node.StartPoint().Row) + 1

	inner := node.NamedChild(0)
	if inner == nil {
		return &statement.Generic{NodeType: node.Type(), Line: line}
	}

	switch inner.Type() {
	case "assignment":
		// An annotation makes this "x: int = 1", which the call checks
		// treat as opaque just like augmented assignment.
		if inner.ChildByFieldName("type") != nil {
			return &statement.Generic{NodeType: "annotated_assignment", Line: line}
		}
		return e.extractAssign(inner, source)

	case "augmented_assignment":
		return &statement.Generic{NodeType: inner.Type(), Line: line}

	case "call":
		return e.extractCall(inner, source)

	default:
		return &statement.Expr{Value: render(inner, source), Line: line}
	}
}

func (e *Extractor) extractImport(node *sitter.Node, source []byte) statement.Statement {
	imp := &statement.Import{
		Line: int(node.StartPoint().Row) + 1,
	}

	first := true
	for i := 0; i < int(node.ChildCount()); i++ {
		if node.FieldNameForChild(i) != "name" {
			continue
		}
		name, alias := importedName(node.Child(i), source)
		imp.Names = append(imp.Names, name)
		// Only the first name's alias is tracked; "import a as x, b as y"
		// records x.
		if first {
			imp.Alias = alias
			first = false
		}
	}

	return imp
}

func (e *Extractor) extractImportFrom(node *sitter.Node, source []byte) statement.Statement {
	imp := &statement.ImportFrom{
		Line: int(node.StartPoint().Row) + 1,
	}

	if node.Type() == "future_import_statement" {
		// "from __future__ import ..." has its own node kind with the
		// module spelled as a bare keyword.
		imp.Module = "__future__"
	} else if mod := node.ChildByFieldName("module_name"); mod != nil {
		imp.Module, imp.Level = moduleAndLevel(mod, source)
	}

	first := true
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child.Type() == "wildcard_import" {
			imp.Names = append(imp.Names, "*")
			continue
		}
		if node.FieldNameForChild(i) != "name" {
			continue
		}
		name, alias := importedName(child, source)
		imp.Names = append(imp.Names, name)
		if first {
			imp.Alias = alias
			first = false
		}
	}

	return imp
}

// importedName resolves one entry of an import list to its module name
// and alias. Plain names have no alias.
func importedName(node *sitter.Node, source []byte) (string, string) {
	if node.Type() != "aliased_import" {
		return node.Content(source), ""
	}

	var name, alias string
	if n := node.ChildByFieldName("name"); n != nil {
		name = n.Content(source)
	}
	if a := node.ChildByFieldName("alias"); a != nil {
		alias = a.Content(source)
	}
	return name, alias
}

// moduleAndLevel splits "from ..pkg import x" into the module name and
// the number of leading dots
func moduleAndLevel(node *sitter.Node, source []byte) (string, int) {
	if node.Type() != "relative_import" {
		return node.Content(source), 0
	}

	var module string
	var level int
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		switch child.Type() {
		case "import_prefix":
			level = len(child.Content(source))
		case "dotted_name":
			module = child.Content(source)
		}
	}
	return module, level
}

func (e *Extractor) extractClassDef(node *sitter.Node, source []byte) statement.Statement {
	def := &statement.ClassDef{
		Line: int(node.StartPoint().Row) + 1,
	}

	if name := node.ChildByFieldName("name"); name != nil {
		def.Name = name.Content(source)
	}
	if bases := node.ChildByFieldName("superclasses"); bases != nil {
		for i := 0; i < int(bases.NamedChildCount()); i++ {
			base := bases.NamedChild(i)
			// Keyword arguments like metaclass= are not base classes.
			if base.Type() == "keyword_argument" || base.Type() == "comment" {
				continue
			}
			def.Bases = append(def.Bases, render(base, source))
		}
	}
	if body := node.ChildByFieldName("body"); body != nil {
		def.Body = e.normalizeBlock(body, source)
	}

	return def
}

func (e *Extractor) extractFunctionDef(node *sitter.Node, source []byte) statement.Statement {
	def := &statement.FunctionDef{
		Line: int(node.StartPoint().Row) + 1,
	}

	if name := node.ChildByFieldName("name"); name != nil {
		def.Name = name.Content(source)
	}
	if params := node.ChildByFieldName("parameters"); params != nil {
		def.Args = parameterNames(params, source)
	}
	if body := node.ChildByFieldName("body"); body != nil {
		def.Body = e.normalizeBlock(body, source)
	}

	return def
}

// parameterNames collects the positional-or-keyword parameter names of a
// function. Positional-only parameters (before "/") and keyword-only
// parameters (after "*" or *args) are excluded, as are the catch-alls
// themselves.
func parameterNames(params *sitter.Node, source []byte) []string {
	var names []string
	for i := 0; i < int(params.NamedChildCount()); i++ {
		p := params.NamedChild(i)
		switch p.Type() {
		case "identifier":
			names = append(names, p.Content(source))

		case "typed_parameter":
			// The name is the first named child; the annotation sits
			// under the "type" field.
			inner := p.NamedChild(0)
			if inner == nil {
				continue
			}
			switch inner.Type() {
			case "identifier":
				names = append(names, inner.Content(source))
			case "list_splat_pattern", "dictionary_splat_pattern":
				return names
			}

		case "default_parameter", "typed_default_parameter":
			if name := p.ChildByFieldName("name"); name != nil {
				names = append(names, name.Content(source))
			}

		case "positional_separator":
			names = names[:0]

		case "list_splat_pattern", "keyword_separator", "dictionary_splat_pattern":
			return names
		}
	}
	return names
}

func (e *Extractor) extractFor(node *sitter.Node, source []byte) statement.Statement {
	stmt := &statement.For{
		Line: int(node.StartPoint().Row) + 1,
	}

	if left := node.ChildByFieldName("left"); left != nil {
		stmt.Target = render(left, source)
	}
	if right := node.ChildByFieldName("right"); right != nil {
		stmt.Iterable = render(right, source)
	}
	if body := node.ChildByFieldName("body"); body != nil {
		stmt.Body = e.normalizeBlock(body, source)
	}
	if alt := node.ChildByFieldName("alternative"); alt != nil {
		stmt.OrElse = e.normalizeElse(alt, source)
	}

	return stmt
}

func (e *Extractor) extractWith(node *sitter.Node, source []byte) statement.Statement {
	stmt := &statement.With{
		Line: int(node.StartPoint().Row) + 1,
	}

	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		switch child.Type() {
		case "with_clause":
			for j := 0; j < int(child.NamedChildCount()); j++ {
				if item := child.NamedChild(j); item.Type() == "with_item" {
					stmt.Items = append(stmt.Items, withItem(item, source))
				}
			}
		case "with_item":
			stmt.Items = append(stmt.Items, withItem(child, source))
		}
	}
	if body := node.ChildByFieldName("body"); body != nil {
		stmt.Body = e.normalizeBlock(body, source)
	}

	return stmt
}

// withItem splits "open(f) as fh" into the context expression and the
// bound name. The grammar wraps aliased items in an as_pattern.
func withItem(node *sitter.Node, source []byte) statement.WithItem {
	value := node.ChildByFieldName("value")
	if value == nil {
		value = node.NamedChild(0)
	}
	if value == nil {
		return statement.WithItem{}
	}

	if value.Type() == "as_pattern" {
		item := statement.WithItem{}
		if ctx := value.NamedChild(0); ctx != nil {
			item.Context = render(ctx, source)
		}
		if alias := value.ChildByFieldName("alias"); alias != nil {
			item.Name = alias.Content(source)
		}
		return item
	}

	item := statement.WithItem{Context: render(value, source)}
	if alias := node.ChildByFieldName("alias"); alias != nil {
		item.Name = alias.Content(source)
	}
	return item
}

func (e *Extractor) extractIf(node *sitter.Node, source []byte) statement.Statement {
	stmt := &statement.If{
		Line: int(node.StartPoint().Row) + 1,
	}

	if cond := node.ChildByFieldName("condition"); cond != nil {
		stmt.Test = render(cond, source)
	}
	if body := node.ChildByFieldName("consequence"); body != nil {
		stmt.Body = e.normalizeBlock(body, source)
	}
	stmt.OrElse = e.elseChain(node, source)

	return stmt
}

// elseChain rebuilds the else branch of an if statement. The grammar
// flattens elif clauses onto the enclosing if; the statement model nests
// each elif as a fresh If inside OrElse instead.
func (e *Extractor) elseChain(node *sitter.Node, source []byte) []statement.Statement {
	var clauses []*sitter.Node
	for i := 0; i < int(node.ChildCount()); i++ {
		if node.FieldNameForChild(i) == "alternative" {
			clauses = append(clauses, node.Child(i))
		}
	}
	return e.foldElse(clauses, source)
}

func (e *Extractor) foldElse(clauses []*sitter.Node, source []byte) []statement.Statement {
	if len(clauses) == 0 {
		return nil
	}

	head := clauses[0]
	switch head.Type() {
	case "elif_clause":
		nested := &statement.If{
			Line: int(head.StartPoint().Row) + 1,
		}
		if cond := head.ChildByFieldName("condition"); cond != nil {
			nested.Test = render(cond, source)
		}
		if body := head.ChildByFieldName("consequence"); body != nil {
			nested.Body = e.normalizeBlock(body, source)
		}
		nested.OrElse = e.foldElse(clauses[1:], source)
		return []statement.Statement{nested}

	case "else_clause":
		return e.normalizeElse(head, source)
	}

	return nil
}

// normalizeElse extracts the block of an else_clause
func (e *Extractor) normalizeElse(node *sitter.Node, source []byte) []statement.Statement {
	if body := node.ChildByFieldName("body"); body != nil {
		return e.normalizeBlock(body, source)
	}
	return nil
}

func (e *Extractor) extractAssign(node *sitter.Node, source []byte) statement.Statement {
	assign := &statement.Assign{
		Line: int(node.StartPoint().Row) + 1,
	}

	if left := node.ChildByFieldName("left"); left != nil {
		assign.Targets = targetNames(left, source)
	}

	// Chained assignments nest on the right: "a = b = f()" parses the
	// inner "b = f()" as the right operand of the outer assignment.
	right := node.ChildByFieldName("right")
	for right != nil && right.Type() == "assignment" {
		if left := right.ChildByFieldName("left"); left != nil {
			assign.Targets = append(assign.Targets, targetNames(left, source)...)
		}
		right = right.ChildByFieldName("right")
	}

	if right != nil {
		if right.Type() == "call" {
			assign.Call = e.extractCall(right, source)
		} else {
			assign.Value = render(right, source)
		}
	}

	return assign
}

// targetNames flattens an assignment target into individual names.
// Tuple and list targets unpack recursively; attribute and subscript
// targets stay as rendered text.
func targetNames(node *sitter.Node, source []byte) []string {
	switch node.Type() {
	case "pattern_list", "tuple_pattern", "list_pattern", "tuple", "list":
		var names []string
		for i := 0; i < int(node.NamedChildCount()); i++ {
			names = append(names, targetNames(node.NamedChild(i), source)...)
		}
		return names

	case "parenthesized_expression":
		if inner := node.NamedChild(0); inner != nil {
			return targetNames(inner, source)
		}
		return nil

	default:
		return []string{render(node, source)}
	}
}

func (e *Extractor) extractCall(node *sitter.Node, source []byte) *statement.Call {
	call := &statement.Call{
		Line: int(node.StartPoint().Row) + 1,
	}

	if fn := node.ChildByFieldName("function"); fn != nil {
		call.Function = render(fn, source)
	}

	args := node.ChildByFieldName("arguments")
	if args == nil {
		return call
	}
	for i := 0; i < int(args.NamedChildCount()); i++ {
		arg := args.NamedChild(i)
		switch arg.Type() {
		case "comment":
			continue

		case "keyword_argument":
			name := arg.ChildByFieldName("name")
			value := arg.ChildByFieldName("value")
			if name != nil && value != nil {
				if call.Kwargs == nil {
					call.Kwargs = make(map[string]string)
				}
				call.Kwargs[name.Content(source)] = render(value, source)
			}

		default:
			// Splat arguments keep their stars: f(*a, **kw) records
			// "*a" and "**kw" as positional text.
			call.Args = append(call.Args, render(arg, source))
		}
	}

	return call
}

// hasAsyncKeyword reports whether a definition or statement carries the
// async modifier
func hasAsyncKeyword(node *sitter.Node) bool {
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if !child.IsNamed() && child.Type() == "async" {
			return true
		}
	}
	return false
}
