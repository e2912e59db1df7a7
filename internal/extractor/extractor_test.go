package extractor

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/dsu-arl/paceAITester/internal/statement"
)

func extract(t *testing.T, source string) []statement.Statement {
	t.Helper()

	stmts, err := New().Extract([]byte(source))
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	return stmts
}

func TestExtractAssignedCall(t *testing.T) {
	stmts := extract(t, "result = area(5, 10)\n")
	if len(stmts) != 1 {
		t.Fatalf("expected 1 statement, got %d", len(stmts))
	}

	assign, ok := stmts[0].(*statement.Assign)
	if !ok {
		t.Fatalf("expected assignment, got %T", stmts[0])
	}
	if !reflect.DeepEqual(assign.Targets, []string{"result"}) {
		t.Fatalf("expected targets [result], got %v", assign.Targets)
	}
	if assign.Call == nil {
		t.Fatalf("expected a call on the right-hand side")
	}
	if assign.Call.Function != "area" {
		t.Fatalf("expected function area, got %q", assign.Call.Function)
	}
	if !reflect.DeepEqual(assign.Call.Args, []string{"5", "10"}) {
		t.Fatalf("expected args [5 10], got %v", assign.Call.Args)
	}
	if assign.Line != 1 {
		t.Fatalf("expected line 1, got %d", assign.Line)
	}
}

func TestExtractBareCall(t *testing.T) {
	stmts := extract(t, `print("hello")`)
	if len(stmts) != 1 {
		t.Fatalf("expected 1 statement, got %d", len(stmts))
	}

	call, ok := stmts[0].(*statement.Call)
	if !ok {
		t.Fatalf("expected call, got %T", stmts[0])
	}
	if call.Function != "print" {
		t.Fatalf("expected function print, got %q", call.Function)
	}
	if !reflect.DeepEqual(call.Args, []string{"'hello'"}) {
		t.Fatalf("expected canonical quoting, got %v", call.Args)
	}
}

func TestExtractCallKeywordArguments(t *testing.T) {
	stmts := extract(t, "connect(host='db', port=8080)\n")

	call, ok := stmts[0].(*statement.Call)
	if !ok {
		t.Fatalf("expected call, got %T", stmts[0])
	}
	if len(call.Args) != 0 {
		t.Fatalf("expected no positional args, got %v", call.Args)
	}
	want := map[string]string{"host": "'db'", "port": "8080"}
	if !reflect.DeepEqual(call.Kwargs, want) {
		t.Fatalf("expected kwargs %v, got %v", want, call.Kwargs)
	}
}

func TestExtractCallSplatArguments(t *testing.T) {
	stmts := extract(t, "f(*items, **options)\n")

	call, ok := stmts[0].(*statement.Call)
	if !ok {
		t.Fatalf("expected call, got %T", stmts[0])
	}
	if !reflect.DeepEqual(call.Args, []string{"*items", "**options"}) {
		t.Fatalf("expected splat args kept as text, got %v", call.Args)
	}
}

func TestExtractMethodCall(t *testing.T) {
	stmts := extract(t, "df = pd.read_csv('data.csv')\n")

	assign := stmts[0].(*statement.Assign)
	if assign.Call == nil || assign.Call.Function != "pd.read_csv" {
		t.Fatalf("expected pd.read_csv call, got %+v", assign.Call)
	}
}

func TestExtractTupleTargets(t *testing.T) {
	stmts := extract(t, "x, y = divmod(7, 2)\n")

	assign := stmts[0].(*statement.Assign)
	if !reflect.DeepEqual(assign.Targets, []string{"x", "y"}) {
		t.Fatalf("expected targets [x y], got %v", assign.Targets)
	}
	if assign.Call == nil || assign.Call.Function != "divmod" {
		t.Fatalf("expected divmod call, got %+v", assign.Call)
	}
}

func TestExtractNestedTupleTargets(t *testing.T) {
	stmts := extract(t, "(a, (b, c)) = f()\n")

	assign := stmts[0].(*statement.Assign)
	if !reflect.DeepEqual(assign.Targets, []string{"a", "b", "c"}) {
		t.Fatalf("expected flattened targets [a b c], got %v", assign.Targets)
	}
}

func TestExtractListTargets(t *testing.T) {
	stmts := extract(t, "[p, q] = pair()\n")

	assign := stmts[0].(*statement.Assign)
	if !reflect.DeepEqual(assign.Targets, []string{"p", "q"}) {
		t.Fatalf("expected targets [p q], got %v", assign.Targets)
	}
}

func TestExtractChainedAssignment(t *testing.T) {
	stmts := extract(t, "a = b = compute()\n")

	assign := stmts[0].(*statement.Assign)
	if !reflect.DeepEqual(assign.Targets, []string{"a", "b"}) {
		t.Fatalf("expected targets [a b], got %v", assign.Targets)
	}
	if assign.Call == nil || assign.Call.Function != "compute" {
		t.Fatalf("expected compute call, got %+v", assign.Call)
	}
}

func TestExtractValueAssignment(t *testing.T) {
	stmts := extract(t, "total = x + y  # running sum\n")

	assign := stmts[0].(*statement.Assign)
	if assign.Call != nil {
		t.Fatalf("expected plain value, got call %+v", assign.Call)
	}
	if assign.Value != "x + y" {
		t.Fatalf("expected value %q, got %q", "x + y", assign.Value)
	}
}

func TestExtractAttributeTarget(t *testing.T) {
	stmts := extract(t, "self.name = fetch()\n")

	assign := stmts[0].(*statement.Assign)
	if !reflect.DeepEqual(assign.Targets, []string{"self.name"}) {
		t.Fatalf("expected rendered attribute target, got %v", assign.Targets)
	}
}

func TestExtractImport(t *testing.T) {
	stmts := extract(t, "import numpy as np\n")

	imp, ok := stmts[0].(*statement.Import)
	if !ok {
		t.Fatalf("expected import, got %T", stmts[0])
	}
	if !reflect.DeepEqual(imp.Names, []string{"numpy"}) {
		t.Fatalf("expected names [numpy], got %v", imp.Names)
	}
	if imp.Alias != "np" {
		t.Fatalf("expected alias np, got %q", imp.Alias)
	}
}

func TestExtractImportMultiple(t *testing.T) {
	stmts := extract(t, "import os, sys\n")

	imp := stmts[0].(*statement.Import)
	if !reflect.DeepEqual(imp.Names, []string{"os", "sys"}) {
		t.Fatalf("expected names [os sys], got %v", imp.Names)
	}
	if imp.Alias != "" {
		t.Fatalf("expected no alias, got %q", imp.Alias)
	}
}

func TestExtractImportFrom(t *testing.T) {
	stmts := extract(t, "from math import sqrt, pi\n")

	imp, ok := stmts[0].(*statement.ImportFrom)
	if !ok {
		t.Fatalf("expected import-from, got %T", stmts[0])
	}
	if imp.Module != "math" {
		t.Fatalf("expected module math, got %q", imp.Module)
	}
	if !reflect.DeepEqual(imp.Names, []string{"sqrt", "pi"}) {
		t.Fatalf("expected names [sqrt pi], got %v", imp.Names)
	}
	if imp.Level != 0 {
		t.Fatalf("expected level 0, got %d", imp.Level)
	}
}

func TestExtractImportFromAlias(t *testing.T) {
	stmts := extract(t, "from collections import OrderedDict as OD\n")

	imp := stmts[0].(*statement.ImportFrom)
	if imp.Alias != "OD" {
		t.Fatalf("expected alias OD, got %q", imp.Alias)
	}
}

func TestExtractRelativeImport(t *testing.T) {
	stmts := extract(t, "from . import helpers\nfrom ..pkg import thing\n")

	first := stmts[0].(*statement.ImportFrom)
	if first.Module != "" || first.Level != 1 {
		t.Fatalf("expected bare dot import at level 1, got module %q level %d", first.Module, first.Level)
	}
	if !reflect.DeepEqual(first.Names, []string{"helpers"}) {
		t.Fatalf("expected names [helpers], got %v", first.Names)
	}

	second := stmts[1].(*statement.ImportFrom)
	if second.Module != "pkg" || second.Level != 2 {
		t.Fatalf("expected pkg at level 2, got module %q level %d", second.Module, second.Level)
	}
}

func TestExtractWildcardImport(t *testing.T) {
	stmts := extract(t, "from os.path import *\n")

	imp := stmts[0].(*statement.ImportFrom)
	if imp.Module != "os.path" {
		t.Fatalf("expected module os.path, got %q", imp.Module)
	}
	if !reflect.DeepEqual(imp.Names, []string{"*"}) {
		t.Fatalf("expected wildcard name, got %v", imp.Names)
	}
}

func TestExtractFutureImport(t *testing.T) {
	stmts := extract(t, "from __future__ import annotations\n")

	imp := stmts[0].(*statement.ImportFrom)
	if imp.Module != "__future__" {
		t.Fatalf("expected module __future__, got %q", imp.Module)
	}
	if !reflect.DeepEqual(imp.Names, []string{"annotations"}) {
		t.Fatalf("expected names [annotations], got %v", imp.Names)
	}
}

func TestExtractFunctionDef(t *testing.T) {
	stmts := extract(t, "def area(width, height):\n    return width * height\n")

	def, ok := stmts[0].(*statement.FunctionDef)
	if !ok {
		t.Fatalf("expected function def, got %T", stmts[0])
	}
	if def.Name != "area" {
		t.Fatalf("expected name area, got %q", def.Name)
	}
	if !reflect.DeepEqual(def.Args, []string{"width", "height"}) {
		t.Fatalf("expected args [width height], got %v", def.Args)
	}
	if len(def.Body) != 1 {
		t.Fatalf("expected 1 body statement, got %d", len(def.Body))
	}
}

func TestExtractFunctionDefParameterKinds(t *testing.T) {
	stmts := extract(t, "def f(a, b=1, *args, c, **kw):\n    pass\n")

	def := stmts[0].(*statement.FunctionDef)
	if !reflect.DeepEqual(def.Args, []string{"a", "b"}) {
		t.Fatalf("expected positional-or-keyword args [a b], got %v", def.Args)
	}
}

func TestExtractFunctionDefAnnotatedParameters(t *testing.T) {
	stmts := extract(t, "def g(x: int, y: str = 'z') -> str:\n    pass\n")

	def := stmts[0].(*statement.FunctionDef)
	if !reflect.DeepEqual(def.Args, []string{"x", "y"}) {
		t.Fatalf("expected args [x y], got %v", def.Args)
	}
}

func TestExtractFunctionDefPositionalOnly(t *testing.T) {
	stmts := extract(t, "def h(a, b, /, c):\n    pass\n")

	def := stmts[0].(*statement.FunctionDef)
	if !reflect.DeepEqual(def.Args, []string{"c"}) {
		t.Fatalf("expected positional-only params excluded, got %v", def.Args)
	}
}

func TestExtractClassDef(t *testing.T) {
	stmts := extract(t, "class Circle(Shape, metaclass=Meta):\n    def area(self):\n        pass\n")

	def, ok := stmts[0].(*statement.ClassDef)
	if !ok {
		t.Fatalf("expected class def, got %T", stmts[0])
	}
	if def.Name != "Circle" {
		t.Fatalf("expected name Circle, got %q", def.Name)
	}
	if !reflect.DeepEqual(def.Bases, []string{"Shape"}) {
		t.Fatalf("expected bases [Shape] without keywords, got %v", def.Bases)
	}
	if len(def.Body) != 1 {
		t.Fatalf("expected 1 body statement, got %d", len(def.Body))
	}
	if _, ok := def.Body[0].(*statement.FunctionDef); !ok {
		t.Fatalf("expected method def in body, got %T", def.Body[0])
	}
}

func TestExtractDecoratedDefinition(t *testing.T) {
	stmts := extract(t, "@app.route('/')\ndef index():\n    pass\n")

	def, ok := stmts[0].(*statement.FunctionDef)
	if !ok {
		t.Fatalf("expected decorated def unwrapped, got %T", stmts[0])
	}
	if def.Name != "index" {
		t.Fatalf("expected name index, got %q", def.Name)
	}
}

func TestExtractFor(t *testing.T) {
	stmts := extract(t, "for row in rows:\n    process(row)\nelse:\n    done()\n")

	loop, ok := stmts[0].(*statement.For)
	if !ok {
		t.Fatalf("expected for, got %T", stmts[0])
	}
	if loop.Target != "row" || loop.Iterable != "rows" {
		t.Fatalf("expected row in rows, got %q in %q", loop.Target, loop.Iterable)
	}
	if len(loop.Body) != 1 {
		t.Fatalf("expected 1 body statement, got %d", len(loop.Body))
	}
	if len(loop.OrElse) != 1 {
		t.Fatalf("expected 1 else statement, got %d", len(loop.OrElse))
	}
}

func TestExtractWith(t *testing.T) {
	stmts := extract(t, "with open('data.txt') as fh:\n    fh.read()\n")

	with, ok := stmts[0].(*statement.With)
	if !ok {
		t.Fatalf("expected with, got %T", stmts[0])
	}
	if len(with.Items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(with.Items))
	}
	if with.Items[0].Context != "open('data.txt')" {
		t.Fatalf("expected canonical context, got %q", with.Items[0].Context)
	}
	if with.Items[0].Name != "fh" {
		t.Fatalf("expected bound name fh, got %q", with.Items[0].Name)
	}
	if len(with.Body) != 1 {
		t.Fatalf("expected 1 body statement, got %d", len(with.Body))
	}
}

func TestExtractWithoutAlias(t *testing.T) {
	stmts := extract(t, "with lock:\n    pass\n")

	with := stmts[0].(*statement.With)
	if with.Items[0].Context != "lock" || with.Items[0].Name != "" {
		t.Fatalf("expected unaliased item, got %+v", with.Items[0])
	}
}

func TestExtractIfElifElse(t *testing.T) {
	stmts := extract(t, "if x > 0:\n    a()\nelif x < 0:\n    b()\nelse:\n    c()\n")

	cond, ok := stmts[0].(*statement.If)
	if !ok {
		t.Fatalf("expected if, got %T", stmts[0])
	}
	if cond.Test != "x > 0" {
		t.Fatalf("expected test %q, got %q", "x > 0", cond.Test)
	}
	if len(cond.OrElse) != 1 {
		t.Fatalf("expected elif nested as single else statement, got %d", len(cond.OrElse))
	}

	elif, ok := cond.OrElse[0].(*statement.If)
	if !ok {
		t.Fatalf("expected nested if for elif, got %T", cond.OrElse[0])
	}
	if elif.Test != "x < 0" {
		t.Fatalf("expected elif test %q, got %q", "x < 0", elif.Test)
	}
	if len(elif.OrElse) != 1 {
		t.Fatalf("expected final else body, got %d statements", len(elif.OrElse))
	}
	if _, ok := elif.OrElse[0].(*statement.Call); !ok {
		t.Fatalf("expected call in else, got %T", elif.OrElse[0])
	}
}

func TestExtractOpaqueForms(t *testing.T) {
	stmts := extract(t, "x += 1\ny: int = 2\nasync def f():\n    pass\n")
	if len(stmts) != 3 {
		t.Fatalf("expected 3 statements, got %d", len(stmts))
	}

	wantKinds := []string{"augmented_assignment", "annotated_assignment", "async_function_definition"}
	for i, want := range wantKinds {
		gen, ok := stmts[i].(*statement.Generic)
		if !ok {
			t.Fatalf("statement %d: expected generic, got %T", i, stmts[i])
		}
		if gen.Kind() != want {
			t.Fatalf("statement %d: expected kind %q, got %q", i, want, gen.Kind())
		}
	}
}

func TestExtractSkipsComments(t *testing.T) {
	stmts := extract(t, "# setup\nimport os\n# compute\nx = 1\n")
	if len(stmts) != 2 {
		t.Fatalf("expected comments skipped, got %d statements", len(stmts))
	}
}

func TestExtractDocstring(t *testing.T) {
	stmts := extract(t, "\"\"\"module docstring\"\"\"\n")

	expr, ok := stmts[0].(*statement.Expr)
	if !ok {
		t.Fatalf("expected expression, got %T", stmts[0])
	}
	if expr.Value != "\"\"\"module docstring\"\"\"" {
		t.Fatalf("expected verbatim docstring, got %q", expr.Value)
	}
}

func TestExtractToleratesSyntaxErrors(t *testing.T) {
	stmts, err := New().Extract([]byte("def broken(:\nx = 1\n"))
	if err != nil {
		t.Fatalf("expected error recovery, got %v", err)
	}
	for _, s := range stmts {
		if s.Kind() == "" {
			t.Fatalf("statement with empty kind: %#v", s)
		}
	}
}

func TestExtractEmptySource(t *testing.T) {
	stmts := extract(t, "")
	if len(stmts) != 0 {
		t.Fatalf("expected no statements, got %d", len(stmts))
	}
}

func TestExtractLineNumbers(t *testing.T) {
	stmts := extract(t, "import os\n\n\nresult = f()\n")
	if got := stmts[0].(*statement.Import).Line; got != 1 {
		t.Fatalf("expected import on line 1, got %d", got)
	}
	if got := stmts[1].(*statement.Assign).Line; got != 4 {
		t.Fatalf("expected assignment on line 4, got %d", got)
	}
}

func TestExtractFileMissing(t *testing.T) {
	_, err := New().ExtractFile(filepath.Join(t.TempDir(), "absent.py"))
	if !errors.Is(err, ErrSourceNotFound) {
		t.Fatalf("expected ErrSourceNotFound, got %v", err)
	}
}

func TestExtractFileReadsSubmission(t *testing.T) {
	path := filepath.Join(t.TempDir(), "submission.py")
	if err := os.WriteFile(path, []byte("total = add(1, 2)\n"), 0o600); err != nil {
		t.Fatalf("write submission: %v", err)
	}

	stmts, err := New().ExtractFile(path)
	if err != nil {
		t.Fatalf("extract file: %v", err)
	}
	if len(stmts) != 1 {
		t.Fatalf("expected 1 statement, got %d", len(stmts))
	}
}
