package statement

// The statement model is a closed tagged union: one variant per syntactic
// form the checks care about, plus Generic for everything else. Checks never
// touch raw grammar nodes; the extractor is the only package that does.

// Kind names for the recognized variants. Generic statements report the raw
// grammar node type instead.
const (
	KindImport      = "import"
	KindImportFrom  = "import_from"
	KindClassDef    = "class_def"
	KindFunctionDef = "function_def"
	KindFor         = "for"
	KindWith        = "with"
	KindIf          = "if"
	KindCall        = "call"
	KindAssign      = "assign"
	KindExpr        = "expr"
)

// Statement is one normalized source statement. The set of implementations
// is fixed; the marker method keeps it closed to this package.
type Statement interface {
	Kind() string
	stmt()
}

// Import is a plain `import a, b as x` statement. Alias belongs to the first
// imported name only; later `as` clauses are not recorded.
type Import struct {
	Names []string
	Alias string
	Line  int
}

// ImportFrom is a `from module import a, b` statement. Level counts leading
// dots (0 = absolute). A wildcard import records the single name "*".
type ImportFrom struct {
	Module string
	Names  []string
	Alias  string
	Level  int
	Line   int
}

// ClassDef is a class definition with its recursively normalized body.
type ClassDef struct {
	Name  string
	Bases []string
	Body  []Statement
	Line  int
}

// FunctionDef is a function definition. Args holds positional parameter
// names only: keyword-only, *args, **kwargs and positional-only markers are
// not captured.
type FunctionDef struct {
	Name string
	Args []string
	Body []Statement
	Line int
}

// For is a for loop. OrElse holds the else clause body, if any.
type For struct {
	Target   string
	Iterable string
	Body     []Statement
	OrElse   []Statement
	Line     int
}

// WithItem is one context manager in a with statement. Name is the bound
// name after `as`, or "" when none.
type WithItem struct {
	Context string
	Name    string
}

// With is a with statement.
type With struct {
	Items []WithItem
	Body  []Statement
	Line  int
}

// If is an if statement. An elif chain nests as a single If inside OrElse; a
// plain else stores its body there directly.
type If struct {
	Test   string
	Body   []Statement
	OrElse []Statement
	Line   int
}

// Call is a bare call statement (no assignment). Args and kwarg values are
// canonical source text.
type Call struct {
	Function string
	Args     []string
	Kwargs   map[string]string
	Line     int
}

// Assign is an assignment. Tuple and list targets are flattened into Targets
// in declaration order. When the right-hand side is a call, Call is set and
// Value is empty; otherwise Value holds the rendered expression.
type Assign struct {
	Targets []string
	Call    *Call
	Value   string
	Line    int
}

// Expr is a bare non-call expression statement (docstrings, lone names).
type Expr struct {
	Value string
	Line  int
}

// Generic records that a statement of an unrecognized form was present,
// tagged with the raw grammar node type. Normalization is total: anything
// the dedicated variants do not cover lands here, never in an error.
type Generic struct {
	NodeType string
	Line     int
}

func (s *Import) Kind() string      { return KindImport }
func (s *ImportFrom) Kind() string  { return KindImportFrom }
func (s *ClassDef) Kind() string    { return KindClassDef }
func (s *FunctionDef) Kind() string { return KindFunctionDef }
func (s *For) Kind() string         { return KindFor }
func (s *With) Kind() string        { return KindWith }
func (s *If) Kind() string          { return KindIf }
func (s *Call) Kind() string        { return KindCall }
func (s *Assign) Kind() string      { return KindAssign }
func (s *Expr) Kind() string        { return KindExpr }
func (s *Generic) Kind() string     { return s.NodeType }

func (s *Import) stmt()      {}
func (s *ImportFrom) stmt()  {}
func (s *ClassDef) stmt()    {}
func (s *FunctionDef) stmt() {}
func (s *For) stmt()         {}
func (s *With) stmt()        {}
func (s *If) stmt()          {}
func (s *Call) stmt()        {}
func (s *Assign) stmt()      {}
func (s *Expr) stmt()        {}
func (s *Generic) stmt()     {}
