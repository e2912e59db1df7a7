package verifier

import (
	"fmt"
	"sort"
	"strings"

	"github.com/dsu-arl/paceAITester/internal/checker"
	"github.com/dsu-arl/paceAITester/internal/policy"
	"github.com/dsu-arl/paceAITester/internal/resolver"
	"github.com/dsu-arl/paceAITester/internal/statement"
	"github.com/dsu-arl/paceAITester/internal/validator"
)

// Check is one verification against a parsed submission. Run returns the
// verdict plus a diagnostic for the learner when the verdict is false.
// Checks run in suite order and may depend on variable names recorded by
// earlier steps, so a run is strictly sequential.
type Check interface {
	Run(ctx *Context, step string) (bool, string)
}

// Step pairs a learner-facing label with the check it runs.
type Step struct {
	Label string
	Check Check
}

// Context is the parsed submission a run grades. Recorded accumulates the
// variable names captured by call checks; Values resolves lazily so runs
// without variable or rego steps never pay for the resolver pass.
type Context struct {
	Statements []statement.Statement
	Source     []byte
	Recorded   map[string]string

	values     map[string]any
	resolveErr error
	resolved   bool
}

// Values returns the submission's resolved variable table, computing it on
// first use. Resolving twice yields the same mapping, so the result is
// cached.
func (c *Context) Values() (map[string]any, error) {
	if !c.resolved {
		c.resolved = true
		c.values, c.resolveErr = resolver.New().Resolve(c.Source)
	}
	return c.values, c.resolveErr
}

// policyInput builds the document rego policies evaluate: the encoded
// statement forest, the resolved variables (with unresolvable ones listed
// by name instead), and the recorded variable table.
func (c *Context) policyInput() (policy.Input, error) {
	values, err := c.Values()
	if err != nil {
		return policy.Input{}, err
	}

	variables := make(map[string]any, len(values))
	unresolved := make([]string, 0)
	for name, value := range values {
		if value == resolver.Unresolvable {
			unresolved = append(unresolved, name)
			continue
		}
		variables[name] = value
	}
	sort.Strings(unresolved)

	recorded := c.Recorded
	if recorded == nil {
		recorded = map[string]string{}
	}

	return policy.Input{
		Statements: statement.EncodeAll(c.Statements),
		Variables:  variables,
		Unresolved: unresolved,
		Recorded:   recorded,
	}, nil
}

// CallCheck verifies one expected function call. Nested widens the search
// to statements inside function, class, loop and with bodies.
type CallCheck struct {
	Spec   checker.CallSpec
	Nested bool
}

func (c CallCheck) Run(ctx *Context, step string) (bool, string) {
	stmts := ctx.Statements
	if c.Nested {
		stmts = statement.Flatten(stmts)
	}
	return checker.Match(stmts, c.Spec, step, ctx.Recorded)
}

// ImportCheck verifies a plain import, with an exact alias match.
type ImportCheck struct {
	Module string
	Alias  string
}

func (c ImportCheck) Run(ctx *Context, step string) (bool, string) {
	if statement.FindImport(ctx.Statements, c.Module, c.Alias) != nil {
		return true, ""
	}
	if c.Alias != "" {
		return false, fmt.Sprintf("%s is not imported as %s in %s.", c.Module, c.Alias, step)
	}
	return false, fmt.Sprintf("%s is not imported in %s.", c.Module, step)
}

// ImportFromCheck verifies a from-import. Names must match as a set, so
// the learner's ordering never matters.
type ImportFromCheck struct {
	Module string
	Names  []string
	Alias  string
}

func (c ImportFromCheck) Run(ctx *Context, step string) (bool, string) {
	if statement.FindImportFrom(ctx.Statements, c.Module, c.Names, c.Alias) != nil {
		return true, ""
	}
	return false, fmt.Sprintf("%s is not imported from %s in %s.", strings.Join(c.Names, ", "), c.Module, step)
}

// FunctionDefCheck verifies a function definition exists, and optionally
// its positional parameter names. A nil Args means any signature passes.
type FunctionDefCheck struct {
	Name string
	Args []string
}

func (c FunctionDefCheck) Run(ctx *Context, step string) (bool, string) {
	fn := statement.FindFunctionDef(ctx.Statements, c.Name)
	if fn == nil {
		return false, fmt.Sprintf("%s() is not defined in %s.", c.Name, step)
	}
	if c.Args != nil && !equalStrings(fn.Args, c.Args) {
		return false, fmt.Sprintf("%s() should take parameters (%s) in %s.", c.Name, strings.Join(c.Args, ", "), step)
	}
	return true, ""
}

// ClassDefCheck verifies a class definition exists, and optionally its
// base classes in declaration order. A nil Bases means any bases pass.
type ClassDefCheck struct {
	Name  string
	Bases []string
}

func (c ClassDefCheck) Run(ctx *Context, step string) (bool, string) {
	cls := statement.FindClassDef(ctx.Statements, c.Name)
	if cls == nil {
		return false, fmt.Sprintf("class %s is not defined in %s.", c.Name, step)
	}
	if c.Bases != nil && !equalStrings(cls.Bases, c.Bases) {
		return false, fmt.Sprintf("class %s should inherit from %s in %s.", c.Name, strings.Join(c.Bases, ", "), step)
	}
	return true, ""
}

// VariableCheck verifies a variable resolves to an expected value, with
// Python's cross-type numeric equality. An unresolvable variable never
// matches anything.
type VariableCheck struct {
	Name string
	Want any
}

func (c VariableCheck) Run(ctx *Context, step string) (bool, string) {
	values, err := ctx.Values()
	if err != nil {
		return false, fmt.Sprintf("could not resolve variables in %s: %v", step, err)
	}

	value, ok := values[c.Name]
	if !ok {
		return false, fmt.Sprintf("%s is not assigned in %s.", c.Name, step)
	}
	if value == resolver.Unresolvable {
		return false, fmt.Sprintf("%s does not have a fixed value in %s.", c.Name, step)
	}
	if !valueEquals(value, c.Want) {
		return false, fmt.Sprintf("%s has the wrong value in %s.", c.Name, step)
	}
	return true, ""
}

// RegoCheck evaluates prepared rego policies over the submission. The
// check passes when the deny set is empty; otherwise the first denial is
// the diagnostic. The policy input is contract-checked before evaluation
// so drifted encodings fail loudly instead of matching nothing.
type RegoCheck struct {
	Engine *policy.Engine
}

func (c RegoCheck) Run(ctx *Context, step string) (bool, string) {
	if c.Engine == nil {
		return false, fmt.Sprintf("no policy engine configured for %s.", step)
	}

	input, err := ctx.policyInput()
	if err != nil {
		return false, fmt.Sprintf("could not build policy input in %s: %v", step, err)
	}

	contract, err := validator.NewForestValidator()
	if err != nil {
		return false, fmt.Sprintf("policy input contract unavailable in %s: %v", step, err)
	}
	if err := contract.ValidateInput(input); err != nil {
		return false, fmt.Sprintf("policy input failed its contract in %s: %v", step, err)
	}

	messages, err := c.Engine.Deny(input)
	if err != nil {
		return false, fmt.Sprintf("policy evaluation failed in %s: %v", step, err)
	}
	if len(messages) > 0 {
		return false, messages[0]
	}
	return true, ""
}

// PredicateFunc adapts a plain function to the Check interface, for suites
// assembled in Go.
type PredicateFunc func(ctx *Context, step string) (bool, string)

func (f PredicateFunc) Run(ctx *Context, step string) (bool, string) {
	return f(ctx, step)
}

// valueEquals compares a resolved value against an expected one the way
// Python == would: numbers compare by value across int, float and bool,
// sequences and dictionaries compare element-wise.
func valueEquals(got, want any) bool {
	if gn, ok := toNumber(got); ok {
		wn, ok := toNumber(want)
		return ok && gn == wn
	}

	switch g := got.(type) {
	case nil:
		return want == nil
	case string:
		w, ok := want.(string)
		return ok && g == w
	case []any:
		w, ok := want.([]any)
		if !ok || len(g) != len(w) {
			return false
		}
		for i := range g {
			if !valueEquals(g[i], w[i]) {
				return false
			}
		}
		return true
	case map[string]any:
		w, ok := want.(map[string]any)
		if !ok || len(g) != len(w) {
			return false
		}
		for k, gv := range g {
			wv, present := w[k]
			if !present || !valueEquals(gv, wv) {
				return false
			}
		}
		return true
	}
	return false
}

func toNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case int64:
		return float64(n), true
	case float64:
		return n, true
	case int:
		return float64(n), true
	case bool:
		if n {
			return 1, true
		}
		return 0, true
	}
	return 0, false
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
