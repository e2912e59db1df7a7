package policy

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/open-policy-agent/opa/v1/rego"
)

// DefaultQuery is the deny set policies contribute to unless a step
// names another one.
const DefaultQuery = "data.pace.checks.deny"

// Engine evaluates Rego policies against a parsed submission. Policies
// express checks the built-in step kinds cannot: cross-statement
// conditions, counts, or rules over resolved variable values.
type Engine struct {
	query rego.PreparedEvalQuery
}

// Input is the document passed to OPA for each evaluation
type Input struct {
	Statements []map[string]any  `json:"statements"`
	Variables  map[string]any    `json:"variables"`
	Unresolved []string          `json:"unresolved"`
	Recorded   map[string]string `json:"recorded"`
}

// New creates a policy engine from every .rego file in the given
// directory, prepared for the given deny-set query ("" means
// DefaultQuery). An empty deny set means the submission passes.
func New(policyDir, query string) (*Engine, error) {
	if query == "" {
		query = DefaultQuery
	}

	files, err := filepath.Glob(filepath.Join(policyDir, "*.rego"))
	if err != nil {
		return nil, fmt.Errorf("finding policy files: %w", err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no policy files found in %s", policyDir)
	}

	opts := make([]func(*rego.Rego), 0, len(files)+1)
	for _, f := range files {
		content, err := os.ReadFile(f)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", f, err)
		}
		opts = append(opts, rego.Module(f, string(content)))
	}
	opts = append(opts, rego.Query(query))

	prepared, err := rego.New(opts...).PrepareForEval(context.Background())
	if err != nil {
		return nil, fmt.Errorf("preparing deny query: %w", err)
	}

	return &Engine{query: prepared}, nil
}

// Deny evaluates the policies and returns every denial message, sorted
// for stable output. No messages means the checks passed.
func (e *Engine) Deny(input Input) ([]string, error) {
	inputMap, err := structToMap(input)
	if err != nil {
		return nil, fmt.Errorf("converting input: %w", err)
	}

	rs, err := e.query.Eval(context.Background(), rego.EvalInput(inputMap))
	if err != nil {
		return nil, fmt.Errorf("evaluating policies: %w", err)
	}

	var messages []string
	if len(rs) > 0 && len(rs[0].Expressions) > 0 {
		values, ok := rs[0].Expressions[0].Value.([]interface{})
		if ok {
			for _, v := range values {
				if msg, ok := v.(string); ok {
					messages = append(messages, msg)
				}
			}
		}
	}

	sort.Strings(messages)
	return messages, nil
}

func structToMap(v interface{}) (map[string]interface{}, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var result map[string]interface{}
	err = json.Unmarshal(data, &result)
	return result, err
}
