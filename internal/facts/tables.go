// Package facts flattens a parsed submission into relational tables, the
// shape diff tooling and Datalog-style consumers want.
package facts

import (
	"encoding/json"
	"sort"
	"strings"

	"github.com/dsu-arl/paceAITester/internal/resolver"
	"github.com/dsu-arl/paceAITester/internal/statement"
)

// Tables is the relational fact model of one submission.
// Each slice is a relation (table) with flat rows.
type Tables struct {
	Calls       []CallRow       `json:"calls"`
	Imports     []ImportRow     `json:"imports"`
	ImportFroms []ImportFromRow `json:"import_froms"`
	Functions   []FunctionRow   `json:"functions"`
	Classes     []ClassRow      `json:"classes"`
	Variables   []VariableRow   `json:"variables"`
}

type CallRow struct {
	Function string `json:"function"`
	Args     string `json:"args"`
	Kwargs   string `json:"kwargs"`
	Assigned string `json:"assigned"`
	Line     int    `json:"line"`
}

type ImportRow struct {
	Module string `json:"module"`
	Alias  string `json:"alias"`
	Line   int    `json:"line"`
}

type ImportFromRow struct {
	Module string `json:"module"`
	Name   string `json:"name"`
	Alias  string `json:"alias"`
	Level  int    `json:"level"`
	Line   int    `json:"line"`
}

type FunctionRow struct {
	Name   string `json:"name"`
	Params string `json:"params"`
	Line   int    `json:"line"`
}

type ClassRow struct {
	Name  string `json:"name"`
	Bases string `json:"bases"`
	Line  int    `json:"line"`
}

type VariableRow struct {
	Name     string `json:"name"`
	Value    string `json:"value"`
	Resolved bool   `json:"resolved"`
}

// BuildTables converts a statement forest and a resolved variable map into
// the normalized relational model. Nested statements (inside function,
// class, loop and with bodies) contribute rows too.
func BuildTables(stmts []statement.Statement, values map[string]any) Tables {
	tables := emptyTables()

	for _, s := range statement.Flatten(stmts) {
		switch v := s.(type) {
		case *statement.Import:
			for _, name := range v.Names {
				tables.Imports = append(tables.Imports, ImportRow{
					Module: name,
					Alias:  v.Alias,
					Line:   v.Line,
				})
			}

		case *statement.ImportFrom:
			for _, name := range v.Names {
				tables.ImportFroms = append(tables.ImportFroms, ImportFromRow{
					Module: v.Module,
					Name:   name,
					Alias:  v.Alias,
					Level:  v.Level,
					Line:   v.Line,
				})
			}

		case *statement.Call:
			tables.Calls = append(tables.Calls, callRow(v, nil))

		case *statement.Assign:
			if v.Call != nil {
				tables.Calls = append(tables.Calls, callRow(v.Call, v.Targets))
			}

		case *statement.FunctionDef:
			tables.Functions = append(tables.Functions, FunctionRow{
				Name:   v.Name,
				Params: strings.Join(v.Args, ", "),
				Line:   v.Line,
			})

		case *statement.ClassDef:
			tables.Classes = append(tables.Classes, ClassRow{
				Name:  v.Name,
				Bases: strings.Join(v.Bases, ", "),
				Line:  v.Line,
			})
		}
	}

	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		tables.Variables = append(tables.Variables, variableRow(name, values[name]))
	}

	return tables
}

func callRow(c *statement.Call, targets []string) CallRow {
	return CallRow{
		Function: c.Function,
		Args:     strings.Join(c.Args, ", "),
		Kwargs:   kwargsText(c.Kwargs),
		Assigned: strings.Join(targets, ", "),
		Line:     c.Line,
	}
}

// kwargsText renders keywords as "k=v" pairs in key order, so two rows with
// the same keywords always spell them identically.
func kwargsText(kwargs map[string]string) string {
	if len(kwargs) == 0 {
		return ""
	}
	keys := make([]string, 0, len(kwargs))
	for key := range kwargs {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	pairs := make([]string, 0, len(keys))
	for _, key := range keys {
		pairs = append(pairs, key+"="+kwargs[key])
	}
	return strings.Join(pairs, ", ")
}

// variableRow renders one resolved variable. Unresolvable values keep their
// name in the table with an empty value and Resolved false.
func variableRow(name string, value any) VariableRow {
	if value == resolver.Unresolvable {
		return VariableRow{Name: name, Resolved: false}
	}
	data, err := json.Marshal(value)
	if err != nil {
		return VariableRow{Name: name, Resolved: false}
	}
	return VariableRow{Name: name, Value: string(data), Resolved: true}
}
