package facts

import (
	"testing"

	"github.com/dsu-arl/paceAITester/internal/resolver"
	"github.com/dsu-arl/paceAITester/internal/statement"
)

func TestBuildTablesPopulatesCoreRelations(t *testing.T) {
	stmts := []statement.Statement{
		&statement.Import{Names: []string{"pandas", "numpy"}, Alias: "pd", Line: 1},
		&statement.ImportFrom{
			Module: "sklearn.model_selection",
			Names:  []string{"train_test_split", "KFold"},
			Line:   2,
		},
		&statement.Assign{
			Targets: []string{"df"},
			Call: &statement.Call{
				Function: "pd.read_csv",
				Args:     []string{"'data.csv'"},
				Line:     3,
			},
			Line: 3,
		},
		&statement.Assign{Targets: []string{"epochs"}, Value: "100", Line: 4},
		&statement.Call{Function: "print", Args: []string{"df"}, Line: 5},
	}
	values := map[string]any{
		"epochs": int64(100),
		"df":     resolver.Unresolvable,
	}

	tables := BuildTables(stmts, values)

	if len(tables.Imports) != 2 {
		t.Fatalf("expected 2 import rows, got %d", len(tables.Imports))
	}
	if tables.Imports[0].Module != "pandas" || tables.Imports[0].Alias != "pd" {
		t.Fatalf("unexpected first import row: %+v", tables.Imports[0])
	}
	if len(tables.ImportFroms) != 2 {
		t.Fatalf("expected 2 import-from rows, got %d", len(tables.ImportFroms))
	}
	if tables.ImportFroms[1].Name != "KFold" {
		t.Fatalf("unexpected second import-from row: %+v", tables.ImportFroms[1])
	}
	if len(tables.Calls) != 2 {
		t.Fatalf("expected 2 call rows, got %d", len(tables.Calls))
	}
	if tables.Calls[0].Function != "pd.read_csv" || tables.Calls[0].Assigned != "df" {
		t.Fatalf("unexpected assigned call row: %+v", tables.Calls[0])
	}
	if tables.Calls[1].Function != "print" || tables.Calls[1].Assigned != "" {
		t.Fatalf("unexpected bare call row: %+v", tables.Calls[1])
	}
	if len(tables.Variables) != 2 {
		t.Fatalf("expected 2 variable rows, got %d", len(tables.Variables))
	}
}

func TestBuildTablesIncludesNestedStatements(t *testing.T) {
	stmts := []statement.Statement{
		&statement.FunctionDef{
			Name: "train",
			Args: []string{"model", "data"},
			Body: []statement.Statement{
				&statement.Call{Function: "model.fit", Args: []string{"data"}, Line: 2},
			},
			Line: 1,
		},
		&statement.ClassDef{
			Name:  "Pipeline",
			Bases: []string{"BaseEstimator", "TransformerMixin"},
			Body: []statement.Statement{
				&statement.FunctionDef{Name: "transform", Args: []string{"self"}, Line: 5},
			},
			Line: 4,
		},
	}

	tables := BuildTables(stmts, nil)

	if len(tables.Functions) != 2 {
		t.Fatalf("expected 2 function rows, got %d", len(tables.Functions))
	}
	if tables.Functions[0].Params != "model, data" {
		t.Fatalf("unexpected function params: %q", tables.Functions[0].Params)
	}
	if len(tables.Classes) != 1 {
		t.Fatalf("expected 1 class row, got %d", len(tables.Classes))
	}
	if tables.Classes[0].Bases != "BaseEstimator, TransformerMixin" {
		t.Fatalf("unexpected class bases: %q", tables.Classes[0].Bases)
	}
	if len(tables.Calls) != 1 || tables.Calls[0].Function != "model.fit" {
		t.Fatalf("expected nested call row, got %+v", tables.Calls)
	}
}

func TestBuildTablesRendersKwargsInKeyOrder(t *testing.T) {
	stmts := []statement.Statement{
		&statement.Call{
			Function: "train_test_split",
			Args:     []string{"df"},
			Kwargs:   map[string]string{"test_size": "0.2", "random_state": "42"},
			Line:     1,
		},
	}

	tables := BuildTables(stmts, nil)

	if len(tables.Calls) != 1 {
		t.Fatalf("expected 1 call row, got %d", len(tables.Calls))
	}
	want := "random_state=42, test_size=0.2"
	if tables.Calls[0].Kwargs != want {
		t.Fatalf("expected kwargs %q, got %q", want, tables.Calls[0].Kwargs)
	}
}

func TestBuildTablesEncodesVariableValues(t *testing.T) {
	values := map[string]any{
		"epochs": int64(100),
		"name":   "model",
		"rates":  []any{float64(0.1), float64(0.01)},
		"magic":  resolver.Unresolvable,
	}

	tables := BuildTables(nil, values)

	if len(tables.Variables) != 4 {
		t.Fatalf("expected 4 variable rows, got %d", len(tables.Variables))
	}
	rows := map[string]VariableRow{}
	for _, row := range tables.Variables {
		rows[row.Name] = row
	}
	if rows["epochs"].Value != "100" || !rows["epochs"].Resolved {
		t.Fatalf("unexpected epochs row: %+v", rows["epochs"])
	}
	if rows["name"].Value != `"model"` {
		t.Fatalf("unexpected name row: %+v", rows["name"])
	}
	if rows["rates"].Value != "[0.1,0.01]" {
		t.Fatalf("unexpected rates row: %+v", rows["rates"])
	}
	if rows["magic"].Resolved || rows["magic"].Value != "" {
		t.Fatalf("unexpected unresolvable row: %+v", rows["magic"])
	}
	// Rows come out sorted by name.
	if tables.Variables[0].Name != "epochs" || tables.Variables[3].Name != "rates" {
		t.Fatalf("expected sorted variable rows, got %+v", tables.Variables)
	}
}
