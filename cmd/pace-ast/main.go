package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/dsu-arl/paceAITester/internal/extractor"
	"github.com/dsu-arl/paceAITester/internal/facts"
	"github.com/dsu-arl/paceAITester/internal/resolver"
	"github.com/dsu-arl/paceAITester/internal/statement"
	"github.com/dsu-arl/paceAITester/internal/validator"
)

func main() {
	output := flag.String("output", "", "write JSON to file (default: stdout)")
	flag.StringVar(output, "o", "", "write JSON to file (shorthand)")
	tablesOut := flag.Bool("tables", false, "dump relational fact tables instead of the statement forest")
	check := flag.Bool("check", false, "validate the statement forest against the schema contract")
	only := flag.String("only", "", "comma-separated names to keep in tables and delta output")
	deltaFrom := flag.String("delta-from", "", "previous tables JSON to compute delta from")
	deltaOut := flag.String("delta-out", "", "write delta JSON to file (requires --delta-from)")
	flag.Parse()

	args := flag.Args()
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: pace-ast [--tables] [--check] [--only names] [--output file] [--delta-from prev.json --delta-out delta.json] <submission.py>")
		os.Exit(1)
	}

	path := args[0]
	source, err := extractor.ReadSource(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	stmts, err := extractor.New().Extract(source)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error extracting statements: %v\n", err)
		os.Exit(1)
	}

	forest := statement.EncodeAll(stmts)

	if *check {
		fv, err := validator.NewForestValidator()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading forest schema: %v\n", err)
			os.Exit(1)
		}
		if err := fv.ValidateStatements(forest); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}

	values, err := resolver.New().Resolve(source)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error resolving variables: %v\n", err)
		os.Exit(1)
	}
	tables := facts.BuildTables(stmts, values)

	names := nameSet(*only)
	if len(names) > 0 {
		tables = facts.FilterTablesByNames(tables, names)
	}

	var dump interface{} = forest
	if *tablesOut {
		dump = tables
	}

	if *output != "" {
		if err := writeJSON(*output, dump); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing output: %v\n", err)
			os.Exit(1)
		}
	} else {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(dump); err != nil {
			fmt.Fprintf(os.Stderr, "Error encoding output: %v\n", err)
			os.Exit(1)
		}
	}

	if *deltaFrom != "" || *deltaOut != "" {
		if *deltaFrom == "" || *deltaOut == "" {
			fmt.Fprintln(os.Stderr, "Error: --delta-from and --delta-out must be used together")
			os.Exit(1)
		}
		prev, err := readTables(*deltaFrom)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading delta-from: %v\n", err)
			os.Exit(1)
		}
		delta := facts.ComputeDelta(prev, tables)
		if len(names) > 0 {
			delta = facts.FilterDeltaByNames(delta, names)
		}
		if err := writeJSON(*deltaOut, delta); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing delta: %v\n", err)
			os.Exit(1)
		}
	}
}

func nameSet(arg string) map[string]bool {
	names := make(map[string]bool)
	for _, name := range strings.Split(arg, ",") {
		name = strings.TrimSpace(name)
		if name != "" {
			names[name] = true
		}
	}
	return names
}

func readTables(path string) (facts.Tables, error) {
	f, err := os.Open(path)
	if err != nil {
		return facts.Tables{}, err
	}
	defer func() { _ = f.Close() }()

	var tables facts.Tables
	if err := json.NewDecoder(f).Decode(&tables); err != nil {
		return facts.Tables{}, err
	}
	return tables, nil
}

func writeJSON(path string, data interface{}) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}
