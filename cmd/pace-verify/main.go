// =============================================================================
// pace-verify - Main Entry Point
// =============================================================================
//
// This tool answers "did the student write the required code?" statically:
// submissions are graded by inspecting their syntax tree, never by
// executing them.
//
// THE PIPELINE:
//   1. Tree-sitter parses the submission into a Python syntax tree
//   2. Extractor normalizes top-level statements into typed values
//   3. The suite's checks run in order (calls, imports, defs, variables)
//   4. CUE validators enforce the data contracts (crash on schema mismatch)
//   5. OPA evaluates rego policy steps against the extracted data
//   6. One verdict line prints per step; the flag is released on a pass
//
// WHEN INVESTIGATING FALSE POSITIVES:
//   Start at the beginning of the pipeline, not the end!
//   Grammar issues → Extractor issues → Check/Policy issues
//
// See: DESIGN.md for the complete architecture.
// =============================================================================

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/dsu-arl/paceAITester/internal/config"
	"github.com/dsu-arl/paceAITester/internal/verifier"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cmd := os.Args[1]

	switch cmd {
	case "init":
		runInit()
	case "-h", "--help", "help":
		printUsage()
	case "-c", "--config":
		if len(os.Args) < 4 {
			printUsage()
			os.Exit(1)
		}
		runGradeWithConfig(os.Args[2], os.Args[3])
	case "-s", "--suite":
		if len(os.Args) < 4 {
			printUsage()
			os.Exit(1)
		}
		runGrade(os.Args[3], os.Args[2], false)
	case "--json":
		if len(os.Args) < 3 {
			printUsage()
			os.Exit(1)
		}
		runGrade(os.Args[2], "", true)
	default:
		runGrade(cmd, "", false)
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, `Usage: pace-verify [command] [options] <submission.py>

Commands:
  init              Create a pace_verify.json configuration file
  <submission.py>   Grade a Python submission with the configured suite

Options:
  -s, --suite       Specify suite file: pace-verify -s suite.json <submission.py>
  -c, --config      Specify config file: pace-verify -c config.json <submission.py>
  --json            Emit a machine-readable report instead of step lines
  -h, --help        Show this help message

Configuration:
  pace-verify looks for configuration in:
    1. ./pace_verify.json
    2. ./.pace_verify.json
    3. ~/.config/pace-verify/config.json

  Run 'pace-verify init' to create a default configuration file.`)
}

func runInit() {
	configPath := "pace_verify.json"

	// Check if file already exists
	if _, err := os.Stat(configPath); err == nil {
		fmt.Printf("Config file %s already exists. Overwrite? [y/N]: ", configPath)
		var response string
		fmt.Scanln(&response)
		if response != "y" && response != "Y" {
			fmt.Println("Aborted.")
			return
		}
	}

	cfg := config.DefaultConfig()
	if err := cfg.Save(configPath); err != nil {
		fmt.Fprintf(os.Stderr, "Error creating config: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Created %s\n", configPath)
	fmt.Println("\nEdit this file to configure:")
	fmt.Println("  - The check-suite file to grade against")
	fmt.Println("  - The flag file released on a pass")
	fmt.Println("  - Timing capture and color output")
}

func runGrade(submission, suiteOverride string, jsonOut bool) {
	// Load config from default locations
	cfg, err := config.Load(filepath.Dir(submission))
	if err != nil {
		fmt.Printf("Warning: Could not load config: %v (using defaults)\n", err)
		cfg = config.DefaultConfig()
	}

	grade(cfg, submission, suiteOverride, jsonOut)
}

func runGradeWithConfig(configPath, submission string) {
	cfg, err := config.LoadFile(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config %s: %v\n", configPath, err)
		os.Exit(1)
	}

	grade(cfg, submission, "", false)
}

func grade(cfg *config.Config, submission, suiteOverride string, jsonOut bool) {
	suitePath := suiteOverride
	if suitePath == "" {
		suitePath = cfg.Suite
	}

	suite, err := verifier.LoadSuiteWithConfig(suitePath, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	r := verifier.NewRunner(suite.Steps)
	r.NoColor = cfg.NoColor
	r.Timing = cfg.TimingEnabled()
	r.TimingPath = cfg.Timing.Path
	if suite.FlagPath != "" {
		r.FlagPath = suite.FlagPath
	}
	if jsonOut {
		r.Out = io.Discard
	}

	passed, err := r.Grade(submission)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(r.Report(suite.Challenge)); err != nil {
			fmt.Fprintf(os.Stderr, "Error encoding report: %v\n", err)
			os.Exit(1)
		}
	}

	if !passed {
		os.Exit(1)
	}
}
