package verifier

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dsu-arl/paceAITester/internal/checker"
	"github.com/dsu-arl/paceAITester/internal/config"
	"github.com/dsu-arl/paceAITester/internal/extractor"
	"github.com/dsu-arl/paceAITester/internal/policy"
	"github.com/dsu-arl/paceAITester/internal/validator"
)

// Suite is a loaded check-suite file: the ordered steps plus the paths the
// exercise author pinned. Empty FlagPath and PolicyDir fall back to the
// grader's configuration.
type Suite struct {
	Challenge string
	FlagPath  string
	PolicyDir string
	Steps     []Step
}

// The wire form of a suite file. Exactly one check field per step; the
// schema guards the field types and this loader enforces the count.
type suiteFile struct {
	Challenge string     `json:"challenge"`
	FlagPath  string     `json:"flag_path"`
	PolicyDir string     `json:"policy_dir"`
	Steps     []stepFile `json:"steps"`
}

type stepFile struct {
	Label       string           `json:"label"`
	Call        *callFile        `json:"call"`
	Import      *importFile      `json:"import"`
	ImportFrom  *importFromFile  `json:"import_from"`
	FunctionDef *functionDefFile `json:"function_def"`
	ClassDef    *classDefFile    `json:"class_def"`
	Variable    *variableFile    `json:"variable"`
	Rego        *regoFile        `json:"rego"`
}

type callFile struct {
	Function        string            `json:"function"`
	Args            []string          `json:"args"`
	Kwargs          map[string]string `json:"kwargs"`
	Variables       *int              `json:"variables"`
	RecordAs        []string          `json:"record_as"`
	AllowAssignment *bool             `json:"allow_assignment"`
	MaxCalls        int               `json:"max_calls"`
	Nested          bool              `json:"nested"`
}

type importFile struct {
	Module string `json:"module"`
	Alias  string `json:"alias"`
}

type importFromFile struct {
	Module string   `json:"module"`
	Names  []string `json:"names"`
	Alias  string   `json:"alias"`
}

type functionDefFile struct {
	Name string   `json:"name"`
	Args []string `json:"args"`
}

type classDefFile struct {
	Name  string   `json:"name"`
	Bases []string `json:"bases"`
}

type variableFile struct {
	Name   string `json:"name"`
	Equals any    `json:"equals"`
}

type regoFile struct {
	Query string `json:"query"`
}

// LoadSuite reads, contract-checks and assembles a check-suite file. Rego
// steps compile their policies here so a broken policy stops the grader
// before any step runs.
func LoadSuite(path string) (*Suite, error) {
	return LoadSuiteWithConfig(path, nil)
}

// LoadSuiteWithConfig is LoadSuite with configuration defaults for fields
// a suite file may leave unset: the policy directory and the flag path.
func LoadSuiteWithConfig(path string, cfg *config.Config) (*Suite, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading suite: %w", err)
	}

	contract, err := validator.New()
	if err != nil {
		return nil, fmt.Errorf("loading suite contract: %w", err)
	}
	if err := contract.ValidateJSON(data); err != nil {
		return nil, fmt.Errorf("suite %s: %w", path, err)
	}

	var file suiteFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing suite: %w", err)
	}

	fallbackDir := "policies"
	if cfg != nil && cfg.PolicyDir != "" {
		fallbackDir = cfg.PolicyDir
	}

	suite := &Suite{
		Challenge: file.Challenge,
		FlagPath:  file.FlagPath,
		PolicyDir: resolvePolicyDir(path, file.PolicyDir, fallbackDir),
	}
	if suite.FlagPath == "" && cfg != nil {
		suite.FlagPath = cfg.FlagPath
	}

	var engine *policy.Engine
	for _, step := range file.Steps {
		check, err := buildCheck(step, suite.PolicyDir, &engine)
		if err != nil {
			return nil, fmt.Errorf("step %q: %w", step.Label, err)
		}
		suite.Steps = append(suite.Steps, Step{Label: step.Label, Check: check})
	}

	return suite, nil
}

// resolvePolicyDir anchors a relative policy directory at the suite file,
// so suites stay relocatable alongside their policies.
func resolvePolicyDir(suitePath, policyDir, fallback string) string {
	if policyDir == "" {
		policyDir = fallback
	}
	if filepath.IsAbs(policyDir) {
		return policyDir
	}
	return filepath.Join(filepath.Dir(suitePath), policyDir)
}

func buildCheck(step stepFile, policyDir string, engine **policy.Engine) (Check, error) {
	var checks []Check

	if step.Call != nil {
		checks = append(checks, CallCheck{
			Spec: checker.CallSpec{
				Function:        step.Call.Function,
				Args:            canonicalAll(step.Call.Args),
				Kwargs:          canonicalValues(step.Call.Kwargs),
				VariableCount:   step.Call.Variables,
				AllowAssignment: step.Call.AllowAssignment,
				MaxCalls:        step.Call.MaxCalls,
				RecordAs:        step.Call.RecordAs,
			},
			Nested: step.Call.Nested,
		})
	}
	if step.Import != nil {
		checks = append(checks, ImportCheck{
			Module: step.Import.Module,
			Alias:  step.Import.Alias,
		})
	}
	if step.ImportFrom != nil {
		checks = append(checks, ImportFromCheck{
			Module: step.ImportFrom.Module,
			Names:  step.ImportFrom.Names,
			Alias:  step.ImportFrom.Alias,
		})
	}
	if step.FunctionDef != nil {
		checks = append(checks, FunctionDefCheck{
			Name: step.FunctionDef.Name,
			Args: step.FunctionDef.Args,
		})
	}
	if step.ClassDef != nil {
		checks = append(checks, ClassDefCheck{
			Name:  step.ClassDef.Name,
			Bases: canonicalBases(step.ClassDef.Bases),
		})
	}
	if step.Variable != nil {
		checks = append(checks, VariableCheck{
			Name: step.Variable.Name,
			Want: step.Variable.Equals,
		})
	}
	if step.Rego != nil {
		// Policies compile once and are shared across the suite's rego
		// steps unless a step names its own query.
		if step.Rego.Query == "" && *engine != nil {
			checks = append(checks, RegoCheck{Engine: *engine})
		} else {
			built, err := policy.New(policyDir, step.Rego.Query)
			if err != nil {
				return nil, err
			}
			if step.Rego.Query == "" {
				*engine = built
			}
			checks = append(checks, RegoCheck{Engine: built})
		}
	}

	if len(checks) != 1 {
		return nil, fmt.Errorf("exactly one check per step, got %d", len(checks))
	}
	return checks[0], nil
}

// canonicalAll normalizes expected argument text the way the extractor
// renders learner code, so '0.2' and "0.2" spell the same expectation.
func canonicalAll(args []string) []string {
	if args == nil {
		return nil
	}
	out := make([]string, len(args))
	for i, a := range args {
		out[i] = extractor.Canonical(a)
	}
	return out
}

func canonicalValues(kwargs map[string]string) map[string]string {
	if kwargs == nil {
		return nil
	}
	out := make(map[string]string, len(kwargs))
	for k, v := range kwargs {
		out[k] = extractor.Canonical(v)
	}
	return out
}

func canonicalBases(bases []string) []string {
	return canonicalAll(bases)
}
