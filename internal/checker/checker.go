// Package checker judges function calls in a submission against an
// exercise author's expectations.
package checker

import (
	"fmt"
	"sort"
	"strings"

	"github.com/dsu-arl/paceAITester/internal/statement"
)

// CallSpec is one expectation for a function call: its name, the exact
// arguments, and the shape of the assignment its result lands in. Nil
// pointer fields mean "don't care".
type CallSpec struct {
	Function        string
	Args            []string
	Kwargs          map[string]string
	VariableCount   *int
	AllowAssignment *bool
	MaxCalls        int
	RecordAs        []string
}

// Match locates calls to the spec's function among the given statements
// and judges the first one. It returns a verdict plus a diagnostic for
// the learner when the verdict is false.
//
// The recorded table carries variable names captured by earlier steps:
// $name placeholders in the spec's function and arguments are replaced
// from it before matching, and on success the matched call's assignment
// targets are recorded back into it (under their RecordAs labels, when
// given).
func Match(stmts []statement.Statement, spec CallSpec, step string, recorded map[string]string) (bool, string) {
	function := substitute(spec.Function, recorded)

	candidates := statement.FindCalls(stmts, function)
	if len(candidates) == 0 {
		return false, fmt.Sprintf("%s() is not called in %s.", function, step)
	}

	maxCalls := spec.MaxCalls
	if maxCalls <= 0 {
		maxCalls = 1
	}
	if len(candidates) > maxCalls {
		if maxCalls == 1 {
			return false, fmt.Sprintf("%s() should be called only once in %s.", function, step)
		}
		return false, fmt.Sprintf("%s() should be called at most %d times in %s.", function, maxCalls, step)
	}

	// Only the first call is inspected; max_calls already bounded the rest.
	call, targets := callParts(candidates[0])

	if spec.VariableCount != nil {
		want := *spec.VariableCount
		switch {
		case targets == nil:
			return false, fmt.Sprintf("%s() result must be assigned in %s.", function, step)
		case len(targets) > 1 && len(targets) != want:
			return false, fmt.Sprintf("%s() should assign to %d variables in %s.", function, want, step)
		case len(targets) == 1 && want != 1:
			return false, fmt.Sprintf("%s() should assign to a single variable in %s.", function, step)
		}
	}

	if spec.AllowAssignment != nil && !*spec.AllowAssignment && targets != nil {
		return false, fmt.Sprintf("%s() should not be assigned to a variable in %s.", function, step)
	}

	expectedArgs := substituteAll(spec.Args, recorded)
	expectedKwargs := substituteValues(spec.Kwargs, recorded)
	if !argumentsMatch(call, expectedArgs, expectedKwargs) {
		return false, fmt.Sprintf("Incorrect parameters for %s() in %s.", function, step)
	}

	record(targets, spec.RecordAs, recorded)
	return true, ""
}

// callParts splits a matched statement into its call and assignment
// targets. A bare call has no targets, and a lone underscore target
// counts as no assignment at all.
func callParts(stmt statement.Statement) (*statement.Call, []string) {
	switch v := stmt.(type) {
	case *statement.Call:
		return v, nil
	case *statement.Assign:
		targets := v.Targets
		if len(targets) == 1 && targets[0] == "_" {
			targets = nil
		}
		return v.Call, targets
	}
	return nil, nil
}

// argumentsMatch compares the call's arguments against the expectation.
// Positional arguments must match exactly and in order; a call made
// entirely with keywords is accepted when its keyword map equals the
// expected one.
func argumentsMatch(call *statement.Call, expectedArgs []string, expectedKwargs map[string]string) bool {
	if call == nil {
		return false
	}
	if equalStrings(call.Args, expectedArgs) {
		return true
	}
	return len(call.Args) == 0 && equalStringMaps(call.Kwargs, expectedKwargs)
}

// record remembers which names the submission assigned the call's result
// to. Each target is recorded under itself, and under its positional
// RecordAs label when the spec names one.
func record(targets []string, recordAs []string, recorded map[string]string) {
	if recorded == nil {
		return
	}
	for i, target := range targets {
		recorded[target] = target
		if i < len(recordAs) && recordAs[i] != "" {
			recorded[recordAs[i]] = target
		}
	}
}

// substitute replaces $name placeholders with names recorded by earlier
// steps. Longer labels are replaced first so $model wins over $m.
func substitute(text string, recorded map[string]string) string {
	if len(recorded) == 0 || !strings.Contains(text, "$") {
		return text
	}

	labels := make([]string, 0, len(recorded))
	for label := range recorded {
		labels = append(labels, label)
	}
	sort.Slice(labels, func(i, j int) bool {
		if len(labels[i]) != len(labels[j]) {
			return len(labels[i]) > len(labels[j])
		}
		return labels[i] < labels[j]
	})

	for _, label := range labels {
		text = strings.ReplaceAll(text, "$"+label, recorded[label])
	}
	return text
}

func substituteAll(texts []string, recorded map[string]string) []string {
	if len(texts) == 0 {
		return texts
	}
	out := make([]string, len(texts))
	for i, text := range texts {
		out[i] = substitute(text, recorded)
	}
	return out
}

func substituteValues(kwargs map[string]string, recorded map[string]string) map[string]string {
	if len(kwargs) == 0 {
		return kwargs
	}
	out := make(map[string]string, len(kwargs))
	for key, value := range kwargs {
		out[key] = substitute(value, recorded)
	}
	return out
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

func equalStringMaps(a, b map[string]string) bool {
	if len(a) != len(b) {
		return false
	}
	for key, value := range a {
		other, ok := b[key]
		if !ok || other != value {
			return false
		}
	}
	return true
}
