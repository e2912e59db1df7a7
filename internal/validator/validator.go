package validator

// =============================================================================
// VALIDATOR PHILOSOPHY: CRASH EARLY, CRASH LOUD
// =============================================================================
//
// The CUE validator is the "contract guard" on the grader's two JSON surfaces:
// the exercise author's check-suite file, and the statement-forest document
// fed to the policy engine and emitted by pace-ast.
//
// WHY THIS EXISTS:
// Without validation, if a field name changes or a type is wrong:
// - Rego rules silently receive `undefined`
// - Checks don't fire
// - A broken suite grades every submission as failing (or worse, passing)
// - Silent bugs multiply
//
// With validation:
// - Immediate crash with clear error
// - "field 'kwarg' not allowed" tells you exactly what's wrong
// - Fix the suite or the encoder, no guessing
//
// WHEN VALIDATION FAILS:
// 1. DON'T suppress the error or add a workaround
// 2. DON'T add fields to the schema without understanding why
// 3. DO trace back: Is this a suite typo? Extractor bug? Encoder bug?
//
// The validator is the canary in the coal mine. When it complains, listen!
// =============================================================================

import (
	"embed"
	"encoding/json"
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
)

//go:embed suite_schema.cue
var suiteSchemaFS embed.FS

//go:embed forest_schema.cue
var forestSchemaFS embed.FS

// Validator validates check-suite files against the CUE schema contract.
// This is the "strict gatekeeper" that prevents a mistyped suite from
// silently grading nothing. If the suite doesn't match the schema, we
// crash immediately with a clear error rather than running bad checks.
type Validator struct {
	ctx    *cue.Context
	schema cue.Value
}

// New creates a new Validator with the embedded suite schema
func New() (*Validator, error) {
	ctx := cuecontext.New()

	schemaBytes, err := suiteSchemaFS.ReadFile("suite_schema.cue")
	if err != nil {
		return nil, fmt.Errorf("loading embedded suite schema: %w", err)
	}

	schema := ctx.CompileBytes(schemaBytes)
	if schema.Err() != nil {
		return nil, fmt.Errorf("compiling suite schema: %w", schema.Err())
	}

	return &Validator{
		ctx:    ctx,
		schema: schema,
	}, nil
}

// Validate checks that a decoded suite conforms to the CUE schema.
// Returns nil if valid, or a detailed error explaining what failed.
func (v *Validator) Validate(data interface{}) error {
	jsonBytes, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshaling suite to JSON: %w", err)
	}
	return v.ValidateJSON(jsonBytes)
}

// ValidateJSON validates suite JSON bytes directly against the schema
func (v *Validator) ValidateJSON(jsonBytes []byte) error {
	return unifyAgainst(v.ctx, v.schema, "#Suite", jsonBytes)
}

// ValidationErrors returns detailed information about all validation errors
func (v *Validator) ValidationErrors(data interface{}) []string {
	jsonBytes, err := json.Marshal(data)
	if err != nil {
		return []string{fmt.Sprintf("marshal error: %v", err)}
	}

	err = unifyAgainst(v.ctx, v.schema, "#Suite", jsonBytes)
	if err == nil {
		return nil
	}

	var errs []string
	for _, e := range errors.Errors(err) {
		errs = append(errs, e.Error())
	}
	return errs
}

// ForestValidator validates statement-forest documents: the policy engine
// input and the bare statement array pace-ast dumps.
type ForestValidator struct {
	ctx    *cue.Context
	schema cue.Value
}

// NewForestValidator creates a validator for statement-forest documents.
func NewForestValidator() (*ForestValidator, error) {
	ctx := cuecontext.New()

	schemaBytes, err := forestSchemaFS.ReadFile("forest_schema.cue")
	if err != nil {
		return nil, fmt.Errorf("loading forest schema: %w", err)
	}

	schema := ctx.CompileBytes(schemaBytes)
	if schema.Err() != nil {
		return nil, fmt.Errorf("compiling forest schema: %w", schema.Err())
	}

	return &ForestValidator{
		ctx:    ctx,
		schema: schema,
	}, nil
}

// ValidateInput checks that a policy engine input document conforms to the
// forest schema.
func (v *ForestValidator) ValidateInput(data interface{}) error {
	jsonBytes, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshaling input to JSON: %w", err)
	}
	return unifyAgainst(v.ctx, v.schema, "#Input", jsonBytes)
}

// ValidateStatements checks that an encoded statement array conforms to the
// forest schema.
func (v *ForestValidator) ValidateStatements(data interface{}) error {
	jsonBytes, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshaling statements to JSON: %w", err)
	}
	return unifyAgainst(v.ctx, v.schema, "#Forest", jsonBytes)
}

// ValidateStatementsJSON validates statement-array JSON bytes directly.
func (v *ForestValidator) ValidateStatementsJSON(jsonBytes []byte) error {
	return unifyAgainst(v.ctx, v.schema, "#Forest", jsonBytes)
}

func unifyAgainst(ctx *cue.Context, schema cue.Value, path string, jsonBytes []byte) error {
	dataValue := ctx.CompileBytes(jsonBytes)
	if dataValue.Err() != nil {
		return fmt.Errorf("compiling data as CUE: %w", dataValue.Err())
	}

	def := schema.LookupPath(cue.ParsePath(path))
	if def.Err() != nil {
		return fmt.Errorf("looking up %s definition: %w", path, def.Err())
	}

	unified := def.Unify(dataValue)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("schema validation failed: %w", err)
	}

	return nil
}
