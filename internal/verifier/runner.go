package verifier

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fatih/color"

	"github.com/dsu-arl/paceAITester/internal/extractor"
)

// State tracks where a run stands. A runner moves NotStarted → Running →
// Passed or Failed, never backwards, and stops at the first failing step.
type State int

const (
	NotStarted State = iota
	Running
	Passed
	Failed
)

func (s State) String() string {
	switch s {
	case NotStarted:
		return "not started"
	case Running:
		return "running"
	case Passed:
		return "passed"
	case Failed:
		return "failed"
	}
	return "unknown"
}

// StepResult is one step's verdict, for machine-readable reports.
type StepResult struct {
	Label      string `json:"label"`
	Status     string `json:"status"`
	Diagnostic string `json:"diagnostic,omitempty"`
}

// Report is the machine-readable verdict of a grading run.
type Report struct {
	Challenge string       `json:"challenge,omitempty"`
	Passed    bool         `json:"passed"`
	Steps     []StepResult `json:"steps"`
	Flag      string       `json:"flag,omitempty"`
}

// Runner grades one submission against an ordered list of steps. Each step
// prints one colored "label Passed/Failed" line; a failure adds its
// diagnostic and stops the run. A full pass prints the success banner and
// the flag file's contents.
type Runner struct {
	Steps    []Step
	FlagPath string
	Out      io.Writer
	NoColor  bool

	// Timing enables the JSONL phase recorder; TimingPath overrides where
	// it writes. PACE_TIMING_JSONL wins over both.
	Timing     bool
	TimingPath string

	state   State
	step    int
	results []StepResult
}

// NewRunner returns a runner with the conventional defaults: flag at
// /flag, output on stdout, colors on.
func NewRunner(steps []Step) *Runner {
	return &Runner{
		Steps:    steps,
		FlagPath: "/flag",
		Out:      os.Stdout,
	}
}

// State reports the run's position in its lifecycle.
func (r *Runner) State() State {
	return r.state
}

// StepIndex reports the zero-based index of the step the runner is on, or
// stopped at. Meaningful once the state leaves NotStarted.
func (r *Runner) StepIndex() int {
	return r.step
}

// Results returns the per-step verdicts of the last run, in step order. A
// run that stopped early has no entries for the steps it never reached.
func (r *Runner) Results() []StepResult {
	return r.results
}

// Report assembles the machine-readable verdict of the last run. The flag
// is included only on a pass, verbatim from the flag file.
func (r *Runner) Report(challenge string) Report {
	report := Report{
		Challenge: challenge,
		Passed:    r.state == Passed,
		Steps:     r.results,
	}
	if report.Passed {
		if data, err := os.ReadFile(r.FlagPath); err == nil {
			report.Flag = string(data)
		}
	}
	return report
}

// Grade parses the submission at path and runs every step against it. A
// missing or unreadable submission is fatal and aborts before any step
// runs; a failing step is a normal false verdict, not an error.
func (r *Runner) Grade(path string) (bool, error) {
	runStart := time.Now()
	timing := newTimingRecorder(runStart, r.resolveTimingPath())
	defer timing.Close()

	stepStart := time.Now()
	source, err := extractor.ReadSource(path)
	if err != nil {
		return false, err
	}
	stmts, err := extractor.New().Extract(source)
	if err != nil {
		return false, err
	}
	timing.RecordStage("parse", stepStart, time.Since(stepStart), "")

	ctx := &Context{
		Statements: stmts,
		Source:     source,
		Recorded:   map[string]string{},
	}

	passed := r.run(ctx, timing)
	timing.RecordStage("total", runStart, time.Since(runStart), "")
	return passed, nil
}

// Run grades an already-parsed submission, for suites assembled in Go.
func (r *Runner) Run(ctx *Context) bool {
	runStart := time.Now()
	timing := newTimingRecorder(runStart, r.resolveTimingPath())
	defer timing.Close()

	passed := r.run(ctx, timing)
	timing.RecordStage("total", runStart, time.Since(runStart), "")
	return passed
}

func (r *Runner) run(ctx *Context, timing *timingRecorder) bool {
	pass := color.New(color.FgGreen)
	fail := color.New(color.FgRed)
	if r.NoColor {
		pass.DisableColor()
		fail.DisableColor()
	} else {
		pass.EnableColor()
		fail.EnableColor()
	}

	// Call checks record assignment targets here for later $name lookups.
	if ctx.Recorded == nil {
		ctx.Recorded = map[string]string{}
	}

	r.state = Running
	r.results = r.results[:0]
	for i, step := range r.Steps {
		r.step = i
		stepStart := time.Now()
		ok, diagnostic := step.Check.Run(ctx, step.Label)
		if !ok {
			timing.RecordStep(step.Label, "failed", stepStart, time.Since(stepStart))
			r.results = append(r.results, StepResult{Label: step.Label, Status: "failed", Diagnostic: diagnostic})
			fmt.Fprint(r.Out, fail.Sprintf("%s Failed\n", step.Label))
			fmt.Fprintln(r.Out, diagnostic)
			r.state = Failed
			return false
		}
		timing.RecordStep(step.Label, "passed", stepStart, time.Since(stepStart))
		r.results = append(r.results, StepResult{Label: step.Label, Status: "passed"})
		fmt.Fprint(r.Out, pass.Sprintf("%s Passed\n", step.Label))
	}

	fmt.Fprintln(r.Out, "Congratulations! You have passed this challenge! Here is your flag:")
	r.printFlag()
	r.state = Passed
	return true
}

// printFlag releases the success artifact. A missing flag file is reported
// in plain text; the run still counts as passed.
func (r *Runner) printFlag() {
	data, err := os.ReadFile(r.FlagPath)
	if err != nil {
		fmt.Fprintln(r.Out, "Error: Flag file not found.")
		return
	}
	fmt.Fprintln(r.Out, string(data))
}
