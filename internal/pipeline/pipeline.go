// Package pipeline runs the ordered provisioning stages.
//
// The registry order is fixed at build time: preparing, haproxy, kubespray,
// postcluster, kubeconfig. Execution is strictly sequential and fail-fast:
// the first stage error stops the run, and recovery happens only through
// the operator resuming from a named stage after fixing the cause. No run
// state is persisted across invocations.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/younes-nb/k8s-cluster-setup/internal/ui"
)

// Stage names, in registry order.
const (
	StagePreparing   = "preparing"
	StageHAProxy     = "haproxy"
	StageKubespray   = "kubespray"
	StagePostcluster = "postcluster"
	StageKubeconfig  = "kubeconfig"
)

// Order returns the fixed stage order.
func Order() []string {
	return []string{StagePreparing, StageHAProxy, StageKubespray, StagePostcluster, StageKubeconfig}
}

// Stage is one named, ordered unit of pipeline work.
type Stage struct {
	// Name is the unique lowercase identity used by the resume cursor.
	Name string

	// Summary is one line of operator-facing context for the banner.
	Summary string

	// Run performs the stage's work. A non-nil error halts the pipeline.
	Run func(ctx context.Context) error
}

// UnknownStageError reports a resume name matching no registered stage.
// Nothing runs when this is returned.
type UnknownStageError struct {
	Name  string
	Known []string
}

func (e *UnknownStageError) Error() string {
	return fmt.Sprintf("unknown stage %q (valid stages: %s)", e.Name, strings.Join(e.Known, ", "))
}

// StageError wraps a failed stage. The wrapped external command's exit
// status is surfaced through ExitCode.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %s failed: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// ExitCode returns the exit status the process should propagate: the
// external command's own code when one is available, otherwise 1.
func (e *StageError) ExitCode() int {
	var coder interface{ ExitCode() int }
	if errors.As(e.Err, &coder) {
		return coder.ExitCode()
	}
	var exitErr *exec.ExitError
	if errors.As(e.Err, &exitErr) {
		return exitErr.ExitCode()
	}
	return 1
}

// Runner executes stages in registration order.
type Runner struct {
	stages  []Stage
	printer *ui.Printer
}

// NewRunner builds a Runner. Stage names must be unique and lowercase;
// the order given here is total and final.
func NewRunner(stages []Stage, printer *ui.Printer) (*Runner, error) {
	seen := make(map[string]struct{}, len(stages))
	for _, st := range stages {
		if st.Name != strings.ToLower(st.Name) {
			return nil, fmt.Errorf("stage name %q must be lowercase", st.Name)
		}
		if _, dup := seen[st.Name]; dup {
			return nil, fmt.Errorf("duplicate stage name %q", st.Name)
		}
		seen[st.Name] = struct{}{}
	}
	return &Runner{stages: stages, printer: printer}, nil
}

// ResolveStart maps a resume name to a cursor index. The empty name means
// run everything. Names are case-normalized; an unknown name is a hard
// error before anything runs.
func (r *Runner) ResolveStart(name string) (int, error) {
	if name == "" {
		return 0, nil
	}
	normalized := strings.ToLower(name)
	for i, st := range r.stages {
		if st.Name == normalized {
			return i, nil
		}
	}
	known := make([]string, 0, len(r.stages))
	for _, st := range r.stages {
		known = append(known, st.Name)
	}
	return 0, &UnknownStageError{Name: name, Known: known}
}

// Run executes every stage from the resume cursor to the end, in order,
// short-circuiting on the first failure. Stages before the cursor are
// logged as skipped, never treated as failed. The cursor match is consumed
// exactly once: once reached, every later stage runs unconditionally.
func (r *Runner) Run(ctx context.Context, startFrom string) error {
	start, err := r.ResolveStart(startFrom)
	if err != nil {
		return err
	}

	for i, st := range r.stages {
		if i < start {
			r.printer.Skip(st.Name)
			continue
		}

		r.printer.Banner(i+1, len(r.stages), st.Name, st.Summary)
		if err := st.Run(ctx); err != nil {
			return &StageError{Stage: st.Name, Err: err}
		}
		r.printer.Done(st.Name)
	}
	return nil
}
