// Package ansible invokes ansible-playbook for the playbook-backed stages.
//
// Each invocation gets an explicit working directory and environment; the
// process-wide working directory and environment are never mutated. Commands
// run synchronously with no timeout: cluster bootstraps are expected to run
// to natural completion or natural failure.
package ansible

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
)

// DefaultCommand is the binary resolved from PATH for every invocation.
const DefaultCommand = "ansible-playbook"

// Playbook describes one stage's external invocation.
type Playbook struct {
	// Name identifies the stage for error reporting.
	Name string

	// Dir is the working directory of the invocation.
	Dir string

	// File is the playbook path, relative to Dir.
	File string

	// ExtraArgs are appended after the playbook file.
	ExtraArgs []string
}

// Runner builds and executes playbook invocations.
type Runner struct {
	// Command overrides the invoked binary. Used by tests.
	Command string

	// VaultPasswordFile adds --vault-password-file to every invocation
	// when non-empty.
	VaultPasswordFile string

	// ControlPathDir holds the SSH connection-multiplexing sockets shared
	// by all stages.
	ControlPathDir string

	// SSHArgs are extra SSH options appended to the multiplexing options.
	SSHArgs string

	Stdout io.Writer
	Stderr io.Writer
}

// ExitError reports a playbook that exited non-zero. The code is the
// external command's own and is propagated verbatim to the operator.
type ExitError struct {
	Playbook string
	Code     int
	Err      error
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("playbook %s failed with exit status %d", e.Playbook, e.Code)
}

func (e *ExitError) Unwrap() error { return e.Err }

// ExitCode implements the interface the pipeline uses to surface the
// external command's status.
func (e *ExitError) ExitCode() int { return e.Code }

// Args returns the full argument list for a playbook, without the command
// itself. Pure so the flag layout is testable.
func (r *Runner) Args(pb Playbook) []string {
	args := []string{pb.File}
	if r.VaultPasswordFile != "" {
		args = append(args, "--vault-password-file", r.VaultPasswordFile)
	}
	return append(args, pb.ExtraArgs...)
}

// Environ returns the environment for a playbook invocation, derived from
// base. The multiplexing socket directory and any operator-supplied SSH
// options ride in ANSIBLE_SSH_COMMON_ARGS.
func (r *Runner) Environ(base []string) []string {
	env := make([]string, len(base), len(base)+1)
	copy(env, base)

	sshArgs := ""
	if r.ControlPathDir != "" {
		sshArgs = fmt.Sprintf("-o ControlMaster=auto -o ControlPersist=60s -o ControlPath=%s",
			filepath.Join(r.ControlPathDir, "%r@%h:%p"))
	}
	if r.SSHArgs != "" {
		if sshArgs != "" {
			sshArgs += " "
		}
		sshArgs += r.SSHArgs
	}
	if sshArgs != "" {
		env = append(env, "ANSIBLE_SSH_COMMON_ARGS="+sshArgs)
	}
	return env
}

// Run executes the playbook and blocks until it exits. env is the base
// environment for the invocation; nil means the current process environment.
// A non-zero exit is returned as an ExitError carrying the real status.
func (r *Runner) Run(ctx context.Context, pb Playbook, env []string) error {
	command := r.Command
	if command == "" {
		command = DefaultCommand
	}
	if env == nil {
		env = os.Environ()
	}

	cmd := exec.CommandContext(ctx, command, r.Args(pb)...)
	cmd.Dir = pb.Dir
	cmd.Env = r.Environ(env)
	cmd.Stdout = r.stdout()
	cmd.Stderr = r.stderr()

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return &ExitError{Playbook: pb.Name, Code: exitErr.ExitCode(), Err: err}
		}
		return fmt.Errorf("failed to start %s for stage %s: %w", command, pb.Name, err)
	}
	return nil
}

func (r *Runner) stdout() io.Writer {
	if r.Stdout != nil {
		return r.Stdout
	}
	return os.Stdout
}

func (r *Runner) stderr() io.Writer {
	if r.Stderr != nil {
		return r.Stderr
	}
	return os.Stderr
}
