// Package venv manages the isolated Python toolchain for the kubespray stage.
//
// The virtualenv is created on first use and reused unmodified afterwards;
// dependencies are re-synced from the pinned manifest on every run.
// Activation never touches the process environment: Environ derives the
// environment for exactly one command, so later stages cannot inherit the
// venv's shadowed tool resolution.
package venv

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// DefaultPython is the interpreter used to create the virtualenv.
const DefaultPython = "python3"

// ProvisionError reports a failed toolchain provisioning step. Any such
// failure aborts the whole run; a half-provisioned toolchain must never
// reach the cluster bootstrap.
type ProvisionError struct {
	Step string
	Err  error
}

func (e *ProvisionError) Error() string {
	return fmt.Sprintf("toolchain provisioning failed at %s: %v", e.Step, e.Err)
}

func (e *ProvisionError) Unwrap() error { return e.Err }

// Manager provisions and exposes one virtualenv.
type Manager struct {
	// Path is the virtualenv directory.
	Path string

	// Requirements is the pinned dependency manifest.
	Requirements string

	// Python overrides the interpreter used for creation. Used by tests.
	Python string

	Stdout io.Writer
	Stderr io.Writer

	// execute runs one provisioning command. Replaced in tests.
	execute func(ctx context.Context, name string, args ...string) error
}

// New returns a Manager for the virtualenv at path with the given manifest.
func New(path, requirements string) *Manager {
	m := &Manager{Path: path, Requirements: requirements, Python: DefaultPython}
	m.execute = m.run
	return m
}

// Ensure makes the virtualenv usable: creates it if absent (an existing one
// is reused, never recreated), upgrades pip, and installs the pinned
// requirements. Called before every kubespray invocation.
func (m *Manager) Ensure(ctx context.Context) error {
	if _, err := os.Stat(m.Path); os.IsNotExist(err) {
		if err := m.execute(ctx, m.python(), "-m", "venv", m.Path); err != nil {
			return &ProvisionError{Step: "venv creation", Err: err}
		}
	} else if err != nil {
		return &ProvisionError{Step: "venv inspection", Err: err}
	}

	pip := m.bin("pip")
	if err := m.execute(ctx, pip, "install", "--upgrade", "pip"); err != nil {
		return &ProvisionError{Step: "pip upgrade", Err: err}
	}
	if err := m.execute(ctx, pip, "install", "-r", m.Requirements); err != nil {
		return &ProvisionError{Step: "requirements install", Err: err}
	}
	return nil
}

// Environ returns base with the virtualenv activated: VIRTUAL_ENV set, the
// venv bin directory prepended to PATH, and PYTHONHOME dropped. base itself
// is not modified.
func (m *Manager) Environ(base []string) []string {
	bin := filepath.Join(m.Path, "bin")
	env := make([]string, 0, len(base)+2)

	sawPath := false
	for _, kv := range base {
		switch {
		case strings.HasPrefix(kv, "PATH="):
			env = append(env, "PATH="+bin+string(os.PathListSeparator)+strings.TrimPrefix(kv, "PATH="))
			sawPath = true
		case strings.HasPrefix(kv, "PYTHONHOME="):
			// A stray PYTHONHOME breaks the venv's interpreter resolution.
		case strings.HasPrefix(kv, "VIRTUAL_ENV="):
		default:
			env = append(env, kv)
		}
	}
	if !sawPath {
		env = append(env, "PATH="+bin)
	}
	return append(env, "VIRTUAL_ENV="+m.Path)
}

func (m *Manager) python() string {
	if m.Python != "" {
		return m.Python
	}
	return DefaultPython
}

func (m *Manager) bin(name string) string {
	return filepath.Join(m.Path, "bin", name)
}

func (m *Manager) run(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = m.stdout()
	cmd.Stderr = m.stderr()
	return cmd.Run()
}

func (m *Manager) stdout() io.Writer {
	if m.Stdout != nil {
		return m.Stdout
	}
	return os.Stdout
}

func (m *Manager) stderr() io.Writer {
	if m.Stderr != nil {
		return m.Stderr
	}
	return os.Stderr
}
