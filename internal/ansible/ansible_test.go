package ansible

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArgs(t *testing.T) {
	t.Parallel()

	t.Run("without vault file", func(t *testing.T) {
		t.Parallel()
		r := &Runner{}
		args := r.Args(Playbook{File: "site.yml", ExtraArgs: []string{"-b"}})
		assert.Equal(t, []string{"site.yml", "-b"}, args)
	})

	t.Run("with vault file", func(t *testing.T) {
		t.Parallel()
		r := &Runner{VaultPasswordFile: "/secrets/vault-pass"}
		args := r.Args(Playbook{File: "cluster.yml"})
		assert.Equal(t, []string{"cluster.yml", "--vault-password-file", "/secrets/vault-pass"}, args)
	})
}

func TestEnviron(t *testing.T) {
	t.Parallel()

	t.Run("control path options", func(t *testing.T) {
		t.Parallel()
		r := &Runner{ControlPathDir: "/tmp/cp"}
		env := r.Environ([]string{"HOME=/home/op"})
		require.Len(t, env, 2)
		assert.Equal(t, "HOME=/home/op", env[0])
		assert.Contains(t, env[1], "ANSIBLE_SSH_COMMON_ARGS=")
		assert.Contains(t, env[1], "ControlPath="+filepath.Join("/tmp/cp", "%r@%h:%p"))
	})

	t.Run("operator ssh args appended", func(t *testing.T) {
		t.Parallel()
		r := &Runner{ControlPathDir: "/tmp/cp", SSHArgs: "-o StrictHostKeyChecking=no"}
		env := r.Environ(nil)
		require.Len(t, env, 1)
		assert.Contains(t, env[0], "StrictHostKeyChecking=no")
	})

	t.Run("base untouched without options", func(t *testing.T) {
		t.Parallel()
		r := &Runner{}
		base := []string{"PATH=/usr/bin"}
		assert.Equal(t, base, r.Environ(base))
	})
}

// writeScript drops an executable shell script into dir and returns its path.
func writeScript(t *testing.T, dir, name, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell script fixtures need a POSIX shell")
	}
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755))
	return path
}

func TestRunSuccess(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	script := writeScript(t, dir, "fake-playbook", "pwd\nexit 0\n")

	var out bytes.Buffer
	r := &Runner{Command: script, Stdout: &out, Stderr: &out}

	err := r.Run(context.Background(), Playbook{Name: "haproxy", Dir: dir, File: "site.yml"}, nil)
	require.NoError(t, err)
	// The invocation runs in the stage directory, not the test's.
	assert.Contains(t, out.String(), dir)
}

func TestRunPropagatesExitCode(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	script := writeScript(t, dir, "fake-playbook", "exit 3\n")

	r := &Runner{Command: script, Stdout: new(bytes.Buffer), Stderr: new(bytes.Buffer)}

	err := r.Run(context.Background(), Playbook{Name: "kubespray", Dir: dir, File: "cluster.yml"}, nil)
	require.Error(t, err)

	var exitErr *ExitError
	require.True(t, errors.As(err, &exitErr))
	assert.Equal(t, "kubespray", exitErr.Playbook)
	assert.Equal(t, 3, exitErr.Code)
	assert.Equal(t, 3, exitErr.ExitCode())
}

func TestRunMissingCommand(t *testing.T) {
	t.Parallel()

	r := &Runner{Command: "/nonexistent/ansible-playbook"}
	err := r.Run(context.Background(), Playbook{Name: "preparing", Dir: t.TempDir(), File: "site.yml"}, nil)
	require.Error(t, err)

	var exitErr *ExitError
	assert.False(t, errors.As(err, &exitErr), "a start failure is not an exit failure")
}
