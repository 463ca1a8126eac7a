package handlers

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/younes-nb/k8s-cluster-setup/internal/config"
	"github.com/younes-nb/k8s-cluster-setup/internal/pipeline"
	"github.com/younes-nb/k8s-cluster-setup/internal/ui"
	"github.com/younes-nb/k8s-cluster-setup/internal/util/prerequisites"
)

// scaffoldRepo lays out the directories and files preflight expects.
func scaffoldRepo(t *testing.T) *config.Config {
	t.Helper()
	root := t.TempDir()

	cfg := config.Default()
	cfg.RepoRoot = root
	cfg.ControlPathDir = filepath.Join(root, "cp-sockets")

	for _, dir := range []string{"preparing", "haproxy", "kubespray", "postcluster"} {
		require.NoError(t, os.MkdirAll(filepath.Join(root, dir), 0o755))
	}
	require.NoError(t, os.WriteFile(
		filepath.Join(root, "kubespray", "requirements.txt"),
		[]byte("ansible==9.3.0\n"), 0o644))

	return cfg
}

// fakeTools puts stub ansible-playbook and python3 binaries on PATH so the
// tool check passes regardless of the host.
func fakeTools(t *testing.T) {
	t.Helper()
	bin := t.TempDir()
	for _, name := range []string{"ansible-playbook", "python3"} {
		require.NoError(t, os.WriteFile(filepath.Join(bin, name), []byte("#!/bin/sh\nexit 0\n"), 0o755))
	}
	t.Setenv("PATH", bin)
}

func TestBuildStagesMatchesRegistryOrder(t *testing.T) {
	t.Parallel()

	cfg := config.Default()
	cfg.RepoRoot = "/srv/cluster"
	stages := buildStages(cfg, ui.NewPlainPrinter(&bytes.Buffer{}))

	names := make([]string, 0, len(stages))
	for _, st := range stages {
		names = append(names, st.Name)
		assert.NotNil(t, st.Run, "stage %s must have an action", st.Name)
		assert.NotEmpty(t, st.Summary)
	}
	assert.Equal(t, pipeline.Order(), names)
}

func TestPreflightOK(t *testing.T) {
	fakeTools(t)
	cfg := scaffoldRepo(t)

	require.NoError(t, preflight(cfg))

	info, err := os.Stat(cfg.ControlPathDir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
	assert.Equal(t, os.FileMode(0o700), info.Mode().Perm())
}

func TestPreflightMissingTool(t *testing.T) {
	t.Setenv("PATH", t.TempDir()) // nothing on PATH
	cfg := scaffoldRepo(t)

	err := preflight(cfg)
	require.Error(t, err)

	var missing *prerequisites.MissingToolError
	assert.True(t, errors.As(err, &missing))
}

func TestPreflightMissingStageDir(t *testing.T) {
	fakeTools(t)
	cfg := scaffoldRepo(t)
	require.NoError(t, os.RemoveAll(cfg.Abs(cfg.Stages.HAProxy)))

	err := preflight(cfg)
	require.Error(t, err)

	var missing *prerequisites.MissingPathError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, cfg.Abs(cfg.Stages.HAProxy), missing.Path)
}

func TestPreflightMissingRequirements(t *testing.T) {
	fakeTools(t)
	cfg := scaffoldRepo(t)
	require.NoError(t, os.Remove(cfg.RequirementsPath()))

	err := preflight(cfg)
	require.Error(t, err)

	var missing *prerequisites.MissingPathError
	assert.True(t, errors.As(err, &missing))
}
