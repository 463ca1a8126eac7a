// Package kubeconfig locates, validates, and installs the admin kubeconfig
// produced by the cluster bootstrap.
//
// Two retrieval strategies exist: searching the kubespray artifact tree
// (local mode, the default) and reading the canonical path off a control
// plane node over SSH (remote mode). Both install the credential with
// owner-only permissions and report the installed path back to the caller,
// which decides what to print or export.
package kubeconfig

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// DefaultRemotePath is the canonical credential location on a control plane
// node.
const DefaultRemotePath = "/etc/kubernetes/admin.conf"

// artifactSuffix is the tail of the path kubespray writes when
// kubeconfig_localhost is enabled.
const artifactSuffix = "artifacts/admin.conf"

// ArtifactMissingError reports that no kubeconfig artifact exists under the
// kubespray tree.
type ArtifactMissingError struct {
	Root string
}

func (e *ArtifactMissingError) Error() string {
	return fmt.Sprintf(
		"no inventory/*/%s found under %s; kubespray must run with kubeconfig_localhost: true and must have completed successfully",
		artifactSuffix, e.Root)
}

// ArtifactEmptyError reports a zero-length credential, which is as useless
// as a missing one.
type ArtifactEmptyError struct {
	Path string
}

func (e *ArtifactEmptyError) Error() string {
	return fmt.Sprintf("kubeconfig at %s is empty; the cluster bootstrap likely did not complete", e.Path)
}

// Result reports where the credential was installed.
type Result struct {
	Path string
}

// FindLocal walks searchRoot for the first path shaped like
// inventory/<cluster>/artifacts/admin.conf.
func FindLocal(searchRoot string) (string, error) {
	var match string

	err := filepath.WalkDir(searchRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(searchRoot, path)
		if err != nil {
			return err
		}
		slashed := filepath.ToSlash(rel)
		if strings.HasSuffix(slashed, "/"+artifactSuffix) && strings.Contains(slashed, "inventory/") {
			match = path
			return fs.SkipAll
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to search %s: %w", searchRoot, err)
	}
	if match == "" {
		return "", &ArtifactMissingError{Root: searchRoot}
	}
	return match, nil
}

// Install copies the credential at src to dest with owner-only permissions.
// An empty source fails before anything is written.
func Install(src, dest string) (Result, error) {
	data, err := os.ReadFile(src)
	if err != nil {
		return Result{}, fmt.Errorf("failed to read kubeconfig %s: %w", src, err)
	}
	return InstallBytes(data, src, dest)
}

// InstallBytes writes credential data to dest with owner-only permissions.
// origin names where the data came from, for error messages.
func InstallBytes(data []byte, origin, dest string) (Result, error) {
	if len(strings.TrimSpace(string(data))) == 0 {
		return Result{}, &ArtifactEmptyError{Path: origin}
	}
	if err := os.WriteFile(dest, data, 0o600); err != nil {
		return Result{}, fmt.Errorf("failed to install kubeconfig at %s: %w", dest, err)
	}
	// WriteFile permissions only apply to newly created files.
	if err := os.Chmod(dest, 0o600); err != nil {
		return Result{}, fmt.Errorf("failed to restrict kubeconfig permissions: %w", err)
	}

	abs, err := filepath.Abs(dest)
	if err != nil {
		return Result{}, fmt.Errorf("failed to resolve kubeconfig path: %w", err)
	}
	return Result{Path: abs}, nil
}

// Executor runs a command on a remote host. Satisfied by ssh.Client.
type Executor interface {
	Execute(ctx context.Context, command string) (string, error)
}

// FetchRemote reads remotePath off the host behind exec with root
// privileges and installs it at dest.
func FetchRemote(ctx context.Context, exec Executor, remotePath, dest string) (Result, error) {
	if remotePath == "" {
		remotePath = DefaultRemotePath
	}

	output, err := exec.Execute(ctx, "sudo cat "+remotePath)
	if err != nil {
		return Result{}, fmt.Errorf("failed to fetch kubeconfig: %w", err)
	}
	return InstallBytes([]byte(output), remotePath, dest)
}
