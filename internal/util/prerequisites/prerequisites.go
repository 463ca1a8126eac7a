// Package prerequisites verifies the local environment before any stage runs.
//
// Checks are local and instantaneous: a missing tool or path is a
// deterministic configuration problem, never retried. Missing tools carry a
// distinguished error type so the caller can exit with a dedicated status
// and operators can script remediation differently.
package prerequisites

import (
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// Tool represents a client tool that may be required.
type Tool struct {
	// Name is the binary name to look for in PATH.
	Name string

	// Required indicates if this tool is mandatory.
	Required bool

	// Description explains what the tool is used for.
	Description string

	// InstallURL provides a URL for installation instructions.
	InstallURL string
}

// DefaultTools returns the tools every pipeline run needs.
func DefaultTools() []Tool {
	return []Tool{
		{
			Name:        "ansible-playbook",
			Required:    true,
			Description: "Runs the playbooks backing every stage",
			InstallURL:  "https://docs.ansible.com/ansible/latest/installation_guide/",
		},
		{
			Name:        "python3",
			Required:    true,
			Description: "Creates the isolated kubespray toolchain",
			InstallURL:  "https://www.python.org/downloads/",
		},
	}
}

// MissingToolError reports a required tool absent from PATH.
type MissingToolError struct {
	Tools []Tool
}

func (e *MissingToolError) Error() string {
	names := make([]string, 0, len(e.Tools))
	for _, t := range e.Tools {
		names = append(names, fmt.Sprintf("%s (%s)", t.Name, t.InstallURL))
	}
	return "missing required tools: " + strings.Join(names, ", ")
}

// MissingPathError reports a required file or directory that does not exist.
type MissingPathError struct {
	Path string
	Err  error
}

func (e *MissingPathError) Error() string {
	return fmt.Sprintf("required path missing: %s", e.Path)
}

func (e *MissingPathError) Unwrap() error { return e.Err }

// CheckResult contains the result of checking a single tool.
type CheckResult struct {
	Tool  Tool
	Found bool
	Path  string
}

// CheckResults contains the results of checking multiple tools.
type CheckResults struct {
	Results []CheckResult
	Missing []Tool
}

// Err returns a MissingToolError if any required tools are missing.
func (r *CheckResults) Err() error {
	var required []Tool
	for _, tool := range r.Missing {
		if tool.Required {
			required = append(required, tool)
		}
	}
	if len(required) == 0 {
		return nil
	}
	return &MissingToolError{Tools: required}
}

// Check verifies that the specified tools are available in PATH.
func Check(tools []Tool) *CheckResults {
	results := &CheckResults{}

	for _, tool := range tools {
		result := CheckResult{Tool: tool}

		path, err := exec.LookPath(tool.Name)
		if err == nil {
			result.Found = true
			result.Path = path
		} else {
			results.Missing = append(results.Missing, tool)
		}

		results.Results = append(results.Results, result)
	}

	return results
}

// Paths verifies that every given path exists. The first missing path is
// returned as a MissingPathError.
func Paths(paths []string) error {
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			return &MissingPathError{Path: p, Err: err}
		}
	}
	return nil
}

// EnsureScratchDir creates the shared connection-multiplexing socket
// directory with owner-only permissions. Idempotent.
func EnsureScratchDir(dir string) error {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("failed to create scratch directory %s: %w", dir, err)
	}
	return nil
}
