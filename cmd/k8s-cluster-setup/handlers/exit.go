package handlers

import (
	"errors"

	"github.com/younes-nb/k8s-cluster-setup/internal/pipeline"
	"github.com/younes-nb/k8s-cluster-setup/internal/util/prerequisites"
)

// Exit statuses. Stage failures propagate the external command's own code
// instead of one of these.
const (
	ExitOK          = 0
	ExitFailure     = 1
	ExitUsage       = 2
	ExitMissingTool = 127
)

// ExitCode maps an error to the process exit status. Missing tools get a
// distinguished status so operators can script remediation differently;
// unknown stages are usage errors; a failed stage surfaces the external
// command's exit code verbatim.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}

	var unknown *pipeline.UnknownStageError
	if errors.As(err, &unknown) {
		return ExitUsage
	}

	var missingTool *prerequisites.MissingToolError
	if errors.As(err, &missingTool) {
		return ExitMissingTool
	}

	var stageErr *pipeline.StageError
	if errors.As(err, &stageErr) {
		return stageErr.ExitCode()
	}

	return ExitFailure
}
