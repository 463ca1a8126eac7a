// Package main is the entry point for the k8s-cluster-setup CLI.
//
// k8s-cluster-setup provisions a Kubernetes cluster end to end: inventory
// generation, HAProxy load balancer setup, Kubespray bootstrap inside an
// isolated Python toolchain, post-cluster configuration, and kubeconfig
// retrieval. Each stage is an external playbook; the tool is the resumable,
// fail-fast orchestrator around them.
//
// For detailed usage information, run:
//
//	k8s-cluster-setup --help
package main

import (
	"errors"
	"os"

	"github.com/younes-nb/k8s-cluster-setup/cmd/k8s-cluster-setup/commands"
	"github.com/younes-nb/k8s-cluster-setup/cmd/k8s-cluster-setup/handlers"
	"github.com/younes-nb/k8s-cluster-setup/internal/pipeline"
	"github.com/younes-nb/k8s-cluster-setup/internal/ui"
)

// Version information set by goreleaser at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	commands.SetVersionInfo(version, commit, date)

	root := commands.Root()
	if err := root.Execute(); err != nil {
		printer := ui.NewPrinter(os.Stderr)
		printer.Error(err)

		var unknown *pipeline.UnknownStageError
		if errors.As(err, &unknown) {
			_ = root.Usage()
		}

		os.Exit(handlers.ExitCode(err))
	}
}
