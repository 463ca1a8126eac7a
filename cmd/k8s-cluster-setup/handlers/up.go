// Package handlers implements command execution for the CLI.
//
// Commands in the commands package parse arguments and delegate here.
package handlers

import (
	"context"
	"os"
	"path/filepath"

	"github.com/younes-nb/k8s-cluster-setup/internal/ansible"
	"github.com/younes-nb/k8s-cluster-setup/internal/config"
	"github.com/younes-nb/k8s-cluster-setup/internal/kubeconfig"
	"github.com/younes-nb/k8s-cluster-setup/internal/pipeline"
	"github.com/younes-nb/k8s-cluster-setup/internal/ssh"
	"github.com/younes-nb/k8s-cluster-setup/internal/ui"
	"github.com/younes-nb/k8s-cluster-setup/internal/util/prerequisites"
	"github.com/younes-nb/k8s-cluster-setup/internal/venv"
)

// UpOptions holds the arguments of the default (pipeline) command.
type UpOptions struct {
	// ConfigPath is the cluster.yaml location; empty means auto-detect.
	ConfigPath string

	// StartFrom resumes the pipeline at the named stage; empty runs all.
	StartFrom string

	// RemoteHost switches kubeconfig retrieval to remote-fetch mode,
	// overriding the configured host.
	RemoteHost string
}

// Up runs the provisioning pipeline.
func Up(ctx context.Context, opts UpOptions) error {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return err
	}
	if opts.RemoteHost != "" {
		cfg.Kubeconfig.RemoteHost = opts.RemoteHost
		if err := cfg.Validate(); err != nil {
			return err
		}
	}

	printer := ui.NewPrinter(os.Stdout)

	runner, err := pipeline.NewRunner(buildStages(cfg, printer), printer)
	if err != nil {
		return err
	}

	// Resolve the resume cursor before preflight so an unrecognized stage
	// name fails with zero side effects.
	if _, err := runner.ResolveStart(opts.StartFrom); err != nil {
		return err
	}

	if err := preflight(cfg); err != nil {
		return err
	}

	return runner.Run(ctx, opts.StartFrom)
}

// preflight fails fast on missing tooling or repository layout before any
// stage runs, and prepares the shared scratch directory.
func preflight(cfg *config.Config) error {
	if err := prerequisites.Check(prerequisites.DefaultTools()).Err(); err != nil {
		return err
	}

	required := []string{
		cfg.Abs(cfg.Stages.Preparing),
		cfg.Abs(cfg.Stages.HAProxy),
		cfg.Abs(cfg.Stages.Kubespray),
		cfg.Abs(cfg.Stages.Postcluster),
		cfg.RequirementsPath(),
	}
	if err := prerequisites.Paths(required); err != nil {
		return err
	}

	return prerequisites.EnsureScratchDir(cfg.ControlPathDir)
}

// buildStages wires the fixed registry to this run's configuration.
func buildStages(cfg *config.Config, printer *ui.Printer) []pipeline.Stage {
	runner := &ansible.Runner{
		VaultPasswordFile: cfg.VaultPasswordFile,
		ControlPathDir:    cfg.ControlPathDir,
		SSHArgs:           cfg.SSHArgs,
	}

	playbookStage := func(name, summary string, pb ansible.Playbook) pipeline.Stage {
		pb.Name = name
		return pipeline.Stage{
			Name:    name,
			Summary: summary,
			Run: func(ctx context.Context) error {
				return runner.Run(ctx, pb, nil)
			},
		}
	}

	return []pipeline.Stage{
		playbookStage(pipeline.StagePreparing,
			"Generate the dynamic inventory",
			ansible.Playbook{Dir: cfg.Abs(cfg.Stages.Preparing), File: "site.yml"}),

		playbookStage(pipeline.StageHAProxy,
			"Configure the API server load balancer",
			ansible.Playbook{Dir: cfg.Abs(cfg.Stages.HAProxy), File: "site.yml"}),

		{
			Name:    pipeline.StageKubespray,
			Summary: "Bootstrap the Kubernetes cluster",
			Run: func(ctx context.Context) error {
				return runKubespray(ctx, cfg, runner)
			},
		},

		playbookStage(pipeline.StagePostcluster,
			"Apply post-cluster configuration",
			ansible.Playbook{Dir: cfg.Abs(cfg.Stages.Postcluster), File: "site.yml"}),

		{
			Name:    pipeline.StageKubeconfig,
			Summary: "Retrieve and install the cluster credential",
			Run: func(ctx context.Context) error {
				return retrieveKubeconfig(ctx, cfg, printer)
			},
		},
	}
}

// runKubespray provisions the isolated Python toolchain and invokes the
// kubespray playbook inside it. The venv environment is scoped to this one
// invocation; later stages run with the plain process environment.
func runKubespray(ctx context.Context, cfg *config.Config, runner *ansible.Runner) error {
	mgr := venv.New(cfg.VenvPath(), cfg.RequirementsPath())
	if err := mgr.Ensure(ctx); err != nil {
		return err
	}

	pb := ansible.Playbook{
		Name: pipeline.StageKubespray,
		Dir:  cfg.Abs(cfg.Stages.Kubespray),
		File: "cluster.yml",
		ExtraArgs: []string{
			"-i", filepath.Join("inventory", "mycluster", "hosts.yaml"),
			"--become", "--become-user=root",
		},
	}
	return runner.Run(ctx, pb, mgr.Environ(os.Environ()))
}

// retrieveKubeconfig is the final stage: locate or fetch the admin
// credential, install it with owner-only permissions, and tell the operator
// where it lives.
func retrieveKubeconfig(ctx context.Context, cfg *config.Config, printer *ui.Printer) error {
	dest := cfg.KubeconfigDest()

	var result kubeconfig.Result
	if cfg.Kubeconfig.RemoteHost != "" {
		client, err := ssh.NewClient(&ssh.Config{
			Host:    cfg.Kubeconfig.RemoteHost,
			User:    cfg.Kubeconfig.RemoteUser,
			KeyPath: cfg.Abs(cfg.Kubeconfig.IdentityFile),
		})
		if err != nil {
			return err
		}

		result, err = kubeconfig.FetchRemote(ctx, client, cfg.Kubeconfig.RemotePath, dest)
		if err != nil {
			return err
		}

		if err := kubeconfig.VerifyConnectivity(ctx, result.Path); err != nil {
			printer.Warn("%v", err)
		}
	} else {
		src, err := kubeconfig.FindLocal(cfg.Abs(cfg.Stages.Kubespray))
		if err != nil {
			return err
		}
		result, err = kubeconfig.Install(src, dest)
		if err != nil {
			return err
		}
	}

	printer.Info("Kubeconfig installed at %s", result.Path)
	printer.Info("Run: export KUBECONFIG=%s", result.Path)
	return nil
}
