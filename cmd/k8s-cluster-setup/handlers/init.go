package handlers

import (
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/huh"
	"github.com/mattn/go-isatty"
	"gopkg.in/yaml.v3"

	"github.com/younes-nb/k8s-cluster-setup/internal/config"
)

// InitOptions holds the arguments of the init command.
type InitOptions struct {
	// Path is where the configuration file is written.
	Path string

	// Force overwrites an existing file.
	Force bool
}

// Init interactively writes a cluster.yaml. Defaults are pre-filled so
// accepting every prompt yields the same behavior as running without a
// configuration file.
func Init(ctx context.Context, opts InitOptions) error {
	if !isatty.IsTerminal(os.Stdin.Fd()) && !isatty.IsCygwinTerminal(os.Stdin.Fd()) {
		return fmt.Errorf("init is interactive and requires a terminal; write %s by hand instead", config.DefaultPath)
	}

	path := opts.Path
	if path == "" {
		path = config.DefaultPath
	}
	if _, err := os.Stat(path); err == nil && !opts.Force {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	}

	cfg := config.Default()

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Kubespray directory").
				Description("Checkout containing cluster.yml and requirements.txt").
				Value(&cfg.Stages.Kubespray),
			huh.NewInput().
				Title("Virtualenv directory").
				Description("Isolated Python toolchain for kubespray; reused across runs").
				Value(&cfg.Venv.Path),
			huh.NewInput().
				Title("Remote host for kubeconfig fetch").
				Description("Leave empty to read the kubespray artifact tree instead").
				Value(&cfg.Kubeconfig.RemoteHost),
			huh.NewInput().
				Title("SSH user").
				Value(&cfg.Kubeconfig.RemoteUser),
			huh.NewInput().
				Title("SSH identity file").
				Description("Only used in remote-fetch mode").
				Value(&cfg.Kubeconfig.IdentityFile),
		),
	)
	if err := form.RunWithContext(ctx); err != nil {
		return fmt.Errorf("init aborted: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal configuration: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	fmt.Printf("Wrote %s\n", path)
	return nil
}
