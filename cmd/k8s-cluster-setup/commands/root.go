// Package commands defines the CLI command structure and flag bindings.
//
// This package contains cobra command definitions that handle argument
// parsing, flag binding, and validation. Command execution is delegated to
// handler functions in the handlers package.
package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/younes-nb/k8s-cluster-setup/cmd/k8s-cluster-setup/handlers"
	"github.com/younes-nb/k8s-cluster-setup/internal/pipeline"
)

// Root returns the root command for the k8s-cluster-setup CLI.
//
// Running it with no arguments executes every stage in order. A stage name,
// either positional or via --start-from, resumes the pipeline there.
func Root() *cobra.Command {
	var (
		configPath string
		startFrom  string
		remoteHost string
	)

	cmd := &cobra.Command{
		Use:   "k8s-cluster-setup [stage]",
		Short: "Provision a Kubernetes cluster with HAProxy and Kubespray",
		Long: fmt.Sprintf(`Provision a Kubernetes cluster end to end.

The pipeline runs these stages in order:

  %s   generate the dynamic inventory
  %s     configure the API server load balancer
  %s   bootstrap the cluster (inside an isolated Python toolchain)
  %s set up post-cluster configuration
  %s  retrieve and install the admin kubeconfig

Every stage is idempotent. After a failure, fix the cause and resume with
the failed stage's name; earlier stages are skipped, later ones always run.

Examples:
  # Run everything
  k8s-cluster-setup

  # Resume after a failed cluster bootstrap
  k8s-cluster-setup kubespray

  # Same, spelled explicitly
  k8s-cluster-setup --start-from kubespray

  # Fetch the kubeconfig over SSH instead of the artifact tree
  k8s-cluster-setup kubeconfig --remote-host cp1.example.com`,
			pipeline.StagePreparing, pipeline.StageHAProxy, pipeline.StageKubespray,
			pipeline.StagePostcluster, pipeline.StageKubeconfig),
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				if startFrom != "" {
					return fmt.Errorf("specify the start stage once: either positionally or with --start-from")
				}
				startFrom = args[0]
			}
			return handlers.Up(cmd.Context(), handlers.UpOptions{
				ConfigPath: configPath,
				StartFrom:  startFrom,
				RemoteHost: remoteHost,
			})
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to configuration file (default: cluster.yaml)")
	cmd.Flags().StringVar(&startFrom, "start-from", "", "Resume the pipeline at the named stage")
	cmd.Flags().StringVar(&remoteHost, "remote-host", "", "Fetch the kubeconfig over SSH from this host")

	cmd.AddCommand(Init())
	cmd.AddCommand(Version())
	cmd.AddCommand(Completion())

	return cmd
}
