package commands

import (
	"github.com/spf13/cobra"

	"github.com/younes-nb/k8s-cluster-setup/cmd/k8s-cluster-setup/handlers"
)

// Init returns the command that interactively writes a cluster.yaml.
//
// Optional flags:
//
//	--output, -o: Where to write the file (default: cluster.yaml)
//	--force: Overwrite an existing file
func Init() *cobra.Command {
	var (
		output string
		force  bool
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Interactively write a cluster.yaml",
		Long: `Interactively write the pipeline configuration file.

Every prompt is pre-filled with the default used when no configuration file
exists, so accepting everything changes nothing about pipeline behavior.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Init(cmd.Context(), handlers.InitOptions{
				Path:  output,
				Force: force,
			})
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Output path (default: cluster.yaml)")
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing file")

	return cmd
}
