package cli

import (
	"github.com/spf13/cobra"

	"github.com/coral-mesh/callprof/internal/config"
)

func newConfigCmd(flags *Flags) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		Long: `Prints the configuration after the config file, CALLPROF_* environment
variables and command line flags have been applied.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.Load()
			if err != nil {
				return err
			}
			return config.Write(cmd.OutOrStdout(), cfg)
		},
	}
}
