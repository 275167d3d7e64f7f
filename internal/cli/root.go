// Package cli implements the callprof command line.
package cli

import (
	"github.com/spf13/cobra"

	cerrors "github.com/coral-mesh/callprof/internal/errors"
	"github.com/coral-mesh/callprof/pkg/version"
)

// NewRootCmd creates the callprof root command.
func NewRootCmd() *cobra.Command {
	flags := &Flags{}

	cmd := &cobra.Command{
		Use:   "callprof",
		Short: "callprof - live, opt-in call profiling",
		Long: `Profile named functions of a running program on demand.

Functions are listed as "scope.symbol" references in a targets file.
While profiling is enabled every call through a listed function is timed
and counted; disabling restores the original functions.

Operator commands (typed at the profiler prompt):
  start    - Enable profiling for the listed targets (clears results)
  stop     - Disable profiling and print the results
  results  - Print the results collected so far`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags.AddFlags(cmd.PersistentFlags())
	cerrors.Must(cmd.MarkPersistentFlagFilename("config", "yaml", "yml"), "mark config flag")
	cerrors.Must(cmd.MarkPersistentFlagFilename("targets", "txt"), "mark targets flag")

	cmd.AddCommand(newRunCmd(flags))
	cmd.AddCommand(newTargetsCmd(flags))
	cmd.AddCommand(newConfigCmd(flags))
	cmd.AddCommand(newVersionCmd())

	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Printf("callprof version %s\n", version.Version)
			cmd.Printf("Git commit: %s\n", version.GitCommit)
			cmd.Printf("Build date: %s\n", version.BuildDate)
			cmd.Printf("Go version: %s\n", version.GoVersion)
		},
	}
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}
