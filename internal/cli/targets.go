package cli

import (
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/multierr"

	"github.com/coral-mesh/callprof/internal/logging"
	"github.com/coral-mesh/callprof/internal/workload"
	"github.com/coral-mesh/callprof/pkg/profiler"
)

type symbolLister interface {
	Symbols() []string
}

func newTargetsCmd(flags *Flags) *cobra.Command {
	var available bool

	cmd := &cobra.Command{
		Use:   "targets [file]",
		Short: "Check which references in a targets file resolve",
		Long: `Resolves every "scope.symbol" reference in the targets file against the
demo workload and reports the ones that cannot be profiled.

Use --available to list every profilable reference instead.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.Load()
			if err != nil {
				return err
			}
			if len(args) == 1 {
				cfg.TargetsFile = args[0]
			}

			logger := logging.New(logging.Config{
				Level:  cfg.Logging.Level,
				Pretty: cfg.Logging.Pretty,
				Output: cmd.ErrOrStderr(),
			})
			catalog := workload.New(workload.Options{Logger: logger}).Catalog()

			if available {
				return printAvailable(cmd, catalog)
			}

			targets, err := profiler.NewResolver(catalog, logger).Load(cfg.TargetsFile)
			if errors.Is(err, profiler.ErrConfigUnreadable) && len(targets) == 0 {
				return err
			}
			return printTargets(cmd, targets, err)
		},
	}

	cmd.Flags().BoolVar(&available, "available", false, "List every profilable reference")

	return cmd
}

// nolint: errcheck
func printTargets(cmd *cobra.Command, targets []*profiler.Callable, loadErr error) error {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TARGET\tSTATUS")
	for _, t := range targets {
		fmt.Fprintf(w, "%s\tok\n", t.QualifiedName())
	}
	if err := w.Flush(); err != nil {
		return err
	}

	errs := multierr.Errors(loadErr)
	if len(errs) == 0 {
		return nil
	}

	out := cmd.ErrOrStderr()
	fmt.Fprintf(out, "\n%d reference(s) skipped:\n", len(errs))
	for _, e := range errs {
		fmt.Fprintf(out, "  %v\n", e)
	}
	return fmt.Errorf("%d of %d references unresolved", len(errs), len(errs)+len(targets))
}

// nolint: errcheck
func printAvailable(cmd *cobra.Command, catalog *profiler.Catalog) error {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SCOPE\tSYMBOLS")
	for _, name := range catalog.Names() {
		ns, _ := catalog.Namespace(name)
		lister, ok := ns.(symbolLister)
		if !ok {
			continue
		}
		refs := make([]string, 0)
		for _, sym := range lister.Symbols() {
			refs = append(refs, name+profiler.Separator+sym)
		}
		fmt.Fprintf(w, "%s\t%s\n", name, strings.Join(refs, ", "))
	}
	return w.Flush()
}
