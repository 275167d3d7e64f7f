package cli

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/multierr"

	"github.com/coral-mesh/callprof/internal/config"
	cerrors "github.com/coral-mesh/callprof/internal/errors"
	"github.com/coral-mesh/callprof/internal/logging"
	"github.com/coral-mesh/callprof/internal/workload"
	"github.com/coral-mesh/callprof/pkg/profiler"
)

func newRunCmd(flags *Flags) *cobra.Command {
	var annotate bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the demo workload with the profiler console attached",
		Long: `Runs the demo pipeline (record lookups, TF-IDF vectorisation and
k-means clustering) while the profiler console reads operator commands.

Profilable targets:
  geo.FetchLinks        geo.FetchMetadata
  analysis.Vectorize    analysis.Cluster

The console stays open after the workload finishes until input ends
(Ctrl+D) or the run is interrupted (Ctrl+C at the prompt or SIGINT).

Examples:
  # Profile the targets listed in targets.txt
  callprof run --targets targets.txt

  # Start profiling immediately and report as JSON
  CALLPROF_AUTO_START=true callprof run -f json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.Load()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return runProfiled(ctx, cmd, cfg, annotate)
		},
	}

	cmd.Flags().BoolVar(&annotate, "annotate-cluster", false, "Profile analysis.Cluster whenever profiling is enabled, listed or not")

	return cmd
}

func runProfiled(ctx context.Context, cmd *cobra.Command, cfg *config.Config, annotate bool) error {
	logCfg := logging.Config{
		Level:  cfg.Logging.Level,
		Pretty: cfg.Logging.Pretty,
		Output: cmd.ErrOrStderr(),
	}
	logger := logging.New(logCfg)
	runLogger := logging.NewWithComponent(logCfg, "run")

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	format, err := profiler.ParseFormat(cfg.Profiler.ReportFormat)
	if err != nil {
		return err
	}

	pipeline := workload.New(workload.Options{
		IDs:       cfg.Workload.IDs,
		Clusters:  cfg.Workload.Clusters,
		Latency:   cfg.Workload.Latency,
		FailEvery: cfg.Workload.FailEvery,
		Logger:    logger,
	})

	prof := profiler.New(profiler.Config{
		Logger:        logger,
		CountFailures: cfg.Profiler.CountFailures,
	})
	defer cerrors.DeferClose(runLogger, prof, "Failed to restore profiled functions")

	if annotate {
		pipeline.Annotate(prof)
	}

	// Unresolved references are logged by the resolver; the rest are used.
	targets, _ := profiler.NewResolver(pipeline.Catalog(), logger).Load(cfg.TargetsFile)

	reader, closer, err := newLineReader(cmd.InOrStdin(), cfg.Console, func() {
		runLogger.Info().Msg("Interrupted at the console prompt")
		cancel()
	})
	if err != nil {
		return err
	}
	if closer != nil {
		defer cerrors.DeferClose(runLogger, closer, "Failed to close console")
	}

	console := profiler.NewConsole(reader, cmd.OutOrStdout())
	if cfg.Console.Prompt != "" {
		console.SetPrompt(cfg.Console.Prompt)
	}

	if cfg.Profiler.AutoStart {
		for _, e := range multierr.Errors(prof.Enable(targets)) {
			console.Printf("warning: %v\n", e)
		}
	}

	done, _ := prof.StartCommandLoop(ctx, console, targets, format)

	err = pipeline.Loop(ctx, cfg.Workload.Iterations, cfg.Workload.Interval)
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	runLogger.Info().Msg("Workload finished, profiler console still accepts commands")

	select {
	case <-ctx.Done():
	case <-done:
	}
	return nil
}
