package config

import (
	"errors"
	"fmt"
	"strings"

	"go.uber.org/multierr"

	"github.com/coral-mesh/callprof/internal/logging"
	"github.com/coral-mesh/callprof/pkg/profiler"
)

// Validate checks the config and reports every problem found.
func (c *Config) Validate() error {
	var errs error

	if strings.TrimSpace(c.TargetsFile) == "" {
		errs = multierr.Append(errs, errors.New("targets_file cannot be empty"))
	}
	if _, err := logging.ParseLevel(c.Logging.Level); err != nil {
		errs = multierr.Append(errs, fmt.Errorf("logging.level: %w", err))
	}
	if _, err := profiler.ParseFormat(c.Profiler.ReportFormat); err != nil {
		errs = multierr.Append(errs, fmt.Errorf("profiler.report_format: %w", err))
	}
	errs = multierr.Append(errs, c.Workload.validate())

	return errs
}

func (w WorkloadConfig) validate() error {
	var errs error
	if w.Iterations <= 0 {
		errs = multierr.Append(errs, fmt.Errorf("workload.iterations must be positive, got %d", w.Iterations))
	}
	if w.Interval < 0 {
		errs = multierr.Append(errs, fmt.Errorf("workload.interval cannot be negative, got %s", w.Interval))
	}
	if w.Latency < 0 {
		errs = multierr.Append(errs, fmt.Errorf("workload.latency cannot be negative, got %s", w.Latency))
	}
	if w.FailEvery < 0 {
		errs = multierr.Append(errs, fmt.Errorf("workload.fail_every cannot be negative, got %d", w.FailEvery))
	}
	if w.Clusters <= 0 {
		errs = multierr.Append(errs, fmt.Errorf("workload.clusters must be positive, got %d", w.Clusters))
	}
	return errs
}
