package config

import (
	"time"

	"github.com/coral-mesh/callprof/pkg/profiler"
)

const (
	DefaultTargetsFile        = "targets.txt"
	DefaultLogLevel           = "info"
	DefaultWorkloadIterations = 1
	DefaultWorkloadInterval   = 2 * time.Second
	DefaultWorkloadLatency    = 20 * time.Millisecond
	DefaultClusters           = 3
)

// Default returns a config with sensible defaults.
func Default() *Config {
	return &Config{
		TargetsFile: DefaultTargetsFile,
		Logging: LoggingConfig{
			Level:  DefaultLogLevel,
			Pretty: true,
		},
		Profiler: ProfilerConfig{
			ReportFormat: string(profiler.FormatText),
		},
		Console: ConsoleConfig{
			Prompt: profiler.DefaultPrompt,
		},
		Workload: WorkloadConfig{
			IDs:        []string{"31820734", "31018141", "29401296"},
			Iterations: DefaultWorkloadIterations,
			Interval:   DefaultWorkloadInterval,
			Latency:    DefaultWorkloadLatency,
			Clusters:   DefaultClusters,
		},
	}
}
