package config

import "time"

// FileName is the configuration file looked up when no path is given.
const FileName = "callprof.yaml"

// Config is the callprof configuration.
type Config struct {
	// TargetsFile lists one "scope.symbol" reference per line.
	TargetsFile string         `yaml:"targets_file" env:"CALLPROF_TARGETS"`
	Logging     LoggingConfig  `yaml:"logging"`
	Profiler    ProfilerConfig `yaml:"profiler"`
	Console     ConsoleConfig  `yaml:"console"`
	Workload    WorkloadConfig `yaml:"workload"`
}

// LoggingConfig controls the zerolog logger.
type LoggingConfig struct {
	Level  string `yaml:"level" env:"CALLPROF_LOG_LEVEL"`
	Pretty bool   `yaml:"pretty" env:"CALLPROF_LOG_PRETTY"`
}

// ProfilerConfig controls measurement and reporting.
type ProfilerConfig struct {
	// CountFailures also records calls that return an error or panic.
	CountFailures bool `yaml:"count_failures" env:"CALLPROF_COUNT_FAILURES"`
	// ReportFormat is one of text, json or csv.
	ReportFormat string `yaml:"report_format" env:"CALLPROF_REPORT_FORMAT"`
	// AutoStart enables the profiler before the workload starts.
	AutoStart bool `yaml:"auto_start" env:"CALLPROF_AUTO_START"`
}

// ConsoleConfig controls the operator console.
type ConsoleConfig struct {
	Prompt      string `yaml:"prompt"`
	HistoryFile string `yaml:"history_file" env:"CALLPROF_HISTORY"`
}

// WorkloadConfig drives the demo workload.
type WorkloadConfig struct {
	IDs        []string      `yaml:"ids" env:"CALLPROF_WORKLOAD_IDS"`
	Iterations int           `yaml:"iterations" env:"CALLPROF_WORKLOAD_ITERATIONS"`
	Interval   time.Duration `yaml:"interval" env:"CALLPROF_WORKLOAD_INTERVAL"`
	Latency    time.Duration `yaml:"latency" env:"CALLPROF_WORKLOAD_LATENCY"`
	Clusters   int           `yaml:"clusters"`
	// FailEvery makes every n-th record service request fail transiently.
	// Zero disables failures.
	FailEvery int `yaml:"fail_every" env:"CALLPROF_WORKLOAD_FAIL_EVERY"`
}
