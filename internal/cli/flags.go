package cli

import (
	"github.com/spf13/pflag"

	"github.com/coral-mesh/callprof/internal/config"
)

// Flags holds the flags shared by every command.
// Flags that are set override the config file and the environment.
type Flags struct {
	ConfigPath    string
	TargetsFile   string
	LogLevel      string
	ReportFormat  string
	CountFailures bool

	fs *pflag.FlagSet
}

// AddFlags registers the shared flags on fs.
func (f *Flags) AddFlags(fs *pflag.FlagSet) {
	f.fs = fs
	fs.StringVarP(&f.ConfigPath, "config", "c", "", "Config file (default ./"+config.FileName+")")
	fs.StringVarP(&f.TargetsFile, "targets", "t", "", "Targets file listing scope.symbol references")
	fs.StringVar(&f.LogLevel, "log-level", "", "Log level (trace, debug, info, warn, error, disabled)")
	fs.StringVarP(&f.ReportFormat, "format", "f", "", "Report format (text, json, csv)")
	fs.BoolVar(&f.CountFailures, "count-failures", false, "Also count calls that fail or panic")
}

// Load reads the config, applies the flags that were set and validates
// the merged result.
func (f *Flags) Load() (*config.Config, error) {
	cfg, err := config.Read(f.ConfigPath)
	if err != nil {
		return nil, err
	}

	if f.changed("targets") {
		cfg.TargetsFile = f.TargetsFile
	}
	if f.changed("log-level") {
		cfg.Logging.Level = f.LogLevel
	}
	if f.changed("format") {
		cfg.Profiler.ReportFormat = f.ReportFormat
	}
	if f.changed("count-failures") {
		cfg.Profiler.CountFailures = f.CountFailures
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (f *Flags) changed(name string) bool {
	return f.fs != nil && f.fs.Changed(name)
}
