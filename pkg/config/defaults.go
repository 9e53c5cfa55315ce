package config

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/marmos91/artifactguard/internal/bytesize"
)

// ApplyDefaults fills zero-valued fields with defaults. Explicit values are
// preserved.
func ApplyDefaults(cfg *Config) {
	applyLoggingDefaults(&cfg.Logging)
	applyTelemetryDefaults(&cfg.Telemetry)
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 30 * time.Second
	}
	applyMonitorDefaults(&cfg.Monitor)
	applyMetricsDefaults(&cfg.Metrics)

	cfg.Catalog.ApplyDefaults(GetStateDir())
	cfg.Artifacts.ApplyDefaults()
	if cfg.Artifacts.Filesystem.Root == "" {
		cfg.Artifacts.Filesystem.Root = filepath.Join(GetStateDir(), "artifacts")
	}
	cfg.API.ApplyDefaults()
}

func applyLoggingDefaults(cfg *LoggingConfig) {
	if cfg.Level == "" {
		cfg.Level = "INFO"
	}
	cfg.Level = strings.ToUpper(cfg.Level)

	if cfg.Format == "" {
		cfg.Format = "text"
	}
	if cfg.Output == "" {
		cfg.Output = "stdout"
	}
}

func applyTelemetryDefaults(cfg *TelemetryConfig) {
	if cfg.Endpoint == "" {
		cfg.Endpoint = "localhost:4317"
	}
	if cfg.SampleRate == 0 {
		cfg.SampleRate = 1.0
	}

	if cfg.Profiling.Endpoint == "" {
		cfg.Profiling.Endpoint = "http://localhost:4040"
	}
	if len(cfg.Profiling.ProfileTypes) == 0 {
		cfg.Profiling.ProfileTypes = []string{"cpu", "alloc_space", "inuse_space", "goroutines"}
	}
}

func applyMonitorDefaults(cfg *MonitorConfig) {
	if cfg.Interval == 0 {
		cfg.Interval = time.Minute
	}
}

func applyMetricsDefaults(cfg *MetricsConfig) {
	if cfg.Enabled && cfg.Port == 0 {
		cfg.Port = 9090
	}
}

// MonitorPath returns the directory whose filesystem the monitor measures.
func (c *Config) MonitorPath() string {
	if c.Monitor.Path != "" {
		return c.Monitor.Path
	}
	return c.Artifacts.Filesystem.Root
}

// GetDefaultConfig returns a Config with all defaults applied. Purging is
// enabled with a 10GiB start and 20GiB target, and the API is served.
func GetDefaultConfig() *Config {
	cfg := &Config{
		Purge: PurgeConfig{
			Enabled:         true,
			StartThreshold:  10 * bytesize.GiB,
			TargetThreshold: 20 * bytesize.GiB,
		},
	}
	cfg.API.Enabled = true

	ApplyDefaults(cfg)
	return cfg
}
