package config

import (
	"strings"
	"time"

	"github.com/marmos91/dittoacl/internal/telemetry"
	"github.com/marmos91/dittoacl/pkg/filesystem/guard"
	"github.com/marmos91/dittoacl/pkg/filesystem/propagate"
)

// ApplyDefaults sets default values for any unspecified configuration fields.
//
// Zero values (0, "", false, nil) are replaced with defaults; explicit values
// are preserved.
func ApplyDefaults(cfg *Config) {
	applyLoggingDefaults(&cfg.Logging)
	applyTelemetryDefaults(&cfg.Telemetry)
	applyShutdownTimeoutDefaults(cfg)
	applyMetricsDefaults(&cfg.Metrics)
	applyAPIDefaults(&cfg.API)
	applyFilesystemDefaults(&cfg.Filesystem)
	applyPoolsDefaults(&cfg.Pools)
	applyDirectoryDefaults(&cfg.Directory)
	applyJobsDefaults(&cfg.Jobs)
}

// applyLoggingDefaults sets logging defaults and normalizes values.
func applyLoggingDefaults(cfg *LoggingConfig) {
	if cfg.Level == "" {
		cfg.Level = "INFO"
	}
	cfg.Level = strings.ToUpper(cfg.Level)

	if cfg.Format == "" {
		cfg.Format = "text"
	}
	if cfg.Output == "" {
		cfg.Output = "stderr"
	}
}

// applyTelemetryDefaults sets OpenTelemetry defaults.
func applyTelemetryDefaults(cfg *TelemetryConfig) {
	def := telemetry.DefaultConfig()
	if cfg.Endpoint == "" {
		cfg.Endpoint = def.Endpoint
	}
	if cfg.SampleRate == 0 {
		cfg.SampleRate = def.SampleRate
	}
	applyProfilingDefaults(&cfg.Profiling)
}

// applyProfilingDefaults sets Pyroscope profiling defaults.
func applyProfilingDefaults(cfg *ProfilingConfig) {
	def := telemetry.DefaultProfilingConfig()
	if cfg.Endpoint == "" {
		cfg.Endpoint = def.Endpoint
	}
	if len(cfg.ProfileTypes) == 0 {
		cfg.ProfileTypes = def.ProfileTypes
	}
}

func applyShutdownTimeoutDefaults(cfg *Config) {
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 30 * time.Second
	}
}

// applyMetricsDefaults sets the port only when metrics are enabled.
func applyMetricsDefaults(cfg *MetricsConfig) {
	if cfg.Enabled && cfg.Port == 0 {
		cfg.Port = 9090
	}
}

func applyAPIDefaults(cfg *APIConfig) {
	if cfg.Port == 0 {
		cfg.Port = 8080
	}
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = 10 * time.Second
	}
	// Recursive changes run as background jobs, so writes stay short.
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = 30 * time.Second
	}
	if cfg.IdleTimeout == 0 {
		cfg.IdleTimeout = 60 * time.Second
	}
	if cfg.JWT.Issuer == "" {
		cfg.JWT.Issuer = "dittoacl"
	}
	if cfg.JWT.TokenTTL == 0 {
		cfg.JWT.TokenTTL = time.Hour
	}
}

func applyFilesystemDefaults(cfg *FilesystemConfig) {
	if cfg.Root == "" {
		cfg.Root = guard.DefaultRoot
	}
	if cfg.Backend == "" {
		cfg.Backend = "xattr"
	}
	if cfg.XattrName == "" {
		cfg.XattrName = "system.nfs4_acl_xdr"
	}
	if cfg.Helper == "" {
		cfg.Helper = propagate.DefaultHelper
	}
}

func applyPoolsDefaults(cfg *PoolsConfig) {
	if cfg.Source == "" {
		cfg.Source = "zpool"
	}
	if cfg.ZpoolBinary == "" {
		cfg.ZpoolBinary = "zpool"
	}
}

func applyDirectoryDefaults(cfg *DirectoryConfig) {
	if cfg.DomainSource == "" {
		cfg.DomainSource = "static"
	}
	cfg.DomainState = strings.ToUpper(cfg.DomainState)
	if cfg.WbinfoBinary == "" {
		cfg.WbinfoBinary = "wbinfo"
	}
}

func applyJobsDefaults(cfg *JobsConfig) {
	if cfg.Store == "" {
		cfg.Store = "memory"
	}
	if cfg.Store == "badger" && cfg.BadgerPath == "" {
		cfg.BadgerPath = "/var/lib/dittoacl/jobs"
	}
	if cfg.Retention == 0 {
		cfg.Retention = 24 * time.Hour
	}
}

// GetDefaultConfig returns a Config struct with all default values applied.
func GetDefaultConfig() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}
