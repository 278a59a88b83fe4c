package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config represents the dittoacl configuration.
//
// Configuration sources (in order of precedence):
//  1. CLI flags (highest priority)
//  2. Environment variables (DITTOACL_*)
//  3. Configuration file (YAML)
//  4. Default values (lowest priority)
type Config struct {
	// Logging controls log output behavior
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`

	// Telemetry controls OpenTelemetry distributed tracing
	Telemetry TelemetryConfig `mapstructure:"telemetry" yaml:"telemetry"`

	// ShutdownTimeout is the maximum time to wait for graceful shutdown
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"required,gt=0" yaml:"shutdown_timeout"`

	// Metrics contains Prometheus metrics server configuration
	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics"`

	// API contains REST API server configuration
	API APIConfig `mapstructure:"api" yaml:"api"`

	// Filesystem configures the managed namespace and how ACLs are applied
	Filesystem FilesystemConfig `mapstructure:"filesystem" yaml:"filesystem"`

	// Pools configures where the list of protected pool roots comes from
	Pools PoolsConfig `mapstructure:"pools" yaml:"pools"`

	// Directory configures identity resolution and domain state
	Directory DirectoryConfig `mapstructure:"directory" yaml:"directory"`

	// Jobs configures job records and the permission lock
	Jobs JobsConfig `mapstructure:"jobs" yaml:"jobs"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	// Level is the minimum log level to output
	// Valid values: DEBUG, INFO, WARN, ERROR (case-insensitive, normalized to uppercase)
	Level string `mapstructure:"level" validate:"required,oneof=DEBUG INFO WARN ERROR debug info warn error" yaml:"level"`

	// Format specifies the log output format
	// Valid values: text, json
	Format string `mapstructure:"format" validate:"required,oneof=text json" yaml:"format"`

	// Output specifies where logs are written
	// Valid values: stdout, stderr, or a file path
	Output string `mapstructure:"output" validate:"required" yaml:"output"`
}

// TelemetryConfig controls OpenTelemetry distributed tracing.
type TelemetryConfig struct {
	// Enabled controls whether distributed tracing is enabled
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Endpoint is the OTLP collector endpoint (host:port)
	// Default: "localhost:4317"
	Endpoint string `mapstructure:"endpoint" yaml:"endpoint"`

	// Insecure controls whether to use insecure (non-TLS) connection
	Insecure bool `mapstructure:"insecure" yaml:"insecure"`

	// SampleRate controls the trace sampling rate (0.0 to 1.0)
	SampleRate float64 `mapstructure:"sample_rate" validate:"omitempty,gte=0,lte=1" yaml:"sample_rate"`

	// Profiling contains Pyroscope continuous profiling configuration
	Profiling ProfilingConfig `mapstructure:"profiling" yaml:"profiling"`
}

// ProfilingConfig controls Pyroscope continuous profiling.
type ProfilingConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Endpoint is the Pyroscope server endpoint (URL)
	// Default: "http://localhost:4040"
	Endpoint string `mapstructure:"endpoint" yaml:"endpoint"`

	// ProfileTypes specifies which profile types to collect
	ProfileTypes []string `mapstructure:"profile_types" yaml:"profile_types"`
}

// MetricsConfig configures the Prometheus metrics HTTP server.
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Port is the HTTP port for the metrics endpoint
	// Default: 9090
	Port int `mapstructure:"port" validate:"omitempty,min=1,max=65535" yaml:"port"`
}

// APIConfig configures the REST API server.
type APIConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Port is the HTTP port of the API
	// Default: 8080
	Port int `mapstructure:"port" validate:"omitempty,min=1,max=65535" yaml:"port"`

	ReadTimeout  time.Duration `mapstructure:"read_timeout" yaml:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout" yaml:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout" yaml:"idle_timeout"`

	// JWT configures bearer token authentication. Requests are not
	// authenticated when the secret is empty.
	JWT JWTConfig `mapstructure:"jwt" yaml:"jwt"`
}

// JWTConfig configures bearer token verification.
type JWTConfig struct {
	// Secret is the HMAC signing key. Must be at least 32 characters.
	// Override: DITTOACL_API_JWT_SECRET
	Secret string `mapstructure:"secret" validate:"omitempty,min=32" yaml:"secret,omitempty"`

	// Issuer is the expected iss claim
	// Default: "dittoacl"
	Issuer string `mapstructure:"issuer" yaml:"issuer"`

	// TokenTTL is the lifetime of tokens issued by `dfsacl token`
	// Default: 1h
	TokenTTL time.Duration `mapstructure:"token_ttl" yaml:"token_ttl"`
}

// FilesystemConfig configures the managed namespace and the apply backend.
type FilesystemConfig struct {
	// Root is the managed namespace. Only paths strictly below it may be changed.
	// Default: /mnt
	Root string `mapstructure:"root" validate:"required" yaml:"root"`

	// Backend selects how ACLs are read and written.
	// Valid values: xattr, memory
	Backend string `mapstructure:"backend" validate:"required,oneof=xattr memory" yaml:"backend"`

	// XattrName is the extended attribute holding the NFSv4 ACL
	// Default: system.nfs4_acl_xdr
	XattrName string `mapstructure:"xattr_name" yaml:"xattr_name"`

	// Helper is the recursive apply helper binary
	// Default: /usr/local/bin/winacl
	Helper string `mapstructure:"helper" validate:"required" yaml:"helper"`

	// HelperTimeout bounds a single helper run. Zero means no limit.
	HelperTimeout time.Duration `mapstructure:"helper_timeout" validate:"gte=0" yaml:"helper_timeout"`
}

// PoolsConfig configures the pool lister.
type PoolsConfig struct {
	// Source selects the pool lister.
	// Valid values: static, zpool
	Source string `mapstructure:"source" validate:"required,oneof=static zpool" yaml:"source"`

	// Paths lists pool mount points when Source is static
	Paths []string `mapstructure:"paths" yaml:"paths"`

	// ZpoolBinary is the zpool command used when Source is zpool
	ZpoolBinary string `mapstructure:"zpool_binary" yaml:"zpool_binary"`
}

// DirectoryConfig configures identity resolution and domain state.
type DirectoryConfig struct {
	// AdminGroup, when set, is granted full control in default ACLs
	AdminGroup string `mapstructure:"admin_group" yaml:"admin_group"`

	// DomainSource selects how the directory service state is obtained.
	// Valid values: static, winbind
	DomainSource string `mapstructure:"domain_source" validate:"required,oneof=static winbind" yaml:"domain_source"`

	// DomainState is the reported state when DomainSource is static.
	// Valid values: DISABLED, HEALTHY, FAULTED (empty means DISABLED)
	DomainState string `mapstructure:"domain_state" validate:"omitempty,oneof=DISABLED HEALTHY FAULTED disabled healthy faulted" yaml:"domain_state"`

	// WbinfoBinary is the wbinfo command used when DomainSource is winbind
	WbinfoBinary string `mapstructure:"wbinfo_binary" yaml:"wbinfo_binary"`
}

// JobsConfig configures job tracking and the permission lock.
type JobsConfig struct {
	// Store selects the job store.
	// Valid values: memory, badger
	Store string `mapstructure:"store" validate:"required,oneof=memory badger" yaml:"store"`

	// BadgerPath is the database directory when Store is badger
	BadgerPath string `mapstructure:"badger_path" yaml:"badger_path"`

	// LockDir holds cross-process lock files. Empty locks within the process only.
	LockDir string `mapstructure:"lock_dir" yaml:"lock_dir"`

	// Retention is how long finished jobs are kept. Zero keeps them forever.
	Retention time.Duration `mapstructure:"retention" validate:"gte=0" yaml:"retention"`
}

// Load loads configuration from file, environment, and defaults.
//
// Configuration precedence (highest to lowest):
//  1. Environment variables (DITTOACL_*)
//  2. Configuration file
//  3. Default values
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setupViper(v, configPath)
	bindDefaults(v, GetDefaultConfig())

	if _, err := readConfigFile(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, viper.DecodeHook(configDecodeHooks())); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// MustLoad loads configuration with helpful error messages when the file is
// missing.
func MustLoad(configPath string) (*Config, error) {
	if configPath == "" {
		if !DefaultConfigExists() {
			return nil, fmt.Errorf("no configuration file found at default location: %s\n\n"+
				"Please initialize a configuration file first:\n"+
				"  dfsacl config init\n\n"+
				"Or specify a custom config file:\n"+
				"  dfsacl <command> --config /path/to/config.yaml",
				GetDefaultConfigPath())
		}
		configPath = GetDefaultConfigPath()
	} else if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("configuration file not found: %s\n\n"+
			"Please create the configuration file:\n"+
			"  dfsacl config init --config %s",
			configPath, configPath)
	}

	cfg, err := Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, nil
}

// SaveConfig saves the configuration to the specified file path in YAML.
func SaveConfig(cfg *Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	return writeConfigFile(path, data)
}

func writeConfigFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	// 0600: the file may hold the JWT secret.
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// setupViper configures viper with environment variables and config file settings.
func setupViper(v *viper.Viper, configPath string) {
	// Example: DITTOACL_LOGGING_LEVEL=DEBUG
	v.SetEnvPrefix("DITTOACL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.AddConfigPath(getConfigDir())
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
}

// bindDefaults registers every leaf of cfg as a viper default. Viper only
// consults the environment for keys it knows, so this also makes every key
// overridable through DITTOACL_* variables.
func bindDefaults(v *viper.Viper, cfg *Config) {
	var raw map[string]any
	if err := mapstructure.Decode(cfg, &raw); err != nil {
		return
	}
	setDefaults(v, "", raw)
}

func setDefaults(v *viper.Viper, prefix string, m map[string]any) {
	for k, val := range m {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		if nested, ok := val.(map[string]any); ok {
			setDefaults(v, key, nested)
			continue
		}
		v.SetDefault(key, val)
	}
}

// readConfigFile reads the configuration file if it exists.
// Returns (fileFound, error) where fileFound indicates if a config file was found.
func readConfigFile(v *viper.Viper) (bool, error) {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return false, nil
		}
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to read config file: %w", err)
	}
	return true, nil
}

// configDecodeHooks returns a combined decode hook for all custom types.
func configDecodeHooks() mapstructure.DecodeHookFunc {
	return mapstructure.ComposeDecodeHookFunc(
		durationDecodeHook(),
		mapstructure.StringToSliceHookFunc(","),
	)
}

// durationDecodeHook returns a mapstructure decode hook that converts strings
// to time.Duration. This enables config files to use human-readable durations
// like "30s", "5m", "1h".
func durationDecodeHook() mapstructure.DecodeHookFunc {
	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != reflect.TypeOf(time.Duration(0)) {
			return data, nil
		}

		switch v := data.(type) {
		case string:
			return time.ParseDuration(v)
		case int:
			// Assume nanoseconds for raw integers
			return time.Duration(v), nil
		case int64:
			return time.Duration(v), nil
		case float64:
			// YAML often deserializes numbers as float64
			return time.Duration(v), nil
		default:
			return data, nil
		}
	}
}

// getConfigDir returns the configuration directory path.
//
// Uses XDG_CONFIG_HOME if set, otherwise ~/.config, or falls back to current
// directory (.) if home directory cannot be determined.
func getConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "dittoacl")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}

	return filepath.Join(home, ".config", "dittoacl")
}

// GetDefaultConfigPath returns the default configuration file path.
func GetDefaultConfigPath() string {
	return filepath.Join(getConfigDir(), "config.yaml")
}

// DefaultConfigExists checks if a config file exists at the default location.
func DefaultConfigExists() bool {
	_, err := os.Stat(GetDefaultConfigPath())
	return err == nil
}

// GetConfigDir returns the configuration directory path.
func GetConfigDir() string {
	return getConfigDir()
}
