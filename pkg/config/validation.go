package config

import (
	"fmt"
	"path/filepath"

	"github.com/go-playground/validator/v10"

	"github.com/marmos91/dittoacl/internal/telemetry"
)

// validate is the singleton validator instance
var validate *validator.Validate

func init() {
	validate = validator.New()
}

// Validate validates the configuration using struct tags and custom rules.
//
// Log level normalization is handled in ApplyDefaults, not here.
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return formatValidationError(err)
	}
	return validateCustomRules(cfg)
}

// validateCustomRules performs validation that cannot be expressed in tags.
func validateCustomRules(cfg *Config) error {
	if !filepath.IsAbs(cfg.Filesystem.Root) {
		return fmt.Errorf("filesystem.root: must be an absolute path, got %q", cfg.Filesystem.Root)
	}
	if filepath.Clean(cfg.Filesystem.Root) == "/" {
		return fmt.Errorf("filesystem.root: refusing to manage the whole filesystem")
	}

	if cfg.Pools.Source == "static" {
		seen := make(map[string]bool)
		for i, p := range cfg.Pools.Paths {
			if !filepath.IsAbs(p) {
				return fmt.Errorf("pools.paths[%d]: must be an absolute path, got %q", i, p)
			}
			clean := filepath.Clean(p)
			if seen[clean] {
				return fmt.Errorf("pools.paths[%d]: duplicate pool path %q", i, p)
			}
			seen[clean] = true
		}
	}

	if err := telemetry.ValidateProfileTypes(cfg.Telemetry.Profiling.ProfileTypes); err != nil {
		return fmt.Errorf("telemetry.profiling.profile_types: %w", err)
	}

	if cfg.Jobs.Store == "badger" && cfg.Jobs.BadgerPath == "" {
		return fmt.Errorf("jobs.badger_path: required when jobs.store is badger")
	}

	if cfg.API.Enabled && cfg.Metrics.Enabled && cfg.API.Port == cfg.Metrics.Port {
		return fmt.Errorf("metrics.port: conflicts with api.port %d", cfg.API.Port)
	}

	return nil
}

// formatValidationError converts validator errors into user-friendly messages.
func formatValidationError(err error) error {
	if validationErrs, ok := err.(validator.ValidationErrors); ok {
		if len(validationErrs) > 0 {
			e := validationErrs[0]
			return fmt.Errorf("%s: validation failed on '%s' tag (value: %v)",
				e.Namespace(), e.Tag(), e.Value())
		}
	}
	return err
}
