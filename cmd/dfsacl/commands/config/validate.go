package config

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marmos91/dittoacl/pkg/config"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration file",
	Long: `Validate the dittoacl configuration file.

Checks for syntax errors, missing required fields, and invalid values.

Examples:
  dfsacl config validate
  dfsacl config validate --config /etc/dittoacl/config.yaml`,
	RunE: runConfigValidate,
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	configPath, _ := cmd.Flags().GetString("config")

	cfg, err := config.MustLoad(configPath)
	if err != nil {
		return err
	}

	displayPath := configPath
	if displayPath == "" {
		displayPath = config.GetDefaultConfigPath()
	}

	fmt.Printf("Configuration file: %s\n", displayPath)
	fmt.Println("Validation: OK")

	if warnings := Warnings(cfg); len(warnings) > 0 {
		fmt.Println("\nWarnings:")
		for _, w := range warnings {
			fmt.Printf("  - %s\n", w)
		}
	}

	fmt.Printf("\nConfiguration summary:\n")
	fmt.Printf("  Namespace root:  %s\n", cfg.Filesystem.Root)
	fmt.Printf("  Backend:         %s\n", cfg.Filesystem.Backend)
	fmt.Printf("  Pools:           %s\n", cfg.Pools.Source)
	fmt.Printf("  Job store:       %s\n", cfg.Jobs.Store)
	fmt.Printf("  API port:        %d\n", cfg.API.Port)
	fmt.Printf("  Log level:       %s\n", cfg.Logging.Level)

	return nil
}

// Warnings lists settings that are valid but probably not intended.
func Warnings(cfg *config.Config) []string {
	var warnings []string
	if cfg.API.Enabled && cfg.API.JWT.Secret == "" {
		warnings = append(warnings, "API enabled without api.jwt.secret - requests are not authenticated")
	}
	if cfg.Filesystem.Backend == "memory" {
		warnings = append(warnings, "memory backend selected - changes never reach the filesystem")
	}
	if cfg.Pools.Source == "static" && len(cfg.Pools.Paths) == 0 {
		warnings = append(warnings, "no static pools configured - pool roots are not protected")
	}
	if cfg.Jobs.Store == "memory" && cfg.Jobs.LockDir == "" {
		warnings = append(warnings, "jobs.lock_dir not set - the CLI and the server do not exclude each other")
	}
	return warnings
}
