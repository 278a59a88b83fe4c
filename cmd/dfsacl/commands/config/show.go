package config

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/marmos91/dittoacl/internal/cli/output"
	"github.com/marmos91/dittoacl/pkg/config"
)

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Display current configuration",
	Long: `Display the effective configuration after defaults and environment
overrides are applied.

By default outputs YAML format. Use --output json for JSON.

Examples:
  dfsacl config show
  dfsacl config show --output json`,
	RunE: runConfigShow,
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	configPath, _ := cmd.Flags().GetString("config")

	cfg, err := config.MustLoad(configPath)
	if err != nil {
		return err
	}

	// The global default is "table", which means YAML here.
	format := output.FormatYAML
	if cmd.Flags().Changed("output") {
		value, _ := cmd.Flags().GetString("output")
		if format, err = output.ParseFormat(value); err != nil {
			return err
		}
	}
	if cfg.API.JWT.Secret != "" {
		cfg.API.JWT.Secret = "********"
	}

	switch format {
	case output.FormatJSON:
		return output.PrintJSON(os.Stdout, cfg)
	default:
		return output.PrintYAML(os.Stdout, cfg)
	}
}
