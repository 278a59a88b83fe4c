package config

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marmos91/dittoacl/pkg/config"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default configuration",
	Long: `Write the default configuration to --config, or to
$XDG_CONFIG_HOME/dittoacl/config.yaml when no path is given.

Examples:
  dfsacl config init
  dfsacl config init --config /etc/dittoacl/config.yaml --force`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath, _ := cmd.Flags().GetString("config")

		if configPath == "" {
			path, err := config.InitConfig(initForce)
			if err != nil {
				return err
			}
			configPath = path
		} else if err := config.InitConfigToPath(configPath, initForce); err != nil {
			return err
		}

		fmt.Printf("Configuration written to %s\n", configPath)
		return nil
	},
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite an existing file")
}
