// Package commands implements the dfsacl command line.
package commands

import (
	"errors"
	"os"

	"github.com/spf13/cobra"

	"github.com/marmos91/dittoacl/cmd/dfsacl/commands/config"
	"github.com/marmos91/dittoacl/internal/cli/output"
	"github.com/marmos91/dittoacl/internal/cli/prompt"
	fserrors "github.com/marmos91/dittoacl/pkg/filesystem/errors"
)

var (
	// Version information injected at build time.
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"

	// Global flags.
	cfgFile      string
	outputFormat string
	logLevel     string
	serverURL    string
	apiToken     string
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "dfsacl",
	Short: "dfsacl - NAS permission management",
	Long: `dfsacl reads and writes NFSv4 ACLs, POSIX modes and ownership on the
datasets below the managed namespace, and serves the same operations over
a REST API. With --server the commands run against a remote server.

Use "dfsacl [command] --help" for more information about a command.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and runs it.
func Execute() error {
	return rootCmd.Execute()
}

// GetRootCmd returns the root command for testing purposes.
func GetRootCmd() *cobra.Command {
	return rootCmd
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $XDG_CONFIG_HOME/dittoacl/config.yaml)")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "table", "Output format (table|json|yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Override the configured log level (DEBUG|INFO|WARN|ERROR)")
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", os.Getenv("DFSACL_SERVER"), "Run against a dfsacl server instead of locally (env DFSACL_SERVER)")
	rootCmd.PersistentFlags().StringVar(&apiToken, "token", os.Getenv("DFSACL_TOKEN"), "Bearer token for --server (env DFSACL_TOKEN)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(aclCmd)
	rootCmd.AddCommand(permCmd)
	rootCmd.AddCommand(chownCmd)
	rootCmd.AddCommand(templateCmd)
	rootCmd.AddCommand(accessCmd)
	rootCmd.AddCommand(probeCmd)
	rootCmd.AddCommand(jobCmd)
	rootCmd.AddCommand(tokenCmd)
	rootCmd.AddCommand(config.Cmd)

	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

// GetConfigFile returns the config file path from the global flag.
func GetConfigFile() string {
	return cfgFile
}

// printer returns a printer for the --output format.
func printer() (*output.Printer, error) {
	format, err := output.ParseFormat(outputFormat)
	if err != nil {
		return nil, err
	}
	return output.NewAutoPrinter(os.Stdout, format), nil
}

// ExitCode maps an error onto the process exit status: the errno of a
// permission error, 1 otherwise.
func ExitCode(err error) int {
	if errors.Is(err, prompt.ErrAborted) {
		return 130
	}
	if code := fserrors.CodeOf(err); code != 0 {
		return int(code.Errno())
	}
	return 1
}
