package commands

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"github.com/marmos91/dittoacl/internal/cli/output"
	"github.com/marmos91/dittoacl/pkg/filesystem/access"
)

var accessCmd = &cobra.Command{
	Use:   "access",
	Short: "Evaluate effective access",
}

var (
	accessUser    string
	accessRead    bool
	accessWrite   bool
	accessExecute bool
)

var accessCheckCmd = &cobra.Command{
	Use:   "check <path>",
	Short: "Check whether a user can access a path",
	Long: `Check whether a user can access a path.

Each of --read, --write and --execute may be given as true, to require the
access, or false, to require its absence. Flags left out are not checked.
The check runs as the user, so ACLs and group membership are honored. It
needs root privileges to switch credentials.

Examples:
  dfsacl access check /mnt/tank/share --user alice --read
  dfsacl access check /mnt/tank/share --user bob --write=false`,
	Args: cobra.ExactArgs(1),
	RunE: runAccessCheck,
}

func init() {
	accessCheckCmd.Flags().StringVarP(&accessUser, "user", "u", "", "User to check as")
	accessCheckCmd.Flags().BoolVar(&accessRead, "read", false, "Require read access (or its absence with =false)")
	accessCheckCmd.Flags().BoolVar(&accessWrite, "write", false, "Require write access (or its absence with =false)")
	accessCheckCmd.Flags().BoolVar(&accessExecute, "execute", false, "Require execute access (or its absence with =false)")
	_ = accessCheckCmd.MarkFlagRequired("user")

	accessCmd.AddCommand(accessCheckCmd)
}

// accessFlags returns only the flags given on the command line.
func accessFlags(cmd *cobra.Command) access.Flags {
	var flags access.Flags
	if cmd.Flags().Changed("read") {
		flags.Read = &accessRead
	}
	if cmd.Flags().Changed("write") {
		flags.Write = &accessWrite
	}
	if cmd.Flags().Changed("execute") {
		flags.Execute = &accessExecute
	}
	return flags
}

func runAccessCheck(cmd *cobra.Command, args []string) error {
	o, err := openOps()
	if err != nil {
		return err
	}
	defer func() { _ = o.Close() }()

	allowed, err := o.CanAccess(cmd.Context(), accessUser, args[0], accessFlags(cmd))
	if err != nil {
		return err
	}

	p, err := printer()
	if err != nil {
		return err
	}
	if p.Format() != output.FormatTable {
		return p.Print(map[string]bool{"allowed": allowed})
	}
	if allowed {
		p.Success("allowed")
	} else {
		p.Warning("denied")
	}
	return nil
}

var probePath string

// probeCmd is re-executed by access checks under the target user's
// credentials. It prints the effective access of the calling process.
var probeCmd = &cobra.Command{
	Use:    access.ProbeCommand,
	Hidden: true,
	Args:   cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return json.NewEncoder(os.Stdout).Encode(access.ProbeSelf(probePath))
	},
}

func init() {
	probeCmd.Flags().StringVar(&probePath, "path", "", "Path to probe")
	_ = probeCmd.MarkFlagRequired("path")
}
