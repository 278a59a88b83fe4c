package commands

import (
	"github.com/spf13/cobra"

	"github.com/marmos91/dittoacl/internal/cli/prompt"
	"github.com/marmos91/dittoacl/pkg/filesystem"
	"github.com/marmos91/dittoacl/pkg/job"
)

var permCmd = &cobra.Command{
	Use:   "perm",
	Short: "Set POSIX modes",
}

var (
	permMode      string
	permUID       int
	permGID       int
	permStrip     bool
	permRecursive bool
	permTraverse  bool
	permForce     bool
)

var permSetCmd = &cobra.Command{
	Use:   "set <path>",
	Short: "Set the mode and ownership of a path",
	Long: `Set the POSIX mode and ownership of a path.

A path carrying a non-trivial ACL is refused unless --strip is given, in
which case the ACL is removed before the mode is applied.

Examples:
  dfsacl perm set /mnt/tank/share --mode 770
  dfsacl perm set /mnt/tank/share --mode 755 --strip --recursive --force
  dfsacl perm set /mnt/tank/share --uid 1000 --gid 1000`,
	Args: cobra.ExactArgs(1),
	RunE: runPermSet,
}

func init() {
	permSetCmd.Flags().StringVarP(&permMode, "mode", "m", "", "Octal mode, such as 755")
	permSetCmd.Flags().IntVar(&permUID, "uid", -1, "Owner uid to set")
	permSetCmd.Flags().IntVar(&permGID, "gid", -1, "Owner gid to set")
	permSetCmd.Flags().BoolVar(&permStrip, "strip", false, "Strip a non-trivial ACL")
	permSetCmd.Flags().BoolVarP(&permRecursive, "recursive", "r", false, "Apply to every object below path")
	permSetCmd.Flags().BoolVar(&permTraverse, "traverse", false, "Cross into child datasets when recursive")
	permSetCmd.Flags().BoolVar(&permForce, "force", false, "Do not ask before recursive changes")

	permCmd.AddCommand(permSetCmd)
}

func runPermSet(cmd *cobra.Command, args []string) error {
	path := args[0]
	req := filesystem.SetPermRequest{
		Path:      path,
		Ownership: ownershipFlags(permUID, permGID),
		Options: filesystem.SetPermOptions{
			RecursionOptions: filesystem.RecursionOptions{Recursive: permRecursive, Traverse: permTraverse},
			StripACL:         permStrip,
		},
	}
	if cmd.Flags().Changed("mode") {
		req.Mode = &permMode
	}

	ok, err := prompt.ConfirmRecursive("Set permissions", path, permRecursive, permForce)
	if err != nil {
		return err
	}
	if !ok {
		return prompt.ErrAborted
	}

	o, err := openOps()
	if err != nil {
		return err
	}
	defer func() { _ = o.Close() }()

	return mutate(filesystem.MethodSetPerm, path, func(progress job.Reporter) (*job.Job, error) {
		return o.SetPerm(cmd.Context(), req, progress)
	})
}
