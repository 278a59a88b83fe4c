package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marmos91/dittoacl/internal/cli/prompt"
	"github.com/marmos91/dittoacl/pkg/filesystem"
	"github.com/marmos91/dittoacl/pkg/job"
)

var (
	chownUID       int
	chownGID       int
	chownRecursive bool
	chownTraverse  bool
	chownForce     bool
)

var chownCmd = &cobra.Command{
	Use:   "chown <path>",
	Short: "Change the owner and group of a path",
	Long: `Change the owner and group of a path. The ACL is left untouched.

Examples:
  dfsacl chown /mnt/tank/share --uid 1000
  dfsacl chown /mnt/tank/share --uid 1000 --gid 100 --recursive --force`,
	Args: cobra.ExactArgs(1),
	RunE: runChown,
}

func init() {
	chownCmd.Flags().IntVar(&chownUID, "uid", -1, "Owner uid to set")
	chownCmd.Flags().IntVar(&chownGID, "gid", -1, "Owner gid to set")
	chownCmd.Flags().BoolVarP(&chownRecursive, "recursive", "r", false, "Apply to every object below path")
	chownCmd.Flags().BoolVar(&chownTraverse, "traverse", false, "Cross into child datasets when recursive")
	chownCmd.Flags().BoolVar(&chownForce, "force", false, "Do not ask before recursive changes")
}

func runChown(cmd *cobra.Command, args []string) error {
	path := args[0]
	req := filesystem.ChownRequest{
		Path:      path,
		Ownership: ownershipFlags(chownUID, chownGID),
		Options:   filesystem.RecursionOptions{Recursive: chownRecursive, Traverse: chownTraverse},
	}
	if !req.IsSet() {
		return fmt.Errorf("at least one of --uid or --gid is required")
	}

	ok, err := prompt.ConfirmRecursive("Change owner", path, chownRecursive, chownForce)
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

	return mutate(filesystem.MethodChown, path, func(progress job.Reporter) (*job.Job, error) {
		return o.Chown(cmd.Context(), req, progress)
	})
}
