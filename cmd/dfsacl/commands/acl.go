package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/marmos91/dittoacl/internal/cli/output"
	"github.com/marmos91/dittoacl/internal/cli/prompt"
	"github.com/marmos91/dittoacl/pkg/acl"
	"github.com/marmos91/dittoacl/pkg/filesystem"
	"github.com/marmos91/dittoacl/pkg/job"
)

var aclCmd = &cobra.Command{
	Use:   "acl",
	Short: "Read and write NFSv4 ACLs",
}

var (
	getAdvanced bool
	getGlob     string
)

var aclGetCmd = &cobra.Command{
	Use:   "get <path>",
	Short: "Show the ACL of a path",
	Long: `Show the ACL of a path. Permissions and flags are shown as basic levels
where one matches exactly; --advanced shows the individual bits.

With --glob, every match of the pattern below path is shown instead. The
pattern supports ** for any number of directories.

Examples:
  dfsacl acl get /mnt/tank/share
  dfsacl acl get /mnt/tank/share --advanced -o json
  dfsacl acl get /mnt/tank/share --glob '*/projects/**'`,
	Args: cobra.ExactArgs(1),
	RunE: runACLGet,
}

var (
	setFile          string
	setStrip         bool
	setRecursive     bool
	setTraverse      bool
	setNoCanonical   bool
	setUID, setGID   int
	setForce         bool
	setTemplate      string
	setTemplateShare string
)

var aclSetCmd = &cobra.Command{
	Use:   "set <path>",
	Short: "Replace the ACL of a path",
	Long: `Replace the ACL of a path.

Entries are read from --file (YAML or JSON, "-" for stdin) as a list of
entries, or as a full request document with dacl, uid, gid and options.
--template applies a default ACL instead. --strip removes the ACL and
cannot be combined with entries.

Examples:
  dfsacl acl set /mnt/tank/share --file acl.yaml
  dfsacl acl set /mnt/tank/share --template RESTRICTED --share-type SMB
  dfsacl acl set /mnt/tank/share --strip --recursive --force`,
	Args: cobra.ExactArgs(1),
	RunE: runACLSet,
}

var aclTrivialCmd = &cobra.Command{
	Use:   "trivial <path>",
	Short: "Report whether the ACL of a path is expressible as a mode",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		o, err := openOps()
		if err != nil {
			return err
		}
		defer func() { _ = o.Close() }()

		trivial, err := o.ACLIsTrivial(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		p, err := printer()
		if err != nil {
			return err
		}
		if p.Format() != output.FormatTable {
			return p.Print(map[string]any{"path": args[0], "trivial": trivial})
		}
		p.Println(trivial)
		return nil
	},
}

func init() {
	aclGetCmd.Flags().BoolVarP(&getAdvanced, "advanced", "a", false, "Show permission and flag bits instead of basic levels")
	aclGetCmd.Flags().StringVar(&getGlob, "glob", "", "Show every match of this pattern below path")

	aclSetCmd.Flags().StringVarP(&setFile, "file", "f", "", "Read entries from a YAML or JSON file (- for stdin)")
	aclSetCmd.Flags().StringVar(&setTemplate, "template", "", "Apply a default ACL template (OPEN|RESTRICTED|HOME)")
	aclSetCmd.Flags().StringVar(&setTemplateShare, "share-type", "", "Share type for --template (NONE|SMB|NFS|AFP)")
	aclSetCmd.Flags().BoolVar(&setStrip, "strip", false, "Strip the ACL instead of writing entries")
	aclSetCmd.Flags().BoolVarP(&setRecursive, "recursive", "r", false, "Apply to every object below path")
	aclSetCmd.Flags().BoolVar(&setTraverse, "traverse", false, "Cross into child datasets when recursive")
	aclSetCmd.Flags().BoolVar(&setNoCanonical, "no-canonicalize", false, "Keep the supplied entry order")
	aclSetCmd.Flags().IntVar(&setUID, "uid", -1, "Owner uid to set")
	aclSetCmd.Flags().IntVar(&setGID, "gid", -1, "Owner gid to set")
	aclSetCmd.Flags().BoolVar(&setForce, "force", false, "Do not ask before recursive changes")
	aclSetCmd.MarkFlagsMutuallyExclusive("file", "template", "strip")

	aclCmd.AddCommand(aclGetCmd)
	aclCmd.AddCommand(aclSetCmd)
	aclCmd.AddCommand(aclTrivialCmd)
}

func runACLGet(cmd *cobra.Command, args []string) error {
	o, err := openOps()
	if err != nil {
		return err
	}
	defer func() { _ = o.Close() }()

	if getGlob != "" && isRemote(o) {
		return errGlobRemote
	}
	targets, err := expandTargets(args[0], getGlob)
	if err != nil {
		return err
	}

	p, err := printer()
	if err != nil {
		return err
	}

	views := make([]output.ACLView, 0, len(targets))
	for _, target := range targets {
		result, err := o.GetACL(cmd.Context(), target, !getAdvanced)
		if err != nil {
			return err
		}
		views = append(views, output.ACLView{Path: target, ACL: *result})
	}

	if p.Format() != output.FormatTable {
		if getGlob == "" {
			return p.Print(views[0])
		}
		return p.Print(views)
	}
	for i, v := range views {
		if i > 0 {
			p.Println()
		}
		if err := p.Print(v); err != nil {
			return err
		}
	}
	return nil
}

// expandTargets returns path itself, or every match of pattern below path.
func expandTargets(path, pattern string) ([]string, error) {
	if pattern == "" {
		return []string{path}, nil
	}
	if !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("invalid glob pattern %q", pattern)
	}

	matches, err := doublestar.Glob(os.DirFS(path), pattern)
	if err != nil {
		return nil, fmt.Errorf("glob %s: %w", pattern, err)
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("no match for %q below %s", pattern, path)
	}

	targets := make([]string, len(matches))
	for i, m := range matches {
		targets[i] = filepath.Join(path, filepath.FromSlash(m))
	}
	return targets, nil
}

func runACLSet(cmd *cobra.Command, args []string) error {
	path := args[0]

	req := filesystem.NewSetACLRequest(path)
	if setFile != "" {
		loaded, err := loadSetACLFile(setFile, cmd.InOrStdin())
		if err != nil {
			return err
		}
		req = loaded
		req.Path = path
	}

	flagOwner := ownershipFlags(setUID, setGID)
	if flagOwner.UID != nil {
		req.UID = flagOwner.UID
	}
	if flagOwner.GID != nil {
		req.GID = flagOwner.GID
	}
	if setStrip {
		req.Options.StripACL = true
	}
	if setRecursive {
		req.Options.Recursive = true
	}
	if setTraverse {
		req.Options.Traverse = true
	}
	if setNoCanonical {
		req.Options.Canonicalize = false
	}

	ok, err := prompt.ConfirmRecursive("Set ACL", path, req.Options.Recursive, setForce)
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

	if setTemplate != "" {
		entries, err := o.DefaultACL(cmd.Context(), setTemplate, setTemplateShare)
		if err != nil {
			return err
		}
		req.Entries = entries
	}

	return mutate(filesystem.MethodSetACL, path, func(progress job.Reporter) (*job.Job, error) {
		return o.SetACL(cmd.Context(), req, progress)
	})
}

// loadSetACLFile reads a setacl payload. The document is either a list of
// entries or a request object. Request options absent from the document
// keep their defaults.
func loadSetACLFile(name string, stdin io.Reader) (filesystem.SetACLRequest, error) {
	var data []byte
	var err error
	if name == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(name)
	}
	if err != nil {
		return filesystem.SetACLRequest{}, fmt.Errorf("read %s: %w", name, err)
	}

	req := filesystem.NewSetACLRequest("")
	trimmed := strings.TrimSpace(string(data))
	isJSON := strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "[")
	isList := strings.HasPrefix(trimmed, "[") || strings.HasPrefix(trimmed, "-")

	switch {
	case isJSON && isList:
		err = json.Unmarshal(data, &req.Entries)
	case isJSON:
		err = json.Unmarshal(data, &req)
	case isList:
		err = yaml.Unmarshal(data, &req.Entries)
	default:
		err = yaml.Unmarshal(data, &req)
	}
	if err != nil {
		return filesystem.SetACLRequest{}, fmt.Errorf("parse %s: %w", name, err)
	}
	if len(req.Entries) > acl.MaxEntries {
		return filesystem.SetACLRequest{}, fmt.Errorf("%s: %d entries exceed the limit of %d", name, len(req.Entries), acl.MaxEntries)
	}
	return req, nil
}
