package commands

import (
	"github.com/spf13/cobra"

	"github.com/marmos91/dittoacl/internal/cli/output"
	"github.com/marmos91/dittoacl/pkg/acl/defaults"
)

var templateCmd = &cobra.Command{
	Use:     "template",
	Aliases: []string{"templates"},
	Short:   "Inspect default ACL templates",
}

var templateListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the selectable default ACL templates",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := printer()
		if err != nil {
			return err
		}

		names := defaults.VisibleNames()
		if p.Format() != output.FormatTable {
			return p.Print(names)
		}
		table := output.NewTableData("Name").WithEmptyNote("No templates")
		for _, n := range names {
			table.AddRow(string(n))
		}
		return p.Print(table)
	},
}

var templateShareType string

var templateShowCmd = &cobra.Command{
	Use:   "show [name]",
	Short: "Show the default ACL a template resolves to",
	Long: `Show the default ACL a template resolves to, including the configured
admin group and the built-in group of the share type.

Examples:
  dfsacl template show
  dfsacl template show RESTRICTED --share-type SMB`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var name string
		if len(args) == 1 {
			name = args[0]
		}

		o, err := openOps()
		if err != nil {
			return err
		}
		defer func() { _ = o.Close() }()

		entries, err := o.DefaultACL(cmd.Context(), name, templateShareType)
		if err != nil {
			return err
		}
		p, err := printer()
		if err != nil {
			return err
		}
		return p.Print(output.EntriesView(entries))
	},
}

func init() {
	templateShowCmd.Flags().StringVar(&templateShareType, "share-type", "", "Share type (NONE|SMB|NFS|AFP)")

	templateCmd.AddCommand(templateListCmd)
	templateCmd.AddCommand(templateShowCmd)
}
