package commands

import (
	"github.com/spf13/cobra"

	"github.com/marmos91/dittoacl/internal/cli/output"
)

var jobCmd = &cobra.Command{
	Use:     "job",
	Aliases: []string{"jobs"},
	Short:   "Inspect permission change jobs",
	Long: `Inspect permission change jobs.

Jobs outlive the process only with jobs.store set to badger.`,
}

var jobListCmd = &cobra.Command{
	Use:   "list",
	Short: "List jobs",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		o, err := openOps()
		if err != nil {
			return err
		}
		defer func() { _ = o.Close() }()

		jobs, err := o.ListJobs(cmd.Context())
		if err != nil {
			return err
		}

		p, err := printer()
		if err != nil {
			return err
		}
		if len(jobs) == 0 && p.Format() == output.FormatTable {
			p.Println("No jobs found.")
			return nil
		}
		return p.Print(output.JobsView(jobs))
	},
}

var jobShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a job and its progress history",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		o, err := openOps()
		if err != nil {
			return err
		}
		defer func() { _ = o.Close() }()

		j, err := o.GetJob(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		p, err := printer()
		if err != nil {
			return err
		}
		view := output.JobView{Job: *j}
		if p.Format() != output.FormatTable {
			return p.Print(view)
		}
		if err := output.SimpleTable(p.Writer(), view.Summary()); err != nil {
			return err
		}
		p.Println()
		return p.Print(view)
	},
}

func init() {
	jobCmd.AddCommand(jobListCmd)
	jobCmd.AddCommand(jobShowCmd)
}
