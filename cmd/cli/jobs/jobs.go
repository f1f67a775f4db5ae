package jobs

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/do4u-project/do4u/cmd/util"
	"github.com/do4u-project/do4u/cmd/util/output"
	"github.com/do4u-project/do4u/pkg/jobcard"
	"github.com/do4u-project/do4u/pkg/models"
	"github.com/do4u-project/do4u/pkg/stopwatch"
)

func NewCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "jobs",
		Short: "Browse and act on marketplace jobs",
	}
	cmd.AddCommand(
		newCreateCmd(),
		newListCmd(),
		newAvailableCmd(),
		newDescribeCmd(),
		newActionCmd(actionSpec{
			use:   "accept <job-id>",
			short: "Accept a posted job as the acting genie",
			verb:  "Accepting job",
		}),
		newActionCmd(actionSpec{
			use:   "start <job-id>",
			short: "Start an accepted job",
			verb:  "Starting job",
		}),
		newActionCmd(actionSpec{
			use:   "complete <job-id>",
			short: "Complete an in-progress job",
			verb:  "Completing job",
		}),
		newActionCmd(actionSpec{
			use:   "cancel-assignment <job-id>",
			short: "Cancel the job's current assignment",
			verb:  "Cancelling assignment",
		}),
		newRateCmd(),
	)
	return cmd
}

var jobColumns = []output.TableColumn[*models.Job]{
	{
		ColumnConfig: table.ColumnConfig{Name: "ID"},
		Value:        func(j *models.Job) string { return j.ID },
	},
	{
		ColumnConfig: table.ColumnConfig{Name: "Title", WidthMax: 40},
		Value:        func(j *models.Job) string { return j.Title },
	},
	{
		ColumnConfig: table.ColumnConfig{Name: "Status"},
		Value:        func(j *models.Job) string { return jobcard.StatusBadge(j.Status).Label },
	},
	{
		ColumnConfig: table.ColumnConfig{Name: "Price"},
		Value: func(j *models.Job) string {
			if j.Price == nil {
				return ""
			}
			return fmt.Sprintf("$%.2f", *j.Price)
		},
	},
	{
		ColumnConfig: table.ColumnConfig{Name: "Created"},
		Value:        func(j *models.Job) string { return j.CreatedAt.Format("2006-01-02 15:04") },
	},
}

func newListCmd() *cobra.Command {
	var status string
	outputOpts := output.OutputOptions{Format: output.TableFormat}

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the acting viewer's jobs",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			api, _, err := util.GetAPIClient(ctx)
			if err != nil {
				return err
			}
			jobs, err := api.MyJobs(ctx, models.JobStatus(status))
			if err != nil {
				return err
			}
			return output.Output(cmd, jobColumns, outputOpts, jobs)
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "Filter by status (POSTED, ACCEPTED, IN_PROGRESS, COMPLETED)")
	cmd.Flags().StringVar((*string)(&outputOpts.Format), "output", string(outputOpts.Format), "Output format: table, csv, json, yaml")
	return cmd
}

func newAvailableCmd() *cobra.Command {
	outputOpts := output.OutputOptions{Format: output.TableFormat}

	cmd := &cobra.Command{
		Use:   "available",
		Short: "List posted jobs a genie can accept",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			api, _, err := util.GetAPIClient(ctx)
			if err != nil {
				return err
			}
			jobs, err := api.AvailableJobs(ctx)
			if err != nil {
				return err
			}
			return output.Output(cmd, jobColumns, outputOpts, jobs)
		},
	}
	cmd.Flags().StringVar((*string)(&outputOpts.Format), "output", string(outputOpts.Format), "Output format: table, csv, json, yaml")
	return cmd
}

func newDescribeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "describe <job-id>",
		Short: "Show one job as a card",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			api, _, err := util.GetAPIClient(ctx)
			if err != nil {
				return err
			}
			job, err := api.Job(ctx, args[0])
			if err != nil {
				return err
			}

			viewer := util.GetViewer()
			widgets := jobcard.ResolveVisibleWidgets(job, viewer)
			opts := []jobcard.RenderOption{jobcard.RenderWithColors(true)}
			if widgets.ShowStopwatch {
				opts = append(opts, jobcard.RenderWithElapsed(stopwatch.New(*job.StartedAt).Elapsed()))
			}
			if widgets.ShowLocation {
				if sample, err := api.JobLocation(ctx, job.ID); err == nil && sample != nil {
					opts = append(opts, jobcard.RenderWithLocation(sample))
				}
			}
			if widgets.ShowChat {
				opts = append(opts, jobcard.RenderWithChatNote(fmt.Sprintf("open with: do4u chat %s", job.ID)))
			}

			cmd.Println(jobcard.Render(job, viewer, opts...))
			return nil
		},
	}
}
