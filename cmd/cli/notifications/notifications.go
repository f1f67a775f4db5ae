package notifications

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/do4u-project/do4u/cmd/util"
	"github.com/do4u-project/do4u/cmd/util/output"
	"github.com/do4u-project/do4u/pkg/dedup"
	"github.com/do4u-project/do4u/pkg/models"
	"github.com/do4u-project/do4u/pkg/notifications"
)

func NewCmd() *cobra.Command {
	var markRead bool
	outputOpts := output.OutputOptions{Format: output.TableFormat}

	cmd := &cobra.Command{
		Use:   "notifications",
		Short: "Show the activity feed",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			api, store, err := util.GetAPIClient(ctx)
			if err != nil {
				return err
			}

			feed := notifications.NewFeed(api, store,
				dedup.NewGroup[[]*models.Notification]())
			items, err := feed.Refresh(ctx)
			if err != nil {
				return err
			}

			if err := output.Output(cmd, columns, outputOpts, items); err != nil {
				return err
			}
			if unread := notifications.UnreadCount(items); unread > 0 {
				cmd.Println(output.YellowStr(pluralize(unread)))
			}

			if markRead {
				return feed.MarkAllRead(items)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&markRead, "mark-read", false, "Mark every listed notification as read")
	cmd.Flags().StringVar((*string)(&outputOpts.Format), "output", string(outputOpts.Format), "Output format: table, csv, json, yaml")
	return cmd
}

var columns = []output.TableColumn[*models.Notification]{
	{
		ColumnConfig: table.ColumnConfig{Name: ""},
		Value: func(n *models.Notification) string {
			if n.IsRead {
				return " "
			}
			return "*"
		},
	},
	{
		ColumnConfig: table.ColumnConfig{Name: "When"},
		Value:        func(n *models.Notification) string { return n.CreatedAt.Local().Format("Jan 2 15:04") },
	},
	{
		ColumnConfig: table.ColumnConfig{Name: "Message", WidthMax: 60},
		Value:        func(n *models.Notification) string { return n.Message },
	},
	{
		ColumnConfig: table.ColumnConfig{Name: "Job"},
		Value:        func(n *models.Notification) string { return n.JobID },
	},
}

func pluralize(unread int) string {
	if unread == 1 {
		return "1 unread notification"
	}
	return fmt.Sprintf("%d unread notifications", unread)
}
