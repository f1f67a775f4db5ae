package jobs

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/do4u-project/do4u/cmd/util"
	"github.com/do4u-project/do4u/pkg/client"
	"github.com/do4u-project/do4u/pkg/jobcard"
	"github.com/do4u-project/do4u/pkg/marketplaceerrors"
	"github.com/do4u-project/do4u/pkg/models"
)

func newCreateCmd() *cobra.Command {
	var request client.CreateJobRequest
	var price float64

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Post a new job",
		Example: `  do4u jobs create --title "Fix leaking sink" --description "Kitchen sink drips" --price 40
  do4u jobs create --title "Walk my dog" --description "30 minutes, morning" --duration "30m" --location "Brooklyn"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			request.Title = strings.TrimSpace(request.Title)
			request.Description = strings.TrimSpace(request.Description)
			if request.Title == "" || request.Description == "" {
				return fmt.Errorf("both --title and --description are required")
			}
			if cmd.Flags().Changed("price") {
				if price < 0 {
					return fmt.Errorf("price cannot be negative")
				}
				request.Price = &price
			}

			ctx := cmd.Context()
			api, _, err := util.GetAPIClient(ctx)
			if err != nil {
				return err
			}

			var job *models.Job
			err = util.RunWithSpinner(cmd, "Posting job", func() error {
				var err error
				job, err = api.CreateJob(ctx, request)
				return err
			})
			if err != nil {
				if marketplaceerrors.IsValidation(err) {
					return errorsWithHint(err, "check the title, description and price")
				}
				return err
			}

			cmd.Println(jobcard.Render(job, util.GetViewer(), jobcard.RenderWithColors(true)))
			return nil
		},
	}

	cmd.Flags().StringVar(&request.Title, "title", "", "Job title")
	cmd.Flags().StringVar(&request.Description, "description", "", "What needs doing")
	cmd.Flags().StringVar(&request.Location, "location", "", "Where the job is")
	cmd.Flags().StringVar(&request.Duration, "duration", "", "Expected duration, free text")
	cmd.Flags().Float64Var(&price, "price", 0, "Offered price")
	return cmd
}
