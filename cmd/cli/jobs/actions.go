package jobs

import (
	"context"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/do4u-project/do4u/cmd/util"
	"github.com/do4u-project/do4u/cmd/util/output"
	"github.com/do4u-project/do4u/pkg/client"
	"github.com/do4u-project/do4u/pkg/jobcard"
	"github.com/do4u-project/do4u/pkg/marketplaceerrors"
	"github.com/do4u-project/do4u/pkg/models"
)

type actionSpec struct {
	use   string
	short string
	verb  string
}

// transition dispatches to the client method matching the command name.
func transition(ctx context.Context, api *client.Client, name, jobID string) (*models.Job, error) {
	switch name {
	case "accept":
		return api.AcceptJob(ctx, jobID)
	case "start":
		return api.StartJob(ctx, jobID)
	case "complete":
		return api.CompleteJob(ctx, jobID)
	case "cancel-assignment":
		return api.CancelAssignment(ctx, jobID)
	}
	panic("unknown job action: " + name)
}

func newActionCmd(spec actionSpec) *cobra.Command {
	name := strings.Fields(spec.use)[0]

	return &cobra.Command{
		Use:   spec.use,
		Short: spec.short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			api, _, err := util.GetAPIClient(ctx)
			if err != nil {
				return err
			}

			var job *models.Job
			err = util.RunWithSpinner(cmd, spec.verb, func() error {
				var err error
				job, err = transition(ctx, api, name, args[0])
				return err
			})
			if err != nil {
				return explainTransitionError(err)
			}

			cmd.Println(jobcard.Render(job, util.GetViewer(), jobcard.RenderWithColors(true)))
			return nil
		},
	}
}

// explainTransitionError keeps the status-code branching in one place: 409
// means someone else changed the job first, 400 means the transition is not
// valid from the job's current status.
func explainTransitionError(err error) error {
	switch {
	case marketplaceerrors.IsConflict(err):
		return errorsWithHint(err, "the job was changed by someone else; refresh and try again")
	case marketplaceerrors.IsValidation(err):
		return errorsWithHint(err, "the job is not in a status that allows this action")
	default:
		return err
	}
}

type hintedError struct {
	err  error
	hint string
}

func (e *hintedError) Error() string {
	return e.err.Error() + " (" + e.hint + ")"
}

func (e *hintedError) Unwrap() error {
	return e.err
}

func errorsWithHint(err error, hint string) error {
	return &hintedError{err: err, hint: hint}
}

func newRateCmd() *cobra.Command {
	var comment string

	cmd := &cobra.Command{
		Use:   "rate <job-id> <rating>",
		Short: "Rate the job poster after completing a job",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			rating, err := strconv.Atoi(args[1])
			if err != nil || rating < 1 || rating > 5 {
				return errorsWithHint(marketplaceerrors.NewAPIError(0, "invalid rating", nil), "rating must be an integer from 1 to 5")
			}

			ctx := cmd.Context()
			api, _, err := util.GetAPIClient(ctx)
			if err != nil {
				return err
			}

			var result *client.RatingResult
			err = util.RunWithSpinner(cmd, "Submitting rating", func() error {
				var err error
				result, err = api.RateUser(ctx, args[0], rating, comment)
				return err
			})
			if err != nil {
				return explainTransitionError(err)
			}

			cmd.Println(output.GreenStr(result.Message))
			if result.PointsAwarded > 0 {
				cmd.Printf("Points awarded: %d (total %d)\n", result.PointsAwarded, result.TotalPoints)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&comment, "comment", "", "Optional rating comment")
	return cmd
}
