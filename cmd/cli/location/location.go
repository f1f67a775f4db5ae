package location

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/do4u-project/do4u/cmd/util"
	"github.com/do4u-project/do4u/pkg/dedup"
	"github.com/do4u-project/do4u/pkg/location"
	"github.com/do4u-project/do4u/pkg/models"
)

func NewCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "location",
		Short: "Share or watch live job locations",
	}
	cmd.AddCommand(newShareCmd(), newWatchCmd())
	return cmd
}

// newShareCmd uploads the acting genie's position once. Coordinates come from
// flags; a headless CLI has no GPS of its own.
func newShareCmd() *cobra.Command {
	var lat, lon float64
	var accuracy float64

	cmd := &cobra.Command{
		Use:   "share <job-id>",
		Short: "Upload your current position for an in-progress job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			api, _, err := util.GetAPIClient(ctx)
			if err != nil {
				return err
			}

			sample := models.LocationSample{
				Latitude:  lat,
				Longitude: lon,
			}
			if cmd.Flags().Changed("accuracy") {
				sample.Accuracy = models.NormalizeAccuracy(&accuracy)
			}
			if err := sample.Validate(); err != nil {
				return err
			}

			err = util.RunWithSpinner(cmd, "Uploading position", func() error {
				return api.PostJobLocation(ctx, args[0], sample)
			})
			if err != nil {
				return err
			}
			cmd.Println("Position shared.")
			return nil
		},
	}
	cmd.Flags().Float64Var(&lat, "lat", 0, "Latitude in degrees")
	cmd.Flags().Float64Var(&lon, "lon", 0, "Longitude in degrees")
	cmd.Flags().Float64Var(&accuracy, "accuracy", 0, "Accuracy in meters")
	_ = cmd.MarkFlagRequired("lat")
	_ = cmd.MarkFlagRequired("lon")
	return cmd
}

// newWatchCmd polls the assigned genie's last known position, the owner-side
// view of an in-progress job.
func newWatchCmd() *cobra.Command {
	var interval time.Duration

	cmd := &cobra.Command{
		Use:   "watch <job-id>",
		Short: "Watch the assigned genie's position for an in-progress job",
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
			if !job.Status.AllowsTracking() {
				return fmt.Errorf("no live location: job is %s", job.Status)
			}

			group := dedup.NewGroup[*models.LocationSample]()
			noDevice := location.PositionSourceFunc(func(ctx context.Context) (location.Position, error) {
				return location.Position{}, fmt.Errorf("no device position source")
			})
			tracker := location.NewTracker(
				job.ID, models.RoleUser, api, api, group, noDevice,
				location.WithPollInterval(interval),
			)
			defer tracker.Stop()

			tracker.SetStatus(job.Status)
			tracker.Expand()

			cmd.Printf("Watching location for %q (every %s). Ctrl-C to stop.\n", job.Title, interval)

			var lastShown *models.LocationSample
			ticker := time.NewTicker(time.Second)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return nil
				case <-ticker.C:
					sample := tracker.Sample()
					if sample == nil || sample == lastShown {
						continue
					}
					lastShown = sample
					printSample(cmd, sample)
				}
			}
		},
	}
	cmd.Flags().DurationVar(&interval, "interval", location.DefaultPollInterval, "Poll interval")
	return cmd
}

func printSample(cmd *cobra.Command, sample *models.LocationSample) {
	line := fmt.Sprintf("%.5f, %.5f", sample.Latitude, sample.Longitude)
	if sample.Accuracy != nil {
		line += fmt.Sprintf(" (±%.0fm)", *sample.Accuracy)
	}
	if sample.UpdatedAt != nil {
		line += " as of " + sample.UpdatedAt.Local().Format("15:04:05")
	}
	cmd.Println(line)
}
