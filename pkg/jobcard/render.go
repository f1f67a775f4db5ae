package jobcard

import (
	"fmt"
	"strings"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/mitchellh/go-wordwrap"

	"github.com/do4u-project/do4u/pkg/models"
	"github.com/do4u-project/do4u/pkg/stopwatch"
)

const descriptionWidth = 60

type renderConfig struct {
	clock    clock.Clock
	colors   bool
	elapsed  *time.Duration
	location *models.LocationSample
	chatNote string
}

type RenderOption func(*renderConfig)

func RenderWithClock(clk clock.Clock) RenderOption {
	return func(c *renderConfig) { c.clock = clk }
}

// RenderWithColors toggles ANSI styling; off by default so piped output stays
// clean.
func RenderWithColors(enabled bool) RenderOption {
	return func(c *renderConfig) { c.colors = enabled }
}

// RenderWithElapsed overrides the computed live elapsed value, for callers
// that already run a stopwatch.
func RenderWithElapsed(d time.Duration) RenderOption {
	return func(c *renderConfig) { c.elapsed = &d }
}

// RenderWithLocation adds the latest known provider position to the card.
func RenderWithLocation(sample *models.LocationSample) RenderOption {
	return func(c *renderConfig) { c.location = sample }
}

// RenderWithChatNote adds a one-line chat affordance (e.g. unread count).
func RenderWithChatNote(note string) RenderOption {
	return func(c *renderConfig) { c.chatNote = note }
}

// Render draws one job card for the terminal. Which rows appear follows
// ResolveVisibleWidgets; the action row follows ActionFor.
func Render(job *models.Job, viewer models.Viewer, options ...RenderOption) string {
	cfg := renderConfig{clock: clock.New()}
	for _, opt := range options {
		opt(&cfg)
	}

	badge := StatusBadge(job.Status)
	label := badge.Label
	if cfg.colors {
		label = badge.Colors.Sprint(label)
	}

	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetTitle("%s  [%s]", job.Title, label)

	t.AppendRow(table.Row{"ID", job.ID})
	if job.Location != "" {
		t.AppendRow(table.Row{"Location", job.Location})
	}
	if job.Price != nil {
		t.AppendRow(table.Row{"Price", fmt.Sprintf("$%.2f", *job.Price)})
	}
	if job.Duration != "" {
		t.AppendRow(table.Row{"Duration", job.Duration})
	}
	if job.Description != "" {
		t.AppendRow(table.Row{"Description", wordwrap.WrapString(job.Description, descriptionWidth)})
	}
	if job.AssignedGenie != "" {
		t.AppendRow(table.Row{"Genie", job.AssignedGenie})
	}

	widgets := ResolveVisibleWidgets(job, viewer)
	if widgets.ShowStopwatch {
		elapsed := cfg.clock.Now().Sub(*job.StartedAt).Truncate(time.Second)
		if cfg.elapsed != nil {
			elapsed = *cfg.elapsed
		}
		t.AppendRow(table.Row{"Elapsed", stopwatch.FormatElapsed(elapsed)})
	}
	if widgets.ShowStaticDuration {
		if d, ok := job.StaticDuration(); ok {
			t.AppendRow(table.Row{"Took", stopwatch.FormatElapsed(d)})
		}
	}
	if widgets.ShowLocation && cfg.location != nil {
		t.AppendRow(table.Row{"Position", formatSample(cfg.location)})
	}
	if widgets.ShowChat && cfg.chatNote != "" {
		t.AppendRow(table.Row{"Chat", cfg.chatNote})
	}

	if action, ok := ActionFor(job, viewer); ok {
		t.AppendFooter(table.Row{"Action", action.Label})
	}

	return t.Render()
}

func formatSample(sample *models.LocationSample) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%.5f, %.5f", sample.Latitude, sample.Longitude)
	if sample.Accuracy != nil {
		fmt.Fprintf(&b, " (±%.0fm)", *sample.Accuracy)
	}
	if sample.UpdatedAt != nil {
		fmt.Fprintf(&b, " at %s", sample.UpdatedAt.Local().Format("15:04:05"))
	}
	return b.String()
}
