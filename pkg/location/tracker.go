// Package location implements the per-job live location widget backing: a
// small state machine that either polls the genie's last known position (for
// the job owner) or captures and uploads the local device's position once
// (for the genie).
package location

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/do4u-project/do4u/pkg/dedup"
	"github.com/do4u-project/do4u/pkg/marketplaceerrors"
	"github.com/do4u-project/do4u/pkg/models"
)

const (
	// DefaultPollInterval keeps owner-side reads cheap; location freshness
	// is display-only, not safety-critical.
	DefaultPollInterval = 10 * time.Minute
	// DefaultInitialDelayMax spreads the first fetch of many concurrently
	// opened panels so a dashboard render does not burst the backend.
	DefaultInitialDelayMax = 2 * time.Second
	// DefaultCaptureTimeout bounds the one-shot device fix so a bad GPS
	// never hangs the share path.
	DefaultCaptureTimeout = 10 * time.Second
)

// User-visible error strings for the genie's share path. Read failures on the
// owner side are never surfaced at all.
const (
	errPermissionDenied = "Location permission denied"
	errInvalidGPS       = "Invalid GPS data. Please refresh location."
	errUploadFailed     = "Failed to update location"
)

// Fetcher reads the latest sample for a job.
type Fetcher interface {
	JobLocation(ctx context.Context, jobID string) (*models.LocationSample, error)
}

// Uploader posts a device sample for a job.
type Uploader interface {
	PostJobLocation(ctx context.Context, jobID string, sample models.LocationSample) error
}

type Config struct {
	clock           clock.Clock
	pollInterval    time.Duration
	initialDelayMax time.Duration
	captureTimeout  time.Duration
}

type Option func(*Config)

func WithClock(clk clock.Clock) Option {
	return func(c *Config) { c.clock = clk }
}

func WithPollInterval(d time.Duration) Option {
	return func(c *Config) { c.pollInterval = d }
}

// WithInitialDelayMax sets the jitter ceiling for the first owner-side fetch.
// Zero disables the jitter entirely.
func WithInitialDelayMax(d time.Duration) Option {
	return func(c *Config) { c.initialDelayMax = d }
}

func WithCaptureTimeout(d time.Duration) Option {
	return func(c *Config) { c.captureTimeout = d }
}

// Tracker is one job card's location widget state. Drive it with SetStatus
// from job snapshot refreshes and Expand/Collapse from the UI; read Sample
// and ErrMessage for display; Stop on unmount.
type Tracker struct {
	id     string
	jobID  string
	role   models.Role
	cfg    Config
	fetch  Fetcher
	upload Uploader
	group  *dedup.Group[*models.LocationSample]
	source PositionSource

	rootCtx  context.Context
	rootStop context.CancelFunc

	mu         sync.Mutex
	state      State
	status     models.JobStatus
	expanded   bool
	shared     bool
	sample     *models.LocationSample
	errMessage string
	pollStop   context.CancelFunc
}

// NewTracker builds an inactive tracker for (jobID, role). The dedup group is
// shared across sibling widgets so concurrent panels for the same job
// collapse onto one fetch.
func NewTracker(
	jobID string,
	role models.Role,
	fetch Fetcher,
	upload Uploader,
	group *dedup.Group[*models.LocationSample],
	source PositionSource,
	options ...Option,
) *Tracker {
	cfg := Config{
		clock:           clock.New(),
		pollInterval:    DefaultPollInterval,
		initialDelayMax: DefaultInitialDelayMax,
		captureTimeout:  DefaultCaptureTimeout,
	}
	for _, opt := range options {
		opt(&cfg)
	}

	ctx, stop := context.WithCancel(context.Background())
	return &Tracker{
		id:       uuid.NewString(),
		jobID:    jobID,
		role:     role,
		cfg:      cfg,
		fetch:    fetch,
		upload:   upload,
		group:    group,
		source:   source,
		rootCtx:  ctx,
		rootStop: stop,
		state:    StateInactive,
	}
}

func (t *Tracker) locationKey() string {
	return fmt.Sprintf("/api/v1/jobs/%s/location", t.jobID)
}

// State returns the current machine state.
func (t *Tracker) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Sample returns the last known sample, or nil while waiting.
func (t *Tracker) Sample() *models.LocationSample {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.sample
}

// ErrMessage returns the user-visible error for the genie share path, empty
// when there is nothing to show.
func (t *Tracker) ErrMessage() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.errMessage
}

// SetStatus feeds a fresh job status into the machine.
func (t *Tracker) SetStatus(status models.JobStatus) {
	t.mu.Lock()
	t.status = status
	t.apply()
	t.mu.Unlock()
}

// Expand opens the detail panel.
func (t *Tracker) Expand() {
	t.mu.Lock()
	t.expanded = true
	t.apply()
	t.mu.Unlock()
}

// Collapse shuts the detail panel.
func (t *Tracker) Collapse() {
	t.mu.Lock()
	t.expanded = false
	t.apply()
	t.mu.Unlock()
}

// Stop tears the tracker down: all timers are canceled so nothing fires
// against a stale job. The tracker cannot be restarted.
func (t *Tracker) Stop() {
	t.mu.Lock()
	t.status = ""
	t.apply()
	t.mu.Unlock()
	t.rootStop()
}

// apply recomputes the state and runs entry/exit actions. Callers hold t.mu.
func (t *Tracker) apply() {
	next := reduce(t.status, t.expanded)
	if next == t.state {
		return
	}
	prev := t.state
	t.state = next

	log.Debug().
		Str("tracker", t.id).
		Str("job", t.jobID).
		Str("from", prev.String()).
		Str("to", next.String()).
		Msg("location tracker transition")

	// Leaving the active states kills the poll loop and rearms the one-shot
	// share for any future activation.
	if !next.Active() {
		t.stopPollLocked()
		t.shared = false
		return
	}

	// Genie: share once on becoming active, regardless of expansion.
	if t.role == models.RoleGenie && !t.shared {
		t.shared = true
		go t.shareOnce(t.rootCtx)
	}

	// Owner: poll only while the panel is open.
	if t.role == models.RoleUser {
		if next == StateExpandedActive && t.pollStop == nil {
			ctx, cancel := context.WithCancel(t.rootCtx)
			t.pollStop = cancel
			go t.pollLoop(ctx)
		}
		if next != StateExpandedActive {
			t.stopPollLocked()
		}
	}
}

func (t *Tracker) stopPollLocked() {
	if t.pollStop != nil {
		t.pollStop()
		t.pollStop = nil
	}
}

// Refresh is the user-initiated update action: genies re-capture and
// re-upload, owners force a fresh fetch past the dedup grace window.
func (t *Tracker) Refresh(ctx context.Context) {
	if !t.State().Active() {
		return
	}
	if t.role == models.RoleGenie {
		t.shareOnce(ctx)
		return
	}
	t.group.Forget(t.locationKey())
	t.fetchOnce(ctx)
}

func (t *Tracker) pollLoop(ctx context.Context) {
	if t.cfg.initialDelayMax > 0 {
		delay := time.Duration(rand.Int63n(int64(t.cfg.initialDelayMax))) //nolint:gosec // jitter, not crypto
		timer := t.cfg.clock.Timer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}
	t.fetchOnce(ctx)

	ticker := t.cfg.clock.Ticker(t.cfg.pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			select {
			case <-ctx.Done():
				return
			default:
			}
			t.fetchOnce(ctx)
		}
	}
}

// fetchOnce reads through the dedup group. Failures are deliberately not
// surfaced: the panel keeps showing the last known sample instead of
// flickering on transient network blips.
func (t *Tracker) fetchOnce(ctx context.Context) {
	sample, err := t.group.Do(ctx, t.locationKey(), func(ctx context.Context) (*models.LocationSample, error) {
		return t.fetch.JobLocation(ctx, t.jobID)
	})
	if err != nil {
		if !marketplaceerrors.IsContextCanceled(err) {
			log.Debug().Err(err).Str("job", t.jobID).Msg("location fetch failed")
		}
		return
	}
	if sample == nil {
		return
	}
	t.mu.Lock()
	t.sample = sample
	t.errMessage = ""
	t.mu.Unlock()
}

// shareOnce captures a single device position, validates it locally, and
// uploads it. Invalid coordinates never reach the wire.
func (t *Tracker) shareOnce(ctx context.Context) {
	captureCtx, cancel := context.WithTimeout(ctx, t.cfg.captureTimeout)
	defer cancel()

	pos, err := t.source.CurrentPosition(captureCtx)
	if err != nil {
		log.Warn().Err(err).Str("job", t.jobID).Msg("device position capture failed")
		t.setErr(errPermissionDenied)
		return
	}

	sample := models.LocationSample{
		Latitude:  pos.Latitude,
		Longitude: pos.Longitude,
		Accuracy:  models.NormalizeAccuracy(pos.Accuracy),
	}
	if err := sample.Validate(); err != nil {
		log.Warn().Err(err).Str("job", t.jobID).Msg("rejecting invalid GPS payload")
		t.setErr(errInvalidGPS)
		return
	}

	if err := t.upload.PostJobLocation(ctx, t.jobID, sample); err != nil {
		log.Warn().Err(err).Str("job", t.jobID).Msg("location upload failed")
		t.setErr(errUploadFailed)
		return
	}

	t.mu.Lock()
	t.sample = &sample
	t.errMessage = ""
	t.mu.Unlock()
}

func (t *Tracker) setErr(message string) {
	t.mu.Lock()
	t.errMessage = message
	t.mu.Unlock()
}
