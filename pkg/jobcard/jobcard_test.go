//go:build unit || !integration

package jobcard_test

import (
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/samber/lo"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/do4u-project/do4u/pkg/jobcard"
	"github.com/do4u-project/do4u/pkg/models"
)

var (
	owner    = models.Viewer{ID: "user-1", Role: models.RoleUser}
	assignee = models.Viewer{ID: "genie-7", Role: models.RoleGenie}
	stranger = models.Viewer{ID: "genie-9", Role: models.RoleGenie}
	nobody   = models.Viewer{}
)

func job(status models.JobStatus, mutate ...func(*models.Job)) *models.Job {
	j := &models.Job{
		ID:            "job-1",
		Title:         "Fix leaking sink",
		Status:        status,
		UserID:        "user-1",
		AssignedGenie: "genie-7",
	}
	for _, m := range mutate {
		m(j)
	}
	return j
}

func withStarted(t time.Time) func(*models.Job) {
	return func(j *models.Job) { j.StartedAt = &t }
}

func withCompleted(t time.Time) func(*models.Job) {
	return func(j *models.Job) { j.CompletedAt = &t }
}

type WidgetsSuite struct {
	suite.Suite
}

func TestWidgetsSuite(t *testing.T) {
	suite.Run(t, new(WidgetsSuite))
}

func (s *WidgetsSuite) TestLocationOnlyInProgressWithKnownViewer() {
	s.True(jobcard.ResolveVisibleWidgets(job(models.JobStatusInProgress), owner).ShowLocation)
	s.False(jobcard.ResolveVisibleWidgets(job(models.JobStatusAccepted), owner).ShowLocation)
	s.False(jobcard.ResolveVisibleWidgets(job(models.JobStatusInProgress), nobody).ShowLocation)
}

func (s *WidgetsSuite) TestChatOnlyForParticipants() {
	j := job(models.JobStatusAccepted)
	s.True(jobcard.ResolveVisibleWidgets(j, owner).ShowChat)
	s.True(jobcard.ResolveVisibleWidgets(j, assignee).ShowChat)
	s.False(jobcard.ResolveVisibleWidgets(j, stranger).ShowChat)
	s.False(jobcard.ResolveVisibleWidgets(j, nobody).ShowChat)
}

func (s *WidgetsSuite) TestStopwatchNeedsStartTimestamp() {
	now := time.Now()
	s.True(jobcard.ResolveVisibleWidgets(job(models.JobStatusInProgress, withStarted(now)), owner).ShowStopwatch)
	s.False(jobcard.ResolveVisibleWidgets(job(models.JobStatusInProgress), owner).ShowStopwatch)
	s.False(jobcard.ResolveVisibleWidgets(job(models.JobStatusCompleted, withStarted(now)), owner).ShowStopwatch)
}

func (s *WidgetsSuite) TestStaticDurationNeedsBothTimestamps() {
	start := time.Now()
	done := job(models.JobStatusCompleted, withStarted(start), withCompleted(start.Add(time.Hour)))
	s.True(jobcard.ResolveVisibleWidgets(done, owner).ShowStaticDuration)

	missing := job(models.JobStatusCompleted, withStarted(start))
	s.False(jobcard.ResolveVisibleWidgets(missing, owner).ShowStaticDuration)
}

func TestStatusBadgeUnknownRendersVerbatim(t *testing.T) {
	badge := jobcard.StatusBadge(models.JobStatus("FOO"))
	require.Equal(t, "FOO", badge.Label)

	require.Equal(t, "In Progress", jobcard.StatusBadge(models.JobStatusInProgress).Label)
}

type ActionSuite struct {
	suite.Suite
}

func TestActionSuite(t *testing.T) {
	suite.Run(t, new(ActionSuite))
}

func (s *ActionSuite) TestOwnerCanCancelAssignment() {
	for _, status := range []models.JobStatus{models.JobStatusAccepted, models.JobStatusInProgress} {
		action, ok := jobcard.ActionFor(job(status), owner)
		s.Require().True(ok, status)
		s.Equal(jobcard.ActionCancelAssignment, action.Kind)
		s.Equal("Cancel Assignment", action.Label)
	}

	_, ok := jobcard.ActionFor(job(models.JobStatusPosted), owner)
	s.False(ok)
	_, ok = jobcard.ActionFor(job(models.JobStatusCompleted), owner)
	s.False(ok)
}

func (s *ActionSuite) TestGenieForwardTransitions() {
	cases := []struct {
		status models.JobStatus
		kind   jobcard.ActionKind
	}{
		{models.JobStatusPosted, jobcard.ActionAccept},
		{models.JobStatusAccepted, jobcard.ActionStart},
		{models.JobStatusInProgress, jobcard.ActionComplete},
		{models.JobStatusCompleted, jobcard.ActionRate},
	}
	for _, tc := range cases {
		action, ok := jobcard.ActionFor(job(tc.status), assignee)
		s.Require().True(ok, tc.status)
		s.Equal(tc.kind, action.Kind)
	}
}

func (s *ActionSuite) TestUnassignedGenieOnlySeesAccept() {
	action, ok := jobcard.ActionFor(job(models.JobStatusPosted), stranger)
	s.Require().True(ok)
	s.Equal(jobcard.ActionAccept, action.Kind)

	for _, status := range []models.JobStatus{models.JobStatusAccepted, models.JobStatusInProgress, models.JobStatusCompleted} {
		_, ok := jobcard.ActionFor(job(status), stranger)
		s.False(ok, status)
	}
}

func (s *ActionSuite) TestNoRateActionOnceRated() {
	rated := job(models.JobStatusCompleted, func(j *models.Job) {
		j.GenieRating = lo.ToPtr(5)
	})
	_, ok := jobcard.ActionFor(rated, assignee)
	s.False(ok)
}

func (s *ActionSuite) TestUnknownViewerHasNoAction() {
	_, ok := jobcard.ActionFor(job(models.JobStatusPosted), nobody)
	s.False(ok)
}

type RenderSuite struct {
	suite.Suite
}

func TestRenderSuite(t *testing.T) {
	suite.Run(t, new(RenderSuite))
}

func (s *RenderSuite) TestLiveElapsedOnRunningJob() {
	mock := clock.NewMock()
	start := mock.Now().Add(-65 * time.Second)

	out := jobcard.Render(
		job(models.JobStatusInProgress, withStarted(start)),
		owner,
		jobcard.RenderWithClock(mock),
	)
	s.Contains(out, "01:05")
	s.Contains(out, "In Progress")
	s.Contains(out, "Cancel Assignment")
}

func (s *RenderSuite) TestStaticDurationOnCompletedJob() {
	start := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	out := jobcard.Render(
		job(models.JobStatusCompleted, withStarted(start), withCompleted(start.Add(3725*time.Second))),
		owner,
	)
	s.Contains(out, "01:02:05")
	s.NotContains(out, "Elapsed")
}

func (s *RenderSuite) TestUnknownStatusRendersVerbatim() {
	out := jobcard.Render(job(models.JobStatus("FOO")), owner)
	s.Contains(out, "FOO")
}

func (s *RenderSuite) TestElapsedOverrideBeatsClock() {
	mock := clock.NewMock()
	start := mock.Now().Add(-65 * time.Second)

	out := jobcard.Render(
		job(models.JobStatusInProgress, withStarted(start)),
		owner,
		jobcard.RenderWithClock(mock),
		jobcard.RenderWithElapsed(9*time.Minute+30*time.Second),
	)
	s.Contains(out, "09:30")
	s.NotContains(out, "01:05")
}

func (s *RenderSuite) TestChatNoteOnlyForParticipants() {
	note := "open with: do4u chat job-1"

	shown := jobcard.Render(job(models.JobStatusAccepted), owner, jobcard.RenderWithChatNote(note))
	s.Contains(shown, note)

	hidden := jobcard.Render(job(models.JobStatusAccepted), stranger, jobcard.RenderWithChatNote(note))
	s.NotContains(hidden, note)
}

func (s *RenderSuite) TestLocationRowOnlyWhenTracking() {
	sample := &models.LocationSample{Latitude: 40.7, Longitude: -74.0}

	shown := jobcard.Render(job(models.JobStatusInProgress), owner, jobcard.RenderWithLocation(sample))
	s.Contains(shown, "40.70000")

	hidden := jobcard.Render(job(models.JobStatusAccepted), owner, jobcard.RenderWithLocation(sample))
	s.NotContains(hidden, "40.70000")
}
