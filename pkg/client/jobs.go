package client

import (
	"context"
	"fmt"
	"net/url"

	"github.com/do4u-project/do4u/pkg/models"
)

const jobsPath = "/api/v1/jobs"

// CreateJobRequest is the payload for posting a new job. Title and
// description are required; the backend rejects empty ones with a 400.
type CreateJobRequest struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Location    string   `json:"location,omitempty"`
	Duration    string   `json:"duration,omitempty"`
	Price       *float64 `json:"price,omitempty"`
}

// CreateJob posts a new job on behalf of the viewer. The returned snapshot
// carries the server-assigned id, POSTED status and timestamps.
func (c *Client) CreateJob(ctx context.Context, request CreateJobRequest) (*models.Job, error) {
	var job models.Job
	if err := c.Post(ctx, jobsPath+"/", request, &job); err != nil {
		return nil, err
	}
	return &job, nil
}

// UpdateJobRequest carries the mutable job fields; nil means leave unchanged.
type UpdateJobRequest struct {
	Title       *string  `json:"title,omitempty"`
	Description *string  `json:"description,omitempty"`
	Location    *string  `json:"location,omitempty"`
	Duration    *string  `json:"duration,omitempty"`
	Price       *float64 `json:"price,omitempty"`
}

// UpdateJob edits a job the viewer owns.
func (c *Client) UpdateJob(ctx context.Context, jobID string, request UpdateJobRequest) (*models.Job, error) {
	var job models.Job
	if err := c.Put(ctx, fmt.Sprintf("%s/%s", jobsPath, jobID), request, &job); err != nil {
		return nil, err
	}
	return &job, nil
}

// MyJobs lists the viewer's own jobs, optionally filtered by status.
func (c *Client) MyJobs(ctx context.Context, status models.JobStatus) ([]*models.Job, error) {
	path := jobsPath + "/my-jobs"
	if status != "" {
		path += "?status=" + url.QueryEscape(status.String())
	}
	var jobs []*models.Job
	if err := c.Get(ctx, path, &jobs); err != nil {
		return nil, err
	}
	return jobs, nil
}

// AvailableJobs lists open jobs a genie can accept.
func (c *Client) AvailableJobs(ctx context.Context) ([]*models.Job, error) {
	var jobs []*models.Job
	if err := c.Get(ctx, jobsPath+"/available", &jobs); err != nil {
		return nil, err
	}
	return jobs, nil
}

// Job fetches a single job snapshot by id.
func (c *Client) Job(ctx context.Context, jobID string) (*models.Job, error) {
	var job models.Job
	if err := c.Get(ctx, fmt.Sprintf("%s/%s", jobsPath, jobID), &job); err != nil {
		return nil, err
	}
	return &job, nil
}

// AcceptJob asks the backend to assign the viewing genie to a posted job.
// Conflicts (someone else got there first) surface as a 409 typed error.
func (c *Client) AcceptJob(ctx context.Context, jobID string) (*models.Job, error) {
	var job models.Job
	if err := c.Patch(ctx, fmt.Sprintf("%s/%s/accept", jobsPath, jobID), struct{}{}, &job); err != nil {
		return nil, err
	}
	return &job, nil
}

func (c *Client) StartJob(ctx context.Context, jobID string) (*models.Job, error) {
	var job models.Job
	if err := c.Post(ctx, fmt.Sprintf("%s/%s/start", jobsPath, jobID), struct{}{}, &job); err != nil {
		return nil, err
	}
	return &job, nil
}

func (c *Client) CompleteJob(ctx context.Context, jobID string) (*models.Job, error) {
	var job models.Job
	if err := c.Post(ctx, fmt.Sprintf("%s/%s/complete", jobsPath, jobID), struct{}{}, &job); err != nil {
		return nil, err
	}
	return &job, nil
}

func (c *Client) CancelAssignment(ctx context.Context, jobID string) (*models.Job, error) {
	var job models.Job
	if err := c.Post(ctx, fmt.Sprintf("%s/%s/cancel-assignment", jobsPath, jobID), struct{}{}, &job); err != nil {
		return nil, err
	}
	return &job, nil
}

// RatingResult is the backend's acknowledgement of a genie rating the job
// poster, including any reward points granted.
type RatingResult struct {
	Message       string `json:"message"`
	PointsAwarded int    `json:"points_awarded"`
	TotalPoints   int    `json:"total_points"`
}

func (c *Client) RateUser(ctx context.Context, jobID string, rating int, comment string) (*RatingResult, error) {
	body := struct {
		Rating  int    `json:"rating"`
		Comment string `json:"comment,omitempty"`
	}{Rating: rating, Comment: comment}

	var result RatingResult
	if err := c.Post(ctx, fmt.Sprintf("%s/%s/rate-user", jobsPath, jobID), body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// JobLocation fetches the latest known genie position for a job. The backend
// returns null while no sample exists yet, which maps to a nil sample here.
func (c *Client) JobLocation(ctx context.Context, jobID string) (*models.LocationSample, error) {
	var sample *models.LocationSample
	if err := c.Get(ctx, fmt.Sprintf("%s/%s/location", jobsPath, jobID), &sample); err != nil {
		return nil, err
	}
	return sample, nil
}

// PostJobLocation uploads the genie's current position for a job. Callers
// validate the sample first; the client does not re-check.
func (c *Client) PostJobLocation(ctx context.Context, jobID string, sample models.LocationSample) error {
	body := struct {
		Latitude  float64  `json:"latitude"`
		Longitude float64  `json:"longitude"`
		Accuracy  *float64 `json:"accuracy"`
	}{Latitude: sample.Latitude, Longitude: sample.Longitude, Accuracy: sample.Accuracy}
	return c.Post(ctx, fmt.Sprintf("%s/%s/location", jobsPath, jobID), body, nil)
}

// Notifications fetches the viewer's notification feed.
func (c *Client) Notifications(ctx context.Context, limit int, includeRead bool) ([]*models.Notification, error) {
	path := fmt.Sprintf("/api/v1/notifications/?limit=%d&include_read=%t", limit, includeRead)
	var notifications []*models.Notification
	if err := c.Get(ctx, path, &notifications); err != nil {
		return nil, err
	}
	return notifications, nil
}
