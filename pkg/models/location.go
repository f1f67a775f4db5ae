package models

import (
	"fmt"
	"math"
	"time"
)

// MaxAccuracyMeters mirrors the backend cap on reported GPS accuracy.
const MaxAccuracyMeters = 9999.99

// LocationSample is the latest known position of the assigned genie for an
// in-progress job. The backend overwrites the sample on each update; the
// client never holds a history.
type LocationSample struct {
	Latitude  float64    `json:"latitude"`
	Longitude float64    `json:"longitude"`
	Accuracy  *float64   `json:"accuracy,omitempty"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

// Validate checks that the coordinates are finite and within bounds. Accuracy
// is deliberately not part of validity: a bad accuracy value is normalized
// away, never rejected.
func (s *LocationSample) Validate() error {
	if math.IsNaN(s.Latitude) || math.IsInf(s.Latitude, 0) ||
		math.IsNaN(s.Longitude) || math.IsInf(s.Longitude, 0) {
		return fmt.Errorf("location sample has non-finite coordinates")
	}
	if s.Latitude < -90 || s.Latitude > 90 {
		return fmt.Errorf("latitude %v out of range [-90, 90]", s.Latitude)
	}
	if s.Longitude < -180 || s.Longitude > 180 {
		return fmt.Errorf("longitude %v out of range [-180, 180]", s.Longitude)
	}
	return nil
}

// NormalizeAccuracy returns the accuracy to report for a raw GPS reading.
// Negative or non-numeric values are treated as absent, and values above the
// backend cap are clamped, matching the server's own normalization.
func NormalizeAccuracy(accuracy *float64) *float64 {
	if accuracy == nil {
		return nil
	}
	a := *accuracy
	if math.IsNaN(a) || math.IsInf(a, 0) || a < 0 {
		return nil
	}
	if a > MaxAccuracyMeters {
		a = MaxAccuracyMeters
	}
	return &a
}
