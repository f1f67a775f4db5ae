package location

import "context"

// Position is one raw device reading. Accuracy is whatever the device
// reported, unvalidated; the tracker normalizes it before upload.
type Position struct {
	Latitude  float64
	Longitude float64
	Accuracy  *float64
}

// PositionSource captures the local device's position once per call. One-shot
// capture, not continuous tracking, keeps the battery cost bounded;
// implementations should honor the context deadline and may serve a cached
// fix within their staleness allowance.
type PositionSource interface {
	CurrentPosition(ctx context.Context) (Position, error)
}

// PositionSourceFunc adapts a function to the PositionSource interface.
type PositionSourceFunc func(ctx context.Context) (Position, error)

func (f PositionSourceFunc) CurrentPosition(ctx context.Context) (Position, error) {
	return f(ctx)
}
