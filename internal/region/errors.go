package region

import "errors"

var (
	// ErrStoreUnavailable wraps failures of the region store or the cache backend.
	// Callers decide whether to retry.
	ErrStoreUnavailable = errors.New("region: store unavailable")

	// ErrInvalidPolygon marks a region whose ring cannot be evaluated. Such a
	// region is skipped during resolution.
	ErrInvalidPolygon = errors.New("region: invalid polygon")

	// ErrInvalidCoordinate is returned when a query point is NaN or infinite.
	ErrInvalidCoordinate = errors.New("region: invalid coordinate")
)
