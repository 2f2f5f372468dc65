package bathymetry

import (
	"context"

	"go.ngs.io/ocean-navigator/internal/domain"
)

// Store provides seabed depth lookups.
type Store interface {
	// DepthsAlong returns the seabed depth in positive meters at each point.
	// Land and points outside the source grid yield NaN.
	DepthsAlong(ctx context.Context, points []domain.LatLon) ([]float64, error)

	// Close releases any resources held by the store.
	Close() error
}
