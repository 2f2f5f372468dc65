// Package dataset opens gridded oceanographic datasets and samples them.
package dataset

import (
	"context"
	"time"

	"go.ngs.io/ocean-navigator/internal/domain"
)

// Handle is an open gridded dataset. A handle belongs to one request and is
// released with Close.
type Handle interface {
	// Depths returns the depth axis in meters, shallowest first.
	Depths() []float64
	// Timestamps returns the monotonic time axis.
	Timestamps() []time.Time
	// ConvertToTimestamp maps an index or date string onto a time index.
	ConvertToTimestamp(raw string) (int, error)
	// ResolveDepth maps a raw depth input onto the depth axis.
	ResolveDepth(raw string) (domain.DepthSpec, error)
	// Contains reports whether p lies inside the horizontal grid extent.
	Contains(p domain.LatLon) bool
	// GridPoints returns every grid node inside b.
	GridPoints(b domain.Bounds) []domain.LatLon
	// Path samples variable at points for each time index; the result is
	// indexed [time][point] with NaN where no valid data exists.
	Path(ctx context.Context, points []domain.LatLon, depth domain.DepthSpec, times []int, variable string) ([][]float64, error)
	// VariableUnit returns the units attribute of variable.
	VariableUnit(variable string) string
	Close() error
}

// Opener opens a dataset by URL.
type Opener interface {
	Open(ctx context.Context, url string) (Handle, error)
}

// OpenerFunc adapts a function to Opener.
type OpenerFunc func(ctx context.Context, url string) (Handle, error)

// Open calls f.
func (f OpenerFunc) Open(ctx context.Context, url string) (Handle, error) {
	return f(ctx, url)
}

// NetCDFOpener opens NetCDF files and OPeNDAP URLs.
var NetCDFOpener = OpenerFunc(func(ctx context.Context, url string) (Handle, error) {
	return Open(ctx, url)
})
