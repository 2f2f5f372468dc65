// Package bathymetry provides seabed depth lookups from GEBCO-style NetCDF files.
package bathymetry

import (
	"context"
	"fmt"
	"math"
	"slices"
	"sync"

	"github.com/fhs/go-netcdf/netcdf"

	"go.ngs.io/ocean-navigator/internal/adapter/interp"
	"go.ngs.io/ocean-navigator/internal/adapter/ncutil"
	"go.ngs.io/ocean-navigator/internal/domain"
)

// margin is the padding in degrees loaded around the requested points.
const margin = 2.0

var elevationNames = []string{"elevation", "z", "Band1", "data"}

// LocalStore loads elevation subsets from a local NetCDF file. The file can
// be on local disk or a FUSE-mounted bucket.
type LocalStore struct {
	gebcoPath string

	// Cached subset, replaced when a request falls outside it.
	grid   *interp.Grid2D
	bounds *gridBounds
	mu     sync.Mutex
}

type gridBounds struct {
	box        domain.Bounds
	lonWrap360 bool
}

func (b *gridBounds) lon(lon float64) float64 {
	if b.lonWrap360 {
		return ncutil.NormalizeLon360(lon)
	}
	return ncutil.NormalizeLon180(lon)
}

func (b *gridBounds) covers(points []domain.LatLon) bool {
	if b == nil {
		return false
	}
	for _, p := range points {
		if !b.box.Contains(domain.LatLon{Lat: p.Lat, Lon: b.lon(p.Lon)}) {
			return false
		}
	}
	return true
}

// NewLocalStore creates a store reading from gebcoPath.
func NewLocalStore(gebcoPath string) *LocalStore {
	return &LocalStore{gebcoPath: gebcoPath}
}

// DepthsAlong implements Store.
func (s *LocalStore) DepthsAlong(ctx context.Context, points []domain.LatLon) ([]float64, error) {
	if len(points) == 0 {
		return []float64{}, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.bounds.covers(points) {
		if err := s.load(points); err != nil {
			return nil, fmt.Errorf("failed to load GEBCO grid: %w", err)
		}
	}

	targets := make([]interp.Point2D, len(points))
	for i, p := range points {
		targets[i] = interp.Point2D{X: s.bounds.lon(p.Lon), Y: p.Lat}
	}
	elev, err := s.grid.Sample(targets)
	if err != nil {
		return nil, err
	}
	// GEBCO elevation is negative below sea level.
	for i, e := range elev {
		if e < 0 {
			elev[i] = -e
		} else {
			elev[i] = math.NaN()
		}
	}
	return elev, nil
}

// load reads the elevation subset covering points plus margin.
func (s *LocalStore) load(points []domain.LatLon) error {
	ncutil.Mu.Lock()
	defer ncutil.Mu.Unlock()

	nc, err := netcdf.OpenFile(s.gebcoPath, netcdf.NOWRITE)
	if err != nil {
		return fmt.Errorf("failed to open NetCDF file: %w", err)
	}
	defer func() { _ = nc.Close() }()

	latVar, _, err := ncutil.FindVar(nc, ncutil.LatNames...)
	if err != nil {
		return err
	}
	lats, err := ncutil.ReadAxis(latVar)
	if err != nil {
		return err
	}
	lonVar, _, err := ncutil.FindVar(nc, ncutil.LonNames...)
	if err != nil {
		return err
	}
	lons, err := ncutil.ReadAxis(lonVar)
	if err != nil {
		return err
	}
	if len(lats) < 2 || len(lons) < 2 {
		return fmt.Errorf("grid of %dx%d is too small to interpolate", len(lats), len(lons))
	}

	bounds := &gridBounds{lonWrap360: ncutil.AxisWraps360(lons)}
	want := domain.EmptyBounds()
	for _, p := range points {
		want = want.Extend(domain.LatLon{Lat: p.Lat, Lon: bounds.lon(p.Lon)})
	}
	want = want.Pad(margin)

	latStart, latEnd := subsetRange(lats, want.MinLat, want.MaxLat)
	lonStart, lonEnd := subsetRange(lons, want.MinLon, want.MaxLon)
	nLat, nLon := latEnd-latStart, lonEnd-lonStart

	dataVar, name, err := ncutil.FindVar(nc, elevationNames...)
	if err != nil {
		return err
	}
	dims, lens, err := ncutil.Shape(dataVar)
	if err != nil {
		return err
	}
	if len(dims) != 2 {
		return fmt.Errorf("expected 2D %s, got %dD", name, len(dims))
	}

	var values [][]float64
	switch {
	case lens[0] == len(lats) && lens[1] == len(lons):
		flat, err := ncutil.ReadSlab(dataVar,
			[]uint64{uint64(latStart), uint64(lonStart)}, //nolint:gosec // G115: indices are non-negative.
			[]uint64{uint64(nLat), uint64(nLon)})         //nolint:gosec // G115: counts are non-negative.
		if err != nil {
			return err
		}
		values = rows(flat, nLat, nLon)
	case lens[0] == len(lons) && lens[1] == len(lats):
		flat, err := ncutil.ReadSlab(dataVar,
			[]uint64{uint64(lonStart), uint64(latStart)}, //nolint:gosec // G115: indices are non-negative.
			[]uint64{uint64(nLon), uint64(nLat)})         //nolint:gosec // G115: counts are non-negative.
		if err != nil {
			return err
		}
		values = transpose2D(rows(flat, nLon, nLat))
	default:
		return fmt.Errorf("dimension mismatch: %s is %v, expected [%d, %d] or [%d, %d]",
			name, lens, len(lats), len(lons), len(lons), len(lats))
	}

	grid := &interp.Grid2D{
		X:      slices.Clone(lons[lonStart:lonEnd]),
		Y:      slices.Clone(lats[latStart:latEnd]),
		Values: values,
	}
	if grid.Y[0] > grid.Y[len(grid.Y)-1] {
		slices.Reverse(grid.Y)
		slices.Reverse(grid.Values)
	}
	if grid.X[0] > grid.X[len(grid.X)-1] {
		slices.Reverse(grid.X)
		for _, row := range grid.Values {
			slices.Reverse(row)
		}
	}
	if err := grid.Validate(); err != nil {
		return fmt.Errorf("invalid grid: %w", err)
	}

	bounds.box = domain.Bounds{
		MinLat: grid.Y[0], MaxLat: grid.Y[len(grid.Y)-1],
		MinLon: grid.X[0], MaxLon: grid.X[len(grid.X)-1],
	}
	s.grid = grid
	s.bounds = bounds
	return nil
}

// subsetRange returns the index range [start, end) of axis covering
// [lo, hi], at least two entries wide.
func subsetRange(axis []float64, lo, hi float64) (int, int) {
	i0 := ncutil.NearestIndex(axis, lo)
	i1 := ncutil.NearestIndex(axis, hi)
	if i0 > i1 {
		i0, i1 = i1, i0
	}
	start := ncutil.Clamp(i0, 0, len(axis)-2)
	end := ncutil.Clamp(i1+1, start+2, len(axis))
	return start, end
}

func rows(flat []float64, nRows, nCols int) [][]float64 {
	out := make([][]float64, nRows)
	for i := range out {
		out[i] = flat[i*nCols : (i+1)*nCols]
	}
	return out
}

// transpose2D transposes a 2D array.
func transpose2D(data [][]float64) [][]float64 {
	if len(data) == 0 {
		return data
	}
	nRows, nCols := len(data), len(data[0])
	out := make([][]float64, nCols)
	for i := range out {
		out[i] = make([]float64, nRows)
		for j := 0; j < nRows; j++ {
			out[i][j] = data[j][i]
		}
	}
	return out
}

// Close releases resources (no-op for local store).
func (s *LocalStore) Close() error {
	return nil
}
