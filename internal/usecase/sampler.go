package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"go.ngs.io/ocean-navigator/internal/adapter/dataset"
	"go.ngs.io/ocean-navigator/internal/adapter/geo"
	"go.ngs.io/ocean-navigator/internal/adapter/store/bathymetry"
	"go.ngs.io/ocean-navigator/internal/domain"
	"go.ngs.io/ocean-navigator/internal/logger"
	"go.ngs.io/ocean-navigator/internal/metrics"
)

// DefaultPathPoints is the number of samples spread along a path.
const DefaultPathPoints = 100

// Sampler extracts variable values along a geometry.
type Sampler struct {
	pathPoints int
	bathymetry bathymetry.Store
	namer      domain.VectorNamer
	metrics    *metrics.Metrics
	log        *zerolog.Logger
}

// NewSampler creates a sampler. bathy may be nil, in which case series carry
// no seabed depths.
func NewSampler(pathPoints int, bathy bathymetry.Store, m *metrics.Metrics, log *zerolog.Logger) *Sampler {
	if pathPoints < 2 {
		pathPoints = DefaultPathPoints
	}
	return &Sampler{
		pathPoints: pathPoints,
		bathymetry: bathy,
		namer:      domain.DefaultVectorNamer{},
		metrics:    m,
		log:        log,
	}
}

// Sample extracts variables from h along g at depth for every time in tr.
// Several variables are combined into their magnitude. Points outside the
// dataset are dropped; an all-masked result is domain.ErrEmptySeries.
func (s *Sampler) Sample(ctx context.Context, h dataset.Handle, g domain.Geometry, depth domain.DepthSpec, tr domain.TimeRange, variables []string) (*domain.SampleSeries, error) {
	start := time.Now()
	if len(variables) == 0 {
		return nil, fmt.Errorf("%w: at least one variable is required", domain.ErrInvalidRequest)
	}
	if err := g.Validate(); err != nil {
		return nil, err
	}
	timestamps := h.Timestamps()
	if err := tr.Validate(len(timestamps)); err != nil {
		return nil, err
	}

	var kept []domain.LatLon
	for _, p := range s.points(h, g) {
		if h.Contains(p) {
			kept = append(kept, p)
		}
	}
	if len(kept) == 0 {
		return nil, fmt.Errorf("%w: %s lies outside the dataset", domain.ErrEmptySeries, g.Type)
	}

	indices := tr.Indices()
	components := make([][][]float64, len(variables))
	for i, v := range variables {
		values, err := h.Path(ctx, kept, depth, indices, v)
		if err != nil {
			return nil, fmt.Errorf("failed to sample %s: %w", v, err)
		}
		components[i] = values
	}

	series := &domain.SampleSeries{
		Variable: variables[0],
		Unit:     h.VariableUnit(variables[0]),
		Depth:    depth,
		Points:   kept,
		Values:   components[0],
	}
	if len(variables) > 1 {
		name, err := s.namer.VectorName(variables)
		if err != nil {
			return nil, err
		}
		series.Variable = name
		series.Values = domain.Magnitude(components...)
	}
	if !series.Valid() {
		return nil, fmt.Errorf("%w: every sample of %s is masked", domain.ErrEmptySeries, series.Variable)
	}
	series.Mask = domain.MaskFromValues(series.Values)

	series.Times = make([]time.Time, len(indices))
	for i, t := range indices {
		series.Times[i] = timestamps[t]
	}
	if g.Type == domain.GeometryPolygon {
		series.Distances = make([]float64, len(kept))
	} else {
		series.Distances = geo.CumulativeDistances(kept)
	}

	if s.bathymetry != nil {
		bottom, err := s.bathymetry.DepthsAlong(ctx, kept)
		if err != nil {
			logger.FromContext(ctx, s.log).Warn().Err(err).Msg("seabed depth lookup failed")
		} else {
			series.BottomDepthM = bottom
		}
	}

	s.metrics.ObserveSample(g.Type.String(), time.Since(start).Seconds())
	return series, nil
}

// points expands g into sample positions: a path is densified along great
// circles, a polygon selects the dataset grid nodes inside it.
func (s *Sampler) points(h dataset.Handle, g domain.Geometry) []domain.LatLon {
	switch g.Type {
	case domain.GeometryPath:
		return geo.Densify(g.Points, s.pathPoints)
	case domain.GeometryPolygon:
		poly := geo.NewPolygon(g.Points, g.Holes)
		var out []domain.LatLon
		for _, p := range h.GridPoints(g.Bounds()) {
			if poly.Contains(p) {
				out = append(out, p)
			}
		}
		return out
	default:
		return g.Points
	}
}
