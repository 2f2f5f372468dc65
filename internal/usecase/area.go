package usecase

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	lru "github.com/hashicorp/golang-lru/v2"

	"go.ngs.io/ocean-navigator/internal/adapter/dataset"
	"go.ngs.io/ocean-navigator/internal/adapter/geo"
	"go.ngs.io/ocean-navigator/internal/adapter/interp"
	"go.ngs.io/ocean-navigator/internal/domain"
	"go.ngs.io/ocean-navigator/internal/metrics"
)

const (
	defaultRadiusM    = 25000
	defaultNeighbours = 10
	maxRasterSide     = 1024
	metersPerDegree   = math.Pi / 180 * geo.EarthRadiusMeters
)

// AreaRequest resamples one time step of a dataset onto a regular raster.
type AreaRequest struct {
	Dataset   string
	Variables []string
	Time      string
	Depth     string

	Extent     [4]float64 // minLon, minLat, maxLon, maxLat
	Width      int
	Height     int
	RadiusM    float64 // Search radius in meters.
	Neighbours int
	Kernel     string
	Scale      *[2]float64
}

// AreaResponse is a raster with row 0 at the northern edge. Masked cells
// are null.
type AreaResponse struct {
	Dataset      string       `json:"dataset"`
	VariableName string       `json:"variableName"`
	Unit         string       `json:"unit"`
	Depth        string       `json:"depth"`
	Time         string       `json:"time"`
	Extent       [4]float64   `json:"extent"`
	Width        int          `json:"width"`
	Height       int          `json:"height"`
	Data         [][]*float64 `json:"data"`
	Mask         [][]bool     `json:"mask"`
	Scale        [2]float64   `json:"scale"`
}

// Validate checks the request and fills interpolation defaults.
func (r *AreaRequest) Validate() error {
	if r.Dataset == "" || len(r.Variables) == 0 {
		return fmt.Errorf("%w: dataset and variable are required", domain.ErrInvalidRequest)
	}
	e := r.Extent
	if !(e[0] < e[2]) || !(e[1] < e[3]) || e[1] < -90 || e[3] > 90 {
		return fmt.Errorf("%w: extent %v is not [minLon, minLat, maxLon, maxLat]", domain.ErrInvalidRequest, e)
	}
	if r.Width < 1 || r.Height < 1 || r.Width > maxRasterSide || r.Height > maxRasterSide {
		return fmt.Errorf("%w: raster size must be within 1..%d", domain.ErrInvalidRequest, maxRasterSide)
	}
	if r.RadiusM == 0 {
		r.RadiusM = defaultRadiusM
	}
	if r.Neighbours == 0 {
		r.Neighbours = defaultNeighbours
	}
	if r.RadiusM < 0 || r.Neighbours < 0 {
		return fmt.Errorf("%w: radius and neighbours must be positive", domain.ErrInvalidRequest)
	}
	if r.Scale != nil && !(r.Scale[0] < r.Scale[1]) {
		return fmt.Errorf("%w: scale minimum must be below maximum", domain.ErrInvalidRequest)
	}
	return nil
}

// AreaUseCase serves AreaRequests, caching finished rasters by request.
type AreaUseCase struct {
	registry *dataset.Registry
	opener   dataset.Opener
	cache    *lru.Cache[string, *AreaResponse]
	metrics  *metrics.Metrics
}

// NewAreaUseCase creates an area use case with an LRU of cacheSize rasters.
func NewAreaUseCase(registry *dataset.Registry, opener dataset.Opener, cacheSize int, m *metrics.Metrics) (*AreaUseCase, error) {
	if cacheSize < 1 {
		cacheSize = 1
	}
	cache, err := lru.New[string, *AreaResponse](cacheSize)
	if err != nil {
		return nil, err
	}
	return &AreaUseCase{registry: registry, opener: opener, cache: cache, metrics: m}, nil
}

// Execute performs the resampling.
func (uc *AreaUseCase) Execute(ctx context.Context, req AreaRequest) (*AreaResponse, error) {
	start := time.Now()
	if err := req.Validate(); err != nil {
		return nil, err
	}
	kernel, err := interp.ParseKernel(req.Kernel)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidRequest, err)
	}
	cfg, err := uc.registry.Get(req.Dataset)
	if err != nil {
		return nil, err
	}
	sel, err := selectVariables(cfg, req.Variables)
	if err != nil {
		return nil, err
	}

	h, err := uc.opener.Open(ctx, cfg.URL)
	if err != nil {
		return nil, err
	}
	defer func() { _ = h.Close() }()

	tr, err := resolveTimeRange(h, req.Time, "", "")
	if err != nil {
		return nil, err
	}
	if err := tr.Validate(len(h.Timestamps())); err != nil {
		return nil, err
	}
	depth, err := h.ResolveDepth(req.Depth)
	if err != nil {
		return nil, err
	}

	key := areaKey(cfg.ID, sel.keys, tr.Start, depth, req)
	if cached, ok := uc.cache.Get(key); ok {
		uc.metrics.ObserveAreaCache(true)
		return cached, nil
	}
	uc.metrics.ObserveAreaCache(false)

	// Source nodes come from a box padded by the search radius so edge
	// cells see the same neighbourhood as interior ones.
	lat0 := (req.Extent[1] + req.Extent[3]) / 2
	padLat := req.RadiusM / metersPerDegree
	padLon := padLat / math.Max(math.Cos(lat0*math.Pi/180), 0.01)
	nodes := h.GridPoints(domain.Bounds{
		MinLat: req.Extent[1] - padLat, MaxLat: req.Extent[3] + padLat,
		MinLon: req.Extent[0] - padLon, MaxLon: req.Extent[2] + padLon,
	})
	if len(nodes) == 0 {
		return nil, fmt.Errorf("%w: extent lies outside the dataset", domain.ErrEmptySeries)
	}

	components := make([][][]float64, len(sel.keys))
	for i, k := range sel.keys {
		v, err := h.Path(ctx, nodes, depth, []int{tr.Start}, k)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", k, err)
		}
		components[i] = v
	}
	values := components[0][0]
	if len(components) > 1 {
		values = domain.Magnitude(components...)[0]
	}

	proj := equirect{lat0: lat0}
	src := make([]interp.Point2D, len(nodes))
	for i, n := range nodes {
		src[i] = proj.point(n.Lat, n.Lon)
	}
	cells, err := interp.RegularGrid(req.Extent[0], req.Extent[1], req.Extent[2], req.Extent[3], req.Width, req.Height)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidRequest, err)
	}
	targets := make([]interp.Point2D, len(cells))
	for i, c := range cells {
		targets[i] = proj.point(c.Y, c.X)
	}

	res, err := interp.Interpolate(src, values, targets, interp.Options{
		Radius:        req.RadiusM,
		MaxNeighbours: req.Neighbours,
		Kernel:        kernel,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidRequest, err)
	}

	grid := make([][]float64, req.Height)
	for r := range grid {
		grid[r] = res.Values[r*req.Width : (r+1)*req.Width]
	}
	unit := h.VariableUnit(sel.keys[0])
	if sel.meta.Unit != "" {
		unit = sel.meta.Unit
	}
	unit, grid = domain.Normalize(unit, grid)
	grid = domain.ApplyScale(grid, sel.meta.ScaleFactor)

	scale, ok := domain.AutoRange(grid, sel.category())
	if !ok {
		return nil, fmt.Errorf("%w: every cell is masked", domain.ErrEmptySeries)
	}
	if req.Scale != nil {
		scale = *req.Scale
	}

	resp := &AreaResponse{
		Dataset:      cfg.ID,
		VariableName: sel.name,
		Unit:         unit,
		Depth:        depth.Label(),
		Time:         h.Timestamps()[tr.Start].UTC().Format(time.RFC3339),
		Extent:       req.Extent,
		Width:        req.Width,
		Height:       req.Height,
		Data:         nullable2D(grid),
		Mask:         domain.MaskFromValues(grid),
		Scale:        scale,
	}
	uc.cache.Add(key, resp)
	uc.metrics.ObserveSample("area", time.Since(start).Seconds())
	return resp, nil
}

// equirect projects lat/lon onto a local equirectangular plane in meters.
type equirect struct{ lat0 float64 }

func (e equirect) point(lat, lon float64) interp.Point2D {
	return interp.Point2D{
		X: lon * metersPerDegree * math.Cos(e.lat0*math.Pi/180),
		Y: lat * metersPerDegree,
	}
}

// areaKey identifies a resolved area request.
func areaKey(id string, keys []string, t int, depth domain.DepthSpec, req AreaRequest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s|%d|%s|%v|%dx%d|%g|%d|%s",
		strings.Join(keys, ","), t, depth.Label(), req.Extent, req.Width, req.Height,
		req.RadiusM, req.Neighbours, strings.ToLower(strings.TrimSpace(req.Kernel)))
	if req.Scale != nil {
		fmt.Fprintf(&b, "|%v", *req.Scale)
	}
	return fmt.Sprintf("%s:%d:f=%016x", id, t, xxhash.Sum64String(b.String()))
}
