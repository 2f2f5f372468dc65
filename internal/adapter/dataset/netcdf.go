package dataset

import (
	"context"
	"fmt"
	"math"
	"slices"
	"strings"
	"time"

	"github.com/fhs/go-netcdf/netcdf"

	"go.ngs.io/ocean-navigator/internal/adapter/interp"
	"go.ngs.io/ocean-navigator/internal/adapter/ncutil"
	"go.ngs.io/ocean-navigator/internal/domain"
)

var (
	timeNames  = []string{"time", "time_counter", "t"}
	depthNames = []string{"depth", "deptht", "depthu", "depthv", "z", "lev"}
)

type axisRole int

const (
	roleOther axisRole = iota
	roleTime
	roleDepth
	roleLat
	roleLon
)

// NetCDFHandle is a Handle backed by a NetCDF file with 1D coordinate axes.
type NetCDFHandle struct {
	url   string
	nc    netcdf.Dataset
	times []time.Time
	depth []float64
	lat   []float64
	lon   []float64

	dimRoles map[string]axisRole
	wrap360  bool
	noDepth  bool
}

// Open opens the dataset at url read-only and loads its axes. Failures wrap
// domain.ErrDatasetOpen.
func Open(ctx context.Context, url string) (*NetCDFHandle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path := strings.TrimPrefix(url, "file://")

	ncutil.Mu.Lock()
	defer ncutil.Mu.Unlock()

	nc, err := netcdf.OpenFile(path, netcdf.NOWRITE)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrDatasetOpen, url, err)
	}
	h := &NetCDFHandle{url: url, nc: nc, dimRoles: make(map[string]axisRole)}
	if err := h.loadAxes(); err != nil {
		_ = nc.Close()
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrDatasetOpen, url, err)
	}
	return h, nil
}

func (h *NetCDFHandle) loadAxes() error {
	latVar, latName, err := ncutil.FindVar(h.nc, ncutil.LatNames...)
	if err != nil {
		return fmt.Errorf("latitude axis: %w", err)
	}
	if h.lat, err = ncutil.ReadAxis(latVar); err != nil {
		return fmt.Errorf("latitude axis: %w", err)
	}
	lonVar, lonName, err := ncutil.FindVar(h.nc, ncutil.LonNames...)
	if err != nil {
		return fmt.Errorf("longitude axis: %w", err)
	}
	if h.lon, err = ncutil.ReadAxis(lonVar); err != nil {
		return fmt.Errorf("longitude axis: %w", err)
	}
	if len(h.lat) < 2 || len(h.lon) < 2 {
		return fmt.Errorf("grid of %dx%d is too small to interpolate", len(h.lat), len(h.lon))
	}
	h.wrap360 = ncutil.AxisWraps360(h.lon)
	h.addRole(latVar, latName, roleLat)
	h.addRole(lonVar, lonName, roleLon)

	timeVar, timeName, err := ncutil.FindVar(h.nc, timeNames...)
	if err != nil {
		return fmt.Errorf("time axis: %w", err)
	}
	raw, err := ncutil.ReadAxis(timeVar)
	if err != nil {
		return fmt.Errorf("time axis: %w", err)
	}
	if h.times, err = decodeTimes(raw, ncutil.AttrString(timeVar, "units")); err != nil {
		return fmt.Errorf("time axis: %w", err)
	}
	h.addRole(timeVar, timeName, roleTime)

	depthVar, depthName, err := ncutil.FindVar(h.nc, depthNames...)
	if err != nil {
		h.depth = []float64{0}
		h.noDepth = true
		return nil
	}
	if h.depth, err = ncutil.ReadAxis(depthVar); err != nil {
		return fmt.Errorf("depth axis: %w", err)
	}
	for i, d := range h.depth {
		h.depth[i] = math.Abs(d)
	}
	h.addRole(depthVar, depthName, roleDepth)
	return nil
}

// addRole records the dimension of a coordinate variable under role. The
// variable name is registered too since it usually matches the dimension.
func (h *NetCDFHandle) addRole(v netcdf.Var, name string, role axisRole) {
	h.dimRoles[name] = role
	if names, _, err := ncutil.Shape(v); err == nil && len(names) == 1 {
		h.dimRoles[names[0]] = role
	}
}

// URL returns the location the handle was opened from.
func (h *NetCDFHandle) URL() string { return h.url }

// Depths implements Handle.
func (h *NetCDFHandle) Depths() []float64 { return slices.Clone(h.depth) }

// Timestamps implements Handle.
func (h *NetCDFHandle) Timestamps() []time.Time { return slices.Clone(h.times) }

// ConvertToTimestamp implements Handle.
func (h *NetCDFHandle) ConvertToTimestamp(raw string) (int, error) {
	return resolveTimestamp(raw, h.times)
}

// ResolveDepth implements Handle.
func (h *NetCDFHandle) ResolveDepth(raw string) (domain.DepthSpec, error) {
	return domain.ResolveDepth(raw, h.depth)
}

// Contains implements Handle.
func (h *NetCDFHandle) Contains(p domain.LatLon) bool {
	lon := h.axisLon(p.Lon)
	return within(h.lat, p.Lat) && within(h.lon, lon)
}

func within(axis []float64, v float64) bool {
	lo, hi := axis[0], axis[len(axis)-1]
	if lo > hi {
		lo, hi = hi, lo
	}
	return v >= lo && v <= hi
}

func (h *NetCDFHandle) axisLon(lon float64) float64 {
	if h.wrap360 {
		return ncutil.NormalizeLon360(lon)
	}
	return ncutil.NormalizeLon180(lon)
}

// GridPoints implements Handle. Longitudes are returned in [-180, 180).
func (h *NetCDFHandle) GridPoints(b domain.Bounds) []domain.LatLon {
	var out []domain.LatLon
	for _, lat := range h.lat {
		if lat < b.MinLat || lat > b.MaxLat {
			continue
		}
		for _, lon := range h.lon {
			p := domain.LatLon{Lat: lat, Lon: ncutil.NormalizeLon180(lon)}
			if b.Contains(p) {
				out = append(out, p)
			}
		}
	}
	return out
}

// VariableUnit implements Handle.
func (h *NetCDFHandle) VariableUnit(variable string) string {
	ncutil.Mu.Lock()
	defer ncutil.Mu.Unlock()
	v, err := h.nc.Var(variable)
	if err != nil {
		return ""
	}
	return ncutil.AttrString(v, "units")
}

// Close implements Handle.
func (h *NetCDFHandle) Close() error {
	ncutil.Mu.Lock()
	defer ncutil.Mu.Unlock()
	return h.nc.Close()
}

// window is an index range [start, end) on one axis with its coordinates
// reordered to ascend.
type window struct {
	start, count int
	coords       []float64
	reversed     bool
}

func newWindow(axis []float64, lo, hi float64) window {
	i0 := ncutil.NearestIndex(axis, lo)
	i1 := ncutil.NearestIndex(axis, hi)
	if i0 > i1 {
		i0, i1 = i1, i0
	}
	start := ncutil.Clamp(i0-1, 0, len(axis)-2)
	end := ncutil.Clamp(i1+2, start+2, len(axis))
	w := window{start: start, count: end - start}
	w.coords = slices.Clone(axis[start:end])
	if w.coords[0] > w.coords[len(w.coords)-1] {
		slices.Reverse(w.coords)
		w.reversed = true
	}
	return w
}

// pos maps a position in ascending order back to the slab index.
func (w window) pos(i int) int {
	if w.reversed {
		return w.count - 1 - i
	}
	return i
}

// Path implements Handle.
func (h *NetCDFHandle) Path(ctx context.Context, points []domain.LatLon, depth domain.DepthSpec, times []int, variable string) ([][]float64, error) {
	out := make([][]float64, len(times))
	if len(points) == 0 {
		for i := range out {
			out[i] = []float64{}
		}
		return out, nil
	}

	targets := make([]interp.Point2D, len(points))
	b := domain.EmptyBounds()
	for i, p := range points {
		q := domain.LatLon{Lat: p.Lat, Lon: h.axisLon(p.Lon)}
		targets[i] = interp.Point2D{X: q.Lon, Y: q.Lat}
		b = b.Extend(q)
	}
	latW := newWindow(h.lat, b.MinLat, b.MaxLat)
	lonW := newWindow(h.lon, b.MinLon, b.MaxLon)

	for ti, t := range times {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if t < 0 || t >= len(h.times) {
			return nil, fmt.Errorf("%w: index %d outside [0, %d]", domain.ErrTimeResolution, t, len(h.times)-1)
		}
		grid, err := h.readLevel(variable, t, depth, latW, lonW)
		if err != nil {
			return nil, err
		}
		if out[ti], err = grid.Sample(targets); err != nil {
			return nil, fmt.Errorf("failed to sample %s: %w", variable, err)
		}
	}
	return out, nil
}

// readLevel reads one horizontal slab of variable at time t. For a bottom
// request every depth level is read and the deepest valid value per cell kept.
func (h *NetCDFHandle) readLevel(variable string, t int, depth domain.DepthSpec, latW, lonW window) (*interp.Grid2D, error) {
	ncutil.Mu.Lock()
	defer ncutil.Mu.Unlock()

	v, err := h.nc.Var(variable)
	if err != nil {
		return nil, fmt.Errorf("%w: %q not found in %s: %w", domain.ErrUnknownVariable, variable, h.url, err)
	}
	names, lens, err := ncutil.Shape(v)
	if err != nil {
		return nil, err
	}

	nDepth := 1
	start := make([]uint64, len(names))
	count := make([]uint64, len(names))
	strides := make(map[axisRole]int, 3)
	stride := 1
	for i := len(names) - 1; i >= 0; i-- {
		var s, c int
		switch h.dimRoles[names[i]] {
		case roleTime:
			s, c = t, 1
		case roleDepth:
			if depth.Bottom {
				s, c = 0, lens[i]
				nDepth = lens[i]
			} else {
				s, c = ncutil.Clamp(depth.Index, 0, lens[i]-1), 1
			}
			strides[roleDepth] = stride
		case roleLat:
			s, c = latW.start, latW.count
			strides[roleLat] = stride
		case roleLon:
			s, c = lonW.start, lonW.count
			strides[roleLon] = stride
		case roleOther:
			if lens[i] != 1 {
				return nil, fmt.Errorf("variable %q has unsupported dimension %q", variable, names[i])
			}
			s, c = 0, 1
		}
		start[i], count[i] = uint64(s), uint64(c) //nolint:gosec // G115: indices are non-negative.
		stride *= c
	}
	if _, ok := strides[roleLat]; !ok {
		return nil, fmt.Errorf("variable %q has no latitude dimension", variable)
	}
	if _, ok := strides[roleLon]; !ok {
		return nil, fmt.Errorf("variable %q has no longitude dimension", variable)
	}

	flat, err := ncutil.ReadSlab(v, start, count)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", variable, err)
	}

	values := make([][]float64, latW.count)
	for r := range values {
		values[r] = make([]float64, lonW.count)
		for c := range values[r] {
			base := latW.pos(r)*strides[roleLat] + lonW.pos(c)*strides[roleLon]
			values[r][c] = deepest(flat, base, nDepth, strides[roleDepth])
		}
	}
	return &interp.Grid2D{X: lonW.coords, Y: latW.coords, Values: values}, nil
}

// deepest returns the last non-NaN value of a depth column, or NaN.
func deepest(flat []float64, base, n, stride int) float64 {
	for d := n - 1; d >= 0; d-- {
		if v := flat[base+d*stride]; !math.IsNaN(v) {
			return v
		}
	}
	return math.NaN()
}
