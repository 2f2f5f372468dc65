package usecase

import (
	"context"
	"math"
	"strconv"
	"time"

	"go.ngs.io/ocean-navigator/internal/adapter/dataset"
	"go.ngs.io/ocean-navigator/internal/domain"
)

// fakeHandle is an in-memory dataset on an integer 0..10 lat/lon grid.
// Variables listed in perPoint return those values by point index; others
// come from field.
type fakeHandle struct {
	times    []time.Time
	depths   []float64
	units    map[string]string
	perPoint map[string][]float64
	field    func(variable string, t int, p domain.LatLon) float64
	closed   int
	reads    int
}

func newFakeHandle() *fakeHandle {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	return &fakeHandle{
		times:  []time.Time{base, base.Add(time.Hour), base.Add(2 * time.Hour)},
		depths: []float64{0, 10, 20, 30},
		units:  map[string]string{"votemper": "Kelvin", "vozocrtx": "m/s", "vomecrty": "m/s"},
		field: func(variable string, t int, p domain.LatLon) float64 {
			switch variable {
			case "votemper":
				return 280 + float64(t)
			case "vozocrtx":
				return 3
			case "vomecrty":
				return 4
			default:
				return math.NaN()
			}
		},
	}
}

func (f *fakeHandle) Depths() []float64 { return f.depths }
func (f *fakeHandle) Timestamps() []time.Time { return f.times }

func (f *fakeHandle) ConvertToTimestamp(raw string) (int, error) {
	i, err := strconv.Atoi(raw)
	if err != nil || i < 0 || i >= len(f.times) {
		return 0, domain.ErrTimeResolution
	}
	return i, nil
}

func (f *fakeHandle) ResolveDepth(raw string) (domain.DepthSpec, error) {
	return domain.ResolveDepth(raw, f.depths)
}

func (f *fakeHandle) Contains(p domain.LatLon) bool {
	return p.Lat >= 0 && p.Lat <= 10 && p.Lon >= 0 && p.Lon <= 10
}

func (f *fakeHandle) GridPoints(b domain.Bounds) []domain.LatLon {
	var out []domain.LatLon
	for lat := 0; lat <= 10; lat++ {
		for lon := 0; lon <= 10; lon++ {
			p := domain.LatLon{Lat: float64(lat), Lon: float64(lon)}
			if b.Contains(p) {
				out = append(out, p)
			}
		}
	}
	return out
}

func (f *fakeHandle) Path(_ context.Context, points []domain.LatLon, _ domain.DepthSpec, times []int, variable string) ([][]float64, error) {
	f.reads++
	out := make([][]float64, len(times))
	for i, t := range times {
		out[i] = make([]float64, len(points))
		for j, p := range points {
			if vals, ok := f.perPoint[variable]; ok {
				out[i][j] = vals[j]
				continue
			}
			out[i][j] = f.field(variable, t, p)
		}
	}
	return out, nil
}

func (f *fakeHandle) VariableUnit(v string) string { return f.units[v] }

func (f *fakeHandle) Close() error {
	f.closed++
	return nil
}

// fakeOpener hands out one handle and counts opens.
type fakeOpener struct {
	h     *fakeHandle
	opens int
}

func (o *fakeOpener) Open(context.Context, string) (dataset.Handle, error) {
	o.opens++
	return o.h, nil
}

type fakeBathymetry struct{ depth float64 }

func (b fakeBathymetry) DepthsAlong(_ context.Context, points []domain.LatLon) ([]float64, error) {
	out := make([]float64, len(points))
	for i := range out {
		out[i] = b.depth
	}
	return out, nil
}

func (fakeBathymetry) Close() error { return nil }

const testRegistry = `{
  "model": {
    "url": "/data/model.nc",
    "variables": {
      "votemper": {"name": "Temperature", "category": "scalar"},
      "vozocrtx": {"name": "Water Velocity X"},
      "vomecrty": {"name": "Water Velocity Y"},
      "magwatervel": {"name": "Water Velocity", "components": ["vozocrtx", "vomecrty"]},
      "speed": {"name": "Speed", "components": ["vozocrtx", "vomecrty"], "vector_name": "names[0] + ' magnitude'"}
    }
  }
}`
