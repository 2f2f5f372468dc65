package dataset

import (
	"context"
	"errors"
	"math"
	"path/filepath"
	"testing"
	"time"

	"go.ngs.io/ocean-navigator/internal/adapter/ncutil/nctest"
	"go.ngs.io/ocean-navigator/internal/domain"
)

const fill = float32(-999)

var (
	fixtureLats   = []float64{4, 3, 2, 1, 0} // Descending, as in many model outputs.
	fixtureLons   = []float64{0, 1, 2, 3, 4, 5}
	fixtureDepths = []float64{0, 10, 50, 100}
)

// fixtureValue is linear in lat and lon so bilinear sampling is exact.
func fixtureValue(t, d int, lat, lon float64) float32 {
	return float32(100*t+10*d) + float32(lat+lon)
}

// createModelFile writes a [time, depth, lat, lon] temperature file. The
// deepest level is missing east of lon 3 to exercise bottom selection.
func createModelFile(t *testing.T) string {
	t.Helper()
	nt, nd, nlat, nlon := 3, len(fixtureDepths), len(fixtureLats), len(fixtureLons)
	data := make([]float32, 0, nt*nd*nlat*nlon)
	for ti := 0; ti < nt; ti++ {
		for d := 0; d < nd; d++ {
			for _, lat := range fixtureLats {
				for _, lon := range fixtureLons {
					if d == nd-1 && lon >= 3 {
						data = append(data, fill)
						continue
					}
					data = append(data, fixtureValue(ti, d, lat, lon))
				}
			}
		}
	}

	path := filepath.Join(t.TempDir(), "model.nc")
	nctest.Create(t, path, nctest.File{
		Dims: []nctest.Dim{{Name: "time", Len: nt}, {Name: "depth", Len: nd}, {Name: "lat", Len: nlat}, {Name: "lon", Len: nlon}},
		Vars: []nctest.Var{
			{Name: "time", Dims: []string{"time"}, Data: []float64{0, 1, 2}, Attrs: map[string]any{"units": "hours since 2020-01-01 00:00:00"}},
			{Name: "depth", Dims: []string{"depth"}, Data: fixtureDepths},
			{Name: "lat", Dims: []string{"lat"}, Data: fixtureLats},
			{Name: "lon", Dims: []string{"lon"}, Data: fixtureLons},
			{
				Name:  "votemper",
				Dims:  []string{"time", "depth", "lat", "lon"},
				Data:  data,
				Attrs: map[string]any{"units": "degree_Celsius", "_FillValue": fill},
			},
		},
	})
	return path
}

func openFixture(t *testing.T) *NetCDFHandle {
	t.Helper()
	h, err := Open(context.Background(), createModelFile(t))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = h.Close() })
	return h
}

func TestOpen_Axes(t *testing.T) {
	h := openFixture(t)

	if got := h.Depths(); len(got) != 4 || got[3] != 100 {
		t.Errorf("Depths() = %v", got)
	}
	times := h.Timestamps()
	if len(times) != 3 {
		t.Fatalf("len(Timestamps()) = %d, want 3", len(times))
	}
	want := time.Date(2020, 1, 1, 2, 0, 0, 0, time.UTC)
	if !times[2].Equal(want) {
		t.Errorf("Timestamps()[2] = %v, want %v", times[2], want)
	}
	if got := h.VariableUnit("votemper"); got != "degree_Celsius" {
		t.Errorf("VariableUnit = %q", got)
	}
}

func TestOpen_MissingFile(t *testing.T) {
	_, err := Open(context.Background(), filepath.Join(t.TempDir(), "absent.nc"))
	if !errors.Is(err, domain.ErrDatasetOpen) {
		t.Fatalf("Open() error = %v, want ErrDatasetOpen", err)
	}
}

func TestResolveDepth_ClampsIndex(t *testing.T) {
	h := openFixture(t)

	d, err := h.ResolveDepth("7")
	if err != nil {
		t.Fatalf("ResolveDepth: %v", err)
	}
	if d.Index != 3 || d.ValueM != 100 {
		t.Errorf("ResolveDepth(7) = %+v, want index 3", d)
	}
	d, err = h.ResolveDepth("Bottom")
	if err != nil || !d.Bottom {
		t.Errorf("ResolveDepth(Bottom) = %+v, %v", d, err)
	}
}

func TestConvertToTimestamp(t *testing.T) {
	h := openFixture(t)

	tests := []struct {
		raw     string
		want    int
		wantErr bool
	}{
		{raw: "1", want: 1},
		{raw: "2020-01-01T01:10:00Z", want: 1},
		{raw: "2020-01-01T02:20:00Z", want: 2},
		{raw: "2020-01-01", want: 0},
		{raw: "3", wantErr: true},
		{raw: "-1", wantErr: true},
		{raw: "2019-12-31", wantErr: true},
		{raw: "2020-01-01T03:00:00Z", wantErr: true},
		{raw: "yesterday", wantErr: true},
	}
	for _, tt := range tests {
		got, err := h.ConvertToTimestamp(tt.raw)
		if tt.wantErr {
			if !errors.Is(err, domain.ErrTimeResolution) {
				t.Errorf("ConvertToTimestamp(%q) error = %v, want ErrTimeResolution", tt.raw, err)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("ConvertToTimestamp(%q) = %d, %v, want %d", tt.raw, got, err, tt.want)
		}
	}
}

func TestPath_Level(t *testing.T) {
	h := openFixture(t)
	points := []domain.LatLon{{Lat: 1.5, Lon: 2.5}, {Lat: 3.25, Lon: 0.5}}

	got, err := h.Path(context.Background(), points, domain.DepthSpec{Index: 1, ValueM: 10}, []int{0, 2}, "votemper")
	if err != nil {
		t.Fatalf("Path: %v", err)
	}
	if len(got) != 2 || len(got[0]) != 2 {
		t.Fatalf("Path shape = %dx%d, want 2x2", len(got), len(got[0]))
	}
	for ti, tIdx := range []int{0, 2} {
		for pi, p := range points {
			want := float64(fixtureValue(tIdx, 1, p.Lat, p.Lon))
			if math.Abs(got[ti][pi]-want) > 1e-4 {
				t.Errorf("Path[%d][%d] = %v, want %v", ti, pi, got[ti][pi], want)
			}
		}
	}
}

func TestPath_Bottom(t *testing.T) {
	h := openFixture(t)
	points := []domain.LatLon{{Lat: 1, Lon: 1}, {Lat: 1, Lon: 4}}

	got, err := h.Path(context.Background(), points, domain.DepthSpec{Bottom: true}, []int{0}, "votemper")
	if err != nil {
		t.Fatalf("Path: %v", err)
	}
	if want := float64(fixtureValue(0, 3, 1, 1)); got[0][0] != want {
		t.Errorf("bottom at full column = %v, want %v", got[0][0], want)
	}
	if want := float64(fixtureValue(0, 2, 1, 4)); got[0][1] != want {
		t.Errorf("bottom above missing level = %v, want %v", got[0][1], want)
	}
}

func TestPath_MaskedLevelIsNaN(t *testing.T) {
	h := openFixture(t)
	points := []domain.LatLon{{Lat: 2, Lon: 4.5}}

	got, err := h.Path(context.Background(), points, domain.DepthSpec{Index: 3, ValueM: 100}, []int{0}, "votemper")
	if err != nil {
		t.Fatalf("Path: %v", err)
	}
	if !math.IsNaN(got[0][0]) {
		t.Errorf("Path over fill values = %v, want NaN", got[0][0])
	}
}

func TestPath_CanceledContext(t *testing.T) {
	h := openFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := h.Path(ctx, []domain.LatLon{{Lat: 1, Lon: 1}}, domain.DepthSpec{}, []int{0}, "votemper")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Path() error = %v, want context.Canceled", err)
	}
}

func TestPath_UnknownVariable(t *testing.T) {
	h := openFixture(t)

	_, err := h.Path(context.Background(), []domain.LatLon{{Lat: 1, Lon: 1}}, domain.DepthSpec{}, []int{0}, "vosaline")
	if !errors.Is(err, domain.ErrUnknownVariable) {
		t.Fatalf("Path() error = %v, want ErrUnknownVariable", err)
	}
}

func TestContainsAndGridPoints(t *testing.T) {
	h := openFixture(t)

	if !h.Contains(domain.LatLon{Lat: 2, Lon: 2}) {
		t.Error("Contains(2, 2) = false, want true")
	}
	if h.Contains(domain.LatLon{Lat: 10, Lon: 2}) || h.Contains(domain.LatLon{Lat: 2, Lon: -170}) {
		t.Error("Contains accepted a point outside the grid")
	}

	pts := h.GridPoints(domain.Bounds{MinLat: 0.5, MaxLat: 2.5, MinLon: 1, MaxLon: 2})
	if len(pts) != 4 {
		t.Errorf("GridPoints = %v, want 4 nodes", pts)
	}
}
