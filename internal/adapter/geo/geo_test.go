package geo

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.ngs.io/ocean-navigator/internal/domain"
)

func TestDistance_OneDegreeOfLatitude(t *testing.T) {
	d := Distance(domain.LatLon{Lat: 0, Lon: 0}, domain.LatLon{Lat: 1, Lon: 0})
	assert.InDelta(t, 111195, d, 5)
}

func TestCumulativeDistances(t *testing.T) {
	pts := []domain.LatLon{{Lat: 0, Lon: 0}, {Lat: 0, Lon: 1}, {Lat: 0, Lon: 2}}
	got := CumulativeDistances(pts)
	require.Len(t, got, 3)
	assert.Equal(t, 0.0, got[0])
	assert.InDelta(t, 2*got[1], got[2], 1e-6)
}

func TestDensify(t *testing.T) {
	vertices := []domain.LatLon{{Lat: 40, Lon: -60}, {Lat: 40, Lon: -50}, {Lat: 45, Lon: -50}}
	got := Densify(vertices, 100)

	require.GreaterOrEqual(t, len(got), 95)
	require.LessOrEqual(t, len(got), 105)
	assert.Equal(t, vertices[0], got[0])
	assert.Equal(t, vertices[2], got[len(got)-1])
	assert.Contains(t, got, vertices[1])

	dist := CumulativeDistances(got)
	for i := 1; i < len(dist); i++ {
		assert.Greater(t, dist[i], dist[i-1], "distances must increase")
	}
	// Densified points follow the great circle, so total length matches.
	direct := Distance(vertices[0], vertices[1]) + Distance(vertices[1], vertices[2])
	assert.InDelta(t, direct, dist[len(dist)-1], 1)
}

func TestDensify_FewPointsKeepsVertices(t *testing.T) {
	vertices := []domain.LatLon{{Lat: 0, Lon: 0}, {Lat: 1, Lon: 1}, {Lat: 2, Lon: 0}}
	assert.Equal(t, vertices, Densify(vertices, 2))
	assert.Len(t, Densify(vertices[:1], 10), 1)
}

func TestPolygonContains(t *testing.T) {
	outer := []domain.LatLon{{Lat: 0, Lon: 0}, {Lat: 0, Lon: 10}, {Lat: 10, Lon: 10}, {Lat: 10, Lon: 0}}
	hole := []domain.LatLon{{Lat: 4, Lon: 4}, {Lat: 4, Lon: 6}, {Lat: 6, Lon: 6}, {Lat: 6, Lon: 4}}

	for _, ring := range [][]domain.LatLon{outer, reverse(outer)} {
		p := NewPolygon(ring, [][]domain.LatLon{hole})
		assert.True(t, p.Contains(domain.LatLon{Lat: 2, Lon: 2}))
		assert.False(t, p.Contains(domain.LatLon{Lat: 5, Lon: 5}), "inside hole")
		assert.False(t, p.Contains(domain.LatLon{Lat: 20, Lon: 20}))
		assert.False(t, p.Contains(domain.LatLon{Lat: -30, Lon: 170}))
	}
	assert.False(t, math.IsNaN(Distance(outer[0], outer[2])))
}

func reverse(in []domain.LatLon) []domain.LatLon {
	out := make([]domain.LatLon, len(in))
	for i, p := range in {
		out[len(in)-1-i] = p
	}
	return out
}
