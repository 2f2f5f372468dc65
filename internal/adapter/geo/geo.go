// Package geo provides great-circle path and polygon helpers on the sphere.
package geo

import (
	"math"

	"github.com/golang/geo/s2"

	"go.ngs.io/ocean-navigator/internal/domain"
)

// EarthRadiusMeters is the mean Earth radius used for path distances.
const EarthRadiusMeters = 6371008.8

func toPoint(p domain.LatLon) s2.Point {
	return s2.PointFromLatLng(s2.LatLngFromDegrees(p.Lat, p.Lon))
}

func fromPoint(p s2.Point) domain.LatLon {
	ll := s2.LatLngFromPoint(p)
	return domain.LatLon{Lat: ll.Lat.Degrees(), Lon: ll.Lng.Degrees()}
}

// Distance returns the great-circle distance between a and b in meters.
func Distance(a, b domain.LatLon) float64 {
	return toPoint(a).Distance(toPoint(b)).Radians() * EarthRadiusMeters
}

// CumulativeDistances returns the along-path distance of every point,
// starting at 0 for the first one.
func CumulativeDistances(points []domain.LatLon) []float64 {
	out := make([]float64, len(points))
	for i := 1; i < len(points); i++ {
		out[i] = out[i-1] + Distance(points[i-1], points[i])
	}
	return out
}

// Densify spreads roughly n points along the great-circle segments of
// vertices, proportional to segment length. Every vertex is kept, so the
// result has at least len(vertices) points.
func Densify(vertices []domain.LatLon, n int) []domain.LatLon {
	if len(vertices) < 2 {
		return append([]domain.LatLon(nil), vertices...)
	}
	pts := make([]s2.Point, len(vertices))
	for i, v := range vertices {
		pts[i] = toPoint(v)
	}

	lengths := make([]float64, len(pts)-1)
	var total float64
	for i := range lengths {
		lengths[i] = s2.ChordAngleBetweenPoints(pts[i], pts[i+1]).Angle().Radians()
		total += lengths[i]
	}

	out := make([]domain.LatLon, 0, n+len(vertices))
	for i, l := range lengths {
		segments := 1
		if total > 0 && n > len(vertices) {
			segments = max(1, int(math.Round(float64(n-1)*l/total)))
		}
		out = append(out, vertices[i])
		for k := 1; k < segments; k++ {
			out = append(out, fromPoint(s2.Interpolate(float64(k)/float64(segments), pts[i], pts[i+1])))
		}
	}
	return append(out, vertices[len(vertices)-1])
}

// Polygon is a spherical polygon with optional holes.
type Polygon struct {
	outer *s2.Loop
	holes []*s2.Loop
}

// NewPolygon builds a polygon from an open outer ring and holes. Ring
// orientation does not matter: each loop is normalized to the smaller of
// the two regions it bounds.
func NewPolygon(outer []domain.LatLon, holes [][]domain.LatLon) *Polygon {
	p := &Polygon{outer: loop(outer)}
	for _, h := range holes {
		p.holes = append(p.holes, loop(h))
	}
	return p
}

func loop(ring []domain.LatLon) *s2.Loop {
	pts := make([]s2.Point, 0, len(ring))
	for _, v := range ring {
		pts = append(pts, toPoint(v))
	}
	l := s2.LoopFromPoints(pts)
	l.Normalize()
	return l
}

// Contains reports whether p is inside the outer ring and outside every hole.
func (p *Polygon) Contains(pt domain.LatLon) bool {
	s := toPoint(pt)
	if !p.outer.ContainsPoint(s) {
		return false
	}
	for _, h := range p.holes {
		if h.ContainsPoint(s) {
			return false
		}
	}
	return true
}
