package domain

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
)

// LatLon is a geographic position in degrees.
type LatLon struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// GeometryType tags the Geometry variant.
type GeometryType int

const (
	// GeometryPoint is a single position.
	GeometryPoint GeometryType = iota
	// GeometryPath is an ordered sequence of positions.
	GeometryPath
	// GeometryPolygon is an outer ring plus optional holes.
	GeometryPolygon
)

func (g GeometryType) String() string {
	switch g {
	case GeometryPoint:
		return "Point"
	case GeometryPath:
		return "LineString"
	case GeometryPolygon:
		return "Polygon"
	default:
		return fmt.Sprintf("GeometryType(%d)", int(g))
	}
}

// Geometry is the request geometry. It is built once from request input and
// not modified while a query runs.
type Geometry struct {
	Type   GeometryType
	Points []LatLon   // Point: one entry. Path: vertices. Polygon: outer ring.
	Holes  [][]LatLon // Polygon inner rings.
}

// NewPoint builds a point geometry.
func NewPoint(lat, lon float64) Geometry {
	return Geometry{Type: GeometryPoint, Points: []LatLon{{Lat: lat, Lon: lon}}}
}

// NewPath builds a path geometry.
func NewPath(points ...LatLon) Geometry {
	return Geometry{Type: GeometryPath, Points: append([]LatLon(nil), points...)}
}

// Bounds returns the bounding box of all geometry vertices.
func (g Geometry) Bounds() Bounds {
	b := EmptyBounds()
	for _, p := range g.Points {
		b = b.Extend(p)
	}
	return b
}

// Validate checks vertex counts and coordinate ranges.
func (g Geometry) Validate() error {
	switch g.Type {
	case GeometryPoint:
		if len(g.Points) != 1 {
			return fmt.Errorf("%w: point needs exactly one position", ErrInvalidRequest)
		}
	case GeometryPath:
		if len(g.Points) < 2 {
			return fmt.Errorf("%w: path needs at least two positions", ErrInvalidRequest)
		}
	case GeometryPolygon:
		if len(g.Points) < 3 {
			return fmt.Errorf("%w: polygon ring needs at least three positions", ErrInvalidRequest)
		}
	default:
		return fmt.Errorf("%w: unsupported geometry %v", ErrInvalidRequest, g.Type)
	}
	for _, p := range g.Points {
		if p.Lat < -90 || p.Lat > 90 || math.IsNaN(p.Lat) {
			return fmt.Errorf("%w: latitude %.4f out of range", ErrInvalidRequest, p.Lat)
		}
		if math.IsNaN(p.Lon) || math.IsInf(p.Lon, 0) {
			return fmt.Errorf("%w: invalid longitude", ErrInvalidRequest)
		}
	}
	return nil
}

// ParseGeometry decodes GeoJSON-style coordinates ([lon, lat] order).
// Accepted types: Point, LineString (alias Path), Polygon.
func ParseGeometry(kind string, coordinates json.RawMessage) (Geometry, error) {
	var g Geometry
	switch strings.ToLower(kind) {
	case "point":
		var c []float64
		if err := json.Unmarshal(coordinates, &c); err != nil {
			return g, fmt.Errorf("%w: point coordinates: %v", ErrInvalidRequest, err)
		}
		p, err := toLatLon(c)
		if err != nil {
			return g, err
		}
		g = Geometry{Type: GeometryPoint, Points: []LatLon{p}}
	case "linestring", "path":
		var cs [][]float64
		if err := json.Unmarshal(coordinates, &cs); err != nil {
			return g, fmt.Errorf("%w: path coordinates: %v", ErrInvalidRequest, err)
		}
		pts, err := toLatLons(cs)
		if err != nil {
			return g, err
		}
		g = Geometry{Type: GeometryPath, Points: pts}
	case "polygon":
		var rings [][][]float64
		if err := json.Unmarshal(coordinates, &rings); err != nil {
			return g, fmt.Errorf("%w: polygon coordinates: %v", ErrInvalidRequest, err)
		}
		if len(rings) == 0 {
			return g, fmt.Errorf("%w: polygon without rings", ErrInvalidRequest)
		}
		outer, err := toLatLons(rings[0])
		if err != nil {
			return g, err
		}
		g = Geometry{Type: GeometryPolygon, Points: openRing(outer)}
		for _, r := range rings[1:] {
			hole, err := toLatLons(r)
			if err != nil {
				return g, err
			}
			g.Holes = append(g.Holes, openRing(hole))
		}
	default:
		return g, fmt.Errorf("%w: unsupported geometry type %q", ErrInvalidRequest, kind)
	}
	return g, g.Validate()
}

func toLatLon(c []float64) (LatLon, error) {
	if len(c) < 2 {
		return LatLon{}, fmt.Errorf("%w: position needs [lon, lat]", ErrInvalidRequest)
	}
	return LatLon{Lat: c[1], Lon: c[0]}, nil
}

func toLatLons(cs [][]float64) ([]LatLon, error) {
	out := make([]LatLon, 0, len(cs))
	for _, c := range cs {
		p, err := toLatLon(c)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

// openRing drops the closing vertex of a GeoJSON ring.
func openRing(ring []LatLon) []LatLon {
	if n := len(ring); n > 1 && ring[0] == ring[n-1] {
		return ring[:n-1]
	}
	return ring
}

// Bounds is a lat/lon bounding box.
type Bounds struct {
	MinLat, MaxLat float64
	MinLon, MaxLon float64
}

// EmptyBounds returns an inverted box that any Extend call replaces.
func EmptyBounds() Bounds {
	return Bounds{
		MinLat: math.Inf(1), MaxLat: math.Inf(-1),
		MinLon: math.Inf(1), MaxLon: math.Inf(-1),
	}
}

// Extend grows the box to include p.
func (b Bounds) Extend(p LatLon) Bounds {
	b.MinLat = math.Min(b.MinLat, p.Lat)
	b.MaxLat = math.Max(b.MaxLat, p.Lat)
	b.MinLon = math.Min(b.MinLon, p.Lon)
	b.MaxLon = math.Max(b.MaxLon, p.Lon)
	return b
}

// Pad grows the box by margin degrees on every side.
func (b Bounds) Pad(margin float64) Bounds {
	return Bounds{
		MinLat: b.MinLat - margin, MaxLat: b.MaxLat + margin,
		MinLon: b.MinLon - margin, MaxLon: b.MaxLon + margin,
	}
}

// Empty reports whether the box contains no point.
func (b Bounds) Empty() bool {
	return b.MinLat > b.MaxLat || b.MinLon > b.MaxLon
}

// Contains reports whether p lies inside the box (inclusive).
func (b Bounds) Contains(p LatLon) bool {
	return p.Lat >= b.MinLat && p.Lat <= b.MaxLat && p.Lon >= b.MinLon && p.Lon <= b.MaxLon
}
