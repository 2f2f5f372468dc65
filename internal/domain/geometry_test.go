package domain

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestParseGeometry(t *testing.T) {
	g, err := ParseGeometry("Point", json.RawMessage(`[-63.5, 44.6]`))
	if err != nil {
		t.Fatalf("point: %v", err)
	}
	if g.Type != GeometryPoint || g.Points[0].Lat != 44.6 || g.Points[0].Lon != -63.5 {
		t.Errorf("point parsed as %+v", g)
	}

	g, err = ParseGeometry("LineString", json.RawMessage(`[[-60, 40], [-50, 45]]`))
	if err != nil {
		t.Fatalf("path: %v", err)
	}
	if g.Type != GeometryPath || len(g.Points) != 2 {
		t.Errorf("path parsed as %+v", g)
	}

	g, err = ParseGeometry("Polygon", json.RawMessage(`[[[0,0],[10,0],[10,10],[0,10],[0,0]],[[2,2],[3,2],[3,3],[2,2]]]`))
	if err != nil {
		t.Fatalf("polygon: %v", err)
	}
	if len(g.Points) != 4 {
		t.Errorf("closing vertex must be dropped, got %d points", len(g.Points))
	}
	if len(g.Holes) != 1 || len(g.Holes[0]) != 3 {
		t.Errorf("holes parsed as %+v", g.Holes)
	}
	b := g.Bounds()
	if b.MinLat != 0 || b.MaxLat != 10 || b.MinLon != 0 || b.MaxLon != 10 {
		t.Errorf("Bounds = %+v", b)
	}
}

func TestParseGeometry_Invalid(t *testing.T) {
	cases := []struct {
		kind   string
		coords string
	}{
		{"Point", `[1]`},
		{"LineString", `[[0, 0]]`},
		{"Polygon", `[]`},
		{"Circle", `[0, 0]`},
		{"Point", `[0, 95]`},
		{"Point", `"nope"`},
	}
	for _, c := range cases {
		_, err := ParseGeometry(c.kind, json.RawMessage(c.coords))
		if !errors.Is(err, ErrInvalidRequest) {
			t.Errorf("ParseGeometry(%s, %s): expected ErrInvalidRequest, got %v", c.kind, c.coords, err)
		}
	}
}
