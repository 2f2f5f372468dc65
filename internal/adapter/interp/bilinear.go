// Package interp provides grid and scattered-point interpolation.
package interp

import (
	"fmt"
	"math"
	"sort"
)

// Point2D represents a 2D coordinate.
type Point2D struct {
	X float64
	Y float64
}

// GridCell represents a cell in a regular grid with four corner values.
type GridCell struct {
	// Corner coordinates (forming a rectangle).
	X0, X1 float64 // X boundaries (e.g., longitude).
	Y0, Y1 float64 // Y boundaries (e.g., latitude).

	// Values at the four corners:
	// V00: value at (X0, Y0).
	// V10: value at (X1, Y0).
	// V01: value at (X0, Y1).
	// V11: value at (X1, Y1).
	V00, V10, V01, V11 float64
}

// BilinearInterpolate performs bilinear interpolation within a grid cell
// Formula:
//
//	f(x,y) ≈ (1-t)(1-u)f(x0,y0) + t(1-u)f(x1,y0) + (1-t)u*f(x0,y1) + tu*f(x1,y1)
//
// where:
//
//	t = (x - x0) / (x1 - x0)
//	u = (y - y0) / (y1 - y0)
func BilinearInterpolate(cell GridCell, x, y float64) (float64, error) {
	// Validate grid cell.
	if cell.X1 <= cell.X0 {
		return 0, fmt.Errorf("invalid grid cell: X1 must be > X0")
	}
	if cell.Y1 <= cell.Y0 {
		return 0, fmt.Errorf("invalid grid cell: Y1 must be > Y0")
	}

	// Check if point is within cell (with small tolerance for floating point).
	const epsilon = 1e-9
	if x < cell.X0-epsilon || x > cell.X1+epsilon {
		return 0, fmt.Errorf("x coordinate %.6f is outside grid cell [%.6f, %.6f]", x, cell.X0, cell.X1)
	}
	if y < cell.Y0-epsilon || y > cell.Y1+epsilon {
		return 0, fmt.Errorf("y coordinate %.6f is outside grid cell [%.6f, %.6f]", y, cell.Y0, cell.Y1)
	}

	// Calculate normalized coordinates (0 to 1).
	t := (x - cell.X0) / (cell.X1 - cell.X0)
	u := (y - cell.Y0) / (cell.Y1 - cell.Y0)

	// Clamp to [0, 1] to handle edge cases with floating point precision.
	t = math.Max(0, math.Min(1, t))
	u = math.Max(0, math.Min(1, u))

	// Bilinear interpolation formula. Zero-weight corners are skipped so a
	// masked (NaN) neighbour does not mask a point on a valid node or edge.
	weights := [4]float64{(1 - t) * (1 - u), t * (1 - u), (1 - t) * u, t * u}
	corners := [4]float64{cell.V00, cell.V10, cell.V01, cell.V11}
	var result float64
	for i, w := range weights {
		if w == 0 {
			continue
		}
		result += w * corners[i]
	}

	return result, nil
}

// Grid2D represents a regular 2D grid for interpolation.
type Grid2D struct {
	X      []float64   // X coordinates (e.g., longitudes).
	Y      []float64   // Y coordinates (e.g., latitudes).
	Values [][]float64 // Values[i][j] corresponds to (X[j], Y[i]).
}

// Validate checks if the grid is valid.
func (g *Grid2D) Validate() error {
	if len(g.X) < 2 {
		return fmt.Errorf("grid must have at least 2 X coordinates")
	}
	if len(g.Y) < 2 {
		return fmt.Errorf("grid must have at least 2 Y coordinates")
	}
	if len(g.Values) != len(g.Y) {
		return fmt.Errorf("number of value rows (%d) must match Y coordinates (%d)", len(g.Values), len(g.Y))
	}

	for i, row := range g.Values {
		if len(row) != len(g.X) {
			return fmt.Errorf("row %d has %d values, expected %d", i, len(row), len(g.X))
		}
	}

	// Check that coordinates are sorted and unique.
	for i := 1; i < len(g.X); i++ {
		if g.X[i] <= g.X[i-1] {
			return fmt.Errorf("X coordinates must be strictly increasing")
		}
	}
	for i := 1; i < len(g.Y); i++ {
		if g.Y[i] <= g.Y[i-1] {
			return fmt.Errorf("Y coordinates must be strictly increasing")
		}
	}

	return nil
}

// InterpolateAt performs bilinear interpolation at a given point.
// A NaN corner value propagates to the result, so masked cells stay masked.
func (g *Grid2D) InterpolateAt(x, y float64) (float64, error) {
	if err := g.Validate(); err != nil {
		return 0, fmt.Errorf("invalid grid: %w", err)
	}
	return g.interpolate(x, y)
}

// Sample interpolates the grid at every point. Points outside the grid or in
// cells touching a masked corner yield NaN.
func (g *Grid2D) Sample(points []Point2D) ([]float64, error) {
	if err := g.Validate(); err != nil {
		return nil, fmt.Errorf("invalid grid: %w", err)
	}
	out := make([]float64, len(points))
	for i, p := range points {
		v, err := g.interpolate(p.X, p.Y)
		if err != nil {
			v = math.NaN()
		}
		out[i] = v
	}
	return out, nil
}

// Contains reports whether (x, y) lies within the grid extent.
func (g *Grid2D) Contains(x, y float64) bool {
	if len(g.X) == 0 || len(g.Y) == 0 {
		return false
	}
	return x >= g.X[0] && x <= g.X[len(g.X)-1] && y >= g.Y[0] && y <= g.Y[len(g.Y)-1]
}

func (g *Grid2D) interpolate(x, y float64) (float64, error) {
	xIdx := cellIndex(g.X, x)
	if xIdx == -1 {
		return 0, fmt.Errorf("x coordinate %.6f is outside grid range [%.6f, %.6f]", x, g.X[0], g.X[len(g.X)-1])
	}
	yIdx := cellIndex(g.Y, y)
	if yIdx == -1 {
		return 0, fmt.Errorf("y coordinate %.6f is outside grid range [%.6f, %.6f]", y, g.Y[0], g.Y[len(g.Y)-1])
	}

	cell := GridCell{
		X0:  g.X[xIdx],
		X1:  g.X[xIdx+1],
		Y0:  g.Y[yIdx],
		Y1:  g.Y[yIdx+1],
		V00: g.Values[yIdx][xIdx],
		V10: g.Values[yIdx][xIdx+1],
		V01: g.Values[yIdx+1][xIdx],
		V11: g.Values[yIdx+1][xIdx+1],
	}

	return BilinearInterpolate(cell, x, y)
}

// cellIndex returns i such that axis[i] <= v <= axis[i+1], or -1.
func cellIndex(axis []float64, v float64) int {
	n := len(axis)
	if n < 2 || v < axis[0] || v > axis[n-1] {
		return -1
	}
	i := sort.SearchFloat64s(axis, v)
	if i > 0 {
		i--
	}
	if i > n-2 {
		i = n - 2
	}
	return i
}
