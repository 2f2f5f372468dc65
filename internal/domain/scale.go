package domain

import (
	"math"
	"strings"
)

// Category classifies a variable for display range purposes.
type Category string

const (
	CategoryScalar        Category = "scalar"
	CategoryVelocity      Category = "velocity"
	CategorySurfaceHeight Category = "surface_height"
	CategoryWind          Category = "wind"
	CategoryMagnitude     Category = "magnitude"
)

// RangePolicy describes how an automatic display range is derived.
type RangePolicy struct {
	// Symmetric widens [min, max] to [-m, m] around zero.
	Symmetric bool
	// ZeroFloor pins the lower bound to zero.
	ZeroFloor bool
}

var rangePolicies = map[Category]RangePolicy{
	CategoryScalar:        {},
	CategoryVelocity:      {Symmetric: true},
	CategorySurfaceHeight: {Symmetric: true},
	CategoryWind:          {Symmetric: true},
	CategoryMagnitude:     {ZeroFloor: true},
}

// ParseCategory maps a configured category name; unknown names are scalar.
func ParseCategory(s string) Category {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := rangePolicies[c]; ok {
		return c
	}
	return CategoryScalar
}

// PolicyFor returns the range policy of a category.
func PolicyFor(c Category) RangePolicy {
	return rangePolicies[ParseCategory(string(c))]
}

// AutoRange returns [min, max] over the unmasked values under the policy of
// category c. It returns false when no finite value exists.
func AutoRange(values [][]float64, c Category) ([2]float64, bool) {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, row := range values {
		for _, v := range row {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				continue
			}
			lo = math.Min(lo, v)
			hi = math.Max(hi, v)
		}
	}
	if lo > hi {
		return [2]float64{}, false
	}
	p := PolicyFor(c)
	if p.Symmetric {
		m := math.Max(math.Abs(lo), math.Abs(hi))
		lo, hi = -m, m
	}
	if p.ZeroFloor {
		lo = 0
	}
	return [2]float64{lo, hi}, true
}
