package domain

import (
	"math"
	"time"
)

// SampleSeries is the result of sampling one variable set along a geometry.
// Values and Mask are indexed [time][point]. Points and Distances only hold
// positions that fell inside the dataset domain.
type SampleSeries struct {
	Variable     string
	Unit         string
	Depth        DepthSpec
	Times        []time.Time
	Points       []LatLon
	Distances    []float64 // Cumulative great-circle distance in meters.
	Values       [][]float64
	Mask         [][]bool
	BottomDepthM []float64 // Seabed depth per point, nil when unavailable.
}

// Valid reports whether at least one unmasked value exists.
func (s *SampleSeries) Valid() bool {
	for _, row := range s.Values {
		for _, v := range row {
			if !math.IsNaN(v) {
				return true
			}
		}
	}
	return false
}

// MaskFromValues builds a mask marking every NaN entry.
func MaskFromValues(values [][]float64) [][]bool {
	mask := make([][]bool, len(values))
	for i, row := range values {
		mask[i] = make([]bool, len(row))
		for j, v := range row {
			mask[i][j] = math.IsNaN(v)
		}
	}
	return mask
}
