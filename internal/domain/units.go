package domain

import (
	"math"
	"strings"
)

// KelvinOffset converts between Kelvin and Celsius.
const KelvinOffset = 273.15

// CelsiusUnit is the unit label written after Kelvin conversion.
const CelsiusUnit = "Celsius"

var kelvinUnits = map[string]bool{
	"k":              true,
	"kelvin":         true,
	"kelvins":        true,
	"degk":           true,
	"deg_k":          true,
	"degree_kelvin":  true,
	"degrees_kelvin": true,
}

// IsKelvin reports whether unit denotes the absolute temperature scale.
func IsKelvin(unit string) bool {
	return kelvinUnits[strings.ToLower(strings.TrimSpace(unit))]
}

// Normalize converts Kelvin series to Celsius and passes anything else
// through. The input slice is not modified.
func Normalize(unit string, values [][]float64) (string, [][]float64) {
	if !IsKelvin(unit) {
		return unit, values
	}
	out := make([][]float64, len(values))
	for i, row := range values {
		out[i] = make([]float64, len(row))
		for j, v := range row {
			out[i][j] = v - KelvinOffset
		}
	}
	return CelsiusUnit, out
}

// ApplyScale multiplies every value by factor. A zero factor means the
// dataset defined none and is treated as 1.
func ApplyScale(values [][]float64, factor float64) [][]float64 {
	if factor == 0 || factor == 1 {
		return values
	}
	out := make([][]float64, len(values))
	for i, row := range values {
		out[i] = make([]float64, len(row))
		for j, v := range row {
			out[i][j] = v * factor
		}
	}
	return out
}

// Magnitude combines component series as sqrt(sum(v_i^2)) element-wise.
// An element is NaN when any component is NaN there. All components must
// share the same shape.
func Magnitude(components ...[][]float64) [][]float64 {
	if len(components) == 0 {
		return nil
	}
	first := components[0]
	out := make([][]float64, len(first))
	for i := range first {
		out[i] = make([]float64, len(first[i]))
		for j := range first[i] {
			var sum float64
			for _, c := range components {
				v := c[i][j]
				sum += v * v
			}
			out[i][j] = math.Sqrt(sum)
		}
	}
	return out
}
