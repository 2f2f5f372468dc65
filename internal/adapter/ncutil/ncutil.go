// Package ncutil holds shared NetCDF read helpers for gridded datasets.
package ncutil

import (
	"fmt"
	"math"
	"strings"
	"sync"

	"github.com/fhs/go-netcdf/netcdf"
)

// Mu serializes calls into the netCDF C library, which is not thread-safe.
// Callers hold it for the whole open/read/close sequence.
var Mu sync.Mutex

// LatNames and LonNames are the coordinate variable names tried in order.
var (
	LatNames = []string{"latitude", "lat", "nav_lat", "y"}
	LonNames = []string{"longitude", "lon", "nav_lon", "x"}
)

// FindVar returns the first variable in names that exists in nc.
func FindVar(nc netcdf.Dataset, names ...string) (netcdf.Var, string, error) {
	for _, name := range names {
		if name == "" {
			continue
		}
		if v, err := nc.Var(name); err == nil {
			return v, name, nil
		}
	}
	return netcdf.Var{}, "", fmt.Errorf("variable not found (tried: %v)", names)
}

// Shape returns the dimension names and lengths of v.
func Shape(v netcdf.Var) ([]string, []int, error) {
	dims, err := v.Dims()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get dimensions: %w", err)
	}
	names := make([]string, len(dims))
	lens := make([]int, len(dims))
	for i, d := range dims {
		if names[i], err = d.Name(); err != nil {
			return nil, nil, fmt.Errorf("failed to get dim name: %w", err)
		}
		n, err := d.Len()
		if err != nil {
			return nil, nil, fmt.Errorf("failed to get dim length: %w", err)
		}
		lens[i] = int(n) //nolint:gosec // G115: dimension lengths fit in int.
	}
	return names, lens, nil
}

// ReadAxis reads a whole 1D coordinate variable as float64.
func ReadAxis(v netcdf.Var) ([]float64, error) {
	_, lens, err := Shape(v)
	if err != nil {
		return nil, err
	}
	if len(lens) != 1 {
		return nil, fmt.Errorf("expected 1D variable, got %dD", len(lens))
	}
	return ReadSlab(v, []uint64{0}, []uint64{uint64(lens[0])})
}

// ReadSlab reads the hyperslab [start, start+count) of v as a flat float64
// slice in row-major order. _FillValue and missing_value become NaN, then
// scale_factor and add_offset are applied.
func ReadSlab(v netcdf.Var, start, count []uint64) ([]float64, error) {
	varType, err := v.Type()
	if err != nil {
		return nil, fmt.Errorf("failed to get variable type: %w", err)
	}
	size := 1
	for _, c := range count {
		size *= int(c) //nolint:gosec // G115: slab sizes fit in int.
	}

	var out []float64
	switch varType {
	case netcdf.DOUBLE:
		out = make([]float64, size)
		if err := v.ReadFloat64Slice(out, start, count); err != nil {
			return nil, fmt.Errorf("failed to read float64 slab: %w", err)
		}
	case netcdf.FLOAT:
		buf := make([]float32, size)
		if err := v.ReadFloat32Slice(buf, start, count); err != nil {
			return nil, fmt.Errorf("failed to read float32 slab: %w", err)
		}
		out = widen(buf)
	case netcdf.INT:
		buf := make([]int32, size)
		if err := v.ReadInt32Slice(buf, start, count); err != nil {
			return nil, fmt.Errorf("failed to read int32 slab: %w", err)
		}
		out = widen(buf)
	case netcdf.SHORT:
		buf := make([]int16, size)
		if err := v.ReadInt16Slice(buf, start, count); err != nil {
			return nil, fmt.Errorf("failed to read int16 slab: %w", err)
		}
		out = widen(buf)
	case netcdf.BYTE:
		buf := make([]int8, size)
		if err := v.ReadInt8Slice(buf, start, count); err != nil {
			return nil, fmt.Errorf("failed to read int8 slab: %w", err)
		}
		out = widen(buf)
	case netcdf.UBYTE, netcdf.CHAR, netcdf.USHORT, netcdf.UINT, netcdf.INT64, netcdf.UINT64, netcdf.STRING:
		return nil, fmt.Errorf("unsupported data type: %v (expected DOUBLE, FLOAT, INT, SHORT or BYTE)", varType)
	}

	if fill, ok := FillValue(v); ok {
		for i, x := range out {
			if x == fill {
				out[i] = math.NaN()
			}
		}
	}
	scale, hasScale := AttrFloat(v, "scale_factor")
	offset, hasOffset := AttrFloat(v, "add_offset")
	if (hasScale && scale != 1 && scale != 0) || (hasOffset && offset != 0) {
		if !hasScale || scale == 0 {
			scale = 1
		}
		for i := range out {
			out[i] = out[i]*scale + offset
		}
	}
	return out, nil
}

func widen[T int8 | int16 | int32 | float32](in []T) []float64 {
	out := make([]float64, len(in))
	for i, x := range in {
		out[i] = float64(x)
	}
	return out
}

// FillValue returns the _FillValue or missing_value attribute if present.
func FillValue(v netcdf.Var) (float64, bool) {
	for _, name := range []string{"_FillValue", "missing_value"} {
		if fv, ok := AttrFloat(v, name); ok {
			return fv, true
		}
	}
	return 0, false
}

// AttrFloat reads the first element of a numeric attribute.
func AttrFloat(v netcdf.Var, name string) (float64, bool) {
	a := v.Attr(name)
	n, err := a.Len()
	if err != nil || n == 0 {
		return 0, false
	}
	t, err := a.Type()
	if err != nil {
		return 0, false
	}
	switch t {
	case netcdf.DOUBLE:
		buf := make([]float64, n)
		if a.ReadFloat64s(buf) == nil {
			return buf[0], true
		}
	case netcdf.FLOAT:
		buf := make([]float32, n)
		if a.ReadFloat32s(buf) == nil {
			return float64(buf[0]), true
		}
	case netcdf.INT:
		buf := make([]int32, n)
		if a.ReadInt32s(buf) == nil {
			return float64(buf[0]), true
		}
	case netcdf.SHORT:
		buf := make([]int16, n)
		if a.ReadInt16s(buf) == nil {
			return float64(buf[0]), true
		}
	case netcdf.BYTE:
		buf := make([]int8, n)
		if a.ReadInt8s(buf) == nil {
			return float64(buf[0]), true
		}
	}
	return 0, false
}

// AttrString reads a text attribute, returning "" when it is absent.
func AttrString(v netcdf.Var, name string) string {
	a := v.Attr(name)
	n, err := a.Len()
	if err != nil || n == 0 {
		return ""
	}
	buf := make([]byte, n)
	if err := a.ReadBytes(buf); err != nil {
		return ""
	}
	return strings.TrimRight(string(buf), "\x00 ")
}

// NearestIndex returns the index of the value in a monotonic axis closest
// to target. Both ascending and descending axes are supported.
func NearestIndex(axis []float64, target float64) int {
	n := len(axis)
	if n == 0 {
		return 0
	}
	desc := n > 1 && axis[0] > axis[n-1]
	left, right := 0, n-1
	for left < right {
		mid := (left + right) / 2
		if (!desc && axis[mid] < target) || (desc && axis[mid] > target) {
			left = mid + 1
		} else {
			right = mid
		}
	}
	if left > 0 && math.Abs(axis[left-1]-target) <= math.Abs(axis[left]-target) {
		return left - 1
	}
	return left
}

// Clamp ensures value is within [minVal, maxVal].
func Clamp(value, minVal, maxVal int) int {
	return max(minVal, min(value, maxVal))
}

// AxisWraps360 reports whether a longitude axis uses the 0..360 convention.
func AxisWraps360(lons []float64) bool {
	if len(lons) == 0 {
		return false
	}
	lo, hi := lons[0], lons[len(lons)-1]
	if lo > hi {
		lo, hi = hi, lo
	}
	return lo >= 0 && hi > 180
}

// NormalizeLon360 maps a longitude into [0, 360).
func NormalizeLon360(lon float64) float64 {
	lon = math.Mod(lon, 360)
	if lon < 0 {
		lon += 360
	}
	return lon
}

// NormalizeLon180 maps a longitude into [-180, 180).
func NormalizeLon180(lon float64) float64 {
	return NormalizeLon360(lon+180) - 180
}

// LonForAxis converts lon to the convention used by the axis.
func LonForAxis(lons []float64, lon float64) float64 {
	if AxisWraps360(lons) {
		return NormalizeLon360(lon)
	}
	return NormalizeLon180(lon)
}
