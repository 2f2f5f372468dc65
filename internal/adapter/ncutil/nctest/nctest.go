// Package nctest writes small NetCDF fixtures for tests.
package nctest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/fhs/go-netcdf/netcdf"
)

// Dim is a named dimension.
type Dim struct {
	Name string
	Len  int
}

// Var is a variable with its data in row-major order. Data is one of
// []float64, []float32, []int32 or []int16 and selects the NetCDF type.
// Attrs values are string, float64, float32, int32 or int16.
type Var struct {
	Name  string
	Dims  []string
	Data  any
	Attrs map[string]any
}

// File describes a fixture.
type File struct {
	Dims []Dim
	Vars []Var
}

// Create writes f to path, failing the test on any error.
func Create(t testing.TB, path string, f File) {
	t.Helper()
	//nolint:gosec // G301: Standard test directory permissions.
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	ds, err := netcdf.CreateFile(path, netcdf.CLOBBER)
	if err != nil {
		t.Fatalf("create nc: %v", err)
	}
	defer func() { _ = ds.Close() }()

	dims := make(map[string]netcdf.Dim, len(f.Dims))
	for _, d := range f.Dims {
		nd, err := ds.AddDim(d.Name, uint64(d.Len)) //nolint:gosec // G115: test sizes.
		if err != nil {
			t.Fatalf("add dim %s: %v", d.Name, err)
		}
		dims[d.Name] = nd
	}

	vars := make([]netcdf.Var, len(f.Vars))
	for i, v := range f.Vars {
		vd := make([]netcdf.Dim, len(v.Dims))
		for j, name := range v.Dims {
			vd[j] = dims[name]
		}
		nv, err := ds.AddVar(v.Name, typeOf(t, v.Data), vd)
		if err != nil {
			t.Fatalf("add var %s: %v", v.Name, err)
		}
		for name, val := range v.Attrs {
			writeAttr(t, nv.Attr(name), val)
		}
		vars[i] = nv
	}

	if err := ds.EndDef(); err != nil {
		t.Fatalf("enddef: %v", err)
	}
	for i, v := range f.Vars {
		if err := writeData(vars[i], v.Data); err != nil {
			t.Fatalf("write %s: %v", v.Name, err)
		}
	}
}

func typeOf(t testing.TB, data any) netcdf.Type {
	switch data.(type) {
	case []float64:
		return netcdf.DOUBLE
	case []float32:
		return netcdf.FLOAT
	case []int32:
		return netcdf.INT
	case []int16:
		return netcdf.SHORT
	}
	t.Fatalf("unsupported fixture data %T", data)
	return netcdf.DOUBLE
}

func writeData(v netcdf.Var, data any) error {
	switch d := data.(type) {
	case []float64:
		return v.WriteFloat64s(d)
	case []float32:
		return v.WriteFloat32s(d)
	case []int32:
		return v.WriteInt32s(d)
	case []int16:
		return v.WriteInt16s(d)
	}
	return nil
}

func writeAttr(t testing.TB, a netcdf.Attr, val any) {
	t.Helper()
	var err error
	switch x := val.(type) {
	case string:
		err = a.WriteBytes([]byte(x))
	case float64:
		err = a.WriteFloat64s([]float64{x})
	case float32:
		err = a.WriteFloat32s([]float32{x})
	case int32:
		err = a.WriteInt32s([]int32{x})
	case int16:
		err = a.WriteInt16s([]int16{x})
	default:
		t.Fatalf("unsupported attribute %T", val)
	}
	if err != nil {
		t.Fatalf("write attr: %v", err)
	}
}
