package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.ngs.io/ocean-navigator/internal/adapter/dataset"
	"go.ngs.io/ocean-navigator/internal/domain"
)

func newSampleUseCase(t *testing.T) (*SampleUseCase, *fakeOpener) {
	t.Helper()
	reg, err := dataset.ParseRegistry([]byte(testRegistry))
	require.NoError(t, err)
	opener := &fakeOpener{h: newFakeHandle()}
	return NewSampleUseCase(reg, opener, NewSampler(0, fakeBathymetry{depth: 12}, nil, nil)), opener
}

func TestSampleUseCase_KelvinToCelsius(t *testing.T) {
	uc, opener := newSampleUseCase(t)

	resp, err := uc.Execute(context.Background(), SampleRequest{
		Dataset:   "model",
		Variables: []string{"votemper"},
		StartTime: "0",
		EndTime:   "2",
		Depth:     "7",
		Geometry:  domain.NewPoint(5, 5),
	})
	require.NoError(t, err)

	assert.Equal(t, "Temperature", resp.VariableName)
	assert.Equal(t, domain.CelsiusUnit, resp.Unit)
	assert.Equal(t, "30 m", resp.Depth, "depth index clamps to the last level")
	require.Len(t, resp.Data, 3)
	assert.InDelta(t, 280-273.15, *resp.Data[0][0], 1e-9)
	assert.InDelta(t, 282-273.15, *resp.Data[2][0], 1e-9)
	assert.Equal(t, "2024-01-01T02:00:00Z", resp.Times[2])
	assert.Equal(t, [2]float64{5, 5}, resp.Points[0])
	assert.InDelta(t, 12, *resp.BottomDepth[0], 0)
	assert.Less(t, resp.Scale[0], resp.Scale[1])
	assert.Equal(t, 1, opener.h.closed, "handle is released")
}

func TestSampleUseCase_RegistryVector(t *testing.T) {
	uc, _ := newSampleUseCase(t)
	ctx := context.Background()

	resp, err := uc.Execute(ctx, SampleRequest{Dataset: "model", Variables: []string{"magwatervel"}, Geometry: domain.NewPoint(5, 5)})
	require.NoError(t, err)
	assert.Equal(t, "Water Velocity", resp.VariableName)
	assert.InDelta(t, 5, *resp.Data[0][0], 1e-12)
	assert.Equal(t, 0.0, resp.Scale[0], "magnitudes start at zero")
	assert.Equal(t, "2024-01-01T02:00:00Z", resp.Times[0], "latest timestamp by default")

	resp, err = uc.Execute(ctx, SampleRequest{Dataset: "model", Variables: []string{"speed"}, Geometry: domain.NewPoint(5, 5)})
	require.NoError(t, err)
	assert.Equal(t, "Water Velocity X magnitude", resp.VariableName)

	resp, err = uc.Execute(ctx, SampleRequest{Dataset: "model", Variables: []string{"vozocrtx", "vomecrty"}, Geometry: domain.NewPoint(5, 5)})
	require.NoError(t, err)
	assert.Equal(t, "Water Velocity", resp.VariableName)
}

func TestSampleUseCase_ExplicitScaleAndMask(t *testing.T) {
	uc, opener := newSampleUseCase(t)
	opener.h.field = func(_ string, _ int, p domain.LatLon) float64 {
		if p.Lon > 6 {
			return nan()
		}
		return 290
	}
	path := domain.NewPath(domain.LatLon{Lat: 5, Lon: 5}, domain.LatLon{Lat: 5, Lon: 8})

	resp, err := uc.Execute(context.Background(), SampleRequest{
		Dataset:   "model",
		Variables: []string{"votemper"},
		Time:      "1",
		Geometry:  path,
		Scale:     &[2]float64{-2, 30},
	})
	require.NoError(t, err)
	assert.Equal(t, [2]float64{-2, 30}, resp.Scale)
	last := len(resp.Data[0]) - 1
	assert.Nil(t, resp.Data[0][last])
	assert.True(t, resp.Mask[0][last])
	assert.False(t, resp.Mask[0][0])
}

func TestSampleUseCase_Errors(t *testing.T) {
	uc, _ := newSampleUseCase(t)
	ctx := context.Background()
	pt := domain.NewPoint(5, 5)

	tests := []struct {
		name string
		req  SampleRequest
		want error
	}{
		{"unknown dataset", SampleRequest{Dataset: "nope", Variables: []string{"votemper"}, Geometry: pt}, domain.ErrUnknownDataset},
		{"no variable", SampleRequest{Dataset: "model", Geometry: pt}, domain.ErrInvalidRequest},
		{"half range", SampleRequest{Dataset: "model", Variables: []string{"votemper"}, StartTime: "0", Geometry: pt}, domain.ErrInvalidRequest},
		{"bad time", SampleRequest{Dataset: "model", Variables: []string{"votemper"}, Time: "9", Geometry: pt}, domain.ErrTimeResolution},
		{"bad depth", SampleRequest{Dataset: "model", Variables: []string{"votemper"}, Depth: "deep", Geometry: pt}, domain.ErrDepthResolution},
		{"reversed range", SampleRequest{Dataset: "model", Variables: []string{"votemper"}, StartTime: "2", EndTime: "0", Geometry: pt}, domain.ErrTimeResolution},
		{"outside", SampleRequest{Dataset: "model", Variables: []string{"votemper"}, Geometry: domain.NewPoint(-40, 100)}, domain.ErrEmptySeries},
		{"bad scale", SampleRequest{Dataset: "model", Variables: []string{"votemper"}, Geometry: pt, Scale: &[2]float64{3, 1}}, domain.ErrInvalidRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := uc.Execute(ctx, tt.req)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestSampleUseCase_ScaleFactorAppliesAfterKelvin(t *testing.T) {
	reg, err := dataset.ParseRegistry([]byte(`{"model": {"url": "/data/model.nc", "variables": {"votemper": {"name": "Temperature", "scale_factor": 2}}}}`))
	require.NoError(t, err)
	uc := NewSampleUseCase(reg, &fakeOpener{h: newFakeHandle()}, NewSampler(0, nil, nil, nil))

	resp, err := uc.Execute(context.Background(), SampleRequest{
		Dataset:   "model",
		Variables: []string{"votemper"},
		Time:      "0",
		Geometry:  domain.NewPoint(5, 5),
	})
	require.NoError(t, err)
	assert.Equal(t, domain.CelsiusUnit, resp.Unit)
	assert.InDelta(t, (280-273.15)*2, *resp.Data[0][0], 1e-9)
}
