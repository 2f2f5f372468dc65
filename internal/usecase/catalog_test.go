package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.ngs.io/ocean-navigator/internal/adapter/dataset"
	"go.ngs.io/ocean-navigator/internal/domain"
)

func TestCatalog_List(t *testing.T) {
	reg, err := dataset.ParseRegistry([]byte(`{
	  "b": {"url": "/b.nc", "variables": {"x": {"name": "X", "hidden": true}, "t": {"name": "T", "unit": "degC"}}},
	  "a": {"name": "Alpha", "url": "/a.nc", "variables": {"v": {"components": ["u", "w"]}}}
	}`))
	require.NoError(t, err)

	list := NewCatalogUseCase(reg, &fakeOpener{h: newFakeHandle()}).List()
	require.Len(t, list, 2)
	assert.Equal(t, "a", list[0].ID)
	assert.Equal(t, "Alpha", list[0].Name)
	assert.Equal(t, []VariableSummary{{Key: "v", Name: "v", Vector: true}}, list[0].Variables)
	assert.Equal(t, "b", list[1].Name)
	assert.Equal(t, []VariableSummary{{Key: "t", Name: "T", Unit: "degC"}}, list[1].Variables)
}

func TestCatalog_Axes(t *testing.T) {
	reg, err := dataset.ParseRegistry([]byte(testRegistry))
	require.NoError(t, err)
	h := newFakeHandle()
	uc := NewCatalogUseCase(reg, &fakeOpener{h: h})

	axes, err := uc.Axes(context.Background(), "model")
	require.NoError(t, err)
	assert.Equal(t, []string{"2024-01-01T00:00:00Z", "2024-01-01T01:00:00Z", "2024-01-01T02:00:00Z"}, axes.Timestamps)
	assert.Equal(t, []float64{0, 10, 20, 30}, axes.Depths)
	assert.Equal(t, 1, h.closed)

	_, err = uc.Axes(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrUnknownDataset)
}
