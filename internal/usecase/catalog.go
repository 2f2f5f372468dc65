package usecase

import (
	"context"
	"sort"
	"time"

	"go.ngs.io/ocean-navigator/internal/adapter/dataset"
)

// DatasetSummary is one entry of the dataset listing.
type DatasetSummary struct {
	ID        string            `json:"id"`
	Name      string            `json:"name"`
	Variables []VariableSummary `json:"variables"`
}

// VariableSummary describes a queryable variable.
type VariableSummary struct {
	Key    string `json:"key"`
	Name   string `json:"name"`
	Unit   string `json:"unit,omitempty"`
	Vector bool   `json:"vector,omitempty"`
}

// AxesResponse lists the time and depth axes of a dataset.
type AxesResponse struct {
	Dataset    string    `json:"dataset"`
	Timestamps []string  `json:"timestamps"`
	Depths     []float64 `json:"depths"`
}

// CatalogUseCase answers registry and axis queries.
type CatalogUseCase struct {
	registry *dataset.Registry
	opener   dataset.Opener
}

// NewCatalogUseCase creates a new catalog use case.
func NewCatalogUseCase(registry *dataset.Registry, opener dataset.Opener) *CatalogUseCase {
	return &CatalogUseCase{registry: registry, opener: opener}
}

// List returns every enabled dataset with its visible variables.
func (uc *CatalogUseCase) List() []DatasetSummary {
	cfgs := uc.registry.List()
	out := make([]DatasetSummary, 0, len(cfgs))
	for _, cfg := range cfgs {
		s := DatasetSummary{ID: cfg.ID, Name: cfg.Name, Variables: []VariableSummary{}}
		for key := range cfg.Variables {
			v := cfg.Variable(key)
			if v.Hidden {
				continue
			}
			s.Variables = append(s.Variables, VariableSummary{
				Key:    key,
				Name:   v.Name,
				Unit:   v.Unit,
				Vector: len(v.Components) > 0,
			})
		}
		sort.Slice(s.Variables, func(i, j int) bool { return s.Variables[i].Key < s.Variables[j].Key })
		out = append(out, s)
	}
	return out
}

// Axes opens dataset id and reports its time and depth axes.
func (uc *CatalogUseCase) Axes(ctx context.Context, id string) (*AxesResponse, error) {
	cfg, err := uc.registry.Get(id)
	if err != nil {
		return nil, err
	}
	h, err := uc.opener.Open(ctx, cfg.URL)
	if err != nil {
		return nil, err
	}
	defer func() { _ = h.Close() }()

	times := h.Timestamps()
	resp := &AxesResponse{
		Dataset:    cfg.ID,
		Timestamps: make([]string, len(times)),
		Depths:     append([]float64(nil), h.Depths()...),
	}
	for i, t := range times {
		resp.Timestamps[i] = t.UTC().Format(time.RFC3339)
	}
	return resp, nil
}
