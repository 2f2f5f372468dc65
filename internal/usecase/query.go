package usecase

import (
	"context"
	"fmt"
	"math"
	"time"

	"go.ngs.io/ocean-navigator/internal/adapter/dataset"
	"go.ngs.io/ocean-navigator/internal/domain"
	"go.ngs.io/ocean-navigator/internal/logger"
)

// SampleRequest is a dataset query along a geometry.
type SampleRequest struct {
	Dataset   string
	Variables []string // One entry, or several combined into a magnitude.

	// Time is a single index or date. StartTime/EndTime select an inclusive
	// range instead. With neither set, the latest timestamp is used.
	Time      string
	StartTime string
	EndTime   string

	Depth    string // Index or "bottom"; empty selects the surface.
	Geometry domain.Geometry
	Scale    *[2]float64 // Explicit colour range, bypassing the auto range.
}

// SampleResponse is the serialized result of a SampleRequest. Masked values
// are null.
type SampleResponse struct {
	Dataset      string       `json:"dataset"`
	VariableName string       `json:"variableName"`
	Unit         string       `json:"unit"`
	Depth        string       `json:"depth"`
	Times        []string     `json:"times"`
	Points       [][2]float64 `json:"points"` // [lat, lon]
	Distance     []float64    `json:"distance"`
	Data         [][]*float64 `json:"data"`
	Mask         [][]bool     `json:"mask"`
	Scale        [2]float64   `json:"scale"`
	BottomDepth  []*float64   `json:"bottomDepth,omitempty"`
}

// Validate checks the request shape before any dataset is opened.
func (r *SampleRequest) Validate() error {
	if r.Dataset == "" {
		return fmt.Errorf("%w: dataset is required", domain.ErrInvalidRequest)
	}
	if len(r.Variables) == 0 {
		return fmt.Errorf("%w: at least one variable is required", domain.ErrInvalidRequest)
	}
	for _, v := range r.Variables {
		if v == "" {
			return fmt.Errorf("%w: empty variable name", domain.ErrInvalidRequest)
		}
	}
	if (r.StartTime == "") != (r.EndTime == "") {
		return fmt.Errorf("%w: starttime and endtime must be given together", domain.ErrInvalidRequest)
	}
	if r.Scale != nil && !(r.Scale[0] < r.Scale[1]) {
		return fmt.Errorf("%w: scale minimum must be below maximum", domain.ErrInvalidRequest)
	}
	return r.Geometry.Validate()
}

// SampleUseCase resolves a request against the dataset registry and samples it.
type SampleUseCase struct {
	registry *dataset.Registry
	opener   dataset.Opener
	sampler  *Sampler
}

// NewSampleUseCase creates a new sample use case.
func NewSampleUseCase(registry *dataset.Registry, opener dataset.Opener, sampler *Sampler) *SampleUseCase {
	return &SampleUseCase{registry: registry, opener: opener, sampler: sampler}
}

// Execute performs the query.
func (uc *SampleUseCase) Execute(ctx context.Context, req SampleRequest) (*SampleResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	cfg, err := uc.registry.Get(req.Dataset)
	if err != nil {
		return nil, err
	}
	ctx = logger.WithDataset(ctx, cfg.ID)
	sel, err := selectVariables(cfg, req.Variables)
	if err != nil {
		return nil, err
	}

	h, err := uc.opener.Open(ctx, cfg.URL)
	if err != nil {
		return nil, err
	}
	defer func() { _ = h.Close() }()

	tr, err := resolveTimeRange(h, req.Time, req.StartTime, req.EndTime)
	if err != nil {
		return nil, err
	}
	depth, err := h.ResolveDepth(req.Depth)
	if err != nil {
		return nil, err
	}

	series, err := uc.sampler.Sample(ctx, h, req.Geometry, depth, tr, sel.keys)
	if err != nil {
		return nil, err
	}

	unit := series.Unit
	if sel.meta.Unit != "" {
		unit = sel.meta.Unit
	}
	// Kelvin is converted before the registry scale factor applies.
	unit, values := domain.Normalize(unit, series.Values)
	values = domain.ApplyScale(values, sel.meta.ScaleFactor)

	var scale [2]float64
	if req.Scale != nil {
		scale = *req.Scale
	} else {
		scale, _ = domain.AutoRange(values, sel.category())
	}

	resp := &SampleResponse{
		Dataset:      cfg.ID,
		VariableName: sel.name,
		Unit:         unit,
		Depth:        depth.Label(),
		Times:        make([]string, len(series.Times)),
		Points:       make([][2]float64, len(series.Points)),
		Distance:     series.Distances,
		Data:         nullable2D(values),
		Mask:         series.Mask,
		Scale:        scale,
	}
	for i, t := range series.Times {
		resp.Times[i] = t.UTC().Format(time.RFC3339)
	}
	for i, p := range series.Points {
		resp.Points[i] = [2]float64{p.Lat, p.Lon}
	}
	if series.BottomDepthM != nil {
		resp.BottomDepth = nullable(series.BottomDepthM)
	}
	return resp, nil
}

// variableSelection is the resolved variable set of a request.
type variableSelection struct {
	keys []string // Dataset variables to read.
	name string   // Display name.
	meta dataset.VariableConfig
}

func (s variableSelection) category() domain.Category {
	if len(s.keys) > 1 {
		return domain.CategoryMagnitude
	}
	return domain.ParseCategory(s.meta.Category)
}

// selectVariables expands registry vector variables into their components
// and names the result.
func selectVariables(cfg dataset.DatasetConfig, requested []string) (variableSelection, error) {
	if len(requested) == 1 {
		meta := cfg.Variable(requested[0])
		if len(meta.Components) == 0 {
			return variableSelection{keys: requested, name: meta.Name, meta: meta}, nil
		}
		sel := variableSelection{keys: meta.Components, name: meta.Name, meta: meta}
		if meta.VectorName != "" {
			name, err := meta.Namer().VectorName(displayNames(cfg, meta.Components))
			if err != nil {
				return variableSelection{}, err
			}
			sel.name = name
		}
		return sel, nil
	}

	first := cfg.Variable(requested[0])
	name, err := first.Namer().VectorName(displayNames(cfg, requested))
	if err != nil {
		return variableSelection{}, err
	}
	// Components share the first variable's unit and scale metadata.
	return variableSelection{keys: requested, name: name, meta: first}, nil
}

func displayNames(cfg dataset.DatasetConfig, keys []string) []string {
	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = cfg.Variable(k).Name
	}
	return out
}

// resolveTimeRange turns the request time fields into an index range.
func resolveTimeRange(h dataset.Handle, single, start, end string) (domain.TimeRange, error) {
	if start != "" {
		s, err := h.ConvertToTimestamp(start)
		if err != nil {
			return domain.TimeRange{}, err
		}
		e, err := h.ConvertToTimestamp(end)
		if err != nil {
			return domain.TimeRange{}, err
		}
		return domain.TimeRange{Start: s, End: e}, nil
	}
	if single == "" {
		n := len(h.Timestamps())
		return domain.TimeRange{Start: n - 1, End: n - 1}, nil
	}
	idx, err := h.ConvertToTimestamp(single)
	if err != nil {
		return domain.TimeRange{}, err
	}
	return domain.TimeRange{Start: idx, End: idx}, nil
}

func nullable(values []float64) []*float64 {
	out := make([]*float64, len(values))
	for i, v := range values {
		if !math.IsNaN(v) {
			out[i] = &values[i]
		}
	}
	return out
}

func nullable2D(values [][]float64) [][]*float64 {
	out := make([][]*float64, len(values))
	for i, row := range values {
		out[i] = nullable(row)
	}
	return out
}
