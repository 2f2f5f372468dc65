package dataset

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"go.ngs.io/ocean-navigator/internal/domain"
)

// VariableConfig is per-variable metadata from the dataset registry.
type VariableConfig struct {
	Name        string   `json:"name"`
	Unit        string   `json:"unit,omitempty"`
	ScaleFactor float64  `json:"scale_factor,omitempty"`
	Category    string   `json:"category,omitempty"`
	Components  []string `json:"components,omitempty"`
	VectorName  string   `json:"vector_name,omitempty"`
	Hidden      bool     `json:"hidden,omitempty"`

	namer domain.VectorNamer
}

// DatasetConfig describes one dataset of the registry.
type DatasetConfig struct {
	ID        string                    `json:"-"`
	Name      string                    `json:"name"`
	URL       string                    `json:"url"`
	Disabled  bool                      `json:"disabled,omitempty"`
	Variables map[string]VariableConfig `json:"variables,omitempty"`
}

// Variable returns the metadata for key. Unknown keys get a default entry
// named after the key.
func (c DatasetConfig) Variable(key string) VariableConfig {
	if v, ok := c.Variables[key]; ok {
		if v.Name == "" {
			v.Name = key
		}
		return v
	}
	return VariableConfig{Name: key}
}

// Namer returns the vector naming rule for a combined variable.
func (v VariableConfig) Namer() domain.VectorNamer {
	if v.namer != nil {
		return v.namer
	}
	return domain.DefaultVectorNamer{}
}

// Registry maps dataset ids to their configuration.
type Registry struct {
	datasets map[string]DatasetConfig
	ids      []string
}

// LoadRegistry reads a JSON registry file.
func LoadRegistry(path string) (*Registry, error) {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path comes from operator config.
	if err != nil {
		return nil, fmt.Errorf("failed to read dataset config: %w", err)
	}
	return ParseRegistry(data)
}

// ParseRegistry decodes a registry of the form {"<id>": DatasetConfig}.
// Vector name expressions are compiled here so bad rules fail at startup.
func ParseRegistry(data []byte) (*Registry, error) {
	var raw map[string]DatasetConfig
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse dataset config: %w", err)
	}
	r := &Registry{datasets: make(map[string]DatasetConfig, len(raw))}
	for id, cfg := range raw {
		if cfg.Disabled {
			continue
		}
		if cfg.URL == "" {
			return nil, fmt.Errorf("dataset %q: url is required", id)
		}
		cfg.ID = id
		if cfg.Name == "" {
			cfg.Name = id
		}
		for key, v := range cfg.Variables {
			if v.VectorName != "" {
				namer, err := domain.NewExprNamer(v.VectorName)
				if err != nil {
					return nil, fmt.Errorf("dataset %q variable %q: %w", id, key, err)
				}
				v.namer = namer
				cfg.Variables[key] = v
			}
		}
		r.datasets[id] = cfg
		r.ids = append(r.ids, id)
	}
	sort.Strings(r.ids)
	return r, nil
}

// Get returns the configuration of dataset id.
func (r *Registry) Get(id string) (DatasetConfig, error) {
	cfg, ok := r.datasets[id]
	if !ok {
		return DatasetConfig{}, fmt.Errorf("%w: %q", domain.ErrUnknownDataset, id)
	}
	return cfg, nil
}

// List returns every enabled dataset ordered by id.
func (r *Registry) List() []DatasetConfig {
	out := make([]DatasetConfig, 0, len(r.ids))
	for _, id := range r.ids {
		out = append(out, r.datasets[id])
	}
	return out
}
