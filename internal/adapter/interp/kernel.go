package interp

import (
	"fmt"
	"math"
	"strings"
)

// KernelKind selects how retained neighbours are combined.
type KernelKind int

const (
	// KernelNearest takes the closest neighbour's value.
	KernelNearest KernelKind = iota
	// KernelInverseDistance weights neighbours by 1/d^Power.
	KernelInverseDistance
	// KernelGaussian weights neighbours by exp(-d²/2σ²).
	KernelGaussian
)

func (k KernelKind) String() string {
	switch k {
	case KernelNearest:
		return "nearest"
	case KernelInverseDistance:
		return "inverse"
	case KernelGaussian:
		return "gaussian"
	default:
		return fmt.Sprintf("KernelKind(%d)", int(k))
	}
}

// Kernel is a weighting function. Zero Power and Sigma select defaults
// (2, and radius/2 respectively).
type Kernel struct {
	Kind  KernelKind
	Power float64
	Sigma float64
}

// ParseKernel maps a request name onto a kernel. "bilinear" has no meaning
// for scattered sources and is served by inverse distance weighting.
func ParseKernel(name string) (Kernel, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "nearest", "nn":
		return Kernel{Kind: KernelNearest}, nil
	case "inverse", "idw", "bilinear", "":
		return Kernel{Kind: KernelInverseDistance}, nil
	case "gaussian", "gauss":
		return Kernel{Kind: KernelGaussian}, nil
	default:
		return Kernel{}, fmt.Errorf("unknown interpolation kernel %q", name)
	}
}

// Neighbour is a source point retained for a target.
type Neighbour struct {
	Index    int
	Distance float64
	Value    float64
}

// Combine reduces neighbours, ordered by (distance, index), to one value.
// It returns NaN for an empty neighbour list.
func (k Kernel) Combine(neighbours []Neighbour, radius float64) float64 {
	if len(neighbours) == 0 {
		return math.NaN()
	}
	switch k.Kind {
	case KernelNearest:
		return neighbours[0].Value
	case KernelGaussian:
		sigma := k.Sigma
		if sigma <= 0 {
			sigma = radius / 2
		}
		return weighted(neighbours, func(d float64) float64 {
			return math.Exp(-(d * d) / (2 * sigma * sigma))
		})
	default:
		// An exact hit is the closest neighbour after sorting.
		if neighbours[0].Distance == 0 {
			return neighbours[0].Value
		}
		p := k.Power
		if p <= 0 {
			p = 2
		}
		return weighted(neighbours, func(d float64) float64 {
			return 1 / math.Pow(d, p)
		})
	}
}

func weighted(neighbours []Neighbour, weight func(d float64) float64) float64 {
	var sum, wsum float64
	for _, n := range neighbours {
		w := weight(n.Distance)
		sum += w * n.Value
		wsum += w
	}
	if wsum == 0 {
		return math.NaN()
	}
	return sum / wsum
}
