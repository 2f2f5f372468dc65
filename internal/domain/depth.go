package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// BottomSentinel is the raw depth value selecting the deepest valid cell.
const BottomSentinel = "bottom"

// DepthSpec is a resolved depth selection. When Bottom is set, Index and
// ValueM carry no meaning.
type DepthSpec struct {
	Bottom bool
	Index  int
	ValueM float64
}

// Label returns a short human label ("Bottom" or "50 m").
func (d DepthSpec) Label() string {
	if d.Bottom {
		return "Bottom"
	}
	return fmt.Sprintf("%g m", d.ValueM)
}

// ResolveDepth maps a raw depth input onto a depth axis. "bottom" returns the
// bottom marker; integer indices are clamped into [0, len(depths)-1].
// An empty input selects the surface level.
func ResolveDepth(raw string, depths []float64) (DepthSpec, error) {
	raw = strings.TrimSpace(raw)
	if strings.EqualFold(raw, BottomSentinel) {
		return DepthSpec{Bottom: true}, nil
	}
	if len(depths) == 0 {
		return DepthSpec{}, fmt.Errorf("%w: dataset has no depth axis", ErrDepthResolution)
	}
	idx := 0
	if raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return DepthSpec{}, fmt.Errorf("%w: %q is not a depth index", ErrDepthResolution, raw)
		}
		idx = n
	}
	idx = ClampIndex(idx, len(depths))
	return DepthSpec{Index: idx, ValueM: depths[idx]}, nil
}

// ClampIndex clamps i into [0, n-1]. n must be positive.
func ClampIndex(i, n int) int {
	if i < 0 {
		return 0
	}
	if i > n-1 {
		return n - 1
	}
	return i
}

// TimeRange is an inclusive index range into a timestamp axis.
type TimeRange struct {
	Start int
	End   int
}

// Indices expands the range into its index list.
func (r TimeRange) Indices() []int {
	if r.End < r.Start {
		return nil
	}
	out := make([]int, 0, r.End-r.Start+1)
	for i := r.Start; i <= r.End; i++ {
		out = append(out, i)
	}
	return out
}

// Validate checks the range against an axis of length n.
func (r TimeRange) Validate(n int) error {
	if r.Start < 0 || r.End >= n {
		return fmt.Errorf("%w: range [%d, %d] outside axis of %d timestamps", ErrTimeResolution, r.Start, r.End, n)
	}
	if r.Start > r.End {
		return fmt.Errorf("%w: start %d after end %d", ErrTimeResolution, r.Start, r.End)
	}
	return nil
}
