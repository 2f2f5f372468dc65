package interp

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

// MinRadius is the smallest accepted search radius.
const MinRadius = 1e-9

// maxBucket bounds bucket coordinates so the float to int64 conversion
// stays defined for far-away or tiny-radius points.
const maxBucket = 1 << 52

// Options bounds the neighbour search for Interpolate.
type Options struct {
	// Radius is the maximum search distance, in source coordinate units.
	Radius float64
	// MaxNeighbours caps the neighbours kept per target, nearest first.
	MaxNeighbours int
	Kernel        Kernel
}

// Validate checks the search bounds.
func (o Options) Validate() error {
	if !(o.Radius >= MinRadius) || math.IsInf(o.Radius, 0) {
		return fmt.Errorf("radius must be at least %g, got %v", MinRadius, o.Radius)
	}
	if o.MaxNeighbours < 1 {
		return fmt.Errorf("neighbours must be at least 1, got %d", o.MaxNeighbours)
	}
	return nil
}

// Result holds one value per target. Mask[i] is true where no source point
// was within Radius; Values[i] is NaN there.
type Result struct {
	Values []float64
	Mask   []bool
}

// Interpolate resamples scattered source values onto targets. For every
// target the source points within Radius are ranked by (distance, source
// index), the nearest MaxNeighbours are kept and the kernel combines them.
// NaN source values are ignored. The output depends only on the inputs.
func Interpolate(src []Point2D, values []float64, targets []Point2D, opts Options) (*Result, error) {
	if len(src) != len(values) {
		return nil, fmt.Errorf("source has %d points but %d values", len(src), len(values))
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	// Buckets are slightly wider than the radius so a point at exactly
	// Radius never lands two buckets away through rounding.
	idx := newBucketIndex(src, values, opts.Radius*(1+1e-9))
	res := &Result{
		Values: make([]float64, len(targets)),
		Mask:   make([]bool, len(targets)),
	}

	var scratch []Neighbour
	for i, t := range targets {
		scratch = scratch[:0]
		if finite(t.X) && finite(t.Y) {
			scratch = idx.within(t, opts.Radius, scratch)
		}
		if len(scratch) == 0 {
			res.Values[i] = math.NaN()
			res.Mask[i] = true
			continue
		}
		sort.Slice(scratch, func(a, b int) bool {
			if scratch[a].Distance != scratch[b].Distance {
				return scratch[a].Distance < scratch[b].Distance
			}
			return scratch[a].Index < scratch[b].Index
		})
		kept := scratch
		if len(kept) > opts.MaxNeighbours {
			kept = kept[:opts.MaxNeighbours]
		}
		v := opts.Kernel.Combine(kept, opts.Radius)
		res.Values[i] = v
		res.Mask[i] = math.IsNaN(v)
	}
	return res, nil
}

// RegularGrid returns width*height cell centres covering [minX,maxX] x
// [minY,maxY], row-major with row 0 at maxY (image order).
func RegularGrid(minX, minY, maxX, maxY float64, width, height int) ([]Point2D, error) {
	if width < 1 || height < 1 {
		return nil, errors.New("grid width and height must be positive")
	}
	if !(maxX > minX) || !(maxY > minY) {
		return nil, fmt.Errorf("empty extent [%v, %v] x [%v, %v]", minX, maxX, minY, maxY)
	}
	dx := (maxX - minX) / float64(width)
	dy := (maxY - minY) / float64(height)
	out := make([]Point2D, 0, width*height)
	for r := 0; r < height; r++ {
		y := maxY - (float64(r)+0.5)*dy
		for c := 0; c < width; c++ {
			out = append(out, Point2D{X: minX + (float64(c)+0.5)*dx, Y: y})
		}
	}
	return out, nil
}

type bucketKey struct{ bx, by int64 }

// bucketIndex hashes points into square buckets of side cell, so a radius
// query only scans the 3x3 buckets around the target.
type bucketIndex struct {
	cell    float64
	points  []Point2D
	values  []float64
	buckets map[bucketKey][]int
}

func newBucketIndex(points []Point2D, values []float64, cell float64) *bucketIndex {
	idx := &bucketIndex{
		cell:    cell,
		points:  points,
		values:  values,
		buckets: make(map[bucketKey][]int),
	}
	for i, p := range points {
		if math.IsNaN(values[i]) || !finite(p.X) || !finite(p.Y) {
			continue
		}
		k := idx.key(p)
		idx.buckets[k] = append(idx.buckets[k], i)
	}
	return idx
}

func (b *bucketIndex) key(p Point2D) bucketKey {
	return bucketKey{bx: b.coord(p.X), by: b.coord(p.Y)}
}

func (b *bucketIndex) coord(v float64) int64 {
	f := math.Floor(v / b.cell)
	if math.IsNaN(f) {
		return 0
	}
	return int64(math.Max(-maxBucket, math.Min(maxBucket, f)))
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func (b *bucketIndex) within(t Point2D, radius float64, dst []Neighbour) []Neighbour {
	k := b.key(t)
	for dx := int64(-1); dx <= 1; dx++ {
		for dy := int64(-1); dy <= 1; dy++ {
			for _, i := range b.buckets[bucketKey{k.bx + dx, k.by + dy}] {
				p := b.points[i]
				d := math.Hypot(p.X-t.X, p.Y-t.Y)
				if d > radius {
					continue
				}
				dst = append(dst, Neighbour{Index: i, Distance: d, Value: b.values[i]})
			}
		}
	}
	return dst
}
