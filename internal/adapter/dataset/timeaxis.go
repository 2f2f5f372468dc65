package dataset

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.ngs.io/ocean-navigator/internal/domain"
)

var referenceLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

var unitSeconds = map[string]float64{
	"second":  1,
	"seconds": 1,
	"sec":     1,
	"secs":    1,
	"s":       1,
	"minute":  60,
	"minutes": 60,
	"min":     60,
	"mins":    60,
	"hour":    3600,
	"hours":   3600,
	"hr":      3600,
	"hrs":     3600,
	"h":       3600,
	"day":     86400,
	"days":    86400,
	"d":       86400,
}

// decodeTimes converts raw CF time values ("<unit> since <reference>") into
// UTC timestamps.
func decodeTimes(raw []float64, units string) ([]time.Time, error) {
	unit, ref, ok := strings.Cut(units, " since ")
	if !ok {
		return nil, fmt.Errorf("time units %q are not of the form '<unit> since <date>'", units)
	}
	step, ok := unitSeconds[strings.ToLower(strings.TrimSpace(unit))]
	if !ok {
		return nil, fmt.Errorf("unsupported time unit %q", unit)
	}
	epoch, err := parseReference(ref)
	if err != nil {
		return nil, err
	}
	out := make([]time.Time, len(raw))
	for i, v := range raw {
		if math.IsNaN(v) {
			return nil, fmt.Errorf("time value %d is missing", i)
		}
		out[i] = epoch.Add(time.Duration(v * step * float64(time.Second)))
	}
	return out, nil
}

func parseReference(ref string) (time.Time, error) {
	ref = strings.TrimSpace(ref)
	ref = strings.TrimSuffix(ref, " UTC")
	for _, layout := range referenceLayouts {
		if t, err := time.Parse(layout, ref); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unparsable time reference %q", ref)
}

var queryLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// resolveTimestamp maps raw onto an index of times. Integer text is an index
// and must be in range; a date selects the nearest timestamp, accepted up to
// half the median step beyond either end of the axis.
func resolveTimestamp(raw string, times []time.Time) (int, error) {
	raw = strings.TrimSpace(raw)
	n := len(times)
	if n == 0 {
		return 0, fmt.Errorf("%w: dataset has no timestamps", domain.ErrTimeResolution)
	}
	if idx, err := strconv.Atoi(raw); err == nil {
		if idx < 0 || idx >= n {
			return 0, fmt.Errorf("%w: index %d outside [0, %d]", domain.ErrTimeResolution, idx, n-1)
		}
		return idx, nil
	}

	var (
		t      time.Time
		parsed bool
	)
	for _, layout := range queryLayouts {
		if v, err := time.Parse(layout, raw); err == nil {
			t, parsed = v.UTC(), true
			break
		}
	}
	if !parsed {
		return 0, fmt.Errorf("%w: %q is neither an index nor a date", domain.ErrTimeResolution, raw)
	}

	tol := medianStep(times) / 2
	if t.Before(times[0].Add(-tol)) || t.After(times[n-1].Add(tol)) {
		return 0, fmt.Errorf("%w: %s outside [%s, %s]", domain.ErrTimeResolution,
			t.Format(time.RFC3339), times[0].Format(time.RFC3339), times[n-1].Format(time.RFC3339))
	}

	i := sort.Search(n, func(i int) bool { return !times[i].Before(t) })
	switch {
	case i == 0:
		return 0, nil
	case i == n:
		return n - 1, nil
	case times[i].Sub(t) < t.Sub(times[i-1]):
		return i, nil
	default:
		return i - 1, nil
	}
}

// medianStep returns the median spacing of times; a single timestamp gets a
// one day window.
func medianStep(times []time.Time) time.Duration {
	if len(times) < 2 {
		return 24 * time.Hour
	}
	steps := make([]time.Duration, len(times)-1)
	for i := 1; i < len(times); i++ {
		steps[i-1] = times[i].Sub(times[i-1])
	}
	sort.Slice(steps, func(a, b int) bool { return steps[a] < steps[b] })
	return steps[len(steps)/2]
}
