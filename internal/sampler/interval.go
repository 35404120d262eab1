package sampler

import (
	"fmt"
	"math"

	"github.com/pkg/errors"
)

// ErrInvalidRange is returned when a segment cannot fit inside the source duration.
var ErrInvalidRange = errors.New("invalid sampling range")

// Interval is a fixed-length segment of a media timeline, in seconds.
type Interval struct {
	Start float64
	End   float64
}

// Length returns the span of the interval.
func (iv Interval) Length() float64 {
	return iv.End - iv.Start
}

// Shift moves the interval by offset seconds.
func (iv Interval) Shift(offset float64) Interval {
	return Interval{Start: iv.Start + offset, End: iv.End + offset}
}

func (iv Interval) String() string {
	return fmt.Sprintf("(%s, %s)", formatSeconds(iv.Start), formatSeconds(iv.End))
}

// Source provides uniform values in [0, 1). *rand.Rand from math/rand/v2 satisfies it.
type Source interface {
	Float64() float64
}

func validateRange(total, length float64) error {
	if total <= 0 {
		return errors.Wrapf(ErrInvalidRange, "total duration must be positive, got %v", total)
	}
	if length <= 0 {
		return errors.Wrapf(ErrInvalidRange, "segment length must be positive, got %v", length)
	}
	if length > total {
		return errors.Wrapf(ErrInvalidRange, "segment length %v exceeds total duration %v", length, total)
	}
	return nil
}

// DrawInterval picks a random interval of the given length inside [0, total].
// The start is rounded to one decimal so independently drawn intervals can be
// compared for equality.
func DrawInterval(rng Source, total, length float64) (Interval, error) {
	if err := validateRange(total, length); err != nil {
		return Interval{}, err
	}

	span := total - length
	start := roundTenth(rng.Float64() * span)
	if start > span {
		// rounding up must not push the end past total
		start = math.Floor(span*10) / 10
	}
	end := start + length
	if end > total {
		// start+length can land one ulp past total, e.g. 0.4+0.03 on 0.43
		end = total
	}
	return Interval{Start: start, End: end}, nil
}

// Overlaps reports whether a and b share a point or one contains the other.
func Overlaps(a, b Interval) bool {
	shared := (a.Start <= b.Start && b.Start <= a.End) || (b.Start <= a.Start && a.Start <= b.End)
	contained := (a.Start <= b.Start && a.End >= b.End) || (b.Start <= a.Start && b.End >= a.End)
	return shared || contained
}

// HasConflict compares every pair and stops at the first overlap.
func HasConflict(intervals []Interval) bool {
	for i := 0; i < len(intervals); i++ {
		for j := i + 1; j < len(intervals); j++ {
			if Overlaps(intervals[i], intervals[j]) {
				return true
			}
		}
	}
	return false
}

// Dedupe drops exact duplicates, keeping the first occurrence of each interval.
func Dedupe(intervals []Interval) []Interval {
	seen := make(map[Interval]struct{}, len(intervals))
	out := make([]Interval, 0, len(intervals))
	for _, iv := range intervals {
		if _, ok := seen[iv]; ok {
			continue
		}
		seen[iv] = struct{}{}
		out = append(out, iv)
	}
	return out
}

// roundTenth rounds half to even, so 0.25 becomes 0.2 and 0.35 becomes 0.4.
func roundTenth(v float64) float64 {
	return math.RoundToEven(v*10) / 10
}

func formatSeconds(v float64) string {
	if v == math.Trunc(v) && !math.IsInf(v, 0) {
		return fmt.Sprintf("%.1f", v)
	}
	return fmt.Sprintf("%v", v)
}
