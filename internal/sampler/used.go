package sampler

import (
	"github.com/pkg/errors"
)

// ErrNoSegment is returned when a source has no unused room for another segment.
var ErrNoSegment = errors.New("no unused segment available")

// UsedSegments remembers which ranges were already cut from each source so a
// mix never shows the same footage twice. Segments from one source keep at
// least minGap seconds between each other. It is not safe for concurrent use.
type UsedSegments struct {
	minGap float64
	ranges map[string][]Interval
}

func NewUsedSegments(minGap float64) *UsedSegments {
	return &UsedSegments{
		minGap: minGap,
		ranges: make(map[string][]Interval),
	}
}

// Add records iv as used in source.
func (u *UsedSegments) Add(source string, iv Interval) {
	u.ranges[source] = append(u.ranges[source], iv)
}

// Used returns the ranges taken from source in the order they were added.
func (u *UsedSegments) Used(source string) []Interval {
	return u.ranges[source]
}

// IsAvailable reports whether iv, widened by the gap on both sides, touches
// nothing already used in source.
func (u *UsedSegments) IsAvailable(source string, iv Interval) bool {
	padded := Interval{Start: iv.Start - u.minGap, End: iv.End + u.minGap}
	for _, used := range u.ranges[source] {
		if used.Start <= padded.End && used.End >= padded.Start {
			return false
		}
	}
	return true
}

// Available is the part of a total-second source not yet used. Gaps are not
// subtracted, so a positive value does not guarantee a segment still fits.
func (u *UsedSegments) Available(source string, total float64) float64 {
	for _, used := range u.ranges[source] {
		total -= used.Length()
	}
	return total
}

// FindAvailable draws up to attempts uniform starts for a segment of length
// and returns the first one that is available. Starts are not rounded.
func (u *UsedSegments) FindAvailable(rng Source, source string, total, length float64, attempts int) (Interval, error) {
	if err := validateRange(total, length); err != nil {
		return Interval{}, err
	}
	for i := 0; i < attempts; i++ {
		start := rng.Float64() * (total - length)
		end := start + length
		if end > total {
			end = total
		}
		iv := Interval{Start: start, End: end}
		if u.IsAvailable(source, iv) {
			return iv, nil
		}
	}
	return Interval{}, errors.Wrapf(ErrNoSegment, "%s: no free %.2fs segment after %d attempts", source, length, attempts)
}
