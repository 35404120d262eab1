package sampler

import (
	"context"

	"github.com/pkg/errors"
)

// Classification tells whether the accepted batch was the first one drawn.
type Classification string

const (
	Unique   Classification = "Unique"
	Repeated Classification = "Repeated"
)

// Outcome is the result of a sampling request.
type Outcome struct {
	Classification Classification
	// Intervals is the accepted set after de-duplication. It can be shorter
	// than the requested count when a batch drew the same interval twice.
	Intervals []Interval
	// Drawn is the raw accepted batch, duplicates included.
	Drawn []Interval
	// Attempts counts every batch drawn, the accepted one included.
	Attempts int
}

// SampleBatch draws count intervals until a batch without overlaps comes up.
// There is no attempt limit: when length is close to total it may never return.
// Use SampleBatchContext to bound it.
func SampleBatch(rng Source, total, length float64, count int) (Outcome, error) {
	return SampleBatchContext(context.Background(), rng, total, length, count)
}

// SampleBatchContext is SampleBatch with ctx checked before every batch.
// A zero count yields an empty Unique outcome; a negative one is rejected.
func SampleBatchContext(ctx context.Context, rng Source, total, length float64, count int) (Outcome, error) {
	if err := validateRange(total, length); err != nil {
		return Outcome{}, err
	}
	if count < 0 {
		return Outcome{}, errors.Wrapf(ErrInvalidRange, "segment count must not be negative, got %d", count)
	}

	outcome := Outcome{Classification: Unique}
	for {
		if err := ctx.Err(); err != nil {
			return Outcome{}, errors.Wrapf(err, "sampling stopped after %d attempts", outcome.Attempts)
		}
		outcome.Attempts++

		drawn := make([]Interval, 0, count)
		for i := 0; i < count; i++ {
			iv, err := DrawInterval(rng, total, length)
			if err != nil {
				return Outcome{}, err
			}
			drawn = append(drawn, iv)
		}

		unique := Dedupe(drawn)
		if !HasConflict(unique) {
			outcome.Intervals = unique
			outcome.Drawn = drawn
			return outcome, nil
		}
		outcome.Classification = Repeated
	}
}
