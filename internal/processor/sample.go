package processor

import (
	"context"

	"github.com/ZacxDev/clip-remixer/internal/dataset"
	"github.com/ZacxDev/clip-remixer/internal/sampler"
	"github.com/pkg/errors"
)

// SampleOptions configures a dry run of the segment sampler
type SampleOptions struct {
	Duration    float64
	Length      float64
	Count       int
	Seed        *uint64
	DatasetPath string // empty skips the dataset row
}

// Sample draws segments without touching any media
func Sample(ctx context.Context, opts SampleOptions) (sampler.Outcome, error) {
	outcome, err := sampler.SampleBatchContext(ctx, newSource(opts.Seed), opts.Duration, opts.Length, opts.Count)
	if err != nil {
		return sampler.Outcome{}, errors.Wrap(err, "failed to sample segments")
	}
	if opts.DatasetPath != "" {
		if err := dataset.NewLogger(opts.DatasetPath).Append(outcome); err != nil {
			return outcome, err
		}
	}
	return outcome, nil
}
