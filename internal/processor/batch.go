package processor

import (
	"context"
	"fmt"
	"log"

	"github.com/ZacxDev/clip-remixer/internal/config"
)

// ProcessBatch remixes every video in order, Repeat times each. A failed run
// is logged and skipped; the returned error reports how many failed.
func ProcessBatch(ctx context.Context, batch *config.Batch) ([]*Result, error) {
	return processBatch(ctx, batch, NewEditor)
}

func processBatch(ctx context.Context, batch *config.Batch, newEditor func(config.RemixOptions) *Editor) ([]*Result, error) {
	var results []*Result
	failed, runs := 0, 0
	for i, video := range batch.Videos {
		repeat := video.Repetitions()
		for j := 1; j <= repeat; j++ {
			if err := ctx.Err(); err != nil {
				return results, err
			}
			runs++

			opts := iteration(video, j, repeat)
			log.Printf("Processing video %d (%d/%d): %s\n", i+1, j, repeat, opts.InputPath)
			res, err := newEditor(opts).Process(ctx)
			if err != nil {
				failed++
				log.Printf("Error processing video %d (%d/%d): %v\n", i+1, j, repeat, err)
				continue
			}
			log.Printf("Finished processing video %d (%d/%d): %s\n", i+1, j, repeat, res.OutputPath)
			results = append(results, res)
		}
	}

	if failed > 0 {
		return results, fmt.Errorf("%d of %d remixes failed", failed, runs)
	}
	return results, nil
}

// iteration prepares run j of a video rendered repeat times. A fixed seed is
// advanced per run so repeats cut different segments yet stay reproducible.
func iteration(opts config.RemixOptions, j, repeat int) config.RemixOptions {
	if repeat < 2 {
		return opts
	}
	opts.Iteration = j
	if opts.Seed != nil {
		seed := *opts.Seed + uint64(j-1)
		opts.Seed = &seed
	}
	return opts
}
