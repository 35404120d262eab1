package processor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ZacxDev/clip-remixer/internal/config"
	"github.com/ZacxDev/clip-remixer/internal/ffmpeg"
	"github.com/ZacxDev/clip-remixer/internal/platform"
	"github.com/ZacxDev/clip-remixer/internal/sampler"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// Result describes a finished remix
type Result struct {
	RunID      string
	OutputPath string
	Outcome    sampler.Outcome
	Duration   float64 // seconds
}

// Process samples segments, logs the sampling outcome, cuts the segments and
// composes them into the output video.
func (e *Editor) Process(ctx context.Context) (*Result, error) {
	if err := e.opts.Validate(); err != nil {
		return nil, errors.WithStack(err)
	}

	plat, err := platform.Get(e.opts.TargetPlatform)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	planned := float64(e.opts.Cycle) * e.opts.Length / e.opts.Speed
	if limit := plat.GetMaxDuration(); limit > 0 && planned > float64(limit) {
		return nil, fmt.Errorf("remix of %.1fs exceeds %s maximum of %ds", planned, plat.GetName(), limit)
	}

	e.logf("Processing input video: %s\n", e.opts.InputPath)
	metadata, err := e.media.GetVideoMetadata(e.opts.InputPath)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get video metadata")
	}
	e.logf("Video metadata: Duration=%.2fs, Resolution=%dx%d, Codec=%s\n",
		metadata.Duration, metadata.Width, metadata.Height, metadata.Codec)

	skipSeconds, err := parseSkipDuration(e.opts.Skip)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	window := metadata.Duration - skipSeconds
	if window <= 0 {
		return nil, fmt.Errorf("skip duration exceeds video duration")
	}

	outcome, err := sampler.SampleBatchContext(ctx, newSource(e.opts.Seed), window, e.opts.Length, e.opts.Cycle)
	if err != nil {
		return nil, errors.Wrap(err, "failed to sample segments")
	}
	outcome = shiftOutcome(outcome, skipSeconds)
	e.logf("Sampled %d segments after %d attempts (%s)\n",
		len(outcome.Intervals), outcome.Attempts, outcome.Classification)

	if err := e.dataset.Append(outcome); err != nil {
		return nil, err
	}
	e.logf("Logged sampling outcome to %s\n", e.dataset.Path())

	tempDir, err := os.MkdirTemp("", config.TempDirPrefix)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create temp directory")
	}
	defer os.RemoveAll(tempDir)

	clips, err := e.extractClips(ctx, tempDir, plat, outcome.Intervals)
	if err != nil {
		return nil, err
	}

	runID := e.newID()
	spec := ffmpeg.RemixSpec{
		ClipPaths:    clips,
		ClipDuration: e.opts.Length,
		MusicPath:    e.opts.MusicPath,
		OutputPath:   e.outputPath(plat, runID),
		Speed:        e.opts.Speed,
		Rotate:       e.opts.Rotates(),
		LogoText:     e.opts.LogoText,
		FontPath:     e.opts.FontPath,
		Platform:     plat,
	}
	if err := e.media.Remix(ctx, spec); err != nil {
		return nil, err
	}

	return &Result{
		RunID:      runID,
		OutputPath: spec.OutputPath,
		Outcome:    outcome,
		Duration:   spec.Duration(),
	}, nil
}

// extractClips cuts every interval in parallel, bounded by Workers. The
// returned paths follow the order of intervals.
func (e *Editor) extractClips(ctx context.Context, dir string, plat platform.Platform, intervals []sampler.Interval) ([]string, error) {
	base := sanitizeFilename(filepath.Base(e.opts.InputPath))
	paths := make([]string, len(intervals))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.opts.Workers)
	for i, iv := range intervals {
		paths[i] = filepath.Join(dir, fmt.Sprintf("%s_clip_%03d.%s", base, i+1, plat.GetOutputFormat()))
		g.Go(func() error {
			if err := e.media.ExtractClip(gctx, e.opts.InputPath, paths[i], iv, plat); err != nil {
				return errors.Wrapf(err, "error processing clip %d", i+1)
			}
			e.logf("Completed clip %d/%d\n", i+1, len(intervals))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return paths, nil
}

// outputPath names the remix. Repeated runs get an _<iteration> suffix.
func (e *Editor) outputPath(plat platform.Platform, runID string) string {
	format := plat.GetOutputFormat()
	suffix := ""
	if e.opts.Iteration > 0 {
		suffix = fmt.Sprintf("_%d", e.opts.Iteration)
	}
	if e.opts.OutputPath != "" {
		ext := filepath.Ext(e.opts.OutputPath)
		return ensureOutputPath(strings.TrimSuffix(e.opts.OutputPath, ext)+suffix+ext, format)
	}
	name := fmt.Sprintf("final_%s_%s%s.%s", e.now().Format("2006010215_04_05"), runID[:8], suffix, format)
	return ensureOutputPath(filepath.Join(e.opts.OutputDir, name), format)
}

func shiftOutcome(o sampler.Outcome, offset float64) sampler.Outcome {
	if offset == 0 {
		return o
	}
	shift := func(in []sampler.Interval) []sampler.Interval {
		out := make([]sampler.Interval, len(in))
		for i, iv := range in {
			out[i] = iv.Shift(offset)
		}
		return out
	}
	o.Intervals = shift(o.Intervals)
	o.Drawn = shift(o.Drawn)
	return o
}
