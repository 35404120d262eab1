package processor

import (
	"context"
	"fmt"
	"log"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/ZacxDev/clip-remixer/internal/config"
	"github.com/ZacxDev/clip-remixer/internal/ffmpeg"
	"github.com/ZacxDev/clip-remixer/internal/platform"
	"github.com/ZacxDev/clip-remixer/internal/sampler"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"golang.org/x/exp/slices"
	"golang.org/x/sync/errgroup"
)

// MixSegment is one piece of a folder mix
type MixSegment struct {
	Source   string
	Interval sampler.Interval
	Speed    float64
}

// Duration is the playing time of the segment after the speed change
func (s MixSegment) Duration() float64 {
	return s.Interval.Length() / s.Speed
}

// MixResult describes a finished folder mix
type MixResult struct {
	OutputPath string
	Sources    []string
	Segments   []MixSegment
	Target     float64 // seconds aimed for
	Duration   float64 // seconds produced
}

// Mixer builds one silent montage out of random segments of every video in a
// folder. No footage is used twice and each segment plays at its own speed.
type Mixer struct {
	opts  config.MixOptions
	media mediaProcessor
	newID func() string
}

// NewMixer creates a mixer backed by the ffmpeg binary on PATH
func NewMixer(opts config.MixOptions) *Mixer {
	return newMixer(opts, ffmpeg.NewProcessor(opts.Verbose))
}

func newMixer(opts config.MixOptions, media mediaProcessor) *Mixer {
	return &Mixer{
		opts:  opts,
		media: media,
		newID: uuid.NewString,
	}
}

// Mix plans the segments, cuts them and writes remix_<uuid8>_.<ext> into OutputDir.
func (m *Mixer) Mix(ctx context.Context) (*MixResult, error) {
	if err := m.opts.Validate(); err != nil {
		return nil, errors.WithStack(err)
	}

	plat, err := platform.Get(m.opts.TargetPlatform)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	sources, err := findVideos(m.opts.InputDir, m.opts.Extensions)
	if err != nil {
		return nil, err
	}
	m.logf("Found %d video files in %s\n", len(sources), m.opts.InputDir)

	segments, target, err := m.plan(ctx, newSource(m.opts.Seed), sources)
	if err != nil {
		return nil, err
	}

	tempDir, err := os.MkdirTemp("", config.TempDirPrefix)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create temp directory")
	}
	defer os.RemoveAll(tempDir)

	clips, err := m.extract(ctx, tempDir, plat, segments)
	if err != nil {
		return nil, err
	}

	name := fmt.Sprintf("remix_%s_.%s", m.newID()[:8], plat.GetOutputFormat())
	spec := ffmpeg.MixSpec{
		Clips:      clips,
		OutputPath: ensureOutputPath(filepath.Join(m.opts.OutputDir, name), plat.GetOutputFormat()),
		Platform:   plat,
	}
	if err := m.media.Mix(ctx, spec); err != nil {
		return nil, err
	}

	return &MixResult{
		OutputPath: spec.OutputPath,
		Sources:    sources,
		Segments:   segments,
		Target:     target,
		Duration:   spec.Duration(),
	}, nil
}

// plan picks a target length in [MinDuration, MaxDuration] and then random
// sources until the target is reached or the attempts run out. A source that
// cannot give another segment is dropped from the pool.
func (m *Mixer) plan(ctx context.Context, rng sampler.Source, sources []string) ([]MixSegment, float64, error) {
	target := uniform(rng, m.opts.MinDuration, m.opts.MaxDuration)
	m.logf("Target duration: %.2fs\n", target)

	used := sampler.NewUsedSegments(config.MixMinGap)
	durations := make(map[string]float64, len(sources))
	pool := slices.Clone(sources)

	var segments []MixSegment
	var current float64
	for attempts := 0; current < target && attempts < config.MixMaxAttempts; attempts++ {
		if err := ctx.Err(); err != nil {
			return nil, 0, errors.Wrap(err, "mix planning stopped")
		}
		if len(pool) == 0 {
			m.logf("No more available videos with unused segments\n")
			break
		}

		i := int(rng.Float64() * float64(len(pool)))
		source := pool[i]
		seg, err := m.segment(rng, used, durations, source)
		if err != nil {
			m.logf("Dropping %s: %v\n", source, err)
			pool = slices.Delete(pool, i, i+1)
			continue
		}
		segments = append(segments, seg)
		current += seg.Duration()
		m.logf("Added segment %s of %s at %.2fx (total: %.2fs)\n", seg.Interval, filepath.Base(source), seg.Speed, current)
	}

	if len(segments) == 0 {
		return nil, 0, errors.New("failed to create any valid segments")
	}
	return segments, target, nil
}

func (m *Mixer) segment(rng sampler.Source, used *sampler.UsedSegments, durations map[string]float64, source string) (MixSegment, error) {
	total, ok := durations[source]
	if !ok {
		metadata, err := m.media.GetVideoMetadata(source)
		if err != nil {
			return MixSegment{}, errors.Wrap(err, "failed to get video metadata")
		}
		total = metadata.Duration
		durations[source] = total
	}

	available := used.Available(source, total)
	if available < config.MixMinSegment {
		return MixSegment{}, errors.Wrapf(sampler.ErrNoSegment, "only %.2fs unused", available)
	}

	longest := math.Min(config.MixMaxSegment, available)
	shortest := math.Min(config.MixMinSegment, longest)
	length := uniform(rng, shortest, longest)

	iv, err := used.FindAvailable(rng, source, total, length, config.MixSegmentAttempts)
	if err != nil {
		return MixSegment{}, err
	}
	used.Add(source, iv)

	return MixSegment{
		Source:   source,
		Interval: iv,
		Speed:    uniform(rng, config.MixMinSpeed, config.MixMaxSpeed),
	}, nil
}

func (m *Mixer) extract(ctx context.Context, dir string, plat platform.Platform, segments []MixSegment) ([]ffmpeg.MixClip, error) {
	clips := make([]ffmpeg.MixClip, len(segments))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(m.opts.Workers)
	for i, seg := range segments {
		base := sanitizeFilename(filepath.Base(seg.Source))
		clips[i] = ffmpeg.MixClip{
			Path:     filepath.Join(dir, fmt.Sprintf("%03d_%s.%s", i+1, base, plat.GetOutputFormat())),
			Duration: seg.Interval.Length(),
			Speed:    seg.Speed,
		}
		g.Go(func() error {
			if err := m.media.ExtractClip(gctx, seg.Source, clips[i].Path, seg.Interval, plat); err != nil {
				return errors.Wrapf(err, "error processing segment %d", i+1)
			}
			m.logf("Completed segment %d/%d\n", i+1, len(segments))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return clips, nil
}

func (m *Mixer) logf(format string, args ...interface{}) {
	if m.opts.Verbose {
		log.Printf(format, args...)
	}
}

// findVideos lists the files in dir whose extension is in exts, sorted by name.
func findVideos(dir string, exts []string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read input folder")
	}

	var videos []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(entry.Name()), "."))
		if slices.Contains(exts, ext) {
			videos = append(videos, filepath.Join(dir, entry.Name()))
		}
	}
	if len(videos) == 0 {
		return nil, fmt.Errorf("no video files found in %s", dir)
	}
	return videos, nil
}

func uniform(rng sampler.Source, lo, hi float64) float64 {
	return lo + rng.Float64()*(hi-lo)
}
