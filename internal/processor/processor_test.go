package processor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ZacxDev/clip-remixer/internal/config"
	"github.com/ZacxDev/clip-remixer/internal/dataset"
	"github.com/ZacxDev/clip-remixer/internal/ffmpeg"
	"github.com/ZacxDev/clip-remixer/internal/platform"
	"github.com/ZacxDev/clip-remixer/internal/sampler"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

type fakeMedia struct {
	duration   float64
	durations  map[string]float64 // per path, overrides duration
	extractErr error
	remixErr   error

	mu        sync.Mutex
	extracted map[string]sampler.Interval
	remixes   []ffmpeg.RemixSpec
	mixes     []ffmpeg.MixSpec
}

func (f *fakeMedia) GetVideoMetadata(path string) (*ffmpeg.VideoMetadata, error) {
	d := f.duration
	if v, ok := f.durations[path]; ok {
		d = v
	}
	return &ffmpeg.VideoMetadata{Duration: d, Width: 1920, Height: 1080, Codec: "h264"}, nil
}

func (f *fakeMedia) ExtractClip(_ context.Context, _, outputPath string, iv sampler.Interval, _ platform.Platform) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.extractErr != nil {
		return f.extractErr
	}
	if f.extracted == nil {
		f.extracted = make(map[string]sampler.Interval)
	}
	f.extracted[outputPath] = iv
	return nil
}

func (f *fakeMedia) Remix(_ context.Context, spec ffmpeg.RemixSpec) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.remixes = append(f.remixes, spec)
	return f.remixErr
}

func (f *fakeMedia) Mix(_ context.Context, spec ffmpeg.MixSpec) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.mixes = append(f.mixes, spec)
	return nil
}

func testOptions(t *testing.T) config.RemixOptions {
	t.Helper()
	dir := t.TempDir()
	seed := uint64(99)
	opts := config.RemixOptions{
		InputPath:   "/videos/My Holiday (1).mp4",
		MusicPath:   "/music/track.mp3",
		Cycle:       4,
		Length:      5,
		Speed:       1.2,
		LogoText:    "UTOPIA",
		FontPath:    "/fonts/logo.otf",
		OutputDir:   filepath.Join(dir, "dist"),
		DatasetPath: filepath.Join(dir, "dataset.csv"),
		Workers:     2,
		Seed:        &seed,
	}
	return opts
}

func testEditor(opts config.RemixOptions, media *fakeMedia) *Editor {
	e := newEditor(opts, media)
	e.now = func() time.Time { return time.Date(2026, 10, 17, 13, 4, 5, 0, time.UTC) }
	e.newID = func() string { return "0f8fad5b-d9cb-469f-a165-70867728950e" }
	return e
}

func readDataset(t *testing.T, path string) []dataset.Record {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	records, err := dataset.ReadAll(f)
	require.NoError(t, err)
	return records
}

func TestProcess_EndToEnd(t *testing.T) {
	opts := testOptions(t)
	media := &fakeMedia{duration: 120}

	res, err := testEditor(opts, media).Process(context.Background())
	require.NoError(t, err)

	require.Equal(t, filepath.Join(opts.OutputDir, "final_2026101713_04_05_0f8fad5b.mp4"), res.OutputPath)
	require.Equal(t, "0f8fad5b-d9cb-469f-a165-70867728950e", res.RunID)
	require.False(t, sampler.HasConflict(res.Outcome.Intervals))
	require.InDelta(t, float64(len(res.Outcome.Intervals))*5/1.2, res.Duration, 1e-9)

	require.Len(t, media.extracted, len(res.Outcome.Intervals))
	require.Len(t, media.remixes, 1)
	spec := media.remixes[0]
	require.True(t, spec.Rotate)
	require.Equal(t, "UTOPIA", spec.LogoText)
	require.Equal(t, "/music/track.mp3", spec.MusicPath)
	require.Equal(t, platform.DefaultName, spec.Platform.GetName())
	for i, clip := range spec.ClipPaths {
		require.Equal(t, res.Outcome.Intervals[i], media.extracted[clip])
		require.True(t, strings.HasPrefix(filepath.Base(clip), "My_Holiday_1_clip_"))
	}

	records := readDataset(t, opts.DatasetPath)
	require.Len(t, records, 1)
	require.Equal(t, res.Outcome.Classification, records[0].Classification)
	require.Equal(t, res.Outcome.Drawn, records[0].Drawn)
}

func TestProcess_SeedIsDeterministic(t *testing.T) {
	opts := testOptions(t)
	a, err := testEditor(opts, &fakeMedia{duration: 90}).Process(context.Background())
	require.NoError(t, err)
	b, err := testEditor(opts, &fakeMedia{duration: 90}).Process(context.Background())
	require.NoError(t, err)
	require.Equal(t, a.Outcome, b.Outcome)
}

func TestProcess_SkipShiftsSegments(t *testing.T) {
	opts := testOptions(t)
	opts.Skip = "20s"
	noRotate := true
	opts.NoRotate = &noRotate
	media := &fakeMedia{duration: 60}

	res, err := testEditor(opts, media).Process(context.Background())
	require.NoError(t, err)
	require.False(t, media.remixes[0].Rotate)
	for _, iv := range res.Outcome.Intervals {
		require.GreaterOrEqual(t, iv.Start, 20.0)
		require.LessOrEqual(t, iv.End, 60.0+1e-9)
	}
}

func TestProcess_Errors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(o *config.RemixOptions)
		media   *fakeMedia
		wantErr string
	}{
		{"missing music", func(o *config.RemixOptions) { o.MusicPath = "" }, &fakeMedia{duration: 60}, "input video and music are required"},
		{"unknown platform", func(o *config.RemixOptions) { o.TargetPlatform = "vine" }, &fakeMedia{duration: 60}, "unsupported platform: vine"},
		{"skip too long", func(o *config.RemixOptions) { o.Skip = "2m" }, &fakeMedia{duration: 60}, "skip duration exceeds video duration"},
		{"bad skip", func(o *config.RemixOptions) { o.Skip = "soon" }, &fakeMedia{duration: 60}, "invalid skip duration format"},
		{"segment longer than video", func(o *config.RemixOptions) { o.Length = 90 }, &fakeMedia{duration: 60}, "invalid sampling range"},
		{"over platform limit", func(o *config.RemixOptions) {
			o.TargetPlatform = "instagram_reel"
			o.Cycle = 30
			o.Speed = 1
		}, &fakeMedia{duration: 600}, "exceeds instagram_reel maximum of 90s"},
		{"extract failure", func(o *config.RemixOptions) {}, &fakeMedia{duration: 60, extractErr: errors.New("disk full")}, "disk full"},
		{"remix failure", func(o *config.RemixOptions) {}, &fakeMedia{duration: 60, remixErr: errors.New("bad font")}, "bad font"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := testOptions(t)
			tt.mutate(&opts)
			_, err := testEditor(opts, tt.media).Process(context.Background())
			require.Error(t, err)
			require.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestProcess_ExtractFailureSkipsRemix(t *testing.T) {
	media := &fakeMedia{duration: 60, extractErr: errors.New("boom")}
	_, err := testEditor(testOptions(t), media).Process(context.Background())
	require.Error(t, err)
	require.Empty(t, media.remixes)
}

func TestProcess_ExplicitOutputGetsPlatformExtension(t *testing.T) {
	opts := testOptions(t)
	opts.OutputPath = filepath.Join(t.TempDir(), "renders", "remix.mov")

	res, err := testEditor(opts, &fakeMedia{duration: 60}).Process(context.Background())
	require.NoError(t, err)
	require.Equal(t, strings.TrimSuffix(opts.OutputPath, ".mov")+".mp4", res.OutputPath)

	info, err := os.Stat(filepath.Dir(res.OutputPath))
	require.NoError(t, err)
	require.True(t, info.IsDir())
}

func TestProcessBatch_ContinuesPastFailures(t *testing.T) {
	good := testOptions(t)
	bad := testOptions(t)
	bad.MusicPath = ""

	batch := &config.Batch{Videos: []config.RemixOptions{bad, good}}
	results, err := processBatch(context.Background(), batch, func(o config.RemixOptions) *Editor {
		return testEditor(o, &fakeMedia{duration: 60})
	})
	require.EqualError(t, err, "1 of 2 remixes failed")
	require.Len(t, results, 1)
}

func TestProcessBatch_RepeatsWithIterationSuffix(t *testing.T) {
	video := testOptions(t)
	video.Repeat = 3
	single := testOptions(t)
	single.InputPath = "/videos/other.mp4"

	media := &fakeMedia{duration: 120}
	batch := &config.Batch{Videos: []config.RemixOptions{video, single}}
	results, err := processBatch(context.Background(), batch, func(o config.RemixOptions) *Editor {
		return testEditor(o, media)
	})
	require.NoError(t, err)
	require.Len(t, results, 4)
	require.Len(t, media.remixes, 4)

	for i, res := range results[:3] {
		want := fmt.Sprintf("final_2026101713_04_05_0f8fad5b_%d.mp4", i+1)
		require.Equal(t, filepath.Join(video.OutputDir, want), res.OutputPath)
	}
	require.Equal(t, filepath.Join(single.OutputDir, "final_2026101713_04_05_0f8fad5b.mp4"), results[3].OutputPath)

	// a fixed seed is advanced per run, so repeats differ but stay reproducible
	require.NotEqual(t, results[0].Outcome.Drawn, results[1].Outcome.Drawn)
	require.Len(t, readDataset(t, video.DatasetPath), 3)
}

func TestProcessBatch_RepeatSuffixesExplicitOutput(t *testing.T) {
	video := testOptions(t)
	video.Repeat = 2
	video.OutputPath = filepath.Join(t.TempDir(), "renders", "holiday.mp4")

	results, err := processBatch(context.Background(), &config.Batch{Videos: []config.RemixOptions{video}}, func(o config.RemixOptions) *Editor {
		return testEditor(o, &fakeMedia{duration: 60})
	})
	require.NoError(t, err)
	require.Len(t, results, 2)
	dir := filepath.Dir(video.OutputPath)
	require.Equal(t, filepath.Join(dir, "holiday_1.mp4"), results[0].OutputPath)
	require.Equal(t, filepath.Join(dir, "holiday_2.mp4"), results[1].OutputPath)
}

func TestIteration(t *testing.T) {
	seed := uint64(10)
	opts := config.RemixOptions{Seed: &seed}

	require.Equal(t, opts, iteration(opts, 1, 1))

	third := iteration(opts, 3, 3)
	require.Equal(t, 3, third.Iteration)
	require.Equal(t, uint64(12), *third.Seed)
	require.Equal(t, uint64(10), seed, "the caller's seed is left alone")

	require.Nil(t, iteration(config.RemixOptions{}, 2, 2).Seed)
}

func TestProcessBatch_StopsWhenCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	batch := &config.Batch{Videos: []config.RemixOptions{testOptions(t)}}
	results, err := processBatch(ctx, batch, func(o config.RemixOptions) *Editor {
		return testEditor(o, &fakeMedia{duration: 60})
	})
	require.ErrorIs(t, err, context.Canceled)
	require.Empty(t, results)
}

func TestSample_WritesDataset(t *testing.T) {
	seed := uint64(5)
	path := filepath.Join(t.TempDir(), "dataset.csv")

	out, err := Sample(context.Background(), SampleOptions{Duration: 60, Length: 5, Count: 4, Seed: &seed, DatasetPath: path})
	require.NoError(t, err)
	require.False(t, sampler.HasConflict(out.Intervals))

	again, err := Sample(context.Background(), SampleOptions{Duration: 60, Length: 5, Count: 4, Seed: &seed})
	require.NoError(t, err)
	require.Equal(t, out, again)

	require.Len(t, readDataset(t, path), 1)
}

func TestSample_InvalidRange(t *testing.T) {
	_, err := Sample(context.Background(), SampleOptions{Duration: 3, Length: 5, Count: 1})
	require.ErrorIs(t, err, sampler.ErrInvalidRange)
}

func TestSample_NegativeCount(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dataset.csv")
	_, err := Sample(context.Background(), SampleOptions{Duration: 30, Length: 5, Count: -1, DatasetPath: path})
	require.ErrorIs(t, err, sampler.ErrInvalidRange)
	require.NoFileExists(t, path)
}

func TestHelpers(t *testing.T) {
	require.Equal(t, "My_Holiday_1", sanitizeFilename("My Holiday (1).mp4"))
	require.Equal(t, "clip-a.b", sanitizeFilename("clip-a.b.webm"))

	s, err := parseSkipDuration("1m30s")
	require.NoError(t, err)
	require.Equal(t, 90.0, s)

	s, err = parseSkipDuration("")
	require.NoError(t, err)
	require.Zero(t, s)

	_, err = parseSkipDuration("-5s")
	require.Error(t, err)
}
