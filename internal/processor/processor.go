package processor

import (
	"context"
	"fmt"
	"log"
	"math/rand/v2"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/ZacxDev/clip-remixer/internal/config"
	"github.com/ZacxDev/clip-remixer/internal/dataset"
	"github.com/ZacxDev/clip-remixer/internal/ffmpeg"
	"github.com/ZacxDev/clip-remixer/internal/platform"
	"github.com/ZacxDev/clip-remixer/internal/sampler"
	"github.com/google/uuid"
)

// mediaProcessor is the part of ffmpeg.Processor the editor drives
type mediaProcessor interface {
	GetVideoMetadata(inputPath string) (*ffmpeg.VideoMetadata, error)
	ExtractClip(ctx context.Context, inputPath, outputPath string, iv sampler.Interval, plat platform.Platform) error
	Remix(ctx context.Context, spec ffmpeg.RemixSpec) error
	Mix(ctx context.Context, spec ffmpeg.MixSpec) error
}

// Editor turns one source video into a remix of random segments
type Editor struct {
	opts    config.RemixOptions
	media   mediaProcessor
	dataset *dataset.Logger
	now     func() time.Time
	newID   func() string
}

// NewEditor creates an editor backed by the ffmpeg binary on PATH
func NewEditor(opts config.RemixOptions) *Editor {
	return newEditor(opts, ffmpeg.NewProcessor(opts.Verbose))
}

func newEditor(opts config.RemixOptions, media mediaProcessor) *Editor {
	return &Editor{
		opts:    opts,
		media:   media,
		dataset: dataset.NewLogger(opts.DatasetPath),
		now:     time.Now,
		newID:   uuid.NewString,
	}
}

// GetSupportedPlatforms returns a list of supported platforms
func GetSupportedPlatforms() []string {
	return platform.GetSupportedPlatforms()
}

func newSource(seed *uint64) sampler.Source {
	if seed != nil {
		return rand.New(rand.NewPCG(*seed, *seed))
	}
	return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
}

func (e *Editor) logf(format string, args ...interface{}) {
	if e.opts.Verbose {
		log.Printf(format, args...)
	}
}

// Helper functions
func parseSkipDuration(skip string) (float64, error) {
	if skip == "" {
		return 0, nil
	}

	duration, err := time.ParseDuration(skip)
	if err != nil {
		return 0, fmt.Errorf("invalid skip duration format: %v", err)
	}
	if duration < 0 {
		return 0, fmt.Errorf("skip duration must not be negative: %s", skip)
	}

	return duration.Seconds(), nil
}

var (
	unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9-_.]`)
	underscores = regexp.MustCompile(`_+`)
)

func sanitizeFilename(filename string) string {
	sanitized := strings.TrimSuffix(filename, filepath.Ext(filename))
	sanitized = unsafeChars.ReplaceAllString(sanitized, "_")
	sanitized = underscores.ReplaceAllString(sanitized, "_")
	return strings.Trim(sanitized, "_")
}

func ensureOutputPath(path, format string) string {
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			// Log error but continue - the actual file operation will fail if needed
			log.Printf("Warning: failed to create directory %s: %v", dir, err)
		}
	}

	// Ensure correct file extension
	ext := fmt.Sprintf(".%s", format)
	if !strings.HasSuffix(strings.ToLower(path), ext) {
		path = strings.TrimSuffix(path, filepath.Ext(path)) + ext
	}

	return path
}
