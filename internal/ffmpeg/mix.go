package ffmpeg

import (
	"context"
	"fmt"
	"log"

	"github.com/ZacxDev/clip-remixer/internal/config"
	"github.com/ZacxDev/clip-remixer/internal/platform"
	"github.com/pkg/errors"
	ffmpeg "github.com/u2takey/ffmpeg-go"
)

// MixClip is one extracted segment of a folder mix and its own speed factor
type MixClip struct {
	Path     string
	Duration float64 // seconds before the speed change
	Speed    float64
}

// MixSpec describes a silent montage of clips cut from several sources
type MixSpec struct {
	Clips      []MixClip
	OutputPath string
	Platform   platform.Platform
}

// Duration is the playing time of the finished mix in seconds
func (s MixSpec) Duration() float64 {
	var total float64
	for _, c := range s.Clips {
		if c.Speed > 0 {
			total += c.Duration / c.Speed
		}
	}
	return total
}

// Mix speeds up every clip on its own and concatenates them without audio.
func (p *Processor) Mix(ctx context.Context, spec MixSpec) error {
	stream, err := BuildMix(spec)
	if err != nil {
		return err
	}
	if p.verbose {
		log.Printf("Mixing %d clips into %s (%.1fs)\n", len(spec.Clips), spec.OutputPath, spec.Duration())
	}
	if err := p.exec(ctx, stream); err != nil {
		return errors.Wrap(err, "failed to compose mix")
	}
	return nil
}

// BuildMix returns the ffmpeg graph for spec without running it. Sources may
// differ in size, so every clip is fitted onto the same canvas before concat.
func BuildMix(spec MixSpec) (*ffmpeg.Stream, error) {
	if len(spec.Clips) == 0 {
		return nil, errors.New("no clips to mix")
	}
	if spec.Platform == nil {
		return nil, errors.New("platform is nil")
	}

	w, h := spec.Platform.GetMaxDimensions()
	if w <= 0 || h <= 0 {
		w, h = config.MixWidth, config.MixHeight
	}

	videos := make([]*ffmpeg.Stream, 0, len(spec.Clips))
	for i, clip := range spec.Clips {
		if clip.Speed <= 0 {
			return nil, fmt.Errorf("clip %d: speed must be positive, got %v", i+1, clip.Speed)
		}
		v := ffmpeg.Input(clip.Path).Video().
			Filter("setpts", ffmpeg.Args{}, ffmpeg.KwArgs{"expr": "PTS/" + formatFloat(clip.Speed)}).
			Filter("scale", ffmpeg.Args{}, ffmpeg.KwArgs{"w": w, "h": h, "force_original_aspect_ratio": "decrease"}).
			Filter("pad", ffmpeg.Args{}, ffmpeg.KwArgs{"w": w, "h": h, "x": "(ow-iw)/2", "y": "(oh-ih)/2", "color": "black"}).
			Filter("setsar", ffmpeg.Args{"1"}).
			Filter("fps", ffmpeg.Args{}, ffmpeg.KwArgs{"fps": config.MixFPS})
		videos = append(videos, v)
	}

	video := ffmpeg.Filter(videos, "concat", ffmpeg.Args{}, ffmpeg.KwArgs{
		"n": len(videos),
		"v": 1,
		"a": 0,
	})

	return video.Output(spec.OutputPath, ffmpeg.KwArgs{
		"c:v":      spec.Platform.GetVideoCodec(),
		"preset":   config.MixPreset,
		"crf":      spec.Platform.GetCRF(),
		"r":        config.MixFPS,
		"pix_fmt":  "yuv420p",
		"threads":  GetOptimalThreadCount(),
		"movflags": "+faststart",
	}).OverWriteOutput(), nil
}
