package ffmpeg

import (
	"context"
	"fmt"
	"log"
	"math"

	"github.com/ZacxDev/clip-remixer/internal/config"
	"github.com/ZacxDev/clip-remixer/internal/platform"
	"github.com/pkg/errors"
	ffmpeg "github.com/u2takey/ffmpeg-go"
)

// RemixSpec describes the final composition of extracted clips
type RemixSpec struct {
	ClipPaths    []string
	ClipDuration float64 // seconds per clip before the speed change
	MusicPath    string
	OutputPath   string
	Speed        float64
	Rotate       bool
	LogoText     string
	FontPath     string
	Platform     platform.Platform
}

// Duration is the length of the finished remix in seconds
func (s RemixSpec) Duration() float64 {
	if s.Speed <= 0 {
		return 0
	}
	return s.ClipDuration * float64(len(s.ClipPaths)) / s.Speed
}

// Remix concatenates the clips, speeds them up, overlays the logo and lays
// the music underneath.
func (p *Processor) Remix(ctx context.Context, spec RemixSpec) error {
	stream, err := BuildRemix(spec)
	if err != nil {
		return err
	}
	if p.verbose {
		log.Printf("Composing %d clips into %s (%.1fs)\n", len(spec.ClipPaths), spec.OutputPath, spec.Duration())
	}
	if err := p.exec(ctx, stream); err != nil {
		return errors.Wrap(err, "failed to compose remix")
	}
	return nil
}

// BuildRemix returns the ffmpeg graph for spec without running it
func BuildRemix(spec RemixSpec) (*ffmpeg.Stream, error) {
	if len(spec.ClipPaths) == 0 {
		return nil, errors.New("no clips to compose")
	}
	if spec.Speed <= 0 {
		return nil, fmt.Errorf("speed must be positive, got %v", spec.Speed)
	}
	if spec.Platform == nil {
		return nil, errors.New("platform is nil")
	}

	videos := make([]*ffmpeg.Stream, 0, len(spec.ClipPaths))
	for _, clip := range spec.ClipPaths {
		v := ffmpeg.Input(clip).Video().
			Filter("fade", ffmpeg.Args{}, ffmpeg.KwArgs{"t": "in", "st": 0, "d": formatFloat(config.ClipFadeIn)})
		videos = append(videos, v)
	}

	video := ffmpeg.Filter(videos, "concat", ffmpeg.Args{}, ffmpeg.KwArgs{
		"n": len(videos),
		"v": 1,
		"a": 0,
	}).Filter("setpts", ffmpeg.Args{}, ffmpeg.KwArgs{"expr": "PTS/" + formatFloat(spec.Speed)})

	if spec.Rotate {
		video = Rotate(video, config.RotationDegrees)
	}

	if w, h := spec.Platform.GetMaxDimensions(); w > 0 && h > 0 {
		video = video.
			Filter("scale", ffmpeg.Args{}, ffmpeg.KwArgs{"w": w, "h": h, "force_original_aspect_ratio": "decrease"}).
			Filter("pad", ffmpeg.Args{}, ffmpeg.KwArgs{"w": w, "h": h, "x": "(ow-iw)/2", "y": "(oh-ih)/2", "color": "black"})
	}

	if spec.LogoText != "" {
		video = AddLogo(video, spec.LogoText, spec.FontPath)
	}

	total := spec.Duration()
	audio := ffmpeg.Input(spec.MusicPath).Audio().
		Filter("atrim", ffmpeg.Args{}, ffmpeg.KwArgs{"duration": formatFloat(total)}).
		Filter("asetpts", ffmpeg.Args{}, ffmpeg.KwArgs{"expr": "PTS-STARTPTS"}).
		Filter("afade", ffmpeg.Args{}, ffmpeg.KwArgs{"t": "in", "st": 0, "d": formatFloat(config.MusicFadeIn)}).
		Filter("afade", ffmpeg.Args{}, ffmpeg.KwArgs{
			"t":  "out",
			"st": formatFloat(math.Max(0, total-config.MusicFadeOut)),
			"d":  formatFloat(config.MusicFadeOut),
		})

	plat := spec.Platform
	return ffmpeg.Output([]*ffmpeg.Stream{video, audio}, spec.OutputPath, ffmpeg.KwArgs{
		"c:v":      plat.GetVideoCodec(),
		"c:a":      plat.GetAudioCodec(),
		"b:a":      plat.GetAudioBitrate(),
		"preset":   plat.GetPreset(),
		"crf":      plat.GetCRF(),
		"r":        plat.GetFPS(),
		"pix_fmt":  "yuv420p",
		"threads":  GetOptimalThreadCount(),
		"movflags": "+faststart",
	}).OverWriteOutput(), nil
}

// Rotate turns the stream counter-clockwise by a multiple of 90 degrees
func Rotate(stream *ffmpeg.Stream, degrees int) *ffmpeg.Stream {
	switch ((degrees % 360) + 360) % 360 {
	case 90:
		return stream.Filter("transpose", ffmpeg.Args{}, ffmpeg.KwArgs{"dir": "cclock"})
	case 180:
		return stream.Filter("hflip", ffmpeg.Args{}).Filter("vflip", ffmpeg.Args{})
	case 270:
		return stream.Filter("transpose", ffmpeg.Args{}, ffmpeg.KwArgs{"dir": "clock"})
	default:
		return stream
	}
}

// AddLogo draws semi-transparent text in the top-left corner
func AddLogo(stream *ffmpeg.Stream, text, fontPath string) *ffmpeg.Stream {
	kwargs := ffmpeg.KwArgs{
		"text":      text,
		"fontsize":  config.LogoFontSize,
		"fontcolor": fmt.Sprintf("%s@%s", config.LogoColor, formatFloat(config.LogoOpacity)),
		"x":         config.LogoX,
		"y":         config.LogoY,
	}
	if fontPath != "" {
		kwargs["fontfile"] = fontPath
	}
	return stream.Filter("drawtext", ffmpeg.Args{}, kwargs)
}
