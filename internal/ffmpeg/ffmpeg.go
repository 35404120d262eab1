package ffmpeg

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math"
	"os/exec"
	"runtime"
	"strconv"
	"strings"

	"github.com/ZacxDev/clip-remixer/internal/platform"
	"github.com/ZacxDev/clip-remixer/internal/sampler"
	"github.com/pkg/errors"
	ffmpeg "github.com/u2takey/ffmpeg-go"
)

// VideoMetadata contains metadata about a video file
type VideoMetadata struct {
	Duration float64
	Width    int
	Height   int
	Codec    string
}

type probeFunc func(path string) (string, error)

type runFunc func(ctx context.Context, binary string, args []string) error

// Processor wraps FFmpeg functionality
type Processor struct {
	verbose bool
	binary  string
	probe   probeFunc
	run     runFunc
}

// Option configures a Processor.
type Option func(*Processor)

// WithBinary sets the ffmpeg executable.
func WithBinary(path string) Option {
	return func(p *Processor) { p.binary = path }
}

// WithProbe replaces ffprobe.
func WithProbe(fn func(path string) (string, error)) Option {
	return func(p *Processor) { p.probe = fn }
}

// WithRunner replaces process execution.
func WithRunner(fn func(ctx context.Context, binary string, args []string) error) Option {
	return func(p *Processor) { p.run = fn }
}

// NewProcessor creates a new FFmpeg processor
func NewProcessor(verbose bool, opts ...Option) *Processor {
	p := &Processor{
		verbose: verbose,
		binary:  "ffmpeg",
		probe: func(path string) (string, error) {
			return ffmpeg.Probe(path)
		},
		run: runCommand,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// GetVideoMetadata retrieves metadata about a video file
func (p *Processor) GetVideoMetadata(inputPath string) (*VideoMetadata, error) {
	probe, err := p.probe(inputPath)
	if err != nil {
		return nil, errors.Wrap(err, "error probing video")
	}
	return ParseProbe(probe)
}

type probeStream struct {
	CodecType  string `json:"codec_type"`
	CodecName  string `json:"codec_name"`
	Width      int    `json:"width"`
	Height     int    `json:"height"`
	Duration   string `json:"duration"`
	NbFrames   string `json:"nb_frames"`
	RFrameRate string `json:"r_frame_rate"`
}

type probeOutput struct {
	Streams []probeStream `json:"streams"`
	Format  struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

// ParseProbe extracts VideoMetadata from ffprobe JSON output
func ParseProbe(probe string) (*VideoMetadata, error) {
	var data probeOutput
	if err := json.Unmarshal([]byte(probe), &data); err != nil {
		return nil, errors.WithStack(err)
	}

	if len(data.Streams) == 0 {
		return nil, fmt.Errorf("no streams found in video")
	}

	var videoStream *probeStream
	for i := range data.Streams {
		if data.Streams[i].CodecType == "video" {
			videoStream = &data.Streams[i]
			break
		}
	}
	if videoStream == nil {
		return nil, fmt.Errorf("no video stream found")
	}

	// First try video stream duration, then format duration
	duration := parseSeconds(videoStream.Duration)
	if duration == 0 {
		duration = parseSeconds(data.Format.Duration)
	}

	// If still no duration found, try calculating from frames and frame rate
	if duration == 0 && videoStream.NbFrames != "" {
		frames, err := strconv.ParseFloat(videoStream.NbFrames, 64)
		if err == nil {
			if rate := parseFrameRate(videoStream.RFrameRate); rate > 0 {
				duration = frames / rate
			}
		}
	}

	if duration == 0 {
		return nil, fmt.Errorf("could not determine video duration")
	}

	return &VideoMetadata{
		Duration: duration,
		Width:    videoStream.Width,
		Height:   videoStream.Height,
		Codec:    videoStream.CodecName,
	}, nil
}

func parseSeconds(s string) float64 {
	d, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return d
}

func parseFrameRate(s string) float64 {
	nums := strings.Split(s, "/")
	if len(nums) != 2 {
		return 0
	}
	num, err1 := strconv.ParseFloat(nums[0], 64)
	den, err2 := strconv.ParseFloat(nums[1], 64)
	if err1 != nil || err2 != nil || den == 0 {
		return 0
	}
	return num / den
}

// ExtractClip re-encodes one interval of the input into a standalone clip
func (p *Processor) ExtractClip(ctx context.Context, inputPath, outputPath string, iv sampler.Interval, plat platform.Platform) error {
	stream := BuildExtract(inputPath, outputPath, iv, plat)
	if p.verbose {
		log.Printf("Extracting %s from %s\n", iv, inputPath)
	}
	if err := p.exec(ctx, stream); err != nil {
		return errors.Wrapf(err, "failed to extract clip %s", iv)
	}
	return nil
}

// BuildExtract returns the ffmpeg graph that cuts iv out of inputPath
func BuildExtract(inputPath, outputPath string, iv sampler.Interval, plat platform.Platform) *ffmpeg.Stream {
	return ffmpeg.Input(inputPath, ffmpeg.KwArgs{
		"ss": formatFloat(iv.Start),
		"t":  formatFloat(iv.Length()),
	}).Output(outputPath, ffmpeg.KwArgs{
		"c:v":     plat.GetVideoCodec(),
		"c:a":     plat.GetAudioCodec(),
		"preset":  plat.GetPreset(),
		"crf":     plat.GetCRF(),
		"pix_fmt": "yuv420p",
	}).OverWriteOutput()
}

func (p *Processor) exec(ctx context.Context, stream *ffmpeg.Stream) error {
	args := stream.GetArgs()
	if p.verbose {
		log.Printf("FFmpeg command: %s %s\n", p.binary, strings.Join(args, " "))
	}
	return p.run(ctx, p.binary, args)
}

func runCommand(ctx context.Context, binary string, args []string) error {
	cmd := exec.CommandContext(ctx, binary, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return errors.Wrapf(err, "ffmpeg: %s", lastLines(stderr.String(), 5))
	}
	return nil
}

func lastLines(s string, n int) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "\n")
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// GetOptimalThreadCount leaves a quarter of the cores free
func GetOptimalThreadCount() int {
	cpuCount := runtime.NumCPU()
	return int(math.Max(1, float64(cpuCount)*0.75))
}
