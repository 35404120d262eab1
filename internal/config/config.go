package config

import (
	"bytes"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// RemixOptions defines options for cutting one video into a remix
type RemixOptions struct {
	InputPath      string  `yaml:"input_video"`
	MusicPath      string  `yaml:"music"`
	Cycle          int     `yaml:"cycle"`    // number of segments to draw
	Length         float64 `yaml:"length"`   // seconds per segment
	CutSize        float64 `yaml:"cut_size"` // older name for length, used when length is unset
	NoRotate       *bool   `yaml:"no_rotate"`
	Speed          float64 `yaml:"speed"`
	OutputPath     string  `yaml:"output"`
	OutputDir      string  `yaml:"output_dir"`
	LogoText       string  `yaml:"logo_text"`
	FontPath       string  `yaml:"font"`
	Skip           string  `yaml:"skip"` // e.g. "10s", "1m"
	TargetPlatform string  `yaml:"target_platform"`
	DatasetPath    string  `yaml:"dataset"`
	Workers        int     `yaml:"workers"`
	Seed           *uint64 `yaml:"seed"`
	Verbose        bool    `yaml:"verbose"`
	Repeat         int     `yaml:"repeat"` // remixes to render from this video

	// Iteration numbers the output of a repeated remix. Zero leaves the name unsuffixed.
	Iteration int `yaml:"-"`
}

// Rotates reports whether the remix gets the 270 degree rotation
func (o RemixOptions) Rotates() bool {
	return o.NoRotate == nil || !*o.NoRotate
}

// Repetitions is Repeat with zero read as a single run
func (o RemixOptions) Repetitions() int {
	if o.Repeat < 1 {
		return 1
	}
	return o.Repeat
}

// Batch is the YAML file accepted by the batch command
type Batch struct {
	Defaults RemixOptions   `yaml:"defaults"`
	Videos   []RemixOptions `yaml:"videos"`
}

// MixOptions defines options for a silent montage cut from every video in a folder
type MixOptions struct {
	InputDir       string
	OutputDir      string
	Extensions     []string // without the leading dot
	MinDuration    float64  // seconds
	MaxDuration    float64  // seconds
	TargetPlatform string
	Workers        int
	Seed           *uint64
	Verbose        bool
}

const (
	DefaultCycle     = 4
	DefaultLength    = 5.0
	DefaultSpeed     = 1.2
	DefaultLogoText  = "UTOPIA"
	DefaultFontPath  = "./fonts/Anurati-Regular.otf"
	DefaultDataset   = "dataset.csv"
	DefaultOutputDir = "./dist"
	DefaultWorkers   = 6
	DefaultRepeat    = 1

	// Logo overlay settings
	LogoX        = 60
	LogoY        = 60
	LogoFontSize = 30
	LogoColor    = "white"
	LogoOpacity  = 0.7

	// Fades, in seconds
	ClipFadeIn   = 1.0
	MusicFadeIn  = 2.0
	MusicFadeOut = 1.0

	// Applied unless NoRotate is set
	RotationDegrees = 270

	// Temporary directory prefix
	TempDirPrefix = "clip_remix_"
)

// Folder mix settings
const (
	DefaultMixMinDuration = 60.0
	DefaultMixMaxDuration = 120.0
	DefaultMixExtensions  = "mp4,avi,mov,mkv"

	MixMinGap          = 0.5 // seconds kept between two segments of one source
	MixMinSegment      = 1.0
	MixMaxSegment      = 5.0
	MixMinSpeed        = 1.0
	MixMaxSpeed        = 2.5
	MixMaxAttempts     = 100 // segment picks per mix
	MixSegmentAttempts = 50  // random starts per segment
	MixFPS             = 24
	MixPreset          = "ultrafast"
	MixWidth           = 1920 // canvas when the platform keeps the source size
	MixHeight          = 1080
)

// Environment overrides for the built-in defaults
const (
	EnvFont      = "REMIX_FONT"
	EnvDataset   = "REMIX_DATASET"
	EnvOutputDir = "REMIX_OUTPUT_DIR"
	EnvPlatform  = "REMIX_PLATFORM"
	EnvWorkers   = "REMIX_WORKERS"
)

// LoadEnv loads .env style files into the process environment. Missing files are ignored.
func LoadEnv(files ...string) {
	for _, f := range files {
		_ = godotenv.Load(f)
	}
	if len(files) == 0 {
		_ = godotenv.Load()
	}
}

// Defaults returns the built-in options with environment overrides applied
func Defaults() RemixOptions {
	opts := RemixOptions{
		Cycle:       DefaultCycle,
		Length:      DefaultLength,
		Speed:       DefaultSpeed,
		LogoText:    DefaultLogoText,
		FontPath:    DefaultFontPath,
		DatasetPath: DefaultDataset,
		OutputDir:   DefaultOutputDir,
		Workers:     DefaultWorkers,
		Repeat:      DefaultRepeat,
	}
	if v := os.Getenv(EnvFont); v != "" {
		opts.FontPath = v
	}
	if v := os.Getenv(EnvDataset); v != "" {
		opts.DatasetPath = v
	}
	if v := os.Getenv(EnvOutputDir); v != "" {
		opts.OutputDir = v
	}
	if v := os.Getenv(EnvPlatform); v != "" {
		opts.TargetPlatform = v
	}
	if v := os.Getenv(EnvWorkers); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			opts.Workers = n
		}
	}
	return opts
}

// Merge fills zero-valued fields of o from base and returns the result
func (o RemixOptions) Merge(base RemixOptions) RemixOptions {
	if o.InputPath == "" {
		o.InputPath = base.InputPath
	}
	if o.MusicPath == "" {
		o.MusicPath = base.MusicPath
	}
	if o.Cycle == 0 {
		o.Cycle = base.Cycle
	}
	if o.Length == 0 {
		o.Length = o.CutSize
	}
	if o.Length == 0 {
		o.Length = base.Length
	}
	if o.NoRotate == nil {
		o.NoRotate = base.NoRotate
	}
	if o.Speed == 0 {
		o.Speed = base.Speed
	}
	if o.OutputDir == "" {
		o.OutputDir = base.OutputDir
	}
	if o.LogoText == "" {
		o.LogoText = base.LogoText
	}
	if o.FontPath == "" {
		o.FontPath = base.FontPath
	}
	if o.Skip == "" {
		o.Skip = base.Skip
	}
	if o.TargetPlatform == "" {
		o.TargetPlatform = base.TargetPlatform
	}
	if o.DatasetPath == "" {
		o.DatasetPath = base.DatasetPath
	}
	if o.Workers == 0 {
		o.Workers = base.Workers
	}
	if o.Seed == nil {
		o.Seed = base.Seed
	}
	if o.Repeat == 0 {
		o.Repeat = base.Repeat
	}
	o.Verbose = o.Verbose || base.Verbose
	return o
}

// Validate checks the fields every remix needs
func (o RemixOptions) Validate() error {
	if o.InputPath == "" || o.MusicPath == "" {
		return errors.New("input video and music are required")
	}
	if o.Cycle < 1 {
		return fmt.Errorf("cycle must be at least 1, got %d", o.Cycle)
	}
	if o.Length <= 0 {
		return fmt.Errorf("segment length must be positive, got %v", o.Length)
	}
	if o.Speed <= 0 {
		return fmt.Errorf("speed must be positive, got %v", o.Speed)
	}
	if o.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", o.Workers)
	}
	if o.Repeat < 0 {
		return fmt.Errorf("repeat must not be negative, got %d", o.Repeat)
	}
	return nil
}

// DefaultMix returns the folder mix defaults with environment overrides applied
func DefaultMix() MixOptions {
	d := Defaults()
	return MixOptions{
		OutputDir:      d.OutputDir,
		Extensions:     ParseExtensions(DefaultMixExtensions),
		MinDuration:    DefaultMixMinDuration,
		MaxDuration:    DefaultMixMaxDuration,
		TargetPlatform: d.TargetPlatform,
		Workers:        d.Workers,
	}
}

// ParseExtensions splits a comma-separated list such as "mp4, .MOV" into
// lower-case extensions without dots.
func ParseExtensions(list string) []string {
	var exts []string
	for _, ext := range strings.Split(list, ",") {
		ext = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
		if ext != "" {
			exts = append(exts, ext)
		}
	}
	return exts
}

// Validate checks the fields every folder mix needs
func (o MixOptions) Validate() error {
	if o.InputDir == "" {
		return errors.New("input folder is required")
	}
	if len(o.Extensions) == 0 {
		return errors.New("at least one video extension is required")
	}
	if o.MinDuration <= 0 || o.MaxDuration < o.MinDuration {
		return fmt.Errorf("invalid target duration range %v-%v", o.MinDuration, o.MaxDuration)
	}
	if o.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", o.Workers)
	}
	return nil
}

// LoadBatch reads a batch file and resolves every video against the file
// defaults and then the built-in defaults.
func LoadBatch(path string) (*Batch, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read batch config")
	}
	return ParseBatch(data)
}

// ParseBatch decodes a batch document. Unknown keys are rejected.
func ParseBatch(data []byte) (*Batch, error) {
	var b Batch
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&b); err != nil {
		return nil, errors.Wrap(err, "failed to parse batch config")
	}
	if len(b.Videos) == 0 {
		return nil, errors.New("batch config has no videos")
	}

	base := b.Defaults.Merge(Defaults())
	for i := range b.Videos {
		b.Videos[i] = b.Videos[i].Merge(base)
	}
	return &b, nil
}
