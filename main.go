package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/ZacxDev/clip-remixer/internal/config"
	"github.com/ZacxDev/clip-remixer/internal/dataset"
	"github.com/ZacxDev/clip-remixer/internal/processor"
	"github.com/ZacxDev/clip-remixer/internal/sampler"
	"github.com/spf13/cobra"
)

var (
	rootCmd = &cobra.Command{
		Use:   "clip-remixer",
		Short: "Cut random segments from a video and remix them with music",
		Long: `clip-remixer draws non-overlapping random segments from a source video,
concatenates them, speeds them up, overlays a logo and lays a music track underneath.
Every sampling outcome is appended to a CSV dataset.

Examples:
  # Remix four 5-second segments of input.mp4 over song.mp3
  clip-remixer remix input.mp4 song.mp3 -c 4

  # Remix every video listed in a batch file
  clip-remixer batch --config videos.yaml

  # Only draw segments from a 90 second timeline
  clip-remixer sample --duration 90 --count 4

  # Build a silent montage from every video in a folder
  clip-remixer mix ./footage ./dist`,
		SilenceUsage: true,
	}

	remixCmd = &cobra.Command{
		Use:   "remix <input> <music>",
		Short: "Remix random segments of a video over a music track",
		Long: fmt.Sprintf(`Draw random non-overlapping segments from the input video and compose them into a remix.

Supported platforms:
%s
Example:
  clip-remixer remix input.mp4 song.mp3 -c 6 -s 1.5 -t tiktok`,
			formatSupportedPlatforms()),
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := config.Defaults()
			opts.InputPath = args[0]
			opts.MusicPath = args[1]

			flags := cmd.Flags()
			if flags.Changed("cycle") {
				opts.Cycle, _ = flags.GetInt("cycle")
			}
			if flags.Changed("length") {
				opts.Length, _ = flags.GetFloat64("length")
			}
			if flags.Changed("speed") {
				opts.Speed, _ = flags.GetFloat64("speed")
			}
			if flags.Changed("logo-text") {
				opts.LogoText, _ = flags.GetString("logo-text")
			}
			if flags.Changed("font") {
				opts.FontPath, _ = flags.GetString("font")
			}
			if flags.Changed("output-dir") {
				opts.OutputDir, _ = flags.GetString("output-dir")
			}
			if flags.Changed("target-platform") {
				opts.TargetPlatform, _ = flags.GetString("target-platform")
			}
			if flags.Changed("dataset") {
				opts.DatasetPath, _ = flags.GetString("dataset")
			}
			if flags.Changed("workers") {
				opts.Workers, _ = flags.GetInt("workers")
			}
			if flags.Changed("seed") {
				seed, _ := flags.GetUint64("seed")
				opts.Seed = &seed
			}
			if flags.Changed("no-rotate") {
				noRotate, _ := flags.GetBool("no-rotate")
				opts.NoRotate = &noRotate
			}
			if flags.Changed("repeat") {
				opts.Repeat, _ = flags.GetInt("repeat")
			}
			opts.OutputPath, _ = flags.GetString("output")
			opts.Skip, _ = flags.GetString("skip")
			opts.Verbose, _ = flags.GetBool("verbose")

			if opts.Repeat < 0 {
				return fmt.Errorf("repeat must not be negative, got %d", opts.Repeat)
			}
			if opts.Repetitions() > 1 {
				batch := &config.Batch{Videos: []config.RemixOptions{opts}}
				results, err := processor.ProcessBatch(cmd.Context(), batch)
				for _, res := range results {
					fmt.Printf("Created %s (%.1fs, %d segments, %s)\n",
						res.OutputPath, res.Duration, len(res.Outcome.Intervals), res.Outcome.Classification)
				}
				return err
			}

			res, err := processor.NewEditor(opts).Process(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Printf("Created %s (%.1fs, %d segments, %s)\n",
				res.OutputPath, res.Duration, len(res.Outcome.Intervals), res.Outcome.Classification)
			return nil
		},
	}

	batchCmd = &cobra.Command{
		Use:   "batch",
		Short: "Remix every video listed in a YAML batch file",
		Long: `Process a list of videos described in a YAML file.

Example file:
  defaults:
    speed: 1.2
    logo_text: UTOPIA
  videos:
    - input_video: a.mp4
      music: song.mp3
      cycle: 4
    - input_video: b.mp4
      music: other.mp3
      no_rotate: true
      repeat: 3`,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, _ := cmd.Flags().GetString("config")
			batch, err := config.LoadBatch(path)
			if err != nil {
				return err
			}
			if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
				for i := range batch.Videos {
					batch.Videos[i].Verbose = true
				}
			}

			results, err := processor.ProcessBatch(cmd.Context(), batch)
			for _, res := range results {
				fmt.Printf("Created %s (%s)\n", res.OutputPath, res.Outcome.Classification)
			}
			return err
		},
	}

	sampleCmd = &cobra.Command{
		Use:   "sample",
		Short: "Draw non-overlapping segments without touching any media",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := processor.SampleOptions{}
			opts.Duration, _ = cmd.Flags().GetFloat64("duration")
			opts.Length, _ = cmd.Flags().GetFloat64("length")
			opts.Count, _ = cmd.Flags().GetInt("count")
			opts.DatasetPath, _ = cmd.Flags().GetString("dataset")
			if cmd.Flags().Changed("seed") {
				seed, _ := cmd.Flags().GetUint64("seed")
				opts.Seed = &seed
			}

			outcome, err := processor.Sample(cmd.Context(), opts)
			if err != nil {
				return err
			}
			fmt.Printf("%s %s (attempts: %d)\n",
				dataset.FormatIntervals(outcome.Intervals), outcome.Classification, outcome.Attempts)
			return nil
		},
	}

	mixCmd = &cobra.Command{
		Use:   "mix <input-folder> [output-dir]",
		Short: "Build a silent montage from random segments of every video in a folder",
		Long: `Cut 1-5 second segments from the videos in a folder, play each one at a
random speed between 1x and 2.5x and join them until the target duration is
reached. Footage is never reused, and segments taken from the same video stay
at least half a second apart.

Example:
  clip-remixer mix ./footage ./dist --min-duration 30 --max-duration 45`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := config.DefaultMix()
			opts.InputDir = args[0]
			if len(args) == 2 {
				opts.OutputDir = args[1]
			}

			flags := cmd.Flags()
			opts.MinDuration, _ = flags.GetFloat64("min-duration")
			opts.MaxDuration, _ = flags.GetFloat64("max-duration")
			exts, _ := flags.GetString("extensions")
			opts.Extensions = config.ParseExtensions(exts)
			if flags.Changed("target-platform") {
				opts.TargetPlatform, _ = flags.GetString("target-platform")
			}
			if flags.Changed("workers") {
				opts.Workers, _ = flags.GetInt("workers")
			}
			if flags.Changed("seed") {
				seed, _ := flags.GetUint64("seed")
				opts.Seed = &seed
			}
			opts.Verbose, _ = flags.GetBool("verbose")

			res, err := processor.NewMixer(opts).Mix(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Printf("Created %s (%.1fs of %.1fs target, %d segments from %d videos)\n",
				res.OutputPath, res.Duration, res.Target, len(res.Segments), len(res.Sources))
			return nil
		},
	}

	statsCmd = &cobra.Command{
		Use:   "stats",
		Short: "Count the Unique and Repeated rows of a sampling dataset",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := config.Defaults().DatasetPath
			if cmd.Flags().Changed("dataset") {
				path, _ = cmd.Flags().GetString("dataset")
			}
			logger := dataset.NewLogger(path)
			records, err := logger.Records()
			if err != nil {
				return err
			}

			counts := dataset.Summary(records)
			fmt.Printf("%s: %d rows\n", logger.Path(), len(records))
			for _, c := range []sampler.Classification{sampler.Unique, sampler.Repeated} {
				share := 0.0
				if len(records) > 0 {
					share = 100 * float64(counts[c]) / float64(len(records))
				}
				fmt.Printf("  %-8s %6d  %5.1f%%\n", c, counts[c], share)
			}
			return nil
		},
	}

	platformsCmd = &cobra.Command{
		Use:   "platforms",
		Short: "List supported output platforms",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Print(formatSupportedPlatforms())
		},
	}
)

func formatSupportedPlatforms() string {
	platforms := processor.GetSupportedPlatforms()
	var sb strings.Builder
	for _, platform := range platforms {
		sb.WriteString(fmt.Sprintf("- %s\n", platform))
	}
	return sb.String()
}

func init() {
	// Remix command flags
	remixCmd.Flags().IntP("cycle", "c", config.DefaultCycle, "Number of segments to cut")
	remixCmd.Flags().Float64P("length", "l", config.DefaultLength, "Length of each segment in seconds")
	remixCmd.Flags().Bool("no-rotate", false, "Disable rotation (default: rotate 270 degrees)")
	remixCmd.Flags().Float64P("speed", "s", config.DefaultSpeed, "Video speed multiplier")
	remixCmd.Flags().StringP("output", "o", "", "Output file (default: auto-generated in the output directory)")
	remixCmd.Flags().String("output-dir", config.DefaultOutputDir, "Directory for auto-named outputs")
	remixCmd.Flags().String("logo-text", config.DefaultLogoText, "Text to display as logo")
	remixCmd.Flags().StringP("font", "f", config.DefaultFontPath, "Font file for logo text")
	remixCmd.Flags().String("skip", "", "Duration to skip from start (e.g., '1s', '10s', '1m')")
	remixCmd.Flags().StringP("target-platform", "t", "", "Target platform for encoding")
	remixCmd.Flags().String("dataset", config.DefaultDataset, "CSV file that collects sampling outcomes")
	remixCmd.Flags().Int("workers", config.DefaultWorkers, "Parallel clip extractions")
	remixCmd.Flags().Uint64("seed", 0, "Random seed for reproducible segments")
	remixCmd.Flags().IntP("repeat", "r", config.DefaultRepeat, "Number of remixes to render, suffixed _1, _2, ...")
	remixCmd.Flags().BoolP("verbose", "v", false, "Enable verbose logging")

	// Batch command flags
	batchCmd.Flags().String("config", "", "Path to YAML batch file")
	batchCmd.Flags().BoolP("verbose", "v", false, "Enable verbose logging")
	batchCmd.MarkFlagRequired("config")

	// Sample command flags
	sampleCmd.Flags().Float64P("duration", "d", 0, "Total timeline duration in seconds")
	sampleCmd.Flags().Float64P("length", "l", config.DefaultLength, "Length of each segment in seconds")
	sampleCmd.Flags().IntP("count", "n", config.DefaultCycle, "Number of segments to draw")
	sampleCmd.Flags().Uint64("seed", 0, "Random seed for reproducible segments")
	sampleCmd.Flags().String("dataset", "", "Append the outcome to this CSV file")
	sampleCmd.MarkFlagRequired("duration")

	// Mix command flags
	mixCmd.Flags().Float64("min-duration", config.DefaultMixMinDuration, "Minimum duration in seconds")
	mixCmd.Flags().Float64("max-duration", config.DefaultMixMaxDuration, "Maximum duration in seconds")
	mixCmd.Flags().String("extensions", config.DefaultMixExtensions, "Video file extensions to use (comma-separated)")
	mixCmd.Flags().StringP("target-platform", "t", "", "Target platform for encoding")
	mixCmd.Flags().Int("workers", config.DefaultWorkers, "Parallel clip extractions")
	mixCmd.Flags().Uint64("seed", 0, "Random seed for a reproducible mix")
	mixCmd.Flags().BoolP("verbose", "v", false, "Enable verbose logging")

	// Stats command flags
	statsCmd.Flags().String("dataset", config.DefaultDataset, "CSV file that collects sampling outcomes")

	rootCmd.AddCommand(remixCmd)
	rootCmd.AddCommand(batchCmd)
	rootCmd.AddCommand(sampleCmd)
	rootCmd.AddCommand(mixCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(platformsCmd)
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	config.LoadEnv()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Println(err)
		stop()
		os.Exit(1)
	}
}
