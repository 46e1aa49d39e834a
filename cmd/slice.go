package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"voice-slicer/internal/config"
	"voice-slicer/internal/output"
	"voice-slicer/internal/progress"
	"voice-slicer/internal/segmenter"
	"voice-slicer/internal/slicer"

	"github.com/spf13/cobra"
)

var sliceFlags struct {
	input        string
	output       string
	minLength    int
	maxLength    int
	workers      int
	normalize    float64
	progressAddr string
	debugInfo    bool
	s3Bucket     string
	s3Region     string
	s3Prefix     string
	s3Endpoint   string
}

var sliceCmd = &cobra.Command{
	Use:   "slice",
	Short: "Slice every .wav and .mp3 file of the input directory",
	Long: `slice cuts each recording of the input directory into clips between the minimum
and maximum length, preferring the longest pause inside the window as cut point.
The output directory is cleared before the run.`,
	Args: cobra.NoArgs,
	RunE: runSlice,
}

func init() {
	defaults := config.DefaultConfig()

	f := sliceCmd.Flags()
	f.StringVarP(&sliceFlags.input, "input", "i", defaults.InputDir,
		"Directory holding the source recordings")
	f.StringVarP(&sliceFlags.output, "output", "o", defaults.OutputDir,
		"Directory receiving the clips (cleared before the run)")
	f.IntVar(&sliceFlags.minLength, "min-length", defaults.Segmentation.MinLengthMs,
		"Minimum clip length in milliseconds")
	f.IntVar(&sliceFlags.maxLength, "max-length", defaults.Segmentation.MaxLengthMs,
		"Maximum clip length in milliseconds")
	f.IntVarP(&sliceFlags.workers, "workers", "w", 0,
		"Files processed in parallel (0 = number of CPUs)")
	f.Float64Var(&sliceFlags.normalize, "normalize", 0,
		"Normalize every clip to this loudness in LUFS (0 = off)")
	f.StringVar(&sliceFlags.progressAddr, "progress-addr", "",
		"Serve websocket progress events on this address, e.g. :8090")
	f.BoolVar(&sliceFlags.debugInfo, "debug-info", false,
		"Log detailed sample statistics of every source file")
	f.StringVar(&sliceFlags.s3Bucket, "s3-bucket", "", "Upload clips to this S3 bucket")
	f.StringVar(&sliceFlags.s3Region, "s3-region", "", "Region of the S3 bucket")
	f.StringVar(&sliceFlags.s3Prefix, "s3-prefix", "", "Key prefix for uploaded clips")
	f.StringVar(&sliceFlags.s3Endpoint, "s3-endpoint", "", "Custom S3-compatible endpoint")
}

func applySliceFlags(cmd *cobra.Command, cfg *config.Config) {
	f := cmd.Flags()
	if f.Changed("input") {
		cfg.InputDir = sliceFlags.input
	}
	if f.Changed("output") {
		cfg.OutputDir = sliceFlags.output
	}
	if f.Changed("min-length") {
		cfg.Segmentation.MinLengthMs = sliceFlags.minLength
	}
	if f.Changed("max-length") {
		cfg.Segmentation.MaxLengthMs = sliceFlags.maxLength
	}
	if f.Changed("workers") {
		cfg.Workers = sliceFlags.workers
	}
	if f.Changed("normalize") {
		cfg.NormalizeLUFS = sliceFlags.normalize
	}
	if f.Changed("progress-addr") {
		cfg.ProgressAddr = sliceFlags.progressAddr
	}
	if f.Changed("debug-info") {
		cfg.DebugInfo = sliceFlags.debugInfo
	}
	if f.Changed("s3-bucket") {
		cfg.S3.Bucket = sliceFlags.s3Bucket
	}
	if f.Changed("s3-region") {
		cfg.S3.Region = sliceFlags.s3Region
	}
	if f.Changed("s3-prefix") {
		cfg.S3.Prefix = sliceFlags.s3Prefix
	}
	if f.Changed("s3-endpoint") {
		cfg.S3.Endpoint = sliceFlags.s3Endpoint
	}
}

func runSlice(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := loadConfig(cmd, applySliceFlags)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	seg, err := segmenter.New(cfg.Segmentation)
	if err != nil {
		return fmt.Errorf("invalid segmentation settings: %w", err)
	}

	writer, err := newWriter(ctx, cfg, logger)
	if err != nil {
		return err
	}

	reporters := progress.Multi{progress.NewLogReporter(logger)}
	if cfg.ProgressAddr != "" {
		hub := progress.NewHub(logger)
		addr, err := hub.Start(ctx, cfg.ProgressAddr)
		if err != nil {
			return fmt.Errorf("start progress endpoint: %w", err)
		}
		defer hub.Close()
		reporters = append(reporters, hub)
		fmt.Fprintf(out, "Progress events: ws://%s/progress\n", addr)
	}

	fmt.Fprintf(out, "voice-slicer started\n")
	fmt.Fprintf(out, "Configuration:\n")
	fmt.Fprintf(out, "  Input: %s\n", cfg.InputDir)
	fmt.Fprintf(out, "  Output: %s\n", cfg.OutputDir)
	fmt.Fprintf(out, "  Clip Length: %d-%d ms\n", cfg.Segmentation.MinLengthMs, cfg.Segmentation.MaxLengthMs)
	fmt.Fprintf(out, "  Workers: %d\n", cfg.WorkerCount())
	if cfg.NormalizeLUFS != 0 {
		fmt.Fprintf(out, "  Normalize: %.1f LUFS\n", cfg.NormalizeLUFS)
	}
	if cfg.S3Enabled() {
		fmt.Fprintf(out, "  Upload: s3://%s/%s\n", cfg.S3.Bucket, cfg.S3.Prefix)
	}
	fmt.Fprintln(out)

	s := slicer.New(seg, writer,
		slicer.WithReporter(reporters),
		slicer.WithLogger(logger),
		slicer.WithWorkers(cfg.WorkerCount()),
		slicer.WithDebugInfo(cfg.DebugInfo),
	)

	summary, err := s.Run(ctx, cfg.InputDir)
	if errors.Is(err, slicer.ErrNoEligibleFiles) {
		fmt.Fprintf(out, "⚠️  No .wav or .mp3 files found in %s\n", cfg.InputDir)
		return nil
	}
	if err != nil {
		return err
	}

	for i, f := range summary.Files {
		status := "✓"
		if f.Err != nil {
			status = "✗ " + f.Err.Error()
		}
		fmt.Fprintf(out, "[%d/%d] %s: %d clip(s) from %d attempt(s) %s\n",
			i+1, len(summary.Files), filepath.Base(f.File), len(f.Clips), f.Attempts, status)
	}

	fmt.Fprintf(out, "\n✅ Processing complete! %d clip(s) written\n", summary.TotalClips())
	if failed := summary.Failed(); len(failed) > 0 {
		fmt.Fprintf(out, "%d file(s) could not be processed\n", len(failed))
	}
	return nil
}

func newWriter(ctx context.Context, cfg *config.Config, logger *slog.Logger) (output.Writer, error) {
	opts := []output.DirOption{output.WithLogger(logger)}
	if cfg.NormalizeLUFS != 0 {
		opts = append(opts, output.WithNormalization(cfg.NormalizeLUFS))
	}

	if !cfg.S3Enabled() {
		return output.NewDirWriter(cfg.OutputDir, opts...), nil
	}

	w, err := output.NewS3Writer(ctx, cfg.OutputDir, cfg.S3Config(), opts...)
	if err != nil {
		return nil, fmt.Errorf("create S3 writer: %w", err)
	}
	return w, nil
}
