// Package slicer runs the segmenter over every audio file of a directory
// and hands the resulting clips to an output.Writer.
package slicer

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"voice-slicer/internal/audio"
	"voice-slicer/internal/output"
	"voice-slicer/internal/progress"
	"voice-slicer/internal/segmenter"
)

// supportedExtensions lists the recognized input formats (case-insensitive)
var supportedExtensions = []string{".wav", ".mp3"}

// FileResult is the outcome of slicing one source file.
type FileResult struct {
	File     string   // source path
	Attempts int      // loop iterations, including discarded ones
	Clips    []string // locations of written clips, in ordinal order
	Err      error    // nil on success
}

// Summary is the outcome of a whole run.
type Summary struct {
	RunID string
	Files []FileResult
}

// TotalClips returns the number of clips written across all files
func (s *Summary) TotalClips() int {
	total := 0
	for _, f := range s.Files {
		total += len(f.Clips)
	}
	return total
}

// Failed returns the results of files that did not complete
func (s *Summary) Failed() []FileResult {
	var failed []FileResult
	for _, f := range s.Files {
		if f.Err != nil {
			failed = append(failed, f)
		}
	}
	return failed
}

// Slicer processes directories of recordings. Files are independent and
// are processed concurrently; each file is segmented sequentially.
type Slicer struct {
	seg       *segmenter.Segmenter
	writer    output.Writer
	reporter  progress.Reporter
	logger    *slog.Logger
	workers   int
	debugInfo bool
	load      func(string) (*audio.AudioData, error)
}

// Option configures a Slicer.
type Option func(*Slicer)

// WithReporter sets the progress reporter.
func WithReporter(r progress.Reporter) Option {
	return func(s *Slicer) {
		if r != nil {
			s.reporter = r
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Slicer) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithWorkers sets how many files are processed in parallel.
// Values below 1 are ignored.
func WithWorkers(n int) Option {
	return func(s *Slicer) {
		if n > 0 {
			s.workers = n
		}
	}
}

// WithDebugInfo logs sample statistics of every decoded source file.
func WithDebugInfo(enabled bool) Option {
	return func(s *Slicer) {
		s.debugInfo = enabled
	}
}

// New creates a Slicer.
func New(seg *segmenter.Segmenter, writer output.Writer, opts ...Option) *Slicer {
	s := &Slicer{
		seg:      seg,
		writer:   writer,
		reporter: progress.Discard,
		logger:   slog.Default(),
		workers:  runtime.NumCPU(),
		load:     audio.Load,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ScanDir lists the supported audio files directly inside dir, sorted by
// name.
func ScanDir(dir string) ([]string, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInputNotFound, dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", ErrInputNotFound, dir)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInputNotFound, dir, err)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() || !isSupported(entry.Name()) {
			continue
		}
		files = append(files, filepath.Join(dir, entry.Name()))
	}
	return files, nil
}

func isSupported(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, supported := range supportedExtensions {
		if ext == supported {
			return true
		}
	}
	return false
}

// Run slices every supported file in inputDir.
//
// ErrInputNotFound and output preparation failures abort the run.
// ErrNoEligibleFiles is returned together with an empty Summary. Per-file
// decode and write failures are recorded in the Summary and reported as
// error events; they do not fail the run. Files sharing a stem
// (case-insensitive) with an earlier file are skipped with ErrDuplicateStem
// so no two files write the same clip names.
func (s *Slicer) Run(ctx context.Context, inputDir string) (*Summary, error) {
	summary := &Summary{RunID: uuid.NewString()}

	files, err := ScanDir(inputDir)
	if err != nil {
		s.reportRunError(summary.RunID, err)
		return summary, err
	}

	s.reporter.Report(progress.Event{
		RunID:   summary.RunID,
		Kind:    progress.KindStep,
		Message: "Preparing output",
	})
	if err := s.writer.Prepare(ctx); err != nil {
		err = fmt.Errorf("prepare output: %w", err)
		s.reportRunError(summary.RunID, err)
		return summary, err
	}

	if len(files) == 0 {
		err := fmt.Errorf("%w: %s", ErrNoEligibleFiles, inputDir)
		s.reportRunError(summary.RunID, err)
		return summary, err
	}

	s.logger.Info("slicing started",
		slog.String("run_id", summary.RunID),
		slog.String("input_dir", inputDir),
		slog.Int("files", len(files)),
		slog.Int("workers", s.workers),
	)

	summary.Files = make([]FileResult, len(files))
	owners := make(map[string]string, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i, file := range files {
		key := strings.ToLower(stem(file))
		if owner, taken := owners[key]; taken {
			summary.Files[i] = s.skipDuplicate(summary.RunID, file, owner)
			continue
		}
		owners[key] = file

		i, file := i, file
		g.Go(func() error {
			summary.Files[i] = s.processFile(gctx, summary.RunID, file)
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		s.reportRunError(summary.RunID, err)
		return summary, fmt.Errorf("slicing interrupted: %w", err)
	}

	s.reporter.Report(progress.Event{
		RunID:      summary.RunID,
		Kind:       progress.KindDone,
		TotalClips: summary.TotalClips(),
		Message:    "Processing complete!",
	})
	return summary, nil
}

func (s *Slicer) processFile(ctx context.Context, runID, file string) FileResult {
	result := FileResult{File: file}
	name := filepath.Base(file)

	if err := ctx.Err(); err != nil {
		result.Err = err
		return result
	}

	buf, err := s.load(file)
	if err != nil {
		result.Err = fmt.Errorf("%w: %s: %w", ErrDecodeFailure, name, err)
		s.logger.Warn("skipping undecodable file",
			slog.String("file", file),
			slog.String("error", err.Error()),
		)
		s.reportFileError(runID, name, result.Err)
		return result
	}

	if s.debugInfo {
		s.logger.Debug("source loaded",
			slog.Any("audio", buf),
			slog.Any("content", buf.AnalyzeContent()),
		)
	}

	err = s.seg.Run(ctx, buf, func(a segmenter.Attempt) error {
		result.Attempts++
		ev := progress.Event{
			RunID:   runID,
			Kind:    progress.KindAttempt,
			File:    name,
			Attempt: a.Ordinal,
			Emitted: a.Emitted(),
			Message: fmt.Sprintf("Slicing %s", name),
		}

		if a.Clip != nil {
			location, err := s.writer.Write(ctx, a.Clip)
			if err != nil {
				err = fmt.Errorf("%w: %s slice %d: %w", ErrWriteFailure, name, a.Ordinal, err)
				ev.IsError = true
				ev.Message = fmt.Sprintf("Error: %v", err)
				s.reporter.Report(ev)
				return err
			}
			ev.Location = location
			result.Clips = append(result.Clips, location)
		}

		s.reporter.Report(ev)
		return nil
	})
	if err != nil {
		result.Err = err
		s.logger.Error("slicing failed",
			slog.String("file", file),
			slog.String("error", err.Error()),
		)
		s.reportFileError(runID, name, err)
		return result
	}

	s.reporter.Report(progress.Event{
		RunID:      runID,
		Kind:       progress.KindCompleted,
		File:       name,
		Attempt:    result.Attempts,
		TotalClips: len(result.Clips),
		Message:    fmt.Sprintf("Finished %s", name),
	})
	return result
}

// skipDuplicate records a file whose stem is already claimed by owner.
// Both would write the same clip names into the output directory.
func (s *Slicer) skipDuplicate(runID, file, owner string) FileResult {
	name := filepath.Base(file)
	err := fmt.Errorf("%w: %s collides with %s", ErrDuplicateStem, name, filepath.Base(owner))
	s.logger.Warn("skipping file with duplicate stem",
		slog.String("file", file),
		slog.String("kept", owner),
	)
	s.reportFileError(runID, name, err)
	return FileResult{File: file, Err: err}
}

// stem returns the file name without directory and extension, the prefix
// its clips are named after.
func stem(file string) string {
	base := filepath.Base(file)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func (s *Slicer) reportFileError(runID, name string, err error) {
	s.reporter.Report(progress.Event{
		RunID:   runID,
		Kind:    progress.KindError,
		File:    name,
		Message: fmt.Sprintf("Error: %v", err),
		IsError: true,
	})
}

func (s *Slicer) reportRunError(runID string, err error) {
	s.reporter.Report(progress.Event{
		RunID:   runID,
		Kind:    progress.KindDone,
		Message: fmt.Sprintf("Error: %v", err),
		IsError: true,
	})
}
