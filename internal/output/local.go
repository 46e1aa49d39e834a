package output

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"voice-slicer/internal/loudness"
	"voice-slicer/internal/segmenter"
)

// DirWriter writes clips as WAV files into a local directory.
type DirWriter struct {
	dir           string
	normalizeLUFS float64
	logger        *slog.Logger
}

// DirOption configures a DirWriter.
type DirOption func(*DirWriter)

// WithNormalization normalizes every clip to targetLUFS before writing.
// Zero disables normalization.
func WithNormalization(targetLUFS float64) DirOption {
	return func(w *DirWriter) {
		w.normalizeLUFS = targetLUFS
	}
}

// WithLogger sets the logger used for per-clip diagnostics.
func WithLogger(logger *slog.Logger) DirOption {
	return func(w *DirWriter) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// NewDirWriter creates a DirWriter rooted at dir.
func NewDirWriter(dir string, opts ...DirOption) *DirWriter {
	w := &DirWriter{
		dir:    dir,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Dir returns the output directory.
func (w *DirWriter) Dir() string {
	return w.dir
}

// Prepare removes the regular files in the output directory, or creates it
// when it does not exist. Subdirectories are left alone.
func (w *DirWriter) Prepare(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context cancelled: %w", err)
	}

	entries, err := os.ReadDir(w.dir)
	if os.IsNotExist(err) {
		if err := os.MkdirAll(w.dir, 0750); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("read output directory: %w", err)
	}

	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		p := filepath.Join(w.dir, entry.Name())
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("remove %s: %w", p, err)
		}
	}
	return nil
}

// Write converts the clip to 22050 Hz / 16-bit and saves it as
// {stem}_slice_{ordinal}.wav. It returns the file path.
func (w *DirWriter) Write(ctx context.Context, clip *segmenter.Clip) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("context cancelled: %w", err)
	}

	converted, err := clip.Audio.Convert(SampleRate, BitDepth)
	if err != nil {
		return "", fmt.Errorf("convert clip %d of %s: %w", clip.Ordinal, clip.Source, err)
	}

	if w.normalizeLUFS != 0 {
		result, err := loudness.NormalizeAudio(converted, w.normalizeLUFS)
		if err != nil {
			return "", fmt.Errorf("normalize clip %d of %s: %w", clip.Ordinal, clip.Source, err)
		}
		if result.ClippedSamples > 0 {
			w.logger.Warn("clipping during normalization",
				slog.String("source", clip.Source),
				slog.Int("ordinal", clip.Ordinal),
				slog.Int("clipped_samples", result.ClippedSamples),
				slog.Float64("gain_db", result.GainDB),
			)
		}
	}

	path := filepath.Join(w.dir, ClipName(clip))
	if err := converted.SaveWAV(path); err != nil {
		return "", err
	}
	return path, nil
}
