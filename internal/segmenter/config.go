package segmenter

import (
	"errors"
	"fmt"
)

// Defaults for the tunables that are not part of the per-run surface.
const (
	DefaultThresholdOffsetDB = 14.0
	DefaultMinSilenceMs      = 500
	DefaultPaddingMs         = 500
	DefaultSkipGapMs         = 50
	DefaultGateThresholdDB   = -40.0
)

// Config holds the parameters for segmenting one source file.
type Config struct {
	// MinLengthMs is the shortest clip cut at a silence; only the final
	// remainder of a file may be shorter.
	MinLengthMs int `yaml:"min_length_ms" toml:"min_length_ms" env:"MIN_LENGTH_MS, overwrite" validate:"gt=0"`
	// MaxLengthMs bounds the search window and the fallback cut.
	MaxLengthMs int `yaml:"max_length_ms" toml:"max_length_ms" env:"MAX_LENGTH_MS, overwrite" validate:"gt=0,gtefield=MinLengthMs"`

	// ThresholdOffsetDB is subtracted from a buffer's own dBFS to obtain the
	// silence threshold used while searching for cut points.
	ThresholdOffsetDB float64 `yaml:"threshold_offset_db" toml:"threshold_offset_db" env:"THRESHOLD_OFFSET_DB, overwrite" validate:"gte=0"`
	// MinSilenceMs is the shortest run of low level counted as silence.
	MinSilenceMs int `yaml:"min_silence_ms" toml:"min_silence_ms" env:"MIN_SILENCE_MS, overwrite" validate:"gt=0"`
	// PaddingMs of digital silence is appended to every clip.
	PaddingMs int `yaml:"padding_ms" toml:"padding_ms" env:"PADDING_MS, overwrite" validate:"gte=0"`
	// SkipGapMs is skipped after each cut before the next window starts.
	SkipGapMs int `yaml:"skip_gap_ms" toml:"skip_gap_ms" env:"SKIP_GAP_MS, overwrite" validate:"gte=0"`
	// GateThresholdDB is the fixed dBFS level below which a padded clip is
	// discarded as background noise.
	GateThresholdDB float64 `yaml:"gate_threshold_db" toml:"gate_threshold_db" env:"GATE_THRESHOLD_DB, overwrite" validate:"lte=0"`
}

// DefaultConfig returns the reference configuration: 3 s to 11 s clips.
func DefaultConfig() Config {
	return Config{
		MinLengthMs:       3000,
		MaxLengthMs:       11000,
		ThresholdOffsetDB: DefaultThresholdOffsetDB,
		MinSilenceMs:      DefaultMinSilenceMs,
		PaddingMs:         DefaultPaddingMs,
		SkipGapMs:         DefaultSkipGapMs,
		GateThresholdDB:   DefaultGateThresholdDB,
	}
}

// Validate checks the invariants the segmentation loop relies on.
func (c Config) Validate() error {
	if c.MinLengthMs <= 0 {
		return errors.New("minimum length must be positive")
	}

	if c.MaxLengthMs < c.MinLengthMs {
		return fmt.Errorf("maximum length %d ms is shorter than minimum length %d ms", c.MaxLengthMs, c.MinLengthMs)
	}

	if c.MinSilenceMs <= 0 {
		return errors.New("minimum silence duration must be positive")
	}

	if c.PaddingMs < 0 {
		return errors.New("padding duration must be non-negative")
	}

	if c.SkipGapMs < 0 {
		return errors.New("skip gap must be non-negative")
	}

	if c.ThresholdOffsetDB < 0 {
		return errors.New("threshold offset must be non-negative")
	}

	return nil
}
