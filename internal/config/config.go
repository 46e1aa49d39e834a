// Package config assembles the run configuration from defaults, an
// optional YAML or TOML file, VOXSLICE_ environment variables and flags.
package config

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
	"github.com/sethvargo/go-envconfig"
	"gopkg.in/yaml.v3"

	"voice-slicer/internal/loudness"
	"voice-slicer/internal/metadata"
	"voice-slicer/internal/output"
	"voice-slicer/internal/segmenter"
	"voice-slicer/internal/transcribe"
)

// EnvPrefix is prepended to every environment variable name.
const EnvPrefix = "VOXSLICE_"

// ErrUnsupportedFormat is returned for config files that are neither YAML
// nor TOML.
var ErrUnsupportedFormat = errors.New("config: unsupported file format")

// ErrOutputIsInput is returned when the output directory resolves to the
// input directory. Preparing the output clears it, which would delete the
// source recordings.
var ErrOutputIsInput = errors.New("config: output directory must differ from input directory")

// S3 holds the optional upload target. Uploads are enabled when both
// bucket and region are set.
type S3 struct {
	Bucket          string `yaml:"bucket" toml:"bucket" env:"S3_BUCKET, overwrite"`
	Region          string `yaml:"region" toml:"region" env:"S3_REGION, overwrite"`
	Prefix          string `yaml:"prefix" toml:"prefix" env:"S3_PREFIX, overwrite"`
	Endpoint        string `yaml:"endpoint" toml:"endpoint" env:"S3_ENDPOINT, overwrite" validate:"omitempty,url"`
	AccessKeyID     string `yaml:"access_key_id" toml:"access_key_id" env:"AWS_ACCESS_KEY_ID, overwrite"`
	SecretAccessKey string `yaml:"secret_access_key" toml:"secret_access_key" env:"AWS_SECRET_ACCESS_KEY, overwrite"`
}

// Transcription configures the speech-to-text backend.
type Transcription struct {
	Endpoint string `yaml:"endpoint" toml:"endpoint" env:"TRANSCRIBE_ENDPOINT, overwrite" validate:"omitempty,url"`
	Model    string `yaml:"model" toml:"model" env:"TRANSCRIBE_MODEL, overwrite"`
	APIKey   string `yaml:"api_key" toml:"api_key" env:"TRANSCRIBE_API_KEY, overwrite"`
}

// Metadata configures the transcription table.
type Metadata struct {
	SpeakerName string `yaml:"speaker_name" toml:"speaker_name" env:"SPEAKER_NAME, overwrite"`
	HeaderRow   string `yaml:"header_row" toml:"header_row" env:"HEADER_ROW, overwrite"`
	Template    string `yaml:"template" toml:"template" env:"METADATA_TEMPLATE, overwrite" validate:"required"`
	Filename    string `yaml:"filename" toml:"filename" env:"METADATA_FILE, overwrite" validate:"required"`
}

// Config holds all configuration parameters for voice-slicer
type Config struct {
	Segmentation segmenter.Config `yaml:"segmentation" toml:"segmentation"`

	// Directories
	InputDir  string `yaml:"input_dir" toml:"input_dir" env:"INPUT_DIR, overwrite" validate:"required"`
	OutputDir string `yaml:"output_dir" toml:"output_dir" env:"OUTPUT_DIR, overwrite" validate:"required"`

	// Processing
	Workers       int     `yaml:"workers" toml:"workers" env:"WORKERS, overwrite" validate:"gte=0"`
	NormalizeLUFS float64 `yaml:"normalize_lufs" toml:"normalize_lufs" env:"NORMALIZE_LUFS, overwrite"` // 0 disables
	DebugInfo     bool    `yaml:"debug_info" toml:"debug_info" env:"DEBUG_INFO, overwrite"`

	// ProgressAddr enables the websocket progress endpoint, e.g. ":8090".
	ProgressAddr string `yaml:"progress_addr" toml:"progress_addr" env:"PROGRESS_ADDR, overwrite"`

	S3            S3            `yaml:"s3" toml:"s3"`
	Transcription Transcription `yaml:"transcription" toml:"transcription"`
	Metadata      Metadata      `yaml:"metadata" toml:"metadata"`

	// Logging settings
	LogFormat string `yaml:"log_format" toml:"log_format" env:"LOG_FORMAT, overwrite" validate:"oneof=text json"`
	LogLevel  string `yaml:"log_level" toml:"log_level" env:"LOG_LEVEL, overwrite" validate:"oneof=debug info warn warning error"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	return &Config{
		Segmentation: segmenter.DefaultConfig(),
		InputDir:     "input",
		OutputDir:    "sliced",
		Transcription: Transcription{
			Endpoint: transcribe.DefaultBaseURL,
			Model:    transcribe.DefaultModel,
		},
		Metadata: Metadata{
			SpeakerName: metadata.DefaultSpeakerName,
			HeaderRow:   metadata.DefaultHeader,
			Template:    metadata.DefaultTemplate,
			Filename:    metadata.DefaultFilename,
		},
		LogFormat: "text",
		LogLevel:  "info",
	}
}

// Load builds a Config from defaults, the file at path (if any) and the
// environment. A nil lookuper reads the process environment.
func Load(ctx context.Context, path string, lookuper envconfig.Lookuper) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		if err := LoadFile(path, cfg); err != nil {
			return nil, err
		}
	}

	if err := ApplyEnv(ctx, cfg, lookuper); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFile decodes a YAML (.yaml, .yml) or TOML (.toml) file over cfg.
// Keys missing from the file keep their current values.
func LoadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: read %s: %w", path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("config: parse %s: %w", path, err)
		}
	case ".toml":
		if _, err := toml.Decode(string(data), cfg); err != nil {
			return fmt.Errorf("config: parse %s: %w", path, err)
		}
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
	return nil
}

// ApplyEnv overrides cfg with VOXSLICE_-prefixed environment variables.
// Unset variables leave the current values untouched.
func ApplyEnv(ctx context.Context, cfg *Config, lookuper envconfig.Lookuper) error {
	if lookuper == nil {
		lookuper = envconfig.OsLookuper()
	}

	err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   cfg,
		Lookuper: envconfig.PrefixLookuper(EnvPrefix, lookuper),
	})
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	if err := c.Segmentation.Validate(); err != nil {
		return fmt.Errorf("config: segmentation: %w", err)
	}

	if c.NormalizeLUFS != 0 {
		if err := loudness.ValidateTargetLoudness(c.NormalizeLUFS); err != nil {
			return fmt.Errorf("config: %w", err)
		}
	}

	same, err := sameDir(c.InputDir, c.OutputDir)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if same {
		return fmt.Errorf("%w: %s", ErrOutputIsInput, c.OutputDir)
	}

	if (c.S3.Bucket == "") != (c.S3.Region == "") {
		return errors.New("config: s3 bucket and region must be set together")
	}

	if _, err := metadata.ParseTemplate(c.Metadata.Template); err != nil {
		return fmt.Errorf("config: metadata template: %w", err)
	}

	return nil
}

// sameDir compares two directories by their cleaned absolute paths
func sameDir(a, b string) (bool, error) {
	absA, err := filepath.Abs(a)
	if err != nil {
		return false, fmt.Errorf("resolve %s: %w", a, err)
	}
	absB, err := filepath.Abs(b)
	if err != nil {
		return false, fmt.Errorf("resolve %s: %w", b, err)
	}
	return absA == absB, nil
}

// WorkerCount returns the configured parallelism, defaulting to the CPU
// count.
func (c *Config) WorkerCount() int {
	if c.Workers > 0 {
		return c.Workers
	}
	return runtime.NumCPU()
}

// S3Enabled returns true if S3 configuration is provided.
func (c *Config) S3Enabled() bool {
	return c.S3.Bucket != "" && c.S3.Region != ""
}

// S3Config converts the S3 section for the output package.
func (c *Config) S3Config() output.S3Config {
	return output.S3Config{
		Bucket:          c.S3.Bucket,
		Region:          c.S3.Region,
		Prefix:          c.S3.Prefix,
		Endpoint:        c.S3.Endpoint,
		AccessKeyID:     c.S3.AccessKeyID,
		SecretAccessKey: c.S3.SecretAccessKey,
	}
}

// NewLogger creates a structured logger writing to w. When LogFormat is
// "json" records are JSON, otherwise human-readable text.
func (c *Config) NewLogger(w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLogLevel(c.LogLevel)}

	var handler slog.Handler
	if strings.ToLower(c.LogFormat) == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler)
}

// String returns a string representation of the config with secrets masked.
func (c *Config) String() string {
	return fmt.Sprintf(
		"Config{InputDir: %s, OutputDir: %s, MinLengthMs: %d, MaxLengthMs: %d, Workers: %d, S3Bucket: %s, S3Region: %s, TranscribeEndpoint: %s, LogFormat: %s, LogLevel: %s}",
		c.InputDir,
		c.OutputDir,
		c.Segmentation.MinLengthMs,
		c.Segmentation.MaxLengthMs,
		c.WorkerCount(),
		c.S3.Bucket,
		c.S3.Region,
		c.Transcription.Endpoint,
		c.LogFormat,
		c.LogLevel,
	)
}

// parseLogLevel converts a string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
