package config

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/sethvargo/go-envconfig"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func noEnv() envconfig.Lookuper {
	return envconfig.MapLookuper(map[string]string{})
}

func TestDefaultConfig(t *testing.T) {
	cfg, err := Load(context.Background(), "", noEnv())
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 3000, cfg.Segmentation.MinLengthMs)
	assert.Equal(t, 11000, cfg.Segmentation.MaxLengthMs)
	assert.Equal(t, "{audio_file}|{text}|{speaker_name}", cfg.Metadata.Template)
	assert.Equal(t, "coqui", cfg.Metadata.SpeakerName)
	assert.Equal(t, "transcriptions.csv", cfg.Metadata.Filename)
	assert.False(t, cfg.S3Enabled())
	assert.Equal(t, runtime.NumCPU(), cfg.WorkerCount())
}

func TestLoadYAML(t *testing.T) {
	path := writeFile(t, "voice.yaml", `
input_dir: recordings
workers: 2
segmentation:
  min_length_ms: 2000
  max_length_ms: 8000
s3:
  bucket: clips
  region: eu-west-1
metadata:
  speaker_name: alice
`)

	cfg, err := Load(context.Background(), path, noEnv())
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "recordings", cfg.InputDir)
	assert.Equal(t, "sliced", cfg.OutputDir, "keys missing from the file keep defaults")
	assert.Equal(t, 2, cfg.WorkerCount())
	assert.Equal(t, 2000, cfg.Segmentation.MinLengthMs)
	assert.Equal(t, 8000, cfg.Segmentation.MaxLengthMs)
	assert.Equal(t, 14.0, cfg.Segmentation.ThresholdOffsetDB)
	assert.True(t, cfg.S3Enabled())
	assert.Equal(t, "eu-west-1", cfg.S3Config().Region)
	assert.Equal(t, "alice", cfg.Metadata.SpeakerName)
	assert.Equal(t, "audio_file|text|speaker_name", cfg.Metadata.HeaderRow)
}

func TestLoadTOML(t *testing.T) {
	path := writeFile(t, "voice.toml", `
output_dir = "clips"
log_format = "json"

[segmentation]
max_length_ms = 15000

[transcription]
endpoint = "http://localhost:8000/v1"
model = "large-v3"
`)

	cfg, err := Load(context.Background(), path, noEnv())
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "clips", cfg.OutputDir)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 3000, cfg.Segmentation.MinLengthMs)
	assert.Equal(t, 15000, cfg.Segmentation.MaxLengthMs)
	assert.Equal(t, "http://localhost:8000/v1", cfg.Transcription.Endpoint)
	assert.Equal(t, "large-v3", cfg.Transcription.Model)
}

func TestLoadFileErrors(t *testing.T) {
	_, err := Load(context.Background(), writeFile(t, "voice.json", "{}"), noEnv())
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	_, err = Load(context.Background(), filepath.Join(t.TempDir(), "missing.yaml"), noEnv())
	assert.Error(t, err)

	_, err = Load(context.Background(), writeFile(t, "bad.yaml", "segmentation: [1, 2"), noEnv())
	assert.Error(t, err)
}

func TestEnvOverridesFile(t *testing.T) {
	path := writeFile(t, "voice.yaml", "input_dir: from-file\nsegmentation:\n  max_length_ms: 8000\n")
	env := envconfig.MapLookuper(map[string]string{
		"VOXSLICE_INPUT_DIR":         "from-env",
		"VOXSLICE_MIN_LENGTH_MS":     "2500",
		"VOXSLICE_S3_BUCKET":         "clips",
		"VOXSLICE_S3_REGION":         "us-east-1",
		"VOXSLICE_AWS_ACCESS_KEY_ID": "AKID",
		"VOXSLICE_SPEAKER_NAME":      "bob",
		"VOXSLICE_DEBUG_INFO":        "true",
		"INPUT_DIR":                  "ignored without prefix",
	})

	cfg, err := Load(context.Background(), path, env)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "from-env", cfg.InputDir)
	assert.Equal(t, 2500, cfg.Segmentation.MinLengthMs)
	assert.Equal(t, 8000, cfg.Segmentation.MaxLengthMs, "file value survives when env is unset")
	assert.Equal(t, 500, cfg.Segmentation.PaddingMs)
	assert.Equal(t, "AKID", cfg.S3Config().AccessKeyID)
	assert.Equal(t, "bob", cfg.Metadata.SpeakerName)
	assert.True(t, cfg.DebugInfo)
}

func TestEnvParseError(t *testing.T) {
	env := envconfig.MapLookuper(map[string]string{"VOXSLICE_WORKERS": "many"})
	_, err := Load(context.Background(), "", env)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"max below min", func(c *Config) { c.Segmentation.MaxLengthMs = 1000 }},
		{"zero min", func(c *Config) { c.Segmentation.MinLengthMs = 0 }},
		{"missing input", func(c *Config) { c.InputDir = "" }},
		{"negative workers", func(c *Config) { c.Workers = -1 }},
		{"log format", func(c *Config) { c.LogFormat = "xml" }},
		{"log level", func(c *Config) { c.LogLevel = "loud" }},
		{"normalize too hot", func(c *Config) { c.NormalizeLUFS = -3 }},
		{"bucket without region", func(c *Config) { c.S3.Bucket = "clips" }},
		{"bad endpoint", func(c *Config) { c.S3.Endpoint = "not a url" }},
		{"unknown template field", func(c *Config) { c.Metadata.Template = "{audio_file}|{duration}" }},
		{"unbalanced template", func(c *Config) { c.Metadata.Template = "{audio_file" }},
		{"output is input", func(c *Config) { c.OutputDir = c.InputDir }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}

	cfg := DefaultConfig()
	cfg.NormalizeLUFS = -16
	assert.NoError(t, cfg.Validate())
}

func TestValidateOutputIsInput(t *testing.T) {
	dir := t.TempDir()
	for _, out := range []string{dir, dir + string(filepath.Separator), filepath.Join(dir, "sub", "..")} {
		cfg := DefaultConfig()
		cfg.InputDir = dir
		cfg.OutputDir = out
		assert.ErrorIs(t, cfg.Validate(), ErrOutputIsInput, out)
	}

	cfg := DefaultConfig()
	cfg.InputDir = dir
	cfg.OutputDir = filepath.Join(dir, "clips")
	assert.NoError(t, cfg.Validate(), "a subdirectory of the input is fine")
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	cfg := DefaultConfig()
	cfg.LogFormat = "json"
	cfg.LogLevel = "warn"

	logger := cfg.NewLogger(&buf)
	logger.Info("hidden")
	logger.Warn("shown", slog.String("file", "a.wav"))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "shown", entry["msg"])
	assert.Equal(t, "a.wav", entry["file"])
}

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLogLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, parseLogLevel("warning"))
	assert.Equal(t, slog.LevelError, parseLogLevel("error"))
	assert.Equal(t, slog.LevelInfo, parseLogLevel("anything"))
}

func TestStringMasksSecrets(t *testing.T) {
	cfg := DefaultConfig()
	cfg.S3.SecretAccessKey = "top-secret"
	cfg.Transcription.APIKey = "sk-secret"

	s := cfg.String()
	assert.NotContains(t, s, "top-secret")
	assert.NotContains(t, s, "sk-secret")
}
