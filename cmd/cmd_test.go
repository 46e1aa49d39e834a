package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voice-slicer/internal/audiotest"
)

func execute(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	require.NoError(t, rootCmd.ExecuteContext(context.Background()), out.String())
	return out.String()
}

func TestSliceThenTranscribe(t *testing.T) {
	in, out := t.TempDir(), filepath.Join(t.TempDir(), "clips")
	buf := audiotest.New(audiotest.DefaultRate, 1).Tone(5000).Silence(600).Tone(9400).Build("talk.wav")
	require.NoError(t, buf.SaveWAV(filepath.Join(in, "talk.wav")))

	stdout := execute(t, "slice", "--input", in, "--output", out, "--workers", "1", "--log-level", "error")
	assert.Contains(t, stdout, "2 clip(s) written")
	assert.FileExists(t, filepath.Join(out, "talk_slice_0.wav"))
	assert.FileExists(t, filepath.Join(out, "talk_slice_1.wav"))

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"text": "some words"})
	}))
	defer srv.Close()

	stdout = execute(t, "transcribe", "--dir", out, "--endpoint", srv.URL, "--speaker", "alice", "--log-level", "error")
	assert.Contains(t, stdout, "Wrote 2 record(s)")

	data, err := os.ReadFile(filepath.Join(out, "transcriptions.csv"))
	require.NoError(t, err)
	absOut, err := filepath.Abs(out)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"audio_file|text|speaker_name",
		filepath.Join(absOut, "talk_slice_0.wav") + "|some words|alice",
		filepath.Join(absOut, "talk_slice_1.wav") + "|some words|alice",
	}, strings.Split(strings.TrimSpace(string(data)), "\n"))
}

func TestSliceEmptyInputIsNotAFailure(t *testing.T) {
	stdout := execute(t, "slice", "--input", t.TempDir(), "--output", t.TempDir(), "--log-level", "error")
	assert.Contains(t, stdout, "No .wav or .mp3 files found")
}

func TestSliceRejectsInvalidLengths(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs([]string{"slice", "--input", t.TempDir(), "--output", t.TempDir(), "--min-length", "5000", "--max-length", "4000"})
	assert.Error(t, rootCmd.ExecuteContext(context.Background()))
}
