package transcribe_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voice-slicer/internal/transcribe"
)

func writeClip(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("RIFF fake wav"), 0o600))
	return path
}

func TestOpenAITranscribe(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/audio/transcriptions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		if !assert.NoError(t, r.ParseMultipartForm(1<<20)) {
			http.Error(w, "bad form", http.StatusBadRequest)
			return
		}
		assert.Equal(t, "whisper-large", r.FormValue("model"))
		assert.Equal(t, "json", r.FormValue("response_format"))

		f, header, err := r.FormFile("file")
		if !assert.NoError(t, err) {
			http.Error(w, "missing file", http.StatusBadRequest)
			return
		}
		defer f.Close()
		body, _ := io.ReadAll(f)
		assert.Equal(t, "clip_slice_0.wav", header.Filename)
		assert.Equal(t, "RIFF fake wav", string(body))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"text": "  Hello world. \n"})
	}))
	defer srv.Close()

	path := writeClip(t, t.TempDir(), "clip_slice_0.wav")
	backend := transcribe.NewOpenAI("sk-test", "whisper-large", transcribe.WithBaseURL(srv.URL+"/v1/"))

	text, err := backend.Transcribe(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "Hello world.", text)
}

func TestOpenAIErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"), "no key, no auth header")
		http.Error(w, "model not loaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	backend := transcribe.NewOpenAI("", "", transcribe.WithBaseURL(srv.URL), transcribe.WithHTTPClient(srv.Client()))

	_, err := backend.Transcribe(context.Background(), writeClip(t, t.TempDir(), "a.wav"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
	assert.Contains(t, err.Error(), "model not loaded")

	_, err = backend.Transcribe(context.Background(), "")
	assert.ErrorIs(t, err, transcribe.ErrEmptyPath)

	_, err = backend.Transcribe(context.Background(), filepath.Join(t.TempDir(), "missing.wav"))
	assert.Error(t, err)
}

func TestBatch(t *testing.T) {
	dir := t.TempDir()
	paths := []string{
		writeClip(t, dir, "a.wav"),
		writeClip(t, dir, "b.wav"),
		writeClip(t, dir, "c.wav"),
	}

	var calls atomic.Int32
	fake := transcribe.Func(func(_ context.Context, path string) (string, error) {
		calls.Add(1)
		if strings.HasSuffix(path, "b.wav") {
			return "", errors.New("rate limited")
		}
		return "line one\nline  two ", nil
	})

	results, err := transcribe.Batch(context.Background(), fake, paths, 2, nil)
	require.NoError(t, err)
	assert.Equal(t, int32(3), calls.Load())

	require.Len(t, results, 3)
	for i, r := range results {
		assert.Equal(t, paths[i], r.Path, "results keep input order")
	}
	assert.Equal(t, "line one line two", results[0].Text)
	assert.Error(t, results[1].Err)
	assert.NoError(t, results[2].Err)
}

func TestBatchCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	fake := transcribe.Func(func(context.Context, string) (string, error) {
		return "never", nil
	})

	results, err := transcribe.Batch(ctx, fake, []string{"a.wav"}, 0, nil)
	assert.ErrorIs(t, err, context.Canceled)
	require.Len(t, results, 1)
	assert.Error(t, results[0].Err)
}
