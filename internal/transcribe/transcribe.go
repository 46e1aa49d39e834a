// Package transcribe turns written clips into text through a pluggable
// speech-to-text backend.
package transcribe

import (
	"context"
	"errors"
)

// ErrEmptyPath is returned when Transcribe is called without a file.
var ErrEmptyPath = errors.New("empty audio path")

// Transcriber converts one audio file into text.
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath string) (string, error)
}

// Func adapts a function to the Transcriber interface.
type Func func(ctx context.Context, audioPath string) (string, error)

// Transcribe calls f
func (f Func) Transcribe(ctx context.Context, audioPath string) (string, error) {
	return f(ctx, audioPath)
}
