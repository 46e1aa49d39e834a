// Package output persists finished clips. It defines the Writer interface
// and implementations for a local directory and S3.
package output

import (
	"context"
	"errors"
	"fmt"

	"voice-slicer/internal/segmenter"
)

// Fixed output format for every clip.
const (
	SampleRate = 22050
	BitDepth   = 16
)

// ErrS3NotConfigured is returned when an S3 writer is requested without a
// bucket and region.
var ErrS3NotConfigured = errors.New("S3 storage is not configured")

// Writer persists clips. Implementations must be safe for concurrent use
// by workers processing different source files.
type Writer interface {
	// Prepare readies the output namespace before a run: existing clips
	// are removed or the destination is created.
	Prepare(ctx context.Context) error

	// Write converts the clip to the output format and stores it. It
	// returns the location of the stored clip (path or URL).
	Write(ctx context.Context, clip *segmenter.Clip) (string, error)
}

// ClipName returns the output filename for a clip:
// {source stem}_slice_{ordinal}.wav
func ClipName(clip *segmenter.Clip) string {
	return fmt.Sprintf("%s_slice_%d.wav", clip.Audio.Stem(), clip.Ordinal)
}
