package audio

import (
	"fmt"
	"log/slog"
)

// Validate checks that the decoded format is one the slicer can process
func (ad *AudioData) Validate() error {
	if ad.SampleRate <= 0 {
		return fmt.Errorf("invalid sample rate: %d Hz", ad.SampleRate)
	}

	if ad.Channels <= 0 {
		return fmt.Errorf("invalid channel count: %d", ad.Channels)
	}

	switch ad.BitDepth {
	case 8, 16, 24, 32:
	default:
		return fmt.Errorf("unsupported bit depth: %d bits", ad.BitDepth)
	}

	if len(ad.Samples)%ad.Channels != 0 {
		return fmt.Errorf("sample count %d is not a multiple of %d channels", len(ad.Samples), ad.Channels)
	}

	return nil
}

// LogValue implements slog.LogValuer so buffers can be logged directly
func (ad *AudioData) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("file", ad.Filename),
		slog.Int("duration_ms", ad.DurationMs()),
		slog.Int("sample_rate", ad.SampleRate),
		slog.Int("channels", ad.Channels),
		slog.Int("bit_depth", ad.BitDepth),
		slog.Int("frames", ad.GetFrameCount()),
	)
}
