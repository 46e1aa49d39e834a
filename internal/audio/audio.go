package audio

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// AudioData represents decoded PCM audio data
type AudioData struct {
	Samples    []int32 // PCM samples (interleaved for multi-channel)
	SampleRate int     // Sample rate in Hz
	Channels   int     // Number of channels
	BitDepth   int     // Bit depth
	Filename   string  // Original filename
}

// Load decodes a WAV or MP3 file based on its extension
func Load(filename string) (*AudioData, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".wav":
		return LoadWAV(filename)
	case ".mp3":
		return LoadMP3(filename)
	default:
		return nil, fmt.Errorf("unsupported audio format: %s", filename)
	}
}

// LoadWAV loads a WAV file and returns AudioData
func LoadWAV(filename string) (*AudioData, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open file %s: %w", filename, err)
	}
	defer file.Close()

	decoder := wav.NewDecoder(file)
	if !decoder.IsValidFile() {
		return nil, fmt.Errorf("invalid WAV file: %s", filename)
	}

	intBuf, err := decoder.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to decode PCM data from %s: %w", filename, err)
	}

	if intBuf == nil || intBuf.Format == nil {
		return nil, fmt.Errorf("no PCM data found in %s", filename)
	}

	// Get bit depth from the buffer (default to 16 if not available)
	bitDepth := 16
	if intBuf.SourceBitDepth > 0 {
		bitDepth = intBuf.SourceBitDepth
	}

	// 8-bit PCM is stored unsigned around 128
	var offset int32
	if bitDepth == 8 {
		offset = pcm8Offset
	}

	samples := make([]int32, len(intBuf.Data))
	for i, sample := range intBuf.Data {
		samples[i] = int32(sample) - offset
	}

	ad := &AudioData{
		Samples:    samples,
		SampleRate: intBuf.Format.SampleRate,
		Channels:   intBuf.Format.NumChannels,
		BitDepth:   bitDepth,
		Filename:   filename,
	}
	if err := ad.Validate(); err != nil {
		return nil, fmt.Errorf("invalid WAV file %s: %w", filename, err)
	}
	return ad, nil
}

// SaveWAV saves AudioData to a WAV file
func (ad *AudioData) SaveWAV(filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create file %s: %w", filename, err)
	}
	defer file.Close()

	encoder := wav.NewEncoder(file, ad.SampleRate, ad.BitDepth, ad.Channels, 1)

	intBuf := &audio.IntBuffer{
		Format: &audio.Format{
			NumChannels: ad.Channels,
			SampleRate:  ad.SampleRate,
		},
		Data:           make([]int, len(ad.Samples)),
		SourceBitDepth: ad.BitDepth,
	}

	var offset int32
	if ad.BitDepth == 8 {
		offset = pcm8Offset
	}
	for i, sample := range ad.Samples {
		intBuf.Data[i] = int(sample + offset)
	}

	if err := encoder.Write(intBuf); err != nil {
		return fmt.Errorf("failed to write audio data to %s: %w", filename, err)
	}

	if err := encoder.Close(); err != nil {
		return fmt.Errorf("failed to close encoder for %s: %w", filename, err)
	}

	return nil
}

// GetFrameCount returns the number of frames (samples per channel)
func (ad *AudioData) GetFrameCount() int {
	if ad.Channels == 0 {
		return 0
	}
	return len(ad.Samples) / ad.Channels
}

// DurationMs returns the duration rounded to whole milliseconds
func (ad *AudioData) DurationMs() int {
	if ad.SampleRate == 0 {
		return 0
	}
	return int(math.Round(float64(ad.GetFrameCount()) * 1000 / float64(ad.SampleRate)))
}

// Duration returns the duration in seconds
func (ad *AudioData) Duration() float64 {
	if ad.SampleRate == 0 {
		return 0
	}
	return float64(ad.GetFrameCount()) / float64(ad.SampleRate)
}

// FrameAt converts a millisecond offset to a frame index (floored, unclamped)
func (ad *AudioData) FrameAt(ms int) int {
	return int(int64(ms) * int64(ad.SampleRate) / 1000)
}

// Slice returns a view of the audio between two millisecond offsets.
// Offsets are clamped to the buffer; the view shares the sample storage.
func (ad *AudioData) Slice(startMs, endMs int) *AudioData {
	return ad.sliceFrames(ad.FrameAt(startMs), ad.FrameAt(endMs))
}

func (ad *AudioData) sliceFrames(startFrame, endFrame int) *AudioData {
	frames := ad.GetFrameCount()
	startFrame = min(max(startFrame, 0), frames)
	endFrame = min(max(endFrame, startFrame), frames)

	return &AudioData{
		Samples:    ad.Samples[startFrame*ad.Channels : endFrame*ad.Channels : endFrame*ad.Channels],
		SampleRate: ad.SampleRate,
		Channels:   ad.Channels,
		BitDepth:   ad.BitDepth,
		Filename:   ad.Filename,
	}
}

// AppendSilence returns a new buffer with durationMs of digital silence appended
func (ad *AudioData) AppendSilence(durationMs int) *AudioData {
	pad := ad.FrameAt(durationMs) * ad.Channels
	samples := make([]int32, len(ad.Samples)+pad)
	copy(samples, ad.Samples)

	return &AudioData{
		Samples:    samples,
		SampleRate: ad.SampleRate,
		Channels:   ad.Channels,
		BitDepth:   ad.BitDepth,
		Filename:   ad.Filename,
	}
}

// Stem returns the base filename without directory and extension
func (ad *AudioData) Stem() string {
	base := filepath.Base(ad.Filename)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// pcm8Offset is the zero level of unsigned 8-bit WAV samples
const pcm8Offset = 128

// FullScale returns the magnitude of full-scale amplitude for the bit depth
func FullScale(bitDepth int) float64 {
	switch bitDepth {
	case 8:
		return 128.0 // 2^7
	case 16:
		return 32768.0 // 2^15
	case 24:
		return 8388608.0 // 2^23
	case 32:
		return 2147483648.0 // 2^31
	default:
		return 32768.0 // Default to 16-bit
	}
}
