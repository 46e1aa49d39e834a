package audio

import (
	"fmt"
	"os"

	"github.com/gopxl/beep/mp3"
)

// mp3BitDepth is the precision decoded MP3 frames are quantized to
const mp3BitDepth = 16

// LoadMP3 decodes an MP3 file fully into memory as 16-bit PCM
func LoadMP3(filename string) (*AudioData, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open file %s: %w", filename, err)
	}

	// mp3.Decode takes ownership of the file and closes it with the streamer
	streamer, format, err := mp3.Decode(file)
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("invalid MP3 file %s: %w", filename, err)
	}
	defer streamer.Close()

	channels := format.NumChannels
	if channels < 1 || channels > 2 {
		return nil, fmt.Errorf("unsupported channel count %d in %s", channels, filename)
	}

	samples := make([]int32, 0, streamer.Len()*channels)
	buf := make([][2]float64, 4096)
	for {
		n, ok := streamer.Stream(buf)
		for _, frame := range buf[:n] {
			for ch := 0; ch < channels; ch++ {
				samples = append(samples, quantize(frame[ch], mp3BitDepth))
			}
		}
		if !ok {
			break
		}
	}
	if err := streamer.Err(); err != nil {
		return nil, fmt.Errorf("failed to decode MP3 data from %s: %w", filename, err)
	}

	ad := &AudioData{
		Samples:    samples,
		SampleRate: int(format.SampleRate),
		Channels:   channels,
		BitDepth:   mp3BitDepth,
		Filename:   filename,
	}
	if err := ad.Validate(); err != nil {
		return nil, fmt.Errorf("invalid MP3 file %s: %w", filename, err)
	}
	return ad, nil
}

// quantize maps a [-1, 1] float sample to a signed integer of the given depth
func quantize(v float64, bitDepth int) int32 {
	scale := FullScale(bitDepth)
	scaled := v * scale
	if scaled > scale-1 {
		return int32(scale - 1)
	}
	if scaled < -scale {
		return int32(-scale)
	}
	if scaled < 0 {
		return int32(scaled - 0.5)
	}
	return int32(scaled + 0.5)
}
