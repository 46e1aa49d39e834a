// Package audiotest builds synthetic PCM buffers for tests.
package audiotest

import (
	"math"

	"voice-slicer/internal/audio"
)

// DefaultRate keeps synthetic fixtures small while every millisecond is a
// whole number of frames.
const DefaultRate = 16000

// Builder appends tone and silence sections to a 16-bit buffer.
type Builder struct {
	rate     int
	channels int
	freq     float64
	amp      float64
	samples  []int32
	frames   int
}

// New starts a 16-bit buffer with a 440 Hz tone at half of full scale.
func New(rate, channels int) *Builder {
	return &Builder{rate: rate, channels: channels, freq: 440, amp: 0.5}
}

// Amplitude sets the tone amplitude relative to full scale for the
// following sections.
func (b *Builder) Amplitude(amp float64) *Builder {
	b.amp = amp
	return b
}

// Tone appends ms of sine tone. The phase continues across sections.
func (b *Builder) Tone(ms int) *Builder {
	n := ms * b.rate / 1000
	for i := 0; i < n; i++ {
		v := b.amp * math.Sin(2*math.Pi*b.freq*float64(b.frames)/float64(b.rate))
		s := int32(math.Round(v * 32767))
		for ch := 0; ch < b.channels; ch++ {
			b.samples = append(b.samples, s)
		}
		b.frames++
	}
	return b
}

// Silence appends ms of digital silence.
func (b *Builder) Silence(ms int) *Builder {
	n := ms * b.rate / 1000
	b.samples = append(b.samples, make([]int32, n*b.channels)...)
	b.frames += n
	return b
}

// Build returns the buffer under the given filename.
func (b *Builder) Build(filename string) *audio.AudioData {
	samples := make([]int32, len(b.samples))
	copy(samples, b.samples)
	return &audio.AudioData{
		Samples:    samples,
		SampleRate: b.rate,
		Channels:   b.channels,
		BitDepth:   16,
		Filename:   filename,
	}
}

// Tone returns a mono buffer of ms of tone at DefaultRate.
func Tone(ms int) *audio.AudioData {
	return New(DefaultRate, 1).Tone(ms).Build("tone.wav")
}
