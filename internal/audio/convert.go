package audio

import (
	"fmt"

	"github.com/gopxl/beep"
)

// resampleQuality is the beep interpolation quality used for offline conversion
const resampleQuality = 6

// Convert returns a copy of the audio at the given sample rate and bit depth.
// The channel layout is preserved.
func (ad *AudioData) Convert(sampleRate, bitDepth int) (*AudioData, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("invalid target sample rate: %d Hz", sampleRate)
	}
	switch bitDepth {
	case 8, 16, 24, 32:
	default:
		return nil, fmt.Errorf("unsupported target bit depth: %d bits", bitDepth)
	}

	if ad.SampleRate == sampleRate && ad.BitDepth == bitDepth {
		return ad.Clone(), nil
	}

	channels := make([][]float64, ad.Channels)
	for ch := range channels {
		channels[ch] = ad.channel(ch)
		if ad.SampleRate != sampleRate {
			channels[ch] = resample(channels[ch], ad.SampleRate, sampleRate)
		}
	}

	frames := 0
	if len(channels) > 0 {
		frames = len(channels[0])
		for _, c := range channels[1:] {
			frames = min(frames, len(c))
		}
	}

	samples := make([]int32, frames*ad.Channels)
	for i := 0; i < frames; i++ {
		for ch, c := range channels {
			samples[i*ad.Channels+ch] = quantize(c[i], bitDepth)
		}
	}

	return &AudioData{
		Samples:    samples,
		SampleRate: sampleRate,
		Channels:   ad.Channels,
		BitDepth:   bitDepth,
		Filename:   ad.Filename,
	}, nil
}

// channel extracts one channel as normalized float samples
func (ad *AudioData) channel(ch int) []float64 {
	scale := FullScale(ad.BitDepth)
	out := make([]float64, ad.GetFrameCount())
	for i := range out {
		out[i] = float64(ad.Samples[i*ad.Channels+ch]) / scale
	}
	return out
}

func resample(in []float64, from, to int) []float64 {
	r := beep.Resample(resampleQuality, beep.SampleRate(from), beep.SampleRate(to), &monoStreamer{samples: in})

	out := make([]float64, 0, len(in)*to/from+1)
	buf := make([][2]float64, 4096)
	for {
		n, ok := r.Stream(buf)
		for _, frame := range buf[:n] {
			out = append(out, frame[0])
		}
		if !ok {
			break
		}
	}
	return out
}

// monoStreamer feeds a single channel to beep with both stereo slots set
type monoStreamer struct {
	samples []float64
	pos     int
}

func (s *monoStreamer) Stream(samples [][2]float64) (n int, ok bool) {
	if s.pos >= len(s.samples) {
		return 0, false
	}
	for n < len(samples) && s.pos < len(s.samples) {
		samples[n][0] = s.samples[s.pos]
		samples[n][1] = s.samples[s.pos]
		n++
		s.pos++
	}
	return n, true
}

func (s *monoStreamer) Err() error {
	return nil
}
