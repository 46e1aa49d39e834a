package audio

import (
	"log/slog"
	"math"
)

// ApplyGain applies a gain factor to the audio samples in place and
// returns the number of samples that had to be clipped.
func (ad *AudioData) ApplyGain(gain float64) int {
	maxValue := int32(FullScale(ad.BitDepth) - 1)
	minValue := -maxValue - 1

	clippedSamples := 0
	for i := range ad.Samples {
		newSample := float64(ad.Samples[i]) * gain

		// Clamp to prevent overflow based on actual bit depth
		if newSample > float64(maxValue) {
			ad.Samples[i] = maxValue
			clippedSamples++
		} else if newSample < float64(minValue) {
			ad.Samples[i] = minValue
			clippedSamples++
		} else {
			ad.Samples[i] = int32(newSample)
		}
	}

	return clippedSamples
}

// Clone creates a deep copy of AudioData
func (ad *AudioData) Clone() *AudioData {
	samples := make([]int32, len(ad.Samples))
	copy(samples, ad.Samples)

	return &AudioData{
		Samples:    samples,
		SampleRate: ad.SampleRate,
		Channels:   ad.Channels,
		BitDepth:   ad.BitDepth,
		Filename:   ad.Filename,
	}
}

// ContentStats summarizes the sample distribution of a buffer
type ContentStats struct {
	MinSample      int32
	MaxSample      int32
	ZeroSamples    int
	NonZeroSamples int
	RMSDB          float64 // dBFS
}

// SilentPercent returns the share of exactly-zero samples in percent
func (cs ContentStats) SilentPercent() float64 {
	total := cs.ZeroSamples + cs.NonZeroSamples
	if total == 0 {
		return 100
	}
	return float64(cs.ZeroSamples) / float64(total) * 100
}

// AnalyzeContent computes sample statistics for debugging a source file
func (ad *AudioData) AnalyzeContent() ContentStats {
	if len(ad.Samples) == 0 {
		return ContentStats{RMSDB: math.Inf(-1)}
	}

	stats := ContentStats{MinSample: ad.Samples[0], MaxSample: ad.Samples[0]}
	scale := FullScale(ad.BitDepth)
	var sumSquares float64

	for _, sample := range ad.Samples {
		stats.MinSample = min(stats.MinSample, sample)
		stats.MaxSample = max(stats.MaxSample, sample)
		if sample == 0 {
			stats.ZeroSamples++
		} else {
			stats.NonZeroSamples++
		}

		normalized := float64(sample) / scale
		sumSquares += normalized * normalized
	}

	rms := math.Sqrt(sumSquares / float64(len(ad.Samples)))
	stats.RMSDB = math.Inf(-1)
	if rms > 0 {
		stats.RMSDB = 20 * math.Log10(rms)
	}

	return stats
}

// LogValue implements slog.LogValuer
func (cs ContentStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int64("min_sample", int64(cs.MinSample)),
		slog.Int64("max_sample", int64(cs.MaxSample)),
		slog.Float64("silent_percent", cs.SilentPercent()),
		slog.Float64("rms_dbfs", cs.RMSDB),
	)
}
