// Package loudness measures signal level in dBFS and approximate LUFS and
// applies loudness normalization.
package loudness

import (
	"errors"
	"fmt"
	"math"

	"voice-slicer/internal/audio"
)

// LoudnessResult contains loudness measurement results
type LoudnessResult struct {
	IntegratedLoudness float64 // LUFS (approximated from RMS)
	TruePeak           float64 // dBFS
	RMSLevel           float64 // dBFS
	Filename           string
}

// DBFS returns the RMS level of all samples relative to full scale.
// A buffer of digital silence (or an empty buffer) is -Inf.
func DBFS(ad *audio.AudioData) float64 {
	rms := calculateRMSWithBitDepth(ad.Samples, ad.BitDepth)
	if rms == 0 {
		return math.Inf(-1)
	}
	return 20 * math.Log10(rms)
}

// IsSilent reports whether the buffer's level is below thresholdDB
func IsSilent(ad *audio.AudioData, thresholdDB float64) bool {
	return DBFS(ad) < thresholdDB
}

// MeasureLoudness calculates loudness metrics for audio data
// This is a simplified implementation that approximates LUFS using RMS
func MeasureLoudness(audioData *audio.AudioData) (*LoudnessResult, error) {
	if audioData == nil {
		return nil, errors.New("audio data is nil")
	}

	if len(audioData.Samples) == 0 {
		return nil, errors.New("no audio samples found")
	}

	rmsDB := DBFS(audioData)

	// Rough calibration offset for LUFS
	lufs := rmsDB - 0.691

	truePeak := calculateTruePeakWithBitDepth(audioData.Samples, audioData.BitDepth)
	truePeakDB := 20 * math.Log10(truePeak)

	return &LoudnessResult{
		IntegratedLoudness: lufs,
		TruePeak:           truePeakDB,
		RMSLevel:           rmsDB,
		Filename:           audioData.Filename,
	}, nil
}

// calculateRMSWithBitDepth computes RMS with proper bit depth normalization
func calculateRMSWithBitDepth(samples []int32, bitDepth int) float64 {
	if len(samples) == 0 {
		return 0.0
	}

	maxValue := audio.FullScale(bitDepth)

	var sumSquares float64
	for _, sample := range samples {
		normalized := float64(sample) / maxValue
		sumSquares += normalized * normalized
	}

	return math.Sqrt(sumSquares / float64(len(samples)))
}

// calculateTruePeakWithBitDepth finds maximum absolute sample with proper bit depth normalization
func calculateTruePeakWithBitDepth(samples []int32, bitDepth int) float64 {
	if len(samples) == 0 {
		return 0.0
	}

	maxValue := audio.FullScale(bitDepth) - 1

	var maxAbsSample int64
	for _, sample := range samples {
		absSample := int64(sample)
		if absSample < 0 {
			absSample = -absSample
		}
		if absSample > maxAbsSample {
			maxAbsSample = absSample
		}
	}

	peak := float64(maxAbsSample) / maxValue
	if peak > 1.0 {
		peak = 1.0
	}
	return peak
}

// CalculateGain computes the gain needed to reach target loudness
func CalculateGain(currentLUFS, targetLUFS float64) float64 {
	return math.Pow(10, (targetLUFS-currentLUFS)/20.0)
}

// ValidateTargetLoudness checks if the target loudness is reasonable
func ValidateTargetLoudness(targetLUFS float64) error {
	if targetLUFS > -6.0 {
		return fmt.Errorf("target loudness %.1f LUFS is too high (risk of severe clipping)", targetLUFS)
	}

	if targetLUFS < -30.0 {
		return fmt.Errorf("target loudness %.1f LUFS is too low (audio will be very quiet)", targetLUFS)
	}

	return nil
}
