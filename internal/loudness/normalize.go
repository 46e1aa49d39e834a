package loudness

import (
	"fmt"
	"math"

	"voice-slicer/internal/audio"
)

// maxBoostDB caps the gain applied when the boosted peak would clip
const maxBoostDB = 6.0

// NormalizationResult contains the results of loudness normalization
type NormalizationResult struct {
	OriginalLoudness float64
	TargetLoudness   float64
	AppliedGain      float64
	GainDB           float64
	ClippingRisk     bool
	ClippedSamples   int
	Filename         string
}

// NormalizeAudio applies loudness normalization to audio data in place.
// Digital silence is left untouched.
func NormalizeAudio(audioData *audio.AudioData, targetLUFS float64) (*NormalizationResult, error) {
	if err := ValidateTargetLoudness(targetLUFS); err != nil {
		return nil, fmt.Errorf("invalid target loudness: %w", err)
	}

	loudnessResult, err := MeasureLoudness(audioData)
	if err != nil {
		return nil, fmt.Errorf("failed to measure loudness: %w", err)
	}

	result := &NormalizationResult{
		OriginalLoudness: loudnessResult.IntegratedLoudness,
		TargetLoudness:   targetLUFS,
		AppliedGain:      1,
		Filename:         audioData.Filename,
	}
	if math.IsInf(loudnessResult.IntegratedLoudness, -1) {
		return result, nil
	}

	gain := CalculateGain(loudnessResult.IntegratedLoudness, targetLUFS)
	gainDB := 20 * math.Log10(gain)

	if loudnessResult.TruePeak+gainDB > -0.1 {
		result.ClippingRisk = true
		if gainDB > maxBoostDB {
			gainDB = maxBoostDB
			gain = math.Pow(10, gainDB/20.0)
		}
	}

	result.AppliedGain = gain
	result.GainDB = gainDB
	result.ClippedSamples = audioData.ApplyGain(gain)

	return result, nil
}
