package loudness_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voice-slicer/internal/audio"
	"voice-slicer/internal/audiotest"
	"voice-slicer/internal/loudness"
)

func TestDBFS(t *testing.T) {
	t.Run("sine", func(t *testing.T) {
		ad := audiotest.New(16000, 1).Amplitude(1).Tone(1000).Build("a.wav")
		assert.InDelta(t, -3.01, loudness.DBFS(ad), 0.05)
	})

	t.Run("half scale sine", func(t *testing.T) {
		ad := audiotest.Tone(1000)
		assert.InDelta(t, -9.03, loudness.DBFS(ad), 0.05)
	})

	t.Run("square at full scale", func(t *testing.T) {
		ad := &audio.AudioData{Samples: []int32{-32768, -32768, -32768, -32768}, SampleRate: 16000, Channels: 1, BitDepth: 16}
		assert.InDelta(t, 0, loudness.DBFS(ad), 1e-9)
	})

	t.Run("digital silence", func(t *testing.T) {
		ad := audiotest.New(16000, 2).Silence(100).Build("a.wav")
		assert.True(t, math.IsInf(loudness.DBFS(ad), -1))
	})

	t.Run("empty", func(t *testing.T) {
		ad := &audio.AudioData{SampleRate: 16000, Channels: 1, BitDepth: 16}
		assert.True(t, math.IsInf(loudness.DBFS(ad), -1))
	})

	t.Run("24 bit uses its own full scale", func(t *testing.T) {
		ad := &audio.AudioData{Samples: []int32{4194304, -4194304}, SampleRate: 16000, Channels: 1, BitDepth: 24}
		assert.InDelta(t, -6.02, loudness.DBFS(ad), 0.01)
	})
}

func TestIsSilent(t *testing.T) {
	tone := audiotest.Tone(500)
	quiet := audiotest.New(16000, 1).Amplitude(0.001).Tone(500).Build("q.wav")
	zeros := audiotest.New(16000, 1).Silence(500).Build("z.wav")

	assert.False(t, loudness.IsSilent(tone, -40))
	assert.True(t, loudness.IsSilent(quiet, -40))
	assert.True(t, loudness.IsSilent(zeros, -40))
	assert.True(t, loudness.IsSilent(zeros, -1000))

	level := loudness.DBFS(tone)
	assert.False(t, loudness.IsSilent(tone, level), "threshold equal to the level is not silent")
}

func TestMeasureLoudness(t *testing.T) {
	ad := audiotest.New(16000, 1).Amplitude(1).Tone(1000).Build("a.wav")

	result, err := loudness.MeasureLoudness(ad)
	require.NoError(t, err)
	assert.InDelta(t, -3.01, result.RMSLevel, 0.05)
	assert.InDelta(t, result.RMSLevel-0.691, result.IntegratedLoudness, 1e-9)
	assert.InDelta(t, 0, result.TruePeak, 0.05)
	assert.Equal(t, "a.wav", result.Filename)

	_, err = loudness.MeasureLoudness(nil)
	assert.Error(t, err)
	_, err = loudness.MeasureLoudness(&audio.AudioData{BitDepth: 16})
	assert.Error(t, err)
}

func TestValidateTargetLoudness(t *testing.T) {
	assert.NoError(t, loudness.ValidateTargetLoudness(-16))
	assert.NoError(t, loudness.ValidateTargetLoudness(-30))
	assert.Error(t, loudness.ValidateTargetLoudness(-3))
	assert.Error(t, loudness.ValidateTargetLoudness(-40))
}

func TestCalculateGain(t *testing.T) {
	assert.InDelta(t, 2.0, loudness.CalculateGain(-22, -16), 0.01)
	assert.InDelta(t, 1.0, loudness.CalculateGain(-16, -16), 1e-9)
}

func TestNormalizeAudio(t *testing.T) {
	t.Run("reaches target", func(t *testing.T) {
		ad := audiotest.New(16000, 1).Amplitude(0.05).Tone(1000).Build("a.wav")

		result, err := loudness.NormalizeAudio(ad, -20)
		require.NoError(t, err)
		assert.False(t, result.ClippingRisk)
		assert.Zero(t, result.ClippedSamples)

		after, err := loudness.MeasureLoudness(ad)
		require.NoError(t, err)
		assert.InDelta(t, -20, after.IntegratedLoudness, 0.1)
	})

	t.Run("limits boost when peaks would clip", func(t *testing.T) {
		ad := audiotest.New(16000, 1).Amplitude(0.01).Tone(100).Silence(10).Build("a.wav")
		ad.Samples[len(ad.Samples)-1] = 32000

		result, err := loudness.NormalizeAudio(ad, -6)
		require.NoError(t, err)
		assert.True(t, result.ClippingRisk)
		assert.InDelta(t, 6, result.GainDB, 1e-9)
	})

	t.Run("leaves silence alone", func(t *testing.T) {
		ad := audiotest.New(16000, 1).Silence(100).Build("a.wav")

		result, err := loudness.NormalizeAudio(ad, -16)
		require.NoError(t, err)
		assert.Equal(t, 1.0, result.AppliedGain)
	})

	t.Run("rejects extreme target", func(t *testing.T) {
		_, err := loudness.NormalizeAudio(audiotest.Tone(100), 0)
		assert.Error(t, err)
	})
}
