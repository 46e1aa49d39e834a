package silence_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voice-slicer/internal/audiotest"
	"voice-slicer/internal/silence"
)

var negInf = math.Inf(-1)

func TestDetectGap(t *testing.T) {
	ad := audiotest.New(16000, 1).Tone(2000).Silence(1000).Tone(2000).Build("a.wav")

	t.Run("threshold", func(t *testing.T) {
		got := silence.Detect(ad, 500, -30)
		require.Len(t, got, 1)
		assert.InDelta(t, 2000, got[0].StartMs, 10)
		assert.InDelta(t, 3000, got[0].EndMs, 10)
		assert.LessOrEqual(t, got[0].StartMs, 2000)
		assert.GreaterOrEqual(t, got[0].EndMs, 3000)
	})

	t.Run("digital silence only", func(t *testing.T) {
		got := silence.Detect(ad, 500, negInf)
		assert.Equal(t, []silence.Interval{{StartMs: 2000, EndMs: 3000}}, got)
	})
}

func TestDetectMergesAcrossShortBlip(t *testing.T) {
	ad := audiotest.New(16000, 1).
		Tone(1000).Silence(500).Tone(1).Silence(500).Tone(1000).
		Build("a.wav")

	merged := silence.Detect(ad, 500, -30)
	require.Len(t, merged, 1, "a 1 ms blip stays below a -30 dB window threshold")
	assert.InDelta(t, 1000, merged[0].StartMs, 10)
	assert.InDelta(t, 2001, merged[0].EndMs, 10)

	split := silence.Detect(ad, 500, negInf)
	assert.Equal(t, []silence.Interval{
		{StartMs: 1000, EndMs: 1500},
		{StartMs: 1501, EndMs: 2001},
	}, split)
}

func TestDetectIntervalsAreOrderedAndDisjoint(t *testing.T) {
	ad := audiotest.New(16000, 1).
		Tone(700).Silence(800).Tone(900).Silence(600).Tone(300).Silence(1200).
		Build("a.wav")

	got := silence.Detect(ad, 500, -30)
	require.Len(t, got, 3)
	for i, iv := range got {
		assert.GreaterOrEqual(t, iv.DurationMs(), 500)
		if i > 0 {
			assert.Greater(t, iv.StartMs, got[i-1].EndMs)
		}
	}
	assert.Equal(t, ad.DurationMs(), got[2].EndMs, "trailing silence reaches the end")
}

func TestDetectShortBuffer(t *testing.T) {
	short := audiotest.New(16000, 1).Silence(400).Build("a.wav")
	assert.Empty(t, silence.Detect(short, 500, -30))

	exact := audiotest.New(16000, 1).Silence(500).Build("a.wav")
	assert.Equal(t, []silence.Interval{{StartMs: 0, EndMs: 500}}, silence.Detect(exact, 500, negInf))

	assert.Empty(t, silence.Detect(exact, 0, -30))
}

func TestDetectNoSilenceInTone(t *testing.T) {
	assert.Empty(t, silence.Detect(audiotest.Tone(3000), 500, -23))
}

func TestDetectStereoNeedsAllChannelsQuiet(t *testing.T) {
	ad := audiotest.New(16000, 2).Silence(1000).Build("a.wav")
	for f := 0; f < ad.GetFrameCount(); f++ {
		ad.Samples[f*2+1] = 1000
	}

	assert.Empty(t, silence.Detect(ad, 500, negInf))
	assert.Len(t, silence.Detect(ad, 500, -20), 1)
}

func TestDetectOnSliceIsRelative(t *testing.T) {
	ad := audiotest.New(16000, 1).Tone(5000).Silence(1000).Tone(1000).Build("a.wav")

	got := silence.Detect(ad.Slice(4000, 7000), 500, negInf)
	assert.Equal(t, []silence.Interval{{StartMs: 1000, EndMs: 2000}}, got)
}
