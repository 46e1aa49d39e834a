// Package silence finds sustained low-level regions in PCM audio.
package silence

import (
	"math"

	"voice-slicer/internal/audio"
)

// HopMs is the step between successive analysis windows. The analysis
// window itself is as long as the minimum silence duration.
const HopMs = 1

// Interval is a detected silent range [StartMs, EndMs) relative to the
// start of the analysed buffer
type Interval struct {
	StartMs int
	EndMs   int
}

// DurationMs returns the length of the interval
func (iv Interval) DurationMs() int {
	return iv.EndMs - iv.StartMs
}

// Detect returns the silent intervals of ad in ascending order.
//
// A window of minSilenceMs is moved across the buffer in HopMs steps; a
// window is silent when its RMS is at or below thresholdDB. Overlapping or
// touching silent windows are merged, so the returned intervals never
// overlap. Buffers shorter than minSilenceMs have no silence.
func Detect(ad *audio.AudioData, minSilenceMs int, thresholdDB float64) []Interval {
	if minSilenceMs <= 0 {
		return nil
	}

	segLen := ad.DurationMs()
	if segLen < minSilenceMs {
		return nil
	}

	idx := newEnergyIndex(ad)
	thrAmp := math.Pow(10, thresholdDB/20)
	thrSq := thrAmp * thrAmp

	var intervals []Interval
	current, prev := -1, -1

	lastStart := segLen - minSilenceMs
	for i := 0; i <= lastStart; i += HopMs {
		if !idx.silent(ad.FrameAt(i), ad.FrameAt(i+minSilenceMs), thrSq) {
			continue
		}

		switch {
		case current < 0:
			current = i
		case i > prev+minSilenceMs:
			intervals = append(intervals, Interval{StartMs: current, EndMs: prev + minSilenceMs})
			current = i
		}
		prev = i
	}

	if current >= 0 {
		intervals = append(intervals, Interval{StartMs: current, EndMs: prev + minSilenceMs})
	}

	return intervals
}

// energyIndex holds per-frame prefix sums so the mean square of any frame
// range is O(1)
type energyIndex struct {
	channels int
	squares  []float64 // sum of normalized squared samples before frame i
	nonZero  []int     // count of non-zero samples before frame i
}

func newEnergyIndex(ad *audio.AudioData) *energyIndex {
	frames := ad.GetFrameCount()
	scale := audio.FullScale(ad.BitDepth)

	idx := &energyIndex{
		channels: ad.Channels,
		squares:  make([]float64, frames+1),
		nonZero:  make([]int, frames+1),
	}

	for f := 0; f < frames; f++ {
		var sq float64
		nz := 0
		for ch := 0; ch < ad.Channels; ch++ {
			sample := ad.Samples[f*ad.Channels+ch]
			if sample != 0 {
				nz++
			}
			normalized := float64(sample) / scale
			sq += normalized * normalized
		}
		idx.squares[f+1] = idx.squares[f] + sq
		idx.nonZero[f+1] = idx.nonZero[f] + nz
	}

	return idx
}

// silent reports whether frames [from, to) have an RMS at or below the
// squared threshold. A zero threshold only matches digital silence.
func (idx *energyIndex) silent(from, to int, thrSq float64) bool {
	last := len(idx.squares) - 1
	from = min(max(from, 0), last)
	to = min(max(to, from), last)
	if to == from {
		return true
	}

	if thrSq == 0 {
		return idx.nonZero[to]-idx.nonZero[from] == 0
	}

	n := float64((to - from) * idx.channels)
	meanSq := max(idx.squares[to]-idx.squares[from], 0) / n
	return meanSq <= thrSq
}
