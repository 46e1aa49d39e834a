// Package segmenter cuts a decoded recording into short, silence-bounded
// clips.
//
// A file is walked left to right. Each step looks at a window of at most
// MaxLengthMs, cuts at the longest silence that starts at least MinLengthMs
// into the window (or at the window end when there is none), trims trailing
// silence, pads the clip and keeps it only when it is louder than the
// global gate. Every step is reported as an Attempt, kept or not.
package segmenter

import (
	"context"
	"fmt"

	"voice-slicer/internal/audio"
	"voice-slicer/internal/loudness"
	"voice-slicer/internal/silence"
)

// Decision records how an attempt's cut point was chosen
type Decision int

const (
	// DecisionSilence means the cut was placed at a detected silence
	DecisionSilence Decision = iota
	// DecisionFallback means no eligible silence was found and the cut was
	// placed at the window boundary
	DecisionFallback
)

func (d Decision) String() string {
	switch d {
	case DecisionSilence:
		return "silence"
	case DecisionFallback:
		return "fallback"
	default:
		return fmt.Sprintf("Decision(%d)", int(d))
	}
}

// Clip is a finished, padded, non-silent segment of a source recording.
type Clip struct {
	Audio   *audio.AudioData
	Source  string // source filename
	Ordinal int    // attempt index within the source file
}

// Attempt describes one iteration of the segmentation loop.
type Attempt struct {
	Source   string
	Ordinal  int
	StartMs  int // inclusive start in the source
	CutEndMs int // cut point chosen for the window
	EndMs    int // clip end after tail trim, before padding
	Decision Decision
	Clip     *Clip // nil when the attempt was discarded as silent
}

// Emitted reports whether the attempt produced a clip
func (a Attempt) Emitted() bool {
	return a.Clip != nil
}

// DurationMs returns the unpadded clip length
func (a Attempt) DurationMs() int {
	return a.EndMs - a.StartMs
}

// Segmenter holds a validated configuration. It carries no per-file state
// and may be shared by concurrent workers.
type Segmenter struct {
	cfg Config
}

// New creates a Segmenter for cfg
func New(cfg Config) (*Segmenter, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid segmentation config: %w", err)
	}
	return &Segmenter{cfg: cfg}, nil
}

// Config returns the segmentation parameters
func (s *Segmenter) Config() Config {
	return s.cfg
}

// Scan starts segmenting buf. The returned Scanner yields each attempt
// once; it cannot be rewound.
func (s *Segmenter) Scan(buf *audio.AudioData) *Scanner {
	return &Scanner{
		cfg:         s.cfg,
		buf:         buf,
		durationMs:  buf.DurationMs(),
		thresholdDB: loudness.DBFS(buf) - s.cfg.ThresholdOffsetDB,
	}
}

// Run segments buf and calls fn for every attempt in order. The context is
// checked once per attempt; an error from fn stops the loop and is returned.
func (s *Segmenter) Run(ctx context.Context, buf *audio.AudioData, fn func(Attempt) error) error {
	sc := s.Scan(buf)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !sc.Next() {
			return nil
		}
		if err := fn(sc.Attempt()); err != nil {
			return err
		}
	}
}

// Scanner walks one source buffer. Use it like bufio.Scanner:
//
//	sc := seg.Scan(buf)
//	for sc.Next() {
//		a := sc.Attempt()
//	}
type Scanner struct {
	cfg         Config
	buf         *audio.AudioData
	durationMs  int
	thresholdDB float64

	cursor  int
	ordinal int
	current Attempt
	done    bool
}

// ThresholdDB returns the adaptive silence threshold used for window search
func (sc *Scanner) ThresholdDB() float64 {
	return sc.thresholdDB
}

// Attempt returns the attempt produced by the last call to Next
func (sc *Scanner) Attempt() Attempt {
	return sc.current
}

// Next advances to the next attempt. It returns false once the cursor has
// passed the end of the buffer.
func (sc *Scanner) Next() bool {
	if sc.done || sc.cursor >= sc.durationMs {
		sc.done = true
		sc.current = Attempt{}
		return false
	}

	start := sc.cursor
	windowEnd := min(start+sc.cfg.MaxLengthMs, sc.durationMs)

	cutEnd, decision := windowEnd, DecisionFallback
	window := sc.buf.Slice(start, windowEnd)
	if iv, ok := chooseSilence(silence.Detect(window, sc.cfg.MinSilenceMs, sc.thresholdDB), sc.cfg.MinLengthMs); ok {
		cutEnd, decision = start+iv.StartMs, DecisionSilence
	}

	clipAudio, clipEnd := sc.trimTail(start, cutEnd)
	padded := clipAudio.AppendSilence(sc.cfg.PaddingMs)

	sc.current = Attempt{
		Source:   sc.buf.Filename,
		Ordinal:  sc.ordinal,
		StartMs:  start,
		CutEndMs: cutEnd,
		EndMs:    clipEnd,
		Decision: decision,
	}
	if padded.GetFrameCount() > 0 && !loudness.IsSilent(padded, sc.cfg.GateThresholdDB) {
		sc.current.Clip = &Clip{
			Audio:   padded,
			Source:  sc.buf.Filename,
			Ordinal: sc.ordinal,
		}
	}

	sc.ordinal++
	sc.cursor = cutEnd + sc.cfg.SkipGapMs
	return true
}

// trimTail shortens [start, end) to the last silence inside it, judged
// against the slice's own level, as long as the result stays longer than
// the minimum length.
func (sc *Scanner) trimTail(start, end int) (*audio.AudioData, int) {
	slice := sc.buf.Slice(start, end)
	if slice.GetFrameCount() == 0 {
		return slice, end
	}

	threshold := loudness.DBFS(slice) - sc.cfg.ThresholdOffsetDB
	tail := silence.Detect(slice, sc.cfg.MinSilenceMs, threshold)
	if len(tail) == 0 {
		return slice, end
	}

	last := tail[len(tail)-1].StartMs
	if last > sc.cfg.MinLengthMs {
		return slice.Slice(0, last), start + last
	}
	return slice, end
}

// chooseSilence picks the longest interval starting at or after
// minLengthMs; ties go to the earliest one.
func chooseSilence(intervals []silence.Interval, minLengthMs int) (silence.Interval, bool) {
	var best silence.Interval
	found := false
	for _, iv := range intervals {
		if iv.StartMs < minLengthMs {
			continue
		}
		if !found || iv.DurationMs() > best.DurationMs() {
			best, found = iv, true
		}
	}
	return best, found
}
