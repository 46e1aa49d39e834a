// Package progress carries fire-and-forget status events from slicing
// workers to observers such as the log or a websocket client.
package progress

import (
	"log/slog"
	"sync"
)

// Kind identifies the type of an Event
type Kind string

const (
	// KindAttempt is sent once per segmentation loop iteration
	KindAttempt Kind = "attempt"
	// KindCompleted is the terminal event of a successfully processed file
	KindCompleted Kind = "completed"
	// KindError is the terminal event of a file that failed
	KindError Kind = "error"
	// KindDone is the terminal event of a whole run
	KindDone Kind = "done"
	// KindStep reports a run-level step such as preparing the output
	KindStep Kind = "step"
)

// Event is a single progress notification.
type Event struct {
	RunID      string `json:"run_id"`
	Kind       Kind   `json:"kind"`
	File       string `json:"file,omitempty"`
	Attempt    int    `json:"attempt"`
	Emitted    bool   `json:"emitted,omitempty"`
	Location   string `json:"location,omitempty"`
	TotalClips int    `json:"total_clips,omitempty"`
	Message    string `json:"message,omitempty"`
	IsError    bool   `json:"is_error"`
}

// Reporter receives events. Report must not block the caller for long.
type Reporter interface {
	Report(Event)
}

// ReporterFunc adapts a function to the Reporter interface
type ReporterFunc func(Event)

// Report calls f(ev)
func (f ReporterFunc) Report(ev Event) {
	f(ev)
}

// Multi fans an event out to several reporters
type Multi []Reporter

// Report forwards ev to every reporter
func (m Multi) Report(ev Event) {
	for _, r := range m {
		if r != nil {
			r.Report(ev)
		}
	}
}

// Discard drops all events
var Discard Reporter = ReporterFunc(func(Event) {})

// LogReporter writes events to a structured logger. Attempt events are
// logged at debug level; terminal events at info or error level.
type LogReporter struct {
	logger *slog.Logger
}

// NewLogReporter creates a LogReporter. A nil logger uses slog.Default().
func NewLogReporter(logger *slog.Logger) *LogReporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogReporter{logger: logger}
}

// Report logs ev
func (r *LogReporter) Report(ev Event) {
	attrs := []any{
		slog.String("run_id", ev.RunID),
		slog.String("kind", string(ev.Kind)),
	}
	if ev.File != "" {
		attrs = append(attrs, slog.String("file", ev.File))
	}

	switch {
	case ev.IsError:
		r.logger.Error(ev.Message, attrs...)
	case ev.Kind == KindAttempt:
		attrs = append(attrs,
			slog.Int("attempt", ev.Attempt),
			slog.Bool("emitted", ev.Emitted),
		)
		if ev.Location != "" {
			attrs = append(attrs, slog.String("location", ev.Location))
		}
		r.logger.Debug("slice attempt", attrs...)
	case ev.Kind == KindCompleted || ev.Kind == KindDone:
		attrs = append(attrs, slog.Int("total_clips", ev.TotalClips))
		r.logger.Info(ev.Message, attrs...)
	default:
		r.logger.Info(ev.Message, attrs...)
	}
}

// Recorder keeps every event in memory. It is safe for concurrent use.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

// Report appends ev
func (r *Recorder) Report(ev Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

// Events returns a copy of the recorded events
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}
