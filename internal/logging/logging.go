// Package logging carries the structured event sink used across the engine.
// Every navigation click, skip, success, or error and every stage completion
// is reported as an Event with a scope, action, outcome, and free-form detail.
package logging

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"sync"
)

// Outcome classifies what happened to the action named by an Event.
type Outcome string

const (
	OutcomeStart    Outcome = "start"
	OutcomeSkip     Outcome = "skip"
	OutcomeSuccess  Outcome = "success"
	OutcomeError    Outcome = "error"
	OutcomeComplete Outcome = "complete"
	OutcomeTimeout  Outcome = "timeout"
)

// Event is one structured log record.
type Event struct {
	Scope   string
	Action  string
	Outcome Outcome
	Detail  string
}

// Sink receives events. Implementations must be safe for concurrent use.
type Sink interface {
	Log(Event)
}

// SlogSink forwards events to a slog.Logger.
type SlogSink struct {
	logger *slog.Logger
}

// NewSlogSink wraps logger. A nil logger falls back to slog.Default().
func NewSlogSink(logger *slog.Logger) *SlogSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlogSink{logger: logger}
}

// Log writes ev at the level implied by its outcome.
func (s *SlogSink) Log(ev Event) {
	s.logger.Log(context.Background(), LevelFor(ev.Outcome), ev.Scope+"."+ev.Action,
		slog.String("scope", ev.Scope),
		slog.String("action", ev.Action),
		slog.String("outcome", string(ev.Outcome)),
		slog.String("detail", ev.Detail),
	)
}

// LevelFor maps an outcome to a slog level.
func LevelFor(o Outcome) slog.Level {
	switch o {
	case OutcomeError:
		return slog.LevelError
	case OutcomeTimeout:
		return slog.LevelWarn
	case OutcomeSkip:
		return slog.LevelDebug
	default:
		return slog.LevelInfo
	}
}

type nopSink struct{}

func (nopSink) Log(Event) {}

// Nop returns a sink that discards everything.
func Nop() Sink { return nopSink{} }

// OrNop returns s, or a no-op sink when s is nil.
func OrNop(s Sink) Sink {
	if s == nil {
		return Nop()
	}
	return s
}

// NewLogger builds a slog.Logger writing to w. format is "json" or "text";
// anything else is treated as text. The returned LevelVar can be adjusted later.
func NewLogger(w io.Writer, level, format string) (*slog.Logger, *slog.LevelVar) {
	lv := &slog.LevelVar{}
	lv.Set(ParseLevel(level))

	opts := &slog.HandlerOptions{Level: lv}
	var handler slog.Handler
	if strings.EqualFold(format, "json") {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler), lv
}

// ParseLevel parses "debug", "info", "warn"/"warning", or "error".
// Unknown values yield Info.
func ParseLevel(raw string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// MemorySink records events in memory. Tests and the MCP server use it to
// inspect what the engine reported.
type MemorySink struct {
	// Max bounds how many events are kept; the oldest are dropped first.
	// Zero keeps everything.
	Max int

	mu     sync.Mutex
	events []Event
}

// Log appends ev.
func (m *MemorySink) Log(ev Event) {
	m.mu.Lock()
	m.events = append(m.events, ev)
	if m.Max > 0 && len(m.events) > m.Max {
		m.events = append(m.events[:0], m.events[len(m.events)-m.Max:]...)
	}
	m.mu.Unlock()
}

// Events returns a copy of everything logged so far.
func (m *MemorySink) Events() []Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Event, len(m.events))
	copy(out, m.events)
	return out
}

// Filter returns the recorded events with the given scope and outcome.
// An empty scope matches every scope.
func (m *MemorySink) Filter(scope string, outcome Outcome) []Event {
	var out []Event
	for _, ev := range m.Events() {
		if (scope == "" || ev.Scope == scope) && ev.Outcome == outcome {
			out = append(out, ev)
		}
	}
	return out
}

// Tee fans every event out to all sinks.
func Tee(sinks ...Sink) Sink {
	return teeSink(sinks)
}

type teeSink []Sink

func (t teeSink) Log(ev Event) {
	for _, s := range t {
		if s != nil {
			s.Log(ev)
		}
	}
}
