// Package stream publishes stage changes of the mounted page as Server-Sent
// Events, and reads them back for remote viewers.
package stream

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/dusk-indust/marquee/internal/timeline"
)

// SSEWriter writes Server-Sent Events to an http.ResponseWriter.
// Call Init once before writing any events to set the required headers.
type SSEWriter struct {
	w       http.ResponseWriter
	flusher http.Flusher
}

// NewSSEWriter creates a new SSEWriter wrapping w. If w does not implement
// http.Flusher, writes still succeed but may be buffered.
func NewSSEWriter(w http.ResponseWriter) *SSEWriter {
	f, _ := w.(http.Flusher)
	return &SSEWriter{w: w, flusher: f}
}

// Init sets the SSE response headers and flushes them to the client.
func (sw *SSEWriter) Init() {
	h := sw.w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	sw.w.WriteHeader(http.StatusOK)
	if sw.flusher != nil {
		sw.flusher.Flush()
	}
}

// WriteEvent writes ev as one frame: the sequence number as the SSE id, the
// "stage" event name and the JSON payload, then flushes it.
func (sw *SSEWriter) WriteEvent(ev Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("stream: marshal event: %w", err)
	}
	if _, err := fmt.Fprintf(sw.w, "id: %d\nevent: %s\ndata: %s\n\n", ev.Seq, eventName, data); err != nil {
		return fmt.Errorf("stream: write event: %w", err)
	}
	if sw.flusher != nil {
		sw.flusher.Flush()
	}
	return nil
}

// eventName tags stage-change frames. Frames with another name are skipped
// by ReadEvents.
const eventName = "stage"

// frame accumulates the fields of one SSE message until its blank line.
type frame struct {
	id    string
	event string
	data  []string
}

func (f *frame) empty() bool { return len(f.data) == 0 }

// field applies one "name: value" line. Comments and unknown names are
// ignored.
func (f *frame) field(line string) {
	if strings.HasPrefix(line, ":") {
		return
	}
	name, value, _ := strings.Cut(line, ":")
	value = strings.TrimPrefix(value, " ")
	switch name {
	case "id":
		f.id = value
	case "event":
		f.event = value
	case "data":
		f.data = append(f.data, value)
	}
}

// decode turns a finished frame into an Event. ok is false for frames that
// carry no stage change.
func (f *frame) decode() (ev Event, ok bool) {
	if f.empty() || (f.event != "" && f.event != eventName) {
		return Event{}, false
	}
	if err := json.Unmarshal([]byte(strings.Join(f.data, "\n")), &ev); err != nil {
		return Event{Err: fmt.Errorf("stream: unmarshal event: %w", err)}, true
	}
	if f.id != "" {
		seq, err := strconv.ParseUint(f.id, 10, 64)
		if err != nil {
			return Event{Err: fmt.Errorf("stream: event id %q: %w", f.id, err)}, true
		}
		ev.Seq = seq
	}
	if _, known := timeline.ParseStatus(ev.Status); !known {
		ev.Err = fmt.Errorf("stream: stage %q: unknown status %q", ev.Stage, ev.Status)
	} else if _, known := timeline.ParseDirection(ev.Direction); !known {
		ev.Err = fmt.Errorf("stream: stage %q: unknown direction %q", ev.Stage, ev.Direction)
	}
	return ev, true
}

// ReadEvents decodes stage-change frames from body onto the returned
// channel, which closes when body ends, a read fails, or ctx is done. body
// is closed on return. Frames that fail to decode, or that name an unknown
// status or direction, arrive with Err set.
func ReadEvents(ctx context.Context, body io.ReadCloser) <-chan Event {
	ch := make(chan Event)
	go func() {
		defer close(ch)
		defer body.Close()

		send := func(f *frame) bool {
			ev, ok := f.decode()
			*f = frame{}
			if !ok {
				return true
			}
			select {
			case ch <- ev:
				return true
			case <-ctx.Done():
				return false
			}
		}

		var cur frame
		scanner := bufio.NewScanner(body)
		for ctx.Err() == nil && scanner.Scan() {
			if line := scanner.Text(); line != "" {
				cur.field(line)
			} else if !send(&cur) {
				return
			}
		}
		if ctx.Err() == nil {
			send(&cur)
		}
	}()
	return ch
}
