package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/canvaspilot/canvaspilot/chat"
)

// StreamEnd is the sentinel line terminating an event stream.
const StreamEnd = "[DONE]"

// ndjsonEmitter writes events as newline-delimited JSON, flushing after
// every line so clients see progress as it happens. Safe for concurrent
// use: the summary stream and status events may race on slow writers.
type ndjsonEmitter struct {
	mu      sync.Mutex
	w       http.ResponseWriter
	flusher http.Flusher
}

func newNDJSONEmitter(w http.ResponseWriter) (*ndjsonEmitter, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, fmt.Errorf("response writer does not support streaming")
	}
	w.Header().Set("Content-Type", "application/x-ndjson")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("X-Accel-Buffering", "no")
	return &ndjsonEmitter{w: w, flusher: flusher}, nil
}

// Emit writes one event line.
func (e *ndjsonEmitter) Emit(event chat.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, err := e.w.Write(append(payload, '\n')); err != nil {
		return err
	}
	e.flusher.Flush()
	return nil
}

// Close writes the end-of-stream sentinel.
func (e *ndjsonEmitter) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	fmt.Fprintln(e.w, StreamEnd)
	e.flusher.Flush()
}
