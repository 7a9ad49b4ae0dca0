package openai

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// ErrStreamingUnsupported indicates the response writer cannot flush incrementally.
var ErrStreamingUnsupported = errors.New("response writer does not support streaming")

// EventWriter emits server-sent events onto an HTTP response.
type EventWriter struct {
	writer  http.ResponseWriter
	flusher http.Flusher
	wrote   bool
}

// NewEventWriter prepares the response for SSE and returns an event writer.
func NewEventWriter(writer http.ResponseWriter) (*EventWriter, error) {
	flusher, ok := writer.(http.Flusher)
	if !ok {
		return nil, ErrStreamingUnsupported
	}
	header := writer.Header()
	header.Set("Content-Type", "text/event-stream")
	header.Set("Cache-Control", "no-cache")
	header.Set("Connection", "keep-alive")
	return &EventWriter{writer: writer, flusher: flusher}, nil
}

// Send writes one data frame and flushes it to the peer.
func (w *EventWriter) Send(data []byte) error {
	w.wrote = true
	if _, err := fmt.Fprintf(w.writer, "data: %s\n\n", data); err != nil {
		return err
	}
	w.flusher.Flush()
	return nil
}

// Wrote reports whether any frame reached the wire; once true the response
// can no longer be replaced with a plain HTTP error.
func (w *EventWriter) Wrote() bool {
	return w.wrote
}

// SendJSON marshals value and writes it as one data frame.
func (w *EventWriter) SendJSON(value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return w.Send(data)
}

// SendEvent writes one named event frame.
func (w *EventWriter) SendEvent(event string, data []byte) error {
	w.wrote = true
	if _, err := fmt.Fprintf(w.writer, "event: %s\ndata: %s\n\n", event, data); err != nil {
		return err
	}
	w.flusher.Flush()
	return nil
}

// Done writes the terminal sentinel frame.
func (w *EventWriter) Done() error {
	return w.Send([]byte(doneSentinel))
}
