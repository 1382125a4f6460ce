package trace

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/yaronbeen/Shamay-AI-Official-sub006/pkg/models"
)

// JSONLWriter appends trace events to a JSONL stream, one event per line,
// flushed immediately for crash safety. Write errors are swallowed: tracing
// never fails the request.
type JSONLWriter struct {
	mu       sync.Mutex
	writer   io.Writer
	file     *os.File // non-nil if we opened the file ourselves
	redactor Redactor
	header   *Header
	started  bool
}

// Header is written as the first line of a trace file.
type Header struct {
	Version     int       `json:"version"`
	StartedAt   time.Time `json:"started_at"`
	AppVersion  string    `json:"app_version,omitempty"`
	Environment string    `json:"environment,omitempty"`
}

// Redactor may rewrite an event before it is serialized.
type Redactor func(e *models.TraceEvent)

// DefaultRedactor drops message content from persisted events, keeping the
// timeline shape and security metadata.
func DefaultRedactor(e *models.TraceEvent) {
	if e.Content != "" {
		e.Content = "[REDACTED]"
	}
}

// JSONLOption configures a JSONLWriter.
type JSONLOption func(*JSONLWriter)

// WithRedactor sets the event redactor.
func WithRedactor(r Redactor) JSONLOption {
	return func(w *JSONLWriter) { w.redactor = r }
}

// WithEnvironment records the environment name in the file header.
func WithEnvironment(env string) JSONLOption {
	return func(w *JSONLWriter) { w.header.Environment = env }
}

// NewJSONLWriter writes events to w.
func NewJSONLWriter(w io.Writer, opts ...JSONLOption) *JSONLWriter {
	j := &JSONLWriter{
		writer: w,
		header: &Header{Version: 1, StartedAt: time.Now()},
	}
	for _, opt := range opts {
		opt(j)
	}
	return j
}

// NewJSONLFile creates or truncates path and writes events to it. Caller
// should Close when done.
func NewJSONLFile(path string, opts ...JSONLOption) (*JSONLWriter, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create trace file: %w", err)
	}
	j := NewJSONLWriter(f, opts...)
	j.file = f
	return j, nil
}

// Emit implements Sink.
func (j *JSONLWriter) Emit(event models.TraceEvent) {
	j.mu.Lock()
	defer j.mu.Unlock()

	if !j.started {
		j.started = true
		j.writeLine(j.header)
	}

	if j.redactor != nil {
		j.redactor(&event)
	}
	j.writeLine(event)
}

func (j *JSONLWriter) writeLine(v any) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	_, _ = j.writer.Write(data)
	_, _ = j.writer.Write([]byte("\n"))
	if j.file != nil {
		_ = j.file.Sync()
	}
}

// Close closes the trace file if one was opened.
func (j *JSONLWriter) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.file != nil {
		return j.file.Close()
	}
	return nil
}
