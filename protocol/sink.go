package protocol

import (
	"encoding/json"
	"io"
	"sync"
)

// Sink receives messages a page emits.
type Sink interface {
	Send(msg Message) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(msg Message) error

func (f SinkFunc) Send(msg Message) error { return f(msg) }

// Buffer keeps every message sent to it. It is safe for concurrent use.
type Buffer struct {
	mu       sync.Mutex
	messages []Message
}

// NewBuffer creates an empty buffer.
func NewBuffer() *Buffer {
	return &Buffer{}
}

func (b *Buffer) Send(msg Message) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.messages = append(b.messages, msg)
	return nil
}

// Messages returns the messages from index since on.
func (b *Buffer) Messages(since int) []Message {
	b.mu.Lock()
	defer b.mu.Unlock()
	if since < 0 {
		since = 0
	}
	if since >= len(b.messages) {
		return []Message{}
	}
	out := make([]Message, len(b.messages)-since)
	copy(out, b.messages[since:])
	return out
}

// Len returns the number of buffered messages.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.messages)
}

// WriterSink writes each message as one line of JSON.
type WriterSink struct {
	mu  sync.Mutex
	enc *json.Encoder
}

// NewWriterSink creates a sink writing newline-delimited JSON to w.
func NewWriterSink(w io.Writer) *WriterSink {
	return &WriterSink{enc: json.NewEncoder(w)}
}

func (s *WriterSink) Send(msg Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enc.Encode(msg)
}

// MultiSink sends every message to all sinks and returns the first error.
type MultiSink []Sink

func (m MultiSink) Send(msg Message) error {
	var first error
	for _, s := range m {
		if err := s.Send(msg); err != nil && first == nil {
			first = err
		}
	}
	return first
}
