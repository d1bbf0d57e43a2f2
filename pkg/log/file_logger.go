package log

import (
	"io"
	"os"
	"sync"

	"github.com/fxamacker/cbor/v2"
)

// FileLogger appends events to a CBOR stream. Safe for concurrent use.
//
// Write failures are swallowed: event logging is diagnostic and must
// never disturb the arbiter or supervisor loops that emit events.
type FileLogger struct {
	mu     sync.Mutex
	sink   io.WriteCloser
	enc    *cbor.Encoder
	closed bool
}

// NewFileLogger opens (or creates, mode 0644) the log file at path
// and appends to it.
func NewFileLogger(path string) (*FileLogger, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, err
	}
	return NewWriterLogger(f), nil
}

// NewWriterLogger wraps an arbitrary writer as an event sink. The
// logger takes ownership of w and closes it on Close.
func NewWriterLogger(w io.WriteCloser) *FileLogger {
	return &FileLogger{sink: w, enc: NewEncoder(w)}
}

// Log appends the event to the stream. After Close it is a no-op.
func (l *FileLogger) Log(event Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return
	}
	_ = l.enc.Encode(event)
}

// Close closes the underlying sink. Calling Close twice is fine; the
// second call returns nil.
func (l *FileLogger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return nil
	}
	l.closed = true
	return l.sink.Close()
}

var _ Logger = (*FileLogger)(nil)
