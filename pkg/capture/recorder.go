package capture

import (
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/fxamacker/cbor/v2"
)

// Recorder appends records to a stream. It is safe for concurrent use.
type Recorder struct {
	mu      sync.Mutex
	w       io.Writer
	closer  io.Closer
	encoder *cbor.Encoder
	now     func() time.Time
	closed  bool
}

// NewRecorder creates a recorder writing to w.
func NewRecorder(w io.Writer) *Recorder {
	return &Recorder{
		w:       w,
		encoder: encMode.NewEncoder(w),
		now:     time.Now,
	}
}

// OpenFile creates a recorder appending to path. The file is created with
// permissions 0644 if it doesn't exist.
func OpenFile(path string) (*Recorder, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, err
	}
	r := NewRecorder(f)
	r.closer = f
	return r, nil
}

// Record writes one record. Encoding errors are returned, never logged.
func (r *Recorder) Record(kind Kind, line string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil
	}
	return r.encoder.Encode(Record{Time: r.now(), Kind: kind, Line: line})
}

// Close closes the underlying file, if any. Safe to call multiple times.
func (r *Recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil
	}
	r.closed = true
	if r.closer != nil {
		return r.closer.Close()
	}
	return nil
}

// Tee returns a writer that forwards to w and records every complete line
// written through it as kind.
func (r *Recorder) Tee(w io.Writer, kind Kind) io.Writer {
	return &teeWriter{w: w, rec: r, kind: kind}
}

type teeWriter struct {
	mu      sync.Mutex
	w       io.Writer
	rec     *Recorder
	kind    Kind
	partial strings.Builder
}

func (t *teeWriter) Write(p []byte) (int, error) {
	n, err := t.w.Write(p)

	t.mu.Lock()
	defer t.mu.Unlock()

	// Record what was actually written, split into lines
	t.partial.Write(p[:n])
	s := t.partial.String()
	for {
		i := strings.IndexByte(s, '\n')
		if i < 0 {
			break
		}
		// Capture failures must not break the output path
		_ = t.rec.Record(t.kind, s[:i])
		s = s[i+1:]
	}
	t.partial.Reset()
	t.partial.WriteString(s)

	return n, err
}
