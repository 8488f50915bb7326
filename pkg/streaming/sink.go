// Package streaming provides an append-only byte sink over growable
// buffer segments. Producers write or read straight into the segments
// and the ordered chain is handed to the response writer, so response
// bodies are never staged through an intermediate copy.
package streaming

import (
	"fmt"
	"io"
	"os"
)

// MinSegment is the smallest segment the sink allocates.
const MinSegment = 64 * 1024

// Allocator returns a buffer with at least the requested capacity.
// Hosts with their own memory pools supply one; the default uses make.
type Allocator func(size int) []byte

// Sink collects written bytes into an ordered chain of segments.
// A Sink is private to one request and not safe for concurrent use.
type Sink struct {
	alloc Allocator
	segs  [][]byte
}

// NewSink returns a sink using alloc for segment allocation, or plain
// slices if alloc is nil.
func NewSink(alloc Allocator) *Sink {
	if alloc == nil {
		alloc = func(size int) []byte { return make([]byte, 0, size) }
	}
	return &Sink{alloc: alloc}
}

// grow appends a fresh segment with capacity for at least n bytes.
func (s *Sink) grow(n int) {
	if n < MinSegment {
		n = MinSegment
	}
	seg := s.alloc(n)
	s.segs = append(s.segs, seg[:0])
}

// Write implements io.Writer. A write that does not fit in the current
// segment starts a new one; it is never split across segments.
func (s *Sink) Write(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	if len(s.segs) == 0 || cap(s.last())-len(s.last()) < len(p) {
		s.grow(len(p))
	}
	i := len(s.segs) - 1
	s.segs[i] = append(s.segs[i], p...)
	return len(p), nil
}

// ReadFrom implements io.ReaderFrom, filling segment tails directly
// from r with no staging buffer.
func (s *Sink) ReadFrom(r io.Reader) (int64, error) {
	var total int64
	for {
		if len(s.segs) == 0 || cap(s.last()) == len(s.last()) {
			s.grow(MinSegment)
		}
		i := len(s.segs) - 1
		seg := s.segs[i]
		n, err := r.Read(seg[len(seg):cap(seg)])
		s.segs[i] = seg[: len(seg)+n : cap(seg)]
		total += int64(n)
		if err == io.EOF {
			return total, nil
		}
		if err != nil {
			return total, err
		}
	}
}

// Segments returns the ordered segment chain.
func (s *Sink) Segments() [][]byte {
	return s.segs
}

// Len returns the total number of bytes written.
func (s *Sink) Len() int64 {
	var n int64
	for _, seg := range s.segs {
		n += int64(len(seg))
	}
	return n
}

// WriteTo writes the segment chain to w in order.
func (s *Sink) WriteTo(w io.Writer) (int64, error) {
	var total int64
	for _, seg := range s.segs {
		n, err := w.Write(seg)
		total += int64(n)
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

func (s *Sink) last() []byte {
	return s.segs[len(s.segs)-1]
}

// LoadFile streams the file at path into the sink.
func LoadFile(path string, s *Sink) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	if _, err := s.ReadFrom(f); err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	return nil
}
