package streaming

import (
	"bytes"
	"math/rand"
	"os"
	"path/filepath"
	"testing"
)

func TestWriteSharesSegments(t *testing.T) {
	s := NewSink(nil)
	for i := 0; i < 100; i++ {
		if _, err := s.Write([]byte("0123456789")); err != nil {
			t.Fatalf("Write: %v", err)
		}
	}

	if got := len(s.Segments()); got != 1 {
		t.Errorf("100 small writes produced %d segments, want 1", got)
	}
	if got := s.Len(); got != 1000 {
		t.Errorf("Len() = %d, want 1000", got)
	}
}

func TestWriteNeverSplits(t *testing.T) {
	s := NewSink(nil)

	// Nearly fill the first segment, then write a chunk that does not
	// fit in the remainder. It must land whole in a fresh segment.
	if _, err := s.Write(make([]byte, MinSegment-10)); err != nil {
		t.Fatal(err)
	}
	big := bytes.Repeat([]byte{0xAB}, 100)
	if _, err := s.Write(big); err != nil {
		t.Fatal(err)
	}

	segs := s.Segments()
	if len(segs) != 2 {
		t.Fatalf("got %d segments, want 2", len(segs))
	}
	if len(segs[0]) != MinSegment-10 {
		t.Errorf("first segment holds %d bytes, want %d", len(segs[0]), MinSegment-10)
	}
	if !bytes.Equal(segs[1], big) {
		t.Errorf("second segment does not hold the whole oversized write")
	}
}

func TestWriteLargerThanMinSegment(t *testing.T) {
	s := NewSink(nil)
	big := make([]byte, 3*MinSegment)
	if _, err := s.Write(big); err != nil {
		t.Fatal(err)
	}

	segs := s.Segments()
	if len(segs) != 1 {
		t.Fatalf("got %d segments, want 1", len(segs))
	}
	if len(segs[0]) != len(big) {
		t.Errorf("segment holds %d bytes, want %d", len(segs[0]), len(big))
	}
}

func TestCustomAllocator(t *testing.T) {
	var sizes []int
	s := NewSink(func(size int) []byte {
		sizes = append(sizes, size)
		return make([]byte, 0, size)
	})

	if _, err := s.Write([]byte("hi")); err != nil {
		t.Fatal(err)
	}
	if len(sizes) != 1 {
		t.Fatalf("allocator called %d times, want 1", len(sizes))
	}
	if sizes[0] < MinSegment {
		t.Errorf("allocator asked for %d bytes, want at least %d", sizes[0], MinSegment)
	}
}

func TestReadFromAndWriteTo(t *testing.T) {
	want := make([]byte, 150*1024)
	rnd := rand.New(rand.NewSource(1))
	rnd.Read(want)

	s := NewSink(nil)
	n, err := s.ReadFrom(bytes.NewReader(want))
	if err != nil {
		t.Fatalf("ReadFrom: %v", err)
	}
	if n != int64(len(want)) {
		t.Errorf("ReadFrom read %d bytes, want %d", n, len(want))
	}

	var out bytes.Buffer
	if _, err := s.WriteTo(&out); err != nil {
		t.Fatalf("WriteTo: %v", err)
	}
	if !bytes.Equal(out.Bytes(), want) {
		t.Error("round-tripped bytes differ from input")
	}
}

func TestLoadFile(t *testing.T) {
	p := filepath.Join(t.TempDir(), "blob")
	want := bytes.Repeat([]byte("gallery"), 4096)
	if err := os.WriteFile(p, want, 0o644); err != nil {
		t.Fatal(err)
	}

	s := NewSink(nil)
	if err := LoadFile(p, s); err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if s.Len() != int64(len(want)) {
		t.Errorf("Len() = %d, want %d", s.Len(), len(want))
	}

	var out bytes.Buffer
	if _, err := s.WriteTo(&out); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(out.Bytes(), want) {
		t.Error("loaded bytes differ from file contents")
	}

	if err := LoadFile(filepath.Join(t.TempDir(), "missing"), NewSink(nil)); err == nil {
		t.Error("LoadFile on a missing file succeeded, want error")
	}
}
