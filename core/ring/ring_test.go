package ring

import (
	"bytes"
	"testing"

	"github.com/hioload-ai/coderuntime/api"
)

func TestRing_FIFO(t *testing.T) {
	region := make([]byte, HeaderSize+256)
	r := New(region, 256)

	msgs := [][]byte{[]byte("one"), []byte("two"), []byte("three")}
	for _, m := range msgs {
		if !r.TryWrite(m) {
			t.Fatalf("TryWrite(%q) failed unexpectedly", m)
		}
	}
	for _, want := range msgs {
		got, ok := r.TryRead()
		if !ok {
			t.Fatalf("TryRead: expected %q, got empty", want)
		}
		if !bytes.Equal(got, want) {
			t.Fatalf("TryRead: got %q, want %q", got, want)
		}
	}
	if _, ok := r.TryRead(); ok {
		t.Fatal("TryRead: expected empty ring to return false")
	}
}

func TestRing_SaturationIsNonFatal(t *testing.T) {
	region := make([]byte, HeaderSize+64)
	r := New(region, 64)

	filled := 0
	for r.TryWrite([]byte("xxxxxxxx")) {
		filled++
		if filled > 100 {
			t.Fatal("ring never reports full")
		}
	}
	if filled == 0 {
		t.Fatal("expected at least one successful write before saturation")
	}

	// Draining one message must free exactly enough room for another
	// write of the same size, never corrupting neighboring slots.
	first, ok := r.TryRead()
	if !ok {
		t.Fatal("expected a message after partial drain")
	}
	if string(first) != "xxxxxxxx" {
		t.Fatalf("unexpected drained content: %q", first)
	}
	if !r.TryWrite([]byte("xxxxxxxx")) {
		t.Fatal("expected room to write after draining one slot")
	}
}

func TestRing_OversizeMessageRejected(t *testing.T) {
	region := make([]byte, HeaderSize+32)
	r := New(region, 32)

	if r.TryWrite(make([]byte, 64)) {
		t.Fatal("expected oversize message to be rejected")
	}
}

func TestRing_OpenValidatesHeader(t *testing.T) {
	region := make([]byte, HeaderSize+128)
	New(region, 128)

	opened, err := Open(region)
	if err != nil {
		t.Fatalf("Open: unexpected error %v", err)
	}
	if opened.Cap() != 128 {
		t.Fatalf("Cap() = %d, want 128", opened.Cap())
	}

	if _, err := Open(make([]byte, HeaderSize+128)); err != api.ErrBadMagic {
		t.Fatalf("Open on zeroed region: got %v, want ErrBadMagic", err)
	}

	if _, err := Open(make([]byte, 8)); err != api.ErrShortHeader {
		t.Fatalf("Open on short region: got %v, want ErrShortHeader", err)
	}
}

func TestRing_WraparoundPreservesContent(t *testing.T) {
	region := make([]byte, HeaderSize+32)
	r := New(region, 32)

	// Force the write cursor near the end of the region so the next
	// message must wrap.
	for i := 0; i < 3; i++ {
		if !r.TryWrite([]byte("abc")) {
			t.Fatalf("setup write %d failed", i)
		}
		if _, ok := r.TryRead(); !ok {
			t.Fatalf("setup read %d failed", i)
		}
	}

	payload := []byte("0123456789abcdef")
	if !r.TryWrite(payload) {
		t.Fatal("wraparound write failed")
	}
	got, ok := r.TryRead()
	if !ok {
		t.Fatal("wraparound read failed")
	}
	if !bytes.Equal(got, payload) {
		t.Fatalf("wraparound content mismatch: got %q, want %q", got, payload)
	}
}
