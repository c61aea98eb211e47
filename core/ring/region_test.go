package ring

import "testing"

func TestRegion_RingRoundTrip(t *testing.T) {
	region, err := NewRegion(HeaderSize + 256)
	if err != nil {
		t.Fatalf("NewRegion: %v", err)
	}
	defer region.Close()

	r := New(region.Bytes, 256)
	if !r.TryWrite([]byte("hello")) {
		t.Fatal("TryWrite on region-backed ring failed")
	}
	got, ok := r.TryRead()
	if !ok || string(got) != "hello" {
		t.Fatalf("TryRead = %q, %v", got, ok)
	}
}
