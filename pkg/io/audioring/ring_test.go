package audioring

import (
	"testing"
	"time"
)

func testFrame(fill byte, size int) Frame {
	data := make([]byte, size)
	for i := range data {
		data[i] = fill
	}
	return Frame{
		Data:       data,
		Captured:   time.Now(),
		SampleRate: 16000,
		Channels:   1,
	}
}

func TestRingRoundTrip(t *testing.T) {
	r := New(1024)

	if r.Capacity() != 1024 {
		t.Errorf("Capacity() = %d, want 1024", r.Capacity())
	}
	if r.Len() != 0 {
		t.Errorf("new ring Len() = %d, want 0", r.Len())
	}

	in := testFrame(7, 64)
	if err := r.Enqueue(in); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	out, ok := r.Dequeue()
	if !ok {
		t.Fatal("Dequeue returned no frame")
	}
	if len(out.Data) != len(in.Data) {
		t.Fatalf("data length = %d, want %d", len(out.Data), len(in.Data))
	}
	for i, b := range out.Data {
		if b != in.Data[i] {
			t.Fatalf("data mismatch at %d", i)
		}
	}
	if out.SampleRate != in.SampleRate || out.Channels != in.Channels {
		t.Errorf("format = %d/%d, want %d/%d", out.SampleRate, out.Channels, in.SampleRate, in.Channels)
	}
	if d := out.Captured.Sub(in.Captured); d < -time.Microsecond || d > time.Microsecond {
		t.Errorf("captured timestamp drifted by %v", d)
	}
}

func TestRingEvictsWholeOldestFrames(t *testing.T) {
	// Each record is 64 data bytes + 18 header + 4 prefix = 86 bytes, so a
	// 256-byte ring holds two frames and must evict the first on the fourth.
	r := New(256)
	for i := 0; i < 4; i++ {
		if err := r.Enqueue(testFrame(byte(i), 64)); err != nil {
			t.Fatalf("Enqueue %d: %v", i, err)
		}
	}
	first, ok := r.Dequeue()
	if !ok {
		t.Fatal("expected at least one frame after eviction")
	}
	if first.Data[0] == 0 {
		t.Error("oldest frame should have been evicted")
	}
	if len(first.Data) != 64 {
		t.Errorf("surviving frame truncated to %d bytes", len(first.Data))
	}
}

func TestRingRejectsOversizedFrame(t *testing.T) {
	r := New(64)
	if err := r.Enqueue(testFrame(1, 256)); err == nil {
		t.Error("expected error for frame larger than ring")
	}
}

func TestRingLatestDrains(t *testing.T) {
	r := New(4096)
	for i := 0; i < 5; i++ {
		if err := r.Enqueue(testFrame(byte(i), 32)); err != nil {
			t.Fatalf("Enqueue %d: %v", i, err)
		}
	}
	latest, ok := r.Latest()
	if !ok {
		t.Fatal("Latest returned no frame")
	}
	if latest.Data[0] != 4 {
		t.Errorf("Latest returned frame %d, want 4", latest.Data[0])
	}
	if r.Len() != 0 {
		t.Errorf("ring not drained after Latest, Len() = %d", r.Len())
	}
	if _, ok := r.Latest(); ok {
		t.Error("Latest on empty ring should report no frame")
	}
}

func TestFrameDuration(t *testing.T) {
	f := testFrame(0, 16000*2) // 1s of 16kHz mono s16le
	if d := f.Duration(); d != time.Second {
		t.Errorf("Duration() = %v, want 1s", d)
	}
}
