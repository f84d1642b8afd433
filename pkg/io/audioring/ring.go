package audioring

import (
	"errors"
	"sync"

	"github.com/smallnest/ringbuffer"
)

var (
	errShortRecord  = errors.New("audioring: truncated frame record")
	errFrameTooBig  = errors.New("audioring: frame larger than ring capacity")
	errWriteStalled = errors.New("audioring: write failed after eviction")
)

type ring struct {
	mu   sync.Mutex
	size int
	rb   *ringbuffer.RingBuffer
}

// New creates a frame ring of the given byte capacity.
func New(size int) Ring {
	return &ring{
		size: size,
		// non-blocking so a full buffer surfaces as a short write we can
		// handle by evicting, instead of stalling the capture loop
		rb: ringbuffer.New(size).SetBlocking(false),
	}
}

func (r *ring) Capacity() int {
	return r.size
}

func (r *ring) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rb.Length()
}

func (r *ring) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rb.Reset()
}

// Enqueue appends a frame, evicting oldest frames until it fits. Records are
// stored with a 4-byte little-endian size prefix.
func (r *ring) Enqueue(f Frame) error {
	record, err := f.MarshalBinary()
	if err != nil {
		return err
	}
	required := len(record) + 4
	if required > r.size {
		return errFrameTooBig
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for r.rb.Free() < required {
		if !r.dropOldestLocked() {
			// corrupted framing; start over rather than wedge the ring
			r.rb.Reset()
			break
		}
	}

	var prefix [4]byte
	prefix[0] = byte(len(record))
	prefix[1] = byte(len(record) >> 8)
	prefix[2] = byte(len(record) >> 16)
	prefix[3] = byte(len(record) >> 24)
	if _, err := r.rb.Write(prefix[:]); err != nil {
		return errWriteStalled
	}
	if _, err := r.rb.Write(record); err != nil {
		return errWriteStalled
	}
	return nil
}

func (r *ring) Dequeue() (Frame, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.dequeueLocked()
}

func (r *ring) Latest() (Frame, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var last Frame
	var ok bool
	for {
		f, more := r.dequeueLocked()
		if !more {
			return last, ok
		}
		last, ok = f, true
	}
}

func (r *ring) dequeueLocked() (Frame, bool) {
	if r.rb.IsEmpty() {
		return Frame{}, false
	}
	size, ok := r.readSizeLocked()
	if !ok {
		return Frame{}, false
	}
	record := make([]byte, size)
	n, err := r.rb.Read(record)
	if err != nil || n != size {
		return Frame{}, false
	}
	var f Frame
	if err := f.UnmarshalBinary(record); err != nil {
		return Frame{}, false
	}
	return f, true
}

func (r *ring) dropOldestLocked() bool {
	if r.rb.IsEmpty() {
		return false
	}
	size, ok := r.readSizeLocked()
	if !ok {
		return false
	}
	if size > 0 {
		skip := make([]byte, size)
		n, err := r.rb.Read(skip)
		if err != nil || n != size {
			return false
		}
	}
	return true
}

func (r *ring) readSizeLocked() (int, bool) {
	var prefix [4]byte
	n, err := r.rb.Read(prefix[:])
	if err != nil || n != 4 {
		return 0, false
	}
	size := int(prefix[0]) | int(prefix[1])<<8 | int(prefix[2])<<16 | int(prefix[3])<<24
	return size, true
}
