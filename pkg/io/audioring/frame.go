// Package audioring provides the bounded per-subscriber frame queues used to
// fan a single capture stream out to multiple consumers. When a subscriber
// falls behind, its own oldest frames are evicted; the capture loop never
// blocks on a slow reader.
package audioring

import (
	"encoding/binary"
	"time"
)

// Frame is one fixed-size block of s16le mono PCM read from a capture device.
type Frame struct {
	Data       []byte
	Captured   time.Time
	SampleRate int32
	Channels   int16
}

// Duration reports how much audio the frame holds at its sample rate.
func (f *Frame) Duration() time.Duration {
	if f.SampleRate <= 0 || f.Channels <= 0 {
		return 0
	}
	samples := len(f.Data) / (2 * int(f.Channels))
	return time.Duration(samples) * time.Second / time.Duration(f.SampleRate)
}

// frame record layout inside the ring:
// captured(8) + sampleRate(4) + channels(2) + dataLen(4) + data
const frameHeaderSize = 8 + 4 + 2 + 4

func (f *Frame) MarshalBinary() ([]byte, error) {
	buf := make([]byte, frameHeaderSize+len(f.Data))
	offset := 0
	binary.LittleEndian.PutUint64(buf[offset:], uint64(f.Captured.UnixNano()))
	offset += 8
	binary.LittleEndian.PutUint32(buf[offset:], uint32(f.SampleRate))
	offset += 4
	binary.LittleEndian.PutUint16(buf[offset:], uint16(f.Channels))
	offset += 2
	binary.LittleEndian.PutUint32(buf[offset:], uint32(len(f.Data)))
	offset += 4
	copy(buf[offset:], f.Data)
	return buf, nil
}

func (f *Frame) UnmarshalBinary(data []byte) error {
	if len(data) < frameHeaderSize {
		return errShortRecord
	}
	offset := 0
	f.Captured = time.Unix(0, int64(binary.LittleEndian.Uint64(data[offset:])))
	offset += 8
	f.SampleRate = int32(binary.LittleEndian.Uint32(data[offset:]))
	offset += 4
	f.Channels = int16(binary.LittleEndian.Uint16(data[offset:]))
	offset += 2
	dataLen := int(binary.LittleEndian.Uint32(data[offset:]))
	offset += 4
	if len(data[offset:]) < dataLen {
		return errShortRecord
	}
	f.Data = make([]byte, dataLen)
	copy(f.Data, data[offset:offset+dataLen])
	return nil
}

// Ring is a bounded FIFO of frames that evicts whole frames from the front
// when full. Implementations are safe for one producer and one consumer.
type Ring interface {
	Enqueue(f Frame) error
	Dequeue() (Frame, bool)
	// Latest drains the ring and returns the most recently enqueued frame.
	Latest() (Frame, bool)
	Len() int
	Capacity() int
	Reset()
}
