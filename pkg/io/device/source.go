package device

import (
	"fmt"
	"time"

	"github.com/gordonklaus/portaudio"
	"github.com/xpanvictor/voxa/pkg/io/audioring"
)

// FramesPerBuffer is the fixed capture block size in samples.
const FramesPerBuffer = 1024

// FrameSource is a blocking producer of capture frames. The portaudio-backed
// implementation is the production source; tests substitute their own.
type FrameSource interface {
	// ReadFrame blocks until a frame is available or the source has failed.
	ReadFrame() (audioring.Frame, error)
	// Close releases the underlying stream. ReadFrame calls in flight return
	// an error afterwards.
	Close() error
	// Caps reports the source's delivery format.
	Caps() Capabilities
}

type portaudioSource struct {
	stream *portaudio.Stream
	buf    []int16
	rate   int32
}

// openPortaudioSource opens an exclusive mono s16 stream on the device at its
// default sample rate. Callers get ErrDeviceUnavailable-wrapped failures.
func openPortaudioSource(dev Device) (FrameSource, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDeviceUnavailable, err)
	}

	infos, err := portaudio.Devices()
	if err != nil || dev.Index < 0 || dev.Index >= len(infos) {
		portaudio.Terminate()
		return nil, fmt.Errorf("%w: device %d not found", ErrDeviceUnavailable, dev.Index)
	}
	info := infos[dev.Index]

	rate := float64(dev.DefaultSampleRate)
	if rate <= 0 {
		rate = info.DefaultSampleRate
	}

	buf := make([]int16, FramesPerBuffer)
	stream, err := portaudio.OpenStream(monoInputParams(info, rate), buf)
	if err != nil {
		portaudio.Terminate()
		return nil, fmt.Errorf("%w: open stream: %v", ErrDeviceUnavailable, err)
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		portaudio.Terminate()
		return nil, fmt.Errorf("%w: start stream: %v", ErrDeviceUnavailable, err)
	}

	return &portaudioSource{
		stream: stream,
		buf:    buf,
		rate:   int32(rate),
	}, nil
}

func (p *portaudioSource) ReadFrame() (audioring.Frame, error) {
	if err := p.stream.Read(); err != nil {
		return audioring.Frame{}, fmt.Errorf("capture read: %w", err)
	}
	data := make([]byte, len(p.buf)*2)
	for i, s := range p.buf {
		data[2*i] = byte(s)
		data[2*i+1] = byte(s >> 8)
	}
	return audioring.Frame{
		Data:       data,
		Captured:   time.Now(),
		SampleRate: p.rate,
		Channels:   1,
	}, nil
}

func (p *portaudioSource) Close() error {
	// Abort rather than Stop so a blocked Read returns promptly.
	err := p.stream.Abort()
	if cerr := p.stream.Close(); err == nil {
		err = cerr
	}
	portaudio.Terminate()
	return err
}

func (p *portaudioSource) Caps() Capabilities {
	return Capabilities{SampleRate: p.rate, Channels: 1}
}
