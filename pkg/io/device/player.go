package device

import (
	"fmt"
	"sync"

	"github.com/gordonklaus/portaudio"
	"github.com/xpanvictor/voxa/pkg/Logger"
	"github.com/xpanvictor/voxa/pkg/io/pcm"
)

// Player is the playback sink: it plays one decoded s16le mono buffer on the
// default output device at a linear volume in [0,1]. Playback talks to the
// output side only and never contends with an open capture session.
type Player struct {
	logger *Logger.Logger

	mu      sync.Mutex
	stop    chan struct{}
	playing sync.WaitGroup
}

func NewPlayer(logger *Logger.Logger) *Player {
	return &Player{logger: logger}
}

// Play starts playing the buffer once, asynchronously, cutting off any
// playback already in progress. Open failures surface immediately as
// ErrDeviceUnavailable.
func (p *Player) Play(data []byte, sampleRate int, volume float64) error {
	p.Stop()

	if err := portaudio.Initialize(); err != nil {
		return fmt.Errorf("%w: %v", ErrDeviceUnavailable, err)
	}
	out, err := portaudio.DefaultOutputDevice()
	if err != nil {
		portaudio.Terminate()
		return fmt.Errorf("%w: %v", ErrDeviceUnavailable, err)
	}

	buf := make([]int16, FramesPerBuffer)
	params := portaudio.StreamParameters{
		Output: portaudio.StreamDeviceParameters{
			Device:   out,
			Channels: 1,
			Latency:  out.DefaultLowOutputLatency,
		},
		SampleRate:      float64(sampleRate),
		FramesPerBuffer: FramesPerBuffer,
	}
	stream, err := portaudio.OpenStream(params, buf)
	if err != nil {
		portaudio.Terminate()
		return fmt.Errorf("%w: open playback stream: %v", ErrDeviceUnavailable, err)
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		portaudio.Terminate()
		return fmt.Errorf("%w: start playback stream: %v", ErrDeviceUnavailable, err)
	}

	scaled := pcm.ApplyLinearVolume(data, volume)
	stop := make(chan struct{})

	p.mu.Lock()
	p.stop = stop
	p.mu.Unlock()

	p.playing.Add(1)
	go func() {
		defer p.playing.Done()
		defer portaudio.Terminate()
		defer stream.Close()
		defer stream.Stop()

		total := len(scaled) / pcm.BytesPerSample
		for off := 0; off < total; off += FramesPerBuffer {
			select {
			case <-stop:
				return
			default:
			}
			for i := range buf {
				if off+i < total {
					buf[i] = pcm.Sample(scaled, off+i)
				} else {
					buf[i] = 0 // pad the tail block with silence
				}
			}
			if err := stream.Write(); err != nil {
				p.logger.Warnf("playback write failed: %v", err)
				return
			}
		}
	}()
	return nil
}

// Stop cancels the current playback, if any, and waits for the output stream
// to be released.
func (p *Player) Stop() {
	p.mu.Lock()
	if p.stop != nil {
		select {
		case <-p.stop:
		default:
			close(p.stop)
		}
		p.stop = nil
	}
	p.mu.Unlock()
	p.playing.Wait()
}
