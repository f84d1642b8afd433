package device

import (
	"context"
	"sync"

	"github.com/xpanvictor/voxa/pkg/Logger"
	"github.com/xpanvictor/voxa/pkg/io/audioring"
)

// subscriberRingBytes bounds each subscriber's private frame queue. At 16kHz
// mono s16 this is roughly two seconds of audio per subscriber.
const subscriberRingBytes = 64 * 1024

// Session owns exactly one open capture stream and fans its frames out to any
// number of subscribers. One goroutine reads the device; subscribers each get
// a private bounded ring, so a slow consumer only ever drops its own frames.
type Session struct {
	logger *Logger.Logger
	src    FrameSource

	mu     sync.Mutex
	subs   []*Subscription
	closed bool
	done   chan struct{}
}

// Open opens an exclusive capture stream on the device and starts the read
// loop. Fails with ErrDeviceUnavailable if the stream cannot be opened.
func Open(dev Device, logger *Logger.Logger) (*Session, error) {
	src, err := openPortaudioSource(dev)
	if err != nil {
		return nil, err
	}
	return NewSession(src, logger), nil
}

// NewSession wraps an already-open frame source. Exported so callers with a
// non-hardware source (and tests) can reuse the fan-out machinery.
func NewSession(src FrameSource, logger *Logger.Logger) *Session {
	s := &Session{
		logger: logger,
		src:    src,
		done:   make(chan struct{}),
	}
	go s.readLoop()
	return s
}

// Caps reports the capture format shared by every subscriber.
func (s *Session) Caps() Capabilities {
	return s.src.Caps()
}

// Subscribe registers a new frame feed. Subscribing never reopens the device;
// every subscriber observes the same physical stream. A subscription taken
// after Close is already terminated.
func (s *Session) Subscribe() *Subscription {
	sub := newSubscription(subscriberRingBytes)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		sub.terminate()
		return sub
	}
	s.subs = append(s.subs, sub)
	return sub
}

// Close stops the stream and releases the device. Idempotent. Subscribers
// observe end-of-stream once their queued frames drain.
func (s *Session) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	subs := s.subs
	s.mu.Unlock()

	// Unblocks the read loop's pending ReadFrame.
	err := s.src.Close()
	<-s.done

	for _, sub := range subs {
		sub.terminate()
	}
	return err
}

// Done is closed once the read loop has exited, whether by Close or by a
// device failure mid-stream.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

func (s *Session) readLoop() {
	defer close(s.done)
	for {
		frame, err := s.src.ReadFrame()
		if err != nil {
			s.mu.Lock()
			wasClosed := s.closed
			s.closed = true
			subs := s.subs
			s.mu.Unlock()
			if !wasClosed {
				// device died under us; release it and make the failure
				// observable as end-of-stream
				s.logger.Warnf("capture stream ended: %v", err)
				_ = s.src.Close()
				for _, sub := range subs {
					sub.terminate()
				}
			}
			return
		}

		s.mu.Lock()
		subs := s.subs
		s.mu.Unlock()
		for _, sub := range subs {
			sub.push(frame)
		}
	}
}

// Subscription is one consumer's view of the capture stream: a private
// bounded ring plus a wakeup channel.
type Subscription struct {
	ring   audioring.Ring
	notify chan struct{}
	done   chan struct{}
	once   sync.Once
}

func newSubscription(ringBytes int) *Subscription {
	return &Subscription{
		ring:   audioring.New(ringBytes),
		notify: make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
}

func (sub *Subscription) push(f audioring.Frame) {
	// Enqueue evicts this subscriber's oldest frames when full; the capture
	// loop never blocks here.
	_ = sub.ring.Enqueue(f)
	select {
	case sub.notify <- struct{}{}:
	default:
	}
}

func (sub *Subscription) terminate() {
	sub.once.Do(func() { close(sub.done) })
}

// Next blocks until a frame arrives, the context is done, or the stream has
// ended and the queue is drained. The second return is false only on
// end-of-stream or context cancellation.
func (sub *Subscription) Next(ctx context.Context) (audioring.Frame, bool) {
	for {
		if f, ok := sub.ring.Dequeue(); ok {
			return f, true
		}
		select {
		case <-ctx.Done():
			return audioring.Frame{}, false
		case <-sub.done:
			// drain anything pushed before termination
			if f, ok := sub.ring.Dequeue(); ok {
				return f, true
			}
			return audioring.Frame{}, false
		case <-sub.notify:
		}
	}
}

// Latest discards backlog and returns the most recent frame, non-blocking.
// Used by the level meter, which only cares about "now".
func (sub *Subscription) Latest() (audioring.Frame, bool) {
	return sub.ring.Latest()
}

// Done is closed when the feeding session has ended.
func (sub *Subscription) Done() <-chan struct{} {
	return sub.done
}
