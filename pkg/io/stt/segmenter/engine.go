// Package segmenter cuts a continuous capture feed into discrete utterances
// using energy-based voice-activity detection. The engine is a small state
// machine: idle -> listening <-> voiced -> stopped.
package segmenter

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/looplab/fsm"
	"github.com/xpanvictor/voxa/pkg/Logger"
	"github.com/xpanvictor/voxa/pkg/io/audioring"
	"github.com/xpanvictor/voxa/pkg/io/stt"
	"github.com/xpanvictor/voxa/pkg/io/stt/vad"
)

// Engine states.
const (
	StateIdle      = "idle"
	StateListening = "listening"
	StateVoiced    = "voiced"
	StateStopped   = "stopped"
)

const (
	evStart = "start"
	evOnset = "onset"
	evSeal  = "seal"
	evStop  = "stop"
)

// Config tunes utterance boundary detection.
type Config struct {
	VAD vad.Config `json:"vad"`
	// OnsetHold: energy must stay above threshold this long before an
	// utterance starts; brief spikes never open one.
	OnsetHold time.Duration `json:"onsetHold"`
	// Pause: this much sub-threshold audio seals the utterance.
	Pause time.Duration `json:"pause"`
	// MaxUtterance force-seals even without silence, bounding memory.
	MaxUtterance time.Duration `json:"maxUtterance"`
}

// DefaultConfig mirrors the tool's listening defaults: ~0.8s pause, 10s cap.
func DefaultConfig() Config {
	return Config{
		VAD:          vad.DefaultConfig(),
		OnsetHold:    300 * time.Millisecond,
		Pause:        800 * time.Millisecond,
		MaxUtterance: 10 * time.Second,
	}
}

// FrameFeed is the engine's view of a capture subscription.
type FrameFeed interface {
	Next(ctx context.Context) (audioring.Frame, bool)
}

// Sink receives sealed utterances. Dispatch must return promptly; the engine
// does not wait on recognition before accumulating the next utterance.
type Sink interface {
	Dispatch(ctx context.Context, utt stt.Utterance)
}

// Engine consumes one frame feed for the lifetime of a capture session.
// A stopped engine stays stopped; sessions build a fresh one.
type Engine struct {
	cfg     Config
	logger  *Logger.Logger
	sink    Sink
	machine *fsm.FSM

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func New(cfg Config, sink Sink, logger *Logger.Logger) *Engine {
	if cfg.OnsetHold <= 0 {
		cfg.OnsetHold = DefaultConfig().OnsetHold
	}
	if cfg.Pause <= 0 {
		cfg.Pause = DefaultConfig().Pause
	}
	if cfg.MaxUtterance <= 0 {
		cfg.MaxUtterance = DefaultConfig().MaxUtterance
	}
	return &Engine{
		cfg:    cfg,
		logger: logger,
		sink:   sink,
		machine: fsm.NewFSM(
			StateIdle,
			fsm.Events{
				{Name: evStart, Src: []string{StateIdle}, Dst: StateListening},
				{Name: evOnset, Src: []string{StateListening}, Dst: StateVoiced},
				{Name: evSeal, Src: []string{StateVoiced}, Dst: StateListening},
				{Name: evStop, Src: []string{StateIdle, StateListening, StateVoiced}, Dst: StateStopped},
			},
			fsm.Callbacks{},
		),
	}
}

// State reports the current machine state.
func (e *Engine) State() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.machine.Current()
}

// Start transitions idle -> listening and begins consuming the feed. The
// language code is stamped onto every utterance this run emits.
func (e *Engine) Start(ctx context.Context, feed FrameFeed, language string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.machine.Event(ctx, evStart); err != nil {
		return fmt.Errorf("segmenter start: %w", err)
	}
	runCtx, cancel := context.WithCancel(ctx)
	e.cancel = cancel
	e.done = make(chan struct{})
	go e.run(runCtx, feed, language)
	return nil
}

// Stop transitions to stopped from any state. An in-progress utterance is
// discarded, never emitted; outcomes already dispatched still complete.
func (e *Engine) Stop() {
	e.mu.Lock()
	cancel := e.cancel
	done := e.done
	e.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	} else {
		// never started; idle -> stopped directly
		e.mu.Lock()
		_ = e.machine.Event(context.Background(), evStop)
		e.mu.Unlock()
	}
}

func (e *Engine) event(ctx context.Context, name string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.machine.Event(ctx, name); err != nil {
		e.logger.Debugf("segmenter event %s ignored: %v", name, err)
	}
}

// accum gathers frames for one in-progress utterance.
type accum struct {
	startedAt time.Time
	rate      int32
	data      []byte
	duration  time.Duration
}

func (a *accum) add(f audioring.Frame) {
	if a.data == nil {
		a.startedAt = f.Captured
		a.rate = f.SampleRate
	}
	a.data = append(a.data, f.Data...)
	a.duration += f.Duration()
}

func (e *Engine) run(ctx context.Context, feed FrameFeed, language string) {
	defer func() {
		e.event(context.Background(), evStop)
		e.mu.Lock()
		done := e.done
		e.mu.Unlock()
		close(done)
	}()

	detector := vad.NewDetector(e.cfg.VAD)
	var (
		onset   accum // candidate frames inside the onset hold window
		current *accum
		silence time.Duration
	)

	for {
		frame, ok := feed.Next(ctx)
		if !ok {
			// stop() or end-of-stream; a partial utterance is not flushed
			if current != nil {
				e.logger.Debugf("discarding partial utterance of %v", current.duration)
			}
			return
		}

		voiced, energy := detector.Classify(frame.Data)

		switch e.State() {
		case StateListening:
			if !voiced {
				onset = accum{}
				continue
			}
			onset.add(frame)
			if onset.duration >= e.cfg.OnsetHold {
				e.logger.Debugf("voice onset (energy=%.0f floor=%.0f)", energy, detector.Floor())
				e.event(ctx, evOnset)
				held := onset
				current = &held
				onset = accum{}
				silence = 0
			}

		case StateVoiced:
			current.add(frame)
			if voiced {
				silence = 0
			} else {
				silence += frame.Duration()
			}

			if silence >= e.cfg.Pause {
				e.emit(ctx, current, language)
				current = nil
				silence = 0
				e.event(ctx, evSeal)
			} else if current.duration >= e.cfg.MaxUtterance {
				// hard cutoff: seal and keep accumulating immediately, never
				// merging audio across the boundary
				e.emit(ctx, current, language)
				current = &accum{}
				silence = 0
			}

		default:
			return
		}
	}
}

func (e *Engine) emit(ctx context.Context, a *accum, language string) {
	if len(a.data) == 0 {
		return
	}
	utt := stt.Utterance{
		ID:         uuid.New(),
		StartedAt:  a.startedAt,
		PCM:        a.data,
		SampleRate: a.rate,
		Language:   language,
	}
	e.logger.Debugf("utterance sealed: %v of audio at %dHz", utt.Duration(), utt.SampleRate)
	// ownership of the PCM passes to the sink here
	e.sink.Dispatch(ctx, utt)
}
