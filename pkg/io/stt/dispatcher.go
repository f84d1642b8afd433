package stt

import (
	"context"
	"errors"
	"sync"

	"github.com/xpanvictor/voxa/pkg/Logger"
)

// Dispatcher sends utterances to the recognizer concurrently. Each Dispatch
// spawns independent work and returns immediately, so segmentation is never
// blocked on a pending recognition. Outcomes arrive on a single channel, in
// completion order, which may differ from submission order.
type Dispatcher struct {
	rec      Recognizer
	logger   *Logger.Logger
	outcomes chan Outcome

	mu       sync.Mutex
	inflight sync.WaitGroup
	closed   bool
}

// NewDispatcher creates a dispatcher with a buffered outcome channel. A
// consumer that stops draining loses outcomes silently once the buffer fills;
// dispatch itself never blocks.
func NewDispatcher(rec Recognizer, buffer int, logger *Logger.Logger) *Dispatcher {
	if buffer <= 0 {
		buffer = 32
	}
	return &Dispatcher{
		rec:      rec,
		logger:   logger,
		outcomes: make(chan Outcome, buffer),
	}
}

// Outcomes is the result feed. Closed only by Close, after in-flight work
// has completed.
func (d *Dispatcher) Outcomes() <-chan Outcome {
	return d.outcomes
}

// Dispatch fires recognition for one utterance. Fire-and-forget: stopping
// capture does not cancel work already dispatched, and a torn-down consumer
// just stops receiving.
func (d *Dispatcher) Dispatch(ctx context.Context, utt Utterance) {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		d.logger.Debugf("dispatcher closed, dropping utterance %s", utt.ID)
		return
	}
	d.inflight.Add(1)
	d.mu.Unlock()

	go func() {
		defer d.inflight.Done()
		// recognition outlives the caller: stopping capture cancels the
		// segmenter's context, never work already dispatched
		outcome := d.recognize(context.WithoutCancel(ctx), utt)
		select {
		case d.outcomes <- outcome:
		default:
			// consumer gone or wedged; outcomes are droppable, capture is not
			d.logger.Warnf("outcome channel full, dropping result for utterance %s", utt.ID)
		}
	}()
}

func (d *Dispatcher) recognize(ctx context.Context, utt Utterance) Outcome {
	outcome := Outcome{
		UtteranceID: utt.ID,
		StartedAt:   utt.StartedAt,
		Duration:    utt.Duration(),
		Language:    utt.Language,
	}

	text, err := d.rec.Recognize(ctx, utt)
	switch {
	case err == nil:
		outcome.Kind = OutcomeRecognized
		outcome.Text = text
	case errors.Is(err, ErrNoSpeech):
		outcome.Kind = OutcomeInaudible
	case errors.Is(err, ErrServiceUnavailable):
		outcome.Kind = OutcomeServiceUnavailable
	default:
		outcome.Kind = OutcomeFailed
		outcome.Message = err.Error()
	}
	return outcome
}

// Close waits for in-flight recognitions and closes the outcome channel.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	d.mu.Unlock()

	d.inflight.Wait()
	close(d.outcomes)
}
