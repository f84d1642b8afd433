// Package stt defines the speech-to-text domain: utterances cut out of a
// capture stream, the recognizer boundary, and the typed outcome delivered
// per utterance.
package stt

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Utterance is one contiguous span of detected speech, bounded by silence.
// Ownership passes to the dispatcher on emission; the segmenter never keeps
// a reference afterwards.
type Utterance struct {
	ID         uuid.UUID
	StartedAt  time.Time
	PCM        []byte // s16le mono at SampleRate
	SampleRate int32
	Language   string
}

// Duration reports the audio length of the utterance.
func (u *Utterance) Duration() time.Duration {
	if u.SampleRate <= 0 {
		return 0
	}
	samples := len(u.PCM) / 2
	return time.Duration(samples) * time.Second / time.Duration(u.SampleRate)
}

// OutcomeKind tags the per-utterance recognition result.
type OutcomeKind string

const (
	// OutcomeRecognized carries transcribed text.
	OutcomeRecognized OutcomeKind = "recognized"
	// OutcomeInaudible is the expected, non-error result for silence or
	// noise-only utterances.
	OutcomeInaudible OutcomeKind = "inaudible"
	// OutcomeServiceUnavailable means the backend was unreachable.
	OutcomeServiceUnavailable OutcomeKind = "service_unavailable"
	// OutcomeFailed covers everything else, with a message.
	OutcomeFailed OutcomeKind = "failed"
)

// Outcome is produced exactly once per dispatched utterance. StartedAt and
// UtteranceID let a consumer restore submission order even when results
// arrive out of order.
type Outcome struct {
	UtteranceID uuid.UUID     `json:"utteranceId"`
	StartedAt   time.Time     `json:"startedAt"`
	Duration    time.Duration `json:"duration"`
	Language    string        `json:"language"`
	Kind        OutcomeKind   `json:"kind"`
	Text        string        `json:"text,omitempty"`
	Message     string        `json:"message,omitempty"`
}

// Sentinel errors recognizer implementations return so the dispatcher can map
// them onto the outcome taxonomy.
var (
	// ErrNoSpeech: the service processed the audio but heard nothing.
	ErrNoSpeech = errors.New("no speech detected")
	// ErrServiceUnavailable: network failure or backend error.
	ErrServiceUnavailable = errors.New("recognition service unavailable")
)

// Recognizer is the external recognition service boundary: PCM utterance plus
// language code in, transcript out. Any backend honoring this contract is
// substitutable.
type Recognizer interface {
	Recognize(ctx context.Context, utt Utterance) (string, error)
}
