// Package tts turns text into post-processed audio: an external synthesis
// service produces base audio, then the pipeline applies speed change and
// decibel-domain gain before playback or export.
package tts

import (
	"context"
	"errors"
	"strings"
)

// Failure kinds for synthesis (§ error taxonomy).
var (
	// ErrInvalidInput: empty text or unusable parameters, rejected before
	// any I/O happens.
	ErrInvalidInput = errors.New("invalid synthesis input")
	// ErrServiceUnavailable: synthesis backend unreachable or erroring.
	ErrServiceUnavailable = errors.New("synthesis service unavailable")
	// ErrEncodingFailure: decode/post-process/export failure.
	ErrEncodingFailure = errors.New("audio encoding failure")
)

// Caller-facing parameter ranges. Validation clamps into these; the pipeline
// additionally guards internally against anything non-positive.
const (
	SpeedMin  = 0.5
	SpeedMax  = 2.5
	VolumeMin = 0.2
	VolumeMax = 2.0
)

// Request describes one synthesis job.
type Request struct {
	Text     string  `json:"text"`
	Language string  `json:"language"`
	Speed    float64 `json:"speed"`
	Volume   float64 `json:"volume"`
}

// Validate is the single clamping boundary: empty text is rejected, factors
// are clamped in place, zero factors become the 1.0 defaults.
func (r *Request) Validate() error {
	r.Text = strings.TrimSpace(r.Text)
	if r.Text == "" {
		return ErrInvalidInput
	}
	if r.Speed == 0 {
		r.Speed = 1.0
	}
	if r.Volume == 0 {
		r.Volume = 1.0
	}
	r.Speed = clamp(r.Speed, SpeedMin, SpeedMax)
	r.Volume = clamp(r.Volume, VolumeMin, VolumeMax)
	return nil
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Synthesizer is the external synthesis service boundary: text plus language
// in, encoded audio bytes and their content type out.
type Synthesizer interface {
	Synthesize(ctx context.Context, text, language string) (audio []byte, contentType string, err error)
}
