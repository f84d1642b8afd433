package tts

import (
	"context"
	"fmt"

	"github.com/xpanvictor/voxa/pkg/Logger"
	"github.com/xpanvictor/voxa/pkg/io/pcm"
)

// Pipeline runs synthesis jobs: validate, fetch base audio, decode, apply
// speed change and gain, and hand back a Result ready for playback or export.
// Stateless and safe for concurrent use.
type Pipeline struct {
	svc    Synthesizer
	logger *Logger.Logger
}

func NewPipeline(svc Synthesizer, logger *Logger.Logger) *Pipeline {
	return &Pipeline{svc: svc, logger: logger}
}

// Synthesize produces post-processed audio for req. Validation runs before
// the service is contacted, so bad requests never generate network traffic.
//
// Speed change relabels the sample rate by the factor and resamples back, so
// the output keeps the base sample rate but plays shorter or longer (pitch
// shifts with it). Gain is applied in the decibel domain from the volume
// factor. The two are independent and their order does not matter.
func (p *Pipeline) Synthesize(ctx context.Context, req Request) (*Result, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	audio, contentType, err := p.svc.Synthesize(ctx, req.Text, req.Language)
	if err != nil {
		return nil, fmt.Errorf("synthesis: %w", err)
	}

	data, rate, err := decodeAudio(audio, contentType)
	if err != nil {
		return nil, err
	}

	data = pcm.SpeedChange(data, rate, req.Speed)
	data = pcm.ApplyGain(data, pcm.GainDB(req.Volume))

	p.logger.Debugf("synthesized %q: %d samples at %dHz (speed=%.2f volume=%.2f)",
		truncate(req.Text, 40), len(data)/2, rate, req.Speed, req.Volume)

	return &Result{PCM: data, SampleRate: rate, Channels: 1}, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
