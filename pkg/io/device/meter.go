package device

import (
	"github.com/xpanvictor/voxa/pkg/io/pcm"
)

// LevelMeter reduces the freshest frame on a subscription to a 0-100 loudness
// reading. Callers drive it on their own period (~100ms); each Sample is a
// single RMS pass, so it is safe to tick from a UI/event goroutine.
type LevelMeter struct {
	sub *Subscription
}

func NewLevelMeter(sub *Subscription) *LevelMeter {
	return &LevelMeter{sub: sub}
}

// Sample returns the current level, or 0 when no frame is available (stream
// stalled or closed). Metering is best-effort and never fails.
func (m *LevelMeter) Sample() int {
	frame, ok := m.sub.Latest()
	if !ok {
		return 0
	}
	return pcm.Level(frame.Data)
}
