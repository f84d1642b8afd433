// Package vad classifies capture frames as speech or non-speech by comparing
// frame energy against an adaptive ambient-noise floor. The floor learns from
// non-voiced frames, so the detector tracks room noise instead of relying on
// a fixed threshold.
package vad

import (
	"github.com/xpanvictor/voxa/pkg/io/pcm"
)

// Config tunes the energy detector.
type Config struct {
	// Sensitivity scales the noise floor into the voicing threshold: a frame
	// is voiced when its RMS exceeds floor*Sensitivity.
	Sensitivity float64 `json:"sensitivity"`
	// FloorDecay is the decaying-average coefficient for floor updates from
	// non-voiced frames; closer to 1 adapts slower.
	FloorDecay float64 `json:"floorDecay"`
	// MinFloor keeps the threshold meaningful in a dead-silent room.
	MinFloor float64 `json:"minFloor"`
}

// DefaultConfig returns thresholds balanced for close-mic speech.
func DefaultConfig() Config {
	return Config{
		Sensitivity: 2.5,
		FloorDecay:  0.95,
		MinFloor:    150,
	}
}

// Detector carries the evolving noise floor. Not safe for concurrent use;
// each segmentation run owns one.
type Detector struct {
	cfg   Config
	floor float64
}

func NewDetector(cfg Config) *Detector {
	if cfg.Sensitivity <= 1 {
		cfg.Sensitivity = DefaultConfig().Sensitivity
	}
	if cfg.FloorDecay <= 0 || cfg.FloorDecay >= 1 {
		cfg.FloorDecay = DefaultConfig().FloorDecay
	}
	if cfg.MinFloor <= 0 {
		cfg.MinFloor = DefaultConfig().MinFloor
	}
	return &Detector{cfg: cfg, floor: cfg.MinFloor}
}

// Classify reports whether the s16le frame is voiced and returns its RMS
// energy. Non-voiced frames feed the ambient floor.
func (d *Detector) Classify(frame []byte) (bool, float64) {
	energy := pcm.RMS(frame)
	voiced := energy > d.floor*d.cfg.Sensitivity
	if !voiced {
		d.floor = d.cfg.FloorDecay*d.floor + (1-d.cfg.FloorDecay)*energy
		if d.floor < d.cfg.MinFloor {
			d.floor = d.cfg.MinFloor
		}
	}
	return voiced, energy
}

// Floor exposes the current ambient estimate, mainly for logging.
func (d *Detector) Floor() float64 {
	return d.floor
}
