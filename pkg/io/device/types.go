// Package device owns the physical audio boundary: input device enumeration,
// the single-owner capture session with subscriber fan-out, level metering
// and the playback sink.
package device

import "errors"

// ErrDeviceUnavailable is returned when a capture or playback stream cannot
// be opened: device in use, disconnected, or format unsupported.
var ErrDeviceUnavailable = errors.New("audio device unavailable")

// Device describes one capture-capable audio device as reported by the host.
// Enumerated fresh on every catalog query, never persisted here.
type Device struct {
	Index             int    `json:"index"`
	Name              string `json:"name"`
	DefaultSampleRate int    `json:"defaultSampleRate"`
	MaxInputChannels  int    `json:"maxInputChannels"`
}

// Capabilities advertises what a capture endpoint delivers. Carried on
// session metadata so downstream consumers don't re-probe the hardware.
type Capabilities struct {
	SampleRate int32 `json:"sampleRate"`
	Channels   int16 `json:"channels"`
}
