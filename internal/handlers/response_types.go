package handlers

import (
	"github.com/xpanvictor/voxa/internal/config"
	"github.com/xpanvictor/voxa/internal/history"
	"github.com/xpanvictor/voxa/pkg/io/device"
)

// SuccessResponse represents a generic success response
type SuccessResponse struct {
	Message string `json:"message" example:"Operation completed successfully"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error" example:"Something went wrong"`
	Details string `json:"details,omitempty"`
}

// DevicesResponse lists the usable capture devices
type DevicesResponse struct {
	Devices []device.Device `json:"devices"`
}

// LanguagesResponse exposes the selectable language and speed tables
type LanguagesResponse struct {
	Languages    []config.Language `json:"languages"`
	SpeedFactors []float64         `json:"speedFactors"`
}

// CaptureStatusResponse reports the capture state and live input level
type CaptureStatusResponse struct {
	Active bool    `json:"active"`
	Level  float64 `json:"level"`
}

// SynthesisResponse describes a completed synthesis job
type SynthesisResponse struct {
	Message     string  `json:"message"`
	SampleRate  int     `json:"sampleRate"`
	DurationSec float64 `json:"durationSec"`
	Bytes       int     `json:"bytes"`
}

// HistoryResponse returns the rolling activity log, newest first
type HistoryResponse struct {
	Entries []history.Entry `json:"entries"`
}

// PrefsResponse returns the persisted preferences
type PrefsResponse struct {
	Prefs config.Prefs `json:"prefs"`
}

// ExportResponse reports where an export landed
type ExportResponse struct {
	Message string `json:"message"`
	Path    string `json:"path"`
}
