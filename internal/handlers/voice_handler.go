package handlers

import (
	"net/http"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/xpanvictor/voxa/internal/app"
	"github.com/xpanvictor/voxa/internal/config"
	"github.com/xpanvictor/voxa/pkg/Logger"
	"github.com/xpanvictor/voxa/pkg/io/tts"
)

// VoiceHandler is the HTTP surface over the capture and synthesis core.
type VoiceHandler struct {
	app    *app.App
	logger *Logger.Logger
}

func NewVoiceHandler(a *app.App, logger *Logger.Logger) *VoiceHandler {
	return &VoiceHandler{app: a, logger: logger}
}

// ListDevices returns every capture device passing the capability probe.
func (h *VoiceHandler) ListDevices(c *gin.Context) {
	c.JSON(http.StatusOK, DevicesResponse{Devices: h.app.ListDevices()})
}

// ListLanguages returns the language and speed tables the indexes refer to.
func (h *VoiceHandler) ListLanguages(c *gin.Context) {
	c.JSON(http.StatusOK, LanguagesResponse{
		Languages:    config.Languages,
		SpeedFactors: config.SpeedFactors,
	})
}

type startCaptureRequest struct {
	DeviceIndex   *int `json:"deviceIndex"`
	LanguageIndex *int `json:"languageIndex"`
}

// StartCapture opens the microphone and begins segmenting and recognizing.
// Omitted fields fall back to the persisted preferences.
func (h *VoiceHandler) StartCapture(c *gin.Context) {
	var req startCaptureRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request data", Details: err.Error()})
		return
	}

	prefs := h.app.Prefs()
	deviceIndex := prefs.MicIndex
	if req.DeviceIndex != nil {
		deviceIndex = *req.DeviceIndex
	}
	langIndex := prefs.STTLangIndex
	if req.LanguageIndex != nil {
		if *req.LanguageIndex < 0 || *req.LanguageIndex >= len(config.Languages) {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "language index out of range"})
			return
		}
		langIndex = *req.LanguageIndex
	}

	if err := h.app.StartCapture(deviceIndex, config.Languages[langIndex].STT); err != nil {
		respondError(c, err)
		return
	}

	err := h.app.SetPrefs(func(p *config.Prefs) {
		p.MicIndex = deviceIndex
		p.STTLangIndex = langIndex
	})
	if err != nil {
		h.logger.Warnf("failed to persist preferences: %v", err)
	}
	c.JSON(http.StatusOK, SuccessResponse{Message: "capture started"})
}

// StopCapture ends the capture session.
func (h *VoiceHandler) StopCapture(c *gin.Context) {
	if err := h.app.StopCapture(); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Message: "capture stopped"})
}

// CaptureStatus reports whether capture is running and the current level.
func (h *VoiceHandler) CaptureStatus(c *gin.Context) {
	c.JSON(http.StatusOK, CaptureStatusResponse{
		Active: h.app.CaptureActive(),
		Level:  h.app.Level(),
	})
}

type synthesizeRequest struct {
	Text          string   `json:"text"`
	LanguageIndex *int     `json:"languageIndex"`
	Speed         *float64 `json:"speed"`
	Volume        *float64 `json:"volume"`
}

// Synthesize runs the synthesis pipeline; the result becomes the current
// playable audio for the play and export endpoints.
func (h *VoiceHandler) Synthesize(c *gin.Context) {
	var req synthesizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request data", Details: err.Error()})
		return
	}

	prefs := h.app.Prefs()
	langIndex := prefs.TTSLangIndex
	if req.LanguageIndex != nil {
		if *req.LanguageIndex < 0 || *req.LanguageIndex >= len(config.Languages) {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "language index out of range"})
			return
		}
		langIndex = *req.LanguageIndex
	}
	speed := prefs.SpeedFactor()
	if req.Speed != nil {
		speed = *req.Speed
	}
	volume := 1.0
	if req.Volume != nil {
		volume = *req.Volume
	}

	res, err := h.app.Synthesize(c.Request.Context(), tts.Request{
		Text:     req.Text,
		Language: config.Languages[langIndex].TTS,
		Speed:    speed,
		Volume:   volume,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	err = h.app.SetPrefs(func(p *config.Prefs) {
		p.TTSLangIndex = langIndex
	})
	if err != nil {
		h.logger.Warnf("failed to persist preferences: %v", err)
	}

	duration := time.Duration(len(res.PCM)/2) * time.Second / time.Duration(res.SampleRate)
	c.JSON(http.StatusOK, SynthesisResponse{
		Message:     "synthesis complete",
		SampleRate:  res.SampleRate,
		DurationSec: duration.Seconds(),
		Bytes:       len(res.PCM),
	})
}

// Play plays the most recent synthesis result on the default output device.
func (h *VoiceHandler) Play(c *gin.Context) {
	if err := h.app.PlayLast(); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Message: "playback started"})
}

// StopPlayback cancels playback in progress.
func (h *VoiceHandler) StopPlayback(c *gin.Context) {
	h.app.StopPlayback()
	c.JSON(http.StatusOK, SuccessResponse{Message: "playback stopped"})
}

// History returns the rolling activity log, newest first.
func (h *VoiceHandler) History(c *gin.Context) {
	c.JSON(http.StatusOK, HistoryResponse{Entries: h.app.History.Entries()})
}

type exportRequest struct {
	Path string `json:"path"`
}

// ExportAudio writes the most recent synthesis result to disk. An empty path
// defaults into the remembered save directory.
func (h *VoiceHandler) ExportAudio(c *gin.Context) {
	var req exportRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request data", Details: err.Error()})
		return
	}
	path := req.Path
	if path == "" {
		path = filepath.Join(h.app.Prefs().LastSaveDir, "output.mp3")
	}
	if err := h.app.ExportAudio(path); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, ExportResponse{Message: "audio exported", Path: path})
}

// ExportTexts writes the sectioned transcript file.
func (h *VoiceHandler) ExportTexts(c *gin.Context) {
	var req exportRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request data", Details: err.Error()})
		return
	}
	path := req.Path
	if path == "" {
		path = filepath.Join(h.app.Prefs().LastSaveDir, "result.txt")
	}
	if err := h.app.ExportTexts(path); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, ExportResponse{Message: "texts exported", Path: path})
}

// GetPrefs returns the persisted preferences.
func (h *VoiceHandler) GetPrefs(c *gin.Context) {
	c.JSON(http.StatusOK, PrefsResponse{Prefs: h.app.Prefs()})
}

// UpdatePrefs replaces the preferences and persists them. Out-of-range
// values are clamped, not rejected.
func (h *VoiceHandler) UpdatePrefs(c *gin.Context) {
	var prefs config.Prefs
	if err := c.ShouldBindJSON(&prefs); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request data", Details: err.Error()})
		return
	}
	if err := h.app.SetPrefs(func(p *config.Prefs) { *p = prefs }); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, PrefsResponse{Prefs: h.app.Prefs()})
}
