package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/xpanvictor/voxa/internal/app"
	"github.com/xpanvictor/voxa/pkg/io/device"
	"github.com/xpanvictor/voxa/pkg/io/tts"
)

// respondError maps domain errors onto HTTP statuses in one place so every
// handler reports the same taxonomy.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, tts.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid input", Details: err.Error()})
	case errors.Is(err, app.ErrNoSuchDevice):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "no such device", Details: err.Error()})
	case errors.Is(err, app.ErrCaptureActive), errors.Is(err, app.ErrCaptureIdle), errors.Is(err, app.ErrNothingToPlay):
		c.JSON(http.StatusConflict, ErrorResponse{Error: err.Error()})
	case errors.Is(err, device.ErrDeviceUnavailable):
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "audio device unavailable", Details: err.Error()})
	case errors.Is(err, tts.ErrServiceUnavailable):
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "speech service unavailable", Details: err.Error()})
	case errors.Is(err, tts.ErrEncodingFailure):
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "audio encoding failed", Details: err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error", Details: err.Error()})
	}
}
