package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/xpanvictor/voxa/internal/app"
	"github.com/xpanvictor/voxa/pkg/Logger"
	"github.com/xpanvictor/voxa/pkg/io/stt"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true }, // dev-only
}

// levelInterval paces the VU meter frames pushed to stream clients.
const levelInterval = 100 * time.Millisecond

// StreamMessage is the frame shape pushed over the capture stream socket.
type StreamMessage struct {
	Type    string       `json:"type"` // "level" or "outcome"
	Level   float64      `json:"level,omitempty"`
	Outcome *stt.Outcome `json:"outcome,omitempty"`
}

// StreamHandler pushes live capture telemetry over a websocket: recognition
// outcomes as they complete, plus the input level at a fixed cadence.
type StreamHandler struct {
	app    *app.App
	logger *Logger.Logger
}

func NewStreamHandler(a *app.App, logger *Logger.Logger) *StreamHandler {
	return &StreamHandler{app: a, logger: logger}
}

// CaptureStream upgrades the connection and streams until the client leaves.
// A slow client misses outcomes rather than slowing capture down.
func (h *StreamHandler) CaptureStream(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Errorf("websocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	outcomes, cancel := h.app.WatchOutcomes()
	defer cancel()

	// reader goroutine: the client sends nothing meaningful, but reads are
	// how the close handshake surfaces
	clientGone := make(chan struct{})
	go func() {
		defer close(clientGone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(levelInterval)
	defer ticker.Stop()

	for {
		select {
		case <-clientGone:
			return
		case outcome := <-outcomes:
			if err := conn.WriteJSON(StreamMessage{Type: "outcome", Outcome: &outcome}); err != nil {
				h.logger.Debugf("stream write failed: %v", err)
				return
			}
		case <-ticker.C:
			if err := conn.WriteJSON(StreamMessage{Type: "level", Level: h.app.Level()}); err != nil {
				h.logger.Debugf("stream write failed: %v", err)
				return
			}
		}
	}
}
