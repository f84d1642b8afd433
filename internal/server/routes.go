// Package server registers the HTTP and websocket surface over the app core.
package server

import (
	"github.com/gin-gonic/gin"
	"github.com/xpanvictor/voxa/internal/app"
	"github.com/xpanvictor/voxa/internal/handlers"
	"github.com/xpanvictor/voxa/pkg/Logger"
)

// InitializeRoutes mounts every endpoint on the engine.
func InitializeRoutes(r *gin.Engine, a *app.App, logger *Logger.Logger) {
	r.GET("/", func(ctx *gin.Context) { ctx.JSON(200, gin.H{"message": "Server healthy"}) })
	r.GET("/health", func(ctx *gin.Context) { ctx.JSON(200, gin.H{"status": "ok"}) })

	voice := handlers.NewVoiceHandler(a, logger)
	stream := handlers.NewStreamHandler(a, logger)

	v1 := r.Group("/api/v1")
	{
		v1.GET("/devices", voice.ListDevices)
		v1.GET("/languages", voice.ListLanguages)

		capture := v1.Group("/capture")
		{
			capture.POST("/start", voice.StartCapture)
			capture.POST("/stop", voice.StopCapture)
			capture.GET("/status", voice.CaptureStatus)
			capture.GET("/stream", stream.CaptureStream)
		}

		tts := v1.Group("/tts")
		{
			tts.POST("", voice.Synthesize)
			tts.POST("/play", voice.Play)
			tts.POST("/stop", voice.StopPlayback)
		}

		export := v1.Group("/export")
		{
			export.POST("/audio", voice.ExportAudio)
			export.POST("/texts", voice.ExportTexts)
		}

		v1.GET("/history", voice.History)
		v1.GET("/prefs", voice.GetPrefs)
		v1.PUT("/prefs", voice.UpdatePrefs)
	}
}
