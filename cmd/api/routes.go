package main

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (app *application) routes() http.Handler {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(app.requestLogger())
	r.Use(app.corsMiddleware())

	r.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	api := r.Group("/api")
	{
		api.POST("/invitations", app.Handler.CreateInvitation)
		api.GET("/invitations/:id", app.Handler.GetInvitation)

		api.POST("/sessions/start", app.Handler.StartSession)
		api.GET("/sessions/completed", app.Handler.ListCompletedSessions)
		api.POST("/sessions/:id/answer", app.Handler.RecordAnswer)
		api.PUT("/sessions/:id/answers/:answer_id", app.Handler.UpdateTranscript)
		api.POST("/sessions/:id/finish", app.Handler.FinishSession)
		api.POST("/sessions/:id/evaluate", app.Handler.EvaluateSession)
		api.POST("/sessions/:id/re-evaluate", app.Handler.ReEvaluateSession)
		api.GET("/sessions/:id/summary", app.Handler.SessionSummary)
	}

	return r
}
