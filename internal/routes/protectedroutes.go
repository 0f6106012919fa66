package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/preetsinghmakkar/mentorly/internal/handlers"
	"github.com/preetsinghmakkar/mentorly/internal/middlewares"
)

func RegisterProtectedEndpoints(
	router *gin.Engine,
	sessionHandler *handlers.MentorSessionHandler,
	jwtSecret string,
) {
	protected := router.Group("/api")
	protected.Use(middlewares.AuthMiddleware(jwtSecret))

	protected.POST("/sessions", sessionHandler.Book)
	protected.GET("/sessions/student", sessionHandler.ListForStudent)
	protected.GET("/sessions/reviewer", sessionHandler.ListForReviewer)

	protected.GET("/sessions/:id", sessionHandler.Get)
	protected.POST("/sessions/:id/accept", sessionHandler.Accept)
	protected.POST("/sessions/:id/reject", sessionHandler.Reject)
	protected.POST("/sessions/:id/end-chat", sessionHandler.EndChat)

	protected.GET("/sessions/:id/messages", sessionHandler.ListMessages)
	protected.POST("/sessions/:id/messages", sessionHandler.SendMessage)
	protected.POST("/sessions/:id/messages/read", sessionHandler.MarkRead)

	protected.GET("/sessions/:id/report", sessionHandler.GetReport)
	protected.POST("/sessions/:id/report", sessionHandler.SubmitReport)
}
