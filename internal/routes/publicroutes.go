package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/preetsinghmakkar/mentorly/internal/handlers"
	"github.com/preetsinghmakkar/mentorly/internal/middlewares"
	"github.com/rs/zerolog"
)

func RegisterPublicEndpoints(
	router *gin.Engine,
	healthHandler *handlers.HealthHandler,
	webSocketHandler *handlers.WebSocketHandler,
	sessions middlewares.SessionReader,
	jwtSecret string,
	logger zerolog.Logger,
) {
	router.GET("/health", healthHandler.Health)

	public := router.Group("/api")

	// Token comes from the query string; the middleware derives the party from the session
	wsAuth := middlewares.WebSocketAuthMiddleware(jwtSecret, sessions, logger)
	public.GET("/ws/sessions", wsAuth, webSocketHandler.HandleWebSocket)
}
