package middlewares

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/preetsinghmakkar/mentorly/internal/models"
	"github.com/preetsinghmakkar/mentorly/internal/services"
	"github.com/preetsinghmakkar/mentorly/internal/utils"
	"github.com/rs/zerolog"
)

type wsAuthKey struct{}

// WebSocketAuthContext holds authenticated WebSocket connection data
type WebSocketAuthContext struct {
	UserID    uuid.UUID
	SessionID uuid.UUID
	Party     models.Party
	Session   *models.MentorSession
}

// SessionReader loads a session on behalf of a caller, enforcing party access.
type SessionReader interface {
	GetSession(ctx context.Context, callerID, sessionID uuid.UUID) (*services.SessionView, error)
}

// WebSocketAuthMiddleware authenticates WebSocket connections.
// Browsers cannot set headers on an upgrade request, so the token travels in
// the query string. The party is derived from the stored session.
// Must be used BEFORE WebSocket upgrade.
func WebSocketAuthMiddleware(jwtSecret string, sessions SessionReader, logger zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.Query("token")
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "authentication required",
				"code":  "unauthenticated",
			})
			return
		}

		claims, err := utils.ParseAccessToken(token, jwtSecret)
		if err != nil {
			logger.Warn().Err(err).Msg("WebSocket token rejected")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "invalid or expired token",
				"code":  "unauthenticated",
			})
			return
		}

		sessionID, err := uuid.Parse(c.Query("session_id"))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"error": "valid session_id required",
				"code":  "bad_request",
			})
			return
		}

		view, err := sessions.GetSession(c.Request.Context(), claims.UserID, sessionID)
		if err != nil {
			status, code := http.StatusInternalServerError, "internal_error"
			switch {
			case errors.Is(err, services.ErrUnauthorized):
				status, code = http.StatusForbidden, "unauthorized"
			case errors.Is(err, services.ErrNotFound):
				status, code = http.StatusNotFound, "not_found"
			case errors.Is(err, services.ErrStoreUnavailable):
				status, code = http.StatusServiceUnavailable, "store_unavailable"
			}
			logger.Warn().Err(err).
				Str("user_id", claims.UserID.String()).
				Str("session_id", sessionID.String()).
				Msg("WebSocket session access denied")
			c.AbortWithStatusJSON(status, gin.H{"error": "cannot join session", "code": code})
			return
		}

		authCtx := &WebSocketAuthContext{
			UserID:    claims.UserID,
			SessionID: sessionID,
			Party:     view.Party,
			Session:   view.Session,
		}
		c.Set(userIDKey, claims.UserID)
		c.Request = c.Request.WithContext(context.WithValue(c.Request.Context(), wsAuthKey{}, authCtx))

		c.Next()
	}
}

// GetWebSocketAuth retrieves authentication context from request
func GetWebSocketAuth(c *gin.Context) (*WebSocketAuthContext, error) {
	val := c.Request.Context().Value(wsAuthKey{})
	if val == nil {
		return nil, errors.New("websocket authentication context not found")
	}

	auth, ok := val.(*WebSocketAuthContext)
	if !ok {
		return nil, errors.New("invalid websocket authentication context type")
	}

	return auth, nil
}
