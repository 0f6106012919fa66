package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/preetsinghmakkar/mentorly/internal/middlewares"
	"github.com/preetsinghmakkar/mentorly/internal/models"
	"github.com/preetsinghmakkar/mentorly/internal/services"
	ws "github.com/preetsinghmakkar/mentorly/internal/websocket"
	"github.com/rs/zerolog"
)

const (
	readTimeout    = 60 * time.Second
	writeTimeout   = 10 * time.Second
	pingInterval   = 54 * time.Second
	requestTimeout = 5 * time.Second
	maxFrameBytes  = 16 * 1024
)

type WebSocketHandler struct {
	sessionService *services.MentorSessionService
	hub            *ws.Hub
	upgrader       websocket.Upgrader
	logger         zerolog.Logger
}

// NewWebSocketHandler builds the chat socket handler. An empty origin list
// accepts any origin.
func NewWebSocketHandler(
	sessionService *services.MentorSessionService,
	hub *ws.Hub,
	allowedOrigins []string,
	logger zerolog.Logger,
) *WebSocketHandler {
	return &WebSocketHandler{
		sessionService: sessionService,
		hub:            hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
		logger: logger.With().Str("component", "ws_handler").Logger(),
	}
}

func originChecker(allowed []string) func(r *http.Request) bool {
	if len(allowed) == 0 {
		return func(*http.Request) bool { return true }
	}
	set := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		set[o] = struct{}{}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		_, ok := set[origin]
		return ok
	}
}

// HandleWebSocket is the WebSocket endpoint handler
// MUST be protected by WebSocketAuthMiddleware
func (h *WebSocketHandler) HandleWebSocket(c *gin.Context) {
	auth, err := middlewares.GetWebSocketAuth(c)
	if err != nil {
		h.logger.Error().Err(err).Msg("Missing authentication context")
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error": "internal server error",
			"code":  CodeInternal,
		})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn().Err(err).Msg("WebSocket upgrade failed")
		return
	}

	client := ws.NewClient(conn, auth.SessionID, auth.UserID, auth.Party)
	h.hub.AddClient(client)

	h.logger.Info().
		Str("session_id", auth.SessionID.String()).
		Str("user_id", auth.UserID.String()).
		Str("party", string(auth.Party)).
		Msg("Client connected")

	go h.readPump(client)
	go h.writePump(client)
}

// readPump reads client frames and routes them through the session service.
// Chat messages reach the room through the service's publisher, never directly.
func (h *WebSocketHandler) readPump(client *ws.Client) {
	defer func() {
		h.logger.Info().
			Str("session_id", client.SessionID.String()).
			Str("user_id", client.UserID.String()).
			Msg("Client disconnected")
		h.hub.RemoveClient(client)
		client.Close()
	}()

	client.Conn.SetReadLimit(maxFrameBytes)
	client.Conn.SetReadDeadline(time.Now().Add(readTimeout))
	client.Conn.SetPongHandler(func(string) error {
		client.Conn.SetReadDeadline(time.Now().Add(readTimeout))
		return nil
	})

	for {
		var msg ws.WebSocketMessage
		if err := client.Conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.logger.Warn().Err(err).Str("session_id", client.SessionID.String()).Msg("Unexpected close")
			}
			return
		}
		h.dispatch(client, msg)
	}
}

func (h *WebSocketHandler) dispatch(client *ws.Client, msg ws.WebSocketMessage) {
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	switch msg.Type {
	case ws.TypeChatMessage:
		var payload ws.ChatMessagePayload
		if err := json.Unmarshal(msg.Payload, &payload); err != nil {
			_ = client.Enqueue(ws.NewErrorMessage(CodeBadRequest, "malformed chat_message payload"))
			return
		}
		if _, err := h.sessionService.SendMessage(ctx, client.UserID, client.SessionID, payload.Body); err != nil {
			h.sendError(client, err)
		}

	case ws.TypeMarkRead:
		updated, err := h.sessionService.MarkMessagesRead(ctx, client.UserID, client.SessionID)
		if err != nil {
			h.sendError(client, err)
			return
		}
		if room := h.hub.Room(client.SessionID); room != nil && updated > 0 {
			_ = room.SendToParty(counterpartParty(client.Party), ws.NewOutbound(ws.TypeReadReceipt, ws.ReadReceiptPayload{
				ReaderID: client.UserID.String(),
				Updated:  updated,
			}))
		}

	case ws.TypePing:
		_ = client.Enqueue(ws.NewOutbound(ws.TypePong, nil))

	default:
		_ = client.Enqueue(ws.NewErrorMessage(CodeBadRequest, "unknown message type: "+msg.Type))
	}
}

func (h *WebSocketHandler) sendError(client *ws.Client, err error) {
	_, code := ErrorStatus(err)
	if code == CodeInternal || code == CodeStoreUnavailable {
		h.logger.Error().Err(err).Str("session_id", client.SessionID.String()).Msg("Chat request failed")
	}
	_ = client.Enqueue(ws.NewErrorMessage(code, ErrorMessage(err, code)))
}

func counterpartParty(p models.Party) models.Party {
	if p == models.PartyStudent {
		return models.PartyReviewer
	}
	return models.PartyStudent
}

// writePump writes messages to the WebSocket
func (h *WebSocketHandler) writePump(client *ws.Client) {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		client.Close()
	}()

	for {
		select {
		case message := <-client.Send:
			client.Conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := client.Conn.WriteJSON(message); err != nil {
				h.logger.Warn().Err(err).Str("user_id", client.UserID.String()).Msg("Write failed")
				return
			}

		case <-ticker.C:
			client.Conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := client.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-client.Done:
			client.Conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			client.Conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}
