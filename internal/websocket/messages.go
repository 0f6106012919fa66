package websocket

import (
	"encoding/json"
)

// Inbound message types
const (
	TypeChatMessage = "chat_message"
	TypeMarkRead    = "mark_read"
	TypePing        = "ping"
)

// Outbound message types. chat_message is shared with inbound.
const (
	TypeSessionEvent = "session_event"
	TypeNotification = "notification"
	TypeError        = "error"
	TypePong         = "pong"
	TypeReadReceipt  = "messages_read"
)

// WebSocketMessage is the standard envelope for inbound messages
type WebSocketMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// OutboundMessage is the envelope written to clients
type OutboundMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// ChatMessagePayload is sent by a client to post into the session chat
type ChatMessagePayload struct {
	Body string `json:"body"`
}

// ErrorPayload carries the same machine-readable codes as the HTTP API
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ReadReceiptPayload tells the counterpart their messages were read
type ReadReceiptPayload struct {
	ReaderID string `json:"reader_id"`
	Updated  int64  `json:"updated"`
}

// NewOutbound wraps a payload in an envelope
func NewOutbound(msgType string, payload interface{}) OutboundMessage {
	if payload == nil {
		payload = struct{}{}
	}
	return OutboundMessage{Type: msgType, Payload: payload}
}

func NewErrorMessage(code, message string) OutboundMessage {
	return NewOutbound(TypeError, ErrorPayload{Code: code, Message: message})
}
