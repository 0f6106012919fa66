package websocket

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/preetsinghmakkar/mentorly/internal/dtos"
	"github.com/preetsinghmakkar/mentorly/internal/models"
	"github.com/rs/zerolog"
)

const sendBufferSize = 256

// Client represents a WebSocket client
type Client struct {
	ID        uuid.UUID
	SessionID uuid.UUID
	UserID    uuid.UUID
	Party     models.Party // derived from the session, never from the client
	Conn      *websocket.Conn
	Send      chan interface{}
	Done      chan struct{}

	closeOnce sync.Once
}

// NewClient creates a client for an authenticated party of a session
func NewClient(conn *websocket.Conn, sessionID, userID uuid.UUID, party models.Party) *Client {
	return &Client{
		ID:        uuid.New(),
		SessionID: sessionID,
		UserID:    userID,
		Party:     party,
		Conn:      conn,
		Send:      make(chan interface{}, sendBufferSize),
		Done:      make(chan struct{}),
	}
}

// Enqueue queues a message without blocking
func (c *Client) Enqueue(message interface{}) error {
	if !c.IsConnected() {
		return ErrClientClosed
	}
	select {
	case c.Send <- message:
		return nil
	default:
		return ErrSendBufferFull
	}
}

// Close closes the client connection. Safe to call more than once.
// Send is left open so concurrent publishers never write to a closed channel.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		close(c.Done)
		if c.Conn != nil {
			c.Conn.Close()
		}
	})
}

// IsConnected checks if client is still connected
func (c *Client) IsConnected() bool {
	select {
	case <-c.Done:
		return false
	default:
		return true
	}
}

// Room holds the live connections of one mentor session
type Room struct {
	SessionID uuid.UUID
	Student   *Client
	Reviewer  *Client
	mu        sync.RWMutex
}

func (r *Room) clients() []*Client {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Client, 0, 2)
	if r.Student != nil {
		out = append(out, r.Student)
	}
	if r.Reviewer != nil {
		out = append(out, r.Reviewer)
	}
	return out
}

func (r *Room) empty() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.Student == nil && r.Reviewer == nil
}

// BothJoined checks if both parties are connected
func (r *Room) BothJoined() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.Student != nil && r.Reviewer != nil
}

// ClientFor returns the connection of the given party
func (r *Room) ClientFor(party models.Party) *Client {
	r.mu.RLock()
	defer r.mu.RUnlock()

	switch party {
	case models.PartyStudent:
		return r.Student
	case models.PartyReviewer:
		return r.Reviewer
	}
	return nil
}

// Broadcast sends a message to both parties. Slow clients drop the message.
func (r *Room) Broadcast(message interface{}) {
	for _, c := range r.clients() {
		_ = c.Enqueue(message)
	}
}

// SendToParty sends a message to one party
func (r *Room) SendToParty(party models.Party, message interface{}) error {
	client := r.ClientFor(party)
	if client == nil {
		return ErrRoomNotFound
	}
	return client.Enqueue(message)
}

// Hub manages all active WebSocket connections, one room per mentor session.
// It doubles as the service's realtime publisher and live notifier.
type Hub struct {
	mu     sync.RWMutex
	rooms  map[uuid.UUID]*Room
	users  map[uuid.UUID]map[*Client]struct{}
	logger zerolog.Logger
}

// NewHub creates a new WebSocket hub
func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{
		rooms:  make(map[uuid.UUID]*Room),
		users:  make(map[uuid.UUID]map[*Client]struct{}),
		logger: logger.With().Str("component", "ws_hub").Logger(),
	}
}

// AddClient adds a client to its session room.
// A previous connection of the same party is closed.
func (h *Hub) AddClient(client *Client) *Room {
	h.mu.Lock()
	defer h.mu.Unlock()

	room, exists := h.rooms[client.SessionID]
	if !exists {
		room = &Room{SessionID: client.SessionID}
		h.rooms[client.SessionID] = room
	}

	room.mu.Lock()
	var previous *Client
	switch client.Party {
	case models.PartyStudent:
		previous = room.Student
		room.Student = client
	case models.PartyReviewer:
		previous = room.Reviewer
		room.Reviewer = client
	}
	room.mu.Unlock()

	if previous != nil && previous != client {
		h.logger.Info().
			Str("session_id", client.SessionID.String()).
			Str("party", string(client.Party)).
			Msg("Closing duplicate connection")
		h.forget(previous)
		previous.Close()
	}

	if h.users[client.UserID] == nil {
		h.users[client.UserID] = make(map[*Client]struct{})
	}
	h.users[client.UserID][client] = struct{}{}

	return room
}

// RemoveClient removes a client from its room. A newer connection that
// already replaced it is left in place.
func (h *Hub) RemoveClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.forget(client)

	room, exists := h.rooms[client.SessionID]
	if !exists {
		return
	}

	room.mu.Lock()
	if room.Student == client {
		room.Student = nil
	}
	if room.Reviewer == client {
		room.Reviewer = nil
	}
	room.mu.Unlock()

	if room.empty() {
		delete(h.rooms, client.SessionID)
	}
}

// forget drops a client from the user index. Caller holds h.mu.
func (h *Hub) forget(client *Client) {
	conns := h.users[client.UserID]
	delete(conns, client)
	if len(conns) == 0 {
		delete(h.users, client.UserID)
	}
}

// Room gets a room by session ID
func (h *Hub) Room(sessionID uuid.UUID) *Room {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return h.rooms[sessionID]
}

// PublishMessage broadcasts a persisted chat message to the session room
func (h *Hub) PublishMessage(session *models.MentorSession, msg *models.ChatMessage) {
	room := h.Room(session.ID)
	if room == nil {
		return
	}
	room.Broadcast(NewOutbound(TypeChatMessage, dtos.NewChatMessageResponse(msg)))
}

// PublishSessionEvent broadcasts a lifecycle change to the session room
func (h *Hub) PublishSessionEvent(session *models.MentorSession, event models.NotificationEvent) {
	room := h.Room(session.ID)
	if room == nil {
		return
	}
	room.Broadcast(NewOutbound(TypeSessionEvent, dtos.SessionEventPayload{
		SessionID:     session.ID,
		Event:         string(event),
		Status:        string(session.Status),
		ChatEnabled:   session.ChatEnabled,
		ChatExpiresAt: session.ChatExpiresAt,
	}))
}

// Notify pushes a notification to every live connection of the user.
// Users without a connection are skipped; persistence is another notifier's job.
func (h *Hub) Notify(_ context.Context, n models.Notification) error {
	h.mu.RLock()
	conns := make([]*Client, 0, len(h.users[n.UserID]))
	for c := range h.users[n.UserID] {
		conns = append(conns, c)
	}
	h.mu.RUnlock()

	msg := NewOutbound(TypeNotification, dtos.NotificationPayload{
		ID:        n.ID,
		SessionID: n.SessionID,
		Event:     string(n.Event),
		Message:   n.Message,
		CreatedAt: n.CreatedAt,
	})
	for _, c := range conns {
		if err := c.Enqueue(msg); err != nil {
			h.logger.Warn().Err(err).Str("user_id", n.UserID.String()).Msg("Dropped live notification")
		}
	}
	return nil
}

// ConnectionCount reports how many clients are connected
func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	n := 0
	for _, conns := range h.users {
		n += len(conns)
	}
	return n
}

// Shutdown closes every connection
func (h *Hub) Shutdown() {
	h.mu.Lock()
	rooms := h.rooms
	h.rooms = make(map[uuid.UUID]*Room)
	h.users = make(map[uuid.UUID]map[*Client]struct{})
	h.mu.Unlock()

	for _, room := range rooms {
		for _, c := range room.clients() {
			c.Close()
		}
	}
}
