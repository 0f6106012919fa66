package websocket

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/preetsinghmakkar/mentorly/internal/dtos"
	"github.com/preetsinghmakkar/mentorly/internal/models"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSession() *models.MentorSession {
	return &models.MentorSession{
		ID:          uuid.New(),
		StudentID:   uuid.New(),
		ReviewerID:  uuid.New(),
		Status:      models.MentorSessionStatusAccepted,
		ChatEnabled: true,
	}
}

func receive(t *testing.T, c *Client) OutboundMessage {
	t.Helper()
	select {
	case msg := <-c.Send:
		out, ok := msg.(OutboundMessage)
		require.True(t, ok, "unexpected message type %T", msg)
		return out
	case <-time.After(time.Second):
		t.Fatal("no message received")
	}
	return OutboundMessage{}
}

func assertEmpty(t *testing.T, c *Client) {
	t.Helper()
	select {
	case msg := <-c.Send:
		t.Fatalf("unexpected message %v", msg)
	default:
	}
}

func TestHubRoomsAndBroadcast(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	session := newTestSession()

	student := NewClient(nil, session.ID, session.StudentID, models.PartyStudent)
	reviewer := NewClient(nil, session.ID, session.ReviewerID, models.PartyReviewer)

	room := hub.AddClient(student)
	assert.False(t, room.BothJoined())
	hub.AddClient(reviewer)
	assert.True(t, room.BothJoined())
	assert.Equal(t, 2, hub.ConnectionCount())

	msg := &models.ChatMessage{ID: uuid.New(), SessionID: session.ID, SenderID: session.StudentID, MessageType: models.ChatMessageTypeUser, Body: "hello"}
	hub.PublishMessage(session, msg)

	for _, c := range []*Client{student, reviewer} {
		out := receive(t, c)
		assert.Equal(t, TypeChatMessage, out.Type)
		payload, ok := out.Payload.(dtos.ChatMessageResponse)
		require.True(t, ok)
		assert.Equal(t, "hello", payload.Body)
	}

	hub.PublishSessionEvent(session, models.NotificationChatClosed)
	out := receive(t, reviewer)
	assert.Equal(t, TypeSessionEvent, out.Type)
	event := out.Payload.(dtos.SessionEventPayload)
	assert.Equal(t, "chat_closed", event.Event)
	assert.Equal(t, session.ID, event.SessionID)
}

func TestHubPublishWithoutRoomIsNoop(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	session := newTestSession()

	hub.PublishMessage(session, &models.ChatMessage{})
	hub.PublishSessionEvent(session, models.NotificationSessionAccepted)
	assert.Nil(t, hub.Room(session.ID))
}

func TestHubDuplicateConnectionReplacesPrevious(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	session := newTestSession()

	first := NewClient(nil, session.ID, session.StudentID, models.PartyStudent)
	second := NewClient(nil, session.ID, session.StudentID, models.PartyStudent)

	hub.AddClient(first)
	room := hub.AddClient(second)

	assert.False(t, first.IsConnected())
	assert.Same(t, second, room.ClientFor(models.PartyStudent))
	assert.Equal(t, 1, hub.ConnectionCount())

	// the stale connection's cleanup must not evict its replacement
	hub.RemoveClient(first)
	require.NotNil(t, hub.Room(session.ID))
	assert.Same(t, second, hub.Room(session.ID).ClientFor(models.PartyStudent))

	hub.RemoveClient(second)
	assert.Nil(t, hub.Room(session.ID))
	assert.Equal(t, 0, hub.ConnectionCount())
}

func TestHubNotifyReachesEveryConnectionOfUser(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	a, b := newTestSession(), newTestSession()
	b.StudentID = a.StudentID

	inA := NewClient(nil, a.ID, a.StudentID, models.PartyStudent)
	inB := NewClient(nil, b.ID, b.StudentID, models.PartyStudent)
	other := NewClient(nil, a.ID, a.ReviewerID, models.PartyReviewer)
	hub.AddClient(inA)
	hub.AddClient(inB)
	hub.AddClient(other)

	err := hub.Notify(context.Background(), models.Notification{
		ID:        uuid.New(),
		UserID:    a.StudentID,
		SessionID: a.ID,
		Event:     models.NotificationSessionAccepted,
		Message:   "accepted",
	})
	require.NoError(t, err)

	for _, c := range []*Client{inA, inB} {
		out := receive(t, c)
		assert.Equal(t, TypeNotification, out.Type)
		assert.Equal(t, "session_accepted", out.Payload.(dtos.NotificationPayload).Event)
	}
	assertEmpty(t, other)

	require.NoError(t, hub.Notify(context.Background(), models.Notification{UserID: uuid.New()}))
}

func TestClientEnqueue(t *testing.T) {
	c := NewClient(nil, uuid.New(), uuid.New(), models.PartyStudent)
	for i := 0; i < sendBufferSize; i++ {
		require.NoError(t, c.Enqueue(NewOutbound(TypePong, nil)))
	}
	assert.ErrorIs(t, c.Enqueue(NewOutbound(TypePong, nil)), ErrSendBufferFull)

	c.Close()
	c.Close()
	assert.ErrorIs(t, c.Enqueue(NewOutbound(TypePong, nil)), ErrClientClosed)
}

func TestHubShutdownClosesClients(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	session := newTestSession()
	student := NewClient(nil, session.ID, session.StudentID, models.PartyStudent)
	hub.AddClient(student)

	hub.Shutdown()

	assert.False(t, student.IsConnected())
	assert.Nil(t, hub.Room(session.ID))
	assert.Equal(t, 0, hub.ConnectionCount())
}
