package app

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/preetsinghmakkar/mentorly/internal/models"
	"github.com/preetsinghmakkar/mentorly/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type frame struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

func dialSession(t *testing.T, srv *httptest.Server, user models.User, sessionID uuid.UUID) (*websocket.Conn, *http.Response, error) {
	t.Helper()
	token, err := utils.GenerateAccessToken(user.ID, testSecret, time.Hour)
	require.NoError(t, err)

	q := url.Values{}
	q.Set("token", token)
	q.Set("session_id", sessionID.String())
	u := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/ws/sessions?" + q.Encode()
	return websocket.DefaultDialer.Dial(u, nil)
}

// readUntil skips frames of other types, e.g. notifications.
func readUntil(t *testing.T, conn *websocket.Conn, msgType string) frame {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	for {
		var f frame
		require.NoError(t, conn.ReadJSON(&f))
		if f.Type == msgType {
			return f
		}
	}
}

func TestWebSocketChat(t *testing.T) {
	f := newAPIFixture(t)
	session := f.book(t)
	srv := httptest.NewServer(f.router)
	defer srv.Close()

	_, resp, err := dialSession(t, srv, f.outsider, session.ID)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	studentConn, _, err := dialSession(t, srv, f.student, session.ID)
	require.NoError(t, err)
	defer studentConn.Close()
	reviewerConn, _, err := dialSession(t, srv, f.reviewer, session.ID)
	require.NoError(t, err)
	defer reviewerConn.Close()

	// a pong proves the reviewer is registered with the hub
	require.NoError(t, reviewerConn.WriteJSON(map[string]string{"type": "ping"}))
	readUntil(t, reviewerConn, "pong")

	// chat is not open before acceptance
	require.NoError(t, studentConn.WriteJSON(map[string]interface{}{
		"type":    "chat_message",
		"payload": map[string]string{"body": "early"},
	}))
	errFrame := readUntil(t, studentConn, "error")
	var errPayload struct {
		Code string `json:"code"`
	}
	require.NoError(t, json.Unmarshal(errFrame.Payload, &errPayload))
	assert.Equal(t, "chat_closed", errPayload.Code)

	rec := f.do(t, http.MethodPost, "/api/sessions/"+session.ID.String()+"/accept", &f.reviewer, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	event := readUntil(t, studentConn, "session_event")
	assert.Contains(t, string(event.Payload), `"event":"session_accepted"`)

	require.NoError(t, studentConn.WriteJSON(map[string]interface{}{
		"type":    "chat_message",
		"payload": map[string]string{"body": "hello reviewer"},
	}))

	for {
		msg := readUntil(t, reviewerConn, "chat_message")
		if strings.Contains(string(msg.Payload), "hello reviewer") {
			break
		}
	}

	require.NoError(t, reviewerConn.WriteJSON(map[string]string{"type": "ping"}))
	readUntil(t, reviewerConn, "pong")

	require.NoError(t, reviewerConn.WriteJSON(map[string]string{"type": "mark_read"}))
	receipt := readUntil(t, studentConn, "messages_read")
	assert.Contains(t, string(receipt.Payload), f.reviewer.ID.String())
}
