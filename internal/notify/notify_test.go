package notify

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/preetsinghmakkar/mentorly/internal/models"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	got []models.Notification
	err error
}

func (r *recorder) Notify(_ context.Context, n models.Notification) error {
	r.got = append(r.got, n)
	return r.err
}

func TestMultiDeliversToAllSinks(t *testing.T) {
	errDown := errors.New("down")
	first := &recorder{err: errDown}
	second := &recorder{}

	n := models.Notification{UserID: uuid.New(), Event: models.NotificationSessionBooked}
	err := Multi{first, nil, second}.Notify(context.Background(), n)

	require.Error(t, err)
	assert.ErrorIs(t, err, errDown)
	assert.Len(t, first.got, 1)
	assert.Len(t, second.got, 1)
}

func TestMultiEmpty(t *testing.T) {
	assert.NoError(t, Multi{}.Notify(context.Background(), models.Notification{}))
}

func TestLogNotifier(t *testing.T) {
	var buf bytes.Buffer
	l := Log{Logger: zerolog.New(&buf)}

	err := l.Notify(context.Background(), models.Notification{
		UserID:  uuid.New(),
		Event:   models.NotificationChatClosed,
		Message: "chat closed",
	})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), `"event":"chat_closed"`)
	assert.Contains(t, buf.String(), "chat closed")
}
