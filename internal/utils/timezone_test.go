package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionWindow(t *testing.T) {
	tests := []struct {
		name      string
		date      string
		tod       string
		tz        string
		duration  int
		wantStart time.Time
		wantErr   error
	}{
		{
			name:      "new york winter",
			date:      "2026-01-15",
			tod:       "10:00",
			tz:        "America/New_York",
			duration:  60,
			wantStart: time.Date(2026, 1, 15, 15, 0, 0, 0, time.UTC),
		},
		{
			name:      "new york summer",
			date:      "2026-07-15",
			tod:       "10:00",
			tz:        "America/New_York",
			duration:  30,
			wantStart: time.Date(2026, 7, 15, 14, 0, 0, 0, time.UTC),
		},
		{
			name:      "kolkata half hour offset",
			date:      "2026-03-01",
			tod:       "09:30",
			tz:        "Asia/Kolkata",
			duration:  120,
			wantStart: time.Date(2026, 3, 1, 4, 0, 0, 0, time.UTC),
		},
		{name: "bad zone", date: "2026-03-01", tod: "09:30", tz: "Mars/Olympus", wantErr: ErrInvalidTimezone},
		{name: "empty zone", date: "2026-03-01", tod: "09:30", tz: "", wantErr: ErrInvalidTimezone},
		{name: "bad date", date: "01/03/2026", tod: "09:30", tz: "UTC", wantErr: ErrInvalidDate},
		{name: "bad time", date: "2026-03-01", tod: "9am", tz: "UTC", wantErr: ErrInvalidTime},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end, err := SessionWindow(tt.date, tt.tod, tt.tz, tt.duration)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.True(t, start.Equal(tt.wantStart), "start = %v", start)
			assert.Equal(t, time.Duration(tt.duration)*time.Minute, end.Sub(start))
			assert.Equal(t, time.UTC, start.Location())
		})
	}
}

func TestTodayIn(t *testing.T) {
	// 03:00 UTC is still the previous evening in New York.
	now := time.Date(2026, 5, 10, 3, 0, 0, 0, time.UTC)

	got, err := TodayIn(now, "America/New_York")
	require.NoError(t, err)
	assert.Equal(t, "2026-05-09", got)

	got, err = TodayIn(now, "Asia/Tokyo")
	require.NoError(t, err)
	assert.Equal(t, "2026-05-10", got)
}

func TestDateBefore(t *testing.T) {
	before, err := DateBefore("2026-05-09", "2026-05-10")
	require.NoError(t, err)
	assert.True(t, before)

	before, err = DateBefore("2026-05-10", "2026-05-10")
	require.NoError(t, err)
	assert.False(t, before)

	_, err = DateBefore("yesterday", "2026-05-10")
	assert.ErrorIs(t, err, ErrInvalidDate)
}

func TestFormatTimeInTimezone(t *testing.T) {
	ts := time.Date(2026, 1, 15, 15, 0, 0, 0, time.UTC)
	got, err := FormatTimeInTimezone(ts, "America/New_York")
	require.NoError(t, err)
	assert.Equal(t, "Thu, 15 Jan 2026 10:00 EST", got)

	_, err = FormatTimeInTimezone(ts, "nowhere")
	assert.ErrorIs(t, err, ErrInvalidTimezone)
}
