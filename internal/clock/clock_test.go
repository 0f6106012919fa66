package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMockAdvance(t *testing.T) {
	start := time.Date(2026, 3, 1, 9, 0, 0, 0, time.FixedZone("X", 3600))
	m := NewMock(start)

	assert.Equal(t, time.UTC, m.Now().Location())
	assert.True(t, m.Now().Equal(start))

	m.Advance(90 * time.Minute)
	assert.True(t, m.Now().Equal(start.Add(90*time.Minute)))

	m.Set(start)
	assert.True(t, m.Now().Equal(start))
}

func TestSystemIsUTC(t *testing.T) {
	assert.Equal(t, time.UTC, System{}.Now().Location())
}
