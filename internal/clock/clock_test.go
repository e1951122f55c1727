package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTestClockStartsAtZero(t *testing.T) {
	c := NewTestClock()
	assert.True(t, c.Now().Unix() == 0, "test clock should start at unix zero")
}

func TestTestClockAdvance(t *testing.T) {
	c := NewTestClock()
	c.Advance(100 * time.Second)
	assert.Equal(t, int64(100), c.Now().Unix())
}

func TestSystemUTCClockReturnsUTC(t *testing.T) {
	c := NewSystemUTCClock()
	assert.Equal(t, time.UTC, c.Now().Location())
}
