package time

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestClockMovesForward(t *testing.T) {
	c := NewClock()

	first := c.Elapsed()
	time.Sleep(5 * time.Millisecond)
	second := c.Elapsed()

	assert.Greater(t, second, first)
	assert.GreaterOrEqual(t, c.Since(first), 5*time.Millisecond)
}

func TestSinceFutureMarkIsZero(t *testing.T) {
	c := NewClock()
	assert.Equal(t, time.Duration(0), c.Since(time.Hour))
}
