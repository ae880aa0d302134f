package server

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRateLimiterBlockExpiry(t *testing.T) {
	rl := NewRateLimiter(25 * time.Millisecond)

	rl.BlockIP("203.0.113.9")
	assert.True(t, rl.IsBlocked("203.0.113.9"))
	assert.False(t, rl.IsBlocked("203.0.113.10"))

	time.Sleep(50 * time.Millisecond)
	assert.False(t, rl.IsBlocked("203.0.113.9"))
}
