package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAuthLockoutKey(t *testing.T) {
	key := NewAuthLockoutKey(" User@Example.com ", "10.0.0.1")
	assert.Equal(t, "auth_lockout:user@example.com:10.0.0.1", key.String())

	spoofed := NewAuthLockoutKey("a:10.0.0.1", "x")
	assert.NotEqual(t, NewAuthLockoutKey("a", "10.0.0.1:x").String(), spoofed.String())
}

func TestAuthLockoutWindow(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	record := &AuthLockout{FailureCount: 5, WindowEnd: now.Add(time.Minute)}

	assert.True(t, record.IsLockedAt(now, 5))
	assert.False(t, record.IsLockedAt(now, 6))
	assert.Equal(t, 1, record.RemainingAttempts(now, 6))
	assert.False(t, record.IsLockedAt(now.Add(2*time.Minute), 5))
	assert.Equal(t, 5, record.RemainingAttempts(now.Add(2*time.Minute), 5))

	var missing *AuthLockout
	assert.False(t, missing.IsLockedAt(now, 1))
}
