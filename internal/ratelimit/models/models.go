package models

import "time"

// AuthLockout is the failure counter for one lockout key. The window opens at
// the first failure and closes at WindowEnd.
type AuthLockout struct {
	Identifier   string
	FailureCount int
	WindowEnd    time.Time
}

// ActiveAt reports whether the window is still open at now.
func (l *AuthLockout) ActiveAt(now time.Time) bool {
	return l != nil && now.Before(l.WindowEnd)
}

// IsLockedAt reports whether attempts have been exhausted inside an open window.
func (l *AuthLockout) IsLockedAt(now time.Time, attempts int) bool {
	return l.ActiveAt(now) && l.FailureCount >= attempts
}

// RemainingAttempts before the lock engages.
func (l *AuthLockout) RemainingAttempts(now time.Time, attempts int) int {
	if !l.ActiveAt(now) {
		return attempts
	}
	return max(attempts-l.FailureCount, 0)
}

// AuthLockoutResult is the outcome of a pre-login check.
type AuthLockoutResult struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration
}
