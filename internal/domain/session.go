package domain

import (
	"errors"
	"time"
)

var (
	ErrSessionInvalid = errors.New("invalid or expired session")
	ErrRoleMismatch   = errors.New("session role mismatch")
)

// Session represents one login. A user may hold any number of concurrent
// sessions. Once Expired is set the session is terminal; tokens are never
// reused or resurrected.
type Session struct {
	Token        string    `json:"token"`
	UserID       string    `json:"user_id"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	LastActivity time.Time `json:"last_activity"`
	Expired      bool      `json:"expired"`
}

// IdleSince reports how long the session has been idle at the given instant.
func (s *Session) IdleSince(now time.Time) time.Duration {
	return now.Sub(s.LastActivity)
}
