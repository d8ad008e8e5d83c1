package domain

import "time"

// RefreshToken is the persisted record backing one outstanding renewal
// credential. Records are looked up by exact token string, so concurrent
// sessions for the same user stay independently trackable.
type RefreshToken struct {
	ID        string
	Token     string
	UserID    string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// Expired reports whether the stored expiry is in the past at now.
func (t RefreshToken) Expired(now time.Time) bool {
	return t.ExpiresAt.Before(now)
}
