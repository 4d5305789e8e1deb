package models

import "time"

// Session is one refresh-token login. Only the SHA-256 digest of the token
// handed to the client is stored.
type Session struct {
	ID        string     `db:"id"`
	UserID    string     `db:"user_id"`
	TokenHash string     `db:"token_hash"`
	ExpiresAt time.Time  `db:"expires_at"`
	CreatedAt time.Time  `db:"created_at"`
	RevokedAt *time.Time `db:"revoked_at"`
	ClientIP  string     `db:"client_ip"`
	UserAgent string     `db:"user_agent"`
}

// Usable reports whether the session can still be exchanged at now.
func (s Session) Usable(now time.Time) bool {
	return s.RevokedAt == nil && now.Before(s.ExpiresAt)
}

// ClientMeta identifies the caller in session records and audit entries.
type ClientMeta struct {
	IP        string
	UserAgent string
}
