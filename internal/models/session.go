package models

import "time"

// Session represents one authenticated client session. A session is revocable
// server-side independent of token expiry.
type Session struct {
	ID           string     `json:"id" db:"id"`
	AgentID      string     `json:"agent_id" db:"agent_id"`
	IPAddress    string     `json:"ip_address,omitempty" db:"ip_address"`
	UserAgent    string     `json:"user_agent,omitempty" db:"user_agent"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
	LastActivity time.Time  `json:"last_activity" db:"last_activity"`
	ExpiresAt    time.Time  `json:"expires_at" db:"expires_at"`
	IsActive     bool       `json:"is_active" db:"is_active"`
	EndedAt      *time.Time `json:"ended_at,omitempty" db:"ended_at"`
}

// IsExpired returns true if the session is past its absolute expiry.
func (s *Session) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}

// IsValid returns true if the session is active and not expired.
func (s *Session) IsValid() bool {
	return s.IsActive && !s.IsExpired()
}
