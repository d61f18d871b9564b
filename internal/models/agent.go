package models

import "time"

// Agent represents a login-capable identity (sales agent, admin, or read-only user).
type Agent struct {
	ID               string     `json:"id" db:"id"`
	AgentCode        string     `json:"agent_id" db:"agent_code"` // login identifier, e.g. "AG-1042"
	Email            string     `json:"email" db:"email"`
	PasswordHash     string     `json:"-" db:"password_hash"`
	FullName         string     `json:"full_name" db:"full_name"`
	Role             string     `json:"role" db:"role"` // admin | super_agent | agent | user
	IsActive         bool       `json:"is_active" db:"is_active"`
	FailedLoginCount int        `json:"-" db:"failed_login_count"`
	LockedUntil      *time.Time `json:"-" db:"locked_until"`
	LastLogin        *time.Time `json:"last_login,omitempty" db:"last_login"`
	CreatedAt        time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at" db:"updated_at"`
}

// IsLocked returns true if the agent is currently locked out.
func (a *Agent) IsLocked() bool {
	if a.LockedUntil == nil {
		return false
	}
	return time.Now().Before(*a.LockedUntil)
}
