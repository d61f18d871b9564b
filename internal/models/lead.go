package models

import "time"

// Lead statuses form a flat set; transitions are not enforced server-side.
const (
	LeadStatusNew       = "new"
	LeadStatusContacted = "contacted"
	LeadStatusQualified = "qualified"
	LeadStatusConverted = "converted"
	LeadStatusLost      = "lost"
)

// Lead is a CRM lead record, optionally owned by an agent.
type Lead struct {
	ID        string    `json:"id" db:"id"`
	AgentID   *string   `json:"agent_id,omitempty" db:"agent_id"`
	Name      string    `json:"name" db:"name"`
	Email     string    `json:"email,omitempty" db:"email"`
	Phone     string    `json:"phone,omitempty" db:"phone"`
	Source    string    `json:"source,omitempty" db:"source"` // e.g. "facebook", "referral", "web"
	Status    string    `json:"status" db:"status"`
	Notes     string    `json:"notes,omitempty" db:"notes"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
