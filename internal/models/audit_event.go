package models

import "time"

// Audit event actions recorded by the auth and CRM surfaces.
const (
	ActionLoginFailed     = "login_failed"
	ActionLoginSuccessful = "login_successful"
	ActionLogout          = "logout"
	ActionAgentCreated    = "agent_created"
	ActionAgentUpdated    = "agent_updated"
	ActionLeadCreated     = "lead_created"
	ActionLeadUpdated     = "lead_updated"
	ActionLeadDeleted     = "lead_deleted"
	ActionCampaignCreated = "campaign_created"
	ActionCampaignUpdated = "campaign_updated"
)

// AuditEvent is an append-only record of a security-relevant action.
// AgentID is nil for pre-authentication failures (unknown login identifier).
type AuditEvent struct {
	ID        string    `json:"id" db:"id"`
	AgentID   *string   `json:"agent_id,omitempty" db:"agent_id"`
	Action    string    `json:"action" db:"action"`
	Details   string    `json:"details,omitempty" db:"details"` // JSON payload
	IPAddress string    `json:"ip_address" db:"ip_address"`
	UserAgent string    `json:"user_agent,omitempty" db:"user_agent"`
	Timestamp time.Time `json:"timestamp" db:"timestamp"`
}
