package models

// Campaign is the wire shape for a campaign object on the external
// ad-management API. Not persisted locally; the upstream is the source of truth.
type Campaign struct {
	ID          string `json:"id"`
	AccountID   string `json:"account_id"`
	Name        string `json:"name"`
	Objective   string `json:"objective"`
	Status      string `json:"status"`
	CreatedTime string `json:"created_time,omitempty"`
}

// CampaignInput is the caller-supplied portion of a campaign create/update.
type CampaignInput struct {
	Name      string `json:"name"`
	Objective string `json:"objective,omitempty"`
	Status    string `json:"status,omitempty"`
}
