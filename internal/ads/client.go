// Package ads wraps the external campaign-management API. The upstream
// contract is treated as opaque: the client shuttles campaign objects over
// HTTP and reports upstream failures as typed errors, with no retry logic.
package ads

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/leadflow/leadflow-backend/internal/models"
)

// APIError is a non-2xx response from the upstream ad platform.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("marketing api: %d %s", e.StatusCode, e.Message)
}

// Client talks to the campaign-management API across multiple ad accounts,
// keyed by opaque account identifiers.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewClient creates an ads client. baseURL has no trailing slash.
func NewClient(baseURL, token string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:    baseURL,
		token:      token,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type campaignList struct {
	Data []models.Campaign `json:"data"`
}

type upstreamError struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// ListCampaigns returns the campaigns of one ad account.
func (c *Client) ListCampaigns(ctx context.Context, accountID string) ([]models.Campaign, error) {
	var out campaignList
	path := fmt.Sprintf("/%s/campaigns", accountID)
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	for i := range out.Data {
		out.Data[i].AccountID = accountID
	}
	return out.Data, nil
}

// CreateCampaign creates a campaign on the given account.
func (c *Client) CreateCampaign(ctx context.Context, accountID string, in models.CampaignInput) (*models.Campaign, error) {
	var out models.Campaign
	path := fmt.Sprintf("/%s/campaigns", accountID)
	if err := c.do(ctx, http.MethodPost, path, in, &out); err != nil {
		return nil, err
	}
	out.AccountID = accountID
	return &out, nil
}

// UpdateCampaign updates a campaign's name, objective, or status.
func (c *Client) UpdateCampaign(ctx context.Context, accountID, campaignID string, in models.CampaignInput) (*models.Campaign, error) {
	var out models.Campaign
	path := fmt.Sprintf("/%s/campaigns/%s", accountID, campaignID)
	if err := c.do(ctx, http.MethodPost, path, in, &out); err != nil {
		return nil, err
	}
	out.AccountID = accountID
	return &out, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("marketing api request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var ue upstreamError
		msg := http.StatusText(resp.StatusCode)
		if err := json.NewDecoder(resp.Body).Decode(&ue); err == nil && ue.Error.Message != "" {
			msg = ue.Error.Message
		}
		return &APIError{StatusCode: resp.StatusCode, Message: msg}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
