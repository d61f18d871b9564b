package rest

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/leadflow/leadflow-backend/internal/ads"
	"github.com/leadflow/leadflow-backend/internal/audit"
	"github.com/leadflow/leadflow-backend/internal/auth"
	"github.com/leadflow/leadflow-backend/internal/models"
	"github.com/leadflow/leadflow-backend/internal/pkg/metrics"
)

// CampaignsHandler proxies campaign operations to the external ad platform
// across the configured ad accounts. Nothing is persisted locally.
type CampaignsHandler struct {
	client  *ads.Client
	auditor *audit.Recorder
}

// NewCampaignsHandler creates a campaigns handler.
func NewCampaignsHandler(client *ads.Client, auditor *audit.Recorder) *CampaignsHandler {
	return &CampaignsHandler{client: client, auditor: auditor}
}

// RegisterRoutes registers campaign routes (path prefix /api/v1 already applied).
func (h *CampaignsHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/accounts/{accountId}/campaigns", h.List).Methods("GET")
	router.HandleFunc("/accounts/{accountId}/campaigns", h.Create).Methods("POST")
	router.HandleFunc("/accounts/{accountId}/campaigns/{campaignId}", h.Update).Methods("PATCH")
}

// List handles GET /accounts/{accountId}/campaigns.
func (h *CampaignsHandler) List(w http.ResponseWriter, r *http.Request) {
	claims := auth.ClaimsFromContext(r.Context())
	if !requirePermission(w, claims, auth.PermManageCampaigns) {
		return
	}
	accountID := mux.Vars(r)["accountId"]
	campaigns, err := h.client.ListCampaigns(r.Context(), accountID)
	if err != nil {
		metrics.CampaignAPIRequestsTotal.WithLabelValues("list", "error").Inc()
		respondUpstreamError(w, err)
		return
	}
	metrics.CampaignAPIRequestsTotal.WithLabelValues("list", "success").Inc()
	respondJSON(w, http.StatusOK, map[string]any{"campaigns": campaigns})
}

// Create handles POST /accounts/{accountId}/campaigns.
func (h *CampaignsHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims := auth.ClaimsFromContext(r.Context())
	if !requirePermission(w, claims, auth.PermManageCampaigns) {
		return
	}
	accountID := mux.Vars(r)["accountId"]
	var in models.CampaignInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respondError(w, http.StatusBadRequest, ErrCodeInvalidRequest, "Invalid request body", nil)
		return
	}
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		respondError(w, http.StatusBadRequest, ErrCodeInvalidRequest, "Campaign name is required", nil)
		return
	}
	campaign, err := h.client.CreateCampaign(r.Context(), accountID, in)
	if err != nil {
		metrics.CampaignAPIRequestsTotal.WithLabelValues("create", "error").Inc()
		respondUpstreamError(w, err)
		return
	}
	metrics.CampaignAPIRequestsTotal.WithLabelValues("create", "success").Inc()
	h.auditor.Record(r.Context(), &claims.AgentID, models.ActionCampaignCreated, map[string]any{
		"account_id":  accountID,
		"campaign_id": campaign.ID,
		"name":        campaign.Name,
	}, clientIP(r), r.Header.Get("User-Agent"))

	respondJSON(w, http.StatusCreated, campaign)
}

// Update handles PATCH /accounts/{accountId}/campaigns/{campaignId}.
func (h *CampaignsHandler) Update(w http.ResponseWriter, r *http.Request) {
	claims := auth.ClaimsFromContext(r.Context())
	if !requirePermission(w, claims, auth.PermManageCampaigns) {
		return
	}
	vars := mux.Vars(r)
	accountID, campaignID := vars["accountId"], vars["campaignId"]
	var in models.CampaignInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respondError(w, http.StatusBadRequest, ErrCodeInvalidRequest, "Invalid request body", nil)
		return
	}
	campaign, err := h.client.UpdateCampaign(r.Context(), accountID, campaignID, in)
	if err != nil {
		metrics.CampaignAPIRequestsTotal.WithLabelValues("update", "error").Inc()
		respondUpstreamError(w, err)
		return
	}
	metrics.CampaignAPIRequestsTotal.WithLabelValues("update", "success").Inc()
	h.auditor.Record(r.Context(), &claims.AgentID, models.ActionCampaignUpdated, map[string]any{
		"account_id":  accountID,
		"campaign_id": campaignID,
	}, clientIP(r), r.Header.Get("User-Agent"))

	respondJSON(w, http.StatusOK, campaign)
}

// respondUpstreamError maps ad-platform failures onto the API error envelope.
// Upstream status codes are not forwarded verbatim; 4xx mistakes on our side
// of the integration surface as 502 just like upstream outages, with the
// upstream message preserved in details.
func respondUpstreamError(w http.ResponseWriter, err error) {
	var apiErr *ads.APIError
	if errors.As(err, &apiErr) {
		respondError(w, http.StatusBadGateway, ErrCodeUpstreamError, "Ad platform request failed", map[string]string{
			"upstream_status":  http.StatusText(apiErr.StatusCode),
			"upstream_message": apiErr.Message,
		})
		return
	}
	respondError(w, http.StatusBadGateway, ErrCodeUpstreamError, "Ad platform unreachable", nil)
}
