package rest

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/leadflow/leadflow-backend/internal/audit"
	"github.com/leadflow/leadflow-backend/internal/auth"
	"github.com/leadflow/leadflow-backend/internal/models"
	"github.com/leadflow/leadflow-backend/internal/repository"
)

// LeadsHandler handles /api/v1/leads/*. Visibility is role-scoped: agents see
// their own leads, supervisors and admins see everything.
type LeadsHandler struct {
	store   *repository.Store
	auditor *audit.Recorder
}

// NewLeadsHandler creates a leads handler.
func NewLeadsHandler(store *repository.Store, auditor *audit.Recorder) *LeadsHandler {
	return &LeadsHandler{store: store, auditor: auditor}
}

// LeadInput is the body for lead create/update requests.
type LeadInput struct {
	AgentID *string `json:"agent_id,omitempty"`
	Name    string  `json:"name"`
	Email   string  `json:"email,omitempty"`
	Phone   string  `json:"phone,omitempty"`
	Source  string  `json:"source,omitempty"`
	Status  string  `json:"status,omitempty"`
	Notes   string  `json:"notes,omitempty"`
}

// RegisterRoutes registers lead routes (path prefix /api/v1 already applied).
func (h *LeadsHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/leads", h.List).Methods("GET")
	router.HandleFunc("/leads", h.Create).Methods("POST")
	router.HandleFunc("/leads/{leadId}", h.Get).Methods("GET")
	router.HandleFunc("/leads/{leadId}", h.Update).Methods("PATCH")
	router.HandleFunc("/leads/{leadId}", h.Delete).Methods("DELETE")
}

func validLeadStatus(s string) bool {
	switch s {
	case models.LeadStatusNew, models.LeadStatusContacted, models.LeadStatusQualified,
		models.LeadStatusConverted, models.LeadStatusLost:
		return true
	}
	return false
}

// canSeeLead reports whether the caller may read the lead.
func canSeeLead(claims *auth.Claims, l *models.Lead) bool {
	if auth.HasPermission(claims.Role, auth.PermViewAllLeads) {
		return true
	}
	return l.AgentID != nil && *l.AgentID == claims.AgentID
}

// List handles GET /leads. Agents get their own leads; callers with the
// view-all permission get everything, optionally filtered by ?agent_id=.
func (h *LeadsHandler) List(w http.ResponseWriter, r *http.Request) {
	claims := auth.ClaimsFromContext(r.Context())
	if claims == nil {
		respondError(w, http.StatusUnauthorized, ErrCodeUnauthorized, "Authentication required", nil)
		return
	}
	var owner *string
	if auth.HasPermission(claims.Role, auth.PermViewAllLeads) {
		if f := r.URL.Query().Get("agent_id"); f != "" {
			owner = &f
		}
	} else if auth.HasPermission(claims.Role, auth.PermViewOwnLeads) {
		owner = &claims.AgentID
	} else {
		respondError(w, http.StatusForbidden, ErrCodeForbidden, "Insufficient permissions", nil)
		return
	}
	leads, err := h.store.ListLeads(r.Context(), owner)
	if err != nil {
		respondError(w, http.StatusInternalServerError, ErrCodeInternalError, "Failed to list leads", nil)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"leads": leads})
}

// Create handles POST /leads. Agents create leads owned by themselves; only
// lead managers may assign another owner.
func (h *LeadsHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims := auth.ClaimsFromContext(r.Context())
	if claims == nil {
		respondError(w, http.StatusUnauthorized, ErrCodeUnauthorized, "Authentication required", nil)
		return
	}
	if !auth.HasPermission(claims.Role, auth.PermUpdateOwnLeads) {
		respondError(w, http.StatusForbidden, ErrCodeForbidden, "Insufficient permissions", nil)
		return
	}
	var in LeadInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respondError(w, http.StatusBadRequest, ErrCodeInvalidRequest, "Invalid request body", nil)
		return
	}
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		respondError(w, http.StatusBadRequest, ErrCodeInvalidRequest, "Lead name is required", nil)
		return
	}
	if in.Status != "" && !validLeadStatus(in.Status) {
		respondError(w, http.StatusBadRequest, ErrCodeInvalidRequest, "Invalid lead status", nil)
		return
	}

	owner := &claims.AgentID
	if in.AgentID != nil && *in.AgentID != claims.AgentID {
		if !auth.HasPermission(claims.Role, auth.PermManageLeads) {
			respondError(w, http.StatusForbidden, ErrCodeForbidden, "Cannot assign leads to other agents", nil)
			return
		}
		owner = in.AgentID
	}

	lead := &models.Lead{
		AgentID: owner,
		Name:    in.Name,
		Email:   in.Email,
		Phone:   in.Phone,
		Source:  in.Source,
		Status:  in.Status,
		Notes:   in.Notes,
	}
	if err := h.store.CreateLead(r.Context(), lead); err != nil {
		respondError(w, http.StatusInternalServerError, ErrCodeInternalError, "Failed to create lead", nil)
		return
	}
	h.auditor.Record(r.Context(), &claims.AgentID, models.ActionLeadCreated, map[string]any{
		"lead_id": lead.ID,
		"source":  lead.Source,
	}, clientIP(r), r.Header.Get("User-Agent"))

	respondJSON(w, http.StatusCreated, lead)
}

// Get handles GET /leads/{leadId}.
func (h *LeadsHandler) Get(w http.ResponseWriter, r *http.Request) {
	claims := auth.ClaimsFromContext(r.Context())
	if claims == nil {
		respondError(w, http.StatusUnauthorized, ErrCodeUnauthorized, "Authentication required", nil)
		return
	}
	lead, err := h.store.GetLead(r.Context(), mux.Vars(r)["leadId"])
	if err != nil {
		respondError(w, http.StatusInternalServerError, ErrCodeInternalError, "Internal server error", nil)
		return
	}
	if lead == nil || !canSeeLead(claims, lead) {
		// Hide existence of other agents' leads.
		respondError(w, http.StatusNotFound, ErrCodeNotFound, "Lead not found", nil)
		return
	}
	respondJSON(w, http.StatusOK, lead)
}

// Update handles PATCH /leads/{leadId}. Owners update their own leads; lead
// managers update (and reassign) any lead.
func (h *LeadsHandler) Update(w http.ResponseWriter, r *http.Request) {
	claims := auth.ClaimsFromContext(r.Context())
	if claims == nil {
		respondError(w, http.StatusUnauthorized, ErrCodeUnauthorized, "Authentication required", nil)
		return
	}
	lead, err := h.store.GetLead(r.Context(), mux.Vars(r)["leadId"])
	if err != nil {
		respondError(w, http.StatusInternalServerError, ErrCodeInternalError, "Internal server error", nil)
		return
	}
	if lead == nil || !canSeeLead(claims, lead) {
		respondError(w, http.StatusNotFound, ErrCodeNotFound, "Lead not found", nil)
		return
	}
	isManager := auth.HasPermission(claims.Role, auth.PermManageLeads)
	isOwner := lead.AgentID != nil && *lead.AgentID == claims.AgentID
	if !isManager && !(isOwner && auth.HasPermission(claims.Role, auth.PermUpdateOwnLeads)) {
		respondError(w, http.StatusForbidden, ErrCodeForbidden, "Insufficient permissions", nil)
		return
	}

	var in LeadInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respondError(w, http.StatusBadRequest, ErrCodeInvalidRequest, "Invalid request body", nil)
		return
	}
	changed := map[string]any{}
	if name := strings.TrimSpace(in.Name); name != "" {
		lead.Name = name
		changed["name"] = name
	}
	if in.Email != "" {
		lead.Email = in.Email
		changed["email"] = in.Email
	}
	if in.Phone != "" {
		lead.Phone = in.Phone
		changed["phone"] = in.Phone
	}
	if in.Status != "" {
		if !validLeadStatus(in.Status) {
			respondError(w, http.StatusBadRequest, ErrCodeInvalidRequest, "Invalid lead status", nil)
			return
		}
		lead.Status = in.Status
		changed["status"] = in.Status
	}
	if in.Notes != "" {
		lead.Notes = in.Notes
		changed["notes"] = true
	}
	if in.AgentID != nil {
		if !isManager {
			respondError(w, http.StatusForbidden, ErrCodeForbidden, "Cannot reassign leads", nil)
			return
		}
		lead.AgentID = in.AgentID
		changed["agent_id"] = *in.AgentID
	}
	if len(changed) == 0 {
		respondError(w, http.StatusBadRequest, ErrCodeInvalidRequest, "No fields to update", nil)
		return
	}

	if err := h.store.UpdateLead(r.Context(), lead); err != nil {
		respondError(w, http.StatusInternalServerError, ErrCodeInternalError, "Failed to update lead", nil)
		return
	}
	h.auditor.Record(r.Context(), &claims.AgentID, models.ActionLeadUpdated, map[string]any{
		"lead_id": lead.ID,
		"changes": changed,
	}, clientIP(r), r.Header.Get("User-Agent"))

	respondJSON(w, http.StatusOK, lead)
}

// Delete handles DELETE /leads/{leadId} (lead managers only).
func (h *LeadsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	claims := auth.ClaimsFromContext(r.Context())
	if !requirePermission(w, claims, auth.PermManageLeads) {
		return
	}
	id := mux.Vars(r)["leadId"]
	lead, err := h.store.GetLead(r.Context(), id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, ErrCodeInternalError, "Internal server error", nil)
		return
	}
	if lead == nil {
		respondError(w, http.StatusNotFound, ErrCodeNotFound, "Lead not found", nil)
		return
	}
	if err := h.store.DeleteLead(r.Context(), id); err != nil {
		respondError(w, http.StatusInternalServerError, ErrCodeInternalError, "Failed to delete lead", nil)
		return
	}
	h.auditor.Record(r.Context(), &claims.AgentID, models.ActionLeadDeleted, map[string]any{
		"lead_id": id,
	}, clientIP(r), r.Header.Get("User-Agent"))

	respondJSON(w, http.StatusOK, map[string]any{"success": true})
}
