package rest

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/leadflow/leadflow-backend/internal/audit"
	"github.com/leadflow/leadflow-backend/internal/auth"
	"github.com/leadflow/leadflow-backend/internal/config"
	"github.com/leadflow/leadflow-backend/internal/models"
	"github.com/leadflow/leadflow-backend/internal/repository"
)

// AgentsHandler handles /api/v1/agents/* - account administration.
type AgentsHandler struct {
	store   *repository.Store
	cfg     *config.Config
	auditor *audit.Recorder
}

// NewAgentsHandler creates an agents handler.
func NewAgentsHandler(store *repository.Store, cfg *config.Config, auditor *audit.Recorder) *AgentsHandler {
	return &AgentsHandler{store: store, cfg: cfg, auditor: auditor}
}

// CreateAgentRequest is the body for POST /agents.
type CreateAgentRequest struct {
	AgentID  string `json:"agent_id"`
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
	Role     string `json:"role"`
}

// UpdateAgentRequest is the body for PATCH /agents/{agentId}. Nil fields are
// left unchanged.
type UpdateAgentRequest struct {
	Email    *string `json:"email,omitempty"`
	FullName *string `json:"full_name,omitempty"`
	Role     *string `json:"role,omitempty"`
	IsActive *bool   `json:"is_active,omitempty"`
}

// RegisterRoutes registers agent management routes (path prefix /api/v1 already applied).
func (h *AgentsHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/agents", h.List).Methods("GET")
	router.HandleFunc("/agents", h.Create).Methods("POST")
	router.HandleFunc("/agents/{agentId}", h.Get).Methods("GET")
	router.HandleFunc("/agents/{agentId}", h.Update).Methods("PATCH")
	router.HandleFunc("/agents/{agentId}/unlock", h.Unlock).Methods("POST")
}

// List handles GET /agents. Admins manage accounts; super agents may read the
// roster for reporting.
func (h *AgentsHandler) List(w http.ResponseWriter, r *http.Request) {
	claims := auth.ClaimsFromContext(r.Context())
	if claims == nil {
		respondError(w, http.StatusUnauthorized, ErrCodeUnauthorized, "Authentication required", nil)
		return
	}
	if !auth.HasPermission(claims.Role, auth.PermManageAgents) && claims.Role != auth.RoleSuperAgent {
		respondError(w, http.StatusForbidden, ErrCodeForbidden, "Insufficient permissions", nil)
		return
	}
	agents, err := h.store.ListAgents(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, ErrCodeInternalError, "Failed to list agents", nil)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"agents": agents})
}

// Create handles POST /agents (admin only).
func (h *AgentsHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims := auth.ClaimsFromContext(r.Context())
	if !requirePermission(w, claims, auth.PermManageAgents) {
		return
	}
	var req CreateAgentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, ErrCodeInvalidRequest, "Invalid request body", nil)
		return
	}
	req.AgentID = strings.TrimSpace(req.AgentID)
	req.Email = strings.TrimSpace(req.Email)
	if req.AgentID == "" || req.Email == "" || req.Password == "" || req.FullName == "" {
		respondError(w, http.StatusBadRequest, ErrCodeInvalidRequest, "agent_id, email, password, and full_name are required", nil)
		return
	}
	if req.Role == "" {
		req.Role = auth.RoleAgent
	}
	if !auth.ValidRole(req.Role) {
		respondError(w, http.StatusBadRequest, ErrCodeInvalidRequest, "Invalid role", nil)
		return
	}

	existing, err := h.store.GetAgentByCode(r.Context(), req.AgentID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, ErrCodeInternalError, "Internal server error", nil)
		return
	}
	if existing != nil {
		respondError(w, http.StatusConflict, ErrCodeInvalidRequest, "Agent ID already in use", nil)
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		respondError(w, http.StatusInternalServerError, ErrCodeInternalError, "Failed to hash password", nil)
		return
	}
	agent := &models.Agent{
		AgentCode:    req.AgentID,
		Email:        req.Email,
		PasswordHash: hash,
		FullName:     req.FullName,
		Role:         req.Role,
		IsActive:     true,
	}
	if err := h.store.CreateAgent(r.Context(), agent); err != nil {
		respondError(w, http.StatusInternalServerError, ErrCodeInternalError, "Failed to create agent", nil)
		return
	}

	h.auditor.Record(r.Context(), &claims.AgentID, models.ActionAgentCreated, map[string]any{
		"created_agent_id": agent.ID,
		"agent_code":       agent.AgentCode,
		"role":             agent.Role,
	}, clientIP(r), r.Header.Get("User-Agent"))

	respondJSON(w, http.StatusCreated, agent)
}

// Get handles GET /agents/{agentId}. Admins can read any account; everyone
// else only their own.
func (h *AgentsHandler) Get(w http.ResponseWriter, r *http.Request) {
	claims := auth.ClaimsFromContext(r.Context())
	if claims == nil {
		respondError(w, http.StatusUnauthorized, ErrCodeUnauthorized, "Authentication required", nil)
		return
	}
	id := mux.Vars(r)["agentId"]
	if id != claims.AgentID && !auth.HasPermission(claims.Role, auth.PermManageAgents) {
		respondError(w, http.StatusForbidden, ErrCodeForbidden, "Insufficient permissions", nil)
		return
	}
	agent, err := h.store.GetAgentByID(r.Context(), id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, ErrCodeInternalError, "Internal server error", nil)
		return
	}
	if agent == nil {
		respondError(w, http.StatusNotFound, ErrCodeNotFound, "Agent not found", nil)
		return
	}
	respondJSON(w, http.StatusOK, agent)
}

// Update handles PATCH /agents/{agentId} (admin only).
func (h *AgentsHandler) Update(w http.ResponseWriter, r *http.Request) {
	claims := auth.ClaimsFromContext(r.Context())
	if !requirePermission(w, claims, auth.PermManageAgents) {
		return
	}
	id := mux.Vars(r)["agentId"]
	agent, err := h.store.GetAgentByID(r.Context(), id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, ErrCodeInternalError, "Internal server error", nil)
		return
	}
	if agent == nil {
		respondError(w, http.StatusNotFound, ErrCodeNotFound, "Agent not found", nil)
		return
	}

	var req UpdateAgentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, ErrCodeInvalidRequest, "Invalid request body", nil)
		return
	}
	changed := map[string]any{}
	if req.Email != nil {
		agent.Email = strings.TrimSpace(*req.Email)
		changed["email"] = agent.Email
	}
	if req.FullName != nil {
		agent.FullName = *req.FullName
		changed["full_name"] = agent.FullName
	}
	if req.Role != nil {
		if !auth.ValidRole(*req.Role) {
			respondError(w, http.StatusBadRequest, ErrCodeInvalidRequest, "Invalid role", nil)
			return
		}
		agent.Role = *req.Role
		changed["role"] = agent.Role
	}
	if req.IsActive != nil {
		agent.IsActive = *req.IsActive
		changed["is_active"] = agent.IsActive
	}
	if len(changed) == 0 {
		respondError(w, http.StatusBadRequest, ErrCodeInvalidRequest, "No fields to update", nil)
		return
	}

	if err := h.store.UpdateAgent(r.Context(), agent); err != nil {
		respondError(w, http.StatusInternalServerError, ErrCodeInternalError, "Failed to update agent", nil)
		return
	}
	h.auditor.Record(r.Context(), &claims.AgentID, models.ActionAgentUpdated, map[string]any{
		"updated_agent_id": agent.ID,
		"changes":          changed,
	}, clientIP(r), r.Header.Get("User-Agent"))

	respondJSON(w, http.StatusOK, agent)
}

// Unlock handles POST /agents/{agentId}/unlock (admin only) - clears lockout
// state without waiting for the lock to expire.
func (h *AgentsHandler) Unlock(w http.ResponseWriter, r *http.Request) {
	claims := auth.ClaimsFromContext(r.Context())
	if !requirePermission(w, claims, auth.PermManageAgents) {
		return
	}
	id := mux.Vars(r)["agentId"]
	agent, err := h.store.GetAgentByID(r.Context(), id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, ErrCodeInternalError, "Internal server error", nil)
		return
	}
	if agent == nil {
		respondError(w, http.StatusNotFound, ErrCodeNotFound, "Agent not found", nil)
		return
	}
	if err := h.store.ClearLockout(r.Context(), agent.ID); err != nil {
		respondError(w, http.StatusInternalServerError, ErrCodeInternalError, "Failed to unlock agent", nil)
		return
	}
	h.auditor.Record(r.Context(), &claims.AgentID, models.ActionAgentUpdated, map[string]any{
		"updated_agent_id": agent.ID,
		"changes":          map[string]any{"unlocked": true},
	}, clientIP(r), r.Header.Get("User-Agent"))

	respondJSON(w, http.StatusOK, map[string]any{"success": true})
}

// requirePermission writes the error response and returns false when the
// caller lacks perm.
func requirePermission(w http.ResponseWriter, claims *auth.Claims, perm string) bool {
	if claims == nil {
		respondError(w, http.StatusUnauthorized, ErrCodeUnauthorized, "Authentication required", nil)
		return false
	}
	if !auth.HasPermission(claims.Role, perm) {
		respondError(w, http.StatusForbidden, ErrCodeForbidden, "Insufficient permissions", nil)
		return false
	}
	return true
}
