package rest

import (
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/leadflow/leadflow-backend/internal/audit"
	"github.com/leadflow/leadflow-backend/internal/auth"
	"github.com/leadflow/leadflow-backend/internal/config"
	"github.com/leadflow/leadflow-backend/internal/models"
	"github.com/leadflow/leadflow-backend/internal/pkg/metrics"
	"github.com/leadflow/leadflow-backend/internal/repository"
	"github.com/leadflow/leadflow-backend/internal/session"
)

// AuthHandler handles /api/v1/auth/*: login, logout, identity checks, and
// session management for the dual-credential scheme.
type AuthHandler struct {
	store    *repository.Store
	cfg      *config.Config
	limiter  *auth.LoginLimiter
	sessions *session.Manager
	auditor  *audit.Recorder
}

// NewAuthHandler creates an auth handler.
func NewAuthHandler(store *repository.Store, cfg *config.Config, limiter *auth.LoginLimiter, sessions *session.Manager, auditor *audit.Recorder) *AuthHandler {
	return &AuthHandler{
		store:    store,
		cfg:      cfg,
		limiter:  limiter,
		sessions: sessions,
		auditor:  auditor,
	}
}

// LoginRequest is the body for POST /auth/login.
type LoginRequest struct {
	AgentID  string `json:"agent_id"`
	Password string `json:"password"`
}

// LoginResponse is the response for POST /auth/login.
type LoginResponse struct {
	Success     bool            `json:"success"`
	Message     string          `json:"message"`
	Agent       *models.Agent   `json:"agent"`
	Permissions []string        `json:"permissions"`
	Session     *SessionSummary `json:"session"`
}

// SessionSummary is the client-visible portion of a session.
type SessionSummary struct {
	ID        string    `json:"id"`
	ExpiresAt time.Time `json:"expires_at"`
}

// MeResponse is the response for GET /auth/me.
type MeResponse struct {
	Authenticated bool            `json:"authenticated"`
	Agent         *models.Agent   `json:"agent,omitempty"`
	Permissions   []string        `json:"permissions,omitempty"`
	Session       *SessionSummary `json:"session,omitempty"`
}

// RegisterRoutes registers auth routes on the given router (path prefix /api/v1 already applied).
func (h *AuthHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/auth/login", h.Login).Methods("POST")
	router.HandleFunc("/auth/logout", h.Logout).Methods("POST")
	router.HandleFunc("/auth/me", h.Me).Methods("GET")
	router.HandleFunc("/auth/sessions", h.ListSessions).Methods("GET")
	router.HandleFunc("/auth/sessions/{sessionId}", h.DeleteSession).Methods("DELETE")
}

// clientIP resolves the originating client address, honoring proxy headers.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if idx := strings.Index(xff, ","); idx > 0 {
			return strings.TrimSpace(xff[:idx])
		}
		return strings.TrimSpace(xff)
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

// Login handles POST /auth/login. Checks run in a fixed order so an attacker
// cannot distinguish unknown accounts from wrong passwords, and throttling is
// evaluated before any database work.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if h.cfg.JWTSecret == "" {
		respondError(w, http.StatusInternalServerError, ErrCodeInternalError, "Server auth not configured", nil)
		return
	}
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, ErrCodeInvalidRequest, "Invalid request body", nil)
		return
	}
	req.AgentID = strings.TrimSpace(req.AgentID)
	if req.AgentID == "" || req.Password == "" {
		respondError(w, http.StatusBadRequest, ErrCodeMissingCredentials, "Agent ID and password required", nil)
		return
	}

	ctx := r.Context()
	ip := clientIP(r)
	userAgent := r.Header.Get("User-Agent")

	if !h.limiter.Allow(ip) {
		h.auditor.Record(ctx, nil, models.ActionLoginFailed, map[string]any{
			"agent_id": req.AgentID,
			"reason":   "rate_limit_exceeded",
		}, ip, userAgent)
		metrics.AuthLoginAttemptsTotal.WithLabelValues("rate_limited").Inc()
		w.Header().Set("Retry-After", strconv.Itoa(h.cfg.LoginWindowMin*60))
		respondError(w, http.StatusTooManyRequests, ErrCodeRateLimited, "Too many login attempts. Please try again later.", nil)
		return
	}

	agent, err := h.store.GetAgentByCode(ctx, req.AgentID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, ErrCodeInternalError, "Internal server error", nil)
		return
	}
	if agent == nil {
		// Don't reveal whether the agent exists.
		h.auditor.Record(ctx, nil, models.ActionLoginFailed, map[string]any{
			"agent_id": req.AgentID,
			"reason":   "invalid_agent_id",
		}, ip, userAgent)
		metrics.AuthLoginAttemptsTotal.WithLabelValues("invalid_credentials").Inc()
		respondError(w, http.StatusUnauthorized, ErrCodeInvalidCredentials, "Invalid credentials", nil)
		return
	}
	if !agent.IsActive {
		h.auditor.Record(ctx, &agent.ID, models.ActionLoginFailed, map[string]any{
			"reason": "account_inactive",
		}, ip, userAgent)
		metrics.AuthLoginAttemptsTotal.WithLabelValues("inactive").Inc()
		respondError(w, http.StatusUnauthorized, ErrCodeAccountInactive, "Account is inactive. Contact an administrator.", nil)
		return
	}
	if agent.IsLocked() {
		h.auditor.Record(ctx, &agent.ID, models.ActionLoginFailed, map[string]any{
			"reason": "account_locked",
		}, ip, userAgent)
		metrics.AuthLoginAttemptsTotal.WithLabelValues("locked").Inc()
		respondLocked(w, *agent.LockedUntil)
		return
	}

	if err := auth.CheckPassword(agent.PasswordHash, req.Password); err != nil {
		_ = h.store.IncrementFailedLogin(ctx, agent.ID)
		// Reload to get the updated failure count.
		agent, err = h.store.GetAgentByCode(ctx, req.AgentID)
		if err != nil || agent == nil {
			respondError(w, http.StatusInternalServerError, ErrCodeInternalError, "Internal server error", nil)
			return
		}
		if agent.FailedLoginCount >= h.cfg.LockoutThreshold {
			lockUntil := time.Now().Add(time.Duration(h.cfg.LockoutMinutes) * time.Minute)
			_ = h.store.LockAgent(ctx, agent.ID, lockUntil)
			h.auditor.Record(ctx, &agent.ID, models.ActionLoginFailed, map[string]any{
				"reason":         "invalid_password",
				"account_locked": true,
				"failed_count":   agent.FailedLoginCount,
			}, ip, userAgent)
			metrics.AuthLockoutsTotal.Inc()
			metrics.AuthLoginAttemptsTotal.WithLabelValues("locked").Inc()
			respondLocked(w, lockUntil)
			return
		}
		h.auditor.Record(ctx, &agent.ID, models.ActionLoginFailed, map[string]any{
			"reason":       "invalid_password",
			"failed_count": agent.FailedLoginCount,
		}, ip, userAgent)
		metrics.AuthLoginAttemptsTotal.WithLabelValues("invalid_credentials").Inc()
		remaining := h.cfg.LockoutThreshold - agent.FailedLoginCount
		respondError(w, http.StatusUnauthorized, ErrCodeInvalidCredentials, "Invalid credentials", map[string]string{
			"attempts_remaining": strconv.Itoa(remaining),
		})
		return
	}

	// Successful login: clear lockout state, issue both credential halves.
	now := time.Now()
	if err := h.store.ResetLockout(ctx, agent.ID, now); err != nil {
		respondError(w, http.StatusInternalServerError, ErrCodeInternalError, "Internal server error", nil)
		return
	}
	agent.FailedLoginCount = 0
	agent.LockedUntil = nil
	agent.LastLogin = &now

	token, err := auth.IssueToken(h.cfg.JWTSecret, h.cfg.SessionTTL(), agent)
	if err != nil {
		respondError(w, http.StatusInternalServerError, ErrCodeInternalError, "Failed to issue token", nil)
		return
	}
	s, err := h.sessions.Create(ctx, agent.ID, ip, userAgent)
	if err != nil {
		respondError(w, http.StatusInternalServerError, ErrCodeInternalError, "Failed to create session", nil)
		return
	}

	h.auditor.Record(ctx, &agent.ID, models.ActionLoginSuccessful, map[string]any{
		"session_id": s.ID,
	}, ip, userAgent)
	metrics.AuthLoginAttemptsTotal.WithLabelValues("success").Inc()
	metrics.AuthActiveSessionsCreatedTotal.Inc()

	setAuthCookies(w, h.cfg, token, s.ID)
	respondJSON(w, http.StatusOK, LoginResponse{
		Success:     true,
		Message:     "Login successful",
		Agent:       agent,
		Permissions: auth.PermissionsForRole(agent.Role),
		Session:     &SessionSummary{ID: s.ID, ExpiresAt: s.ExpiresAt},
	})
}

func respondLocked(w http.ResponseWriter, until time.Time) {
	respondError(w, http.StatusLocked, ErrCodeAccountLocked,
		"Account temporarily locked due to failed login attempts.",
		map[string]string{"locked_until": until.UTC().Format(time.RFC3339)})
}

// Me handles GET /auth/me. Every failure collapses to authenticated:false so
// the frontend has a single signal to redirect to login.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	token := extractToken(r)
	if token == "" {
		respondUnauthenticated(w, "Not authenticated")
		return
	}
	claims, err := auth.VerifyToken(h.cfg.JWTSecret, token)
	if err != nil {
		msg := "Invalid token"
		if errors.Is(err, auth.ErrExpiredToken) {
			msg = "Token expired"
		}
		respondUnauthenticated(w, msg)
		return
	}

	agent, err := h.store.GetAgentByID(ctx, claims.AgentID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, ErrCodeInternalError, "Internal server error", nil)
		return
	}
	if agent == nil || !agent.IsActive {
		respondUnauthenticated(w, "Account not available")
		return
	}

	resp := MeResponse{
		Authenticated: true,
		Agent:         agent,
		Permissions:   auth.PermissionsForRole(agent.Role),
	}
	if c, cerr := r.Cookie(sessionIDCookie); cerr == nil && c.Value != "" {
		s, serr := h.sessions.Validate(ctx, c.Value, agent.ID)
		if serr != nil {
			switch {
			case errors.Is(serr, session.ErrSessionExpired):
				respondUnauthenticated(w, "Session expired")
			case errors.Is(serr, session.ErrInvalidSession):
				respondUnauthenticated(w, "Invalid session")
			default:
				respondError(w, http.StatusInternalServerError, ErrCodeInternalError, "Internal server error", nil)
			}
			return
		}
		resp.Session = &SessionSummary{ID: s.ID, ExpiresAt: s.ExpiresAt}
	}
	respondJSON(w, http.StatusOK, resp)
}

func respondUnauthenticated(w http.ResponseWriter, msg string) {
	respondJSON(w, http.StatusUnauthorized, map[string]any{
		"authenticated": false,
		"error":         msg,
	})
}

// Logout handles POST /auth/logout. Cookies are cleared on every path,
// including errors, so a client can always reset its credential state.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	clearAuthCookies(w, h.cfg)

	token := extractToken(r)
	if token == "" {
		respondError(w, http.StatusUnauthorized, ErrCodeUnauthorized, "Not authenticated", nil)
		return
	}
	claims, err := auth.VerifyToken(h.cfg.JWTSecret, token)
	if err != nil {
		respondError(w, http.StatusUnauthorized, ErrCodeUnauthorized, "Invalid token", nil)
		return
	}

	ctx := r.Context()
	ip := clientIP(r)
	userAgent := r.Header.Get("User-Agent")

	// Best effort: end the session and record the event, but never block
	// the logout itself.
	if c, cerr := r.Cookie(sessionIDCookie); cerr == nil && c.Value != "" {
		_ = h.sessions.Invalidate(ctx, c.Value, claims.AgentID)
	}
	h.auditor.Record(ctx, &claims.AgentID, models.ActionLogout, nil, ip, userAgent)

	respondJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Logged out",
	})
}

// ListSessions handles GET /auth/sessions - the caller's own sessions.
func (h *AuthHandler) ListSessions(w http.ResponseWriter, r *http.Request) {
	claims := auth.ClaimsFromContext(r.Context())
	if claims == nil {
		claims = h.claimsFromRequest(r)
	}
	if claims == nil {
		respondError(w, http.StatusUnauthorized, ErrCodeUnauthorized, "Authentication required", nil)
		return
	}
	sessions, err := h.store.ListAgentSessions(r.Context(), claims.AgentID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, ErrCodeInternalError, "Failed to list sessions", nil)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"sessions": sessions})
}

// DeleteSession handles DELETE /auth/sessions/{sessionId} - revoke one of the
// caller's own sessions.
func (h *AuthHandler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	claims := auth.ClaimsFromContext(r.Context())
	if claims == nil {
		claims = h.claimsFromRequest(r)
	}
	if claims == nil {
		respondError(w, http.StatusUnauthorized, ErrCodeUnauthorized, "Authentication required", nil)
		return
	}
	sessionID := mux.Vars(r)["sessionId"]
	if err := h.sessions.Invalidate(r.Context(), sessionID, claims.AgentID); err != nil {
		if errors.Is(err, session.ErrInvalidSession) {
			respondError(w, http.StatusNotFound, ErrCodeNotFound, "Session not found", nil)
			return
		}
		respondError(w, http.StatusInternalServerError, ErrCodeInternalError, "Failed to end session", nil)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"success": true})
}

// claimsFromRequest verifies the request's own credential. The auth routes
// sit outside RequireAuth, so session endpoints validate tokens themselves.
func (h *AuthHandler) claimsFromRequest(r *http.Request) *auth.Claims {
	token := extractToken(r)
	if token == "" {
		return nil
	}
	claims, err := auth.VerifyToken(h.cfg.JWTSecret, token)
	if err != nil {
		return nil
	}
	return claims
}

// extractToken pulls the bearer credential from the auth cookie or the
// Authorization header, cookie first.
func extractToken(r *http.Request) string {
	if c, err := r.Cookie(authTokenCookie); err == nil && c.Value != "" {
		return c.Value
	}
	hdr := r.Header.Get("Authorization")
	if strings.HasPrefix(hdr, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(hdr, "Bearer "))
	}
	return ""
}
