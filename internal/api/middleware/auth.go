package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/leadflow/leadflow-backend/internal/auth"
	"github.com/leadflow/leadflow-backend/internal/config"
	"github.com/leadflow/leadflow-backend/internal/session"
)

// Cookie names shared with the auth handlers.
const (
	AuthTokenCookie = "auth-token"
	SessionIDCookie = "session-id"
)

// RequireAuth returns middleware enforcing the dual credential on protected
// routes: a valid token always, plus a valid server-side session whenever a
// session id cookie is presented. Auth endpoints and probes are public; the
// auth handlers do their own verification so they can shape their responses.
func RequireAuth(cfg *config.Config, sessions *session.Manager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			path := r.URL.Path
			if path == "/health" || path == "/metrics" || strings.HasPrefix(path, "/healthz") ||
				strings.HasPrefix(path, "/api/v1/auth/") {
				next.ServeHTTP(w, r)
				return
			}

			token := ExtractToken(r)
			if token == "" {
				unauthorized(w, "Authentication required")
				return
			}
			claims, err := auth.VerifyToken(cfg.JWTSecret, token)
			if err != nil {
				msg := "Invalid token"
				if errors.Is(err, auth.ErrExpiredToken) {
					msg = "Token expired"
				}
				unauthorized(w, msg)
				return
			}

			// Token validity never implies session validity. A presented
			// session id must match the token's agent and still be live.
			if c, cerr := r.Cookie(SessionIDCookie); cerr == nil && c.Value != "" {
				if _, serr := sessions.Validate(r.Context(), c.Value, claims.AgentID); serr != nil {
					switch {
					case errors.Is(serr, session.ErrSessionExpired):
						unauthorized(w, "Session expired")
					case errors.Is(serr, session.ErrInvalidSession):
						unauthorized(w, "Invalid session")
					default:
						w.Header().Set("Content-Type", "application/json")
						w.WriteHeader(http.StatusInternalServerError)
						_, _ = w.Write([]byte(`{"error":"Internal server error"}`))
					}
					return
				}
			}

			next.ServeHTTP(w, r.WithContext(auth.WithClaims(r.Context(), claims)))
		})
	}
}

// ExtractToken pulls the bearer credential from the auth cookie or the
// Authorization header, cookie first.
func ExtractToken(r *http.Request) string {
	if c, err := r.Cookie(AuthTokenCookie); err == nil && c.Value != "" {
		return c.Value
	}
	h := r.Header.Get("Authorization")
	if strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	return ""
}

func unauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("WWW-Authenticate", "Bearer")
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"` + msg + `"}`))
}
