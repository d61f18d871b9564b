package rest

import (
	"net/http"

	"github.com/leadflow/leadflow-backend/internal/config"
)

// Cookie names for the dual credential. Both are HttpOnly and scoped to the
// whole API; the Secure flag follows the environment.
const (
	authTokenCookie = "auth-token"
	sessionIDCookie = "session-id"
)

// setAuthCookies attaches both halves of the credential to the response.
// Max-Age matches the token and session lifetime exactly.
func setAuthCookies(w http.ResponseWriter, cfg *config.Config, token, sessionID string) {
	maxAge := int(cfg.SessionTTL().Seconds())
	http.SetCookie(w, &http.Cookie{
		Name:     authTokenCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   cfg.IsProduction(),
		SameSite: http.SameSiteStrictMode,
	})
	http.SetCookie(w, &http.Cookie{
		Name:     sessionIDCookie,
		Value:    sessionID,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   cfg.IsProduction(),
		SameSite: http.SameSiteStrictMode,
	})
}

// clearAuthCookies expires both credential cookies.
func clearAuthCookies(w http.ResponseWriter, cfg *config.Config) {
	for _, name := range []string{authTokenCookie, sessionIDCookie} {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			Secure:   cfg.IsProduction(),
			SameSite: http.SameSiteStrictMode,
		})
	}
}
