package rest

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/leadflow/leadflow-backend/internal/api/middleware"
	"github.com/leadflow/leadflow-backend/internal/config"
	"github.com/leadflow/leadflow-backend/internal/session"
)

// Handlers bundles the REST handlers mounted on the router.
type Handlers struct {
	Auth      *AuthHandler
	Agents    *AgentsHandler
	Leads     *LeadsHandler
	Campaigns *CampaignsHandler
	Healthz   *HealthzHandler
}

// NewRouter builds the full HTTP handler: routes plus the middleware chain
// (request ID, structured log, secure headers, per-IP rate limit, auth).
func NewRouter(cfg *config.Config, sessions *session.Manager, h Handlers) http.Handler {
	router := mux.NewRouter()

	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"healthy","service":"leadflow-backend"}`))
	}).Methods("GET")
	router.HandleFunc("/healthz/live", h.Healthz.Live).Methods("GET")
	router.HandleFunc("/healthz/ready", h.Healthz.Ready).Methods("GET")
	router.Handle("/metrics", promhttp.Handler()).Methods("GET")

	api := router.PathPrefix("/api/v1").Subrouter()
	h.Auth.RegisterRoutes(api)
	h.Agents.RegisterRoutes(api)
	h.Leads.RegisterRoutes(api)
	if h.Campaigns != nil {
		h.Campaigns.RegisterRoutes(api)
	}

	router.Use(middleware.RequestID)
	router.Use(middleware.StructuredLog)
	router.Use(middleware.SecureHeaders)
	router.Use(middleware.RateLimit())
	router.Use(middleware.RequireAuth(cfg, sessions))

	return router
}
