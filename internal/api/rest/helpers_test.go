package rest

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/leadflow/leadflow-backend/internal/audit"
	"github.com/leadflow/leadflow-backend/internal/auth"
	"github.com/leadflow/leadflow-backend/internal/config"
	"github.com/leadflow/leadflow-backend/internal/models"
	"github.com/leadflow/leadflow-backend/internal/repository"
	"github.com/leadflow/leadflow-backend/internal/session"
	"github.com/leadflow/leadflow-backend/migrations"
)

const testJWTSecret = "test-secret-key-for-jwt-token-generation"

type testEnv struct {
	store    *repository.Store
	cfg      *config.Config
	sessions *session.Manager
	limiter  *auth.LoginLimiter
	auth     *AuthHandler
	agents   *AgentsHandler
	leads    *LeadsHandler
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store, err := repository.NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	schema, err := migrations.FS.ReadFile("001_initial_schema.sql")
	if err != nil {
		t.Fatalf("Failed to read embedded schema: %v", err)
	}
	if err := store.RunMigrations(string(schema)); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}

	cfg := &config.Config{
		Environment:      "development",
		JWTSecret:        testJWTSecret,
		SessionTTLHours:  168,
		LoginWindowMin:   15,
		LoginMaxAttempts: 10,
		LockoutThreshold: 5,
		LockoutMinutes:   30,
	}
	sessions := session.NewManager(store, cfg.SessionTTL())
	auditor := audit.NewRecorder(store, nil)
	limiter := auth.NewLoginLimiter(15*time.Minute, 10)

	return &testEnv{
		store:    store,
		cfg:      cfg,
		sessions: sessions,
		limiter:  limiter,
		auth:     NewAuthHandler(store, cfg, limiter, sessions, auditor),
		agents:   NewAgentsHandler(store, cfg, auditor),
		leads:    NewLeadsHandler(store, auditor),
	}
}

func (e *testEnv) seedAgent(t *testing.T, code, password, role string, active bool) *models.Agent {
	t.Helper()
	hash, err := auth.HashPassword(password)
	if err != nil {
		t.Fatalf("Failed to hash password: %v", err)
	}
	a := &models.Agent{
		AgentCode:    code,
		Email:        code + "@example.com",
		PasswordHash: hash,
		FullName:     "Test " + code,
		Role:         role,
		IsActive:     active,
	}
	if err := e.store.CreateAgent(context.Background(), a); err != nil {
		t.Fatalf("Failed to create agent %s: %v", code, err)
	}
	return a
}

// withClaims attaches verified claims to the request, standing in for the
// auth middleware on protected routes.
func withClaims(r *http.Request, a *models.Agent) *http.Request {
	claims := &auth.Claims{
		AgentID:   a.ID,
		AgentCode: a.AgentCode,
		Role:      a.Role,
		Email:     a.Email,
	}
	return r.WithContext(auth.WithClaims(r.Context(), claims))
}

// cookieByName finds a Set-Cookie entry from a recorded response.
func cookieByName(cookies []*http.Cookie, name string) *http.Cookie {
	for _, c := range cookies {
		if c.Name == name {
			return c
		}
	}
	return nil
}
