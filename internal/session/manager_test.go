package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/leadflow/leadflow-backend/internal/auth"
	"github.com/leadflow/leadflow-backend/internal/models"
	"github.com/leadflow/leadflow-backend/internal/repository"
	"github.com/leadflow/leadflow-backend/migrations"
)

func setupManager(t *testing.T, ttl time.Duration) (*Manager, *repository.Store, *models.Agent) {
	t.Helper()
	store, err := repository.NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	schema, err := migrations.FS.ReadFile("001_initial_schema.sql")
	if err != nil {
		t.Fatalf("Failed to read schema: %v", err)
	}
	if err := store.RunMigrations(string(schema)); err != nil {
		t.Fatalf("Failed to migrate: %v", err)
	}
	agent := &models.Agent{
		AgentCode:    "AG-2001",
		Email:        "ag2001@example.com",
		PasswordHash: "hash",
		Role:         auth.RoleAgent,
		IsActive:     true,
	}
	if err := store.CreateAgent(context.Background(), agent); err != nil {
		t.Fatalf("Failed to create agent: %v", err)
	}
	return NewManager(store, ttl), store, agent
}

func TestCreate(t *testing.T) {
	m, _, agent := setupManager(t, 7*24*time.Hour)

	s, err := m.Create(context.Background(), agent.ID, "10.0.0.1", "test-agent")
	if err != nil {
		t.Fatalf("Failed to create session: %v", err)
	}
	if s.ID == "" {
		t.Error("Session ID should be set")
	}
	if !s.IsActive {
		t.Error("New session should be active")
	}
	wantExpiry := s.CreatedAt.Add(7 * 24 * time.Hour)
	if !s.ExpiresAt.Equal(wantExpiry) {
		t.Errorf("Expected expiry %v, got %v", wantExpiry, s.ExpiresAt)
	}
}

func TestValidate(t *testing.T) {
	m, _, agent := setupManager(t, time.Hour)

	s, _ := m.Create(context.Background(), agent.ID, "10.0.0.1", "test-agent")

	got, err := m.Validate(context.Background(), s.ID, agent.ID)
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if got.ID != s.ID {
		t.Errorf("Expected session %s, got %s", s.ID, got.ID)
	}
}

func TestValidate_UnknownSession(t *testing.T) {
	m, _, agent := setupManager(t, time.Hour)

	_, err := m.Validate(context.Background(), "no-such-session", agent.ID)
	if !errors.Is(err, ErrInvalidSession) {
		t.Errorf("Expected ErrInvalidSession, got %v", err)
	}
}

func TestValidate_WrongAgent(t *testing.T) {
	m, _, agent := setupManager(t, time.Hour)

	s, _ := m.Create(context.Background(), agent.ID, "10.0.0.1", "test-agent")
	_, err := m.Validate(context.Background(), s.ID, "some-other-agent")
	if !errors.Is(err, ErrInvalidSession) {
		t.Errorf("Expected ErrInvalidSession for foreign session, got %v", err)
	}
}

func TestValidate_ExpiredSessionReapedLazily(t *testing.T) {
	m, store, agent := setupManager(t, -time.Minute) // already expired on creation

	s, _ := m.Create(context.Background(), agent.ID, "10.0.0.1", "test-agent")

	_, err := m.Validate(context.Background(), s.ID, agent.ID)
	if !errors.Is(err, ErrSessionExpired) {
		t.Fatalf("Expected ErrSessionExpired, got %v", err)
	}

	// Reaping is a side effect of the first validation.
	reaped, _ := store.GetSession(context.Background(), s.ID)
	if reaped.IsActive {
		t.Error("Expired session should have been flipped inactive")
	}
	if reaped.EndedAt == nil {
		t.Error("Expired session should have ended_at set")
	}

	// A second validation reports plain invalid (already inactive).
	_, err = m.Validate(context.Background(), s.ID, agent.ID)
	if !errors.Is(err, ErrInvalidSession) {
		t.Errorf("Expected ErrInvalidSession on second validate, got %v", err)
	}
}

func TestValidate_RefreshesActivityNotExpiry(t *testing.T) {
	m, store, agent := setupManager(t, time.Hour)

	s, _ := m.Create(context.Background(), agent.ID, "10.0.0.1", "test-agent")
	before, _ := store.GetSession(context.Background(), s.ID)

	time.Sleep(10 * time.Millisecond)
	if _, err := m.Validate(context.Background(), s.ID, agent.ID); err != nil {
		t.Fatalf("Validate failed: %v", err)
	}

	after, _ := store.GetSession(context.Background(), s.ID)
	if !after.LastActivity.After(before.LastActivity) {
		t.Error("LastActivity should have been refreshed")
	}
	if !after.ExpiresAt.Equal(before.ExpiresAt) {
		t.Error("ExpiresAt must not change on validation")
	}
}

func TestInvalidate(t *testing.T) {
	m, store, agent := setupManager(t, time.Hour)

	s, _ := m.Create(context.Background(), agent.ID, "10.0.0.1", "test-agent")
	if err := m.Invalidate(context.Background(), s.ID, agent.ID); err != nil {
		t.Fatalf("Invalidate failed: %v", err)
	}

	ended, _ := store.GetSession(context.Background(), s.ID)
	if ended.IsActive {
		t.Error("Invalidated session should be inactive")
	}

	_, err := m.Validate(context.Background(), s.ID, agent.ID)
	if !errors.Is(err, ErrInvalidSession) {
		t.Errorf("Expected ErrInvalidSession after invalidate, got %v", err)
	}
}

func TestInvalidate_WrongAgent(t *testing.T) {
	m, store, agent := setupManager(t, time.Hour)

	s, _ := m.Create(context.Background(), agent.ID, "10.0.0.1", "test-agent")
	err := m.Invalidate(context.Background(), s.ID, "some-other-agent")
	if !errors.Is(err, ErrInvalidSession) {
		t.Errorf("Expected ErrInvalidSession, got %v", err)
	}

	// Session untouched.
	still, _ := store.GetSession(context.Background(), s.ID)
	if !still.IsActive {
		t.Error("Foreign invalidate must not end the session")
	}
}
