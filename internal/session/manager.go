// Package session manages server-side session records. A session is the
// revocable half of the dual credential: the token proves identity claims,
// the session proves the credential has not been revoked.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/leadflow/leadflow-backend/internal/models"
	"github.com/leadflow/leadflow-backend/internal/repository"
)

var ErrInvalidSession = errors.New("invalid session")
var ErrSessionExpired = errors.New("session expired")

// Manager creates, validates, and invalidates sessions against the store.
type Manager struct {
	store *repository.Store
	ttl   time.Duration
}

// NewManager creates a session manager issuing sessions with the given lifetime.
func NewManager(store *repository.Store, ttl time.Duration) *Manager {
	return &Manager{store: store, ttl: ttl}
}

// Create starts a new session for the agent. Expiry is absolute: created_at + TTL.
func (m *Manager) Create(ctx context.Context, agentID, ip, userAgent string) (*models.Session, error) {
	now := time.Now()
	s := &models.Session{
		AgentID:      agentID,
		IPAddress:    ip,
		UserAgent:    userAgent,
		CreatedAt:    now,
		LastActivity: now,
		ExpiresAt:    now.Add(m.ttl),
		IsActive:     true,
	}
	if err := m.store.CreateSession(ctx, s); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	return s, nil
}

// Validate checks a presented session id against the claimed agent. Expired
// sessions are reaped lazily: flipped inactive with ended_at set before being
// reported invalid. Valid sessions get last_activity refreshed; expires_at
// never slides.
func (m *Manager) Validate(ctx context.Context, sessionID, agentID string) (*models.Session, error) {
	s, err := m.store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	if s == nil || s.AgentID != agentID {
		return nil, ErrInvalidSession
	}
	if !s.IsActive {
		return nil, ErrInvalidSession
	}
	if s.IsExpired() {
		if err := m.store.EndSession(ctx, s.ID); err != nil {
			return nil, fmt.Errorf("failed to reap expired session: %w", err)
		}
		return nil, ErrSessionExpired
	}
	if err := m.store.TouchSession(ctx, s.ID); err != nil {
		return nil, fmt.Errorf("failed to refresh session activity: %w", err)
	}
	s.LastActivity = time.Now()
	return s, nil
}

// Invalidate ends the session if it belongs to the agent. Unknown or
// foreign-owned session ids are reported invalid without side effects.
func (m *Manager) Invalidate(ctx context.Context, sessionID, agentID string) error {
	s, err := m.store.GetSession(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("failed to load session: %w", err)
	}
	if s == nil || s.AgentID != agentID {
		return ErrInvalidSession
	}
	return m.store.EndSession(ctx, s.ID)
}
