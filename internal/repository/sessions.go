package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/leadflow/leadflow-backend/internal/models"
)

// CreateSession inserts a new active session record.
func (r *Store) CreateSession(ctx context.Context, s *models.Session) error {
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	query := r.db.Rebind(`
		INSERT INTO sessions (id, agent_id, ip_address, user_agent, created_at, last_activity, expires_at, is_active)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	_, err := r.db.ExecContext(ctx, query,
		s.ID,
		s.AgentID,
		s.IPAddress,
		s.UserAgent,
		s.CreatedAt,
		s.LastActivity,
		s.ExpiresAt,
		s.IsActive,
	)
	return err
}

// GetSession returns the session with the given id, or (nil, nil) if absent.
func (r *Store) GetSession(ctx context.Context, id string) (*models.Session, error) {
	var s models.Session
	query := r.db.Rebind(`SELECT * FROM sessions WHERE id = ?`)
	err := r.db.GetContext(ctx, &s, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// TouchSession refreshes last_activity. Expiry is absolute and never extended.
func (r *Store) TouchSession(ctx context.Context, id string) error {
	query := r.db.Rebind(`UPDATE sessions SET last_activity = ? WHERE id = ?`)
	_, err := r.db.ExecContext(ctx, query, time.Now(), id)
	return err
}

// EndSession flips the session inactive and stamps ended_at. Idempotent: an
// already-ended session keeps its original ended_at.
func (r *Store) EndSession(ctx context.Context, id string) error {
	query := r.db.Rebind(`
		UPDATE sessions
		SET is_active = ?, ended_at = ?
		WHERE id = ? AND is_active = ?
	`)
	_, err := r.db.ExecContext(ctx, query, false, time.Now(), id, true)
	return err
}

// ListAgentSessions returns the agent's sessions, newest first.
func (r *Store) ListAgentSessions(ctx context.Context, agentID string) ([]*models.Session, error) {
	var sessions []*models.Session
	query := r.db.Rebind(`SELECT * FROM sessions WHERE agent_id = ? ORDER BY created_at DESC`)
	err := r.db.SelectContext(ctx, &sessions, query, agentID)
	return sessions, err
}
