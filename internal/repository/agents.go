package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/leadflow/leadflow-backend/internal/models"
)

// CreateAgent inserts a new agent record. The ID is generated when absent.
func (r *Store) CreateAgent(ctx context.Context, a *models.Agent) error {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	now := time.Now()
	a.CreatedAt = now
	a.UpdatedAt = now
	query := r.db.Rebind(`
		INSERT INTO agents (id, agent_code, email, password_hash, full_name, role, is_active, failed_login_count, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, 0, ?, ?)
	`)
	_, err := r.db.ExecContext(ctx, query,
		a.ID,
		a.AgentCode,
		a.Email,
		a.PasswordHash,
		a.FullName,
		a.Role,
		a.IsActive,
		a.CreatedAt,
		a.UpdatedAt,
	)
	return err
}

// GetAgentByCode looks up an agent by its login identifier. Returns (nil, nil)
// when no such agent exists.
func (r *Store) GetAgentByCode(ctx context.Context, agentCode string) (*models.Agent, error) {
	var a models.Agent
	query := r.db.Rebind(`SELECT * FROM agents WHERE agent_code = ?`)
	err := r.db.GetContext(ctx, &a, query, agentCode)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// GetAgentByID returns the agent with the given id, or (nil, nil) if absent.
func (r *Store) GetAgentByID(ctx context.Context, id string) (*models.Agent, error) {
	var a models.Agent
	query := r.db.Rebind(`SELECT * FROM agents WHERE id = ?`)
	err := r.db.GetContext(ctx, &a, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// ListAgents returns all agents ordered by creation time.
func (r *Store) ListAgents(ctx context.Context) ([]*models.Agent, error) {
	var agents []*models.Agent
	err := r.db.SelectContext(ctx, &agents, `SELECT * FROM agents ORDER BY created_at DESC`)
	return agents, err
}

// UpdateAgent updates the mutable profile fields of an agent.
func (r *Store) UpdateAgent(ctx context.Context, a *models.Agent) error {
	query := r.db.Rebind(`
		UPDATE agents
		SET email = ?, full_name = ?, role = ?, is_active = ?, updated_at = ?
		WHERE id = ?
	`)
	_, err := r.db.ExecContext(ctx, query,
		a.Email,
		a.FullName,
		a.Role,
		a.IsActive,
		time.Now(),
		a.ID,
	)
	return err
}

// IncrementFailedLogin bumps the failed-login counter for the agent.
func (r *Store) IncrementFailedLogin(ctx context.Context, id string) error {
	query := r.db.Rebind(`
		UPDATE agents
		SET failed_login_count = failed_login_count + 1, updated_at = ?
		WHERE id = ?
	`)
	_, err := r.db.ExecContext(ctx, query, time.Now(), id)
	return err
}

// LockAgent sets the timed lock on the agent.
func (r *Store) LockAgent(ctx context.Context, id string, until time.Time) error {
	query := r.db.Rebind(`UPDATE agents SET locked_until = ?, updated_at = ? WHERE id = ?`)
	_, err := r.db.ExecContext(ctx, query, until, time.Now(), id)
	return err
}

// ResetLockout clears the failed-login counter and any timed lock, and stamps
// last_login. Called on every successful login.
func (r *Store) ResetLockout(ctx context.Context, id string, lastLogin time.Time) error {
	query := r.db.Rebind(`
		UPDATE agents
		SET failed_login_count = 0, locked_until = NULL, last_login = ?, updated_at = ?
		WHERE id = ?
	`)
	_, err := r.db.ExecContext(ctx, query, lastLogin, time.Now(), id)
	return err
}

// ClearLockout clears the failed-login counter and any timed lock without
// touching last_login. Used by administrative unlock.
func (r *Store) ClearLockout(ctx context.Context, id string) error {
	query := r.db.Rebind(`
		UPDATE agents
		SET failed_login_count = 0, locked_until = NULL, updated_at = ?
		WHERE id = ?
	`)
	_, err := r.db.ExecContext(ctx, query, time.Now(), id)
	return err
}
