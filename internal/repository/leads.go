package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/leadflow/leadflow-backend/internal/models"
)

// CreateLead inserts a new lead record.
func (r *Store) CreateLead(ctx context.Context, l *models.Lead) error {
	if l.ID == "" {
		l.ID = uuid.New().String()
	}
	if l.Status == "" {
		l.Status = models.LeadStatusNew
	}
	now := time.Now()
	l.CreatedAt = now
	l.UpdatedAt = now
	query := r.db.Rebind(`
		INSERT INTO leads (id, agent_id, name, email, phone, source, status, notes, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	_, err := r.db.ExecContext(ctx, query,
		l.ID,
		l.AgentID,
		l.Name,
		l.Email,
		l.Phone,
		l.Source,
		l.Status,
		l.Notes,
		l.CreatedAt,
		l.UpdatedAt,
	)
	return err
}

// GetLead returns the lead with the given id, or (nil, nil) if absent.
func (r *Store) GetLead(ctx context.Context, id string) (*models.Lead, error) {
	var l models.Lead
	query := r.db.Rebind(`SELECT * FROM leads WHERE id = ?`)
	err := r.db.GetContext(ctx, &l, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// ListLeads returns leads newest first. When agentID is non-nil the result is
// scoped to that owner (agents see only their own leads).
func (r *Store) ListLeads(ctx context.Context, agentID *string) ([]*models.Lead, error) {
	var leads []*models.Lead
	if agentID != nil {
		query := r.db.Rebind(`SELECT * FROM leads WHERE agent_id = ? ORDER BY created_at DESC`)
		err := r.db.SelectContext(ctx, &leads, query, *agentID)
		return leads, err
	}
	err := r.db.SelectContext(ctx, &leads, `SELECT * FROM leads ORDER BY created_at DESC`)
	return leads, err
}

// UpdateLead updates the mutable fields of a lead.
func (r *Store) UpdateLead(ctx context.Context, l *models.Lead) error {
	query := r.db.Rebind(`
		UPDATE leads
		SET agent_id = ?, name = ?, email = ?, phone = ?, source = ?, status = ?, notes = ?, updated_at = ?
		WHERE id = ?
	`)
	_, err := r.db.ExecContext(ctx, query,
		l.AgentID,
		l.Name,
		l.Email,
		l.Phone,
		l.Source,
		l.Status,
		l.Notes,
		time.Now(),
		l.ID,
	)
	return err
}

// DeleteLead removes a lead record.
func (r *Store) DeleteLead(ctx context.Context, id string) error {
	query := r.db.Rebind(`DELETE FROM leads WHERE id = ?`)
	_, err := r.db.ExecContext(ctx, query, id)
	return err
}
