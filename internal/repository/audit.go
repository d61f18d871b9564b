package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/leadflow/leadflow-backend/internal/models"
)

// CreateAuditEvent appends an audit record. Audit rows are never updated or
// deleted.
func (r *Store) CreateAuditEvent(ctx context.Context, e *models.AuditEvent) error {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}
	query := r.db.Rebind(`
		INSERT INTO audit_events (id, agent_id, action, details, ip_address, user_agent, timestamp)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	_, err := r.db.ExecContext(ctx, query,
		e.ID,
		e.AgentID,
		e.Action,
		e.Details,
		e.IPAddress,
		e.UserAgent,
		e.Timestamp,
	)
	return err
}

// ListAuditEvents returns recent audit records, newest first, optionally
// filtered by action.
func (r *Store) ListAuditEvents(ctx context.Context, action string, limit int) ([]*models.AuditEvent, error) {
	var events []*models.AuditEvent
	if limit <= 0 {
		limit = 100
	}
	if action != "" {
		query := r.db.Rebind(`SELECT * FROM audit_events WHERE action = ? ORDER BY timestamp DESC LIMIT ?`)
		err := r.db.SelectContext(ctx, &events, query, action, limit)
		return events, err
	}
	query := r.db.Rebind(`SELECT * FROM audit_events ORDER BY timestamp DESC LIMIT ?`)
	err := r.db.SelectContext(ctx, &events, query, limit)
	return events, err
}
