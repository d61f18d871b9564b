// Package audit records security-relevant actions. Recording is fire and
// forget: a failed write is logged locally and never surfaces to the caller,
// so the primary operation cannot be blocked by the audit trail.
package audit

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/leadflow/leadflow-backend/internal/models"
	"github.com/leadflow/leadflow-backend/internal/repository"
)

// Recorder appends audit events to the store.
type Recorder struct {
	store *repository.Store
	log   *slog.Logger
}

// NewRecorder creates an audit recorder. A nil logger falls back to slog.Default.
func NewRecorder(store *repository.Store, log *slog.Logger) *Recorder {
	if log == nil {
		log = slog.Default()
	}
	return &Recorder{store: store, log: log}
}

// Record appends one audit event. agentID is nil for pre-authentication
// failures. Persistence errors are logged and swallowed.
func (r *Recorder) Record(ctx context.Context, agentID *string, action string, details map[string]any, ip, userAgent string) {
	if r == nil || r.store == nil {
		return
	}
	detailJSON := ""
	if len(details) > 0 {
		b, err := json.Marshal(details)
		if err != nil {
			r.log.Warn("audit: failed to marshal details", "action", action, "error", err)
		} else {
			detailJSON = string(b)
		}
	}
	e := &models.AuditEvent{
		AgentID:   agentID,
		Action:    action,
		Details:   detailJSON,
		IPAddress: ip,
		UserAgent: userAgent,
		Timestamp: time.Now(),
	}
	if err := r.store.CreateAuditEvent(ctx, e); err != nil {
		r.log.Warn("audit: failed to record event", "action", action, "error", err)
	}
}
