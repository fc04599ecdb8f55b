// Package audit records ledger activity for later display.
//
// The ledger calls the recorder fire-and-forget after each mutation:
// a failed audit write is logged and swallowed, never surfaced to the
// caller, because the mutation itself already succeeded.
package audit

import (
	"context"
	"log/slog"

	"github.com/adiallo/debtbook/internal/models"
)

// ActivityStore is the narrow persistence surface the recorder needs.
type ActivityStore interface {
	CreateActivityLog(ctx context.Context, entry *models.ActivityLog) error
}

// Entry describes one mutation for the activity trail.
type Entry struct {
	ActorID     string
	ActorName   string
	Action      models.ActionKind
	Mode        models.ViewMode
	Description string
	PersonName  string
	Amount      float64
}

// Recorder persists activity entries.
type Recorder struct {
	store ActivityStore
}

// NewRecorder creates a recorder writing through the given store.
func NewRecorder(store ActivityStore) *Recorder {
	return &Recorder{store: store}
}

// Record writes one entry. Errors are logged, not returned.
func (r *Recorder) Record(ctx context.Context, e Entry) {
	log := &models.ActivityLog{
		UserID:      e.ActorID,
		UserName:    e.ActorName,
		Action:      e.Action,
		Category:    e.Mode,
		Description: e.Description,
		PersonName:  e.PersonName,
		Amount:      e.Amount,
	}
	if err := r.store.CreateActivityLog(ctx, log); err != nil {
		slog.Warn("failed to write activity log",
			"action", e.Action,
			"person", e.PersonName,
			"error", err,
		)
	}
}
