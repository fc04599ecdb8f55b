package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/adiallo/debtbook/internal/metrics"
	"github.com/adiallo/debtbook/internal/models"
	"github.com/adiallo/debtbook/internal/storage"
)

// SettlementEngine runs the archive-then-delete protocol that closes a
// person's debt cycle. Order matters for partial-failure safety: the
// archive must be durable before any active row is removed, so a crash
// in between duplicates state instead of losing it.
type SettlementEngine struct {
	store    storage.Store
	currency string
}

// NewSettlementEngine creates an engine writing through the given store.
func NewSettlementEngine(store storage.Store, currency string) *SettlementEngine {
	return &SettlementEngine{store: store, currency: currency}
}

// Settle archives the person's ledger and removes their active rows.
//
// totalAmount is the absolute balance immediately before the zeroing
// operation, whatever triggered the settlement. On ErrArchiveFailed no
// state has changed. On ErrDeleteAfterArchiveFailed the returned
// record is durable and the error carries its id; the active rows are
// stale, not lost.
func (e *SettlementEngine) Settle(ctx context.Context, person *models.Person, totalAmount float64, mode models.ViewMode, actor Actor, notes string) (*models.SettledRecord, error) {
	frozen := make([]models.Transaction, len(person.Transactions))
	for i, tx := range person.Transactions {
		frozen[i] = *tx
	}

	rec := &models.SettledRecord{
		PersonID:          person.ID,
		PersonName:        person.Name,
		TotalAmount:       totalAmount,
		Currency:          e.currency,
		Type:              mode,
		SettledByUserID:   actor.ID,
		SettledByUserName: actor.Name,
		Transactions:      frozen,
		SettledAt:         time.Now().Unix(),
		Notes:             notes,
	}

	if err := e.store.CreateSettledRecord(ctx, rec); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrArchiveFailed, err)
	}
	metrics.Settlements.Inc()

	// Transactions before person, so a cascade-free store never sees
	// dangling foreign keys.
	if err := e.store.DeleteTransactionsByPerson(ctx, person.ID); err != nil {
		return e.deleteFailed(person.ID, rec, err)
	}
	if err := e.store.DeletePerson(ctx, person.ID); err != nil {
		return e.deleteFailed(person.ID, rec, err)
	}

	return rec, nil
}

func (e *SettlementEngine) deleteFailed(personID string, rec *models.SettledRecord, err error) (*models.SettledRecord, error) {
	metrics.SettlementDeleteFailures.Inc()
	slog.Error("settlement delete failed after archive",
		"person_id", personID,
		"archive_id", rec.ID,
		"error", err,
	)
	return rec, &DeleteAfterArchiveError{PersonID: personID, ArchiveID: rec.ID, Err: err}
}
