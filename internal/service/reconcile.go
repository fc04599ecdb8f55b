package service

import (
	"math"
	"time"

	"github.com/adiallo/debtbook/internal/calculator"
	"github.com/adiallo/debtbook/internal/models"
)

// Reconcile converts a user-specified displayed target balance into a
// single synthetic adjustment transaction that makes the computed
// balance equal the target. Returns nil when the log already sums to
// the target within epsilon: nothing should be persisted.
//
// The adjustment is additive: prior entries are never rewritten, so
// the full history survives a direct edit.
func Reconcile(txs []*models.Transaction, personID string, target float64, mode models.ViewMode, now time.Time) (*models.Transaction, error) {
	if !mode.Valid() {
		return nil, ErrInvalidViewMode
	}
	if err := models.CheckAmount(target); err != nil {
		return nil, err
	}
	if target < 0 {
		return nil, models.ErrInvalidAmount
	}

	current, err := calculator.SignedSum(txs)
	if err != nil {
		return nil, err
	}

	// The target arrives as a displayed (nonnegative) magnitude; the
	// view mode decides which direction it points.
	targetSigned := target * mode.Sign()
	delta := targetSigned - current
	if math.Abs(delta) < calculator.Epsilon {
		return nil, nil
	}

	adj, err := models.NewTransaction(personID, "Adjustment", delta, mode, now)
	if err != nil {
		return nil, err
	}
	adj.Comment = "Direct amount edit"
	return adj, nil
}
