// Package calculator computes balances from transaction logs.
//
// All functions are pure: they take a slice of transactions and return
// a value, touching no storage. The view mode never participates in
// the arithmetic; it only decides display framing and listing
// relevance. Summing the whole signed log, rather than only
// same-signed entries, is what lets partial payments reduce a balance
// without deleting history.
package calculator

import (
	"math"
	"time"

	"github.com/adiallo/debtbook/internal/models"
)

// Epsilon is the tolerance, in currency units, below which a balance
// is treated as exactly zero.
const Epsilon = 0.01

// SignedSum returns the raw signed sum of a person's log. Returns
// models.ErrInvalidAmount if any entry carries a non-finite amount.
func SignedSum(txs []*models.Transaction) (float64, error) {
	var sum float64
	for _, t := range txs {
		if err := models.CheckAmount(t.Amount); err != nil {
			return 0, err
		}
		sum += t.Amount
	}
	return sum, nil
}

// Balance returns the nonnegative magnitude of the signed sum, with
// epsilon-zero normalization: anything within Epsilon of zero is
// exactly zero.
func Balance(txs []*models.Transaction) (float64, error) {
	sum, err := SignedSum(txs)
	if err != nil {
		return 0, err
	}
	return Normalize(sum), nil
}

// Normalize maps a signed sum to its displayed magnitude.
func Normalize(sum float64) float64 {
	if math.Abs(sum) < Epsilon {
		return 0
	}
	return math.Abs(sum)
}

// Direction returns the display framing for a signed sum: a positive
// sum means they owe me, a negative one means I owe them.
func Direction(sum float64) models.ViewMode {
	if sum < 0 {
		return models.IOweThem
	}
	return models.TheyOweMe
}

// Relevant reports whether a transaction counts toward listing a
// person under the given view mode: nonzero amount whose raw sign
// matches the mode's polarity.
func Relevant(t *models.Transaction, mode models.ViewMode) bool {
	if t.Amount == 0 {
		return false
	}
	if mode == models.IOweThem {
		return t.Amount < 0
	}
	return t.Amount > 0
}

// HasRelevant reports whether a person is eligible for display under
// the view mode: at least one transaction with nonzero amount and the
// matching sign.
func HasRelevant(txs []*models.Transaction, mode models.ViewMode) bool {
	for _, t := range txs {
		if Relevant(t, mode) {
			return true
		}
	}
	return false
}

// AnyOverdue reports whether any entry in the log is overdue at the
// given instant.
func AnyOverdue(txs []*models.Transaction, now time.Time) bool {
	for _, t := range txs {
		if t.Overdue(now) {
			return true
		}
	}
	return false
}
