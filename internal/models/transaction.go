package models

import (
	"errors"
	"math"
	"time"
)

// ErrInvalidAmount is returned when an amount is not a finite number,
// or when a caller-supplied target amount is negative.
var ErrInvalidAmount = errors.New("invalid amount")

// ErrSettledNonZero is returned when a transaction is marked settled
// while still carrying a nonzero amount.
var ErrSettledNonZero = errors.New("settled transaction must have zero amount")

// Transaction is one ledger entry. The signed Amount is authoritative:
// its sign encodes the debt direction and payments carry the opposite
// sign of the debt they reduce.
type Transaction struct {
	// ID is the unique identifier for the transaction (UUID format).
	ID string

	// PersonID is the counterparty owning this entry.
	PersonID string

	// Description is a short human-readable label ("Dinner payment").
	Description string

	// Comment is optional free text.
	Comment string

	// Amount is the signed value. Positive counts toward they-owe-me,
	// negative toward i-owe-them. Exactly zero once settled.
	Amount float64

	// OriginalAmount preserves the pre-settlement magnitude when a
	// transaction is zeroed, so it can be restored by unsettle.
	OriginalAmount float64

	// Date is the calendar date of the entry.
	Date time.Time

	// DueDate is an optional payment deadline. A past due date on an
	// unsettled nonzero entry marks the counterparty overdue.
	DueDate *time.Time

	// Settled is true once the amount has been neutralized to zero by
	// settlement logic, not merely paid down.
	Settled bool

	// IsPayment marks synthetic entries created by the payment flow,
	// as opposed to original debts.
	IsPayment bool

	// Mode is the view mode the entry was recorded under. Used only to
	// restore the correct sign on unsettle; balance arithmetic ignores it.
	Mode ViewMode

	// Signature is an optional opaque blob reference (e.g. a data URL).
	Signature string

	// CreatedAt is the Unix timestamp when the row was inserted.
	CreatedAt int64
}

// NewTransaction builds a validated ledger entry. The amount is the
// already-signed value to append to the person's log.
func NewTransaction(personID, description string, amount float64, mode ViewMode, date time.Time) (*Transaction, error) {
	if personID == "" {
		return nil, errors.New("person id is required")
	}
	if err := CheckAmount(amount); err != nil {
		return nil, err
	}
	if !mode.Valid() {
		mode = TheyOweMe
	}
	return &Transaction{
		PersonID:       personID,
		Description:    description,
		Amount:         amount,
		OriginalAmount: math.Abs(amount),
		Date:           date,
		// A zero-amount entry has nothing left to settle.
		Settled:   amount == 0,
		Mode:      mode,
		CreatedAt: time.Now().Unix(),
	}, nil
}

// Validate enforces the settled/amount invariant on a fully populated
// transaction, e.g. one loaded from an untrusted source.
func (t *Transaction) Validate() error {
	if err := CheckAmount(t.Amount); err != nil {
		return err
	}
	if t.Settled && t.Amount != 0 {
		return ErrSettledNonZero
	}
	return nil
}

// Overdue reports whether the entry has a due date in the past while
// still carrying an unsettled nonzero amount.
func (t *Transaction) Overdue(now time.Time) bool {
	return t.DueDate != nil && t.DueDate.Before(now) && !t.Settled && t.Amount != 0
}

// CheckAmount rejects NaN and infinite values.
func CheckAmount(v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return ErrInvalidAmount
	}
	return nil
}
