package models

// SettledRecord is the immutable archival snapshot written at the
// moment a person's balance reaches zero through settlement. It is the
// sole durable evidence of a closed debt cycle: the person and their
// active transactions are deleted right after it is created, and the
// record itself is never mutated or re-derived.
type SettledRecord struct {
	// ID is the unique identifier for the record (UUID format).
	ID string

	// PersonID is the id the person had in the active store.
	PersonID string

	// PersonName is denormalized since the person row is deleted after
	// archival.
	PersonName string

	// TotalAmount is the absolute balance immediately before the
	// zeroing operation, under every settlement trigger.
	TotalAmount float64

	// Currency is the fixed currency code the ledger runs in.
	Currency string

	// Type is the view mode the settlement occurred under.
	Type ViewMode

	// SettledByUserID and SettledByUserName identify the actor.
	SettledByUserID   string
	SettledByUserName string

	// Transactions is a frozen copy of the person's log at settlement
	// time, stored as an opaque ordered sequence.
	Transactions []Transaction

	// SettledAt is the Unix timestamp of the settlement.
	SettledAt int64

	// Notes is optional free text describing how the debt was closed.
	Notes string
}
