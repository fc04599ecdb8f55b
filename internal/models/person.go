package models

// Person is a counterparty. It owns its transactions: deleting a
// person removes the whole log, and a person with no transactions is
// operationally indistinguishable from one that does not exist.
type Person struct {
	// ID is the unique identifier for the person (UUID format).
	ID string

	// Name is the display name, case-insensitively unique within the
	// active set.
	Name string

	// Signature is an optional opaque blob reference.
	Signature string

	// Transactions is the person's ledger, newest first.
	Transactions []*Transaction

	// CreatedAt is the Unix timestamp when the person was first seen.
	CreatedAt int64
}
