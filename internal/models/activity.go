package models

// ActionKind classifies a ledger mutation for the activity log.
type ActionKind string

const (
	ActionCreate   ActionKind = "create"
	ActionEdit     ActionKind = "edit"
	ActionDelete   ActionKind = "delete"
	ActionSettle   ActionKind = "settle"
	ActionPayment  ActionKind = "payment"
	ActionUnsettle ActionKind = "unsettle"
)

// ActivityLog is one audit trail entry. The ledger writes these
// fire-and-forget after every mutation; reading them back is gated to
// admin users at the HTTP boundary.
type ActivityLog struct {
	// ID is the unique identifier for the entry (UUID format).
	ID string

	// UserID and UserName identify the actor. Opaque to the core.
	UserID   string
	UserName string

	// Action is the kind of mutation performed.
	Action ActionKind

	// Category is the view mode the mutation happened under.
	Category ViewMode

	// Description is a full human-readable sentence.
	Description string

	// PersonName is the counterparty involved, if any.
	PersonName string

	// Amount is the numeric amount involved, if any.
	Amount float64

	// CreatedAt is the Unix timestamp of the entry.
	CreatedAt int64
}
