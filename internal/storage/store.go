// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"

	"github.com/adiallo/debtbook/internal/models"
)

// ErrNotFound is returned when a referenced person or transaction is
// absent from the active store.
var ErrNotFound = errors.New("not found")

// Store defines the persistence boundary for the ledger: CRUD
// primitives over persons, transactions, settled records and activity
// logs, keyed by opaque identifiers. This abstraction allows swapping
// backends (SQLite, PostgreSQL, ...) without touching the service layer.
type Store interface {
	// CreatePerson persists a new person. The ID field is populated if
	// empty.
	CreatePerson(ctx context.Context, person *models.Person) error

	// GetPerson retrieves a person with their full transaction log,
	// newest entries first. Returns ErrNotFound if absent.
	GetPerson(ctx context.Context, personID string) (*models.Person, error)

	// GetPersonByName looks a person up by case-insensitive name.
	// Returns ErrNotFound if absent.
	GetPersonByName(ctx context.Context, name string) (*models.Person, error)

	// ListPersons returns every person with their transactions, persons
	// ordered by name, transactions newest first.
	ListPersons(ctx context.Context) ([]*models.Person, error)

	// DeletePerson removes a person row. Their transactions must be
	// deleted first (or cascade).
	DeletePerson(ctx context.Context, personID string) error

	// CreateTransaction appends a ledger entry. The ID field is
	// populated if empty.
	CreateTransaction(ctx context.Context, tx *models.Transaction) error

	// GetTransaction retrieves a single entry. Returns ErrNotFound if
	// absent.
	GetTransaction(ctx context.Context, txID string) (*models.Transaction, error)

	// UpdateTransactionAmount rewrites the amount, original amount and
	// settled flag of one entry. Only the settlement zeroing and
	// unsettle-restore steps call this.
	UpdateTransactionAmount(ctx context.Context, txID string, amount, originalAmount float64, settled bool) error

	// DeleteTransactionsByPerson removes a person's entire log.
	DeleteTransactionsByPerson(ctx context.Context, personID string) error

	// CreateSettledRecord writes an immutable archive snapshot.
	CreateSettledRecord(ctx context.Context, rec *models.SettledRecord) error

	// ListSettledRecords returns all archives, newest first.
	ListSettledRecords(ctx context.Context) ([]*models.SettledRecord, error)

	// CreateActivityLog appends an audit trail entry.
	CreateActivityLog(ctx context.Context, entry *models.ActivityLog) error

	// ListActivityLogs returns the most recent entries, newest first.
	ListActivityLogs(ctx context.Context, limit int) ([]*models.ActivityLog, error)

	// Close releases any resources held by the store.
	Close() error
}
