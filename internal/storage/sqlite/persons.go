package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/adiallo/debtbook/internal/models"
	"github.com/adiallo/debtbook/internal/storage"
)

// CreatePerson persists a new person.
func (s *SQLiteStore) CreatePerson(ctx context.Context, person *models.Person) error {
	if person.ID == "" {
		person.ID = uuid.New().String()
	}
	if person.CreatedAt == 0 {
		person.CreatedAt = time.Now().Unix()
	}

	var signature interface{}
	if person.Signature != "" {
		signature = person.Signature
	}

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO persons (id, name, signature, created_at) VALUES (?, ?, ?, ?)",
		person.ID, person.Name, signature, person.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert person: %w", err)
	}
	return nil
}

func (s *SQLiteStore) getPersonRow(ctx context.Context, query string, arg interface{}) (*models.Person, error) {
	person := &models.Person{}
	var signature sql.NullString

	err := s.db.QueryRowContext(ctx, query, arg).
		Scan(&person.ID, &person.Name, &signature, &person.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("person %v: %w", arg, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get person: %w", err)
	}
	person.Signature = signature.String

	person.Transactions, err = s.listTransactionsByPerson(ctx, person.ID)
	if err != nil {
		return nil, err
	}
	return person, nil
}

// GetPerson retrieves a person and their full transaction log.
func (s *SQLiteStore) GetPerson(ctx context.Context, personID string) (*models.Person, error) {
	return s.getPersonRow(ctx,
		"SELECT id, name, signature, created_at FROM persons WHERE id = ?", personID)
}

// GetPersonByName looks a person up by case-insensitive name.
func (s *SQLiteStore) GetPersonByName(ctx context.Context, name string) (*models.Person, error) {
	return s.getPersonRow(ctx,
		"SELECT id, name, signature, created_at FROM persons WHERE name = ? COLLATE NOCASE", name)
}

// ListPersons returns every person with their transactions. Persons are
// ordered by name; each log is newest first. Transactions are loaded in
// a single query and grouped in memory to avoid N+1 round trips.
func (s *SQLiteStore) ListPersons(ctx context.Context) ([]*models.Person, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, name, signature, created_at FROM persons ORDER BY name ASC")
	if err != nil {
		return nil, fmt.Errorf("failed to query persons: %w", err)
	}
	defer rows.Close()

	var persons []*models.Person
	byID := make(map[string]*models.Person)
	for rows.Next() {
		person := &models.Person{}
		var signature sql.NullString
		if err := rows.Scan(&person.ID, &person.Name, &signature, &person.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan person: %w", err)
		}
		person.Signature = signature.String
		persons = append(persons, person)
		byID[person.ID] = person
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate persons: %w", err)
	}

	txRows, err := s.db.QueryContext(ctx,
		"SELECT "+txColumns+" FROM transactions ORDER BY date DESC, created_at DESC")
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer txRows.Close()

	for txRows.Next() {
		tx, err := scanTransaction(txRows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		if person, ok := byID[tx.PersonID]; ok {
			person.Transactions = append(person.Transactions, tx)
		}
	}
	if err := txRows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate transactions: %w", err)
	}

	return persons, nil
}

// DeletePerson removes a person row.
func (s *SQLiteStore) DeletePerson(ctx context.Context, personID string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM persons WHERE id = ?", personID)
	if err != nil {
		return fmt.Errorf("failed to delete person: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("person %s: %w", personID, storage.ErrNotFound)
	}
	return nil
}
