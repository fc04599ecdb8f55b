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

const txColumns = `id, person_id, description, comment, amount, original_amount,
	date, due_date, settled, is_payment, mode, signature, created_at`

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanTransaction(row rowScanner) (*models.Transaction, error) {
	tx := &models.Transaction{}
	var (
		comment   sql.NullString
		signature sql.NullString
		date      int64
		dueDate   sql.NullInt64
		mode      string
	)

	err := row.Scan(&tx.ID, &tx.PersonID, &tx.Description, &comment, &tx.Amount,
		&tx.OriginalAmount, &date, &dueDate, &tx.Settled, &tx.IsPayment,
		&mode, &signature, &tx.CreatedAt)
	if err != nil {
		return nil, err
	}

	tx.Comment = comment.String
	tx.Signature = signature.String
	tx.Date = time.Unix(date, 0).UTC()
	if dueDate.Valid {
		d := time.Unix(dueDate.Int64, 0).UTC()
		tx.DueDate = &d
	}
	tx.Mode = models.ViewMode(mode)
	return tx, nil
}

// CreateTransaction appends a ledger entry.
func (s *SQLiteStore) CreateTransaction(ctx context.Context, tx *models.Transaction) error {
	if tx.ID == "" {
		tx.ID = uuid.New().String()
	}
	if tx.CreatedAt == 0 {
		tx.CreatedAt = time.Now().Unix()
	}

	var comment interface{}
	if tx.Comment != "" {
		comment = tx.Comment
	}
	var signature interface{}
	if tx.Signature != "" {
		signature = tx.Signature
	}
	var dueDate interface{}
	if tx.DueDate != nil {
		dueDate = tx.DueDate.Unix()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO transactions (id, person_id, description, comment, amount, original_amount,
		 date, due_date, settled, is_payment, mode, signature, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		tx.ID, tx.PersonID, tx.Description, comment, tx.Amount, tx.OriginalAmount,
		tx.Date.Unix(), dueDate, tx.Settled, tx.IsPayment, string(tx.Mode), signature, tx.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert transaction: %w", err)
	}

	return nil
}

// GetTransaction retrieves a single entry by ID.
func (s *SQLiteStore) GetTransaction(ctx context.Context, txID string) (*models.Transaction, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+txColumns+" FROM transactions WHERE id = ?", txID)

	tx, err := scanTransaction(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("transaction %s: %w", txID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}
	return tx, nil
}

// UpdateTransactionAmount rewrites the amount, original amount and settled
// flag of one entry. Used by the per-row settle and unsettle steps.
func (s *SQLiteStore) UpdateTransactionAmount(ctx context.Context, txID string, amount, originalAmount float64, settled bool) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE transactions SET amount = ?, original_amount = ?, settled = ? WHERE id = ?",
		amount, originalAmount, settled, txID,
	)
	if err != nil {
		return fmt.Errorf("failed to update transaction amount: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("transaction %s: %w", txID, storage.ErrNotFound)
	}
	return nil
}

// DeleteTransactionsByPerson removes a person's entire log.
func (s *SQLiteStore) DeleteTransactionsByPerson(ctx context.Context, personID string) error {
	_, err := s.db.ExecContext(ctx,
		"DELETE FROM transactions WHERE person_id = ?", personID)
	if err != nil {
		return fmt.Errorf("failed to delete transactions for person %s: %w", personID, err)
	}
	return nil
}

// listTransactionsByPerson loads one person's log ordered newest first.
func (s *SQLiteStore) listTransactionsByPerson(ctx context.Context, personID string) ([]*models.Transaction, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+txColumns+" FROM transactions WHERE person_id = ? ORDER BY date DESC, created_at DESC",
		personID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()

	var txs []*models.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		txs = append(txs, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate transactions: %w", err)
	}
	return txs, nil
}
