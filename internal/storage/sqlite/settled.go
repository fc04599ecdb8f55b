package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/adiallo/debtbook/internal/models"
)

// CreateSettledRecord writes an immutable archive snapshot. The frozen
// transaction copies are serialized to JSON, not stored as live rows.
func (s *SQLiteStore) CreateSettledRecord(ctx context.Context, rec *models.SettledRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.SettledAt == 0 {
		rec.SettledAt = time.Now().Unix()
	}

	frozen, err := json.Marshal(rec.Transactions)
	if err != nil {
		return fmt.Errorf("failed to marshal frozen transactions: %w", err)
	}

	var userID, userName, notes interface{}
	if rec.SettledByUserID != "" {
		userID = rec.SettledByUserID
	}
	if rec.SettledByUserName != "" {
		userName = rec.SettledByUserName
	}
	if rec.Notes != "" {
		notes = rec.Notes
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO settled_records (id, person_id, person_name, total_amount, currency, type,
		 settled_by_user_id, settled_by_user_name, transactions, settled_at, notes)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.PersonID, rec.PersonName, rec.TotalAmount, rec.Currency, string(rec.Type),
		userID, userName, string(frozen), rec.SettledAt, notes,
	)
	if err != nil {
		return fmt.Errorf("failed to insert settled record: %w", err)
	}
	return nil
}

// ListSettledRecords returns all archives, newest first.
func (s *SQLiteStore) ListSettledRecords(ctx context.Context) ([]*models.SettledRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, person_id, person_name, total_amount, currency, type,
		 settled_by_user_id, settled_by_user_name, transactions, settled_at, notes
		 FROM settled_records ORDER BY settled_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query settled records: %w", err)
	}
	defer rows.Close()

	var records []*models.SettledRecord
	for rows.Next() {
		rec := &models.SettledRecord{}
		var (
			userID, userName, notes sql.NullString
			frozen                  string
			typ                     string
		)
		if err := rows.Scan(&rec.ID, &rec.PersonID, &rec.PersonName, &rec.TotalAmount,
			&rec.Currency, &typ, &userID, &userName, &frozen, &rec.SettledAt, &notes); err != nil {
			return nil, fmt.Errorf("failed to scan settled record: %w", err)
		}
		rec.Type = models.ViewMode(typ)
		rec.SettledByUserID = userID.String
		rec.SettledByUserName = userName.String
		rec.Notes = notes.String
		if err := json.Unmarshal([]byte(frozen), &rec.Transactions); err != nil {
			return nil, fmt.Errorf("failed to unmarshal frozen transactions: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate settled records: %w", err)
	}
	return records, nil
}
