package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/adiallo/debtbook/internal/models"
)

// CreateActivityLog appends an audit trail entry.
func (s *SQLiteStore) CreateActivityLog(ctx context.Context, entry *models.ActivityLog) error {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if entry.CreatedAt == 0 {
		entry.CreatedAt = time.Now().Unix()
	}

	var personName, userID, userName interface{}
	if entry.PersonName != "" {
		personName = entry.PersonName
	}
	if entry.UserID != "" {
		userID = entry.UserID
	}
	if entry.UserName != "" {
		userName = entry.UserName
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO activity_logs (id, user_id, user_name, action, category, description,
		 person_name, amount, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID, userID, userName, string(entry.Action), string(entry.Category),
		entry.Description, personName, entry.Amount, entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert activity log: %w", err)
	}
	return nil
}

// ListActivityLogs returns the most recent entries, newest first.
func (s *SQLiteStore) ListActivityLogs(ctx context.Context, limit int) ([]*models.ActivityLog, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, user_name, action, category, description, person_name, amount, created_at
		 FROM activity_logs ORDER BY created_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query activity logs: %w", err)
	}
	defer rows.Close()

	var entries []*models.ActivityLog
	for rows.Next() {
		entry := &models.ActivityLog{}
		var (
			userID, userName, personName sql.NullString
			action, category             string
			amount                       sql.NullFloat64
		)
		if err := rows.Scan(&entry.ID, &userID, &userName, &action, &category,
			&entry.Description, &personName, &amount, &entry.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan activity log: %w", err)
		}
		entry.UserID = userID.String
		entry.UserName = userName.String
		entry.Action = models.ActionKind(action)
		entry.Category = models.ViewMode(category)
		entry.PersonName = personName.String
		entry.Amount = amount.Float64
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate activity logs: %w", err)
	}
	return entries, nil
}
