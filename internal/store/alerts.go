package store

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// ErrAlertNotFound is returned when an alert does not exist for the user
var ErrAlertNotFound = errors.New("alert not found")

// CreateAlert stores an alert. ID and CreatedAt must be set by the caller.
func (db *DB) CreateAlert(ctx context.Context, a *Alert) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO alerts (id, user_id, type, title, message, priority, action_ref, is_read, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, a.ID, a.UserID, a.Type, a.Title, a.Message, a.Priority, a.ActionRef, boolToInt(a.Read),
		a.CreatedAt.UTC().Format(time.RFC3339))
	return err
}

// ListAlerts returns the most recent alerts for a user
func (db *DB) ListAlerts(ctx context.Context, userID int64, limit int) ([]Alert, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, user_id, type, title, message, priority, action_ref, is_read, created_at
		FROM alerts
		WHERE user_id = ?
		ORDER BY created_at DESC, rowid DESC
		LIMIT ?
	`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var alerts []Alert
	for rows.Next() {
		var a Alert
		var read int
		var createdAt string
		if err := rows.Scan(&a.ID, &a.UserID, &a.Type, &a.Title, &a.Message, &a.Priority,
			&a.ActionRef, &read, &createdAt); err != nil {
			return nil, err
		}
		a.Read = read == 1
		if a.CreatedAt, err = parseTime("created_at", createdAt); err != nil {
			return nil, err
		}
		alerts = append(alerts, a)
	}

	return alerts, rows.Err()
}

// LastAlertAt returns when the user last received an alert of the given type.
// ok is false when there is none.
func (db *DB) LastAlertAt(ctx context.Context, userID int64, alertType string) (t time.Time, ok bool, err error) {
	var createdAt sql.NullString
	err = db.QueryRowContext(ctx, `
		SELECT MAX(created_at) FROM alerts WHERE user_id = ? AND type = ?
	`, userID, alertType).Scan(&createdAt)
	if errors.Is(err, sql.ErrNoRows) || (err == nil && !createdAt.Valid) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, err
	}

	t, err = parseTime("created_at", createdAt.String)
	if err != nil {
		return time.Time{}, false, err
	}
	return t, true, nil
}

// MarkAlertRead flags one of userID's alerts as read
func (db *DB) MarkAlertRead(ctx context.Context, userID int64, id string) error {
	res, err := db.ExecContext(ctx, `UPDATE alerts SET is_read = 1 WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrAlertNotFound
	}
	return nil
}
