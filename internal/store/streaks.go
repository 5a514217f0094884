package store

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// ErrStreakNotFound is returned when no streak has been recorded yet
var ErrStreakNotFound = errors.New("streak not found")

// GetStreak retrieves the stored streak of the given type
func (db *DB) GetStreak(ctx context.Context, userID int64, streakType StreakType) (*StreakRecord, error) {
	var rec StreakRecord
	var st, updatedAt string

	err := db.QueryRowContext(ctx, `
		SELECT user_id, streak_type, current_count, best_count, last_activity_date, updated_at
		FROM streaks
		WHERE user_id = ? AND streak_type = ?
	`, userID, string(streakType)).Scan(
		&rec.UserID, &st, &rec.CurrentCount, &rec.BestCount, &rec.LastActivityDate, &updatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrStreakNotFound
	}
	if err != nil {
		return nil, err
	}

	rec.StreakType = StreakType(st)
	if rec.UpdatedAt, err = parseTime("updated_at", updatedAt); err != nil {
		return nil, err
	}
	return &rec, nil
}

// WriteStreak stores the streak as given. Callers are responsible for
// carrying the best count forward.
func (db *DB) WriteStreak(ctx context.Context, rec *StreakRecord) error {
	if rec.UpdatedAt.IsZero() {
		rec.UpdatedAt = time.Now().UTC()
	}
	_, err := db.ExecContext(ctx, `
		INSERT INTO streaks (user_id, streak_type, current_count, best_count, last_activity_date, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id, streak_type) DO UPDATE SET
			current_count = excluded.current_count,
			best_count = excluded.best_count,
			last_activity_date = excluded.last_activity_date,
			updated_at = excluded.updated_at
	`, rec.UserID, string(rec.StreakType), rec.CurrentCount, rec.BestCount, rec.LastActivityDate,
		rec.UpdatedAt.Format(time.RFC3339))
	return err
}
