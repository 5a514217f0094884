package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// ErrAchievementNotFound is returned when no catalog entry has the requested key
var ErrAchievementNotFound = errors.New("achievement not found")

// CountAchievements returns the size of the achievement catalog
func (db *DB) CountAchievements(ctx context.Context) (int, error) {
	var count int
	err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM achievements`).Scan(&count)
	return count, err
}

// SeedCatalog inserts the given definitions in a single transaction.
// Definitions whose key already exists are left untouched, so seeding twice is a no-op.
func (db *DB) SeedCatalog(ctx context.Context, defs []Achievement) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO achievements (key, name, description, icon, category, threshold, activity_type)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(key) DO NOTHING
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for _, d := range defs {
		if !d.Category.Valid() {
			return fmt.Errorf("achievement %q: unknown category %q", d.Key, d.Category)
		}
		if _, err := stmt.ExecContext(ctx,
			d.Key, d.Name, d.Description, d.Icon, string(d.Category), d.Threshold, d.ActivityType,
		); err != nil {
			return fmt.Errorf("inserting achievement %q: %w", d.Key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	return nil
}

// GetAchievementCatalog returns every catalog entry ordered by id
func (db *DB) GetAchievementCatalog(ctx context.Context) ([]Achievement, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, key, name, description, icon, category, threshold, activity_type
		FROM achievements
		ORDER BY id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var defs []Achievement
	for rows.Next() {
		d, err := scanAchievement(rows)
		if err != nil {
			return nil, err
		}
		defs = append(defs, *d)
	}

	return defs, rows.Err()
}

// GetAchievementByKey retrieves a single catalog entry
func (db *DB) GetAchievementByKey(ctx context.Context, key string) (*Achievement, error) {
	row := db.QueryRowContext(ctx, `
		SELECT id, key, name, description, icon, category, threshold, activity_type
		FROM achievements
		WHERE key = ?
	`, key)

	d, err := scanAchievement(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrAchievementNotFound
	}
	return d, err
}

// HasUnlock reports whether the user already unlocked the achievement with the given key
func (db *DB) HasUnlock(ctx context.Context, userID int64, key string) (bool, error) {
	var one int
	err := db.QueryRowContext(ctx, `
		SELECT 1
		FROM achievement_unlocks u
		JOIN achievements a ON a.id = u.achievement_id
		WHERE u.user_id = ? AND a.key = ?
	`, userID, key).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// WriteUnlock records an unlock. It returns false without error when the
// user already holds the achievement.
func (db *DB) WriteUnlock(ctx context.Context, userID, achievementID int64, sourceActivityID *int64) (bool, error) {
	result, err := db.ExecContext(ctx, `
		INSERT INTO achievement_unlocks (user_id, achievement_id, unlocked_at, source_activity_id)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(user_id, achievement_id) DO NOTHING
	`, userID, achievementID, time.Now().UTC().Format(time.RFC3339), sourceActivityID)
	if err != nil {
		return false, fmt.Errorf("inserting unlock: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// ListUnlocks returns every unlock for a user, most recent first
func (db *DB) ListUnlocks(ctx context.Context, userID int64) ([]UnlockRecord, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT user_id, achievement_id, unlocked_at, source_activity_id
		FROM achievement_unlocks
		WHERE user_id = ?
		ORDER BY unlocked_at DESC, achievement_id
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var unlocks []UnlockRecord
	for rows.Next() {
		var u UnlockRecord
		var unlockedAt string
		if err := rows.Scan(&u.UserID, &u.AchievementID, &unlockedAt, &u.SourceActivityID); err != nil {
			return nil, err
		}
		if u.UnlockedAt, err = parseTime("unlocked_at", unlockedAt); err != nil {
			return nil, err
		}
		unlocks = append(unlocks, u)
	}

	return unlocks, rows.Err()
}

func scanAchievement(row scanner) (*Achievement, error) {
	var d Achievement
	var category string
	if err := row.Scan(&d.ID, &d.Key, &d.Name, &d.Description, &d.Icon, &category, &d.Threshold, &d.ActivityType); err != nil {
		return nil, err
	}
	d.Category = AchievementCategory(category)
	return &d, nil
}
