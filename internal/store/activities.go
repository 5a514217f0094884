package store

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// ErrActivityNotFound is returned when an activity doesn't exist
var ErrActivityNotFound = errors.New("activity not found")

const activityColumns = `id, athlete_id, name, type, start_date, start_date_local, timezone,
	distance, moving_time, elapsed_time, total_elevation_gain, average_speed, calories`

// UpsertActivity inserts or updates an activity
func (db *DB) UpsertActivity(ctx context.Context, a *Activity) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO activities (
			id, athlete_id, name, type, start_date, start_date_local, timezone,
			distance, moving_time, elapsed_time, total_elevation_gain,
			average_speed, calories, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(id) DO UPDATE SET
			athlete_id = excluded.athlete_id,
			name = excluded.name,
			type = excluded.type,
			start_date = excluded.start_date,
			start_date_local = excluded.start_date_local,
			timezone = excluded.timezone,
			distance = excluded.distance,
			moving_time = excluded.moving_time,
			elapsed_time = excluded.elapsed_time,
			total_elevation_gain = excluded.total_elevation_gain,
			average_speed = excluded.average_speed,
			calories = excluded.calories,
			updated_at = CURRENT_TIMESTAMP
	`,
		a.ID, a.AthleteID, a.Name, a.Type,
		a.StartDate.Format(time.RFC3339), a.StartDateLocal.Format(time.RFC3339), a.Timezone,
		a.Distance, a.MovingTime, a.ElapsedTime, a.TotalElevationGain,
		a.AverageSpeed, a.Calories,
	)
	return err
}

// GetActivity retrieves an activity by ID
func (db *DB) GetActivity(ctx context.Context, id int64) (*Activity, error) {
	row := db.QueryRowContext(ctx, `SELECT `+activityColumns+` FROM activities WHERE id = ?`, id)

	a, err := scanActivity(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrActivityNotFound
	}
	return a, err
}

// ListActivities returns all activities for a user ordered by start date ascending
func (db *DB) ListActivities(ctx context.Context, userID int64) ([]Activity, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT `+activityColumns+`
		FROM activities
		WHERE athlete_id = ?
		ORDER BY start_date ASC, id ASC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var activities []Activity
	for rows.Next() {
		a, err := scanActivity(rows)
		if err != nil {
			return nil, err
		}
		activities = append(activities, *a)
	}

	return activities, rows.Err()
}

// LatestActivity returns the most recent activity for a user
func (db *DB) LatestActivity(ctx context.Context, userID int64) (*Activity, error) {
	row := db.QueryRowContext(ctx, `
		SELECT `+activityColumns+`
		FROM activities
		WHERE athlete_id = ?
		ORDER BY start_date DESC, id DESC
		LIMIT 1
	`, userID)

	a, err := scanActivity(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrActivityNotFound
	}
	return a, err
}

// CountActivities returns the number of activities for a user
func (db *DB) CountActivities(ctx context.Context, userID int64) (int, error) {
	var count int
	err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM activities WHERE athlete_id = ?`, userID).Scan(&count)
	return count, err
}

// CountActivitiesByType returns the number of activities of one type for a user
func (db *DB) CountActivitiesByType(ctx context.Context, userID int64, activityType string) (int, error) {
	var count int
	err := db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM activities WHERE athlete_id = ? AND type = ?
	`, userID, activityType).Scan(&count)
	return count, err
}

func scanActivity(row scanner) (*Activity, error) {
	var a Activity
	var startDate, startDateLocal string

	err := row.Scan(
		&a.ID, &a.AthleteID, &a.Name, &a.Type, &startDate, &startDateLocal, &a.Timezone,
		&a.Distance, &a.MovingTime, &a.ElapsedTime, &a.TotalElevationGain,
		&a.AverageSpeed, &a.Calories,
	)
	if err != nil {
		return nil, err
	}

	if a.StartDate, err = parseTime("start_date", startDate); err != nil {
		return nil, err
	}
	if a.StartDateLocal, err = parseTime("start_date_local", startDateLocal); err != nil {
		return nil, err
	}

	return &a, nil
}
