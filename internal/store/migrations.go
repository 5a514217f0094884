package store

import "database/sql"

// migrate runs all database migrations
func migrate(db *sql.DB) error {
	migrations := []string{
		// Authentication (singleton row)
		`CREATE TABLE IF NOT EXISTS auth (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			athlete_id INTEGER NOT NULL,
			access_token TEXT NOT NULL,
			refresh_token TEXT NOT NULL,
			expires_at INTEGER NOT NULL,
			created_at TEXT DEFAULT CURRENT_TIMESTAMP,
			updated_at TEXT DEFAULT CURRENT_TIMESTAMP
		)`,

		// Activities (summary data from /athlete/activities)
		`CREATE TABLE IF NOT EXISTS activities (
			id INTEGER PRIMARY KEY,
			athlete_id INTEGER NOT NULL,
			name TEXT NOT NULL,
			type TEXT NOT NULL,
			start_date TEXT NOT NULL,
			start_date_local TEXT NOT NULL,
			timezone TEXT NOT NULL DEFAULT '',
			distance REAL NOT NULL CHECK (distance >= 0),
			moving_time INTEGER NOT NULL CHECK (moving_time >= 0),
			elapsed_time INTEGER NOT NULL,
			total_elevation_gain REAL NOT NULL DEFAULT 0,
			average_speed REAL NOT NULL DEFAULT 0,
			calories REAL NOT NULL DEFAULT 0,
			created_at TEXT DEFAULT CURRENT_TIMESTAMP,
			updated_at TEXT DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE INDEX IF NOT EXISTS idx_activities_athlete_start ON activities(athlete_id, start_date)`,
		`CREATE INDEX IF NOT EXISTS idx_activities_type ON activities(type)`,

		// Achievement catalog (seeded once)
		`CREATE TABLE IF NOT EXISTS achievements (
			id INTEGER PRIMARY KEY,
			key TEXT NOT NULL UNIQUE,
			name TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			icon TEXT NOT NULL DEFAULT '',
			category TEXT NOT NULL,
			threshold REAL NOT NULL,
			activity_type TEXT NOT NULL DEFAULT ''
		)`,

		// Unlocks: at most one per (user, achievement)
		`CREATE TABLE IF NOT EXISTS achievement_unlocks (
			user_id INTEGER NOT NULL,
			achievement_id INTEGER NOT NULL,
			unlocked_at TEXT NOT NULL,
			source_activity_id INTEGER,
			PRIMARY KEY (user_id, achievement_id),
			FOREIGN KEY (achievement_id) REFERENCES achievements(id) ON DELETE CASCADE
		)`,

		// Streaks (one row per user and streak type)
		`CREATE TABLE IF NOT EXISTS streaks (
			user_id INTEGER NOT NULL,
			streak_type TEXT NOT NULL CHECK (streak_type IN ('daily', 'weekly')),
			current_count INTEGER NOT NULL,
			best_count INTEGER NOT NULL,
			last_activity_date TEXT NOT NULL DEFAULT '',
			updated_at TEXT NOT NULL,
			PRIMARY KEY (user_id, streak_type)
		)`,

		// Alerts emitted by the insight engine
		`CREATE TABLE IF NOT EXISTS alerts (
			id TEXT PRIMARY KEY,
			user_id INTEGER NOT NULL,
			type TEXT NOT NULL,
			title TEXT NOT NULL,
			message TEXT NOT NULL,
			priority TEXT NOT NULL,
			action_ref TEXT NOT NULL DEFAULT '',
			is_read INTEGER NOT NULL DEFAULT 0,
			created_at TEXT NOT NULL
		)`,

		`CREATE INDEX IF NOT EXISTS idx_alerts_user_type ON alerts(user_id, type, created_at)`,

		// Sync State (key-value store for sync tracking)
		`CREATE TABLE IF NOT EXISTS sync_state (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			updated_at TEXT DEFAULT CURRENT_TIMESTAMP
		)`,
	}

	for _, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			return err
		}
	}

	return nil
}
