package db

import (
	"database/sql"
	"fmt"
	"strings"
)

// Migrate runs all schema migrations.
func Migrate(db *sql.DB) error {
	for i, stmt := range migrations {
		if _, err := db.Exec(stmt); err != nil {
			// Tolerate "duplicate column name" errors from ALTER TABLE
			// since the migration system re-runs all statements.
			if strings.Contains(err.Error(), "duplicate column name") {
				continue
			}
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	return nil
}

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS template_blocks (
		id           TEXT PRIMARY KEY,
		student_id   TEXT NOT NULL,
		weekday      INTEGER NOT NULL CHECK(weekday BETWEEN 0 AND 6),
		block_number INTEGER NOT NULL CHECK(block_number >= 1),
		start_minute INTEGER NOT NULL CHECK(start_minute >= 0),
		end_minute   INTEGER NOT NULL CHECK(end_minute <= 1440),
		subject      TEXT NOT NULL DEFAULT '',
		block_type   TEXT NOT NULL
		             CHECK(block_type IN ('bible','assignment','fixed')),
		fixed_kind   TEXT NOT NULL DEFAULT '',
		created_at   TEXT NOT NULL,
		updated_at   TEXT NOT NULL,
		CHECK(start_minute < end_minute),
		UNIQUE(student_id, weekday, block_number)
	)`,

	`CREATE INDEX IF NOT EXISTS idx_template_blocks_student_weekday
		ON template_blocks(student_id, weekday)`,

	`CREATE TABLE IF NOT EXISTS assignments (
		id                     TEXT PRIMARY KEY,
		student_id             TEXT NOT NULL,
		title                  TEXT NOT NULL,
		normalized_title       TEXT NOT NULL,
		subject                TEXT NOT NULL DEFAULT '',
		course_name            TEXT NOT NULL DEFAULT '',
		instructions           TEXT NOT NULL DEFAULT '',
		notes                  TEXT NOT NULL DEFAULT '',
		due_date               TEXT,
		estimated_minutes      INTEGER NOT NULL DEFAULT 30,
		priority               TEXT NOT NULL DEFAULT 'B'
		                       CHECK(priority IN ('A','B','C')),
		status                 TEXT NOT NULL DEFAULT 'pending'
		                       CHECK(status IN ('pending','in_progress','completed','stuck','needs_more_time')),
		scheduled_date         TEXT,
		scheduled_block_number INTEGER,
		provenance             TEXT NOT NULL DEFAULT 'local'
		                       CHECK(provenance IN ('imported','local','derived')),
		source_id              TEXT NOT NULL DEFAULT '',
		source_course_id       TEXT NOT NULL DEFAULT '',
		time_spent_minutes     INTEGER NOT NULL DEFAULT 0,
		version                INTEGER NOT NULL DEFAULT 1,
		created_at             TEXT NOT NULL,
		updated_at             TEXT NOT NULL,
		CHECK((scheduled_date IS NULL) = (scheduled_block_number IS NULL))
	)`,

	// Natural import key: one imported row per (student, normalized title).
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_assignments_import_key
		ON assignments(student_id, normalized_title)
		WHERE provenance = 'imported'`,

	`CREATE INDEX IF NOT EXISTS idx_assignments_student_date
		ON assignments(student_id, scheduled_date)`,
	`CREATE INDEX IF NOT EXISTS idx_assignments_status
		ON assignments(status)`,

	`CREATE TABLE IF NOT EXISTS block_statuses (
		student_id        TEXT NOT NULL,
		date              TEXT NOT NULL,
		template_block_id TEXT NOT NULL REFERENCES template_blocks(id) ON DELETE CASCADE,
		state             TEXT NOT NULL DEFAULT 'pending'
		                  CHECK(state IN ('pending','in_progress','complete','stuck','overtime')),
		updated_at        TEXT NOT NULL,
		PRIMARY KEY(student_id, date, template_block_id)
	)`,

	`CREATE TABLE IF NOT EXISTS stuck_marks (
		id            TEXT PRIMARY KEY,
		assignment_id TEXT NOT NULL REFERENCES assignments(id) ON DELETE CASCADE,
		student_id    TEXT NOT NULL,
		date          TEXT NOT NULL,
		reason        TEXT NOT NULL DEFAULT '',
		notify_parent INTEGER NOT NULL DEFAULT 0,
		state         TEXT NOT NULL DEFAULT 'pending'
		              CHECK(state IN ('pending','committed','cancelled')),
		created_at    TEXT NOT NULL,
		commit_at     TEXT NOT NULL
	)`,

	// At most one live undo window per assignment.
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_stuck_marks_pending
		ON stuck_marks(assignment_id)
		WHERE state = 'pending'`,

	`CREATE TABLE IF NOT EXISTS focus_sessions (
		student_id             TEXT PRIMARY KEY,
		date                   TEXT NOT NULL,
		time_remaining_seconds INTEGER NOT NULL DEFAULT 0,
		completed_block_ids    TEXT NOT NULL DEFAULT '[]',
		last_saved_at          TEXT NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS student_profiles (
		student_id            TEXT PRIMARY KEY,
		saturday_school       INTEGER NOT NULL DEFAULT 0,
		bible_minutes         INTEGER NOT NULL DEFAULT 20,
		points_per_completion INTEGER NOT NULL DEFAULT 10
	)`,

	`CREATE TABLE IF NOT EXISTS bible_progress (
		student_id TEXT PRIMARY KEY,
		position   INTEGER NOT NULL DEFAULT 0
	)`,
}
