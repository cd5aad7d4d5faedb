package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/mkessler-dev/schoolday/internal/db"
	"github.com/mkessler-dev/schoolday/internal/domain"
)

// SQLiteFocusSessionRepo implements FocusSessionRepo using a SQLite database.
// One row per student; the completed-block set is stored as a JSON array.
type SQLiteFocusSessionRepo struct {
	db db.DBTX
}

// NewSQLiteFocusSessionRepo creates a new SQLiteFocusSessionRepo.
func NewSQLiteFocusSessionRepo(conn db.DBTX) *SQLiteFocusSessionRepo {
	return &SQLiteFocusSessionRepo{db: conn}
}

func (r *SQLiteFocusSessionRepo) Get(ctx context.Context, studentID string) (*domain.FocusSession, error) {
	query := `SELECT student_id, date, time_remaining_seconds, completed_block_ids, last_saved_at
		FROM focus_sessions WHERE student_id = ?`
	row := r.db.QueryRowContext(ctx, query, studentID)

	var s domain.FocusSession
	var dateStr, completedJSON, lastSavedAtStr string
	if err := row.Scan(&s.StudentID, &dateStr, &s.TimeRemainingSeconds, &completedJSON, &lastSavedAtStr); err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("focus session: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("scanning focus session: %w", err)
	}

	var ids []string
	if err := json.Unmarshal([]byte(completedJSON), &ids); err != nil {
		return nil, fmt.Errorf("parsing completed block ids: %w", err)
	}
	s.CompletedBlockIDs = make(map[string]bool, len(ids))
	for _, id := range ids {
		s.CompletedBlockIDs[id] = true
	}

	var parseErr error
	s.Date, parseErr = time.Parse(dateLayout, dateStr)
	if parseErr != nil {
		return nil, fmt.Errorf("parsing focus session date: %w", parseErr)
	}
	s.LastSavedAt, parseErr = time.Parse(time.RFC3339, lastSavedAtStr)
	if parseErr != nil {
		return nil, fmt.Errorf("parsing last_saved_at: %w", parseErr)
	}
	return &s, nil
}

func (r *SQLiteFocusSessionRepo) Save(ctx context.Context, s *domain.FocusSession) error {
	ids := make([]string, 0, len(s.CompletedBlockIDs))
	for id := range s.CompletedBlockIDs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	completedJSON, err := json.Marshal(ids)
	if err != nil {
		return fmt.Errorf("encoding completed block ids: %w", err)
	}

	query := `INSERT INTO focus_sessions (student_id, date, time_remaining_seconds, completed_block_ids, last_saved_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(student_id) DO UPDATE SET
			date = excluded.date,
			time_remaining_seconds = excluded.time_remaining_seconds,
			completed_block_ids = excluded.completed_block_ids,
			last_saved_at = excluded.last_saved_at`
	_, err = r.db.ExecContext(ctx, query,
		s.StudentID,
		dateString(s.Date),
		s.TimeRemainingSeconds,
		string(completedJSON),
		s.LastSavedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("saving focus session: %w", err)
	}
	return nil
}

func (r *SQLiteFocusSessionRepo) Delete(ctx context.Context, studentID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM focus_sessions WHERE student_id = ?`, studentID); err != nil {
		return fmt.Errorf("deleting focus session: %w", err)
	}
	return nil
}
