package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/mkessler-dev/schoolday/internal/db"
	"github.com/mkessler-dev/schoolday/internal/domain"
)

// SQLiteBlockStatusRepo implements BlockStatusRepo using a SQLite database.
type SQLiteBlockStatusRepo struct {
	db db.DBTX
}

// NewSQLiteBlockStatusRepo creates a new SQLiteBlockStatusRepo.
func NewSQLiteBlockStatusRepo(conn db.DBTX) *SQLiteBlockStatusRepo {
	return &SQLiteBlockStatusRepo{db: conn}
}

func (r *SQLiteBlockStatusRepo) Get(ctx context.Context, studentID string, date time.Time, templateBlockID string) (*domain.BlockStatus, error) {
	query := `SELECT student_id, date, state, updated_at FROM block_statuses
		WHERE student_id = ? AND date = ? AND template_block_id = ?`
	row := r.db.QueryRowContext(ctx, query, studentID, dateString(date), templateBlockID)

	var s domain.BlockStatus
	var dateStr, stateStr, updatedAtStr string
	if err := row.Scan(&s.StudentID, &dateStr, &stateStr, &updatedAtStr); err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("block status: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("scanning block status: %w", err)
	}
	s.TemplateBlockID = templateBlockID
	return populateBlockStatus(&s, dateStr, stateStr, updatedAtStr)
}

func (r *SQLiteBlockStatusRepo) ListByStudentDate(ctx context.Context, studentID string, date time.Time) ([]*domain.BlockStatus, error) {
	query := `SELECT student_id, date, template_block_id, state, updated_at
		FROM block_statuses WHERE student_id = ? AND date = ?`
	rows, err := r.db.QueryContext(ctx, query, studentID, dateString(date))
	if err != nil {
		return nil, fmt.Errorf("listing block statuses: %w", err)
	}
	defer rows.Close()

	var statuses []*domain.BlockStatus
	for rows.Next() {
		var s domain.BlockStatus
		var dateStr, stateStr, updatedAtStr string
		if err := rows.Scan(&s.StudentID, &dateStr, &s.TemplateBlockID, &stateStr, &updatedAtStr); err != nil {
			return nil, fmt.Errorf("scanning block status row: %w", err)
		}
		status, err := populateBlockStatus(&s, dateStr, stateStr, updatedAtStr)
		if err != nil {
			return nil, err
		}
		statuses = append(statuses, status)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating block statuses: %w", err)
	}
	return statuses, nil
}

func (r *SQLiteBlockStatusRepo) Upsert(ctx context.Context, s *domain.BlockStatus) error {
	query := `INSERT INTO block_statuses (student_id, date, template_block_id, state, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(student_id, date, template_block_id) DO UPDATE
		SET state = excluded.state, updated_at = excluded.updated_at`
	_, err := r.db.ExecContext(ctx, query,
		s.StudentID,
		dateString(s.Date),
		s.TemplateBlockID,
		string(s.State),
		s.UpdatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("upserting block status: %w", err)
	}
	return nil
}

func populateBlockStatus(s *domain.BlockStatus, dateStr, stateStr, updatedAtStr string) (*domain.BlockStatus, error) {
	s.State = domain.BlockState(stateStr)

	var parseErr error
	s.Date, parseErr = time.Parse(dateLayout, dateStr)
	if parseErr != nil {
		return nil, fmt.Errorf("parsing block status date: %w", parseErr)
	}
	s.UpdatedAt, parseErr = time.Parse(time.RFC3339, updatedAtStr)
	if parseErr != nil {
		return nil, fmt.Errorf("parsing updated_at: %w", parseErr)
	}
	return s, nil
}
