package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/mkessler-dev/schoolday/internal/db"
	"github.com/mkessler-dev/schoolday/internal/domain"
)

// SQLiteBibleProgressRepo implements BibleProgressRepo using a SQLite database.
type SQLiteBibleProgressRepo struct {
	db db.DBTX
}

// NewSQLiteBibleProgressRepo creates a new SQLiteBibleProgressRepo.
func NewSQLiteBibleProgressRepo(conn db.DBTX) *SQLiteBibleProgressRepo {
	return &SQLiteBibleProgressRepo{db: conn}
}

// Get returns the student's position, starting at zero for unseen students.
func (r *SQLiteBibleProgressRepo) Get(ctx context.Context, studentID string) (*domain.BibleProgress, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT student_id, position FROM bible_progress WHERE student_id = ?`, studentID)

	var p domain.BibleProgress
	if err := row.Scan(&p.StudentID, &p.Position); err != nil {
		if err == sql.ErrNoRows {
			return &domain.BibleProgress{StudentID: studentID, Position: 0}, nil
		}
		return nil, fmt.Errorf("scanning bible progress: %w", err)
	}
	return &p, nil
}

func (r *SQLiteBibleProgressRepo) Set(ctx context.Context, studentID string, position int) error {
	query := `INSERT INTO bible_progress (student_id, position) VALUES (?, ?)
		ON CONFLICT(student_id) DO UPDATE SET position = excluded.position`
	if _, err := r.db.ExecContext(ctx, query, studentID, position); err != nil {
		return fmt.Errorf("setting bible progress: %w", err)
	}
	return nil
}
