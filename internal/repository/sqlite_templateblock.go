package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/mkessler-dev/schoolday/internal/db"
	"github.com/mkessler-dev/schoolday/internal/domain"
)

// templateBlockColumns is the canonical SELECT column list for template_blocks.
const templateBlockColumns = `id, student_id, weekday, block_number, start_minute, end_minute,
		subject, block_type, fixed_kind, created_at, updated_at`

// SQLiteTemplateBlockRepo implements TemplateBlockRepo using a SQLite database.
type SQLiteTemplateBlockRepo struct {
	db db.DBTX
}

// NewSQLiteTemplateBlockRepo creates a new SQLiteTemplateBlockRepo.
func NewSQLiteTemplateBlockRepo(conn db.DBTX) *SQLiteTemplateBlockRepo {
	return &SQLiteTemplateBlockRepo{db: conn}
}

func (r *SQLiteTemplateBlockRepo) Create(ctx context.Context, b *domain.TemplateBlock) error {
	query := `INSERT INTO template_blocks (` + templateBlockColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		b.ID,
		b.StudentID,
		int(b.Weekday),
		b.BlockNumber,
		b.StartMinute,
		b.EndMinute,
		b.Subject,
		string(b.BlockType),
		b.FixedKind,
		b.CreatedAt.Format(time.RFC3339),
		b.UpdatedAt.Format(time.RFC3339),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("template block %s/%d/%d: %w", b.StudentID, b.Weekday, b.BlockNumber, ErrDuplicate)
		}
		return fmt.Errorf("inserting template block: %w", err)
	}
	return nil
}

func (r *SQLiteTemplateBlockRepo) GetByID(ctx context.Context, id string) (*domain.TemplateBlock, error) {
	query := `SELECT ` + templateBlockColumns + ` FROM template_blocks WHERE id = ?`
	return r.scanTemplateBlock(r.db.QueryRowContext(ctx, query, id))
}

func (r *SQLiteTemplateBlockRepo) ListByStudentWeekday(ctx context.Context, studentID string, weekday time.Weekday) ([]*domain.TemplateBlock, error) {
	query := `SELECT ` + templateBlockColumns + ` FROM template_blocks
		WHERE student_id = ? AND weekday = ?
		ORDER BY start_minute, block_number`
	rows, err := r.db.QueryContext(ctx, query, studentID, int(weekday))
	if err != nil {
		return nil, fmt.Errorf("listing template blocks by weekday: %w", err)
	}
	defer rows.Close()
	return r.scanTemplateBlocks(rows)
}

func (r *SQLiteTemplateBlockRepo) ListByStudent(ctx context.Context, studentID string) ([]*domain.TemplateBlock, error) {
	query := `SELECT ` + templateBlockColumns + ` FROM template_blocks
		WHERE student_id = ?
		ORDER BY weekday, start_minute, block_number`
	rows, err := r.db.QueryContext(ctx, query, studentID)
	if err != nil {
		return nil, fmt.Errorf("listing template blocks by student: %w", err)
	}
	defer rows.Close()
	return r.scanTemplateBlocks(rows)
}

func (r *SQLiteTemplateBlockRepo) ReplaceForStudent(ctx context.Context, studentID string, blocks []*domain.TemplateBlock) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM template_blocks WHERE student_id = ?`, studentID); err != nil {
		return fmt.Errorf("clearing template for student %s: %w", studentID, err)
	}
	for _, b := range blocks {
		if err := r.Create(ctx, b); err != nil {
			return err
		}
	}
	return nil
}

func (r *SQLiteTemplateBlockRepo) scanTemplateBlock(row *sql.Row) (*domain.TemplateBlock, error) {
	var b domain.TemplateBlock
	var weekdayInt int
	var blockTypeStr, createdAtStr, updatedAtStr string

	err := row.Scan(
		&b.ID, &b.StudentID, &weekdayInt, &b.BlockNumber, &b.StartMinute, &b.EndMinute,
		&b.Subject, &blockTypeStr, &b.FixedKind, &createdAtStr, &updatedAtStr,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("template block: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("scanning template block: %w", err)
	}
	return r.populateTemplateBlock(&b, weekdayInt, blockTypeStr, createdAtStr, updatedAtStr)
}

func (r *SQLiteTemplateBlockRepo) scanTemplateBlocks(rows *sql.Rows) ([]*domain.TemplateBlock, error) {
	var blocks []*domain.TemplateBlock
	for rows.Next() {
		var b domain.TemplateBlock
		var weekdayInt int
		var blockTypeStr, createdAtStr, updatedAtStr string

		err := rows.Scan(
			&b.ID, &b.StudentID, &weekdayInt, &b.BlockNumber, &b.StartMinute, &b.EndMinute,
			&b.Subject, &blockTypeStr, &b.FixedKind, &createdAtStr, &updatedAtStr,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning template block row: %w", err)
		}
		block, err := r.populateTemplateBlock(&b, weekdayInt, blockTypeStr, createdAtStr, updatedAtStr)
		if err != nil {
			return nil, err
		}
		blocks = append(blocks, block)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating template blocks: %w", err)
	}
	return blocks, nil
}

func (r *SQLiteTemplateBlockRepo) populateTemplateBlock(b *domain.TemplateBlock, weekdayInt int, blockTypeStr, createdAtStr, updatedAtStr string) (*domain.TemplateBlock, error) {
	b.Weekday = time.Weekday(weekdayInt)
	b.BlockType = domain.BlockType(blockTypeStr)

	var parseErr error
	b.CreatedAt, parseErr = time.Parse(time.RFC3339, createdAtStr)
	if parseErr != nil {
		return nil, fmt.Errorf("parsing created_at: %w", parseErr)
	}
	b.UpdatedAt, parseErr = time.Parse(time.RFC3339, updatedAtStr)
	if parseErr != nil {
		return nil, fmt.Errorf("parsing updated_at: %w", parseErr)
	}
	return b, nil
}
