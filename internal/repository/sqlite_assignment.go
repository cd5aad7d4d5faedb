package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/mkessler-dev/schoolday/internal/db"
	"github.com/mkessler-dev/schoolday/internal/domain"
)

// assignmentColumns is the canonical SELECT column list for assignments.
const assignmentColumns = `id, student_id, title, normalized_title, subject, course_name,
		instructions, notes, due_date, estimated_minutes, priority, status,
		scheduled_date, scheduled_block_number, provenance, source_id, source_course_id,
		time_spent_minutes, version, created_at, updated_at`

// SQLiteAssignmentRepo implements AssignmentRepo using a SQLite database.
type SQLiteAssignmentRepo struct {
	db db.DBTX
}

// NewSQLiteAssignmentRepo creates a new SQLiteAssignmentRepo.
func NewSQLiteAssignmentRepo(conn db.DBTX) *SQLiteAssignmentRepo {
	return &SQLiteAssignmentRepo{db: conn}
}

func (r *SQLiteAssignmentRepo) Create(ctx context.Context, a *domain.Assignment) error {
	query := `INSERT INTO assignments (` + assignmentColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		a.ID,
		a.StudentID,
		a.Title,
		a.NormalizedTitle(),
		a.Subject,
		a.CourseName,
		a.Instructions,
		a.Notes,
		nullableTimeToString(a.DueDate, dateLayout),
		a.EstimatedMinutes,
		string(a.Priority),
		string(a.Status),
		nullableTimeToString(a.ScheduledDate, dateLayout),
		nullableIntToValue(a.ScheduledBlockNumber),
		string(a.Provenance),
		a.SourceID,
		a.SourceCourseID,
		a.TimeSpentMinutes,
		a.Version,
		a.CreatedAt.Format(time.RFC3339),
		a.UpdatedAt.Format(time.RFC3339),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("assignment %s/%q: %w", a.StudentID, a.NormalizedTitle(), ErrDuplicate)
		}
		return fmt.Errorf("inserting assignment: %w", err)
	}
	return nil
}

func (r *SQLiteAssignmentRepo) GetByID(ctx context.Context, id string) (*domain.Assignment, error) {
	query := `SELECT ` + assignmentColumns + ` FROM assignments WHERE id = ?`
	return r.scanAssignment(r.db.QueryRowContext(ctx, query, id))
}

func (r *SQLiteAssignmentRepo) FindByNaturalKey(ctx context.Context, studentID, normalizedTitle string) (*domain.Assignment, error) {
	query := `SELECT ` + assignmentColumns + ` FROM assignments
		WHERE student_id = ? AND normalized_title = ? AND provenance = 'imported'`
	return r.scanAssignment(r.db.QueryRowContext(ctx, query, studentID, normalizedTitle))
}

func (r *SQLiteAssignmentRepo) ListByStudentDate(ctx context.Context, studentID string, date time.Time) ([]*domain.Assignment, error) {
	query := `SELECT ` + assignmentColumns + ` FROM assignments
		WHERE student_id = ? AND scheduled_date = ?
		ORDER BY scheduled_block_number`
	rows, err := r.db.QueryContext(ctx, query, studentID, dateString(date))
	if err != nil {
		return nil, fmt.Errorf("listing assignments by date: %w", err)
	}
	defer rows.Close()
	return r.scanAssignments(rows)
}

// ListUnscheduledByStudent returns the floating backlog in the canonical
// fallback order: priority A > B > C, earliest due date (nil last), earliest
// creation, then ID so the ordering is total.
func (r *SQLiteAssignmentRepo) ListUnscheduledByStudent(ctx context.Context, studentID string) ([]*domain.Assignment, error) {
	query := `SELECT ` + assignmentColumns + ` FROM assignments
		WHERE student_id = ? AND scheduled_date IS NULL AND status != 'completed'
		ORDER BY priority,
			CASE WHEN due_date IS NULL THEN 1 ELSE 0 END, due_date,
			created_at, id`
	rows, err := r.db.QueryContext(ctx, query, studentID)
	if err != nil {
		return nil, fmt.Errorf("listing unscheduled assignments: %w", err)
	}
	defer rows.Close()
	return r.scanAssignments(rows)
}

func (r *SQLiteAssignmentRepo) CountByStudent(ctx context.Context, studentID string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM assignments WHERE student_id = ?`, studentID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting assignments: %w", err)
	}
	return count, nil
}

// Update writes the assignment back using its loaded Version as the guard.
// On success the in-memory Version is bumped to match the stored row.
func (r *SQLiteAssignmentRepo) Update(ctx context.Context, a *domain.Assignment) error {
	query := `UPDATE assignments SET
			title = ?, normalized_title = ?, subject = ?, course_name = ?,
			instructions = ?, notes = ?, due_date = ?, estimated_minutes = ?,
			priority = ?, status = ?, scheduled_date = ?, scheduled_block_number = ?,
			provenance = ?, source_id = ?, source_course_id = ?,
			time_spent_minutes = ?, version = version + 1, updated_at = ?
		WHERE id = ? AND version = ?`
	res, err := r.db.ExecContext(ctx, query,
		a.Title,
		a.NormalizedTitle(),
		a.Subject,
		a.CourseName,
		a.Instructions,
		a.Notes,
		nullableTimeToString(a.DueDate, dateLayout),
		a.EstimatedMinutes,
		string(a.Priority),
		string(a.Status),
		nullableTimeToString(a.ScheduledDate, dateLayout),
		nullableIntToValue(a.ScheduledBlockNumber),
		string(a.Provenance),
		a.SourceID,
		a.SourceCourseID,
		a.TimeSpentMinutes,
		a.UpdatedAt.Format(time.RFC3339),
		a.ID,
		a.Version,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("assignment %s/%q: %w", a.StudentID, a.NormalizedTitle(), ErrDuplicate)
		}
		return fmt.Errorf("updating assignment: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking update result: %w", err)
	}
	if affected == 0 {
		// Distinguish a lost race from a missing row.
		if _, getErr := r.GetByID(ctx, a.ID); getErr != nil {
			return getErr
		}
		return fmt.Errorf("assignment %s: %w", a.ID, ErrConflict)
	}
	a.Version++
	return nil
}

func (r *SQLiteAssignmentRepo) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM assignments WHERE id = ?`, id); err != nil {
		return fmt.Errorf("deleting assignment: %w", err)
	}
	return nil
}

func (r *SQLiteAssignmentRepo) scanAssignment(row *sql.Row) (*domain.Assignment, error) {
	var a domain.Assignment
	var normalizedTitle, priorityStr, statusStr, provenanceStr string
	var dueDateStr, scheduledDateStr sql.NullString
	var scheduledBlockNumber sql.NullInt64
	var createdAtStr, updatedAtStr string

	err := row.Scan(
		&a.ID, &a.StudentID, &a.Title, &normalizedTitle, &a.Subject, &a.CourseName,
		&a.Instructions, &a.Notes, &dueDateStr, &a.EstimatedMinutes, &priorityStr, &statusStr,
		&scheduledDateStr, &scheduledBlockNumber, &provenanceStr, &a.SourceID, &a.SourceCourseID,
		&a.TimeSpentMinutes, &a.Version, &createdAtStr, &updatedAtStr,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("assignment: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("scanning assignment: %w", err)
	}
	return r.populateAssignment(&a, priorityStr, statusStr, provenanceStr,
		dueDateStr, scheduledDateStr, scheduledBlockNumber, createdAtStr, updatedAtStr)
}

func (r *SQLiteAssignmentRepo) scanAssignments(rows *sql.Rows) ([]*domain.Assignment, error) {
	var items []*domain.Assignment
	for rows.Next() {
		var a domain.Assignment
		var normalizedTitle, priorityStr, statusStr, provenanceStr string
		var dueDateStr, scheduledDateStr sql.NullString
		var scheduledBlockNumber sql.NullInt64
		var createdAtStr, updatedAtStr string

		err := rows.Scan(
			&a.ID, &a.StudentID, &a.Title, &normalizedTitle, &a.Subject, &a.CourseName,
			&a.Instructions, &a.Notes, &dueDateStr, &a.EstimatedMinutes, &priorityStr, &statusStr,
			&scheduledDateStr, &scheduledBlockNumber, &provenanceStr, &a.SourceID, &a.SourceCourseID,
			&a.TimeSpentMinutes, &a.Version, &createdAtStr, &updatedAtStr,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning assignment row: %w", err)
		}
		item, err := r.populateAssignment(&a, priorityStr, statusStr, provenanceStr,
			dueDateStr, scheduledDateStr, scheduledBlockNumber, createdAtStr, updatedAtStr)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating assignments: %w", err)
	}
	return items, nil
}

func (r *SQLiteAssignmentRepo) populateAssignment(
	a *domain.Assignment,
	priorityStr, statusStr, provenanceStr string,
	dueDateStr, scheduledDateStr sql.NullString,
	scheduledBlockNumber sql.NullInt64,
	createdAtStr, updatedAtStr string,
) (*domain.Assignment, error) {
	a.Priority = domain.Priority(priorityStr)
	a.Status = domain.AssignmentStatus(statusStr)
	a.Provenance = domain.Provenance(provenanceStr)
	a.DueDate = parseNullableTime(dueDateStr, dateLayout)
	a.ScheduledDate = parseNullableTime(scheduledDateStr, dateLayout)
	if scheduledBlockNumber.Valid {
		n := int(scheduledBlockNumber.Int64)
		a.ScheduledBlockNumber = &n
	}

	var parseErr error
	a.CreatedAt, parseErr = time.Parse(time.RFC3339, createdAtStr)
	if parseErr != nil {
		return nil, fmt.Errorf("parsing created_at: %w", parseErr)
	}
	a.UpdatedAt, parseErr = time.Parse(time.RFC3339, updatedAtStr)
	if parseErr != nil {
		return nil, fmt.Errorf("parsing updated_at: %w", parseErr)
	}
	return a, nil
}
