package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/mkessler-dev/schoolday/internal/db"
	"github.com/mkessler-dev/schoolday/internal/domain"
)

const stuckMarkColumns = `id, assignment_id, student_id, date, reason, notify_parent,
		state, created_at, commit_at`

// SQLiteStuckMarkRepo implements StuckMarkRepo using a SQLite database.
type SQLiteStuckMarkRepo struct {
	db db.DBTX
}

// NewSQLiteStuckMarkRepo creates a new SQLiteStuckMarkRepo.
func NewSQLiteStuckMarkRepo(conn db.DBTX) *SQLiteStuckMarkRepo {
	return &SQLiteStuckMarkRepo{db: conn}
}

func (r *SQLiteStuckMarkRepo) Create(ctx context.Context, m *domain.StuckMark) error {
	query := `INSERT INTO stuck_marks (` + stuckMarkColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		m.ID,
		m.AssignmentID,
		m.StudentID,
		dateString(m.Date),
		m.Reason,
		boolToInt(m.NotifyParent),
		string(m.State),
		m.CreatedAt.Format(time.RFC3339),
		m.CommitAt.Format(time.RFC3339),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("stuck mark for assignment %s: %w", m.AssignmentID, ErrDuplicate)
		}
		return fmt.Errorf("inserting stuck mark: %w", err)
	}
	return nil
}

func (r *SQLiteStuckMarkRepo) GetByID(ctx context.Context, id string) (*domain.StuckMark, error) {
	query := `SELECT ` + stuckMarkColumns + ` FROM stuck_marks WHERE id = ?`
	return r.scanStuckMark(r.db.QueryRowContext(ctx, query, id))
}

func (r *SQLiteStuckMarkRepo) GetPendingByAssignment(ctx context.Context, assignmentID string) (*domain.StuckMark, error) {
	query := `SELECT ` + stuckMarkColumns + ` FROM stuck_marks
		WHERE assignment_id = ? AND state = 'pending'`
	return r.scanStuckMark(r.db.QueryRowContext(ctx, query, assignmentID))
}

func (r *SQLiteStuckMarkRepo) ListDue(ctx context.Context, now time.Time) ([]*domain.StuckMark, error) {
	query := `SELECT ` + stuckMarkColumns + ` FROM stuck_marks
		WHERE state = 'pending' AND commit_at <= ?
		ORDER BY commit_at`
	rows, err := r.db.QueryContext(ctx, query, now.UTC().Format(time.RFC3339))
	if err != nil {
		return nil, fmt.Errorf("listing due stuck marks: %w", err)
	}
	defer rows.Close()

	var marks []*domain.StuckMark
	for rows.Next() {
		m, err := r.scanStuckMarkRow(rows)
		if err != nil {
			return nil, err
		}
		marks = append(marks, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating due stuck marks: %w", err)
	}
	return marks, nil
}

// Commit flips pending -> committed in a single statement so that a racing
// cancel deterministically picks one outcome.
func (r *SQLiteStuckMarkRepo) Commit(ctx context.Context, id string) error {
	return r.flipState(ctx, id, domain.StuckMarkCommitted)
}

// Cancel flips pending -> cancelled with the same single-statement guarantee.
func (r *SQLiteStuckMarkRepo) Cancel(ctx context.Context, id string) error {
	return r.flipState(ctx, id, domain.StuckMarkCancelled)
}

func (r *SQLiteStuckMarkRepo) flipState(ctx context.Context, id string, to domain.StuckMarkState) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE stuck_marks SET state = ? WHERE id = ? AND state = 'pending'`,
		string(to), id)
	if err != nil {
		return fmt.Errorf("updating stuck mark state: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking stuck mark update: %w", err)
	}
	if affected == 0 {
		if _, getErr := r.GetByID(ctx, id); getErr != nil {
			return getErr
		}
		return fmt.Errorf("stuck mark %s no longer pending: %w", id, ErrConflict)
	}
	return nil
}

func (r *SQLiteStuckMarkRepo) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM stuck_marks WHERE id = ?`, id); err != nil {
		return fmt.Errorf("deleting stuck mark: %w", err)
	}
	return nil
}

func (r *SQLiteStuckMarkRepo) scanStuckMark(row *sql.Row) (*domain.StuckMark, error) {
	var m domain.StuckMark
	var dateStr, stateStr, createdAtStr, commitAtStr string
	var notifyInt int

	err := row.Scan(&m.ID, &m.AssignmentID, &m.StudentID, &dateStr, &m.Reason,
		&notifyInt, &stateStr, &createdAtStr, &commitAtStr)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("stuck mark: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("scanning stuck mark: %w", err)
	}
	return populateStuckMark(&m, dateStr, stateStr, createdAtStr, commitAtStr, notifyInt)
}

func (r *SQLiteStuckMarkRepo) scanStuckMarkRow(rows *sql.Rows) (*domain.StuckMark, error) {
	var m domain.StuckMark
	var dateStr, stateStr, createdAtStr, commitAtStr string
	var notifyInt int

	err := rows.Scan(&m.ID, &m.AssignmentID, &m.StudentID, &dateStr, &m.Reason,
		&notifyInt, &stateStr, &createdAtStr, &commitAtStr)
	if err != nil {
		return nil, fmt.Errorf("scanning stuck mark row: %w", err)
	}
	return populateStuckMark(&m, dateStr, stateStr, createdAtStr, commitAtStr, notifyInt)
}

func populateStuckMark(m *domain.StuckMark, dateStr, stateStr, createdAtStr, commitAtStr string, notifyInt int) (*domain.StuckMark, error) {
	m.NotifyParent = intToBool(notifyInt)
	m.State = domain.StuckMarkState(stateStr)

	var parseErr error
	m.Date, parseErr = time.Parse(dateLayout, dateStr)
	if parseErr != nil {
		return nil, fmt.Errorf("parsing stuck mark date: %w", parseErr)
	}
	m.CreatedAt, parseErr = time.Parse(time.RFC3339, createdAtStr)
	if parseErr != nil {
		return nil, fmt.Errorf("parsing created_at: %w", parseErr)
	}
	m.CommitAt, parseErr = time.Parse(time.RFC3339, commitAtStr)
	if parseErr != nil {
		return nil, fmt.Errorf("parsing commit_at: %w", parseErr)
	}
	return m, nil
}
