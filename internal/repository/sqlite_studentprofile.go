package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/mkessler-dev/schoolday/internal/db"
	"github.com/mkessler-dev/schoolday/internal/domain"
)

// SQLiteStudentProfileRepo implements StudentProfileRepo using a SQLite database.
type SQLiteStudentProfileRepo struct {
	db db.DBTX
}

// NewSQLiteStudentProfileRepo creates a new SQLiteStudentProfileRepo.
func NewSQLiteStudentProfileRepo(conn db.DBTX) *SQLiteStudentProfileRepo {
	return &SQLiteStudentProfileRepo{db: conn}
}

// Get returns the stored profile, or the default policy when the student has
// no row yet. Callers that never customize a profile never create one.
func (r *SQLiteStudentProfileRepo) Get(ctx context.Context, studentID string) (*domain.StudentProfile, error) {
	query := `SELECT student_id, saturday_school, bible_minutes, points_per_completion
		FROM student_profiles WHERE student_id = ?`
	row := r.db.QueryRowContext(ctx, query, studentID)

	var p domain.StudentProfile
	var saturdayInt int
	err := row.Scan(&p.StudentID, &saturdayInt, &p.BibleMinutes, &p.PointsPerCompletion)
	if err != nil {
		if err == sql.ErrNoRows {
			return domain.DefaultStudentProfile(studentID), nil
		}
		return nil, fmt.Errorf("scanning student profile: %w", err)
	}
	p.SaturdaySchool = intToBool(saturdayInt)
	return &p, nil
}

func (r *SQLiteStudentProfileRepo) Upsert(ctx context.Context, p *domain.StudentProfile) error {
	query := `INSERT INTO student_profiles (student_id, saturday_school, bible_minutes, points_per_completion)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(student_id) DO UPDATE SET
			saturday_school = excluded.saturday_school,
			bible_minutes = excluded.bible_minutes,
			points_per_completion = excluded.points_per_completion`
	_, err := r.db.ExecContext(ctx, query,
		p.StudentID,
		boolToInt(p.SaturdaySchool),
		p.BibleMinutes,
		p.PointsPerCompletion,
	)
	if err != nil {
		return fmt.Errorf("upserting student profile: %w", err)
	}
	return nil
}
