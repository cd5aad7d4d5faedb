package domain

// StudentProfile holds per-student scheduling policy. A default row is
// created lazily the first time a student is seen.
type StudentProfile struct {
	StudentID           string
	SaturdaySchool      bool
	BibleMinutes        int
	PointsPerCompletion int
}

// DefaultStudentProfile returns the policy used before any customization.
func DefaultStudentProfile(studentID string) *StudentProfile {
	return &StudentProfile{
		StudentID:           studentID,
		SaturdaySchool:      false,
		BibleMinutes:        20,
		PointsPerCompletion: 10,
	}
}
