// Package feed defines the JSON shapes exchanged with the outside world:
// assignment batches pulled from the upstream coursework platform and weekly
// template descriptions loaded by an administrator.
package feed

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// ExternalAssignment is one upstream record. The upstream system owns due
// date, subject/course labels and its own identifiers; it knows nothing about
// completion state, notes, time spent or placement.
type ExternalAssignment struct {
	StudentID        string `json:"student_id"`
	Title            string `json:"title"`
	Subject          string `json:"subject,omitempty"`
	CourseName       string `json:"course_name,omitempty"`
	Instructions     string `json:"instructions,omitempty"`
	DueAt            string `json:"due_at,omitempty"` // YYYY-MM-DD
	EstimatedMinutes int    `json:"estimated_minutes,omitempty"`
	SourceID         string `json:"source_id,omitempty"`
	SourceCourseID   string `json:"source_course_id,omitempty"`
}

// DueDate parses the optional due date.
func (r *ExternalAssignment) DueDate() (*time.Time, error) {
	if r.DueAt == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", r.DueAt)
	if err != nil {
		return nil, fmt.Errorf("parsing due_at %q: %w", r.DueAt, err)
	}
	return &t, nil
}

// SyncBatch is a file of upstream records.
type SyncBatch struct {
	Source  string               `json:"source,omitempty"`
	Records []ExternalAssignment `json:"records"`
}

// LoadSyncBatch reads and decodes a sync batch file.
func LoadSyncBatch(path string) (*SyncBatch, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading sync batch: %w", err)
	}
	var batch SyncBatch
	if err := json.Unmarshal(data, &batch); err != nil {
		return nil, fmt.Errorf("decoding sync batch: %w", err)
	}
	return &batch, nil
}

// TemplateBlockSpec is one weekly slot in a template file. Times are HH:MM
// in the school timezone; weekday is 0 (Sunday) through 6 (Saturday).
type TemplateBlockSpec struct {
	Weekday     int    `json:"weekday"`
	BlockNumber int    `json:"block_number"`
	Start       string `json:"start"`
	End         string `json:"end"`
	Subject     string `json:"subject,omitempty"`
	Type        string `json:"type"`
	FixedKind   string `json:"fixed_kind,omitempty"`
}

// StudentTemplate is one student's full weekly template.
type StudentTemplate struct {
	StudentID string              `json:"student_id"`
	Blocks    []TemplateBlockSpec `json:"blocks"`
}

// TemplateFile is the admin-facing template upload.
type TemplateFile struct {
	Students []StudentTemplate `json:"students"`
}

// LoadTemplateFile reads and decodes a template file.
func LoadTemplateFile(path string) (*TemplateFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading template file: %w", err)
	}
	var tf TemplateFile
	if err := json.Unmarshal(data, &tf); err != nil {
		return nil, fmt.Errorf("decoding template file: %w", err)
	}
	return &tf, nil
}
