package service

import (
	"context"
	"io"
	"log/slog"

	"github.com/mkessler-dev/schoolday/internal/domain"
)

// PointsLedger is the external reward ledger. Awards are fire-and-forget:
// a ledger failure is logged and never rolls back the transition that
// earned the points.
type PointsLedger interface {
	Award(ctx context.Context, studentID string, points int, reason string) error
}

// Notifier delivers parent-facing notifications. Same fire-and-forget
// contract as the ledger.
type Notifier interface {
	NotifyStuck(ctx context.Context, studentID, assignmentID, reason string) error
}

// CurriculumPointer tracks each student's place in the bible reading plan.
type CurriculumPointer interface {
	CurrentReading(ctx context.Context, studentID string) (*domain.BibleReading, error)
	Advance(ctx context.Context, studentID string) (*domain.BibleReading, error)
}

// NoopLedger ignores all awards.
type NoopLedger struct{}

func (NoopLedger) Award(context.Context, string, int, string) error { return nil }

// NoopNotifier ignores all notifications.
type NoopNotifier struct{}

func (NoopNotifier) NotifyStuck(context.Context, string, string, string) error { return nil }

type logLedger struct {
	logger *slog.Logger
}

// NewLogLedger writes point awards to the provided writer.
func NewLogLedger(w io.Writer) PointsLedger {
	if w == nil {
		return NoopLedger{}
	}
	return &logLedger{logger: slog.New(slog.NewTextHandler(w, nil))}
}

func (l *logLedger) Award(ctx context.Context, studentID string, points int, reason string) error {
	l.logger.InfoContext(ctx, "points_award", "student_id", studentID, "points", points, "reason", reason)
	return nil
}

type logNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier writes stuck notifications to the provided writer.
func NewLogNotifier(w io.Writer) Notifier {
	if w == nil {
		return NoopNotifier{}
	}
	return &logNotifier{logger: slog.New(slog.NewTextHandler(w, nil))}
}

func (n *logNotifier) NotifyStuck(ctx context.Context, studentID, assignmentID, reason string) error {
	n.logger.InfoContext(ctx, "stuck_notification",
		"student_id", studentID, "assignment_id", assignmentID, "reason", reason)
	return nil
}
