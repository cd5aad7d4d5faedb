package formatter

import (
	"fmt"
	"strings"
	"time"

	"github.com/mkessler-dev/schoolday/internal/domain"
)

// RenderDay renders the composed day as a time-ordered table.
func RenderDay(date time.Time, blocks []domain.ScheduleBlock) string {
	if len(blocks) == 0 {
		return Dim("No blocks scheduled for " + date.Format("Monday, Jan 2") + ".")
	}

	var b strings.Builder
	b.WriteString(Header(date.Format("Monday, Jan 2")) + "\n")

	for _, block := range blocks {
		clock := fmt.Sprintf("%s–%s",
			domain.FormatClock(block.StartMinute), domain.FormatClock(block.EndMinute))

		label := block.Label
		if label == "" {
			label = Dim("(open)")
		}
		if block.Fallback {
			label += Dim(" (from backlog)")
		}

		b.WriteString(fmt.Sprintf("  %s  %-2d %-38s %-12s %s\n",
			Dim(clock),
			block.BlockNumber,
			label,
			Dim(FormatMinutes(block.EstimatedMinutes)),
			BlockStatePill(block.State)))
	}
	return b.String()
}

// RenderBacklog renders the floating assignment list in fallback order.
func RenderBacklog(assignments []*domain.Assignment) string {
	if len(assignments) == 0 {
		return Dim("Backlog is empty.")
	}

	var b strings.Builder
	b.WriteString(Header("Backlog") + "\n")
	for _, a := range assignments {
		due := Dim("no due date")
		if a.DueDate != nil {
			due = Dim("due " + a.DueDate.Format("Jan 2"))
		}
		b.WriteString(fmt.Sprintf("  %s %s  %-38s %-12s %s  %s\n",
			PriorityBadge(a.Priority),
			TruncID(a.ID),
			a.Title,
			Dim(FormatMinutes(a.EstimatedMinutes)),
			due,
			StatusPill(a.Status)))
	}
	return b.String()
}

// RenderAssignment renders one assignment's full detail card.
func RenderAssignment(a *domain.Assignment) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("%s  %s\n\n", Bold(a.Title), Dim(a.Subject)))
	b.WriteString(fmt.Sprintf("  %s  %s\n", Dim("STATUS  "), StatusPill(a.Status)))
	b.WriteString(fmt.Sprintf("  %s  %s\n", Dim("ID      "), TruncID(a.ID)))
	b.WriteString(fmt.Sprintf("  %s  %s\n", Dim("PRIORITY"), PriorityBadge(a.Priority)))
	b.WriteString(fmt.Sprintf("  %s  %s\n", Dim("ESTIMATE"), FormatMinutes(a.EstimatedMinutes)))
	b.WriteString(fmt.Sprintf("  %s  %s\n", Dim("SPENT   "), FormatMinutes(a.TimeSpentMinutes)))
	if a.CourseName != "" {
		b.WriteString(fmt.Sprintf("  %s  %s\n", Dim("COURSE  "), a.CourseName))
	}
	if a.DueDate != nil {
		b.WriteString(fmt.Sprintf("  %s  %s\n", Dim("DUE     "), a.DueDate.Format("Jan 2, 2006")))
	}
	if a.IsPlaced() {
		b.WriteString(fmt.Sprintf("  %s  %s block %d\n", Dim("PLACED  "),
			a.ScheduledDate.Format("Jan 2"), *a.ScheduledBlockNumber))
	}
	if a.Notes != "" {
		b.WriteString(fmt.Sprintf("  %s  %s\n", Dim("NOTES   "), a.Notes))
	}

	return RenderBox("Assignment", b.String())
}
