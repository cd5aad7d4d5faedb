package formatter

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/mkessler-dev/schoolday/internal/domain"
)

// Gruvbox-inspired color palette.
var (
	ColorGreen  = lipgloss.Color("#8ec07c")
	ColorYellow = lipgloss.Color("#fabd2f")
	ColorRed    = lipgloss.Color("#fb4934")
	ColorBlue   = lipgloss.Color("#83a598")
	ColorPurple = lipgloss.Color("#d3869b")
	ColorDim    = lipgloss.Color("#928374")
	ColorFg     = lipgloss.Color("#ebdbb2")
	ColorHeader = lipgloss.Color("#fe8019")
)

// Predefined lipgloss styles.
var (
	StyleGreen  = lipgloss.NewStyle().Foreground(ColorGreen)
	StyleYellow = lipgloss.NewStyle().Foreground(ColorYellow)
	StyleRed    = lipgloss.NewStyle().Foreground(ColorRed)
	StyleBlue   = lipgloss.NewStyle().Foreground(ColorBlue)
	StylePurple = lipgloss.NewStyle().Foreground(ColorPurple)
	StyleDim    = lipgloss.NewStyle().Foreground(ColorDim)
	StyleFg     = lipgloss.NewStyle().Foreground(ColorFg)
	StyleHeader = lipgloss.NewStyle().Foreground(ColorHeader).Bold(true)
	StyleBold   = lipgloss.NewStyle().Foreground(ColorFg).Bold(true)
)

// Header renders a section header with the orange header style and an underline.
func Header(text string) string {
	upper := strings.ToUpper(text)
	line := strings.Repeat("─", len(upper))
	return fmt.Sprintf("%s\n%s", StyleHeader.Render(upper), StyleDim.Render(line))
}

// Dim renders text in the muted/dim color.
func Dim(text string) string {
	return StyleDim.Render(text)
}

// Bold renders text in bold with the foreground color.
func Bold(text string) string {
	return StyleBold.Render(text)
}

// BlockStatePill returns a colored state indicator for a schedule block.
func BlockStatePill(state domain.BlockState) string {
	switch state {
	case domain.BlockPending:
		return StyleBlue.Render("○ Pending")
	case domain.BlockInProgress:
		return StyleGreen.Render("● Working")
	case domain.BlockComplete:
		return StyleDim.Render("✔ Done")
	case domain.BlockStuck:
		return StyleRed.Render("▲ Stuck")
	case domain.BlockOvertime:
		return StyleYellow.Render("» Moved")
	default:
		return StyleDim.Render(string(state))
	}
}

// StatusPill returns a colored status indicator for an assignment.
func StatusPill(status domain.AssignmentStatus) string {
	switch status {
	case domain.AssignmentPending:
		return StyleBlue.Render("○ Pending")
	case domain.AssignmentInProgress:
		return StyleGreen.Render("● In Progress")
	case domain.AssignmentCompleted:
		return StyleDim.Render("✔ Completed")
	case domain.AssignmentStuck:
		return StyleRed.Render("▲ Stuck")
	case domain.AssignmentNeedsMoreTime:
		return StyleYellow.Render("» Needs More Time")
	default:
		return StyleDim.Render(string(status))
	}
}

// PriorityBadge returns a colored priority letter.
func PriorityBadge(p domain.Priority) string {
	switch p {
	case domain.PriorityA:
		return StyleRed.Render("A")
	case domain.PriorityB:
		return StyleYellow.Render("B")
	case domain.PriorityC:
		return StyleDim.Render("C")
	default:
		return StyleDim.Render(string(p))
	}
}
