package cli

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/mkessler-dev/schoolday/internal/service"
)

// App holds references to all service interfaces used by CLI commands.
type App struct {
	Assignments service.AssignmentService
	Schedule    service.ScheduleService
	Reschedule  service.RescheduleService
	Sync        service.SyncService
	Focus       service.FocusService
	Templates   service.TemplateService
	Curriculum  service.CurriculumPointer

	// IsInteractive gates surfaces that need a real terminal.
	IsInteractive func() bool

	// Now is injectable for tests; defaults to time.Now.
	Now func() time.Time
}

func (a *App) now() time.Time {
	if a.Now != nil {
		return a.Now()
	}
	return time.Now()
}

// NewRootCmd creates the top-level "schoolday" command and registers all
// subcommands against the provided App.
func NewRootCmd(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:   "schoolday",
		Short: "Daily work plan for students",
	}

	root.AddCommand(
		newDayCmd(app),
		newWorkCmd(app),
		newSyncCmd(app),
		newTemplateCmd(app),
		newBibleCmd(app),
		newGuidedCmd(app),
	)

	return root
}
