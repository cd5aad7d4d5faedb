package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/mattn/go-isatty"

	"github.com/mkessler-dev/schoolday/internal/cli"
	"github.com/mkessler-dev/schoolday/internal/config"
	"github.com/mkessler-dev/schoolday/internal/db"
	"github.com/mkessler-dev/schoolday/internal/repository"
	"github.com/mkessler-dev/schoolday/internal/schedule"
	"github.com/mkessler-dev/schoolday/internal/service"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg := config.Load()

	if dir := filepath.Dir(cfg.DBPath); dir != "." && cfg.DBPath != ":memory:" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating data directory: %w", err)
		}
	}

	database, err := db.OpenDB(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer database.Close()

	var logWriter io.Writer
	if cfg.LogPath != "" {
		f, err := os.OpenFile(cfg.LogPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return fmt.Errorf("opening log file: %w", err)
		}
		defer f.Close()
		logWriter = f
	}

	// Wire repositories
	templateRepo := repository.NewSQLiteTemplateBlockRepo(database)
	assignmentRepo := repository.NewSQLiteAssignmentRepo(database)
	statusRepo := repository.NewSQLiteBlockStatusRepo(database)
	sessionRepo := repository.NewSQLiteFocusSessionRepo(database)
	profileRepo := repository.NewSQLiteStudentProfileRepo(database)
	progressRepo := repository.NewSQLiteBibleProgressRepo(database)

	uow := db.NewSQLiteUnitOfWork(database)
	calendar := schedule.NewCalendar(cfg.Location())

	// Side effect ports write to the operational log; swap in real
	// integrations here when a rewards or messaging backend exists.
	ledger := service.NewLogLedger(logWriter)
	notifier := service.NewLogNotifier(logWriter)
	curriculum := service.NewCurriculumPointer(progressRepo, nil)
	observer := service.NewLogUseCaseObserver(logWriter)

	scheduleSvc := service.NewScheduleService(templateRepo, assignmentRepo, statusRepo, profileRepo, calendar, nil)

	app := &cli.App{
		Assignments: service.NewAssignmentService(assignmentRepo, uow, ledger, notifier, logWriter, observer),
		Schedule:    scheduleSvc,
		Reschedule:  service.NewRescheduleService(uow, calendar, curriculum, notifier, cfg.UndoWindow, logWriter, observer),
		Sync:        service.NewSyncService(uow, logWriter, observer),
		Focus:       service.NewFocusService(sessionRepo, scheduleSvc, curriculum, calendar, uow),
		Templates:   service.NewTemplateService(templateRepo, uow, observer),
		Curriculum:  curriculum,
		Now:         time.Now,
	}

	app.IsInteractive = func() bool {
		return isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd())
	}

	rootCmd := cli.NewRootCmd(app)
	return rootCmd.Execute()
}
