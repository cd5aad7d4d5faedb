package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/mkessler-dev/schoolday/internal/cli/formatter"
	"github.com/mkessler-dev/schoolday/internal/domain"
	"github.com/mkessler-dev/schoolday/internal/service"
)

func newWorkCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "work",
		Short: "Manage assignments",
	}

	cmd.AddCommand(
		newWorkAddCmd(app),
		newWorkInspectCmd(app),
		newWorkStartCmd(app),
		newWorkDoneCmd(app),
		newWorkReopenCmd(app),
		newWorkMoreTimeCmd(app),
		newWorkStuckCmd(app),
		newWorkUnstuckCmd(app),
	)

	return cmd
}

func newWorkAddCmd(app *App) *cobra.Command {
	var (
		student, title, subject, course, priority, due string
		estimate                                       int
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a local assignment",
		RunE: func(cmd *cobra.Command, args []string) error {
			a := &domain.Assignment{
				StudentID:        student,
				Title:            title,
				Subject:          subject,
				CourseName:       course,
				EstimatedMinutes: estimate,
				Priority:         domain.Priority(priority),
				Provenance:       domain.ProvenanceLocal,
			}
			if due != "" {
				d, err := time.Parse("2006-01-02", due)
				if err != nil {
					return fmt.Errorf("parsing --due %q: %w", due, err)
				}
				a.DueDate = &d
			}

			if err := app.Assignments.Create(context.Background(), a); err != nil {
				return err
			}
			fmt.Printf("Created assignment %s (%s)\n", a.Title, a.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&student, "student", "", "Student ID")
	cmd.Flags().StringVar(&title, "title", "", "Assignment title")
	cmd.Flags().StringVar(&subject, "subject", "", "Subject")
	cmd.Flags().StringVar(&course, "course", "", "Course name")
	cmd.Flags().StringVar(&priority, "priority", "B", "Priority (A|B|C)")
	cmd.Flags().StringVar(&due, "due", "", "Due date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&estimate, "estimate", 30, "Estimated minutes")
	_ = cmd.MarkFlagRequired("student")
	_ = cmd.MarkFlagRequired("title")

	return cmd
}

func newWorkInspectCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect ID",
		Short: "Show assignment details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := app.Assignments.GetByID(context.Background(), args[0])
			if err != nil {
				return err
			}
			fmt.Print(formatter.RenderAssignment(a))
			return nil
		},
	}
}

func newWorkStartCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "start ID",
		Short: "Start working on an assignment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := app.Assignments.Start(context.Background(), args[0])
			if err != nil {
				return err
			}
			fmt.Printf("Started %s\n", result.Assignment.Title)
			return nil
		},
	}
}

func newWorkDoneCmd(app *App) *cobra.Command {
	var minutes int

	cmd := &cobra.Command{
		Use:   "done ID",
		Short: "Complete an assignment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := app.Assignments.Complete(context.Background(), args[0], minutes)
			if err != nil {
				return err
			}
			fmt.Printf("Completed %s", result.Assignment.Title)
			if result.PointsAwarded > 0 {
				fmt.Printf("  +%d points", result.PointsAwarded)
			}
			if result.OvershootMinutes > 0 {
				fmt.Printf("  (%dm over estimate)", result.OvershootMinutes)
			} else if result.OvershootMinutes < 0 {
				fmt.Printf("  (%dm under estimate)", -result.OvershootMinutes)
			}
			fmt.Println()
			return nil
		},
	}

	cmd.Flags().IntVar(&minutes, "minutes", 0, "Minutes spent this sitting")
	return cmd
}

func newWorkReopenCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "reopen ID",
		Short: "Reopen a completed assignment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := app.Assignments.Reopen(context.Background(), args[0])
			if err != nil {
				return err
			}
			fmt.Printf("Reopened %s\n", result.Assignment.Title)
			return nil
		},
	}
}

func newWorkMoreTimeCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "moretime ID",
		Short: "Move an unfinished assignment to the next open slot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := app.Reschedule.NeedMoreTime(context.Background(), args[0], app.now())
			if err != nil {
				if errors.Is(err, service.ErrNoSlotAvailable) {
					return fmt.Errorf("no open slot within the next two weeks; free a block first")
				}
				return err
			}
			if result.RolledAhead {
				fmt.Printf("Moved %s to %s, block %d\n",
					result.Assignment.Title, result.NewDate.Format("Monday Jan 2"), result.NewBlock)
			} else {
				fmt.Printf("Moved %s to block %d later today\n", result.Assignment.Title, result.NewBlock)
			}
			return nil
		},
	}
}

func newWorkStuckCmd(app *App) *cobra.Command {
	var (
		reason string
		notify bool
		wait   bool
	)

	cmd := &cobra.Command{
		Use:   "stuck ID",
		Short: "Mark an assignment stuck (cancellable for a short window)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			mark, err := app.Reschedule.MarkStuck(ctx, args[0], reason, notify, app.now())
			if err != nil {
				return err
			}

			window := app.Reschedule.UndoWindow()
			fmt.Printf("Marked stuck; cancel within %s with 'schoolday work unstuck %s'\n",
				window, args[0])

			if !wait {
				return nil
			}
			time.Sleep(time.Until(mark.CommitAt))
			result, err := app.Reschedule.CommitStuck(ctx, mark.ID)
			if err != nil {
				if errors.Is(err, service.ErrUndoExpired) {
					fmt.Println("Mark was cancelled before the window elapsed.")
					return nil
				}
				return err
			}
			if result.ParentQueued {
				fmt.Println("Parent notified.")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&reason, "reason", "", "What the student is stuck on")
	cmd.Flags().BoolVar(&notify, "notify", false, "Notify a parent when the mark commits")
	cmd.Flags().BoolVar(&wait, "wait", false, "Block until the undo window elapses and commit")
	return cmd
}

func newWorkUnstuckCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "unstuck ID",
		Short: "Cancel a stuck mark inside the undo window",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.Reschedule.CancelStuck(context.Background(), args[0]); err != nil {
				if errors.Is(err, service.ErrUndoExpired) {
					return fmt.Errorf("too late; the stuck mark already committed")
				}
				return err
			}
			fmt.Println("Stuck mark cancelled; nothing was recorded.")
			return nil
		},
	}
}
