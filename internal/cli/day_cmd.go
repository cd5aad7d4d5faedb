package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/mkessler-dev/schoolday/internal/cli/formatter"
)

func newDayCmd(app *App) *cobra.Command {
	var student, dateStr string

	cmd := &cobra.Command{
		Use:   "day",
		Short: "Show the composed work plan for a day",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			date := app.now()
			if dateStr != "" {
				parsed, err := time.Parse("2006-01-02", dateStr)
				if err != nil {
					return fmt.Errorf("parsing --date %q: %w", dateStr, err)
				}
				date = parsed
			}

			blocks, err := app.Schedule.ComposeDay(ctx, student, date)
			if err != nil {
				return err
			}
			fmt.Println(formatter.RenderDay(date, blocks))

			backlog, err := app.Assignments.ListBacklog(ctx, student)
			if err != nil {
				return err
			}
			if len(backlog) > 0 {
				fmt.Println(formatter.RenderBacklog(backlog))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&student, "student", "", "Student ID")
	cmd.Flags().StringVar(&dateStr, "date", "", "Date (YYYY-MM-DD), defaults to today")
	_ = cmd.MarkFlagRequired("student")

	return cmd
}
