package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mkessler-dev/schoolday/internal/cli/formatter"
)

func newBibleCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bible",
		Short: "Bible reading curriculum",
	}

	cmd.AddCommand(
		newBibleShowCmd(app),
		newBibleMoreTimeCmd(app),
	)

	return cmd
}

func newBibleShowCmd(app *App) *cobra.Command {
	var student string

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show today's reading",
		RunE: func(cmd *cobra.Command, args []string) error {
			reading, err := app.Curriculum.CurrentReading(context.Background(), student)
			if err != nil {
				return err
			}
			fmt.Printf("%s %s\n", formatter.Bold(reading.Passage),
				formatter.Dim(fmt.Sprintf("(day %d)", reading.Position+1)))
			return nil
		},
	}

	cmd.Flags().StringVar(&student, "student", "", "Student ID")
	_ = cmd.MarkFlagRequired("student")
	return cmd
}

func newBibleMoreTimeCmd(app *App) *cobra.Command {
	var student string

	cmd := &cobra.Command{
		Use:   "moretime",
		Short: "Close today's bible block and move on",
		RunE: func(cmd *cobra.Command, args []string) error {
			reading, err := app.Reschedule.NeedMoreTimeBible(context.Background(), student, app.now())
			if err != nil {
				return err
			}
			fmt.Printf("Bible block closed for today. Tomorrow: %s\n", formatter.Bold(reading.Passage))
			return nil
		},
	}

	cmd.Flags().StringVar(&student, "student", "", "Student ID")
	_ = cmd.MarkFlagRequired("student")
	return cmd
}
