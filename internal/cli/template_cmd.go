package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mkessler-dev/schoolday/internal/cli/formatter"
	"github.com/mkessler-dev/schoolday/internal/domain"
)

func newTemplateCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "template",
		Short: "Manage weekly schedule templates",
	}

	cmd.AddCommand(
		newTemplateLoadCmd(app),
		newTemplateShowCmd(app),
	)

	return cmd
}

func newTemplateLoadCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "load FILE",
		Short: "Install weekly templates from a JSON file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			counts, err := app.Templates.LoadFromFile(context.Background(), args[0])
			if err != nil {
				return err
			}
			for studentID, n := range counts {
				fmt.Printf("Installed %d blocks for %s\n", n, studentID)
			}
			return nil
		},
	}
}

func newTemplateShowCmd(app *App) *cobra.Command {
	var student string

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show a student's weekly template",
		RunE: func(cmd *cobra.Command, args []string) error {
			blocks, err := app.Templates.ListByStudent(context.Background(), student)
			if err != nil {
				return err
			}
			if len(blocks) == 0 {
				fmt.Println(formatter.Dim("No template installed."))
				return nil
			}

			currentDay := -1
			for _, b := range blocks {
				if int(b.Weekday) != currentDay {
					currentDay = int(b.Weekday)
					fmt.Println(formatter.Header(b.Weekday.String()))
				}
				label := b.Subject
				if b.BlockType == domain.BlockFixed {
					label = b.FixedKind
				} else if b.BlockType == domain.BlockBible {
					label = "Bible reading"
				}
				fmt.Printf("  %s–%s  %-2d %s\n",
					domain.FormatClock(b.StartMinute), domain.FormatClock(b.EndMinute),
					b.BlockNumber, label)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&student, "student", "", "Student ID")
	_ = cmd.MarkFlagRequired("student")
	return cmd
}
