package cli

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

func newGuidedCmd(app *App) *cobra.Command {
	var student string

	cmd := &cobra.Command{
		Use:   "guided",
		Short: "Work through today's blocks one at a time",
		RunE: func(cmd *cobra.Command, args []string) error {
			if app.IsInteractive != nil && !app.IsInteractive() {
				return fmt.Errorf("guided mode needs an interactive terminal; use 'schoolday day' instead")
			}

			model := newGuidedModel(app, student)
			p := tea.NewProgram(model, tea.WithAltScreen())
			final, err := p.Run()
			if err != nil {
				return err
			}
			if m, ok := final.(*guidedModel); ok && m.err != nil {
				return m.err
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&student, "student", "", "Student ID")
	_ = cmd.MarkFlagRequired("student")
	return cmd
}
