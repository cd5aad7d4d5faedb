package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mkessler-dev/schoolday/internal/cli/formatter"
	"github.com/mkessler-dev/schoolday/internal/service"
)

func newSyncCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "sync FILE",
		Short: "Reconcile a batch of upstream assignments",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outcome, err := app.Sync.ReconcileFile(context.Background(), args[0])
			var batchErr *service.BatchError
			if err != nil && !errors.As(err, &batchErr) {
				return err
			}
			fmt.Println(formatter.RenderSyncOutcome(outcome))
			return nil
		},
	}
}
