package formatter

import (
	"fmt"
	"strings"

	"github.com/mkessler-dev/schoolday/internal/service"
)

// RenderSyncOutcome renders a reconciliation report, failures last.
func RenderSyncOutcome(outcome *service.SyncOutcome) string {
	var b strings.Builder
	b.WriteString(Header("Sync") + "\n")
	b.WriteString(fmt.Sprintf("  %s %d\n", Dim("inserted "), outcome.Inserted))
	b.WriteString(fmt.Sprintf("  %s %d\n", Dim("updated  "), outcome.Updated))
	b.WriteString(fmt.Sprintf("  %s %d\n", Dim("unchanged"), outcome.Unchanged))

	if len(outcome.Failures) > 0 {
		b.WriteString(fmt.Sprintf("\n%s\n", StyleRed.Render(fmt.Sprintf("%d record(s) failed:", len(outcome.Failures)))))
		for _, f := range outcome.Failures {
			b.WriteString(fmt.Sprintf("  %s %q: %v\n", Dim(fmt.Sprintf("#%d", f.Index)), f.Title, f.Err))
		}
	}
	return b.String()
}
