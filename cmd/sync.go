package cmd

import (
	"fmt"

	"github.com/charmbracelet/lipgloss/table"
	"github.com/coursecast/coursecast/api"
	"github.com/coursecast/coursecast/icon"
	"github.com/coursecast/coursecast/internal/outbox"
	"github.com/coursecast/coursecast/util"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

func pendingTable(entries []*outbox.Entry) *table.Table {
	return newTable("LESSON", "WATCHED", "POSITION", "QUEUED").
		Rows(lo.Map(entries, func(e *outbox.Entry, _ int) []string {
			return []string{
				fmt.Sprint(e.LessonID),
				fmt.Sprintf("%d%%", e.Percentage),
				util.FormatSeconds(e.WatchedSeconds),
				e.QueuedAt.Format("2006-01-02 15:04"),
			}
		})...)
}

func init() {
	rootCmd.AddCommand(syncCmd)
	syncCmd.Flags().BoolP("list", "l", false, "List queued progress without sending it")
}

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Save progress that could not be delivered during earlier sessions",
	Run: func(cmd *cobra.Command, args []string) {
		pending, err := outbox.Pending()
		handleErr(err)

		if len(pending) == 0 {
			fmt.Printf("%s nothing to sync\n", icon.Get(icon.Success))
			return
		}

		if lo.Must(cmd.Flags().GetBool("list")) {
			fmt.Println(pendingTable(pending))
			return
		}

		report, err := outbox.Reconcile(commandContext(cmd), api.FromConfig(), requireToken())
		if report.Sent > 0 {
			fmt.Printf("%s saved %s\n", icon.Get(icon.Saved), util.Quantify(report.Sent, "update", "updates"))
		}
		if report.Dropped > 0 {
			fmt.Printf("%s dropped %s the backend no longer accepts\n", icon.Get(icon.Warn), util.Quantify(report.Dropped, "update", "updates"))
		}
		handleErr(err)
	},
}
