package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/coursecast/coursecast/api"
	"github.com/coursecast/coursecast/config"
	"github.com/coursecast/coursecast/icon"
	"github.com/coursecast/coursecast/internal/outbox"
	"github.com/coursecast/coursecast/key"
	"github.com/coursecast/coursecast/log"
	"github.com/coursecast/coursecast/session"
	"github.com/coursecast/coursecast/style"
	"github.com/coursecast/coursecast/tui"
	"github.com/coursecast/coursecast/util"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// replayOutbox delivers progress queued by earlier runs. Failures only warn: watching goes on.
func replayOutbox(ctx context.Context, client *api.Client, token string) {
	pending, err := outbox.Pending()
	if err != nil {
		log.Warnf("read outbox: %v", err)
		return
	}
	if len(pending) == 0 {
		return
	}

	erase := util.PrintErasable(fmt.Sprintf("%s Saving %s from earlier sessions...",
		icon.Get(icon.Progress), util.Quantify(len(pending), "lesson", "lessons")))

	ctx, cancel := context.WithTimeout(ctx, 2*config.Seconds(key.APITimeout))
	defer cancel()
	report, err := outbox.Reconcile(ctx, client, token)
	erase()

	if report.Sent > 0 {
		fmt.Printf("%s saved progress of %s from earlier sessions\n", icon.Get(icon.Saved), util.Quantify(report.Sent, "lesson", "lessons"))
	}
	if err != nil {
		fmt.Printf("%s %s still waiting to be saved\n", icon.Get(icon.Warn), util.Quantify(report.Remaining, "update", "updates"))
	}
}

func init() {
	rootCmd.AddCommand(watchCmd)
	watchCmd.Flags().IntP("sub-course", "s", 0, "Pick the lesson from a sub-course listing")
	watchCmd.Flags().Bool("no-resume", false, "Start from the beginning instead of the last watched second")
}

var watchCmd = &cobra.Command{
	Use:   "watch [lesson id]",
	Short: "Play a lesson in mpv and keep its progress in sync",
	Args:  cobra.MaximumNArgs(1),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 && !cmd.Flags().Changed("sub-course") {
			return errors.New("either a lesson id or --sub-course is required")
		}
		return nil
	},
	Run: func(cmd *cobra.Command, args []string) {
		CheckDependencies()

		token := requireToken()
		client := api.FromConfig()

		opts := session.FromConfig(token)
		opts.Outbox = outboxEnabled(cmd)
		if opts.Outbox {
			replayOutbox(commandContext(cmd), client, token)
		}

		resume := viper.GetBool(key.PlayerResume) && !lo.Must(cmd.Flags().GetBool("no-resume"))
		options := &tui.Options{
			SubCourseID: lo.Must(cmd.Flags().GetInt("sub-course")),
			Client:      client,
			Launcher:    session.MPVLauncher(viper.GetString(key.PlayerBinary), resume),
			Session:     opts,
		}
		if len(args) == 1 {
			options.LessonID = parseID("lesson", args[0])
		}

		result, err := tui.Run(options)
		handleErr(err)

		if result != nil {
			fmt.Println(tui.SummaryLines(result))
		}
		if result != nil && result.Queued {
			fmt.Println(style.Faint("Queued progress is saved on the next start or with " + cmd.Root().Name() + " sync."))
		}
	},
}
