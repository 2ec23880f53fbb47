package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/coursecast/coursecast/api"
	"github.com/coursecast/coursecast/color"
	"github.com/coursecast/coursecast/gate"
	"github.com/coursecast/coursecast/icon"
	"github.com/coursecast/coursecast/open"
	"github.com/coursecast/coursecast/player"
	"github.com/coursecast/coursecast/session"
	"github.com/coursecast/coursecast/style"
	"github.com/coursecast/coursecast/util"
	"github.com/muesli/reflow/wrap"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

func printAccess(w io.Writer, a *gate.Access, width int) {
	_, _ = fmt.Fprintln(w, style.Title(a.Title))
	if a.Description != "" {
		_, _ = fmt.Fprintln(w, wrap.String(style.Faint(a.Description), width))
	}
	_, _ = fmt.Fprintln(w)

	switch a.State {
	case gate.StatePreviewOnly:
		_, _ = fmt.Fprintf(w, "%s free preview, progress is saved but the course is not unlocked\n", icon.Get(icon.Preview))
	default:
		_, _ = fmt.Fprintf(w, "%s unlocked\n", style.Fg(color.Green)(icon.Get(icon.Success)))
	}

	if a.IsCompleted {
		_, _ = fmt.Fprintf(w, "%s completed\n", icon.Get(icon.Completed))
		return
	}

	_, _ = fmt.Fprintf(w, "%s watched %s\n", icon.Get(icon.Progress), style.Percentage(a.LastPersistedPercentage, a.RequiredCompletionPercentage))
	if a.LastWatchedSecond.IsPresent() {
		_, _ = fmt.Fprintf(w, "%s resumes at %s\n", icon.Get(icon.Continue), util.FormatSeconds(a.LastWatchedSecond.MustGet()))
	}
	_, _ = fmt.Fprintln(w, style.Faint(fmt.Sprintf("Watch %d%% to complete this lesson and unlock the next one.", a.RequiredCompletionPercentage)))
}

func init() {
	rootCmd.AddCommand(lessonCmd)
	lessonCmd.Flags().BoolP("open", "o", false, "Open the lesson video in the browser")
	lessonCmd.Flags().StringP("browser", "b", "", "Browser to open the video with")
}

var lessonCmd = &cobra.Command{
	Use:   "lesson <lesson id>",
	Short: "Check access to a lesson and show where it resumes",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		lessonID := parseID("lesson", args[0])

		access, err := gate.FromConfig(api.FromConfig()).Evaluate(commandContext(cmd), lessonID, requireToken())
		if denied, ok := gate.IsDenied(err); ok {
			fmt.Printf("%s %s\n", style.Fg(color.Red)(icon.Get(icon.Locked)), session.Describe(denied))
			os.Exit(1)
		}
		handleErr(err)

		width, _, err := util.TerminalSize()
		if err != nil || width <= 0 {
			width = 80
		}
		printAccess(os.Stdout, access, width)

		if !lo.Must(cmd.Flags().GetBool("open")) {
			return
		}

		link, err := player.ResolveVideo(access.VideoProvider, access.VideoID, access.EmbedURL)
		handleErr(err)
		handleErr(open.Validate(link))
		handleErr(open.StartWith(link, lo.Must(cmd.Flags().GetString("browser"))))
	},
}
