// Package cmd implements the command-line interface for coursecast.
package cmd

import (
	"fmt"

	"github.com/AlecAivazis/survey/v2"
	"github.com/coursecast/coursecast/filesystem"
	"github.com/coursecast/coursecast/icon"
	"github.com/coursecast/coursecast/internal/outbox"
	"github.com/coursecast/coursecast/util"
	"github.com/coursecast/coursecast/where"
	"github.com/samber/lo"
	"github.com/samber/mo"
	"github.com/spf13/cobra"
)

// clearTarget is a path that can be removed on request.
type clearTarget struct {
	name     string
	argLong  string
	argShort mo.Option[string]
	location func() string
}

var clearTargets = []clearTarget{
	{"cache directory", "cache", mo.Some("c"), where.Cache},
	{"temp directory", "temp", mo.Some("t"), where.Temp},
	{"progress outbox", "outbox", mo.Some("o"), where.Outbox},
}

func init() {
	rootCmd.AddCommand(clearCmd)

	for _, target := range clearTargets {
		help := fmt.Sprintf("clear %s", target.name)
		if target.argShort.IsPresent() {
			clearCmd.Flags().BoolP(target.argLong, target.argShort.MustGet(), false, help)
		} else {
			clearCmd.Flags().Bool(target.argLong, false, help)
		}
	}

	clearCmd.Flags().BoolP("yes", "y", false, "Do not ask before dropping queued progress")
}

// confirmOutboxClear asks before dropping progress that was never delivered.
func confirmOutboxClear(cmd *cobra.Command) bool {
	if lo.Must(cmd.Flags().GetBool("yes")) {
		return true
	}

	pending, err := outbox.Pending()
	handleErr(err)
	if len(pending) == 0 {
		return true
	}

	var sure bool
	handleErr(survey.AskOne(&survey.Confirm{
		Message: fmt.Sprintf("Drop %s that was never saved?", util.Quantify(len(pending), "queued update", "queued updates")),
	}, &sure))
	return sure
}

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Clear cached files, player sockets or queued progress",
	Run: func(cmd *cobra.Command, args []string) {
		var anyCleared bool

		doClear := func(what string) bool {
			return lo.Must(cmd.Flags().GetBool(what))
		}

		for _, target := range clearTargets {
			if doClear(target.argLong) {
				anyCleared = true
				if target.argLong == "outbox" && !confirmOutboxClear(cmd) {
					continue
				}

				if !filesystem.Exists(target.location()) {
					fmt.Printf("%s %s is already empty\n", icon.Get(icon.Success), util.Capitalize(target.name))
					continue
				}

				e := util.PrintErasable(fmt.Sprintf("%s Clearing %s...", icon.Get(icon.Progress), target.name))
				err := util.Delete(target.location())
				e()
				handleErr(err)
				fmt.Printf("%s %s cleared\n", icon.Get(icon.Success), util.Capitalize(target.name))
			}
		}

		if !anyCleared {
			handleErr(cmd.Help())
		}
	},
}
