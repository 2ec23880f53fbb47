// Package cmd implements the command-line interface for coursecast.
package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/coursecast/coursecast/api"
	"github.com/coursecast/coursecast/auth"
	"github.com/coursecast/coursecast/color"
	"github.com/coursecast/coursecast/constant"
	"github.com/coursecast/coursecast/icon"
	"github.com/coursecast/coursecast/key"
	"github.com/coursecast/coursecast/log"
	"github.com/coursecast/coursecast/style"
	"github.com/coursecast/coursecast/util"
	"github.com/coursecast/coursecast/where"
	cc "github.com/ivanpirog/coloredcobra"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	rootCmd.Flags().BoolP("version", "v", false, "Print the application version")

	rootCmd.PersistentFlags().StringP("icons", "I", "", "Set the visual icon variant (e.g., nerd, emoji, squares)")
	lo.Must0(rootCmd.RegisterFlagCompletionFunc("icons", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return icon.AvailableVariants(), cobra.ShellCompDirectiveDefault
	}))
	lo.Must0(viper.BindPFlag(key.IconsVariant, rootCmd.PersistentFlags().Lookup("icons")))

	rootCmd.PersistentFlags().String("api", "", "Base URL of the learning backend")
	lo.Must0(viper.BindPFlag(key.APIBaseURL, rootCmd.PersistentFlags().Lookup("api")))

	rootCmd.PersistentFlags().Bool("no-outbox", false, "Do not queue or replay undelivered progress")

	// player sockets left behind by a crashed run
	go func() {
		_ = util.Delete(where.Temp())
	}()
}

var rootCmd = &cobra.Command{
	Use:   constant.App,
	Short: "Watch course lessons from the terminal and keep your progress in sync",
	Long: constant.AsciiArtLogo + "\n" +
		style.New().Italic(true).Foreground(color.HiRed).Render("    - Watch course lessons from the terminal and keep your progress in sync"),
	Run: func(cmd *cobra.Command, args []string) {
		if cmd.Flags().Changed("version") {
			versionCmd.Run(versionCmd, args)
			return
		}

		handleErr(cmd.Help())
	},
}

// Execute initializes child command routing and processes the CLI entry point.
func Execute() {
	if viper.GetBool(key.CliColored) {
		cc.Init(&cc.Config{
			RootCmd:       rootCmd,
			Headings:      cc.HiCyan + cc.Bold + cc.Underline,
			Commands:      cc.HiYellow + cc.Bold,
			Example:       cc.Italic,
			ExecName:      cc.Bold,
			Flags:         cc.Bold,
			FlagsDataType: cc.Italic + cc.HiBlue,
		})
	}

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func handleErr(err error) {
	if err != nil {
		log.Error(err)
		_, _ = fmt.Fprintf(os.Stderr, "%s %s\n", icon.Get(icon.Fail), strings.Trim(describeErr(err), " \n"))
		os.Exit(1)
	}
}

// describeErr turns backend failures into something a viewer can act on.
func describeErr(err error) string {
	switch api.KindOf(err) {
	case api.Unauthorized:
		return fmt.Sprintf("your session has expired, run %s login", constant.App)
	case api.Network:
		return fmt.Sprintf("cannot reach the backend at %s: %v", viper.GetString(key.APIBaseURL), err)
	default:
		return err.Error()
	}
}

func outboxEnabled(cmd *cobra.Command) bool {
	if lo.Must(cmd.Flags().GetBool("no-outbox")) {
		return false
	}
	return viper.GetBool(key.OutboxEnable)
}

// requireToken returns the stored token or exits with a hint to log in.
func requireToken() string {
	token, err := auth.GetToken()
	handleErr(err)
	if token == "" {
		handleErr(fmt.Errorf("you are not logged in, run %s login", constant.App))
	}
	return token
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
