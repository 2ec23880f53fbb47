package cmd

import (
	"os"
	"strings"

	"github.com/coursecast/coursecast/auth"
	"github.com/coursecast/coursecast/color"
	"github.com/coursecast/coursecast/config"
	"github.com/coursecast/coursecast/constant"
	"github.com/coursecast/coursecast/style"
	"github.com/coursecast/coursecast/where"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"golang.org/x/exp/slices"
)

func init() {
	rootCmd.AddCommand(envCmd)
	envCmd.Flags().BoolP("set-only", "s", false, "Display only environment variables that are currently defined")
	envCmd.Flags().BoolP("unset-only", "u", false, "Display only environment variables that are currently undefined")

	envCmd.MarkFlagsMutuallyExclusive("set-only", "unset-only")
	envCmd.SetOut(os.Stdout)
}

// envNames lists every variable the application reads, sorted.
func envNames() []string {
	names := lo.Map(config.EnvExposed, func(k string, _ int) string {
		return strings.ToUpper(constant.App + "_" + config.EnvKeyReplacer.Replace(k))
	})
	names = append(names, where.EnvConfigPath, auth.EnvToken)
	slices.Sort(names)
	return names
}

// maskSecret hides all but the last four characters of a token.
func maskSecret(value string) string {
	if len(value) <= 4 {
		return strings.Repeat("*", len(value))
	}
	return strings.Repeat("*", len(value)-4) + value[len(value)-4:]
}

var envCmd = &cobra.Command{
	Use:   "env",
	Short: "Display the collection of supported environment variables",
	Long:  `Display the collection of supported environment variables and their current process values.`,
	Run: func(cmd *cobra.Command, args []string) {
		setOnly := lo.Must(cmd.Flags().GetBool("set-only"))
		unsetOnly := lo.Must(cmd.Flags().GetBool("unset-only"))

		for _, env := range envNames() {
			value, present := os.LookupEnv(env)
			present = present && value != ""

			if (setOnly && !present) || (unsetOnly && present) {
				continue
			}

			if env == auth.EnvToken {
				value = maskSecret(value)
			}

			cmd.Print(style.New().Bold(true).Foreground(color.Purple).Render(env))
			cmd.Print("=")

			if present {
				cmd.Println(style.Fg(color.Green)(value))
			} else {
				cmd.Println(style.Fg(color.Red)("unset"))
			}
		}
	},
}
