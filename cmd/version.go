package cmd

import (
	"os"
	"runtime"
	"runtime/debug"
	"text/template"

	"github.com/coursecast/coursecast/color"
	"github.com/coursecast/coursecast/constant"
	"github.com/coursecast/coursecast/key"
	"github.com/coursecast/coursecast/style"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	rootCmd.AddCommand(versionCmd)
	versionCmd.SetOut(os.Stdout)
	versionCmd.Flags().BoolP("short", "s", false, "Display only the version string without metadata")
}

// revision reads the VCS revision stamped by the go toolchain, if any.
func revision() string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return "unknown"
	}

	setting, ok := lo.Find(info.Settings, func(s debug.BuildSetting) bool {
		return s.Key == "vcs.revision"
	})
	if !ok || setting.Value == "" {
		return "unknown"
	}
	return setting.Value[:min(len(setting.Value), 12)]
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Display version and build metadata",
	Long:  "Display the current application version, build revision, platform and the backend it talks to.",
	Run: func(cmd *cobra.Command, args []string) {
		if lo.Must(cmd.Flags().GetBool("short")) {
			cmd.Println(constant.Version)
			return
		}

		versionInfo := struct {
			Version   string
			OS        string
			Arch      string
			GoVersion string
			Revision  string
			App       string
			Backend   string
		}{
			Version:   constant.Version,
			App:       constant.App,
			OS:        runtime.GOOS,
			Arch:      runtime.GOARCH,
			GoVersion: runtime.Version(),
			Revision:  revision(),
			Backend:   viper.GetString(key.APIBaseURL),
		}

		t, err := template.New("version").Funcs(map[string]any{
			"faint":   style.Faint,
			"bold":    style.Bold,
			"magenta": style.Fg(color.Purple),
			"cyan":    style.Fg(color.HiCyan),
		}).Parse(`{{ magenta "▇▇▇" }} {{ magenta .App }}

  {{ faint "Version" }}     {{ bold .Version }}
  {{ faint "Git Commit" }}  {{ bold .Revision }}
  {{ faint "Go" }}          {{ bold .GoVersion }}
  {{ faint "Platform" }}    {{ bold .OS }}/{{ bold .Arch }}
  {{ faint "Backend" }}     {{ cyan .Backend }}
`)
		handleErr(err)
		handleErr(t.Execute(cmd.OutOrStdout(), versionInfo))
	},
}
