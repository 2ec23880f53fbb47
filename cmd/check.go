package cmd

import (
	"fmt"
	"os"
	"os/exec"
	"runtime"

	"github.com/charmbracelet/lipgloss"
	"github.com/coursecast/coursecast/constant"
	"github.com/coursecast/coursecast/icon"
	"github.com/coursecast/coursecast/key"
	"github.com/coursecast/coursecast/style"
	"github.com/spf13/viper"
)

// CheckDependencies exits when the configured player cannot be found.
func CheckDependencies() {
	binary := viper.GetString(key.PlayerBinary)
	if _, err := exec.LookPath(binary); err != nil {
		printMissingDependencyError(binary)
		os.Exit(1)
	}
}

func installHint() string {
	switch runtime.GOOS {
	case constant.Darwin:
		return "brew install mpv"
	case constant.Linux:
		return "sudo apt install mpv"
	case constant.Windows:
		return "scoop install mpv"
	default:
		return ""
	}
}

func printMissingDependencyError(dep string) {
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(style.HiRed).
		Padding(1, 2).
		Margin(1, 0)

	title := style.New().Bold(true).Foreground(style.HiRed).Render(fmt.Sprintf("%s Error: Missing Dependency", icon.Get(icon.Fail)))
	body := style.New().Foreground(style.Text).Render(fmt.Sprintf("The video player '%s' was not found in your PATH.", dep))

	suggestion := fmt.Sprintf("\n\nPoint %s at it with:\n  %s", constant.App,
		style.New().Foreground(style.AccentColor).Bold(true).Render(fmt.Sprintf("%s config set %s /path/to/mpv", constant.App, key.PlayerBinary)))
	if hint := installHint(); hint != "" {
		suggestion = fmt.Sprintf("\n\nTo install it, try running:\n  %s", style.New().Foreground(style.AccentColor).Bold(true).Render(hint)) + suggestion
	}

	fmt.Println(box.Render(
		lipgloss.JoinVertical(lipgloss.Left,
			title,
			"\n",
			body,
			suggestion,
		),
	))
}
