// Package open launches lesson pages in the system browser.
package open

import (
	"fmt"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/coursecast/coursecast/constant"
)

// Start opens link with the default system handler without waiting for it.
func Start(link string) error {
	cmd, ok := command(link)
	if !ok {
		return fmt.Errorf("unsupported OS: %s", runtime.GOOS)
	}
	return cmd.Start()
}

// StartWith opens link with the given application. An empty app uses the default handler.
func StartWith(link, app string) error {
	if app == "" {
		return Start(link)
	}
	cmd, ok := commandWith(link, app)
	if !ok {
		return fmt.Errorf("unsupported OS: %s", runtime.GOOS)
	}
	return cmd.Start()
}

// Validate accepts only absolute http(s) links so that nothing else reaches the shell handlers.
func Validate(link string) error {
	u, err := url.Parse(link)
	if err != nil {
		return fmt.Errorf("invalid link %q: %w", link, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("refusing to open %q: only http and https links are supported", link)
	}
	if u.Host == "" {
		return fmt.Errorf("refusing to open %q: missing host", link)
	}
	return nil
}

func command(link string) (*exec.Cmd, bool) {
	switch runtime.GOOS {
	case constant.Windows:
		rundll := filepath.Join(os.Getenv("SYSTEMROOT"), "System32", "rundll32.exe")
		return exec.Command(rundll, "url.dll,FileProtocolHandler", link), true
	case constant.Darwin:
		return exec.Command("open", link), true
	case constant.Linux:
		return exec.Command("xdg-open", link), true
	case constant.Android:
		return exec.Command("termux-open", link), true
	default:
		return nil, false
	}
}

func commandWith(link, app string) (*exec.Cmd, bool) {
	switch runtime.GOOS {
	case constant.Windows:
		// start treats & as a command separator
		return exec.Command("cmd", "/C", "start", "", app, strings.ReplaceAll(link, "&", "^&")), true
	case constant.Darwin:
		return exec.Command("open", "-a", app, link), true
	case constant.Linux, constant.Android:
		return exec.Command(app, link), true
	default:
		return nil, false
	}
}
