//go:build !windows

package player

import (
	"os/exec"
	"syscall"
)

// detachedProcAttr puts mpv in its own process group so a terminal interrupt reaches
// the session first, which then flushes progress and closes the player itself.
func detachedProcAttr() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{Setpgid: true}
}

// killGroup kills mpv together with the helpers it spawned (ytdl).
func killGroup(cmd *exec.Cmd) error {
	if cmd == nil || cmd.Process == nil {
		return nil
	}
	_ = syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	return cmd.Process.Kill()
}
