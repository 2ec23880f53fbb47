//go:build windows

package player

import (
	"os/exec"
	"syscall"
)

const createNewProcessGroup = 0x00000200

// detachedProcAttr keeps console interrupts away from mpv so the session can flush progress first.
func detachedProcAttr() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{CreationFlags: createNewProcessGroup}
}

func killGroup(cmd *exec.Cmd) error {
	if cmd == nil || cmd.Process == nil {
		return nil
	}
	return cmd.Process.Kill()
}
