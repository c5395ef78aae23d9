//go:build !windows

package analyzer

import (
	"os/exec"
	"syscall"
)

// configureSysProc puts the tool in its own process group and arranges for
// timeout kills to reach the whole group, not just the direct child. Tools
// that fork (test runners, node wrappers) would otherwise survive the kill.
func configureSysProc(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		if cmd.Process == nil {
			return nil
		}
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	}
}
