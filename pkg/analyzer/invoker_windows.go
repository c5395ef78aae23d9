//go:build windows

package analyzer

import "os/exec"

// configureSysProc is a no-op on Windows; exec.CommandContext's default kill
// suffices and process groups need job objects we do not manage here.
func configureSysProc(cmd *exec.Cmd) {}
