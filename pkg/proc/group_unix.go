//go:build unix

package proc

import (
	"os/exec"
	"syscall"
)

// killGroupOnCancel starts the child in its own process group and kills the
// whole group on cancellation, so helpers such as headless browsers die with
// the tool that spawned them.
func killGroupOnCancel(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	}
}
