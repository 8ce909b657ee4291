//go:build !windows

package process

import "syscall"

// KillProcessGroup sends SIGKILL to the browser's process group so renderer
// and GPU helpers die with it.
func KillProcessGroup(pid int) {
	// launcher.Kill runs afterwards and covers a failure here.
	_ = syscall.Kill(-pid, syscall.SIGKILL)
}
