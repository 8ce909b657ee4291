//go:build windows

package process

import (
	"os/exec"
	"strconv"
)

// KillProcessGroup terminates the browser and its child tree with taskkill.
func KillProcessGroup(pid int) {
	// launcher.Kill runs afterwards and covers a failure here.
	_ = exec.Command("taskkill", "/F", "/T", "/PID", strconv.Itoa(pid)).Run() // #nosec G204 -- pid is numeric
}
