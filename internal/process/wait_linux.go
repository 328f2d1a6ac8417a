package process

import (
	"errors"
	"os/exec"

	"golang.org/x/sys/unix"
)

// waitAndSweep waits for the child to exit without reaping it, kills what
// is left of its process group, then reaps it through cmd.Wait. The zombie
// leader keeps the group id reserved until the sweep is done.
func waitAndSweep(cmd *exec.Cmd) error {
	var info unix.Siginfo
	for {
		err := unix.Waitid(unix.P_PID, cmd.Process.Pid, &info, unix.WEXITED|unix.WNOWAIT, nil)
		if !errors.Is(err, unix.EINTR) {
			break
		}
	}
	killGroup(cmd)
	return cmd.Wait()
}
