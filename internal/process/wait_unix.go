//go:build unix && !linux

package process

import (
	"errors"
	"os/exec"
)

// waitAndSweep reaps the child, then kills its group only when stragglers
// held the output pipes open past WaitDelay, which means the group still
// had members after the leader exited.
func waitAndSweep(cmd *exec.Cmd) error {
	err := cmd.Wait()
	if errors.Is(err, exec.ErrWaitDelay) {
		killGroup(cmd)
	}
	return err
}
