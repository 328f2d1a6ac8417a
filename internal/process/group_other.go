//go:build !unix

package process

import (
	"os"
	"os/exec"
)

func configureProcessGroup(cmd *exec.Cmd) {}

func waitAndSweep(cmd *exec.Cmd) error {
	return cmd.Wait()
}

func signalOf(state *os.ProcessState) (string, bool) {
	return "", false
}
