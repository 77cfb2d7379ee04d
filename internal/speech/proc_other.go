//go:build !linux

package speech

import "os/exec"

func configureProcess(*exec.Cmd) {}
