//go:build !linux && !windows

package procwatch

import (
	"bufio"
	"bytes"
	"fmt"
	"os/exec"
)

func running(name string) (bool, error) {
	out, err := exec.Command("ps", "-A", "-o", "comm=").Output()
	if err != nil {
		return false, fmt.Errorf("ps: %w", err)
	}
	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		if matchName(scanner.Text(), name) {
			return true, nil
		}
	}
	return false, scanner.Err()
}
