//go:build linux

package procwatch

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// running scans /proc. Both comm and argv[0] are checked so games started
// through a compatibility layer (argv[0] "C:\...\StarCitizen.exe") match.
func running(name string) (bool, error) {
	entries, err := os.ReadDir("/proc")
	if err != nil {
		return false, fmt.Errorf("read /proc: %w", err)
	}

	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		pid, err := strconv.Atoi(e.Name())
		if err != nil {
			continue
		}

		if comm, err := os.ReadFile(fmt.Sprintf("/proc/%d/comm", pid)); err == nil {
			if matchName(string(comm), name) {
				return true, nil
			}
		}

		cmdline, err := os.ReadFile(fmt.Sprintf("/proc/%d/cmdline", pid))
		if err != nil || len(cmdline) == 0 {
			continue
		}
		argv0, _, _ := strings.Cut(string(cmdline), "\x00")
		if matchName(argv0, name) {
			return true, nil
		}
	}
	return false, nil
}
