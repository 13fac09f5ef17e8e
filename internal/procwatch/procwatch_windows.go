//go:build windows

package procwatch

import (
	"encoding/csv"
	"fmt"
	"os/exec"
	"strings"
)

func running(name string) (bool, error) {
	image := name
	if !strings.HasSuffix(strings.ToLower(image), ".exe") {
		image += ".exe"
	}
	out, err := exec.Command("tasklist", "/FI", "IMAGENAME eq "+image, "/FO", "CSV", "/NH").Output()
	if err != nil {
		return false, fmt.Errorf("tasklist: %w", err)
	}

	records, err := csv.NewReader(strings.NewReader(string(out))).ReadAll()
	if err != nil {
		// "INFO: No tasks are running..." is not CSV.
		return false, nil
	}
	for _, rec := range records {
		if len(rec) > 0 && matchName(rec[0], name) {
			return true, nil
		}
	}
	return false, nil
}
