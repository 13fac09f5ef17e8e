package procwatch

import (
	"path"
	"strings"
)

// Checker reports whether a process with the given image name is running.
type Checker interface {
	Running(name string) (bool, error)
}

// System checks the host process table.
type System struct{}

func (System) Running(name string) (bool, error) {
	return running(name)
}

// Static always answers with its own value. It backs skip-process-check.
type Static bool

func (s Static) Running(string) (bool, error) { return bool(s), nil }

// matchName compares a process image against the wanted name, ignoring case,
// directories (either separator) and a trailing ".exe".
func matchName(image, want string) bool {
	image = strings.ReplaceAll(strings.TrimSpace(image), `\`, "/")
	image = path.Base(image)
	return normalize(image) == normalize(want)
}

func normalize(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	return strings.TrimSuffix(name, ".exe")
}
