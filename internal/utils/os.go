package utils

import (
	"os"
	"path/filepath"
	"strings"
)

const fallbackName = "gesture-pad"

// ExecutableName is the name the binary was installed under, used in usage
// text and HID error hints.
func ExecutableName() string {
	executable, err := os.Executable()
	if err != nil {
		return fallbackName
	}
	name := strings.TrimSuffix(filepath.Base(executable), ".exe")
	if name == "" || name == "." {
		return fallbackName
	}
	return name
}
