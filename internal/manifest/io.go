package manifest

import (
	"os"
	"strings"
)

func readFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

func trimmedEmpty(s string) bool {
	return strings.TrimSpace(s) == ""
}
