package domain

import (
	"fmt"
	"strings"
)

// DocumentFilename derives the archive file name from a fetched bulletin:
// "20" + line 1 with spaces as underscores and slashes as hyphens + ".txt".
func DocumentFilename(content []byte) (string, error) {
	lines := SplitLines(string(content))
	if len(lines) < 2 {
		return "", fmt.Errorf("derive filename: %w: document has %d lines", ErrMissingLine, len(lines))
	}
	token := strings.NewReplacer(" ", "_", "/", "-").Replace(lines[1])
	return "20" + token + ".txt", nil
}
