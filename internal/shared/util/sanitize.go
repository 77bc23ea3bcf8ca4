package util

import (
	"errors"
	"strings"
)

// SanitizeKeyPart removes path separators and rejects traversal patterns so a
// caller-influenced value can be embedded in a storage key.
func SanitizeKeyPart(part string) (string, error) {
	if strings.Contains(part, "..") {
		return "", errors.New("invalid key part")
	}
	s := strings.TrimSpace(part)
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	if s == "" {
		return "", errors.New("invalid key part")
	}
	return s, nil
}
