package util

import (
	"errors"
	"strings"
	"unicode"
)

// MaxFileNameLen caps stored upload names; longer names keep their tail so
// the extension survives.
const MaxFileNameLen = 120

var errInvalidFileName = errors.New("invalid file name")

// SanitizeFileName flattens path separators, drops control characters and
// rejects traversal patterns.
func SanitizeFileName(name string) (string, error) {
	if strings.Contains(name, "..") {
		return "", errInvalidFileName
	}
	s := strings.Map(func(r rune) rune {
		switch {
		case r == '/' || r == '\\':
			return '_'
		case unicode.IsControl(r):
			return -1
		}
		return r
	}, strings.TrimSpace(name))
	if s == "" {
		return "", errInvalidFileName
	}
	if r := []rune(s); len(r) > MaxFileNameLen {
		s = string(r[len(r)-MaxFileNameLen:])
	}
	return s, nil
}
