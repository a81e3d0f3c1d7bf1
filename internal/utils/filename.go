package utils

import (
	"strings"
	"unicode/utf8"
)

const maxFilenameBytes = 240

// SanitizeFilename turns a title or chapter name into a single path segment.
// Characters that are not allowed on common filesystems become underscores,
// leading and trailing dots and spaces are dropped, and the result is
// truncated to fit a file name. An empty result becomes "(invalid)".
func SanitizeFilename(name string) string {
	var b strings.Builder
	for _, r := range name {
		if isValidFilenameRune(r) {
			b.WriteRune(r)
		} else {
			b.WriteRune('_')
		}
	}

	filename := strings.Trim(b.String(), ". ")
	for len(filename) > maxFilenameBytes {
		_, size := utf8.DecodeLastRuneInString(filename)
		filename = filename[:len(filename)-size]
	}
	filename = strings.TrimRight(filename, ". ")

	if filename == "" {
		return "(invalid)"
	}
	return filename
}

func isValidFilenameRune(r rune) bool {
	if r < 0x20 || r == 0x7f || r == utf8.RuneError {
		return false
	}
	switch r {
	case '"', '*', '/', ':', '<', '>', '?', '\\', '|':
		return false
	}
	return true
}
