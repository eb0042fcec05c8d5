// Package utils provides shared text and logging helpers.
package utils

import "unicode/utf8"

// Truncate returns s cut to at most maxLen runes, with "..." appended if it was
// cut. If maxLen is 0 or negative, returns s unchanged.
func Truncate(s string, maxLen int) string {
	if maxLen <= 0 || utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	n := 0
	for i := range s {
		if n == maxLen {
			return s[:i] + "..."
		}
		n++
	}
	return s
}
