// Package str has string helpers for terminal output.
package str

import "strings"

// Shorten truncates a string to n runes, marking the cut with "...".
func Shorten(s string, n int) string {
	if n < 4 {
		n = 4
	}
	rs := []rune(s)
	if len(rs) <= n {
		return s
	}
	return string(rs[:n-3]) + "..."
}

// Dash returns "-" for an empty string.
func Dash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
