package utils

import (
	"strings"
)

// SanitizeInput strips line breaks from values that end up in log entries
func SanitizeInput(input string) string {
	input = strings.ReplaceAll(input, "\n", "")
	input = strings.ReplaceAll(input, "\r", "")
	return input
}
