package validators

import "strings"

// SanitizeString trims surrounding whitespace and truncates free-form query
// input to maxLen bytes. Zero maxLen means no length cap.
func SanitizeString(input string, maxLen int) string {
	trimmed := strings.TrimSpace(input)
	if maxLen > 0 && len(trimmed) > maxLen {
		trimmed = trimmed[:maxLen]
	}
	return trimmed
}
