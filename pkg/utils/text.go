package utils

// Truncate returns s cut to at most maxLen bytes with "..." appended when
// something was cut. Non-positive maxLen returns s unchanged.
func Truncate(s string, maxLen int) string {
	if maxLen <= 0 || len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
