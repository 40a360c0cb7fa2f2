package utils

const Ellipsis = "..."

// TruncateRunes cuts s to at most max characters and appends Ellipsis when it had to cut.
func TruncateRunes(s string, max int) string {
	if max <= 0 {
		return ""
	}
	// fast path: byte length bounds rune count
	if len(s) <= max {
		return s
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + Ellipsis
}
