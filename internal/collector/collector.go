package collector

import "pomoclock/internal/event"

// FocusProbe reports which window has input focus right now.
type FocusProbe interface {
	CurrentFocus() (event.FocusInfo, error)
	Close() error
}

// Truncate shortens s to maxLen runes, marking the cut with "...".
func Truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}
