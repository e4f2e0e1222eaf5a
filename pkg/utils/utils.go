package utils

import (
	"fmt"
	"time"

	"github.com/mattn/go-runewidth"
)

// FormatRoundedUnit renders a duration in its largest whole unit: 42s, 3m, 2h.
func FormatRoundedUnit(d time.Duration) string {
	if d < 0 {
		d = -d
	}
	seconds := int64(d / time.Second)
	switch {
	case seconds < 60:
		return fmt.Sprintf("%ds", seconds)
	case seconds < 3600:
		return fmt.Sprintf("%dm", seconds/60)
	default:
		return fmt.Sprintf("%dh", seconds/3600)
	}
}

// Truncate shortens s to at most maxWidth terminal columns, marking the cut
// with "...". Wide runes count as two columns and are never split.
func Truncate(s string, maxWidth int) string {
	if maxWidth <= 3 {
		return runewidth.Truncate(s, maxWidth, "")
	}
	return runewidth.Truncate(s, maxWidth, "...")
}
