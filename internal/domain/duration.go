package domain

import "fmt"

// FormatDuration renders a second count as M:SS, or H:MM:SS above an hour.
// Zero and negative values render as "0:00" (duration unknown).
func FormatDuration(seconds int) string {
	if seconds <= 0 {
		return "0:00"
	}
	h := seconds / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}
