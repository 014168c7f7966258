package stats

import (
	"fmt"
	"time"
)

// FormatBytes renders a byte count in a human-scaled unit.
func FormatBytes(n int64) string {
	size := float64(n)
	for _, unit := range []string{"B", "KB", "MB", "GB"} {
		if size < 1024.0 {
			return fmt.Sprintf("%.1f%s", size, unit)
		}
		size /= 1024.0
	}
	return fmt.Sprintf("%.1fTB", size)
}

// FormatDuration renders a duration in a human-scaled unit.
func FormatDuration(d time.Duration) string {
	secs := d.Seconds()
	switch {
	case secs < 60:
		return fmt.Sprintf("%.1fs", secs)
	case secs < 3600:
		return fmt.Sprintf("%dm %.1fs", int(secs)/60, secs-float64(int(secs)/60*60))
	default:
		hours := int(secs) / 3600
		return fmt.Sprintf("%dh %dm", hours, (int(secs)%3600)/60)
	}
}
