package utils

import (
	"fmt"
	"time"
)

// FormatCountdown converts the distance from now to a future date into a
// short human string ("in 3 days", "in 1 hour"). It depends only on the
// difference between the two times. Dates in the past or less than a
// minute away render as "now".
func FormatCountdown(now, target time.Time) string {
	remaining := target.Sub(now)
	if remaining < time.Minute {
		return "now"
	}

	if remaining < time.Hour {
		minutes := int(remaining.Minutes())
		return fmt.Sprintf("in %d %s", minutes, pluralize("minute", minutes))
	}

	if remaining < 24*time.Hour {
		hours := int(remaining.Hours())
		return fmt.Sprintf("in %d %s", hours, pluralize("hour", hours))
	}

	// Partial days count as a full day ("in 2 days" for 36 hours)
	days := int((remaining + 24*time.Hour - time.Nanosecond) / (24 * time.Hour))
	return fmt.Sprintf("in %d %s", days, pluralize("day", days))
}

func pluralize(unit string, n int) string {
	if n == 1 {
		return unit
	}
	return unit + "s"
}
