package utils

import (
	"fmt"
	"time"
)

// CountdownCompleted is returned once a listing's end time has passed
const CountdownCompleted = "Completed"

// FormatCountdown renders the time remaining until endTime as the two most
// significant non-zero units of days/hours/minutes, e.g. "2d 3h", "4h 15m",
// "15m". A past or zero remainder yields CountdownCompleted.
func FormatCountdown(endTime, now time.Time) string {
	diff := endTime.Sub(now)
	if diff <= 0 {
		return CountdownCompleted
	}

	minutes := int(diff / time.Minute)
	hours := minutes / 60
	days := hours / 24
	h := hours % 24
	m := minutes % 60

	if days > 0 {
		return fmt.Sprintf("%dd %dh", days, h)
	}
	if hours > 0 {
		return fmt.Sprintf("%dh %dm", hours, m)
	}
	return fmt.Sprintf("%dm", m)
}
