package utils

import (
	"fmt"
	"time"
)

// RoundedAge renders d in its largest whole unit: "45s", "3m", "2h", "4d".
// Negative durations (clock skew) are rendered by magnitude.
func RoundedAge(d time.Duration) string {
	if d < 0 {
		d = -d
	}
	switch {
	case d < time.Minute:
		return fmt.Sprintf("%ds", int64(d/time.Second))
	case d < time.Hour:
		return fmt.Sprintf("%dm", int64(d/time.Minute))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh", int64(d/time.Hour))
	}
	return fmt.Sprintf("%dd", int64(d/(24*time.Hour)))
}
