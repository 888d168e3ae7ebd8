// Package timeutil provides time parsing and date-pattern translation helpers.
package timeutil

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// Pre-compiled regex for relative time values (e.g., "2h", "30m", "7d")
var relativeTimeRe = regexp.MustCompile(`^(\d+)([mhd])$`)

// Parse parses a time string that can be either RFC3339 or a relative
// lookback like "2h", "30m" or "7d".
//
// Examples:
//   - "now" or "" -> current time
//   - "2h" -> 2 hours ago
//   - "7d" -> 7 days ago
//   - "2025-12-02T06:00:00Z" -> specific RFC3339 time
func Parse(input string) (time.Time, error) {
	return parseAt(input, time.Now().UTC())
}

func parseAt(input string, now time.Time) (time.Time, error) {
	if input == "" || input == "now" {
		return now, nil
	}

	if t, err := time.Parse(time.RFC3339, input); err == nil {
		return t, nil
	}

	if m := relativeTimeRe.FindStringSubmatch(input); m != nil {
		value, _ := strconv.Atoi(m[1])
		var unit time.Duration
		switch m[2] {
		case "m":
			unit = time.Minute
		case "h":
			unit = time.Hour
		case "d":
			unit = 24 * time.Hour
		}
		return now.Add(-time.Duration(value) * unit), nil
	}

	return time.Time{}, fmt.Errorf("invalid time format: %s - use RFC3339 (2025-12-02T06:00:00Z) or relative (2h, 30m, 7d)", input)
}

// FormatDuration formats a duration in a compact human-readable way.
func FormatDuration(d time.Duration) string {
	switch {
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	case d < time.Minute:
		return fmt.Sprintf("%.1fs", d.Seconds())
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%.1fh", d.Hours())
	}
	return fmt.Sprintf("%.1fd", d.Hours()/24)
}
