package tat

import (
	"fmt"
	"strings"
	"time"
)

const (
	minutesPerHour = 60
	minutesPerDay  = 24 * minutesPerHour
	minutesPerWeek = 7 * minutesPerDay
)

// FormatMinutes renders a minute duration for display. Missing values
// render as "N/A" and a zero duration renders as "-". Durations of an
// hour or more always include the minute remainder, so 60 renders as
// "1h 0m" rather than "1h".
func FormatMinutes(minutes *int64) string {
	if minutes == nil {
		return "N/A"
	}
	m := *minutes
	if m < 0 {
		return "N/A"
	}
	if m == 0 {
		return "-"
	}

	switch {
	case m < minutesPerHour:
		return fmt.Sprintf("%dm", m)
	case m < minutesPerDay:
		return fmt.Sprintf("%dh %dm", m/minutesPerHour, m%minutesPerHour)
	case m < minutesPerWeek:
		days := m / minutesPerDay
		hours := (m % minutesPerDay) / minutesPerHour
		if hours == 0 {
			return fmt.Sprintf("%dd", days)
		}
		return fmt.Sprintf("%dd %dh", days, hours)
	default:
		weeks := m / minutesPerWeek
		days := (m % minutesPerWeek) / minutesPerDay
		if days == 0 {
			return fmt.Sprintf("%dw", weeks)
		}
		return fmt.Sprintf("%dw %dd", weeks, days)
	}
}

// ParseStudyDate parses DICOM-style date and time strings (YYYYMMDD
// and HHMMSS). The time part is optional; missing or malformed times
// fall back to midnight. Returns nil when the date cannot be parsed.
func ParseStudyDate(date, timeStr string) *time.Time {
	date = strings.TrimSpace(date)
	if len(date) < 8 {
		return nil
	}

	layout := "20060102"
	value := date[:8]

	timeStr = strings.TrimSpace(timeStr)
	if len(timeStr) >= 6 {
		layout = "20060102150405"
		value += timeStr[:6]
	}

	t, err := time.Parse(layout, value)
	if err != nil {
		if layout != "20060102" {
			// Retry without the time component.
			if t2, err2 := time.Parse("20060102", date[:8]); err2 == nil {
				return &t2
			}
		}
		return nil
	}
	return &t
}
