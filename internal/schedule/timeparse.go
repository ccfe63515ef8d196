package schedule

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Matches: 800, 0800, 8:00, 800am, 8:00am, 800pm, 8:00PM, 2000, 20:00
var timeInputRe = regexp.MustCompile(`(?i)^(\d{1,2}):?(\d{2})\s*(am|pm)?$`)

// ParseTimeInput parses flexible time input into 24-hour "HH:MM" format.
// Returns "" if the input is not a valid time.
func ParseTimeInput(raw string) string {
	m := timeInputRe.FindStringSubmatch(strings.TrimSpace(raw))
	if m == nil {
		return ""
	}
	hour, _ := strconv.Atoi(m[1])
	minute, _ := strconv.Atoi(m[2])
	meridiem := strings.ToLower(m[3])

	switch meridiem {
	case "am":
		if hour == 12 {
			hour = 0
		} else if hour > 12 {
			return ""
		}
	case "pm":
		if hour > 12 {
			return ""
		}
		if hour != 12 {
			hour += 12
		}
	default:
		if hour > 23 {
			return ""
		}
	}

	if minute > 59 {
		return ""
	}

	return fmt.Sprintf("%02d:%02d", hour, minute)
}

// FormatTime12h converts "HH:MM" to a human-readable 12-hour form:
// "08:00" -> "8:00 AM", "20:00" -> "8:00 PM", "00:00" -> "12:00 AM".
// Malformed input is returned unchanged.
func FormatTime12h(hhmm string) string {
	h, m, ok := splitHHMM(hhmm)
	if !ok {
		return hhmm
	}
	switch {
	case h == 0:
		return fmt.Sprintf("12:%02d AM", m)
	case h < 12:
		return fmt.Sprintf("%d:%02d AM", h, m)
	case h == 12:
		return fmt.Sprintf("12:%02d PM", m)
	default:
		return fmt.Sprintf("%d:%02d PM", h-12, m)
	}
}

// splitHHMM parses a strict "HH:MM" 24-hour string.
func splitHHMM(hhmm string) (hour, minute int, ok bool) {
	parts := strings.SplitN(hhmm, ":", 2)
	if len(parts) != 2 {
		return 0, 0, false
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, 0, false
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, 0, false
	}
	return h, m, true
}

// minutesOfDay returns minutes since midnight for "HH:MM", or -1 when the
// string is malformed (callers treat that bound as unconstrained).
func minutesOfDay(hhmm string) int {
	h, m, ok := splitHHMM(hhmm)
	if !ok {
		return -1
	}
	return h*60 + m
}
