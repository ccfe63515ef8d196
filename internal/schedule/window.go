package schedule

import "time"

// EvaluateWindow determines whether now falls inside the allowed access
// window described by "HH:MM" start/end strings (either may be empty).
// It returns the decision and, when blocked, a display string for when the
// window unlocks. Malformed time strings fail open: that bound is treated as
// unconstrained.
//
//   - Both empty: always allowed.
//   - Only start: blocked before start, allowed from start onward.
//   - Only end: allowed until end (exclusive), then blocked until midnight.
//   - Both, start <= end: allowed within [start, end).
//   - Both, start > end: overnight window, allowed when now >= start or
//     now < end.
func EvaluateWindow(startStr, endStr string, now time.Time) (bool, string) {
	if startStr == "" && endStr == "" {
		return true, ""
	}

	nowMinutes := now.Hour()*60 + now.Minute()

	if startStr != "" && endStr == "" {
		start := minutesOfDay(startStr)
		if start < 0 {
			return true, ""
		}
		if nowMinutes >= start {
			return true, ""
		}
		return false, FormatTime12h(startStr)
	}

	if endStr != "" && startStr == "" {
		end := minutesOfDay(endStr)
		if end < 0 {
			return true, ""
		}
		if nowMinutes < end {
			return true, ""
		}
		return false, "tomorrow"
	}

	start := minutesOfDay(startStr)
	end := minutesOfDay(endStr)
	if start < 0 || end < 0 {
		return true, ""
	}

	var allowed bool
	if start <= end {
		allowed = start <= nowMinutes && nowMinutes < end
	} else {
		// Overnight window, e.g. 22:00 - 06:00.
		allowed = nowMinutes >= start || nowMinutes < end
	}
	if allowed {
		return true, ""
	}
	return false, FormatTime12h(startStr)
}
