package domain

import (
	"strconv"
	"strings"
	"time"
)

// IsOpenNow reports whether the opening hours contain an entry for now's
// weekday whose time range covers now. Hours strings look like
// "11 AM to 10 PM" or "11:30 AM to 9:30 PM". Any parse failure or a missing
// entry for today yields false rather than an error.
func IsOpenNow(hours []DayHours, now time.Time) bool {
	today := now.Weekday().String()
	cur := now.Hour()*100 + now.Minute()

	for _, h := range hours {
		if !strings.EqualFold(strings.TrimSpace(h.Day), today) {
			continue
		}
		open, close, ok := parseHoursRange(h.Hours)
		if !ok {
			return false
		}
		if close < open {
			// Range crosses midnight, e.g. 6 PM to 2 AM.
			return cur >= open || cur < close
		}
		return cur >= open && cur < close
	}
	return false
}

// parseHoursRange parses "H(:MM) AM/PM to H(:MM) AM/PM" into 24h HHMM ints.
func parseHoursRange(s string) (open, close int, ok bool) {
	parts := strings.Split(s, " to ")
	if len(parts) != 2 {
		return 0, 0, false
	}
	open, ok = parseClock(parts[0])
	if !ok {
		return 0, 0, false
	}
	close, ok = parseClock(parts[1])
	if !ok {
		return 0, 0, false
	}
	return open, close, true
}

func parseClock(s string) (int, bool) {
	s = strings.TrimSpace(s)
	upper := strings.ToUpper(s)

	var pm bool
	switch {
	case strings.HasSuffix(upper, "PM"):
		pm = true
	case strings.HasSuffix(upper, "AM"):
	default:
		return 0, false
	}
	clock := strings.TrimSpace(upper[:len(upper)-2])

	hourStr, minStr, hasMin := strings.Cut(clock, ":")
	hour, err := strconv.Atoi(strings.TrimSpace(hourStr))
	if err != nil || hour < 1 || hour > 12 {
		return 0, false
	}
	minute := 0
	if hasMin {
		minute, err = strconv.Atoi(strings.TrimSpace(minStr))
		if err != nil || minute < 0 || minute > 59 {
			return 0, false
		}
	}

	if pm && hour != 12 {
		hour += 12
	}
	if !pm && hour == 12 {
		hour = 0
	}
	return hour*100 + minute, true
}
