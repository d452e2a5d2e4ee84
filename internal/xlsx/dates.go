package xlsx

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Imported workbooks carry dates in whatever shape the producing tool
// felt like: serial numbers, slash dates in either field order, ISO
// dates, or spelled-out months. Each shape is a strategy tried in fixed
// priority order until one succeeds.
type dateStrategy func(string) (time.Time, bool)

var dateStrategies = []dateStrategy{
	parseSerialDate,
	parseISODate,
	parseSlashDate,
	parseMonthNameDate,
}

// ParseDate resolves a date cell using the strategy list. The boolean is
// false when no strategy recognizes the input.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, parse := range dateStrategies {
		if t, ok := parse(s); ok {
			return t, true
		}
	}
	return time.Time{}, false
}

// serialEpoch is day 1 of the 1900 date system.
var serialEpoch = time.Date(1900, time.January, 1, 0, 0, 0, 0, time.Local)

// parseSerialDate handles spreadsheet serial dates: days since the 1900
// epoch, minus the historical two-day correction (the 1900 leap-year bug
// plus one-based counting). A fractional part encodes time of day.
func parseSerialDate(s string) (time.Time, bool) {
	n, err := strconv.ParseFloat(s, 64)
	if err != nil || n < 1 {
		return time.Time{}, false
	}
	seconds := (n - 2) * 24 * 60 * 60
	return serialEpoch.Add(time.Duration(seconds * float64(time.Second))), true
}

var isoDatePattern = regexp.MustCompile(`^(\d{4})-(\d{1,2})-(\d{1,2})`)

// parseISODate handles YYYY-MM-DD, with or without a trailing time part.
func parseISODate(s string) (time.Time, bool) {
	m := isoDatePattern.FindStringSubmatch(s)
	if m == nil {
		return time.Time{}, false
	}
	year, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	day, _ := strconv.Atoi(m[3])
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, false
	}
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.Local), true
}

var slashDatePattern = regexp.MustCompile(`^(\d{1,2})/(\d{1,2})/(\d{4})`)

// parseSlashDate handles MM/DD/YYYY and DD/MM/YYYY. The field order is
// disambiguated by magnitude: a first number above 12 means day-first.
// Ambiguous dates like 03/04/2024 therefore parse month-first; this is a
// known accuracy limitation kept for compatibility with existing exports.
func parseSlashDate(s string) (time.Time, bool) {
	m := slashDatePattern.FindStringSubmatch(s)
	if m == nil {
		return time.Time{}, false
	}
	first, _ := strconv.Atoi(m[1])
	second, _ := strconv.Atoi(m[2])
	year, _ := strconv.Atoi(m[3])
	month, day := first, second
	if first > 12 {
		month, day = second, first
	}
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, false
	}
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.Local), true
}

var monthNamePattern = regexp.MustCompile(`^([A-Za-z]{3})\w*\.?\s+(\d{1,2}),?\s+(\d{4})$`)

var monthsByName = map[string]time.Month{
	"jan": time.January, "feb": time.February, "mar": time.March,
	"apr": time.April, "may": time.May, "jun": time.June,
	"jul": time.July, "aug": time.August, "sep": time.September,
	"oct": time.October, "nov": time.November, "dec": time.December,
}

// parseMonthNameDate handles "Mon DD, YYYY" and its spelled-out variants.
func parseMonthNameDate(s string) (time.Time, bool) {
	m := monthNamePattern.FindStringSubmatch(s)
	if m == nil {
		return time.Time{}, false
	}
	month, ok := monthsByName[strings.ToLower(m[1])]
	if !ok {
		return time.Time{}, false
	}
	day, _ := strconv.Atoi(m[2])
	year, _ := strconv.Atoi(m[3])
	if day < 1 || day > 31 {
		return time.Time{}, false
	}
	return time.Date(year, month, day, 0, 0, 0, 0, time.Local), true
}

// Clock is a resolved time of day.
type Clock struct {
	Hours   int
	Minutes int
	Seconds int
}

var (
	amPmPattern  = regexp.MustCompile(`(?i)(\d{1,2}):(\d{2})(?::(\d{2}))?\s*(AM|PM)`)
	clockPattern = regexp.MustCompile(`(\d{1,2}):(\d{2})(?::(\d{2}))?`)
)

// ParseClock resolves a time cell: a bare number is a fractional day, then
// 12-hour with AM/PM, then 24-hour.
func ParseClock(s string) (Clock, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Clock{}, false
	}

	if n, err := strconv.ParseFloat(s, 64); err == nil && n >= 0 && n < 1 {
		total := int(n * 24 * 60 * 60)
		return Clock{
			Hours:   total / 3600,
			Minutes: (total % 3600) / 60,
			Seconds: total % 60,
		}, true
	}

	if m := amPmPattern.FindStringSubmatch(s); m != nil {
		hours, _ := strconv.Atoi(m[1])
		minutes, _ := strconv.Atoi(m[2])
		seconds := 0
		if m[3] != "" {
			seconds, _ = strconv.Atoi(m[3])
		}
		switch strings.ToUpper(m[4]) {
		case "PM":
			if hours != 12 {
				hours += 12
			}
		case "AM":
			if hours == 12 {
				hours = 0
			}
		}
		return Clock{Hours: hours, Minutes: minutes, Seconds: seconds}, true
	}

	if m := clockPattern.FindStringSubmatch(s); m != nil {
		hours, _ := strconv.Atoi(m[1])
		minutes, _ := strconv.Atoi(m[2])
		seconds := 0
		if m[3] != "" {
			seconds, _ = strconv.Atoi(m[3])
		}
		if hours < 24 && minutes < 60 {
			return Clock{Hours: hours, Minutes: minutes, Seconds: seconds}, true
		}
	}

	return Clock{}, false
}

// ParseDateTime combines a date cell and an optional time cell into an
// epoch-millisecond timestamp. A parseable time cell overrides whatever
// time of day the date cell carried.
func ParseDateTime(dateStr, timeStr string) (int64, bool) {
	d, ok := ParseDate(dateStr)
	if !ok {
		return 0, false
	}
	if clock, ok := ParseClock(timeStr); ok {
		d = time.Date(d.Year(), d.Month(), d.Day(), clock.Hours, clock.Minutes, clock.Seconds, 0, time.Local)
	}
	return d.UnixMilli(), true
}
