package extract

import (
	"sort"
	"strings"
	"time"
)

// monthNames maps localized month names and common abbreviations to months.
// Romanian first (the source corpus locale), then English.
var monthNames = map[string]time.Month{
	"ianuarie":   time.January,
	"februarie":  time.February,
	"martie":     time.March,
	"aprilie":    time.April,
	"mai":        time.May,
	"iunie":      time.June,
	"iulie":      time.July,
	"august":     time.August,
	"septembrie": time.September,
	"octombrie":  time.October,
	"noiembrie":  time.November,
	"decembrie":  time.December,

	"ian": time.January,
	"iun": time.June,
	"iul": time.July,
	"noi": time.November,

	"january":   time.January,
	"february":  time.February,
	"march":     time.March,
	"april":     time.April,
	"may":       time.May,
	"june":      time.June,
	"july":      time.July,
	"september": time.September,
	"october":   time.October,
	"november":  time.November,
	"december":  time.December,

	"jan":  time.January,
	"feb":  time.February,
	"mar":  time.March,
	"apr":  time.April,
	"jun":  time.June,
	"jul":  time.July,
	"aug":  time.August,
	"sept": time.September,
	"sep":  time.September,
	"oct":  time.October,
	"nov":  time.November,
	"dec":  time.December,
}

// monthAlternation builds the regexp alternation over all known month names,
// longest first so full names win over their own prefixes.
func monthAlternation() string {
	names := make([]string, 0, len(monthNames))
	for n := range monthNames {
		names = append(names, n)
	}
	sort.Slice(names, func(i, j int) bool {
		if len(names[i]) != len(names[j]) {
			return len(names[i]) > len(names[j])
		}
		return names[i] < names[j]
	})
	return strings.Join(names, "|")
}

func lookupMonth(name string) (time.Month, bool) {
	m, ok := monthNames[strings.ToLower(name)]
	return m, ok
}

// ambiguousMonthName marks names that collide with everyday words and only
// count as dates with a day or year alongside.
func ambiguousMonthName(name string) bool {
	switch strings.ToLower(name) {
	case "mai", "may":
		return true
	}
	return false
}

func monthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

func monthEnd(t time.Time) time.Time {
	return monthStart(t).AddDate(0, 1, -1)
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1, -1).Day()
}

// makeDate builds a midnight-UTC date, rejecting impossible day/month pairs.
func makeDate(year int, month, day int) (time.Time, bool) {
	if month < 1 || month > 12 || day < 1 {
		return time.Time{}, false
	}
	if day > daysIn(year, time.Month(month)) {
		return time.Time{}, false
	}
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC), true
}
