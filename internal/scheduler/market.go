package scheduler

import "time"

// nyse is loaded once; LoadLocation only fails on a broken zoneinfo install,
// in which case scans run unconditionally.
var nyse, _ = time.LoadLocation("America/New_York")

// MarketOpen reports whether the US equity market is in its regular session
// (9:30-16:00 Eastern, weekdays, excluding major holidays).
func MarketOpen(t time.Time) bool {
	if nyse == nil {
		return true
	}
	et := t.In(nyse)
	if et.Weekday() == time.Saturday || et.Weekday() == time.Sunday {
		return false
	}
	if isUSHoliday(et) {
		return false
	}
	open := time.Date(et.Year(), et.Month(), et.Day(), 9, 30, 0, 0, nyse)
	close := time.Date(et.Year(), et.Month(), et.Day(), 16, 0, 0, 0, nyse)
	return !et.Before(open) && !et.After(close)
}

// isUSHoliday checks the fixed-date holidays plus Thanksgiving (fourth
// Thursday of November). Observed-date shifts are not modeled.
func isUSHoliday(et time.Time) bool {
	switch {
	case et.Month() == time.January && et.Day() == 1:
		return true
	case et.Month() == time.July && et.Day() == 4:
		return true
	case et.Month() == time.December && et.Day() == 25:
		return true
	}
	if et.Month() == time.November && et.Weekday() == time.Thursday {
		firstDay := time.Date(et.Year(), time.November, 1, 0, 0, 0, 0, nyse)
		firstThursday := 1 + (int(time.Thursday)-int(firstDay.Weekday())+7)%7
		return et.Day() == firstThursday+21
	}
	return false
}
