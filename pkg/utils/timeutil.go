// Package utils provides shared time helpers for the US equity session.
package utils

import (
	"strings"
	"time"
)

// ET is the US Eastern time zone used for all session calculations.
var ET *time.Location

func init() {
	var err error
	ET, err = time.LoadLocation("America/New_York")
	if err != nil {
		// Fallback: fixed EST offset if the tz database is unavailable.
		ET = time.FixedZone("ET", -5*60*60)
	}
}

// NowET returns the current time in Eastern time.
func NowET() time.Time {
	return time.Now().In(ET)
}

// MarketOpenTime returns the regular session open (9:30 AM ET) for a given date.
func MarketOpenTime(date time.Time) time.Time {
	d := date.In(ET)
	return time.Date(d.Year(), d.Month(), d.Day(), 9, 30, 0, 0, ET)
}

// MarketCloseTime returns the regular session close (4:00 PM ET) for a given date.
func MarketCloseTime(date time.Time) time.Time {
	d := date.In(ET)
	return time.Date(d.Year(), d.Month(), d.Day(), 16, 0, 0, 0, ET)
}

// IsMarketOpen checks if the regular session is currently open.
func IsMarketOpen() bool {
	return IsMarketOpenAt(NowET())
}

// IsMarketOpenAt checks if the regular session would be open at the given time.
func IsMarketOpenAt(t time.Time) bool {
	t = t.In(ET)

	if t.Weekday() == time.Saturday || t.Weekday() == time.Sunday {
		return false
	}
	if IsTradingHoliday(t) {
		return false
	}

	open := MarketOpenTime(t)
	close := MarketCloseTime(t)
	return !t.Before(open) && !t.After(close)
}

// IsTradingDay checks if the given date is a trading day (not weekend, not holiday).
func IsTradingDay(t time.Time) bool {
	t = t.In(ET)
	if t.Weekday() == time.Saturday || t.Weekday() == time.Sunday {
		return false
	}
	return !IsTradingHoliday(t)
}

// PrevTradingDay returns the previous trading day from the given date.
func PrevTradingDay(from time.Time) time.Time {
	prev := from.In(ET).AddDate(0, 0, -1)
	for !IsTradingDay(prev) {
		prev = prev.AddDate(0, 0, -1)
	}
	return prev
}

// NextTradingDay returns the next trading day from the given date.
func NextTradingDay(from time.Time) time.Time {
	next := from.In(ET).AddDate(0, 0, 1)
	for !IsTradingDay(next) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

// TradingDaysBetween returns the number of trading days between two dates
// (exclusive of end).
func TradingDaysBetween(start, end time.Time) int {
	start = start.In(ET)
	end = end.In(ET)
	count := 0
	current := start
	for current.Before(end) {
		if IsTradingDay(current) {
			count++
		}
		current = current.AddDate(0, 0, 1)
	}
	return count
}

// IsTradingHoliday checks if the given date is a NYSE trading holiday.
// This list should be updated annually.
func IsTradingHoliday(t time.Time) bool {
	t = t.In(ET)
	_, isHoliday := nyseHolidays2026[t.Format("2006-01-02")]
	return isHoliday
}

// NYSE full-day holidays for 2026 (update annually).
var nyseHolidays2026 = map[string]string{
	"2026-01-01": "New Year's Day",
	"2026-01-19": "Martin Luther King Jr. Day",
	"2026-02-16": "Washington's Birthday",
	"2026-04-03": "Good Friday",
	"2026-05-25": "Memorial Day",
	"2026-06-19": "Juneteenth",
	"2026-07-03": "Independence Day (observed)",
	"2026-09-07": "Labor Day",
	"2026-11-26": "Thanksgiving Day",
	"2026-12-25": "Christmas Day",
}

// ParseDateET parses a "2006-01-02" date string in Eastern time.
func ParseDateET(dateStr string) (time.Time, error) {
	return time.ParseInLocation("2006-01-02", dateStr, ET)
}

// FormatDateET formats a time.Time to "2006-01-02" in Eastern time.
func FormatDateET(t time.Time) string {
	return t.In(ET).Format("2006-01-02")
}

// MarketStatus returns a human-readable status for the regular session.
func MarketStatus() string {
	now := NowET()

	if now.Weekday() == time.Saturday || now.Weekday() == time.Sunday {
		return "CLOSED (Weekend)"
	}
	if IsTradingHoliday(now) {
		return "CLOSED (" + nyseHolidays2026[now.Format("2006-01-02")] + ")"
	}

	open := MarketOpenTime(now)
	close := MarketCloseTime(now)

	switch {
	case now.Before(open):
		return "PRE_MARKET"
	case now.After(close):
		return "AFTER_HOURS"
	default:
		return "OPEN"
	}
}

// NormalizeSymbol uppercases and trims a ticker symbol.
func NormalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}
