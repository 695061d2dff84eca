// Package timeutil provides timezone utilities for Jakarta timezone (UTC+7).
// All Lentera LMS students are located in Indonesia, so reports and scheduled
// jobs are anchored to Western Indonesia Time (WIB).
// No external dependencies - uses only standard library.
package timeutil

import "time"

// JakartaTZ is the Jakarta timezone (UTC+7, no DST).
// Indonesia does not observe DST, so this is constant year-round.
var JakartaTZ = time.FixedZone("Asia/Jakarta", 7*60*60)

// Now returns the current time in Jakarta timezone.
func Now() time.Time {
	return time.Now().In(JakartaTZ)
}

// ToJakarta converts a time to Jakarta timezone.
func ToJakarta(t time.Time) time.Time {
	return t.In(JakartaTZ)
}

// ToUTC converts a time to UTC.
func ToUTC(t time.Time) time.Time {
	return t.UTC()
}

// Date creates a time in Jakarta timezone with the given date.
func Date(year, month, day int) time.Time {
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, JakartaTZ)
}

// DateTime creates a time in Jakarta timezone with the given date and time.
func DateTime(year, month, day, hour, min, sec int) time.Time {
	return time.Date(year, time.Month(month), day, hour, min, sec, 0, JakartaTZ)
}

// StartOfDay returns the start of the day (00:00:00) in Jakarta timezone.
func StartOfDay(t time.Time) time.Time {
	jakarta := ToJakarta(t)
	return time.Date(jakarta.Year(), jakarta.Month(), jakarta.Day(), 0, 0, 0, 0, JakartaTZ)
}

// EndOfDay returns the end of the day (23:59:59.999999999) in Jakarta timezone.
func EndOfDay(t time.Time) time.Time {
	jakarta := ToJakarta(t)
	return time.Date(jakarta.Year(), jakarta.Month(), jakarta.Day(), 23, 59, 59, 999999999, JakartaTZ)
}

// StartOfWeek returns the start of the week (Monday 00:00:00) in Jakarta timezone.
func StartOfWeek(t time.Time) time.Time {
	jakarta := ToJakarta(t)
	weekday := int(jakarta.Weekday())
	if weekday == 0 {
		weekday = 7 // Sunday
	}
	daysToSubtract := weekday - 1 // Monday = 1
	return StartOfDay(jakarta.AddDate(0, 0, -daysToSubtract))
}

// EndOfWeek returns the end of the week (Sunday 23:59:59) in Jakarta timezone.
func EndOfWeek(t time.Time) time.Time {
	start := StartOfWeek(t)
	return EndOfDay(start.AddDate(0, 0, 6))
}

// IsSameDay checks if two times are on the same day in Jakarta timezone.
func IsSameDay(t1, t2 time.Time) bool {
	j1, j2 := ToJakarta(t1), ToJakarta(t2)
	return j1.Year() == j2.Year() && j1.YearDay() == j2.YearDay()
}

// DaysBetween calculates the number of days between two times.
func DaysBetween(t1, t2 time.Time) int {
	j1 := StartOfDay(t1)
	j2 := StartOfDay(t2)
	duration := j2.Sub(j1)
	days := int(duration.Hours() / 24)
	if days < 0 {
		days = -days
	}
	return days
}

// DaysSince calculates the number of days since the given time.
func DaysSince(t time.Time) int {
	now := StartOfDay(Now())
	then := StartOfDay(t)
	duration := now.Sub(then)
	return int(duration.Hours() / 24)
}

// Common date/time formats.
const (
	// FormatDate is the standard date format (YYYY-MM-DD).
	FormatDate = "2006-01-02"
	// FormatTime is the standard time format (HH:MM).
	FormatTime = "15:04"
	// FormatDateTime is the standard datetime format.
	FormatDateTime = "2006-01-02 15:04"
	// FormatDateTimeSeconds includes seconds.
	FormatDateTimeSeconds = "2006-01-02 15:04:05"
	// FormatIndonesianDate is the Indonesian date format (DD-MM-YYYY).
	FormatIndonesianDate = "02-01-2006"
)

// FormatJakarta formats a time in Jakarta timezone with the given layout.
func FormatJakarta(t time.Time, layout string) string {
	return ToJakarta(t).Format(layout)
}

// FormatDateStr formats a time as a date string (YYYY-MM-DD) in Jakarta timezone.
func FormatDateStr(t time.Time) string {
	return FormatJakarta(t, FormatDate)
}

// FormatDateTimeStr formats a time as a datetime string in Jakarta timezone.
func FormatDateTimeStr(t time.Time) string {
	return FormatJakarta(t, FormatDateTime)
}

// ParseJakarta parses a time string in Jakarta timezone.
func ParseJakarta(layout, value string) (time.Time, error) {
	return time.ParseInLocation(layout, value, JakartaTZ)
}

// ParseDateJakarta parses a date string (YYYY-MM-DD) in Jakarta timezone.
func ParseDateJakarta(value string) (time.Time, error) {
	return ParseJakarta(FormatDate, value)
}
