package fat

import (
	"time"
)

// ParseDate decodes a FAT date stamp:
//
//	Bits 0–4: day of month, 1–31.
//	Bits 5–8: month of year, 1–12.
//	Bits 9–15: years since 1980, 0–127.
//
// The result always has a time of 00:00:00 UTC.
// Day or month 0 are invalid and result in time.Time{}, so time.Time.IsZero() can be used.
// A month above 12 rolls over into the next year.
func ParseDate(input uint16) time.Time {
	dayOfMonth := input & 0x1F
	monthOfYear := input & 0x1E0 >> 5
	yearSince1980 := input & 0xFE00 >> 9

	if dayOfMonth == 0 || monthOfYear == 0 {
		return time.Time{}
	}

	return time.Date(1980+int(yearSince1980), time.Month(monthOfYear), int(dayOfMonth), 0, 0, 0, 0, time.UTC)
}

// ParseTime decodes a FAT time stamp with a granularity of 2 seconds:
//
//	Bits 0–4: 2 second count, 0–29.
//	Bits 5–10: minutes, 0–59.
//	Bits 11–15: hours, 0–23.
//
// The result always has the date January 1, year 1.
// Out of range values are capped at 23:59:59.
func ParseTime(input uint16) time.Time {
	seconds := int(input&0x1F) * 2
	minutes := input & 0x7E0 >> 5
	hours := input & 0xF800 >> 11

	result := time.Date(1, 1, 1, int(hours), int(minutes), seconds, 0, time.UTC)
	if result.Day() > 1 {
		return time.Date(1, 1, 1, 23, 59, 59, 0, time.UTC)
	}

	return result
}

// EncodeDate is the inverse of ParseDate. Dates before 1980 are stored as 1980-01-01.
func EncodeDate(t time.Time) uint16 {
	if t.Year() < 1980 {
		return 1<<5 | 1
	}
	if t.Year() > 2107 {
		return 127<<9 | 12<<5 | 31
	}
	return uint16(t.Year()-1980)<<9 |
		uint16(t.Month())<<5 |
		uint16(t.Day())
}

// EncodeTime is the inverse of ParseTime, odd seconds are rounded down.
func EncodeTime(t time.Time) uint16 {
	return uint16(t.Hour())<<11 |
		uint16(t.Minute())<<5 |
		uint16(t.Second()/2)
}

// joinDateTime combines the two stamps of a directory entry.
// It returns time.Time{} if the date is invalid.
func joinDateTime(date, clock uint16) time.Time {
	d := ParseDate(date)
	if d.IsZero() {
		return time.Time{}
	}
	c := ParseTime(clock)
	return time.Date(d.Year(), d.Month(), d.Day(), c.Hour(), c.Minute(), c.Second(), 0, time.UTC)
}

// now is replaced in tests.
var now = time.Now
