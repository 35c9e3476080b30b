package crm

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// =============================================================================
// DATE - Calendar day, no time of day
// =============================================================================

const (
	isoLayout          = "2006-01-02"
	dayMonthYearLayout = "02-01-2006"
)

// Date is a calendar day in UTC. The zero value is "no date".
type Date struct {
	t time.Time
}

func NewDate(year int, month time.Month, day int) Date {
	return Date{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// Today returns the current local calendar day.
func Today() Date {
	now := time.Now()
	return NewDate(now.Year(), now.Month(), now.Day())
}

// DateOf truncates t to its calendar day in t's own location.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), t.Month(), t.Day())
}

// ParseDate parses a strict ISO date (YYYY-MM-DD).
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(isoLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return DateOf(t), nil
}

// flexibleLayouts are tried in order by ParseFlexibleDate. Day-first
// layouts come before month-first ones.
var flexibleLayouts = []string{
	isoLayout,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02T15:04:05",
	"2006/01/02",
	dayMonthYearLayout,
	"02/01/2006",
	"1/2/06",
	"1/2/2006",
	"2 Jan 2006",
	"Jan 2, 2006",
}

// excelEpoch is day zero of the 1900 date system, adjusted for the
// fictitious 1900-02-29 that spreadsheets count.
var excelEpoch = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)

// Serial day numbers are only accepted between 1910-01-01 and 9999-12-31,
// so a bare year or a small count is not mistaken for a date.
const (
	minExcelSerial = 3654
	maxExcelSerial = 2958465
)

// ParseFlexibleDate accepts the date shapes that show up in spreadsheets,
// including raw serial day numbers.
func ParseFlexibleDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Date{}, fmt.Errorf("empty date")
	}
	for _, layout := range flexibleLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return DateOf(t), nil
		}
	}
	if serial, err := strconv.ParseFloat(s, 64); err == nil && serial >= minExcelSerial && serial < maxExcelSerial+1 {
		return DateOf(excelEpoch.AddDate(0, 0, int(serial))), nil
	}
	return Date{}, fmt.Errorf("unrecognized date %q", s)
}

// Arithmetic and comparison
func (d Date) AddDays(n int) Date     { return Date{t: d.t.AddDate(0, 0, n)} }
func (d Date) Before(other Date) bool { return d.t.Before(other.t) }
func (d Date) After(other Date) bool  { return d.t.After(other.t) }
func (d Date) Equal(other Date) bool  { return d.t.Equal(other.t) }
func (d Date) IsZero() bool           { return d.t.IsZero() }
func (d Date) Time() time.Time        { return d.t }

// Between reports whether from <= d <= to.
func (d Date) Between(from, to Date) bool {
	return !d.Before(from) && !d.After(to)
}

// String returns the ISO form used for storage.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.t.Format(isoLayout)
}

// DayMonthYear returns the zero-padded DD-MM-YYYY form used in messages,
// or "" for the zero Date.
func (d Date) DayMonthYear() string {
	if d.IsZero() {
		return ""
	}
	return d.t.Format(dayMonthYearLayout)
}
