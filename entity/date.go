package entity

import (
	"fmt"
	"time"
)

// Date is a calendar day without a time-of-day component. A nil *Date means
// "undated", which is a distinct category that orders before every concrete
// date (see CompareDates).
type Date struct {
	time.Time
}

// NewDate parses a date in YYYY-MM-DD format.
func NewDate(value string) (*Date, error) {
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q: %w", value, err)
	}
	return &Date{Time: t}, nil
}

// MustDate parses a date in YYYY-MM-DD format and panics on error.
// Use only in tests or when the value is known to be valid.
func MustDate(value string) *Date {
	d, err := NewDate(value)
	if err != nil {
		panic(err)
	}
	return d
}

// DateOf builds a Date from year, month and day.
func DateOf(year int, month time.Month, day int) *Date {
	return &Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// String returns the date in YYYY-MM-DD format.
func (d *Date) String() string {
	if d == nil {
		return "(undated)"
	}
	return d.Format("2006-01-02")
}

// MarshalJSON encodes the date as a YYYY-MM-DD string.
func (d *Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.Format("2006-01-02") + `"`), nil
}

// UnmarshalJSON decodes a YYYY-MM-DD string.
func (d *Date) UnmarshalJSON(data []byte) error {
	s := string(data)
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return fmt.Errorf("invalid date literal %s", s)
	}
	t, err := time.Parse("2006-01-02", s[1:len(s)-1])
	if err != nil {
		return err
	}
	d.Time = t
	return nil
}

// AddDays returns the date shifted by the given number of days.
func (d *Date) AddDays(days int) *Date {
	return &Date{Time: d.AddDate(0, 0, days)}
}

// MonthEnd returns the last day of the date's month.
func (d *Date) MonthEnd() *Date {
	first := time.Date(d.Year(), d.Month(), 1, 0, 0, 0, 0, time.UTC)
	return &Date{Time: first.AddDate(0, 1, -1)}
}

// YearEnd returns December 31st of the date's year.
func (d *Date) YearEnd() *Date {
	return &Date{Time: time.Date(d.Year(), time.December, 31, 0, 0, 0, 0, time.UTC)}
}

// CompareDates orders two nullable dates. A nil date sorts before every
// concrete date, so undated entries come first in any chronological listing.
func CompareDates(a, b *Date) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	case a.Time.Before(b.Time):
		return -1
	case a.Time.After(b.Time):
		return 1
	default:
		return 0
	}
}

// SameDay reports whether two nullable dates refer to the same calendar day,
// treating two nil dates as equal.
func SameDay(a, b *Date) bool {
	return CompareDates(a, b) == 0
}

// DateRange selects a contiguous span of dates. A nil Start or End leaves
// that side unbounded. Nullable controls whether undated entries fall inside
// the range; NullOnly restricts the range to undated entries exclusively.
type DateRange struct {
	Start    *Date
	End      *Date
	Nullable bool
	NullOnly bool
}

// Unrestricted is the range that contains every date, undated included.
func Unrestricted() *DateRange {
	return &DateRange{Nullable: true}
}

// RangeBetween builds a bounded range covering [start, end] plus undated
// entries when nullable is set.
func RangeBetween(start, end *Date, nullable bool) *DateRange {
	return &DateRange{Start: start, End: end, Nullable: nullable}
}

// Contains reports whether the date falls within the range. A nil range is
// unrestricted. An undated entry matches only when the range explicitly
// admits it via Nullable or NullOnly.
func (r *DateRange) Contains(d *Date) bool {
	if r == nil {
		return true
	}
	if d == nil {
		return r.Nullable || r.NullOnly
	}
	if r.NullOnly {
		return false
	}
	if r.Start != nil && CompareDates(d, r.Start) < 0 {
		return false
	}
	if r.End != nil && CompareDates(d, r.End) > 0 {
		return false
	}
	return true
}
