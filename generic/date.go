package generic

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// =============================================================================
// POLICY DATE - Calendar date without time-of-day
// =============================================================================

// PolicyDate is a plain calendar date. Only loosely validated: month in
// [1,12], day in [1,31], year after 1900. A day past the end of its month
// (31/02) is accepted and rolls over into the next month in day arithmetic.
type PolicyDate struct {
	Day   int `json:"day"`
	Month int `json:"month"`
	Year  int `json:"year"`
}

// Constructors
func NewPolicyDate(day, month, year int) PolicyDate {
	return PolicyDate{Day: day, Month: month, Year: year}
}

// FromTime takes the calendar date of t in t's own location.
func FromTime(t time.Time) PolicyDate {
	return PolicyDate{Day: t.Day(), Month: int(t.Month()), Year: t.Year()}
}

func Today() PolicyDate { return FromTime(time.Now()) }

// ParsePolicyDate accepts "DD/MM/YYYY" or ISO "YYYY-MM-DD".
func ParsePolicyDate(s string) (PolicyDate, error) {
	s = strings.TrimSpace(s)
	var parts []string
	iso := false
	switch {
	case strings.Contains(s, "/"):
		parts = strings.Split(s, "/")
	case strings.Contains(s, "-"):
		parts = strings.Split(s, "-")
		iso = true
	}
	if len(parts) != 3 {
		return PolicyDate{}, &InvalidDateError{Input: s, Reason: "expected DD/MM/YYYY or YYYY-MM-DD"}
	}

	nums := make([]int, 3)
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return PolicyDate{}, &InvalidDateError{Input: s, Reason: fmt.Sprintf("%q is not a number", p)}
		}
		nums[i] = n
	}

	d := PolicyDate{Day: nums[0], Month: nums[1], Year: nums[2]}
	if iso {
		d = PolicyDate{Day: nums[2], Month: nums[1], Year: nums[0]}
	}
	if err := d.Validate(); err != nil {
		return PolicyDate{}, err
	}
	return d, nil
}

// Validate checks the loose range rules applied at the input boundary.
func (d PolicyDate) Validate() error {
	switch {
	case d.Month < 1 || d.Month > 12:
		return &InvalidDateError{Input: d.String(), Reason: "month must be between 1 and 12"}
	case d.Day < 1 || d.Day > 31:
		return &InvalidDateError{Input: d.String(), Reason: "day must be between 1 and 31"}
	case d.Year <= 1900:
		return &InvalidDateError{Input: d.String(), Reason: "year must be after 1900"}
	}
	return nil
}

// Comparison
func (d PolicyDate) Before(other PolicyDate) bool { return DayNumber(d) < DayNumber(other) }
func (d PolicyDate) After(other PolicyDate) bool  { return DayNumber(d) > DayNumber(other) }
func (d PolicyDate) Equal(other PolicyDate) bool  { return DayNumber(d) == DayNumber(other) }
func (d PolicyDate) IsZero() bool                 { return d == PolicyDate{} }

// String renders DD/MM/YYYY.
func (d PolicyDate) String() string {
	return fmt.Sprintf("%02d/%02d/%d", d.Day, d.Month, d.Year)
}

// ISO renders YYYY-MM-DD.
func (d PolicyDate) ISO() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
}

// MarshalText writes DD/MM/YYYY so dates read the same in JSON and on screen.
func (d PolicyDate) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *PolicyDate) UnmarshalText(text []byte) error {
	parsed, err := ParsePolicyDate(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// =============================================================================
// DAY ARITHMETIC
// =============================================================================

// DayNumber returns the proleptic Gregorian day count of d, with
// 1970-01-01 as day 0. The result is linear in d.Day, so overflowing days
// behave like the following month's days.
func DayNumber(d PolicyDate) int64 {
	y := int64(d.Year)
	m := int64(d.Month)
	if m <= 2 {
		y--
	}
	era := y
	if era < 0 {
		era -= 399
	}
	era /= 400
	yoe := y - era*400 // [0, 399]
	mp := m - 3
	if m <= 2 {
		mp = m + 9
	}
	doy := (153*mp+2)/5 + int64(d.Day) - 1
	doe := yoe*365 + yoe/4 - yoe/100 + doy
	return era*146097 + doe - 719468
}

// DaysBetween returns a - b in whole days. Positive when a is later.
func DaysBetween(a, b PolicyDate) int {
	return int(DayNumber(a) - DayNumber(b))
}

// AddDays is used by tests and scenarios to build relative dates.
func (d PolicyDate) AddDays(n int) PolicyDate {
	t := time.Date(d.Year, time.Month(d.Month), d.Day+n, 12, 0, 0, 0, time.UTC)
	return FromTime(t)
}

// AddOneYear keeps day and month and bumps the year. 29/02 becomes 28/02
// when the following year is not a leap year.
func AddOneYear(d PolicyDate) PolicyDate {
	next := PolicyDate{Day: d.Day, Month: d.Month, Year: d.Year + 1}
	if next.Month == 2 && next.Day == 29 && !IsLeapYear(next.Year) {
		next.Day = 28
	}
	return next
}

func IsLeapYear(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}
