package utils

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// TimeUnit is the unit of a tenor.
type TimeUnit byte

const (
	UnitDays   TimeUnit = 'D'
	UnitWeeks  TimeUnit = 'W'
	UnitMonths TimeUnit = 'M'
	UnitYears  TimeUnit = 'Y'
	noUnits    TimeUnit = 0
)

// Period is a tenor such as 1W, 3M or 10Y.
type Period struct {
	Length int
	Unit   TimeUnit
}

// ParsePeriod converts tenor strings like "1W", "3M", "10Y" into a Period.
func ParsePeriod(tenor string) (Period, error) {
	tenor = strings.TrimSpace(strings.ToUpper(tenor))
	if len(tenor) < 2 {
		return Period{}, fmt.Errorf("ParsePeriod: invalid tenor %q", tenor)
	}
	unit := TimeUnit(tenor[len(tenor)-1])
	switch unit {
	case UnitDays, UnitWeeks, UnitMonths, UnitYears:
	default:
		return Period{}, fmt.Errorf("ParsePeriod: unknown unit in tenor %q", tenor)
	}
	n, err := strconv.Atoi(tenor[:len(tenor)-1])
	if err != nil {
		return Period{}, fmt.Errorf("ParsePeriod: invalid tenor %q: %w", tenor, err)
	}
	if n < 0 {
		return Period{}, fmt.Errorf("ParsePeriod: negative tenor %q", tenor)
	}
	return Period{Length: n, Unit: unit}, nil
}

// MustPeriod is ParsePeriod for literals; it panics on malformed input.
func MustPeriod(tenor string) Period {
	p, err := ParsePeriod(tenor)
	if err != nil {
		panic(err)
	}
	return p
}

func (p Period) String() string {
	if p.Unit == noUnits || p.IsZero() {
		return "0D"
	}
	return strconv.Itoa(p.Length) + string(p.Unit)
}

// IsZero reports whether the period has no length.
func (p Period) IsZero() bool {
	return p.Length == 0
}

// Months returns the period length in months; day and week tenors return 0.
func (p Period) Months() int {
	switch p.Unit {
	case UnitMonths:
		return p.Length
	case UnitYears:
		return 12 * p.Length
	default:
		return 0
	}
}

// Advance adds the period to t without business-day adjustment.
// Month and year tenors follow EDATE month-end handling.
func (p Period) Advance(t time.Time) time.Time {
	switch p.Unit {
	case UnitDays:
		return t.AddDate(0, 0, p.Length)
	case UnitWeeks:
		return t.AddDate(0, 0, 7*p.Length)
	case UnitMonths, UnitYears:
		return AddMonth(t, p.Months())
	default:
		return t
	}
}
