package utils

import (
	"fmt"
	"strings"
	"time"
)

// DayCount names a day count convention used to turn date pairs into year fractions.
type DayCount string

const (
	Act360  DayCount = "ACT/360"
	Act365F DayCount = "ACT/365F"
	Dc30360 DayCount = "30/360"
	Dc30E   DayCount = "30E/360"
)

// ParseDayCount accepts the common spellings of the supported conventions.
func ParseDayCount(s string) (DayCount, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "ACT/360", "A360", "ACTUAL/360":
		return Act360, nil
	case "ACT/365F", "ACT/365", "A365F", "ACTUAL/365F", "ACTUAL/365 (FIXED)":
		return Act365F, nil
	case "30/360", "30U/360", "BOND":
		return Dc30360, nil
	case "30E/360", "EUROBOND":
		return Dc30E, nil
	default:
		return "", fmt.Errorf("ParseDayCount: unsupported day count %q", s)
	}
}

// YearFraction computes the year fraction between two dates under dc.
// Unknown conventions fall back to ACT/365F.
func (dc DayCount) YearFraction(start, end time.Time) float64 {
	switch dc {
	case Act360:
		return Days(start, end) / 360.0
	case Dc30360:
		// 30/360 US (bond basis): D2 is capped only when D1 is 30 or 31
		d1 := start.Day()
		if d1 == 31 {
			d1 = 30
		}
		d2 := end.Day()
		if d2 == 31 && d1 == 30 {
			d2 = 30
		}
		return thirty360(start, end, d1, d2)
	case Dc30E:
		d1 := start.Day()
		if d1 > 30 {
			d1 = 30
		}
		d2 := end.Day()
		if d2 > 30 {
			d2 = 30
		}
		return thirty360(start, end, d1, d2)
	default:
		return Days(start, end) / 365.0
	}
}

func thirty360(start, end time.Time, d1, d2 int) float64 {
	y1, m1 := start.Year(), int(start.Month())
	y2, m2 := end.Year(), int(end.Month())
	return float64(360*(y2-y1)+30*(m2-m1)+(d2-d1)) / 360.0
}
