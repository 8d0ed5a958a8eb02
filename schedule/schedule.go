package schedule

import (
	"fmt"
	"time"

	"github.com/meenmo/ratecurve/calendar"
	"github.com/meenmo/ratecurve/utils"
)

// Direction selects whether regular dates roll from the effective date or from maturity.
type Direction int

const (
	// Backward rolls from maturity; an irregular period becomes a front stub.
	Backward Direction = iota
	// Forward rolls from the effective date; an irregular period becomes a back stub.
	Forward
)

// shortStubDays is the threshold below which a stub is merged into its neighbour.
const shortStubDays = 7

// Rule describes how a leg's accrual periods are generated.
type Rule struct {
	FrequencyMonths int
	Calendar        calendar.CalendarID
	Direction       Direction
	PayDelayDays    int
	// EndOfMonth rolls every regular date to the last business day of its
	// month when the anchor date is one.
	EndOfMonth bool
}

// Period is a business-day adjusted accrual period.
type Period struct {
	StartDate time.Time
	EndDate   time.Time
	PayDate   time.Time
}

// Generate builds the adjusted accrual periods between effective and maturity.
//
// Unadjusted dates are always derived from the anchor date (effective or maturity)
// so Modified Following adjustments never accumulate drift.
func Generate(effective, maturity time.Time, r Rule) ([]Period, error) {
	if !maturity.After(effective) {
		return nil, fmt.Errorf("schedule.Generate: maturity %s not after effective %s",
			maturity.Format(utils.DateLayout), effective.Format(utils.DateLayout))
	}
	if r.FrequencyMonths <= 0 {
		return nil, fmt.Errorf("schedule.Generate: unsupported frequency %d months", r.FrequencyMonths)
	}

	var unadjusted []time.Time
	if r.Direction == Backward {
		unadjusted = rollBackward(effective, maturity, r.FrequencyMonths)
	} else {
		unadjusted = rollForward(effective, maturity, r.FrequencyMonths)
	}
	if r.EndOfMonth {
		rollToMonthEnd(unadjusted, effective, maturity, r)
	}

	periods := make([]Period, 0, len(unadjusted)-1)
	for i := 0; i < len(unadjusted)-1; i++ {
		start := calendar.Adjust(r.Calendar, unadjusted[i])
		end := calendar.Adjust(r.Calendar, unadjusted[i+1])
		periods = append(periods, Period{
			StartDate: start,
			EndDate:   end,
			PayDate:   calendar.AddBusinessDays(r.Calendar, end, r.PayDelayDays),
		})
	}
	return periods, nil
}

func rollBackward(effective, maturity time.Time, months int) []time.Time {
	var dates []time.Time
	for k := 0; ; k++ {
		d := utils.AddMonth(maturity, -k*months)
		if !d.After(effective) {
			break
		}
		dates = append([]time.Time{d}, dates...)
	}
	// A first regular date within a week of effective would leave a tiny stub.
	if len(dates) > 1 && utils.Days(effective, dates[0]) <= shortStubDays {
		dates = dates[1:]
	}
	return append([]time.Time{effective}, dates...)
}

func rollForward(effective, maturity time.Time, months int) []time.Time {
	dates := []time.Time{effective}
	for k := 1; ; k++ {
		d := utils.AddMonth(effective, k*months)
		if !d.Before(maturity) {
			break
		}
		dates = append(dates, d)
	}
	if len(dates) > 1 && utils.Days(dates[len(dates)-1], maturity) <= shortStubDays {
		dates = dates[:len(dates)-1]
	}
	return append(dates, maturity)
}

func rollToMonthEnd(dates []time.Time, effective, maturity time.Time, r Rule) {
	anchor := maturity
	if r.Direction == Forward {
		anchor = effective
	}
	if !calendar.IsEndOfMonth(r.Calendar, anchor) {
		return
	}
	for i := 1; i < len(dates)-1; i++ {
		dates[i] = calendar.LastBusinessDayOfMonth(r.Calendar, dates[i])
	}
}
