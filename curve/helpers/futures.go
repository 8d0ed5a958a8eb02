package helpers

import (
	"fmt"
	"time"

	"github.com/meenmo/ratecurve/calendar"
	"github.com/meenmo/ratecurve/curve"
	"github.com/meenmo/ratecurve/quote"
	"github.com/meenmo/ratecurve/utils"
)

// Futures is an interest-rate future quoted as a price, 100 * (1 - rate).
// The optional convexity quote is a rate added to the curve forward.
type Futures struct {
	curve.HelperBase
	start     time.Time
	months    int
	conv      DepositConvention
	convexity quote.Quote
	tau       float64
}

// NewFutures returns a futures helper whose underlying rate accrues from
// start for months. convexity may be nil.
func NewFutures(price quote.Quote, start time.Time, months int, conv DepositConvention, convexity quote.Quote) *Futures {
	f := &Futures{start: start, months: months, conv: conv, convexity: convexity}
	f.BindQuote(price)
	if convexity != nil {
		convexity.Register(&f.HelperBase)
	}
	f.ResetDates(start)
	return f
}

// ResetDates recomputes the accrual period. Contract dates are fixed, so
// the as-of date does not move them.
func (f *Futures) ResetDates(time.Time) {
	start := calendar.AdjustFollowing(f.conv.Calendar, f.start)
	end := calendar.Adjust(f.conv.Calendar, utils.AddMonth(start, f.months))
	f.tau = f.conv.DayCount.YearFraction(start, end)
	f.Earliest = start
	f.Maturity = end
	f.Latest = end
	f.Pillar = end
}

// ImpliedQuote returns 100 * (1 - (forward + convexity)).
func (f *Futures) ImpliedQuote() (float64, error) {
	fwd, err := simpleForward(&f.HelperBase, f.Earliest, f.Maturity, f.tau)
	if err != nil {
		return 0, err
	}
	adj := 0.0
	if f.convexity != nil {
		if adj, err = f.convexity.Value(); err != nil {
			return 0, fmt.Errorf("futures convexity: %w", err)
		}
	}
	return 100 * (1 - (fwd + adj)), nil
}

func (f *Futures) String() string {
	return fmt.Sprintf("Futures(%s %s %dM)", f.conv.Name, f.start.Format(utils.DateLayout), f.months)
}

// NextIMMDate returns the first third-Wednesday of March, June, September or
// December strictly after t.
func NextIMMDate(t time.Time) time.Time {
	y, m := t.Year(), t.Month()
	for {
		if m%3 == 0 {
			if d := thirdWednesday(y, m); d.After(t) {
				return d
			}
		}
		m++
		if m > time.December {
			m = time.January
			y++
		}
	}
}

func thirdWednesday(y int, m time.Month) time.Time {
	first := time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
	offset := (int(time.Wednesday) - int(first.Weekday()) + 7) % 7
	return first.AddDate(0, 0, offset+14)
}
