// Package helpers implements rate helpers for the usual calibration
// instruments: deposits, FRAs, interest-rate futures and par swaps.
package helpers

import (
	"fmt"
	"time"

	"github.com/meenmo/ratecurve/calendar"
	"github.com/meenmo/ratecurve/curve"
	"github.com/meenmo/ratecurve/quote"
	"github.com/meenmo/ratecurve/utils"
)

// Deposit is a simple-compounded money-market deposit from spot to spot+tenor.
type Deposit struct {
	curve.HelperBase
	tenor utils.Period
	conv  DepositConvention
	tau   float64
}

// NewDeposit returns a deposit quoted as a decimal simple rate.
func NewDeposit(q quote.Quote, tenor utils.Period, conv DepositConvention, asOf time.Time) *Deposit {
	d := &Deposit{tenor: tenor, conv: conv}
	d.BindQuote(q)
	d.ResetDates(asOf)
	return d
}

// ResetDates recomputes the accrual dates for a new as-of date.
func (d *Deposit) ResetDates(asOf time.Time) {
	start := spotDate(d.conv.Calendar, asOf, d.conv.SettlementDays)
	end := calendar.Adjust(d.conv.Calendar, d.tenor.Advance(start))
	d.tau = d.conv.DayCount.YearFraction(start, end)
	d.Earliest = start
	d.Maturity = end
	d.Latest = end
	d.Pillar = end
}

// ImpliedQuote returns (D(start)/D(end) - 1) / tau on the linked curve.
func (d *Deposit) ImpliedQuote() (float64, error) {
	return simpleForward(&d.HelperBase, d.Earliest, d.Maturity, d.tau)
}

func (d *Deposit) String() string {
	return fmt.Sprintf("Deposit(%s %s)", d.conv.Name, d.tenor)
}

// FRA is a forward rate agreement starting monthsToStart after spot.
type FRA struct {
	curve.HelperBase
	toStart utils.Period
	tenor   utils.Period
	conv    DepositConvention
	tau     float64
}

// NewFRA returns an FRA quoted as a decimal simple forward rate, e.g. 6x12
// is NewFRA(q, 6M, 6M, ...).
func NewFRA(q quote.Quote, toStart, tenor utils.Period, conv DepositConvention, asOf time.Time) *FRA {
	f := &FRA{toStart: toStart, tenor: tenor, conv: conv}
	f.BindQuote(q)
	f.ResetDates(asOf)
	return f
}

func (f *FRA) ResetDates(asOf time.Time) {
	spot := spotDate(f.conv.Calendar, asOf, f.conv.SettlementDays)
	start := calendar.Adjust(f.conv.Calendar, f.toStart.Advance(spot))
	end := calendar.Adjust(f.conv.Calendar, f.tenor.Advance(start))
	f.tau = f.conv.DayCount.YearFraction(start, end)
	f.Earliest = start
	f.Maturity = end
	f.Latest = end
	f.Pillar = end
}

func (f *FRA) ImpliedQuote() (float64, error) {
	return simpleForward(&f.HelperBase, f.Earliest, f.Maturity, f.tau)
}

func (f *FRA) String() string {
	return fmt.Sprintf("FRA(%s %dx%d)", f.conv.Name, f.toStart.Months(), f.toStart.Months()+f.tenor.Months())
}

// simpleForward is the simple rate between two dates on the helper's curve.
func simpleForward(b *curve.HelperBase, start, end time.Time, tau float64) (float64, error) {
	ts, err := b.TermStructure()
	if err != nil {
		return 0, err
	}
	return forwardOn(ts, start, end, tau)
}

func forwardOn(ts curve.YieldTermStructure, start, end time.Time, tau float64) (float64, error) {
	ds, err := curve.DiscountAt(ts, start)
	if err != nil {
		return 0, err
	}
	de, err := curve.DiscountAt(ts, end)
	if err != nil {
		return 0, err
	}
	return (ds/de - 1) / tau, nil
}
