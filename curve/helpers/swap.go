package helpers

import (
	"fmt"
	"time"

	"github.com/meenmo/ratecurve/calendar"
	"github.com/meenmo/ratecurve/curve"
	"github.com/meenmo/ratecurve/observable"
	"github.com/meenmo/ratecurve/quote"
	"github.com/meenmo/ratecurve/schedule"
	"github.com/meenmo/ratecurve/utils"
)

// Swap is a spot-starting par swap. The floating leg is projected from the
// curve being built; cash flows are discounted on the same curve unless a
// separate discount curve is given.
type Swap struct {
	curve.HelperBase
	tenor    utils.Period
	conv     SwapConvention
	spread   float64
	discount *observable.Handle[curve.YieldTermStructure]

	fixed    []schedule.Period
	floating []schedule.Period
	err      error
}

// SwapOption customizes a Swap.
type SwapOption func(*Swap)

// WithSpread adds a constant spread to every floating coupon.
func WithSpread(spread float64) SwapOption {
	return func(s *Swap) { s.spread = spread }
}

// WithDiscountCurve discounts cash flows on the curve held by h. The swap
// observes the handle, so a rebuilt or relinked discount curve invalidates
// the curve this swap calibrates.
func WithDiscountCurve(h *observable.Handle[curve.YieldTermStructure]) SwapOption {
	return func(s *Swap) { s.discount = h }
}

// NewSwap returns a swap helper quoted as a decimal fixed rate.
func NewSwap(q quote.Quote, tenor utils.Period, conv SwapConvention, asOf time.Time, opts ...SwapOption) (*Swap, error) {
	s := &Swap{tenor: tenor, conv: conv}
	for _, opt := range opts {
		opt(s)
	}
	s.BindQuote(q)
	if s.discount != nil {
		s.discount.Register(&s.HelperBase)
	}
	s.ResetDates(asOf)
	if s.err != nil {
		return nil, s.err
	}
	return s, nil
}

// ResetDates regenerates both leg schedules from the new spot date. The pillar
// is the latest payment date so the whole swap is covered by the curve.
func (s *Swap) ResetDates(asOf time.Time) {
	start := spotDate(s.conv.Calendar, asOf, s.conv.SettlementDays)
	end := s.tenor.Advance(start)
	if s.conv.EndOfMonth && calendar.IsEndOfMonth(s.conv.Calendar, start) {
		end = calendar.LastBusinessDayOfMonth(s.conv.Calendar, end)
	}

	rule := schedule.Rule{
		Calendar:     s.conv.Calendar,
		Direction:    schedule.Backward,
		PayDelayDays: s.conv.PayDelayDays,
		EndOfMonth:   s.conv.EndOfMonth,
	}
	rule.FrequencyMonths = s.conv.FixedFrequencyMonths
	fixed, err := schedule.Generate(start, end, rule)
	if err != nil {
		s.err = fmt.Errorf("swap %s fixed leg: %w", s.tenor, err)
		return
	}
	rule.FrequencyMonths = s.conv.FloatFrequencyMonths
	floating, err := schedule.Generate(start, end, rule)
	if err != nil {
		s.err = fmt.Errorf("swap %s floating leg: %w", s.tenor, err)
		return
	}
	s.fixed, s.floating, s.err = fixed, floating, nil

	latest := fixed[len(fixed)-1].PayDate
	if p := floating[len(floating)-1].PayDate; p.After(latest) {
		latest = p
	}
	s.Earliest = start
	s.Maturity = fixed[len(fixed)-1].EndDate
	s.Latest = latest
	s.Pillar = latest
}

// ImpliedQuote returns the par fixed rate: floating leg value over the fixed
// leg annuity.
func (s *Swap) ImpliedQuote() (float64, error) {
	if s.err != nil {
		return 0, s.err
	}
	proj, err := s.TermStructure()
	if err != nil {
		return 0, err
	}
	disc, err := s.discountCurve(proj)
	if err != nil {
		return 0, err
	}

	annuity := 0.0
	for _, p := range s.fixed {
		df, err := curve.DiscountAt(disc, p.PayDate)
		if err != nil {
			return 0, err
		}
		annuity += s.conv.FixedDayCount.YearFraction(p.StartDate, p.EndDate) * df
	}
	floating := 0.0
	for _, p := range s.floating {
		tau := s.conv.FloatDayCount.YearFraction(p.StartDate, p.EndDate)
		fwd, err := forwardOn(proj, p.StartDate, p.EndDate, tau)
		if err != nil {
			return 0, err
		}
		df, err := curve.DiscountAt(disc, p.PayDate)
		if err != nil {
			return 0, err
		}
		floating += (fwd + s.spread) * tau * df
	}
	return floating / annuity, nil
}

func (s *Swap) discountCurve(proj curve.YieldTermStructure) (curve.YieldTermStructure, error) {
	if s.discount == nil {
		return proj, nil
	}
	ts, ok := s.discount.Current()
	if !ok {
		return nil, fmt.Errorf("swap %s discount curve: %w", s.tenor, curve.ErrNoTermStructure)
	}
	return ts, nil
}

// FixedSchedule returns the fixed leg accrual periods.
func (s *Swap) FixedSchedule() []schedule.Period {
	return append([]schedule.Period(nil), s.fixed...)
}

// FloatingSchedule returns the floating leg accrual periods.
func (s *Swap) FloatingSchedule() []schedule.Period {
	return append([]schedule.Period(nil), s.floating...)
}

func (s *Swap) String() string {
	return fmt.Sprintf("Swap(%s %s)", s.conv.Name, s.tenor)
}
