// Package curve builds yield term structures.
//
// A PiecewiseCurve places one node per rate helper and solves each node so
// that its helper reprices the market quote, using the curve built so far.
// The curve observes its helpers and recalculates lazily: a quote change marks
// it stale, and the next query runs the bootstrap again.
package curve

import (
	"math"
	"time"

	"github.com/meenmo/ratecurve/observable"
	"github.com/meenmo/ratecurve/utils"
)

// YieldTermStructure is a discount curve anchored at a reference date.
type YieldTermStructure interface {
	observable.Observable
	ReferenceDate() time.Time
	DayCount() utils.DayCount
	MaxDate() time.Time
	TimeFromReference(d time.Time) float64
	Discount(t float64) (float64, error)
}

// dt is the time step used for zero rates at t = 0 and instantaneous forwards.
const dt = 1e-4

// DiscountAt returns the discount factor for a date.
func DiscountAt(ts YieldTermStructure, d time.Time) (float64, error) {
	return ts.Discount(ts.TimeFromReference(d))
}

// ZeroRate returns the continuously compounded zero rate to time t.
func ZeroRate(ts YieldTermStructure, t float64) (float64, error) {
	if t == 0 {
		t = dt
	}
	d, err := ts.Discount(t)
	if err != nil {
		return 0, err
	}
	return -math.Log(d) / t, nil
}

// ForwardRate returns the continuously compounded forward rate between t1 and t2.
// Equal times give the instantaneous forward at t1.
func ForwardRate(ts YieldTermStructure, t1, t2 float64) (float64, error) {
	if t2 == t1 {
		t1 = math.Max(t1-dt/2, 0)
		t2 = t1 + dt
	}
	d1, err := ts.Discount(t1)
	if err != nil {
		return 0, err
	}
	d2, err := ts.Discount(t2)
	if err != nil {
		return 0, err
	}
	return math.Log(d1/d2) / (t2 - t1), nil
}
