package curve

import (
	"math"
	"time"

	"github.com/meenmo/ratecurve/observable"
	"github.com/meenmo/ratecurve/quote"
	"github.com/meenmo/ratecurve/utils"
)

// flatForwardMaxDate bounds a flat curve; it extrapolates to any practical date.
var flatForwardMaxDate = time.Date(2199, 12, 31, 0, 0, 0, 0, time.UTC)

// FlatForward is a curve with a constant continuously compounded rate read
// from a quote. Quote changes are forwarded to the curve's observers.
type FlatForward struct {
	observable.Subject
	referenceDate time.Time
	dayCount      utils.DayCount
	rate          quote.Quote
}

// NewFlatForward returns a flat curve at the rate held by q.
func NewFlatForward(referenceDate time.Time, q quote.Quote, dc utils.DayCount) *FlatForward {
	f := &FlatForward{referenceDate: referenceDate, dayCount: dc, rate: q}
	q.Register(f)
	return f
}

// Update forwards quote changes.
func (f *FlatForward) Update() bool { return true }

func (f *FlatForward) ReferenceDate() time.Time { return f.referenceDate }
func (f *FlatForward) DayCount() utils.DayCount { return f.dayCount }
func (f *FlatForward) MaxDate() time.Time       { return flatForwardMaxDate }

func (f *FlatForward) TimeFromReference(d time.Time) float64 {
	return f.dayCount.YearFraction(f.referenceDate, d)
}

// Discount returns exp(-r t).
func (f *FlatForward) Discount(t float64) (float64, error) {
	r, err := f.rate.Value()
	if err != nil {
		return 0, err
	}
	return math.Exp(-r * t), nil
}

// MoveTo re-anchors the curve and notifies observers.
func (f *FlatForward) MoveTo(asOf time.Time) {
	f.referenceDate = asOf
	f.NotifyObservers()
}
