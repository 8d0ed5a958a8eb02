package curve

import (
	"sort"
	"time"

	"github.com/meenmo/ratecurve/observable"
	"github.com/meenmo/ratecurve/quote"
)

// RateHelper adapts one market instrument for calibration.
//
// ImpliedQuote must be continuous and monotonic in the value of the node
// placed at PillarDate, and must fail with ErrNoTermStructure when no curve is
// linked. Helper dates are pure functions of the as-of date given to ResetDates.
type RateHelper interface {
	observable.Observable
	Quote() quote.Quote
	EarliestDate() time.Time
	LatestDate() time.Time
	PillarDate() time.Time
	MaturityDate() time.Time
	ImpliedQuote() (float64, error)
	SetTermStructure(ts YieldTermStructure)
	ResetDates(asOf time.Time)
}

// QuoteError returns the market quote minus the quote implied by the linked curve.
func QuoteError(h RateHelper) (float64, error) {
	q, err := h.Quote().Value()
	if err != nil {
		return 0, err
	}
	implied, err := h.ImpliedQuote()
	if err != nil {
		return 0, err
	}
	return q - implied, nil
}

// Link points a helper at the curve it is calibrated against.
//
// Unlike observable.Handle it does not register with its target: the curve
// observes its helpers, so a registration in the other direction would close
// a notification cycle.
type Link struct {
	ts YieldTermStructure
}

// Set replaces the linked curve.
func (l *Link) Set(ts YieldTermStructure) {
	l.ts = ts
}

// Get returns the linked curve or ErrNoTermStructure.
func (l *Link) Get() (YieldTermStructure, error) {
	if l.ts == nil {
		return nil, ErrNoTermStructure
	}
	return l.ts, nil
}

// HelperBase is embeddable bookkeeping for a RateHelper: quote registration,
// notification forwarding, the curve link and the date fields.
type HelperBase struct {
	observable.Subject
	quote quote.Quote
	link  Link

	Earliest time.Time
	Latest   time.Time
	Pillar   time.Time
	Maturity time.Time
}

// BindQuote stores q and forwards its notifications to the helper's observers.
// Call it once from the concrete helper's constructor.
func (b *HelperBase) BindQuote(q quote.Quote) {
	if b.quote != nil {
		b.quote.Unregister(b)
	}
	b.quote = q
	q.Register(b)
}

// Update forwards every change of the quote or of an observed curve.
func (b *HelperBase) Update() bool {
	return true
}

func (b *HelperBase) Quote() quote.Quote { return b.quote }

func (b *HelperBase) EarliestDate() time.Time { return b.Earliest }
func (b *HelperBase) LatestDate() time.Time   { return b.Latest }
func (b *HelperBase) PillarDate() time.Time   { return b.Pillar }
func (b *HelperBase) MaturityDate() time.Time { return b.Maturity }

// SetTermStructure links the curve used by ImpliedQuote.
func (b *HelperBase) SetTermStructure(ts YieldTermStructure) {
	b.link.Set(ts)
}

// TermStructure returns the linked curve or ErrNoTermStructure.
func (b *HelperBase) TermStructure() (YieldTermStructure, error) {
	return b.link.Get()
}

// SortHelpers orders helpers by pillar date.
func SortHelpers(helpers []RateHelper) {
	sort.SliceStable(helpers, func(i, j int) bool {
		return helpers[i].PillarDate().Before(helpers[j].PillarDate())
	})
}
