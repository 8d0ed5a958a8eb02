// Package builder turns a curve definition file into live quotes, rate
// helpers and piecewise curves.
package builder

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/meenmo/ratecurve/calendar"
	"github.com/meenmo/ratecurve/config"
	"github.com/meenmo/ratecurve/curve"
	"github.com/meenmo/ratecurve/curve/helpers"
	"github.com/meenmo/ratecurve/interpolation"
	"github.com/meenmo/ratecurve/observable"
	"github.com/meenmo/ratecurve/quote"
	"github.com/meenmo/ratecurve/utils"
)

// ErrUnknownQuote is returned when setting a quote id that no helper uses.
var ErrUnknownQuote = errors.New("builder: unknown quote id")

// Market holds every object built from a curve file. Curves are kept in
// file order, so a discount curve always precedes the curves it serves.
type Market struct {
	quotes  map[string]*quote.SimpleQuote
	curves  map[string]*curve.PiecewiseCurve
	handles map[string]*observable.Handle[curve.YieldTermStructure]
	ids     map[string][]string
	order   []string
}

// Build creates quotes, helpers and curves for every curve in the file.
// Nothing is bootstrapped until a curve is queried.
func Build(file *config.CurveFile, log *logrus.Entry) (*Market, error) {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	m := &Market{
		quotes:  make(map[string]*quote.SimpleQuote),
		curves:  make(map[string]*curve.PiecewiseCurve),
		handles: make(map[string]*observable.Handle[curve.YieldTermStructure]),
		ids:     make(map[string][]string),
	}
	for i := range file.Curves {
		spec := &file.Curves[i]
		if err := m.buildCurve(spec, log); err != nil {
			return nil, fmt.Errorf("builder: curve '%s': %w", spec.Name, err)
		}
	}
	return m, nil
}

type namedHelper struct {
	id     string
	helper curve.RateHelper
}

func (m *Market) buildCurve(spec *config.CurveSpec, log *logrus.Entry) error {
	ref, err := utils.ParseDate(spec.ReferenceDate)
	if err != nil {
		return err
	}
	dc, err := utils.ParseDayCount(spec.DayCount)
	if err != nil {
		return err
	}
	cal, err := calendar.Parse(spec.Calendar)
	if err != nil {
		return err
	}
	rep, err := curve.ParseRepresentation(spec.Representation)
	if err != nil {
		return err
	}
	interp, err := interpolation.Parse(spec.Interpolation)
	if err != nil {
		return err
	}

	var discount *observable.Handle[curve.YieldTermStructure]
	if spec.DiscountCurve != "" {
		h, ok := m.handles[spec.DiscountCurve]
		if !ok {
			return fmt.Errorf("discount curve '%s' not built yet", spec.DiscountCurve)
		}
		discount = h
	}

	named := make([]namedHelper, 0, len(spec.Helpers))
	for _, hs := range spec.Helpers {
		h, err := m.buildHelper(hs, ref, discount)
		if err != nil {
			return fmt.Errorf("helper '%s': %w", hs.ID, err)
		}
		named = append(named, namedHelper{id: hs.ID, helper: h})
	}
	sort.SliceStable(named, func(i, j int) bool {
		return named[i].helper.PillarDate().Before(named[j].helper.PillarDate())
	})
	hs := make([]curve.RateHelper, len(named))
	ids := make([]string, len(named))
	for i, n := range named {
		hs[i], ids[i] = n.helper, n.id
	}

	c, err := curve.NewPiecewiseCurve(ref, hs, curve.Options{
		Name:               spec.Name,
		Representation:     rep,
		Interpolator:       interp,
		DayCount:           dc,
		Calendar:           cal,
		Config:             spec.SolverConfig(),
		AllowExtrapolation: spec.AllowExtrapolation,
		AllowNegativeRates: spec.AllowNegativeRates,
		Logger:             log,
	})
	if err != nil {
		return err
	}
	m.curves[spec.Name] = c
	m.handles[spec.Name] = observable.NewHandle[curve.YieldTermStructure](c)
	m.ids[spec.Name] = ids
	m.order = append(m.order, spec.Name)
	return nil
}

func (m *Market) buildHelper(hs config.HelperSpec, asOf time.Time, discount *observable.Handle[curve.YieldTermStructure]) (curve.RateHelper, error) {
	q := quote.NewSimpleQuote(hs.Quote)
	m.quotes[hs.ID] = q

	switch hs.Type {
	case config.HelperDeposit:
		conv, err := helpers.LookupDepositConvention(hs.Convention)
		if err != nil {
			return nil, err
		}
		tenor, err := utils.ParsePeriod(hs.Tenor)
		if err != nil {
			return nil, err
		}
		return helpers.NewDeposit(q, tenor, conv, asOf), nil

	case config.HelperFRA:
		conv, err := helpers.LookupDepositConvention(hs.Convention)
		if err != nil {
			return nil, err
		}
		start, err := utils.ParsePeriod(hs.Start)
		if err != nil {
			return nil, err
		}
		tenor, err := utils.ParsePeriod(hs.Tenor)
		if err != nil {
			return nil, err
		}
		return helpers.NewFRA(q, start, tenor, conv, asOf), nil

	case config.HelperFutures:
		conv, err := helpers.LookupDepositConvention(hs.Convention)
		if err != nil {
			return nil, err
		}
		start, err := utils.ParseDate(hs.StartDate)
		if err != nil {
			return nil, err
		}
		var convexity quote.Quote
		if hs.Convexity != 0 {
			cq := quote.NewSimpleQuote(hs.Convexity)
			m.quotes[hs.ID+"_CONVEXITY"] = cq
			convexity = cq
		}
		return helpers.NewFutures(q, start, hs.Months, conv, convexity), nil

	case config.HelperSwap:
		conv, err := helpers.LookupSwapConvention(hs.Convention)
		if err != nil {
			return nil, err
		}
		tenor, err := utils.ParsePeriod(hs.Tenor)
		if err != nil {
			return nil, err
		}
		var opts []helpers.SwapOption
		if hs.Spread != 0 {
			opts = append(opts, helpers.WithSpread(hs.Spread))
		}
		if discount != nil {
			opts = append(opts, helpers.WithDiscountCurve(discount))
		}
		return helpers.NewSwap(q, tenor, conv, asOf, opts...)

	default:
		return nil, fmt.Errorf("unsupported helper type %q", hs.Type)
	}
}

// Names returns the curve names in file order.
func (m *Market) Names() []string {
	return append([]string(nil), m.order...)
}

// Curve returns a curve by name.
func (m *Market) Curve(name string) (*curve.PiecewiseCurve, bool) {
	c, ok := m.curves[name]
	return c, ok
}

// Handle returns the relinkable handle other curves use to discount on name.
func (m *Market) Handle(name string) (*observable.Handle[curve.YieldTermStructure], bool) {
	h, ok := m.handles[name]
	return h, ok
}

// HelperIDs returns the helper ids of a curve in pillar order.
func (m *Market) HelperIDs(name string) []string {
	return append([]string(nil), m.ids[name]...)
}

// QuoteIDs returns every quote id, sorted.
func (m *Market) QuoteIDs() []string {
	ids := make([]string, 0, len(m.quotes))
	for id := range m.quotes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Quote returns the quote behind a helper id.
func (m *Market) Quote(id string) (*quote.SimpleQuote, bool) {
	q, ok := m.quotes[id]
	return q, ok
}

// SetQuote updates a quote and reports whether its value changed.
func (m *Market) SetQuote(id string, v float64) (bool, error) {
	q, ok := m.quotes[id]
	if !ok {
		return false, fmt.Errorf("%w: %s", ErrUnknownQuote, id)
	}
	if cur, err := q.Value(); err == nil && cur == v {
		return false, nil
	}
	q.SetValue(v)
	return true, nil
}

// Calculate bootstraps every stale curve in file order and returns the
// errors of the curves that failed.
func (m *Market) Calculate() error {
	var errs []error
	for _, name := range m.order {
		if err := m.curves[name].Calculate(); err != nil {
			errs = append(errs, fmt.Errorf("curve '%s': %w", name, err))
		}
	}
	return errors.Join(errs...)
}

// MoveTo re-anchors every curve at asOf.
func (m *Market) MoveTo(asOf time.Time) error {
	for _, name := range m.order {
		if err := m.curves[name].MoveTo(asOf); err != nil {
			return fmt.Errorf("curve '%s': %w", name, err)
		}
	}
	return nil
}
