package curve_test

import (
	"errors"
	"fmt"
	"io"
	"math"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meenmo/ratecurve/calendar"
	"github.com/meenmo/ratecurve/curve"
	"github.com/meenmo/ratecurve/curve/helpers"
	"github.com/meenmo/ratecurve/interpolation"
	"github.com/meenmo/ratecurve/lazy"
	"github.com/meenmo/ratecurve/observable"
	"github.com/meenmo/ratecurve/quote"
	"github.com/meenmo/ratecurve/solver"
	"github.com/meenmo/ratecurve/utils"
)

var refDate = time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)

// Same-day settlement keeps accrual dates easy to reason about.
var (
	testDeposit = helpers.DepositConvention{Name: "TEST", Calendar: calendar.TARGET, DayCount: utils.Act360}
	testSwap    = helpers.SwapConvention{
		Name:                 "TEST",
		Calendar:             calendar.TARGET,
		FixedFrequencyMonths: 12,
		FixedDayCount:        utils.Act360,
		FloatFrequencyMonths: 12,
		FloatDayCount:        utils.Act360,
	}
)

func quietLogger() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}

// funcHelper implies its quote from the discount factor at its pillar.
type funcHelper struct {
	curve.HelperBase
	implied func(d float64) float64
	calls   int
}

func newFuncHelper(q quote.Quote, pillar time.Time, implied func(float64) float64) *funcHelper {
	h := &funcHelper{implied: implied}
	h.BindQuote(q)
	h.Earliest, h.Latest, h.Pillar, h.Maturity = refDate, pillar, pillar, pillar
	return h
}

func (h *funcHelper) ImpliedQuote() (float64, error) {
	h.calls++
	ts, err := h.TermStructure()
	if err != nil {
		return 0, err
	}
	d, err := curve.DiscountAt(ts, h.Pillar)
	if err != nil {
		return 0, err
	}
	return h.implied(d), nil
}

func (h *funcHelper) ResetDates(time.Time) {}

type market struct {
	quotes  map[string]*quote.SimpleQuote
	helpers []curve.RateHelper
}

func (m *market) deposit(t *testing.T, tenor string, rate float64) {
	t.Helper()
	q := quote.NewSimpleQuote(rate)
	m.quotes[tenor] = q
	m.helpers = append(m.helpers, helpers.NewDeposit(q, utils.MustPeriod(tenor), testDeposit, refDate))
}

func (m *market) swap(t *testing.T, tenor string, rate float64, opts ...helpers.SwapOption) {
	t.Helper()
	q := quote.NewSimpleQuote(rate)
	m.quotes[tenor] = q
	s, err := helpers.NewSwap(q, utils.MustPeriod(tenor), testSwap, refDate, opts...)
	require.NoError(t, err)
	m.helpers = append(m.helpers, s)
}

func (m *market) futures(id string, start time.Time, price float64) {
	q := quote.NewSimpleQuote(price)
	m.quotes[id] = q
	m.helpers = append(m.helpers, helpers.NewFutures(q, start, 3, testDeposit, nil))
}

// standardMarket is an upward-sloping deposit and swap strip.
func standardMarket(t *testing.T, opts ...helpers.SwapOption) *market {
	m := &market{quotes: map[string]*quote.SimpleQuote{}}
	m.deposit(t, "1M", 0.0200)
	m.deposit(t, "3M", 0.0205)
	m.deposit(t, "6M", 0.0210)
	m.swap(t, "1Y", 0.0220, opts...)
	m.swap(t, "2Y", 0.0235, opts...)
	m.swap(t, "5Y", 0.0260, opts...)
	m.swap(t, "10Y", 0.0285, opts...)
	return m
}

func newCurve(t *testing.T, hs []curve.RateHelper, opts curve.Options) *curve.PiecewiseCurve {
	t.Helper()
	opts.Logger = quietLogger()
	if opts.DayCount == "" {
		opts.DayCount = utils.Act360
	}
	c, err := curve.NewPiecewiseCurve(refDate, hs, opts)
	require.NoError(t, err)
	return c
}

func assertReprices(t *testing.T, c *curve.PiecewiseCurve) {
	t.Helper()
	residuals, err := c.Residuals()
	require.NoError(t, err)
	for i, r := range residuals {
		assert.LessOrEqual(t, math.Abs(r), 1e-12, "helper %d", i+1)
	}
	nodes, err := c.Nodes()
	require.NoError(t, err)
	for i := 1; i < len(nodes); i++ {
		assert.Greater(t, nodes[i].Time, nodes[i-1].Time)
		prev, err := c.Discount(nodes[i-1].Time)
		require.NoError(t, err)
		cur, err := c.Discount(nodes[i].Time)
		require.NoError(t, err)
		assert.LessOrEqual(t, cur, prev, "discount at node %d", i)
	}
}

func TestSingleDeposit(t *testing.T) {
	m := &market{quotes: map[string]*quote.SimpleQuote{}}
	m.deposit(t, "3M", 0.02)
	c := newCurve(t, m.helpers, curve.Options{})

	tau := utils.Act360.YearFraction(refDate, m.helpers[0].MaturityDate())
	assert.InDelta(t, 0.25, tau, 1e-15)
	d, err := c.Discount(tau)
	require.NoError(t, err)
	assert.InDelta(t, 1/(1+0.02*tau), d, 1e-12)

	d0, err := c.Discount(0)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, d0, 1e-15)
}

func TestDepositAndSwap(t *testing.T) {
	m := &market{quotes: map[string]*quote.SimpleQuote{}}
	m.deposit(t, "3M", 0.020)
	m.swap(t, "1Y", 0.025)
	c := newCurve(t, m.helpers, curve.Options{})

	assertReprices(t, c)
	d1, err := c.Discount(1.0)
	require.NoError(t, err)
	d3m, err := c.Discount(0.25)
	require.NoError(t, err)
	assert.Less(t, d1, d3m)

	implied, err := m.helpers[1].ImpliedQuote()
	require.NoError(t, err)
	assert.InDelta(t, 0.025, implied, 1e-12)
}

func TestRepresentations(t *testing.T) {
	tests := []struct {
		name   string
		rep    curve.Representation
		interp interpolation.Interpolator
	}{
		{"discount loglinear", curve.RepresentationDiscount, interpolation.LogLinear{}},
		{"discount linear", curve.RepresentationDiscount, interpolation.Linear{}},
		{"zero linear", curve.RepresentationZero, interpolation.Linear{}},
		{"forward backward flat", curve.RepresentationForward, interpolation.BackwardFlat{}},
		{"discount cubic", curve.RepresentationDiscount, interpolation.CubicSpline{}},
		{"zero cubic", curve.RepresentationZero, interpolation.CubicSpline{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := standardMarket(t)
			c := newCurve(t, m.helpers, curve.Options{Representation: tt.rep, Interpolator: tt.interp})
			assertReprices(t, c)

			z, err := c.ZeroRate(5)
			require.NoError(t, err)
			assert.InDelta(t, 0.026, z, 0.003)

			st := c.Stats()
			assert.Equal(t, 1, st.Calculations)
			assert.Zero(t, st.JointResolves)
			if tt.interp.Global() {
				assert.GreaterOrEqual(t, st.GlobalPasses, 2)
			}
		})
	}
}

func TestGlobalInterpolationRepricesFuturesStrip(t *testing.T) {
	for _, rep := range []curve.Representation{curve.RepresentationDiscount, curve.RepresentationZero} {
		t.Run(rep.String(), func(t *testing.T) {
			m := &market{quotes: map[string]*quote.SimpleQuote{}}
			m.deposit(t, "1M", 0.0200)
			m.deposit(t, "2M", 0.0202)
			start := refDate
			for i, price := range []float64{97.95, 97.90, 97.85, 97.80, 97.75, 97.70} {
				start = helpers.NextIMMDate(start)
				m.futures(fmt.Sprintf("FUT%d", i+1), start, price)
			}
			m.swap(t, "3Y", 0.0240)
			m.swap(t, "5Y", 0.0260)
			m.swap(t, "30Y", 0.0290)

			c := newCurve(t, m.helpers, curve.Options{Representation: rep, Interpolator: interpolation.CubicSpline{}})
			assertReprices(t, c)
			assert.GreaterOrEqual(t, c.Stats().GlobalPasses, 2)
		})
	}
}

func TestDuplicatePillar(t *testing.T) {
	q1, q2 := quote.NewSimpleQuote(0.02), quote.NewSimpleQuote(0.021)
	pillar := refDate.AddDate(1, 0, 0)
	h1 := newFuncHelper(q1, pillar, func(d float64) float64 { return d })
	h2 := newFuncHelper(q2, pillar, func(d float64) float64 { return d })

	_, err := curve.NewPiecewiseCurve(refDate, []curve.RateHelper{h1, h2}, curve.Options{Logger: quietLogger()})
	var cfgErr *curve.ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.ErrorIs(t, err, curve.ErrDuplicatePillar)
	assert.Equal(t, 2, cfgErr.Index)
	assert.Zero(t, h1.calls+h2.calls)
}

func TestHelperSetErrors(t *testing.T) {
	q := quote.NewSimpleQuote(0.02)
	early := newFuncHelper(q, refDate.AddDate(0, 6, 0), func(d float64) float64 { return d })
	late := newFuncHelper(q, refDate.AddDate(1, 0, 0), func(d float64) float64 { return d })
	expired := newFuncHelper(q, refDate, func(d float64) float64 { return d })

	tests := []struct {
		name    string
		helpers []curve.RateHelper
		opts    curve.Options
		want    error
	}{
		{"none", nil, curve.Options{}, curve.ErrNoHelpers},
		{"unsorted", []curve.RateHelper{late, early}, curve.Options{}, curve.ErrUnsortedHelpers},
		{"expired", []curve.RateHelper{expired}, curve.Options{}, curve.ErrExpiredHelper},
		{"too few for cubic", []curve.RateHelper{early}, curve.Options{Interpolator: interpolation.CubicSpline{}}, curve.ErrTooFewHelpers},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.opts.Logger = quietLogger()
			_, err := curve.NewPiecewiseCurve(refDate, tt.helpers, tt.opts)
			var cfgErr *curve.ConfigError
			require.ErrorAs(t, err, &cfgErr)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestSortHelpers(t *testing.T) {
	q := quote.NewSimpleQuote(0.02)
	a := newFuncHelper(q, refDate.AddDate(2, 0, 0), func(d float64) float64 { return d })
	b := newFuncHelper(q, refDate.AddDate(1, 0, 0), func(d float64) float64 { return d })
	hs := []curve.RateHelper{a, b}
	curve.SortHelpers(hs)
	assert.Same(t, b, hs[0])
	assert.Same(t, a, hs[1])
}

func TestJointResolveFallback(t *testing.T) {
	// The quote error has no sign change on the cold bracket; only the joint
	// least-squares solve reaches the root below 0.98.
	pillar := time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)
	q := quote.NewSimpleQuote(1e-4)
	h := newFuncHelper(q, pillar, func(d float64) float64 { return 100 * (d - 0.98) * (d - 0.98) })
	c := newCurve(t, []curve.RateHelper{h}, curve.Options{DayCount: utils.Act365F})

	d, err := c.Discount(1)
	require.NoError(t, err)
	assert.InDelta(t, 0.979, d, 1e-9)
	assert.Equal(t, 1, c.Stats().JointResolves)
	assert.Zero(t, c.Stats().ColdRetries)
}

func TestJointResolveFailureNamesPillar(t *testing.T) {
	pillar := time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)
	q := quote.NewSimpleQuote(0)
	h := newFuncHelper(q, pillar, func(d float64) float64 { return 0.001 + (d-0.9)*(d-0.9) })
	c := newCurve(t, []curve.RateHelper{h}, curve.Options{DayCount: utils.Act365F})

	_, err := c.Discount(0.5)
	var convErr *curve.ConvergenceError
	require.ErrorAs(t, err, &convErr)
	assert.Equal(t, 1, convErr.Index)
	assert.True(t, convErr.Pillar.Equal(pillar))
	assert.Contains(t, err.Error(), "2026-01-15")
	assert.ErrorIs(t, err, solver.ErrNotBracketed)
	assert.ErrorIs(t, err, solver.ErrNoConvergence)
	assert.Equal(t, lazy.Uncalculated, c.State())
}

func TestNegativeRates(t *testing.T) {
	m := &market{quotes: map[string]*quote.SimpleQuote{}}
	m.deposit(t, "3M", -0.005)

	c := newCurve(t, m.helpers, curve.Options{})
	_, err := c.Discount(0.1)
	var convErr *curve.ConvergenceError
	assert.ErrorAs(t, err, &convErr)

	c = newCurve(t, m.helpers, curve.Options{AllowNegativeRates: true})
	d, err := c.Discount(0.25)
	require.NoError(t, err)
	assert.InDelta(t, 1/(1-0.005*0.25), d, 1e-12)
	assert.Greater(t, d, 1.0)
}

func TestEvaluationErrorIsReturned(t *testing.T) {
	q := quote.NewSimpleQuote(math.NaN())
	h := newFuncHelper(q, refDate.AddDate(1, 0, 0), func(d float64) float64 { return d })
	c := newCurve(t, []curve.RateHelper{h}, curve.Options{})

	_, err := c.Discount(0.5)
	require.Error(t, err)
	assert.ErrorIs(t, err, quote.ErrInvalid)
	var convErr *curve.ConvergenceError
	assert.False(t, errors.As(err, &convErr))
	assert.Zero(t, c.Stats().JointResolves)
}

func TestLazyRecalculation(t *testing.T) {
	m := standardMarket(t)
	c := newCurve(t, m.helpers, curve.Options{})
	assert.Equal(t, lazy.Uncalculated, c.State())

	before, err := c.Discount(3)
	require.NoError(t, err)
	first := c.Stats()
	assert.Equal(t, 1, first.Calculations)

	// A second query does not re-solve.
	again, err := c.Discount(3)
	require.NoError(t, err)
	assert.Equal(t, before, again)
	assert.Equal(t, first.TotalEvaluations, c.Stats().TotalEvaluations)

	// Setting the same value is not a change.
	m.quotes["5Y"].SetValue(0.0260)
	assert.Equal(t, lazy.Calculated, c.State())

	m.quotes["5Y"].SetValue(0.0270)
	assert.Equal(t, lazy.Uncalculated, c.State())
	after, err := c.Discount(3)
	require.NoError(t, err)
	assert.Less(t, after, before)
	assert.Equal(t, 2, c.Stats().Calculations)
	assertReprices(t, c)
}

func TestWarmStartUsesFewerEvaluations(t *testing.T) {
	m := standardMarket(t)
	c := newCurve(t, m.helpers, curve.Options{})
	_, err := c.Discount(1)
	require.NoError(t, err)
	cold := c.Stats().Evaluations

	m.quotes["10Y"].SetValue(0.0286)
	_, err = c.Discount(1)
	require.NoError(t, err)
	warm := c.Stats().Evaluations
	assert.Less(t, warm, cold)
	assertReprices(t, c)
}

func TestSubscriberSeesQuoteChange(t *testing.T) {
	m := standardMarket(t)
	c := newCurve(t, m.helpers, curve.Options{})
	_, err := c.Discount(1)
	require.NoError(t, err)

	fired := 0
	sub := c.Subscribe(func() { fired++ })
	m.quotes["1M"].SetValue(0.0199)
	assert.Equal(t, 1, fired)

	// The curve is stale now, so a second change is not forwarded again.
	m.quotes["1M"].SetValue(0.0198)
	assert.Equal(t, 1, fired)

	sub.Cancel()
	_, err = c.Discount(1)
	require.NoError(t, err)
	m.quotes["1M"].SetValue(0.0197)
	assert.Equal(t, 1, fired)
}

func TestFreeze(t *testing.T) {
	m := standardMarket(t)
	c := newCurve(t, m.helpers, curve.Options{})
	before, err := c.Discount(2)
	require.NoError(t, err)

	c.Freeze()
	m.quotes["2Y"].SetValue(0.03)
	frozen, err := c.Discount(2)
	require.NoError(t, err)
	assert.Equal(t, before, frozen)

	c.Unfreeze()
	thawed, err := c.Discount(2)
	require.NoError(t, err)
	assert.Less(t, thawed, before)
}

func TestFreezeBeforeFirstBuild(t *testing.T) {
	m := standardMarket(t)
	c := newCurve(t, m.helpers, curve.Options{})
	c.Freeze()

	_, err := c.Discount(1)
	assert.ErrorIs(t, err, curve.ErrNotCalculated)
	_, err = c.Nodes()
	assert.ErrorIs(t, err, curve.ErrNotCalculated)
	assert.Zero(t, c.Stats().Calculations)

	c.Unfreeze()
	_, err = c.Discount(1)
	require.NoError(t, err)
	assertReprices(t, c)
}

func TestFrozenAfterFailedBuild(t *testing.T) {
	pillar := time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)
	q := quote.NewSimpleQuote(0)
	h := newFuncHelper(q, pillar, func(d float64) float64 { return 0.001 + (d-0.9)*(d-0.9) })
	c := newCurve(t, []curve.RateHelper{h}, curve.Options{DayCount: utils.Act365F})

	_, err := c.Discount(0.5)
	var convErr *curve.ConvergenceError
	require.ErrorAs(t, err, &convErr)

	// The unconverged nodes of the failed attempt stay hidden.
	c.Freeze()
	_, err = c.Discount(0.5)
	assert.ErrorIs(t, err, curve.ErrNotCalculated)
	_, err = c.Nodes()
	assert.ErrorIs(t, err, curve.ErrNotCalculated)
	_, err = c.Residuals()
	assert.ErrorIs(t, err, curve.ErrNotCalculated)
}

func TestColdRetryAfterLargeQuoteMove(t *testing.T) {
	m := standardMarket(t)
	c := newCurve(t, m.helpers, curve.Options{Representation: curve.RepresentationZero, Interpolator: interpolation.Linear{}})
	_, err := c.Discount(1)
	require.NoError(t, err)
	assert.Zero(t, c.Stats().ColdRetries)

	// The new 1M zero rate is below half the smallest node, outside the warm bracket.
	m.quotes["1M"].SetValue(0.005)
	_, err = c.Discount(1)
	require.NoError(t, err)
	st := c.Stats()
	assert.Equal(t, 1, st.ColdRetries)
	assert.Zero(t, st.JointResolves)
	assertReprices(t, c)

	nodes, err := c.Nodes()
	require.NoError(t, err)
	assert.InDelta(t, 0.005, nodes[1].Value, 1e-4)
}

func TestMoveTo(t *testing.T) {
	m := &market{quotes: map[string]*quote.SimpleQuote{}}
	m.deposit(t, "3M", 0.02)
	m.swap(t, "1Y", 0.025)
	c := newCurve(t, m.helpers, curve.Options{})
	_, err := c.Discount(0.5)
	require.NoError(t, err)

	asOf := time.Date(2025, 2, 17, 0, 0, 0, 0, time.UTC)
	require.NoError(t, c.MoveTo(asOf))
	assert.Equal(t, lazy.Uncalculated, c.State())

	nodes, err := c.Nodes()
	require.NoError(t, err)
	assert.True(t, nodes[0].Date.Equal(asOf))
	// 2025-05-17 is a Saturday.
	assert.Equal(t, "2025-05-19", nodes[1].Date.Format(utils.DateLayout))
	assertReprices(t, c)
}

func TestRangeChecks(t *testing.T) {
	m := standardMarket(t)
	c := newCurve(t, m.helpers, curve.Options{})

	_, err := c.Discount(-0.1)
	assert.ErrorIs(t, err, curve.ErrOutOfRange)
	_, err = c.Discount(c.MaxTime() + 1)
	assert.ErrorIs(t, err, curve.ErrOutOfRange)
	_, err = c.Discount(c.MaxTime())
	assert.NoError(t, err)

	x := newCurve(t, standardMarket(t).helpers, curve.Options{AllowExtrapolation: true})
	dMax, err := x.Discount(x.MaxTime())
	require.NoError(t, err)
	dBeyond, err := x.Discount(x.MaxTime() + 5)
	require.NoError(t, err)
	assert.Less(t, dBeyond, dMax)

	f, err := x.InstantaneousForward(x.MaxTime() + 1)
	require.NoError(t, err)
	assert.Greater(t, f, 0.0)
}

func TestDualCurve(t *testing.T) {
	ois := standardMarket(t)
	discount := newCurve(t, ois.helpers, curve.Options{Name: "OIS"})
	handle := observable.NewHandle[curve.YieldTermStructure](discount)

	proj := &market{quotes: map[string]*quote.SimpleQuote{}}
	proj.deposit(t, "6M", 0.0230)
	proj.swap(t, "1Y", 0.0245, helpers.WithDiscountCurve(handle))
	proj.swap(t, "5Y", 0.0285, helpers.WithDiscountCurve(handle))
	projection := newCurve(t, proj.helpers, curve.Options{Name: "IBOR", AllowExtrapolation: true})

	before, err := projection.Discount(4)
	require.NoError(t, err)
	assertReprices(t, projection)
	assert.Equal(t, lazy.Calculated, discount.State())

	// A discount-curve quote reaches the projection curve through the handle.
	ois.quotes["5Y"].SetValue(0.0300)
	assert.Equal(t, lazy.Uncalculated, discount.State())
	assert.Equal(t, lazy.Uncalculated, projection.State())
	after, err := projection.Discount(4)
	require.NoError(t, err)
	assert.NotEqual(t, before, after)
	assert.Equal(t, 2, projection.Stats().Calculations)

	// Relinking the handle also invalidates.
	flat := curve.NewFlatForward(refDate, quote.NewSimpleQuote(0.02), utils.Act360)
	handle.LinkTo(flat)
	assert.Equal(t, lazy.Uncalculated, projection.State())
	assertReprices(t, projection)
}

func TestFlatForward(t *testing.T) {
	q := quote.NewSimpleQuote(0.03)
	f := curve.NewFlatForward(refDate, q, utils.Act365F)

	d, err := f.Discount(2)
	require.NoError(t, err)
	assert.InDelta(t, math.Exp(-0.06), d, 1e-15)
	z, err := curve.ZeroRate(f, 0)
	require.NoError(t, err)
	assert.InDelta(t, 0.03, z, 1e-12)
	fwd, err := curve.ForwardRate(f, 1, 3)
	require.NoError(t, err)
	assert.InDelta(t, 0.03, fwd, 1e-12)

	fired := 0
	f.Subscribe(func() { fired++ })
	q.SetValue(0.04)
	assert.Equal(t, 1, fired)

	q.Reset()
	_, err = f.Discount(1)
	assert.ErrorIs(t, err, quote.ErrInvalid)
}
