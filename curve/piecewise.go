package curve

import (
	"fmt"
	"math"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/meenmo/ratecurve/calendar"
	"github.com/meenmo/ratecurve/config"
	"github.com/meenmo/ratecurve/interpolation"
	"github.com/meenmo/ratecurve/lazy"
	"github.com/meenmo/ratecurve/utils"
)

// Options configures a PiecewiseCurve. The zero value builds a discount-factor
// curve with log-linear interpolation, ACT/365F time and default solver settings.
type Options struct {
	Name               string
	Representation     Representation
	Interpolator       interpolation.Interpolator
	DayCount           utils.DayCount
	Calendar           calendar.CalendarID
	Config             config.Config
	AllowExtrapolation bool
	AllowNegativeRates bool
	Logger             *logrus.Entry
}

// Node is one bootstrapped curve node.
type Node struct {
	Date  time.Time
	Time  float64
	Value float64
}

// Stats describes the most recent successful bootstrap.
type Stats struct {
	// Evaluations counts implied-quote evaluations in the last bootstrap.
	Evaluations int
	// TotalEvaluations counts evaluations across every bootstrap attempt.
	TotalEvaluations int
	ColdRetries      int
	JointResolves    int
	GlobalPasses     int
	Calculations     int
	Duration         time.Duration
}

// PiecewiseCurve is a yield curve bootstrapped from rate helpers.
type PiecewiseCurve struct {
	*lazy.Object

	name           string
	referenceDate  time.Time
	dayCount       utils.DayCount
	calendar       calendar.CalendarID
	representation Representation
	interpolator   interpolation.Interpolator
	traits         traits
	cfg            config.Config
	extrapolate    bool
	negative       bool
	log            *logrus.Entry

	helpers   []RateHelper
	nodes     nodes
	validData bool
	// built is set only while nodes hold a successful bootstrap.
	built     bool
	residuals []float64
	stats     Stats
	total     int
}

// NewPiecewiseCurve links the helpers to a new curve anchored at referenceDate.
//
// Helpers must already be sorted by pillar date (see SortHelpers). The helper
// set is validated immediately; nothing is solved until the first query.
func NewPiecewiseCurve(referenceDate time.Time, helpers []RateHelper, opts Options) (*PiecewiseCurve, error) {
	cfg := opts.Config.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, &ConfigError{Err: fmt.Errorf("curve: solver config: %w", err)}
	}
	if opts.Interpolator == nil {
		opts.Interpolator = opts.Representation.DefaultInterpolator()
	}
	if opts.DayCount == "" {
		opts.DayCount = utils.Act365F
	}
	if opts.Calendar == "" {
		opts.Calendar = calendar.WEEKENDS
	}
	log := opts.Logger
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}

	c := &PiecewiseCurve{
		name:           opts.Name,
		referenceDate:  referenceDate,
		dayCount:       opts.DayCount,
		calendar:       opts.Calendar,
		representation: opts.Representation,
		interpolator:   opts.Interpolator,
		traits:         newTraits(opts.Representation, cfg, opts.AllowNegativeRates),
		cfg:            cfg,
		extrapolate:    opts.AllowExtrapolation,
		negative:       opts.AllowNegativeRates,
		helpers:        append([]RateHelper(nil), helpers...),
	}
	c.log = log.WithFields(logrus.Fields{
		"component":      "curve",
		"curve":          c.name,
		"representation": c.representation.String(),
	})
	c.Object = lazy.New(c.performCalculations)

	if err := c.checkHelpers(); err != nil {
		return nil, err
	}
	for _, h := range c.helpers {
		h.SetTermStructure(c)
		h.Register(c)
	}
	return c, nil
}

// checkHelpers validates the helper set against the reference date.
func (c *PiecewiseCurve) checkHelpers() error {
	if len(c.helpers) == 0 {
		return &ConfigError{Err: ErrNoHelpers}
	}
	if need := c.interpolator.RequiredPoints(); len(c.helpers)+1 < need {
		return &ConfigError{Err: fmt.Errorf("%w: %s needs %d nodes, have %d",
			ErrTooFewHelpers, c.interpolator.Name(), need, len(c.helpers)+1)}
	}
	prev := c.referenceDate
	for i, h := range c.helpers {
		pillar := h.PillarDate()
		switch {
		case !pillar.After(c.referenceDate):
			return &ConfigError{Index: i + 1, Pillar: pillar, Err: ErrExpiredHelper}
		case i > 0 && pillar.Equal(prev):
			return &ConfigError{Index: i + 1, Pillar: pillar, Err: ErrDuplicatePillar}
		case pillar.Before(prev):
			return &ConfigError{Index: i + 1, Pillar: pillar, Err: ErrUnsortedHelpers}
		}
		prev = pillar
	}
	return nil
}

// Name returns the curve name given in Options.
func (c *PiecewiseCurve) Name() string { return c.name }

// ReferenceDate returns the date at which discount factors equal one.
func (c *PiecewiseCurve) ReferenceDate() time.Time { return c.referenceDate }

// DayCount returns the convention mapping dates to curve times.
func (c *PiecewiseCurve) DayCount() utils.DayCount { return c.dayCount }

// Calendar returns the curve's business-day calendar.
func (c *PiecewiseCurve) Calendar() calendar.CalendarID { return c.calendar }

// Representation returns what the node values mean.
func (c *PiecewiseCurve) Representation() Representation { return c.representation }

// Helpers returns the helpers in pillar order.
func (c *PiecewiseCurve) Helpers() []RateHelper {
	return append([]RateHelper(nil), c.helpers...)
}

// MaxDate returns the last pillar date.
func (c *PiecewiseCurve) MaxDate() time.Time {
	return c.helpers[len(c.helpers)-1].PillarDate()
}

// MaxTime returns the curve time of MaxDate.
func (c *PiecewiseCurve) MaxTime() float64 {
	return c.TimeFromReference(c.MaxDate())
}

// TimeFromReference maps a date to curve time.
func (c *PiecewiseCurve) TimeFromReference(d time.Time) float64 {
	return c.dayCount.YearFraction(c.referenceDate, d)
}

// MoveTo re-anchors the curve at asOf: helper dates are recomputed, the
// helper set is validated again and the curve is invalidated.
func (c *PiecewiseCurve) MoveTo(asOf time.Time) error {
	c.referenceDate = asOf
	c.built = false
	for _, h := range c.helpers {
		h.ResetDates(asOf)
	}
	c.Invalidate()
	return c.checkHelpers()
}

// ensure bootstraps a stale curve. Outside a bootstrap it fails unless the
// nodes hold a successful one, which only a frozen curve can lack.
func (c *PiecewiseCurve) ensure() error {
	if err := c.Calculate(); err != nil {
		return err
	}
	if c.built || c.State() == lazy.Calculating {
		return nil
	}
	return ErrNotCalculated
}

func (c *PiecewiseCurve) checkRange(t float64) error {
	if t < 0 {
		return fmt.Errorf("%w: negative time %g", ErrOutOfRange, t)
	}
	// Helpers read beyond the last solved node while the curve is being built.
	if c.extrapolate || c.State() == lazy.Calculating {
		return nil
	}
	if tMax := c.MaxTime(); t > tMax && !closeEnough(t, tMax) {
		return fmt.Errorf("%w: time %g beyond max time %g", ErrOutOfRange, t, tMax)
	}
	return nil
}

func closeEnough(x, y float64) bool {
	return math.Abs(x-y) <= 42*2.220446049250313e-16*math.Max(math.Abs(x), math.Abs(y))
}

// Discount returns the discount factor at curve time t, bootstrapping first if stale.
// A frozen curve that never bootstrapped, or whose last bootstrap failed,
// returns ErrNotCalculated.
func (c *PiecewiseCurve) Discount(t float64) (float64, error) {
	if err := c.ensure(); err != nil {
		return 0, err
	}
	if err := c.checkRange(t); err != nil {
		return 0, err
	}
	return c.traits.discount(&c.nodes, t), nil
}

// DiscountAt returns the discount factor for a date.
func (c *PiecewiseCurve) DiscountAt(d time.Time) (float64, error) {
	return c.Discount(c.TimeFromReference(d))
}

// ZeroRate returns the continuously compounded zero rate to time t.
func (c *PiecewiseCurve) ZeroRate(t float64) (float64, error) {
	return ZeroRate(c, t)
}

// ForwardRate returns the continuously compounded forward rate between t1 and t2.
func (c *PiecewiseCurve) ForwardRate(t1, t2 float64) (float64, error) {
	return ForwardRate(c, t1, t2)
}

// InstantaneousForward returns the instantaneous forward rate at t.
func (c *PiecewiseCurve) InstantaneousForward(t float64) (float64, error) {
	return ForwardRate(c, t, t)
}

// Nodes returns a copy of the bootstrapped nodes, node 0 included.
func (c *PiecewiseCurve) Nodes() ([]Node, error) {
	if err := c.ensure(); err != nil {
		return nil, err
	}
	out := make([]Node, len(c.nodes.data))
	for i := range out {
		out[i] = Node{Date: c.nodes.dates[i], Time: c.nodes.times[i], Value: c.nodes.data[i]}
	}
	return out, nil
}

// Times returns a copy of the node times.
func (c *PiecewiseCurve) Times() ([]float64, error) {
	if err := c.ensure(); err != nil {
		return nil, err
	}
	_, times, _ := c.nodes.snapshot()
	return times, nil
}

// Data returns a copy of the node values.
func (c *PiecewiseCurve) Data() ([]float64, error) {
	if err := c.ensure(); err != nil {
		return nil, err
	}
	_, _, data := c.nodes.snapshot()
	return data, nil
}

// Dates returns a copy of the node dates.
func (c *PiecewiseCurve) Dates() ([]time.Time, error) {
	if err := c.ensure(); err != nil {
		return nil, err
	}
	dates, _, _ := c.nodes.snapshot()
	return dates, nil
}

// Residuals returns the final quote errors, one per helper in pillar order.
func (c *PiecewiseCurve) Residuals() ([]float64, error) {
	if err := c.ensure(); err != nil {
		return nil, err
	}
	return append([]float64(nil), c.residuals...), nil
}

// Stats returns statistics of the last successful bootstrap. It never triggers one.
func (c *PiecewiseCurve) Stats() Stats {
	s := c.stats
	s.TotalEvaluations = c.total
	s.Calculations = c.Calculations()
	return s
}
