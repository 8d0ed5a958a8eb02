package curve

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/meenmo/ratecurve/interpolation"
	"github.com/meenmo/ratecurve/metrics"
	"github.com/meenmo/ratecurve/solver"
	"github.com/meenmo/ratecurve/utils"
)

// firstIndex is the first node the bootstrap solves; node 0 is the reference date.
const firstIndex = 1

// performCalculations is the lazy recompute step.
func (c *PiecewiseCurve) performCalculations() error {
	start := time.Now()
	var st Stats
	c.built = false
	err := c.bootstrap(&st)
	st.Duration = time.Since(start)
	c.total += st.Evaluations
	metrics.RecordBootstrap(c.representation.String(), err, st.Duration, st.Evaluations)

	if err != nil {
		// The failed attempt may have left nodes anywhere in their bounds.
		c.validData = false
		c.log.WithError(err).WithField("evaluations", st.Evaluations).Error("bootstrap failed")
		return err
	}
	c.validData = true
	c.built = true
	c.stats = st
	c.log.WithFields(logrus.Fields{
		"nodes":          len(c.helpers),
		"evaluations":    st.Evaluations,
		"cold_retries":   st.ColdRetries,
		"joint_resolves": st.JointResolves,
		"duration":       st.Duration,
	}).Info("bootstrap finished")
	return nil
}

// initialize lays out node dates and times and, unless a previous solution
// can seed the guesses, resets node values.
func (c *PiecewiseCurve) initialize() {
	n := len(c.helpers)
	kept := c.nodes.resize(n + 1)
	if !kept {
		c.validData = false
	}
	c.nodes.dates[0] = c.referenceDate
	c.nodes.times[0] = 0
	for i, h := range c.helpers {
		c.nodes.dates[i+1] = h.PillarDate()
		c.nodes.times[i+1] = c.TimeFromReference(h.PillarDate())
	}
	if !c.validData {
		for i := range c.nodes.data {
			c.nodes.data[i] = c.traits.initialValue()
		}
	}
	c.nodes.data[0] = c.traits.initialValue()
}

func (c *PiecewiseCurve) bootstrap(st *Stats) error {
	if err := c.checkHelpers(); err != nil {
		return err
	}
	c.initialize()
	n := len(c.helpers)
	for i := 1; i <= n; i++ {
		if c.nodes.times[i] <= c.nodes.times[i-1] {
			return &ConfigError{Index: i, Pillar: c.nodes.dates[i], Err: fmt.Errorf(
				"%w: curve time %g repeats under %s", ErrDuplicatePillar, c.nodes.times[i], c.dayCount)}
		}
	}
	validData := c.validData
	if validData {
		c.nodes.interpolate(c.interpolator, n+1)
	}

	global := c.interpolator.Global()
	previous := make([]float64, n+1)
	for pass := 0; ; pass++ {
		copy(previous, c.nodes.data)
		for i := 1; i <= n; i++ {
			if !validData {
				c.extendInterpolation(i)
			}
			if err := c.solveNode(i, validData, st); err != nil {
				return err
			}
		}
		if !global {
			break
		}
		st.GlobalPasses++
		change := 0.0
		for i := 1; i <= n; i++ {
			change = math.Max(change, math.Abs(c.nodes.data[i]-previous[i]))
		}
		// Solving a later node moves every segment, so earlier helpers are
		// repriced after each pass.
		worst, residual, err := c.worstResidual(st)
		if err != nil {
			return err
		}
		if change <= c.cfg.Accuracy && math.Abs(residual) <= c.cfg.Accuracy {
			break
		}
		if pass+1 >= c.cfg.MaxIterations {
			return &ConvergenceError{Index: worst, Pillar: c.helpers[worst-1].PillarDate(), Err: fmt.Errorf(
				"%w: %d passes, last change %g, residual %g, required accuracy %g",
				solver.ErrNoConvergence, pass+1, change, residual, c.cfg.Accuracy)}
		}
		// Later passes solve against the full interpolation seeded by this one.
		if !validData {
			validData = true
			c.nodes.interpolate(c.interpolator, n+1)
		}
	}

	if c.nodes.count != n+1 {
		c.nodes.interpolate(c.interpolator, n+1)
	}
	return c.verify()
}

// worstResidual reprices every helper and returns the 1-based index and quote
// error of the one furthest from its quote.
func (c *PiecewiseCurve) worstResidual(st *Stats) (int, float64, error) {
	worst, residual := 1, 0.0
	for k, h := range c.helpers {
		e, err := QuoteError(h)
		st.Evaluations++
		if err != nil {
			return k + 1, 0, fmt.Errorf("curve: repricing helper %d: %w", k+1, err)
		}
		if math.Abs(e) > math.Abs(residual) {
			worst, residual = k+1, e
		}
	}
	return worst, residual, nil
}

// extendInterpolation spans nodes 0..i. A global interpolation is replaced
// by linear while the partial curve is too short for it.
func (c *PiecewiseCurve) extendInterpolation(i int) {
	var ip interpolation.Interpolator = c.interpolator
	if i+1 < ip.RequiredPoints() {
		ip = interpolation.Linear{}
	}
	c.nodes.interpolate(ip, i+1)
}

// errorFunc returns the quote error of helper i as a function of node i.
func (c *PiecewiseCurve) errorFunc(i int) solver.Func {
	h := c.helpers[i-1]
	return func(x float64) (float64, error) {
		c.traits.updateGuess(c.nodes.data, x, i)
		c.nodes.interp.Update()
		return QuoteError(h)
	}
}

func (c *PiecewiseCurve) bracket(i int, validData bool) (guess, lo, hi float64) {
	lo = c.traits.minValueAfter(i, &c.nodes, validData, firstIndex)
	hi = c.traits.maxValueAfter(i, &c.nodes, validData, firstIndex)
	if validData && hi <= lo {
		return c.bracket(i, false)
	}
	guess = c.traits.guess(i, &c.nodes, validData, firstIndex)
	if guess >= hi {
		guess = hi - (hi-lo)/5
	} else if guess <= lo {
		guess = lo + (hi-lo)/5
	}
	return guess, lo, hi
}

// solveNode places node i: local solve, one cold retry when the first attempt
// was warm, then a joint re-solve of nodes 1..i.
func (c *PiecewiseCurve) solveNode(i int, validData bool, st *Stats) error {
	h := c.helpers[i-1]
	log := c.log.WithFields(logrus.Fields{"index": i, "pillar": h.PillarDate().Format(utils.DateLayout)})
	newton := solver.NewtonSafe{MaxEvaluations: c.cfg.MaxIterations, DerivativeThreshold: c.cfg.DerivativeThreshold}
	f := c.errorFunc(i)

	guess, lo, hi := c.bracket(i, validData)
	res, err := newton.Solve(f, c.cfg.Accuracy, guess, lo, hi)
	st.Evaluations += res.Evaluations
	if err == nil {
		c.commit(i, res.Root)
		log.WithFields(logrus.Fields{"value": res.Root, "evaluations": res.Evaluations}).Debug("node solved")
		return nil
	}
	if solver.IsEvaluationError(err) {
		return fmt.Errorf("curve: helper %d, pillar %s: %w", i, h.PillarDate().Format(utils.DateLayout), err)
	}
	firstErr := err

	if validData {
		st.ColdRetries++
		metrics.RecordFallback(metrics.FallbackColdRetry)
		log.WithError(err).Warn("warm solve failed, retrying cold")
		guess, lo, hi = c.bracket(i, false)
		res, err = newton.Solve(f, c.cfg.Accuracy, guess, lo, hi)
		st.Evaluations += res.Evaluations
		if err == nil {
			c.commit(i, res.Root)
			return nil
		}
		if solver.IsEvaluationError(err) {
			return fmt.Errorf("curve: helper %d, pillar %s: %w", i, h.PillarDate().Format(utils.DateLayout), err)
		}
	}

	st.JointResolves++
	metrics.RecordFallback(metrics.FallbackJointResolve)
	log.WithError(err).Warn("node solve failed, re-solving nodes jointly")
	if jointErr := c.jointSolve(i, guess, st); jointErr != nil {
		return &ConvergenceError{Index: i, Pillar: h.PillarDate(), Err: errors.Join(firstErr, jointErr)}
	}
	return nil
}

func (c *PiecewiseCurve) commit(i int, v float64) {
	c.traits.updateGuess(c.nodes.data, v, i)
	c.nodes.interp.Update()
}

// jointSolve minimizes the unweighted sum of squared quote errors of helpers
// 1..i over nodes 1..i.
func (c *PiecewiseCurve) jointSolve(i int, guess float64, st *Stats) error {
	x0 := make([]float64, i)
	lower := make([]float64, i)
	upper := make([]float64, i)
	copy(x0, c.nodes.data[1:i+1])
	x0[i-1] = guess
	for k := 1; k <= i; k++ {
		lower[k-1], upper[k-1] = c.traits.jointBounds(c.nodes.times[k])
	}

	residuals := func(dst, x []float64) error {
		for k := 1; k <= i; k++ {
			c.traits.updateGuess(c.nodes.data, x[k-1], k)
		}
		c.nodes.interp.Update()
		for k := 1; k <= i; k++ {
			e, err := QuoteError(c.helpers[k-1])
			if err != nil {
				return err
			}
			dst[k-1] = e
		}
		return nil
	}

	lm := solver.LevenbergMarquardt{MaxIterations: c.cfg.MaxJointIterations}
	res, err := lm.Minimize(residuals, i, x0, lower, upper, c.cfg.Accuracy)
	st.Evaluations += res.Evaluations
	if err != nil {
		return err
	}
	c.log.WithFields(logrus.Fields{
		"index":        i,
		"iterations":   res.Iterations,
		"max_residual": res.MaxResidual(),
	}).Info("joint re-solve converged")
	return nil
}

// verify reprices every helper on the finished curve and checks that
// discount factors do not increase across nodes. RepricingTolerance defaults
// to Accuracy.
func (c *PiecewiseCurve) verify() error {
	c.residuals = make([]float64, len(c.helpers))
	for k, h := range c.helpers {
		e, err := QuoteError(h)
		if err != nil {
			return fmt.Errorf("curve: repricing helper %d: %w", k+1, err)
		}
		c.residuals[k] = e
		if math.Abs(e) > c.cfg.RepricingTolerance {
			return &CalibrationError{
				Index:     k + 1,
				Pillar:    h.PillarDate(),
				Residual:  e,
				Tolerance: c.cfg.RepricingTolerance,
				Err:       ErrResidual,
			}
		}
	}

	if c.negative {
		return nil
	}
	prev := 1.0
	for i := 1; i < len(c.nodes.times); i++ {
		d := c.traits.discount(&c.nodes, c.nodes.times[i])
		if d > prev {
			return &CalibrationError{Index: i, Pillar: c.nodes.dates[i], Err: ErrNonMonotonic}
		}
		prev = d
	}
	return nil
}
