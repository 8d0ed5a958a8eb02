package curve

import (
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/floats"

	"github.com/meenmo/ratecurve/config"
	"github.com/meenmo/ratecurve/interpolation"
)

// Representation selects what the curve's node values mean.
type Representation int

const (
	// RepresentationDiscount stores discount factors.
	RepresentationDiscount Representation = iota
	// RepresentationZero stores continuously compounded zero rates.
	RepresentationZero
	// RepresentationForward stores instantaneous forward rates.
	RepresentationForward
)

func (r Representation) String() string {
	switch r {
	case RepresentationDiscount:
		return "discount"
	case RepresentationZero:
		return "zero"
	case RepresentationForward:
		return "forward"
	default:
		return fmt.Sprintf("Representation(%d)", int(r))
	}
}

// ParseRepresentation resolves "discount", "zero" or "forward".
func ParseRepresentation(s string) (Representation, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "discount":
		return RepresentationDiscount, nil
	case "zero", "zeroyield":
		return RepresentationZero, nil
	case "forward", "forwardrate":
		return RepresentationForward, nil
	default:
		return 0, fmt.Errorf("ParseRepresentation: unknown representation %q", s)
	}
}

// DefaultInterpolator is the interpolation used when none is given.
func (r Representation) DefaultInterpolator() interpolation.Interpolator {
	switch r {
	case RepresentationZero:
		return interpolation.Linear{}
	case RepresentationForward:
		return interpolation.BackwardFlat{}
	default:
		return interpolation.LogLinear{}
	}
}

// traits is the per-representation bootstrap policy.
//
// guess and the bounds receive the node index being solved, the node store,
// whether the store holds a previous full solution, and the index of the first
// bootstrapped node.
type traits interface {
	initialValue() float64
	guess(i int, n *nodes, validData bool, first int) float64
	minValueAfter(i int, n *nodes, validData bool, first int) float64
	maxValueAfter(i int, n *nodes, validData bool, first int) float64
	// updateGuess writes a trial value for node i.
	updateGuess(data []float64, v float64, i int)
	// jointBounds is the box for a node at time t in the joint re-solve.
	jointBounds(t float64) (lo, hi float64)
	// discount evaluates the node store, extrapolating with a flat forward
	// beyond the last interpolated node.
	discount(n *nodes, t float64) float64
}

func newTraits(r Representation, cfg config.Config, negative bool) traits {
	b := bounds{maxRate: cfg.MaxRate, avgRate: cfg.AverageRate, minDF: cfg.MinDiscountFactor, negative: negative}
	switch r {
	case RepresentationZero:
		return zeroTraits{rateTraits{b}}
	case RepresentationForward:
		return forwardTraits{rateTraits{b}}
	default:
		return discountTraits{b}
	}
}

type bounds struct {
	maxRate  float64
	avgRate  float64
	minDF    float64
	negative bool
}

type discountTraits struct {
	bounds
}

func (discountTraits) initialValue() float64 { return 1 }

func (d discountTraits) guess(i int, n *nodes, validData bool, first int) float64 {
	if validData {
		return n.data[i]
	}
	if i == first {
		return 1 / (1 + d.avgRate*n.times[i])
	}
	// Flat zero rate from the previous node.
	r := -math.Log(n.data[i-1]) / n.times[i-1]
	return math.Exp(-r * n.times[i])
}

func (d discountTraits) minValueAfter(i int, n *nodes, validData bool, _ int) float64 {
	if validData {
		return math.Max(floats.Min(n.data)/2, d.minDF)
	}
	dt := n.times[i] - n.times[i-1]
	return math.Max(n.data[i-1]*math.Exp(-d.maxRate*dt), d.minDF)
}

func (d discountTraits) maxValueAfter(i int, n *nodes, _ bool, _ int) float64 {
	if d.negative {
		dt := n.times[i] - n.times[i-1]
		return n.data[i-1] * math.Exp(d.maxRate*dt)
	}
	// Discount factors cannot increase.
	return n.data[i-1]
}

func (discountTraits) updateGuess(data []float64, v float64, i int) {
	data[i] = v
}

func (d discountTraits) jointBounds(t float64) (float64, float64) {
	lo := math.Max(math.Exp(-d.maxRate*t), d.minDF)
	if d.negative {
		return lo, math.Exp(d.maxRate * t)
	}
	return lo, 1
}

func (discountTraits) discount(n *nodes, t float64) float64 {
	tMax := n.lastTime()
	if t <= tMax {
		return n.interp.Value(t)
	}
	dMax := n.lastValue()
	fwd := -n.interp.Derivative(tMax) / dMax
	return dMax * math.Exp(-fwd*(t-tMax))
}

// rateTraits is shared by the zero and forward representations.
type rateTraits struct {
	bounds
}

func (r rateTraits) initialValue() float64 { return r.avgRate }

func (r rateTraits) guess(i int, n *nodes, validData bool, first int) float64 {
	if validData {
		return n.data[i]
	}
	if i == first {
		return r.avgRate
	}
	return n.data[i-1]
}

func (r rateTraits) minValueAfter(_ int, n *nodes, validData bool, _ int) float64 {
	if validData {
		m := floats.Min(n.data)
		if m < 0 {
			return 2 * m
		}
		return m / 2
	}
	if r.negative {
		return -r.maxRate
	}
	return 0
}

func (r rateTraits) maxValueAfter(_ int, n *nodes, validData bool, _ int) float64 {
	if validData {
		m := floats.Max(n.data)
		if m < 0 {
			return m / 2
		}
		return 2 * m
	}
	return r.maxRate
}

// updateGuess also seeds node 0: the first segment of a rate curve anchors there.
func (rateTraits) updateGuess(data []float64, v float64, i int) {
	data[i] = v
	if i == 1 {
		data[0] = v
	}
}

func (r rateTraits) jointBounds(float64) (float64, float64) {
	if r.negative {
		return -r.maxRate, r.maxRate
	}
	return 0, r.maxRate
}

type zeroTraits struct {
	rateTraits
}

func (zeroTraits) discount(n *nodes, t float64) float64 {
	tMax := n.lastTime()
	if t <= tMax {
		return math.Exp(-n.interp.Value(t) * t)
	}
	zMax := n.lastValue()
	fwd := zMax + tMax*n.interp.Derivative(tMax)
	return math.Exp(-(zMax*tMax + fwd*(t-tMax)))
}

type forwardTraits struct {
	rateTraits
}

func (forwardTraits) discount(n *nodes, t float64) float64 {
	tMax := n.lastTime()
	if t <= tMax {
		return math.Exp(-n.interp.Primitive(t))
	}
	return math.Exp(-(n.interp.Primitive(tMax) + n.lastValue()*(t-tMax)))
}
