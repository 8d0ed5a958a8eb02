// Package interpolation provides one-dimensional interpolations over curve nodes.
//
// An Interpolation references the abscissa and ordinate slices it was built
// over; it does not copy them. After mutating ys in place, call Update to
// refresh any cached coefficients. Evaluation outside [XMin, XMax] extends the
// first or last segment.
package interpolation

import (
	"fmt"
	"sort"
	"strings"
)

// Interpolation evaluates an interpolating function and its calculus.
type Interpolation interface {
	// Update recomputes cached coefficients after ys changed.
	Update()
	Value(x float64) float64
	Derivative(x float64) float64
	// Primitive returns the integral from XMin to x.
	Primitive(x float64) float64
	XMin() float64
	XMax() float64
}

// Interpolator is a factory for interpolations of one kind.
type Interpolator interface {
	New(xs, ys []float64) Interpolation
	// Global reports whether a change to one node moves the function away from it.
	Global() bool
	RequiredPoints() int
	Name() string
}

// Parse resolves an interpolator by name.
func Parse(name string) (Interpolator, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "linear":
		return Linear{}, nil
	case "loglinear", "log-linear":
		return LogLinear{}, nil
	case "backwardflat", "backward-flat":
		return BackwardFlat{}, nil
	case "cubic", "cubicspline", "natural-cubic":
		return CubicSpline{}, nil
	default:
		return nil, fmt.Errorf("interpolation.Parse: unknown interpolation %q", name)
	}
}

// locate returns i such that xs[i] <= x < xs[i+1], clamped to the first and
// last segment when x lies outside the grid. xs must hold at least two points.
func locate(xs []float64, x float64) int {
	n := len(xs)
	if x < xs[0] {
		return 0
	}
	if x >= xs[n-1] {
		return n - 2
	}
	// First index with xs[i] > x, so xs[i-1] <= x < xs[i].
	i := sort.Search(n, func(i int) bool { return xs[i] > x })
	return i - 1
}

// grid is the shared part of every interpolation.
type grid struct {
	xs, ys []float64
}

func (g grid) XMin() float64 { return g.xs[0] }
func (g grid) XMax() float64 { return g.xs[len(g.xs)-1] }
