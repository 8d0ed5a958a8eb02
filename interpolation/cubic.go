package interpolation

import (
	"fmt"

	"gonum.org/v1/gonum/interp"
)

// CubicSpline is a natural cubic spline. Moving one node changes every segment,
// so the interpolation is global.
type CubicSpline struct{}

func (CubicSpline) New(xs, ys []float64) Interpolation {
	c := &cubicSpline{grid: grid{xs: xs, ys: ys}}
	c.Update()
	return c
}

func (CubicSpline) Global() bool        { return true }
func (CubicSpline) RequiredPoints() int { return 3 }
func (CubicSpline) Name() string        { return "cubic" }

// cubicSpline extrapolates flat beyond the grid, as the underlying fit does.
type cubicSpline struct {
	grid
	fit       interp.NaturalCubic
	primitive []float64
}

func (c *cubicSpline) Update() {
	if err := c.fit.Fit(c.xs, c.ys); err != nil {
		panic(fmt.Sprintf("interpolation: cubic spline fit over %d nodes: %v", len(c.xs), err))
	}
	n := len(c.xs)
	c.primitive = resize(c.primitive, n)
	c.primitive[0] = 0
	for i := 1; i < n; i++ {
		c.primitive[i] = c.primitive[i-1] + c.simpson(c.xs[i-1], c.xs[i])
	}
}

// simpson integrates the spline over [a, b]; it is exact when both ends lie in one segment.
func (c *cubicSpline) simpson(a, b float64) float64 {
	return (b - a) / 6 * (c.fit.Predict(a) + 4*c.fit.Predict(0.5*(a+b)) + c.fit.Predict(b))
}

func (c *cubicSpline) Value(x float64) float64 {
	return c.fit.Predict(x)
}

func (c *cubicSpline) Derivative(x float64) float64 {
	return c.fit.PredictDerivative(x)
}

func (c *cubicSpline) Primitive(x float64) float64 {
	n := len(c.xs)
	switch {
	case x <= c.xs[0]:
		return c.ys[0] * (x - c.xs[0])
	case x >= c.xs[n-1]:
		return c.primitive[n-1] + c.ys[n-1]*(x-c.xs[n-1])
	}
	i := locate(c.xs, x)
	return c.primitive[i] + c.simpson(c.xs[i], x)
}
