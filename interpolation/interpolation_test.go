package interpolation_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meenmo/ratecurve/interpolation"
)

func TestLinear(t *testing.T) {
	t.Parallel()

	xs := []float64{0, 1, 3}
	ys := []float64{1, 3, 2}
	l := interpolation.Linear{}.New(xs, ys)

	assert.InDelta(t, 2.0, l.Value(0.5), 1e-15)
	assert.InDelta(t, 2.5, l.Value(2), 1e-15)
	assert.InDelta(t, 1.5, l.Value(4), 1e-15, "extends the last segment")
	assert.InDelta(t, -0.5, l.Derivative(2), 1e-15)
	// Trapezoids: (1+3)/2 + 2*(3+2)/2
	assert.InDelta(t, 7.0, l.Primitive(3), 1e-14)
	assert.InDelta(t, 2+2.75, l.Primitive(2), 1e-14)

	ys[2] = 4
	l.Update()
	assert.InDelta(t, 3.5, l.Value(2), 1e-15)
}

func TestLogLinear(t *testing.T) {
	t.Parallel()

	r := 0.03
	xs := []float64{0, 1, 2}
	ys := []float64{1, math.Exp(-r), math.Exp(-2 * r)}
	l := interpolation.LogLinear{}.New(xs, ys)

	assert.InDelta(t, math.Exp(-1.5*r), l.Value(1.5), 1e-15)
	assert.InDelta(t, -r*math.Exp(-0.5*r), l.Derivative(0.5), 1e-14)
	assert.InDelta(t, (1-math.Exp(-2*r))/r, l.Primitive(2), 1e-13)
}

func TestBackwardFlat(t *testing.T) {
	t.Parallel()

	xs := []float64{0, 1, 2}
	ys := []float64{0.01, 0.02, 0.03}
	b := interpolation.BackwardFlat{}.New(xs, ys)

	assert.Equal(t, 0.02, b.Value(0.5))
	assert.Equal(t, 0.02, b.Value(1))
	assert.Equal(t, 0.03, b.Value(1.0001))
	assert.Equal(t, 0.03, b.Value(5))
	assert.Equal(t, 0.0, b.Derivative(1.5))
	assert.InDelta(t, 0.02+0.5*0.03, b.Primitive(1.5), 1e-15)
	assert.InDelta(t, 0.05+0.03, b.Primitive(3), 1e-15)
}

func TestCubicSpline(t *testing.T) {
	t.Parallel()

	cs := interpolation.CubicSpline{}
	assert.True(t, cs.Global())
	assert.Equal(t, 3, cs.RequiredPoints())

	// A natural spline through collinear points is the line itself.
	xs := []float64{0, 1, 2.5, 4}
	ys := []float64{1, 2, 3.5, 5}
	s := cs.New(xs, ys)
	for _, x := range []float64{0, 0.3, 1, 1.7, 2.5, 3.9} {
		assert.InDelta(t, 1+x, s.Value(x), 1e-12, "x=%v", x)
		assert.InDelta(t, 1.0, s.Derivative(x), 1e-12, "x=%v", x)
	}
	assert.InDelta(t, 4+8.0, s.Primitive(4), 1e-12)
	assert.InDelta(t, 1.7+1.7*1.7/2, s.Primitive(1.7), 1e-12)

	ys[2] = 4
	s.Update()
	assert.InDelta(t, 4.0, s.Value(2.5), 1e-12)
	assert.InDelta(t, 2.0, s.Value(1), 1e-12)
	assert.NotEqual(t, 1.5, s.Value(0.5), "moving one node reshapes neighbouring segments")
}

func TestParse(t *testing.T) {
	t.Parallel()

	for name, want := range map[string]string{
		"linear":        "linear",
		"LogLinear":     "loglinear",
		"backward-flat": "backwardflat",
		"cubic":         "cubic",
	} {
		i, err := interpolation.Parse(name)
		require.NoError(t, err, name)
		assert.Equal(t, want, i.Name())
	}
	_, err := interpolation.Parse("hermite")
	assert.Error(t, err)
}
