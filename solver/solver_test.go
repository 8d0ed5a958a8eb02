package solver_test

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meenmo/ratecurve/solver"
)

func TestNewtonSafe_Solve(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		f          solver.Func
		guess      float64
		xMin, xMax float64
		want       float64
	}{
		{
			name: "sqrt2",
			f:    func(x float64) (float64, error) { return x*x - 2, nil },
			guess: 1, xMin: 0, xMax: 2,
			want: math.Sqrt2,
		},
		{
			name: "decreasing discount factor",
			f: func(d float64) (float64, error) {
				return (1/d-1)/0.25 - 0.02, nil
			},
			guess: 0.99, xMin: 0.5, xMax: 1,
			want: 1 / (1 + 0.02*0.25),
		},
		{
			name: "guess outside range is clamped",
			f:    func(x float64) (float64, error) { return math.Exp(x) - 3, nil },
			guess: 10, xMin: 0, xMax: 2,
			want: math.Log(3),
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			res, err := solver.NewtonSafe{MaxEvaluations: 100}.Solve(tt.f, 1e-12, tt.guess, tt.xMin, tt.xMax)
			require.NoError(t, err)
			fx, _ := tt.f(res.Root)
			assert.LessOrEqual(t, math.Abs(fx), 1e-12)
			assert.InDelta(t, tt.want, res.Root, 1e-10)
			assert.Less(t, res.Evaluations, 30)
		})
	}
}

func TestNewtonSafe_GuessAtRootCostsOneEvaluation(t *testing.T) {
	t.Parallel()

	res, err := solver.NewtonSafe{}.Solve(func(x float64) (float64, error) { return x - 0.5, nil }, 1e-12, 0.5, 0, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Evaluations)
	assert.Equal(t, 0.5, res.Root)
}

func TestNewtonSafe_Errors(t *testing.T) {
	t.Parallel()

	_, err := solver.NewtonSafe{}.Solve(func(x float64) (float64, error) { return x*x + 1, nil }, 1e-12, 0.5, -1, 1)
	assert.ErrorIs(t, err, solver.ErrNotBracketed)

	// Sign change without a root: the bracket collapses onto the jump and f never reaches tolerance.
	step := func(x float64) (float64, error) {
		if x < 0.3 {
			return -1, nil
		}
		return 1, nil
	}
	_, err = solver.NewtonSafe{MaxEvaluations: 10}.Solve(step, 1e-12, 0.9, 0, 1)
	assert.ErrorIs(t, err, solver.ErrMaxEvaluations)

	// With budget to spare the bracket shrinks to a few ulps; that is a failure, not a root.
	res, err := solver.NewtonSafe{MaxEvaluations: 1000}.Solve(step, 1e-12, 0.9, 0, 1)
	assert.ErrorIs(t, err, solver.ErrNoConvergence)
	assert.InDelta(t, 0.3, res.Root, 1e-12)
	assert.Less(t, res.Evaluations, 1000)

	boom := errors.New("no curve")
	_, err = solver.NewtonSafe{}.Solve(func(float64) (float64, error) { return 0, boom }, 1e-12, 0.5, 0, 1)
	assert.ErrorIs(t, err, boom)
	assert.True(t, solver.IsEvaluationError(err))

	_, err = solver.NewtonSafe{}.Solve(func(x float64) (float64, error) { return x, nil }, 1e-12, 0.5, 1, 0)
	assert.Error(t, err)
}

func TestLevenbergMarquardt_SolvesSystem(t *testing.T) {
	t.Parallel()

	// x + y = 3, x*y = 2 with x in [1.5, 3]: the root (2, 1).
	r := func(dst, x []float64) error {
		dst[0] = x[0] + x[1] - 3
		dst[1] = x[0]*x[1] - 2
		return nil
	}
	res, err := solver.LevenbergMarquardt{}.Minimize(r, 2, []float64{2.5, 0.8}, []float64{1.5, 0}, []float64{3, 3}, 1e-12)
	require.NoError(t, err)
	assert.InDelta(t, 2.0, res.X[0], 1e-9)
	assert.InDelta(t, 1.0, res.X[1], 1e-9)
	assert.LessOrEqual(t, res.MaxResidual(), 1e-12)
	assert.Positive(t, res.Evaluations)
}

func TestLevenbergMarquardt_NonMonotonicScalar(t *testing.T) {
	t.Parallel()

	r := func(dst, x []float64) error {
		dst[0] = 100*(x[0]-0.98)*(x[0]-0.98) - 1e-4
		return nil
	}
	res, err := solver.LevenbergMarquardt{}.Minimize(r, 1, []float64{0.95}, []float64{0.3}, []float64{1}, 1e-12)
	require.NoError(t, err)
	assert.InDelta(t, 0.979, res.X[0], 1e-9)
}

func TestLevenbergMarquardt_NoConvergence(t *testing.T) {
	t.Parallel()

	r := func(dst, x []float64) error {
		dst[0] = 0.001 + (x[0]-0.9)*(x[0]-0.9)
		return nil
	}
	res, err := solver.LevenbergMarquardt{MaxIterations: 50}.Minimize(r, 1, []float64{0.95}, []float64{0.3}, []float64{1}, 1e-12)
	assert.ErrorIs(t, err, solver.ErrNoConvergence)
	assert.InDelta(t, 0.9, res.X[0], 1e-3)
}

func TestLevenbergMarquardt_BadBounds(t *testing.T) {
	t.Parallel()

	_, err := solver.LevenbergMarquardt{}.Minimize(func(dst, x []float64) error { return nil }, 1, []float64{1}, nil, nil, 1e-12)
	assert.Error(t, err)
}
