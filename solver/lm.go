package solver

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Residuals writes the residual vector at x into dst.
type Residuals func(dst, x []float64) error

// LevenbergMarquardt minimizes the plain sum of squared residuals over a box.
// Jacobians are central finite differences evaluated sequentially, so the
// residual function may mutate shared state between calls.
type LevenbergMarquardt struct {
	MaxIterations int
	// InitialDamping is the starting Marquardt parameter; zero means 1e-3.
	InitialDamping float64
}

// LeastSquaresResult reports the solution of a joint solve.
type LeastSquaresResult struct {
	X           []float64
	Residuals   []float64
	Iterations  int
	Evaluations int
}

// MaxResidual returns the largest absolute residual.
func (r LeastSquaresResult) MaxResidual() float64 {
	if len(r.Residuals) == 0 {
		return 0
	}
	return math.Max(math.Abs(floats.Max(r.Residuals)), math.Abs(floats.Min(r.Residuals)))
}

// Minimize drives every residual below tolerance, starting from x0 and
// keeping each coordinate within [lower[i], upper[i]]. m is the number of
// residuals. It returns ErrNoConvergence when the sum of squares stalls above
// tolerance.
func (lm LevenbergMarquardt) Minimize(r Residuals, m int, x0, lower, upper []float64, tolerance float64) (LeastSquaresResult, error) {
	n := len(x0)
	if len(lower) != n || len(upper) != n {
		return LeastSquaresResult{}, fmt.Errorf("LevenbergMarquardt.Minimize: %d unknowns but bounds of length %d and %d", n, len(lower), len(upper))
	}
	maxIter := lm.MaxIterations
	if maxIter <= 0 {
		maxIter = 200
	}
	lambda := lm.InitialDamping
	if lambda <= 0 {
		lambda = 1e-3
	}

	res := LeastSquaresResult{X: make([]float64, n), Residuals: make([]float64, m)}
	copy(res.X, x0)
	project(res.X, lower, upper)

	var evalErr error
	eval := func(dst, x []float64) {
		res.Evaluations++
		if evalErr != nil {
			return
		}
		if err := r(dst, x); err != nil {
			evalErr = &evalError{x: x[len(x)-1], err: err}
		}
	}

	eval(res.Residuals, res.X)
	if evalErr != nil {
		return res, evalErr
	}
	cost := floats.Dot(res.Residuals, res.Residuals)

	jac := mat.NewDense(m, n, nil)
	var jtj mat.Dense
	grad := mat.NewVecDense(n, nil)
	step := mat.NewVecDense(n, nil)
	trial := make([]float64, n)
	trialRes := make([]float64, m)

	for res.Iterations = 0; res.Iterations < maxIter; res.Iterations++ {
		if res.MaxResidual() <= tolerance {
			return res, nil
		}

		fd.Jacobian(jac, eval, res.X, &fd.JacobianSettings{Formula: fd.Central})
		if evalErr != nil {
			return res, evalErr
		}
		// Jacobian evaluations leave the shared state at a perturbed point.
		eval(res.Residuals, res.X)
		if evalErr != nil {
			return res, evalErr
		}

		jtj.Mul(jac.T(), jac)
		grad.MulVec(jac.T(), mat.NewVecDense(m, res.Residuals))
		if floats.Norm(grad.RawVector().Data, math.Inf(1)) < 1e-300 {
			break
		}

		improved := false
		for !improved && lambda < 1e16 {
			a := mat.DenseCopyOf(&jtj)
			for i := 0; i < n; i++ {
				d := jtj.At(i, i)
				a.Set(i, i, d+lambda*math.Max(d, 1e-12))
			}
			if err := step.SolveVec(a, grad); err != nil {
				lambda *= 10
				continue
			}
			for i := 0; i < n; i++ {
				trial[i] = res.X[i] - step.AtVec(i)
			}
			project(trial, lower, upper)
			eval(trialRes, trial)
			if evalErr != nil {
				return res, evalErr
			}
			if trialCost := floats.Dot(trialRes, trialRes); trialCost < cost {
				copy(res.X, trial)
				copy(res.Residuals, trialRes)
				cost = trialCost
				lambda = math.Max(lambda/10, 1e-12)
				improved = true
			} else {
				lambda *= 10
			}
		}
		if !improved {
			break
		}
	}

	// Leave shared state at the best point found.
	eval(res.Residuals, res.X)
	if evalErr != nil {
		return res, evalErr
	}
	if res.MaxResidual() <= tolerance {
		return res, nil
	}
	return res, fmt.Errorf("%w: max residual %g after %d iterations", ErrNoConvergence, res.MaxResidual(), res.Iterations)
}

func project(x, lower, upper []float64) {
	for i := range x {
		x[i] = math.Min(math.Max(x[i], lower[i]), upper[i])
	}
}
