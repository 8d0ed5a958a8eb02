package solver

import (
	"fmt"
	"math"
)

// NewtonSafe is a finite-difference Newton solver safeguarded by bisection.
// It needs no derivative: slopes come from the two most recent evaluations.
type NewtonSafe struct {
	MaxEvaluations int
	// DerivativeThreshold forces a bisection step when the slope estimate is flatter.
	DerivativeThreshold float64
}

// Solve finds x in [xMin, xMax] with |f(x)| <= accuracy.
//
// The guess is evaluated first, so a guess that already satisfies the
// tolerance costs a single evaluation. Otherwise both bounds are evaluated and
// must bracket a sign change.
func (s NewtonSafe) Solve(f Func, accuracy, guess, xMin, xMax float64) (Result, error) {
	if xMin >= xMax {
		return Result{}, fmt.Errorf("NewtonSafe.Solve: invalid range [%g, %g]", xMin, xMax)
	}
	maxEvals := s.MaxEvaluations
	if maxEvals <= 0 {
		maxEvals = 100
	}
	guess = math.Min(math.Max(guess, xMin), xMax)

	evals := 0
	eval := func(x float64) (float64, error) {
		evals++
		y, err := f(x)
		if err != nil {
			return 0, &evalError{x: x, err: err}
		}
		return y, nil
	}

	root := guess
	froot, err := eval(root)
	if err != nil {
		return Result{Root: root, Evaluations: evals}, err
	}
	if math.Abs(froot) <= accuracy {
		return Result{Root: root, Evaluations: evals}, nil
	}

	fxMin, err := eval(xMin)
	if err != nil {
		return Result{Root: xMin, Evaluations: evals}, err
	}
	if math.Abs(fxMin) <= accuracy {
		return Result{Root: xMin, Evaluations: evals}, nil
	}
	fxMax, err := eval(xMax)
	if err != nil {
		return Result{Root: xMax, Evaluations: evals}, err
	}
	if math.Abs(fxMax) <= accuracy {
		return Result{Root: xMax, Evaluations: evals}, nil
	}
	if fxMin*fxMax > 0 {
		return Result{Root: root, Evaluations: evals}, fmt.Errorf(
			"%w: f[%g, %g] -> [%g, %g]", ErrNotBracketed, xMin, xMax, fxMin, fxMax)
	}

	// Orient the search so that f(xl) < 0.
	xl, xh := xMin, xMax
	if fxMin > 0 {
		xl, xh = xMax, xMin
	}
	if froot < 0 {
		xl = root
	} else {
		xh = root
	}

	// Slope toward the nearer bound, or the other one when the guess sits on a bound.
	var dfroot float64
	if root != xMax && (root == xMin || xMax-root < root-xMin) {
		dfroot = (fxMax - froot) / (xMax - root)
	} else {
		dfroot = (fxMin - froot) / (xMin - root)
	}

	dx := xMax - xMin
	for evals < maxEvals {
		frootOld, rootOld, dxOld := froot, root, dx

		outOfRange := ((root-xh)*dfroot-froot)*((root-xl)*dfroot-froot) > 0
		tooSlow := math.Abs(2*froot) > math.Abs(dxOld*dfroot)
		if outOfRange || tooSlow || math.Abs(dfroot) < s.DerivativeThreshold {
			dx = (xh - xl) / 2
			root = xl + dx
		} else {
			dx = froot / dfroot
			root -= dx
		}

		froot, err = eval(root)
		if err != nil {
			return Result{Root: root, Evaluations: evals}, err
		}
		if math.Abs(froot) <= accuracy {
			return Result{Root: root, Evaluations: evals}, nil
		}
		// The step is down to a few ulps of root and f is still above accuracy.
		if math.Abs(dx) <= 4*math.Nextafter(math.Abs(root), math.Inf(1))-4*math.Abs(root) {
			return Result{Root: root, Evaluations: evals}, fmt.Errorf(
				"%w: stalled at f(%g) = %g, required accuracy %g", ErrNoConvergence, root, froot, accuracy)
		}

		if root != rootOld {
			dfroot = (frootOld - froot) / (rootOld - root)
		}
		if froot < 0 {
			xl = root
		} else {
			xh = root
		}
	}
	return Result{Root: root, Evaluations: evals}, fmt.Errorf(
		"%w: %d evaluations, last f(%g) = %g", ErrMaxEvaluations, evals, root, froot)
}
