// Package solver holds the root finders used by the bootstrap: a bracketed
// Newton-safe solver for one unknown and a bounded Levenberg–Marquardt
// least-squares solver for the joint fallback.
package solver

import (
	"errors"
	"fmt"
)

var (
	// ErrNotBracketed is returned when the function has the same sign at both bounds.
	ErrNotBracketed = errors.New("solver: root not bracketed")
	// ErrMaxEvaluations is returned when the evaluation budget is exhausted.
	ErrMaxEvaluations = errors.New("solver: maximum number of function evaluations exceeded")
	// ErrNoConvergence is returned when a least-squares solve stalls above tolerance.
	ErrNoConvergence = errors.New("solver: no convergence")
)

// Result reports where a solve ended and what it cost.
type Result struct {
	Root        float64
	Evaluations int
}

// Func is a scalar objective. An error aborts the solve and is returned as-is.
type Func func(x float64) (float64, error)

// evalError wraps an objective failure so callers can tell it from solver failures.
type evalError struct {
	x   float64
	err error
}

func (e *evalError) Error() string {
	return fmt.Sprintf("solver: evaluation at %g: %v", e.x, e.err)
}

func (e *evalError) Unwrap() error { return e.err }

// IsEvaluationError reports whether err came from the objective rather than the solver.
func IsEvaluationError(err error) bool {
	var e *evalError
	return errors.As(err, &e)
}
