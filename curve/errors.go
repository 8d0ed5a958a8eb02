package curve

import (
	"errors"
	"fmt"
	"time"

	"github.com/meenmo/ratecurve/utils"
)

var (
	ErrNoHelpers       = errors.New("curve: no rate helpers")
	ErrUnsortedHelpers = errors.New("curve: rate helpers not sorted by pillar date")
	ErrDuplicatePillar = errors.New("curve: duplicate pillar date")
	ErrExpiredHelper   = errors.New("curve: pillar date not after reference date")
	ErrTooFewHelpers   = errors.New("curve: not enough helpers for the interpolation")

	ErrResidual     = errors.New("curve: repricing residual above tolerance")
	ErrNonMonotonic = errors.New("curve: discount factors increase")

	ErrNoTermStructure = errors.New("curve: no term structure linked to rate helper")
	ErrOutOfRange      = errors.New("curve: time outside curve range")
	ErrNotCalculated   = errors.New("curve: frozen without a successful bootstrap")
)

// ConfigError reports a malformed helper set. It is detected before any solve.
// Index is the 1-based node index, or 0 when the error concerns the whole set.
type ConfigError struct {
	Index  int
	Pillar time.Time
	Err    error
}

func (e *ConfigError) Error() string {
	if e.Index == 0 {
		return e.Err.Error()
	}
	return fmt.Sprintf("%v: helper %d, pillar %s", e.Err, e.Index, e.Pillar.Format(utils.DateLayout))
}

func (e *ConfigError) Unwrap() error { return e.Err }

// ConvergenceError reports a node that could not be solved by the local
// solver, the cold retry or the joint re-solve.
type ConvergenceError struct {
	Index  int
	Pillar time.Time
	Err    error
}

func (e *ConvergenceError) Error() string {
	return fmt.Sprintf("curve: bootstrap failed at helper %d, pillar %s: %v",
		e.Index, e.Pillar.Format(utils.DateLayout), e.Err)
}

func (e *ConvergenceError) Unwrap() error { return e.Err }

// CalibrationError reports a finished curve that fails the final checks.
// Err is ErrResidual or ErrNonMonotonic.
type CalibrationError struct {
	Index     int
	Pillar    time.Time
	Residual  float64
	Tolerance float64
	Err       error
}

func (e *CalibrationError) Error() string {
	if errors.Is(e.Err, ErrResidual) {
		return fmt.Sprintf("%v: helper %d, pillar %s, residual %g > %g",
			e.Err, e.Index, e.Pillar.Format(utils.DateLayout), e.Residual, e.Tolerance)
	}
	return fmt.Sprintf("%v: node %d, pillar %s", e.Err, e.Index, e.Pillar.Format(utils.DateLayout))
}

func (e *CalibrationError) Unwrap() error { return e.Err }
