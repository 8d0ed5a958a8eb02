// Package config holds bootstrap solver settings and the YAML curve definition file.
package config

import "fmt"

// Config holds solver and curve construction parameters.
type Config struct {
	// Accuracy is the absolute tolerance on each helper's quote error.
	Accuracy float64 `yaml:"accuracy,omitempty"`

	// RepricingTolerance bounds the residual accepted by the final repricing pass.
	// Zero means Accuracy.
	RepricingTolerance float64 `yaml:"repricing_tolerance,omitempty"`

	// MaxIterations caps evaluations per node solve and full passes for global interpolation.
	MaxIterations int `yaml:"max_iterations,omitempty"`

	// MaxJointIterations caps Levenberg–Marquardt iterations in the joint re-solve.
	MaxJointIterations int `yaml:"max_joint_iterations,omitempty"`

	// MinDiscountFactor is the floor for discount factor bounds to prevent
	// numerical instability (division by near-zero).
	MinDiscountFactor float64 `yaml:"min_discount_factor,omitempty"`

	// MaxRate bounds the cold search range of rate representations and the
	// per-year decay of discount factors.
	MaxRate float64 `yaml:"max_rate,omitempty"`

	// AverageRate seeds the guess for the first bootstrapped node.
	AverageRate float64 `yaml:"average_rate,omitempty"`

	// DerivativeThreshold is the minimum slope magnitude.
	// Below this, the Newton step is replaced by bisection.
	DerivativeThreshold float64 `yaml:"derivative_threshold,omitempty"`
}

// DefaultConfig provides production-ready default values.
var DefaultConfig = Config{
	Accuracy:            1e-12,
	RepricingTolerance:  1e-12,
	MaxIterations:       100,
	MaxJointIterations:  200,
	MinDiscountFactor:   1e-9,
	MaxRate:             1.0,
	AverageRate:         0.05,
	DerivativeThreshold: 1e-15,
}

// WithDefaults returns c with every zero field taken from DefaultConfig.
func (c Config) WithDefaults() Config {
	d := DefaultConfig
	if c.Accuracy == 0 {
		c.Accuracy = d.Accuracy
	}
	if c.RepricingTolerance == 0 {
		c.RepricingTolerance = c.Accuracy
	}
	if c.MaxIterations == 0 {
		c.MaxIterations = d.MaxIterations
	}
	if c.MaxJointIterations == 0 {
		c.MaxJointIterations = d.MaxJointIterations
	}
	if c.MinDiscountFactor == 0 {
		c.MinDiscountFactor = d.MinDiscountFactor
	}
	if c.MaxRate == 0 {
		c.MaxRate = d.MaxRate
	}
	if c.AverageRate == 0 {
		c.AverageRate = d.AverageRate
	}
	if c.DerivativeThreshold == 0 {
		c.DerivativeThreshold = d.DerivativeThreshold
	}
	return c
}

// Validate rejects settings the bootstrap cannot work with.
func (c Config) Validate() error {
	switch {
	case c.Accuracy <= 0:
		return fmt.Errorf("accuracy must be > 0, got %g", c.Accuracy)
	case c.RepricingTolerance < c.Accuracy:
		return fmt.Errorf("repricing_tolerance %g must not be below accuracy %g", c.RepricingTolerance, c.Accuracy)
	case c.MaxIterations < 1:
		return fmt.Errorf("max_iterations must be >= 1, got %d", c.MaxIterations)
	case c.MaxJointIterations < 1:
		return fmt.Errorf("max_joint_iterations must be >= 1, got %d", c.MaxJointIterations)
	case c.MinDiscountFactor <= 0 || c.MinDiscountFactor >= 1:
		return fmt.Errorf("min_discount_factor must be in (0, 1), got %g", c.MinDiscountFactor)
	case c.MaxRate <= 0:
		return fmt.Errorf("max_rate must be > 0, got %g", c.MaxRate)
	case c.AverageRate >= c.MaxRate:
		return fmt.Errorf("average_rate %g must be below max_rate %g", c.AverageRate, c.MaxRate)
	}
	return nil
}
