package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/meenmo/ratecurve/calendar"
	"github.com/meenmo/ratecurve/interpolation"
	"github.com/meenmo/ratecurve/utils"
)

// Helper types accepted in a curve file.
const (
	HelperDeposit = "deposit"
	HelperFRA     = "fra"
	HelperFutures = "futures"
	HelperSwap    = "swap"
)

// CurveFile is the top-level curve definition document.
type CurveFile struct {
	Version string      `yaml:"version"`
	Curves  []CurveSpec `yaml:"curves"`
}

// CurveSpec defines one piecewise curve and its calibration instruments.
type CurveSpec struct {
	Name               string       `yaml:"name"`
	ReferenceDate      string       `yaml:"reference_date"`
	DayCount           string       `yaml:"day_count"`
	Calendar           string       `yaml:"calendar,omitempty"`
	Representation     string       `yaml:"representation"` // discount, zero or forward
	Interpolation      string       `yaml:"interpolation"`
	AllowExtrapolation bool         `yaml:"allow_extrapolation,omitempty"`
	AllowNegativeRates bool         `yaml:"allow_negative_rates,omitempty"`
	DiscountCurve      string       `yaml:"discount_curve,omitempty"` // name of an earlier curve used to discount swaps
	Solver             *Config      `yaml:"solver,omitempty"`
	Helpers            []HelperSpec `yaml:"helpers"`
}

// HelperSpec defines one calibration instrument. Quotes are decimals, futures quote a price.
type HelperSpec struct {
	ID         string  `yaml:"id"`
	Type       string  `yaml:"type"`
	Convention string  `yaml:"convention"`
	Tenor      string  `yaml:"tenor,omitempty"`      // deposit, fra and swap
	Start      string  `yaml:"start,omitempty"`      // fra: forward start after spot
	StartDate  string  `yaml:"start_date,omitempty"` // futures: accrual start
	Months     int     `yaml:"months,omitempty"`     // futures: accrual length, default 3
	Quote      float64 `yaml:"quote"`
	Convexity  float64 `yaml:"convexity,omitempty"`
	Spread     float64 `yaml:"spread,omitempty"`
}

var representations = map[string]bool{"discount": true, "zero": true, "forward": true}

// Validate performs strict validation on the curve file.
func (f *CurveFile) Validate() error {
	if f.Version != "1.0" {
		return fmt.Errorf("unsupported version: %s (expected: 1.0)", f.Version)
	}
	if len(f.Curves) == 0 {
		return fmt.Errorf("no curves defined")
	}

	defined := make(map[string]bool, len(f.Curves))
	ids := make(map[string]string)
	for i := range f.Curves {
		c := &f.Curves[i]
		if err := c.Validate(); err != nil {
			return err
		}
		if defined[c.Name] {
			return fmt.Errorf("duplicate curve name '%s'", c.Name)
		}
		if c.DiscountCurve != "" && !defined[c.DiscountCurve] {
			return fmt.Errorf("curve '%s': discount_curve '%s' must be defined before it", c.Name, c.DiscountCurve)
		}
		defined[c.Name] = true

		// Helper ids double as quote keys, so they are unique across the file.
		for _, h := range c.Helpers {
			if owner, ok := ids[h.ID]; ok {
				return fmt.Errorf("duplicate helper id '%s' (curves '%s' and '%s')", h.ID, owner, c.Name)
			}
			ids[h.ID] = c.Name
		}
	}
	return nil
}

// Validate checks a single curve and applies solver defaults.
func (c *CurveSpec) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("curve name is required")
	}
	if _, err := utils.ParseDate(c.ReferenceDate); err != nil {
		return fmt.Errorf("curve '%s': invalid reference_date: %w", c.Name, err)
	}
	if _, err := utils.ParseDayCount(c.DayCount); err != nil {
		return fmt.Errorf("curve '%s': %w", c.Name, err)
	}
	if _, err := calendar.Parse(c.Calendar); err != nil {
		return fmt.Errorf("curve '%s': %w", c.Name, err)
	}
	if !representations[c.Representation] {
		return fmt.Errorf("curve '%s': invalid representation: %s (must be 'discount', 'zero' or 'forward')", c.Name, c.Representation)
	}
	if _, err := interpolation.Parse(c.Interpolation); err != nil {
		return fmt.Errorf("curve '%s': %w", c.Name, err)
	}
	if c.DiscountCurve == c.Name {
		return fmt.Errorf("curve '%s' cannot discount on itself through discount_curve", c.Name)
	}

	solver := c.SolverConfig()
	if err := solver.Validate(); err != nil {
		return fmt.Errorf("curve '%s': solver: %w", c.Name, err)
	}
	c.Solver = &solver

	if len(c.Helpers) == 0 {
		return fmt.Errorf("curve '%s': no helpers defined", c.Name)
	}
	for i := range c.Helpers {
		if err := c.Helpers[i].Validate(); err != nil {
			return fmt.Errorf("curve '%s': %w", c.Name, err)
		}
	}
	return nil
}

// SolverConfig returns the solver overrides merged over DefaultConfig.
func (c *CurveSpec) SolverConfig() Config {
	if c.Solver == nil {
		return DefaultConfig
	}
	return c.Solver.WithDefaults()
}

// Validate checks the fields a helper type needs.
func (h *HelperSpec) Validate() error {
	if h.ID == "" {
		return fmt.Errorf("helper id is required")
	}
	if h.Convention == "" {
		return fmt.Errorf("helper '%s': convention is required", h.ID)
	}
	switch h.Type {
	case HelperDeposit, HelperSwap:
		if _, err := utils.ParsePeriod(h.Tenor); err != nil {
			return fmt.Errorf("helper '%s': %w", h.ID, err)
		}
	case HelperFRA:
		if _, err := utils.ParsePeriod(h.Start); err != nil {
			return fmt.Errorf("helper '%s': start: %w", h.ID, err)
		}
		if _, err := utils.ParsePeriod(h.Tenor); err != nil {
			return fmt.Errorf("helper '%s': %w", h.ID, err)
		}
	case HelperFutures:
		if _, err := utils.ParseDate(h.StartDate); err != nil {
			return fmt.Errorf("helper '%s': invalid start_date: %w", h.ID, err)
		}
		if h.Months == 0 {
			h.Months = 3
		}
		if h.Months < 0 {
			return fmt.Errorf("helper '%s': months must be > 0, got %d", h.ID, h.Months)
		}
	default:
		return fmt.Errorf("helper '%s': invalid type: %s (must be 'deposit', 'fra', 'futures' or 'swap')", h.ID, h.Type)
	}
	return nil
}

// Load reads and validates a curve file from the specified path.
func Load(path string) (*CurveFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read curve file: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a curve file.
func Parse(data []byte) (*CurveFile, error) {
	var file CurveFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if err := file.Validate(); err != nil {
		return nil, fmt.Errorf("invalid curve file: %w", err)
	}
	return &file, nil
}
