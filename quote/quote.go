// Package quote holds observable market quotes.
package quote

import (
	"errors"
	"fmt"
	"math"

	"github.com/meenmo/ratecurve/observable"
)

// ErrInvalid is returned when reading a quote that holds no value.
var ErrInvalid = errors.New("quote: invalid value")

// Quote is an observable scalar market value.
type Quote interface {
	observable.Observable
	Value() (float64, error)
	IsValid() bool
}

// SimpleQuote is a settable quote. Setting a different value notifies observers.
type SimpleQuote struct {
	observable.Subject
	value float64
	valid bool
}

// NewSimpleQuote returns a valid quote holding v.
func NewSimpleQuote(v float64) *SimpleQuote {
	return &SimpleQuote{value: v, valid: !math.IsNaN(v)}
}

// Value returns the quote or ErrInvalid when it has been reset.
func (q *SimpleQuote) Value() (float64, error) {
	if !q.valid {
		return 0, ErrInvalid
	}
	return q.value, nil
}

// IsValid reports whether the quote holds a value.
func (q *SimpleQuote) IsValid() bool {
	return q.valid
}

// SetValue stores v and reports the difference to the previous value.
// Observers are notified only when the value actually changes.
func (q *SimpleQuote) SetValue(v float64) float64 {
	diff := v - q.value
	if q.valid && diff == 0 {
		return 0
	}
	q.value = v
	q.valid = !math.IsNaN(v)
	q.NotifyObservers()
	return diff
}

// Reset invalidates the quote.
func (q *SimpleQuote) Reset() {
	if !q.valid {
		return
	}
	q.valid = false
	q.NotifyObservers()
}

func (q *SimpleQuote) String() string {
	if !q.valid {
		return "<invalid>"
	}
	return fmt.Sprintf("%g", q.value)
}

// DerivedQuote applies a function to an underlying quote and forwards its notifications.
type DerivedQuote struct {
	observable.Subject
	underlying Quote
	fn         func(float64) float64
}

// NewDerivedQuote returns a quote whose value is fn(underlying).
func NewDerivedQuote(underlying Quote, fn func(float64) float64) *DerivedQuote {
	d := &DerivedQuote{underlying: underlying, fn: fn}
	underlying.Register(d)
	return d
}

// Value returns fn applied to the underlying value.
func (d *DerivedQuote) Value() (float64, error) {
	v, err := d.underlying.Value()
	if err != nil {
		return 0, err
	}
	return d.fn(v), nil
}

// IsValid reports whether the underlying quote is valid.
func (d *DerivedQuote) IsValid() bool {
	return d.underlying.IsValid()
}

// Update forwards every change of the underlying quote.
func (d *DerivedQuote) Update() bool {
	return true
}

// PercentToDecimal converts a quote expressed in percent.
func PercentToDecimal(v float64) float64 {
	return v / 100
}
