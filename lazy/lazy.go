// Package lazy provides a lazily recalculated object.
//
// An Object wraps a perform step that derives state from observed inputs. The
// step runs on the first Calculate after construction or invalidation; reads
// while the object is Calculated are free. Invalidation signals arriving
// through Update move a Calculated object back to Uncalculated and are
// forwarded to its own observers, so staleness cascades through the graph
// without recomputing anything eagerly.
package lazy

import (
	"github.com/meenmo/ratecurve/observable"
)

// State is the calculation state of an Object.
type State int

const (
	Uncalculated State = iota
	Calculating
	Calculated
)

func (s State) String() string {
	switch s {
	case Uncalculated:
		return "uncalculated"
	case Calculating:
		return "calculating"
	case Calculated:
		return "calculated"
	default:
		return "unknown"
	}
}

// Object is embeddable lazy-recalculation bookkeeping. Use New to construct one.
type Object struct {
	observable.Subject

	perform       func() error
	state         State
	frozen        bool
	alwaysForward bool
	// pending records an invalidation received while Calculating.
	pending      bool
	calculations int
}

// New returns an Uncalculated object whose recompute step is perform.
func New(perform func() error) *Object {
	return &Object{perform: perform}
}

// State returns the current calculation state.
func (o *Object) State() State {
	return o.state
}

// Calculations returns how many times perform completed successfully.
func (o *Object) Calculations() int {
	return o.calculations
}

// Frozen reports whether recalculation is suppressed.
func (o *Object) Frozen() bool {
	return o.frozen
}

// SetAlwaysForward makes Update forward notifications even when the object is
// already Uncalculated.
func (o *Object) SetAlwaysForward(v bool) {
	o.alwaysForward = v
}

// Calculate runs perform if the object is Uncalculated and not frozen.
//
// A call made while Calculating returns immediately; this lets perform read
// the object's own partially built state. On error the object stays
// Uncalculated and the next call retries from scratch.
func (o *Object) Calculate() error {
	if o.state != Uncalculated || o.frozen {
		return nil
	}
	o.state = Calculating
	o.pending = false
	if err := o.perform(); err != nil {
		o.state = Uncalculated
		o.pending = false
		return err
	}
	o.calculations++
	if o.pending {
		o.pending = false
		o.state = Uncalculated
		o.NotifyObservers()
		return nil
	}
	o.state = Calculated
	return nil
}

// Update implements observable.Observer.
func (o *Object) Update() bool {
	switch o.state {
	case Calculating:
		o.pending = true
		return false
	case Calculated:
		o.state = Uncalculated
		return !o.frozen
	default:
		return o.alwaysForward && !o.frozen
	}
}

// Invalidate marks the object stale and notifies its observers.
func (o *Object) Invalidate() {
	if o.state == Calculating {
		o.pending = true
		return
	}
	o.state = Uncalculated
	if !o.frozen {
		o.NotifyObservers()
	}
}

// Recalculate forces perform to run, even when frozen, and notifies observers
// whatever the outcome.
func (o *Object) Recalculate() error {
	wasFrozen := o.frozen
	o.frozen = false
	o.state = Uncalculated
	err := o.Calculate()
	o.frozen = wasFrozen
	o.NotifyObservers()
	return err
}

// Freeze suppresses recalculation until Unfreeze.
func (o *Object) Freeze() {
	o.frozen = true
}

// Unfreeze re-enables recalculation and notifies observers of any change that
// arrived while frozen.
func (o *Object) Unfreeze() {
	if !o.frozen {
		return
	}
	o.frozen = false
	o.NotifyObservers()
}
