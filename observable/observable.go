// Package observable implements synchronous change notification.
//
// A Subject keeps an ordered list of Observers. NotifyObservers walks the
// dependency graph breadth-first: every observer is updated at most once per
// notification, and observers that are themselves subjects forward the
// notification to their own observers when Update reports they changed state.
// The visited set makes an accidental registration cycle terminate instead of
// looping; correctness never depends on the visiting order.
//
// Observers are used as map keys during fan-out and must be comparable,
// which in practice means pointer types.
package observable

import (
	"github.com/google/uuid"
)

// Observer is notified when an Observable it is registered with changes.
//
// Update reports whether the observer's own dependents must be notified.
type Observer interface {
	Update() bool
}

// Observable is anything observers can register with.
type Observable interface {
	Register(o Observer)
	Unregister(o Observer) bool
}

// forwarder is an observer that is also a subject.
type forwarder interface {
	Observer
	Observers() []Observer
}

// Subject is embeddable bookkeeping for an Observable. The zero value is ready to use.
type Subject struct {
	observers []Observer
}

// Register adds o unless it is already registered.
func (s *Subject) Register(o Observer) {
	if o == nil {
		return
	}
	for _, existing := range s.observers {
		if existing == o {
			return
		}
	}
	s.observers = append(s.observers, o)
}

// Unregister removes o and reports whether it was registered.
func (s *Subject) Unregister(o Observer) bool {
	for i, existing := range s.observers {
		if existing == o {
			s.observers = append(s.observers[:i:i], s.observers[i+1:]...)
			return true
		}
	}
	return false
}

// Observers returns a copy of the registered observers in registration order.
func (s *Subject) Observers() []Observer {
	out := make([]Observer, len(s.observers))
	copy(out, s.observers)
	return out
}

// Subscribe registers a callback and returns a handle that can cancel it.
func (s *Subject) Subscribe(fn func()) *Subscription {
	sub := &Subscription{ID: uuid.New(), fn: fn, subject: s}
	s.Register(sub)
	return sub
}

// NotifyObservers synchronously updates every direct and transitive observer.
func (s *Subject) NotifyObservers() {
	Notify(s.Observers()...)
}

// Notify runs a breadth-first update starting from the given observers.
func Notify(start ...Observer) {
	queue := append([]Observer(nil), start...)
	visited := make(map[Observer]struct{}, len(queue))
	for len(queue) > 0 {
		o := queue[0]
		queue = queue[1:]
		if _, seen := visited[o]; seen {
			continue
		}
		visited[o] = struct{}{}
		if !o.Update() {
			continue
		}
		if f, ok := o.(forwarder); ok {
			queue = append(queue, f.Observers()...)
		}
	}
}

// Subscription is a callback registered through Subject.Subscribe.
type Subscription struct {
	ID      uuid.UUID
	fn      func()
	subject *Subject
}

// Update invokes the callback. Callbacks are leaves and never forward.
func (s *Subscription) Update() bool {
	if s.fn != nil {
		s.fn()
	}
	return false
}

// Cancel unregisters the callback; it is safe to call more than once.
func (s *Subscription) Cancel() {
	if s.subject != nil {
		s.subject.Unregister(s)
		s.subject = nil
	}
}
