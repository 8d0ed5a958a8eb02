package observable

// Handle is a relinkable cell pointing at an observable target.
//
// Observers register with the handle rather than with the target, so the
// target can be swapped later without re-wiring them. The handle observes its
// current target and forwards every notification.
type Handle[T Observable] struct {
	Subject
	target T
	linked bool
}

// NewHandle returns a handle linked to target.
func NewHandle[T Observable](target T) *Handle[T] {
	h := &Handle[T]{}
	h.LinkTo(target)
	return h
}

// LinkTo moves the handle to target and notifies its observers.
func (h *Handle[T]) LinkTo(target T) {
	if h.linked {
		h.target.Unregister(h)
	}
	h.target = target
	h.linked = true
	target.Register(h)
	h.NotifyObservers()
}

// Unlink empties the handle and notifies its observers.
func (h *Handle[T]) Unlink() {
	if !h.linked {
		return
	}
	h.target.Unregister(h)
	var zero T
	h.target = zero
	h.linked = false
	h.NotifyObservers()
}

// Current returns the linked target.
func (h *Handle[T]) Current() (T, bool) {
	return h.target, h.linked
}

// Empty reports whether the handle has no target.
func (h *Handle[T]) Empty() bool {
	return !h.linked
}

// Update forwards every change of the target.
func (h *Handle[T]) Update() bool {
	return true
}
