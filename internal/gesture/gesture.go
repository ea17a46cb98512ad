// Package gesture recognizes higher level interactions from pointer events.
//
// A System relays pointer events to the gestures registered with it and
// arbitrates between gestures that want to be active at the same time.
// Everything in this package is meant to be driven from a single goroutine;
// the System tolerates re-entrant calls made from inside the callbacks it
// invokes, not concurrent use.
package gesture

import (
	"github.com/pleimann/gesture-pad/internal/pointer"
)

// Gesture is a recognizer registered with a System. Implementations embed
// Base, which provides the activation state and the registry back-reference.
type Gesture interface {
	Kind() Kind

	// IsActive reports whether the gesture is currently in progress.
	IsActive() bool
	// Cancel ends an active gesture and notifies its ended listeners.
	// Calling it on an inactive gesture panics.
	Cancel()

	OnUpdate(dt float32)
	OnPointerDown(p pointer.Pointer, timestamp float64, inputType pointer.InputType)
	OnPointerMoved(p pointer.Pointer, timestamp float64)
	OnPointerUp(p pointer.Pointer, timestamp float64, inputType pointer.InputType)
	OnPointerScrolled(p pointer.Pointer, timestamp float64, delta pointer.Vec2)

	setGestureSystem(s *System)
}

// Base carries the state every gesture shares. Its zero value is an
// inactive, unregistered gesture.
type Base struct {
	active bool
	system *System
}

func (b *Base) IsActive() bool {
	return b.active
}

// SetActive sets the active flag. Gestures must only activate after
// ResolveConflicts has returned true.
func (b *Base) SetActive(active bool) {
	b.active = active
}

// GestureSystem returns the system the gesture is registered with, or nil.
func (b *Base) GestureSystem() *System {
	return b.system
}

// ResolveConflicts asks the owning system whether self may activate. An
// unregistered gesture may never activate.
func (b *Base) ResolveConflicts(self Gesture) bool {
	if b.system == nil {
		return false
	}
	// The delegate may have unregistered self while arbitrating.
	return b.system.CanActivate(self) && b.system != nil
}

func (b *Base) OnUpdate(dt float32) {}

func (b *Base) OnPointerScrolled(p pointer.Pointer, timestamp float64, delta pointer.Vec2) {}

func (b *Base) setGestureSystem(s *System) {
	b.system = s
}
