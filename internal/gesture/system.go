package gesture

import (
	"sync"

	"github.com/pleimann/gesture-pad/internal/event"
	"github.com/pleimann/gesture-pad/internal/pointer"
)

type entry struct {
	gesture        Gesture
	pendingRemoval bool
}

// System owns the set of registered gestures, relays pointer events to them
// in registration order and resolves activation conflicts.
//
// Adds and removes requested while a dispatch pass is running (a relay or a
// CanActivate call, possibly nested) are deferred until the outermost pass
// ends. The mutex guards the collections only and is never held while a
// gesture or the conflict delegate is being called, so those callbacks may
// call back into the System. This stands in for a recursive lock held for
// the whole of each public call.
type System struct {
	mu       sync.Mutex
	entries  []*entry
	pending  []Gesture
	depth    int
	resolver ConflictResolver
	conns    []*event.Connection
}

// NewSystem creates an empty gesture system with no conflict delegate.
func NewSystem() *System {
	return &System{}
}

// Attach subscribes the system to a pointer source. Teardown via Close
// closes the subscriptions.
func (s *System) Attach(src pointer.Source) {
	conns := []*event.Connection{
		src.PointerDown().Connect(func(ev pointer.DownEvent) {
			if !ev.Filter.IsFiltered() {
				s.OnPointerDown(ev.Pointer, ev.Timestamp, ev.InputType)
			}
		}),
		src.PointerMoved().Connect(func(ev pointer.MovedEvent) {
			s.OnPointerMoved(ev.Pointer, ev.Timestamp)
		}),
		src.PointerUp().Connect(func(ev pointer.UpEvent) {
			s.OnPointerUp(ev.Pointer, ev.Timestamp, ev.InputType)
		}),
		src.PointerScrolled().Connect(func(ev pointer.ScrolledEvent) {
			if !ev.Filter.IsFiltered() {
				s.OnPointerScrolled(ev.Pointer, ev.Timestamp, ev.Delta)
			}
		}),
	}

	s.mu.Lock()
	s.conns = append(s.conns, conns...)
	s.mu.Unlock()
}

// AddGesture registers g. Adding a gesture that is already registered or
// already waiting to be added panics.
func (s *System) AddGesture(g Gesture) {
	s.mu.Lock()
	if s.indexOf(g) >= 0 || s.pendingIndexOf(g) >= 0 {
		s.mu.Unlock()
		panic("gesture: cannot add a gesture that has already been added to the gesture system")
	}
	if s.depth > 0 {
		s.pending = append(s.pending, g)
		s.mu.Unlock()
		return
	}
	s.entries = append(s.entries, &entry{gesture: g})
	s.mu.Unlock()

	g.setGestureSystem(s)
}

// RemoveGesture unregisters g. Removing a gesture that is not registered
// panics. During a dispatch pass the gesture is skipped for the rest of the
// pass and removed when the pass ends. A gesture that is still active when
// it leaves the system is cancelled.
func (s *System) RemoveGesture(g Gesture) {
	s.mu.Lock()
	if i := s.pendingIndexOf(g); i >= 0 {
		s.pending = append(s.pending[:i], s.pending[i+1:]...)
		s.mu.Unlock()
		return
	}
	i := s.indexOf(g)
	if i < 0 {
		s.mu.Unlock()
		panic("gesture: cannot remove a gesture that hasn't been added to the gesture system")
	}
	if s.depth > 0 {
		s.entries[i].pendingRemoval = true
		s.mu.Unlock()
		return
	}
	s.entries = append(s.entries[:i], s.entries[i+1:]...)
	s.mu.Unlock()

	detach(g)
}

// SetConflictResolutionDelegate replaces the conflict policy. A nil
// delegate lets every gesture activate and never cancels others.
func (s *System) SetConflictResolutionDelegate(resolver ConflictResolver) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resolver = resolver
}

// Gestures returns the registered gestures in registration order, excluding
// pending additions and gestures flagged for removal.
func (s *System) Gestures() []Gesture {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Gesture, 0, len(s.entries))
	for _, e := range s.entries {
		if !e.pendingRemoval {
			out = append(out, e.gesture)
		}
	}
	return out
}

// CanActivate is called by candidate when it wants to become active. Every
// other active gesture is arbitrated against it with the conflict delegate;
// gestures the outcome says to cancel are cancelled before this returns.
// It reports false if any outcome refused the candidate.
//
// A candidate that is not registered, or is flagged for removal, is always
// refused.
func (s *System) CanActivate(candidate Gesture) bool {
	s.mu.Lock()
	live := s.indexOf(candidate) >= 0
	s.mu.Unlock()
	if !live {
		return false
	}

	snapshot := s.beginPass()
	defer s.endPass()

	s.mu.Lock()
	resolver := s.resolver
	s.mu.Unlock()

	if resolver == nil {
		return true
	}

	canActivate := true
	for _, e := range snapshot {
		if e.gesture == candidate || s.isPendingRemoval(e) || !e.gesture.IsActive() {
			continue
		}
		result := resolver(e.gesture, candidate)
		if result.CancelsExisting() {
			e.gesture.Cancel()
		}
		if !result.AllowsNew() {
			canActivate = false
		}
	}
	return canActivate
}

// OnUpdate relays the per-frame update to every gesture.
func (s *System) OnUpdate(dt float32) {
	s.relay(func(g Gesture) { g.OnUpdate(dt) })
}

func (s *System) OnPointerDown(p pointer.Pointer, timestamp float64, inputType pointer.InputType) {
	s.relay(func(g Gesture) { g.OnPointerDown(p, timestamp, inputType) })
}

func (s *System) OnPointerMoved(p pointer.Pointer, timestamp float64) {
	s.relay(func(g Gesture) { g.OnPointerMoved(p, timestamp) })
}

func (s *System) OnPointerUp(p pointer.Pointer, timestamp float64, inputType pointer.InputType) {
	s.relay(func(g Gesture) { g.OnPointerUp(p, timestamp, inputType) })
}

func (s *System) OnPointerScrolled(p pointer.Pointer, timestamp float64, delta pointer.Vec2) {
	s.relay(func(g Gesture) { g.OnPointerScrolled(p, timestamp, delta) })
}

// Close tears the system down: it drops its pointer subscriptions and the
// conflict delegate, cancels gestures that are still active and clears every
// back-reference. The gestures themselves are left to their owner.
//
// Close may be called from inside a dispatch pass. The outer pass then skips
// every gesture that was registered and drops additions that were pending.
func (s *System) Close() {
	s.mu.Lock()
	conns := s.conns
	s.conns = nil
	s.resolver = nil
	s.mu.Unlock()

	for _, c := range conns {
		c.Close()
	}

	// Cancellation listeners may add or remove gestures; run them as a
	// pass so those requests are deferred and applied first.
	for _, e := range s.beginPass() {
		if !s.isPendingRemoval(e) && e.gesture.IsActive() {
			e.gesture.Cancel()
		}
	}
	s.endPass()

	s.mu.Lock()
	entries := s.entries
	for _, e := range entries {
		// An enclosing pass may still hold these entries in its snapshot.
		e.pendingRemoval = true
	}
	s.entries = nil
	s.pending = nil
	s.mu.Unlock()

	for _, e := range entries {
		detach(e.gesture)
	}
}

func (s *System) relay(fn func(g Gesture)) {
	snapshot := s.beginPass()
	defer s.endPass()

	for _, e := range snapshot {
		if s.isPendingRemoval(e) {
			continue
		}
		fn(e.gesture)
	}
}

// beginPass marks a dispatch pass as running and returns the entries to
// iterate. New entries are never appended to the returned slice.
func (s *System) beginPass() []*entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.depth++
	snapshot := make([]*entry, len(s.entries))
	copy(snapshot, s.entries)
	return snapshot
}

// endPass closes a dispatch pass. When the outermost pass ends, flagged
// entries are removed and pending additions are registered.
func (s *System) endPass() {
	s.mu.Lock()
	s.depth--
	if s.depth > 0 {
		s.mu.Unlock()
		return
	}

	var removed []Gesture
	kept := s.entries[:0]
	for _, e := range s.entries {
		if e.pendingRemoval {
			removed = append(removed, e.gesture)
			continue
		}
		kept = append(kept, e)
	}
	for i := len(kept); i < len(s.entries); i++ {
		s.entries[i] = nil
	}
	s.entries = kept

	added := s.pending
	s.pending = nil
	for _, g := range added {
		s.entries = append(s.entries, &entry{gesture: g})
	}
	s.mu.Unlock()

	for _, g := range removed {
		detach(g)
	}
	for _, g := range added {
		g.setGestureSystem(s)
	}
}

func (s *System) isPendingRemoval(e *entry) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return e.pendingRemoval
}

// indexOf finds g among the registered entries that are not flagged for
// removal. Callers hold s.mu.
func (s *System) indexOf(g Gesture) int {
	for i, e := range s.entries {
		if e.gesture == g && !e.pendingRemoval {
			return i
		}
	}
	return -1
}

// pendingIndexOf finds g among the pending additions. Callers hold s.mu.
func (s *System) pendingIndexOf(g Gesture) int {
	for i, p := range s.pending {
		if p == g {
			return i
		}
	}
	return -1
}

func detach(g Gesture) {
	if g.IsActive() {
		g.Cancel()
	}
	g.setGestureSystem(nil)
}
