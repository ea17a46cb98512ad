// Package pointer turns raw contact input into pointer events.
//
// Producers (device readers, the playground) queue events from any goroutine;
// ProcessQueuedInput delivers them, in order, on the goroutine that owns the
// gesture system.
package pointer

import (
	"log"
	"sync"
	"time"

	"github.com/pleimann/gesture-pad/internal/event"
)

// Source is the subscription side of a pointer event producer.
type Source interface {
	PointerDown() event.Connectable[DownEvent]
	PointerMoved() event.Connectable[MovedEvent]
	PointerUp() event.Connectable[UpEvent]
	PointerScrolled() event.Connectable[ScrolledEvent]
}

// Clock returns the current time in seconds.
type Clock func() float64

type queuedKind int

const (
	queuedCreate queuedKind = iota
	queuedDown
	queuedMove
	queuedUp
	queuedScroll
	queuedRemove
)

type queuedEvent struct {
	kind      queuedKind
	id        ID
	position  Vec2
	delta     Vec2
	inputType InputType
	timestamp float64
}

// System queues pointer input and publishes it as pointer events.
type System struct {
	mu     sync.Mutex
	clock  Clock
	queue  []queuedEvent
	nextID ID

	pointersMu sync.RWMutex
	pointers   []Pointer

	down     event.Event[DownEvent]
	moved    event.Event[MovedEvent]
	up       event.Event[UpEvent]
	scrolled event.Event[ScrolledEvent]
}

// NewSystem creates a pointer system whose timestamps are seconds since
// creation.
func NewSystem() *System {
	start := time.Now()
	return &System{
		clock: func() float64 { return time.Since(start).Seconds() },
	}
}

// SetClock replaces the timestamp source.
func (s *System) SetClock(c Clock) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c != nil {
		s.clock = c
	}
}

// Now returns the current time on the system's clock.
func (s *System) Now() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.clock()
}

func (s *System) PointerDown() event.Connectable[DownEvent]         { return &s.down }
func (s *System) PointerMoved() event.Connectable[MovedEvent]       { return &s.moved }
func (s *System) PointerUp() event.Connectable[UpEvent]             { return &s.up }
func (s *System) PointerScrolled() event.Connectable[ScrolledEvent] { return &s.scrolled }

// AddPointerCreateEvent queues the creation of a pointer at position and
// returns the id it will have.
func (s *System) AddPointerCreateEvent(position Vec2) ID {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++
	s.queue = append(s.queue, queuedEvent{kind: queuedCreate, id: id, position: position})
	return id
}

func (s *System) AddPointerDownEvent(id ID, inputType InputType) {
	s.push(queuedEvent{kind: queuedDown, id: id, inputType: inputType})
}

func (s *System) AddPointerMovedEvent(id ID, position Vec2) {
	s.push(queuedEvent{kind: queuedMove, id: id, position: position})
}

func (s *System) AddPointerUpEvent(id ID, inputType InputType) {
	s.push(queuedEvent{kind: queuedUp, id: id, inputType: inputType})
}

func (s *System) AddPointerScrollEvent(id ID, delta Vec2) {
	s.push(queuedEvent{kind: queuedScroll, id: id, delta: delta})
}

func (s *System) AddPointerRemoveEvent(id ID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queue = append(s.queue, queuedEvent{kind: queuedRemove, id: id})
}

func (s *System) push(ev queuedEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ev.timestamp = s.clock()
	s.queue = append(s.queue, ev)
}

// RemoveAllPointers drops queued input and forgets every pointer.
func (s *System) RemoveAllPointers() {
	s.mu.Lock()
	s.queue = nil
	s.mu.Unlock()

	s.pointersMu.Lock()
	s.pointers = nil
	s.pointersMu.Unlock()
}

// ProcessQueuedInput delivers every queued event. It must be called from the
// goroutine that owns the listeners.
func (s *System) ProcessQueuedInput() {
	s.mu.Lock()
	queue := s.queue
	s.queue = nil
	s.mu.Unlock()

	for _, ev := range queue {
		switch ev.kind {
		case queuedCreate:
			s.create(ev.id, ev.position)
		case queuedDown:
			s.pointerDown(ev)
		case queuedMove:
			s.pointerMoved(ev)
		case queuedUp:
			s.pointerUp(ev)
		case queuedScroll:
			s.pointerScrolled(ev)
		case queuedRemove:
			s.remove(ev.id)
		default:
			panic("pointer: unknown queued event kind")
		}
	}
}

// TryGetPointerWithID returns a copy of the pointer with the given id.
func (s *System) TryGetPointerWithID(id ID) (Pointer, bool) {
	s.pointersMu.RLock()
	defer s.pointersMu.RUnlock()
	for _, p := range s.pointers {
		if p.ID == id {
			return p, true
		}
	}
	return Pointer{}, false
}

// TryGetPointerWithIndex returns a copy of the pointer with the given index.
func (s *System) TryGetPointerWithIndex(index int) (Pointer, bool) {
	s.pointersMu.RLock()
	defer s.pointersMu.RUnlock()
	for _, p := range s.pointers {
		if p.Index == index {
			return p, true
		}
	}
	return Pointer{}, false
}

// ActivePointers returns a copy of all known pointers.
func (s *System) ActivePointers() []Pointer {
	s.pointersMu.RLock()
	defer s.pointersMu.RUnlock()
	out := make([]Pointer, len(s.pointers))
	copy(out, s.pointers)
	return out
}

func (s *System) create(id ID, position Vec2) {
	s.pointersMu.Lock()
	defer s.pointersMu.Unlock()
	s.pointers = append(s.pointers, Pointer{
		ID:               id,
		Index:            s.freeIndex(),
		Position:         position,
		PreviousPosition: position,
	})
}

// freeIndex returns the lowest index no current pointer holds, so indices
// stay unique and dense while pointers come and go. Callers hold
// pointersMu.
func (s *System) freeIndex() int {
	used := make(map[int]bool, len(s.pointers))
	for _, p := range s.pointers {
		used[p.Index] = true
	}
	i := 0
	for used[i] {
		i++
	}
	return i
}

// update applies fn to the pointer with id and returns the resulting copy.
func (s *System) update(id ID, fn func(p *Pointer)) (Pointer, bool) {
	s.pointersMu.Lock()
	defer s.pointersMu.Unlock()
	for i := range s.pointers {
		if s.pointers[i].ID == id {
			fn(&s.pointers[i])
			return s.pointers[i], true
		}
	}
	return Pointer{}, false
}

func (s *System) pointerDown(ev queuedEvent) {
	p, ok := s.update(ev.id, func(p *Pointer) {
		p.ActiveInput = p.ActiveInput.With(ev.inputType)
	})
	if !ok {
		log.Printf("pointer: down event for unknown pointer %d", ev.id)
		return
	}
	s.down.Notify(DownEvent{Pointer: p, Timestamp: ev.timestamp, InputType: ev.inputType, Filter: &Filter{}})
}

func (s *System) pointerMoved(ev queuedEvent) {
	p, ok := s.update(ev.id, func(p *Pointer) {
		p.PreviousPosition = p.Position
		p.Position = ev.position
	})
	if !ok {
		log.Printf("pointer: moved event for unknown pointer %d", ev.id)
		return
	}
	s.moved.Notify(MovedEvent{Pointer: p, Timestamp: ev.timestamp, Filter: &Filter{}})
}

func (s *System) pointerUp(ev queuedEvent) {
	p, ok := s.update(ev.id, func(p *Pointer) {
		p.ActiveInput = p.ActiveInput.Without(ev.inputType)
	})
	if !ok {
		log.Printf("pointer: up event for unknown pointer %d", ev.id)
		return
	}
	s.up.Notify(UpEvent{Pointer: p, Timestamp: ev.timestamp, InputType: ev.inputType, Filter: &Filter{}})
}

func (s *System) pointerScrolled(ev queuedEvent) {
	p, ok := s.TryGetPointerWithID(ev.id)
	if !ok {
		log.Printf("pointer: scroll event for unknown pointer %d", ev.id)
		return
	}
	s.scrolled.Notify(ScrolledEvent{Pointer: p, Timestamp: ev.timestamp, Delta: ev.delta, Filter: &Filter{}})
}

func (s *System) remove(id ID) {
	s.pointersMu.Lock()
	defer s.pointersMu.Unlock()
	for i, p := range s.pointers {
		if p.ID == id {
			s.pointers = append(s.pointers[:i], s.pointers[i+1:]...)
			return
		}
	}
	log.Printf("pointer: remove event for unknown pointer %d", id)
}
