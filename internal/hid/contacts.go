package hid

import (
	"sort"

	"github.com/pleimann/gesture-pad/internal/pointer"
)

// PointerQueue is the queueing side of a pointer.System.
type PointerQueue interface {
	AddPointerCreateEvent(position pointer.Vec2) pointer.ID
	AddPointerDownEvent(id pointer.ID, inputType pointer.InputType)
	AddPointerMovedEvent(id pointer.ID, position pointer.Vec2)
	AddPointerUpEvent(id pointer.ID, inputType pointer.InputType)
	AddPointerRemoveEvent(id pointer.ID)
}

type activeContact struct {
	pointer  pointer.ID
	position pointer.Vec2
}

// ContactTracker turns successive contact frames into pointer events.
//
// Surfaces reuse contact ids once a finger lifts, so each touch gets a
// fresh pointer: a contact that appears creates a pointer and presses it,
// one that moves queues a move, and one that lifts or disappears from the
// frame releases and removes its pointer.
type ContactTracker struct {
	queue  PointerQueue
	active map[uint8]activeContact
}

func NewContactTracker(queue PointerQueue) *ContactTracker {
	return &ContactTracker{
		queue:  queue,
		active: make(map[uint8]activeContact),
	}
}

// Apply queues the pointer events that take the tracked state to frame.
func (t *ContactTracker) Apply(frame *TouchFrame) {
	seen := make(map[uint8]bool, len(frame.Contacts))

	for _, c := range frame.Contacts {
		if !c.Tip {
			continue
		}
		seen[c.ID] = true
		pos := pointer.V2(float32(c.X), float32(c.Y))

		ac, ok := t.active[c.ID]
		if !ok {
			id := t.queue.AddPointerCreateEvent(pos)
			t.queue.AddPointerDownEvent(id, pointer.InputTouch)
			t.active[c.ID] = activeContact{pointer: id, position: pos}
			continue
		}
		if ac.position != pos {
			t.queue.AddPointerMovedEvent(ac.pointer, pos)
			ac.position = pos
			t.active[c.ID] = ac
		}
	}

	var lifted []uint8
	for cid := range t.active {
		if !seen[cid] {
			lifted = append(lifted, cid)
		}
	}
	sort.Slice(lifted, func(i, j int) bool { return lifted[i] < lifted[j] })
	for _, cid := range lifted {
		t.release(cid)
	}
}

// Reset releases every active contact, e.g. after the device disconnects.
func (t *ContactTracker) Reset() {
	ids := make([]uint8, 0, len(t.active))
	for cid := range t.active {
		ids = append(ids, cid)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, cid := range ids {
		t.release(cid)
	}
}

// Active returns the number of contacts currently down.
func (t *ContactTracker) Active() int {
	return len(t.active)
}

func (t *ContactTracker) release(cid uint8) {
	ac := t.active[cid]
	t.queue.AddPointerUpEvent(ac.pointer, pointer.InputTouch)
	t.queue.AddPointerRemoveEvent(ac.pointer)
	delete(t.active, cid)
}
