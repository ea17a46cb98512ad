package gesture

import (
	"github.com/pleimann/gesture-pad/internal/pointer"
)

// minDragDisplacement is how far, in density independent units, a pointer
// has to travel from where it went down before it counts as a drag.
const minDragDisplacement float32 = 20

type trackedPointer struct {
	id           pointer.ID
	initial      pointer.Vec2
	current      pointer.Vec2
	isDrag       bool
	contributing bool
}

// pointerTracker keeps the pointer records of a multi-pointer gesture and
// decides which of them contribute to it.
type pointerTracker struct {
	required               int
	minDisplacementSquared float32
	pointers               []trackedPointer
}

func newPointerTracker(required int, densityScale float32) pointerTracker {
	d := minDragDisplacement * densityScale
	return pointerTracker{
		required:               required,
		minDisplacementSquared: d * d,
		pointers:               make([]trackedPointer, 0, required),
	}
}

// add starts tracking p unless it is already tracked.
func (t *pointerTracker) add(p pointer.Pointer) {
	if t.find(p.ID) >= 0 {
		return
	}
	t.pointers = append(t.pointers, trackedPointer{
		id:      p.ID,
		initial: p.Position,
		current: p.Position,
	})
}

// move updates the tracked position of p. It reports whether p is tracked
// and whether it contributes to the gesture.
func (t *pointerTracker) move(p pointer.Pointer) (tracked, contributing bool) {
	i := t.find(p.ID)
	if i < 0 {
		return false, false
	}
	tp := &t.pointers[i]
	tp.current = p.Position
	if tp.current.Sub(tp.initial).LengthSquared() > t.minDisplacementSquared {
		tp.isDrag = true
	}
	return true, tp.contributing
}

// remove stops tracking id. It reports whether id was tracked and whether
// it was contributing.
func (t *pointerTracker) remove(id pointer.ID) (found, wasContributing bool) {
	i := t.find(id)
	if i < 0 {
		return false, false
	}
	wasContributing = t.pointers[i].contributing
	t.pointers = append(t.pointers[:i], t.pointers[i+1:]...)
	return true, wasContributing
}

func (t *pointerTracker) empty() bool {
	return len(t.pointers) == 0
}

func (t *pointerTracker) dragCount() int {
	n := 0
	for _, p := range t.pointers {
		if p.isDrag {
			n++
		}
	}
	return n
}

func (t *pointerTracker) contributingCount() int {
	n := 0
	for _, p := range t.pointers {
		if p.contributing {
			n++
		}
	}
	return n
}

// ready reports whether enough pointers are dragging to (re)start the
// gesture. It panics if the gesture is already fully covered.
func (t *pointerTracker) ready() bool {
	if t.contributingCount() >= t.required {
		panic("gesture: already started, contributing pointer count is at the required amount")
	}
	return t.dragCount() >= t.required
}

// promote marks dragging pointers as contributing, in tracking order, until
// the required count is reached.
func (t *pointerTracker) promote() {
	n := t.contributingCount()
	for i := range t.pointers {
		if n >= t.required {
			return
		}
		if t.pointers[i].isDrag && !t.pointers[i].contributing {
			t.pointers[i].contributing = true
			n++
		}
	}
}

// release clears every contributing flag.
func (t *pointerTracker) release() {
	for i := range t.pointers {
		t.pointers[i].contributing = false
	}
}

// positions returns the current positions of the contributing pointers in
// tracking order. Anything but exactly the required count is a logic error.
func (t *pointerTracker) positions() []pointer.Vec2 {
	out := make([]pointer.Vec2, 0, t.required)
	for _, p := range t.pointers {
		if p.contributing {
			out = append(out, p.current)
		}
	}
	if len(out) != t.required {
		panic("gesture: contributing pointer count does not match the required count")
	}
	return out
}

// centre is the mean position of the contributing pointers.
func (t *pointerTracker) centre() pointer.Vec2 {
	var sum pointer.Vec2
	for _, p := range t.positions() {
		sum = sum.Add(p)
	}
	return sum.DivScalar(float32(t.required))
}

func (t *pointerTracker) find(id pointer.ID) int {
	for i, p := range t.pointers {
		if p.id == id {
			return i
		}
	}
	return -1
}
