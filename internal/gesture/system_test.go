package gesture

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pleimann/gesture-pad/internal/pointer"
)

// fakeGesture records the calls it receives into a shared log.
type fakeGesture struct {
	Base
	name   string
	log    *[]string
	onDown func()
	ended  int
}

func newFake(name string, log *[]string) *fakeGesture {
	return &fakeGesture{name: name, log: log}
}

func (g *fakeGesture) Kind() Kind { return KindUnknown }

func (g *fakeGesture) Cancel() {
	if !g.IsActive() {
		panic("fake gesture cancelled while inactive")
	}
	g.SetActive(false)
	g.ended++
	*g.log = append(*g.log, g.name+":ended")
}

func (g *fakeGesture) OnPointerDown(p pointer.Pointer, timestamp float64, inputType pointer.InputType) {
	*g.log = append(*g.log, g.name+":down")
	if g.onDown != nil {
		g.onDown()
	}
}

func (g *fakeGesture) OnPointerMoved(p pointer.Pointer, timestamp float64) {
	*g.log = append(*g.log, g.name+":moved")
}

func (g *fakeGesture) OnPointerUp(p pointer.Pointer, timestamp float64, inputType pointer.InputType) {
	*g.log = append(*g.log, g.name+":up")
}

func (g *fakeGesture) activate() bool {
	if !g.ResolveConflicts(g) {
		return false
	}
	g.SetActive(true)
	return true
}

func down(s *System) {
	s.OnPointerDown(pointer.Pointer{ID: 1}, 0, pointer.InputTouch)
}

func TestAddRemoveOutsideDispatch(t *testing.T) {
	var log []string
	s := NewSystem()
	a, b, c := newFake("a", &log), newFake("b", &log), newFake("c", &log)

	s.AddGesture(a)
	s.AddGesture(b)
	s.AddGesture(c)
	s.RemoveGesture(b)

	assert.Equal(t, []Gesture{a, c}, s.Gestures())
	assert.Same(t, s, a.GestureSystem())
	assert.Nil(t, b.GestureSystem())

	down(s)
	assert.Equal(t, []string{"a:down", "c:down"}, log)
}

func TestAddRemoveRoundTrip(t *testing.T) {
	var log []string
	s := NewSystem()
	g := newFake("g", &log)

	s.AddGesture(g)
	s.RemoveGesture(g)

	assert.Empty(t, s.Gestures())
	assert.Nil(t, g.GestureSystem())

	// The system is still usable and the gesture can come back.
	s.AddGesture(g)
	assert.Equal(t, []Gesture{g}, s.Gestures())
}

func TestAddDuringDispatchIsDeferred(t *testing.T) {
	var log []string
	s := NewSystem()
	a := newFake("a", &log)
	late := newFake("late", &log)

	a.onDown = func() {
		if late.GestureSystem() == nil && len(s.Gestures()) == 1 {
			s.AddGesture(late)
		}
	}
	s.AddGesture(a)

	down(s)
	assert.Equal(t, []string{"a:down"}, log, "late gesture must not see the pass it was added in")
	assert.Same(t, s, late.GestureSystem())

	log = nil
	down(s)
	assert.Equal(t, []string{"a:down", "late:down"}, log)
}

func TestRemoveDuringDispatchIsDeferred(t *testing.T) {
	var log []string
	s := NewSystem()
	a, b := newFake("a", &log), newFake("b", &log)

	a.onDown = func() {
		s.RemoveGesture(b)
		// Still physically present until the pass ends.
		assert.Same(t, s, b.GestureSystem())
	}
	s.AddGesture(a)
	s.AddGesture(b)

	down(s)
	assert.Equal(t, []string{"a:down"}, log)
	assert.Nil(t, b.GestureSystem())
	assert.Equal(t, []Gesture{a}, s.Gestures())
}

func TestRemoveSelfDuringDispatchCancelsActive(t *testing.T) {
	var log []string
	s := NewSystem()
	a := newFake("a", &log)
	s.AddGesture(a)
	require.True(t, a.activate())

	a.onDown = func() { s.RemoveGesture(a) }
	down(s)

	assert.False(t, a.IsActive())
	assert.Equal(t, 1, a.ended)
	assert.Nil(t, a.GestureSystem())
}

func TestRemovedGestureCannotActivateInSamePass(t *testing.T) {
	var log []string
	s := NewSystem()
	g := newFake("g", &log)
	s.AddGesture(g)

	activated := true
	g.onDown = func() {
		s.RemoveGesture(g)
		activated = g.activate()
	}
	down(s)

	assert.False(t, activated)
	assert.False(t, g.IsActive())
	assert.Equal(t, 0, g.ended)
	assert.Equal(t, []string{"g:down"}, log)
	assert.Nil(t, g.GestureSystem())
	assert.False(t, s.CanActivate(g))
}

func TestRemovePendingAddDuringDispatch(t *testing.T) {
	var log []string
	s := NewSystem()
	a, late := newFake("a", &log), newFake("late", &log)

	a.onDown = func() {
		s.AddGesture(late)
		s.RemoveGesture(late)
	}
	s.AddGesture(a)

	down(s)
	a.onDown = nil
	down(s)

	assert.Equal(t, []string{"a:down", "a:down"}, log)
	assert.Nil(t, late.GestureSystem())
	assert.Equal(t, []Gesture{a}, s.Gestures())
}

func TestRemoveThenReAddDuringDispatch(t *testing.T) {
	var log []string
	s := NewSystem()
	a, b := newFake("a", &log), newFake("b", &log)

	a.onDown = func() {
		s.RemoveGesture(b)
		s.AddGesture(b)
	}
	s.AddGesture(a)
	s.AddGesture(b)

	down(s)
	assert.Equal(t, []string{"a:down"}, log)
	assert.Same(t, s, b.GestureSystem())
	assert.Equal(t, []Gesture{a, b}, s.Gestures())
}

func TestProgrammingErrorsPanic(t *testing.T) {
	var log []string
	s := NewSystem()
	g := newFake("g", &log)

	assert.Panics(t, func() { s.RemoveGesture(g) }, "remove of unregistered gesture")

	s.AddGesture(g)
	assert.Panics(t, func() { s.AddGesture(g) }, "double add")

	other := newFake("other", &log)
	g.onDown = func() {
		s.AddGesture(other)
		assert.Panics(t, func() { s.AddGesture(other) }, "double add while pending")
	}
	down(s)
}

func TestCanActivateOutcomes(t *testing.T) {
	tests := []struct {
		name           string
		result         ConflictResult
		wantActivate   bool
		wantExisting   bool
		wantEndedCalls int
	}{
		{"existing wins", ExistingGesture, false, true, 0},
		{"neither", NeitherGesture, false, false, 1},
		{"new wins", NewGesture, true, false, 1},
		{"both", BothGestures, true, true, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var log []string
			s := NewSystem()
			a, b := newFake("a", &log), newFake("b", &log)
			s.AddGesture(a)
			s.AddGesture(b)
			require.True(t, a.activate())

			var calls [][2]Gesture
			s.SetConflictResolutionDelegate(func(existing, candidate Gesture) ConflictResult {
				calls = append(calls, [2]Gesture{existing, candidate})
				return tt.result
			})

			assert.Equal(t, tt.wantActivate, s.CanActivate(b))
			assert.Equal(t, tt.wantExisting, a.IsActive())
			assert.Equal(t, tt.wantEndedCalls, a.ended)
			assert.Equal(t, [][2]Gesture{{a, b}}, calls)
		})
	}
}

func TestCanActivateEvaluatesEveryActiveGesture(t *testing.T) {
	var log []string
	s := NewSystem()
	a, b, c := newFake("a", &log), newFake("b", &log), newFake("c", &log)
	for _, g := range []*fakeGesture{a, b, c} {
		s.AddGesture(g)
	}
	require.True(t, a.activate())
	require.True(t, b.activate())

	// a refuses c, but b must still be cancelled.
	s.SetConflictResolutionDelegate(func(existing, candidate Gesture) ConflictResult {
		if existing == a {
			return ExistingGesture
		}
		return NewGesture
	})

	assert.False(t, s.CanActivate(c))
	assert.True(t, a.IsActive())
	assert.False(t, b.IsActive())
}

func TestCanActivateWithoutDelegate(t *testing.T) {
	var log []string
	s := NewSystem()
	a, b := newFake("a", &log), newFake("b", &log)
	s.AddGesture(a)
	s.AddGesture(b)
	require.True(t, a.activate())

	assert.True(t, s.CanActivate(b))
	assert.True(t, a.IsActive())
}

func TestUnregisteredGestureCannotActivate(t *testing.T) {
	var log []string
	g := newFake("g", &log)
	assert.False(t, g.activate())
}

func TestDelegateMayMutateRegistry(t *testing.T) {
	var log []string
	s := NewSystem()
	a, b, extra := newFake("a", &log), newFake("b", &log), newFake("extra", &log)
	s.AddGesture(a)
	s.AddGesture(b)
	require.True(t, a.activate())

	s.SetConflictResolutionDelegate(func(existing, candidate Gesture) ConflictResult {
		s.RemoveGesture(existing)
		s.AddGesture(extra)
		// Deferred until CanActivate returns.
		assert.Same(t, s, existing.(*fakeGesture).GestureSystem())
		assert.Nil(t, extra.GestureSystem())
		return BothGestures
	})

	assert.True(t, s.CanActivate(b))
	assert.Nil(t, a.GestureSystem())
	assert.False(t, a.IsActive(), "removed gesture must not stay active")
	assert.Equal(t, []Gesture{b, extra}, s.Gestures())
}

func TestCanActivateNestedInRelayDefersToPassEnd(t *testing.T) {
	var log []string
	s := NewSystem()
	a, b, c := newFake("a", &log), newFake("b", &log), newFake("c", &log)
	s.AddGesture(a)
	s.AddGesture(b)
	s.AddGesture(c)
	require.True(t, c.activate())

	s.SetConflictResolutionDelegate(func(existing, candidate Gesture) ConflictResult {
		s.RemoveGesture(existing)
		return NewGesture
	})
	a.onDown = func() { a.activate() }

	down(s)

	assert.Equal(t, []string{"a:down", "c:ended", "b:down"}, log)
	assert.Equal(t, []Gesture{a, b}, s.Gestures())
	assert.True(t, a.IsActive())
}

func TestCloseClearsRegistry(t *testing.T) {
	var log []string
	src := pointer.NewSystem()
	s := NewSystem()
	s.Attach(src)

	a, b := newFake("a", &log), newFake("b", &log)
	s.AddGesture(a)
	s.AddGesture(b)
	require.True(t, a.activate())

	s.Close()

	assert.Empty(t, s.Gestures())
	assert.Nil(t, a.GestureSystem())
	assert.Nil(t, b.GestureSystem())
	assert.False(t, a.IsActive())
	assert.Equal(t, 1, a.ended)

	// No longer subscribed to the pointer source.
	log = nil
	id := src.AddPointerCreateEvent(pointer.V2(0, 0))
	src.AddPointerDownEvent(id, pointer.InputTouch)
	src.ProcessQueuedInput()
	assert.Empty(t, log)
}

func TestCloseDuringDispatch(t *testing.T) {
	var log []string
	s := NewSystem()
	a, b, late := newFake("a", &log), newFake("b", &log), newFake("late", &log)
	s.AddGesture(a)
	s.AddGesture(b)
	require.True(t, b.activate())

	a.onDown = func() {
		s.AddGesture(late)
		s.Close()
	}
	down(s)

	assert.Equal(t, []string{"a:down", "b:ended"}, log)
	assert.Empty(t, s.Gestures())
	assert.Nil(t, a.GestureSystem())
	assert.Nil(t, b.GestureSystem())
	assert.Nil(t, late.GestureSystem())

	// The system is empty but still usable.
	a.onDown = nil
	s.AddGesture(late)
	down(s)
	assert.Equal(t, []string{"a:down", "b:ended", "late:down"}, log)
}

func TestAttachRelaysPointerEvents(t *testing.T) {
	var log []string
	src := pointer.NewSystem()

	filterAll := false
	src.PointerDown().Connect(func(ev pointer.DownEvent) {
		if filterAll {
			ev.Filter.Filter()
		}
	})

	s := NewSystem()
	s.Attach(src)
	defer s.Close()
	s.AddGesture(newFake("g", &log))

	id := src.AddPointerCreateEvent(pointer.V2(0, 0))
	src.AddPointerDownEvent(id, pointer.InputTouch)
	src.AddPointerMovedEvent(id, pointer.V2(1, 1))
	src.AddPointerUpEvent(id, pointer.InputTouch)
	src.ProcessQueuedInput()

	assert.Equal(t, []string{"g:down", "g:moved", "g:up"}, log)

	log = nil
	filterAll = true
	src.AddPointerDownEvent(id, pointer.InputTouch)
	src.ProcessQueuedInput()
	assert.Empty(t, log, "filtered down events are not relayed")
}

func TestConflictResultParse(t *testing.T) {
	for _, r := range []ConflictResult{NeitherGesture, ExistingGesture, NewGesture, BothGestures} {
		got, err := ParseConflictResult(r.String())
		require.NoError(t, err)
		assert.Equal(t, r, got)
	}
	_, err := ParseConflictResult("sometimes")
	assert.Error(t, err)
	assert.Equal(t, ExistingGesture, ConflictResult{})
}
