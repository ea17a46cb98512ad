package gesture

import (
	"github.com/pleimann/gesture-pad/internal/event"
	"github.com/pleimann/gesture-pad/internal/pointer"
)

const pinchPointerCount = 2

// PinchInfo describes the state of a pinch when an event fires.
type PinchInfo struct {
	Position pointer.Vec2
	// Scale is the current pointer separation over the separation when the
	// gesture started; below 1 is pinching in, above 1 is spreading out.
	Scale      float32
	ScaleDelta float32
}

// PinchGesture recognizes two pointers moving towards or away from each
// other. It tracks pointers, pauses and resumes the same way as
// RotationGesture.
type PinchGesture struct {
	Base

	inputType       pointer.InputType
	tracker         pointerTracker
	paused          bool
	initialDistance float32
	info            PinchInfo

	started event.Event[PinchInfo]
	moved   event.Event[PinchInfo]
	ended   event.Event[PinchInfo]
}

func NewPinchGesture(inputType pointer.InputType, densityScale float32) *PinchGesture {
	return &PinchGesture{
		inputType: inputType,
		tracker:   newPointerTracker(pinchPointerCount, densityScale),
	}
}

func (g *PinchGesture) Kind() Kind {
	return KindPinch
}

func (g *PinchGesture) InputType() pointer.InputType {
	return g.inputType
}

func (g *PinchGesture) IsPaused() bool {
	return g.paused
}

func (g *PinchGesture) Info() PinchInfo {
	return g.info
}

func (g *PinchGesture) Started() event.Connectable[PinchInfo] { return &g.started }
func (g *PinchGesture) Moved() event.Connectable[PinchInfo]   { return &g.moved }
func (g *PinchGesture) Ended() event.Connectable[PinchInfo]   { return &g.ended }

func (g *PinchGesture) Cancel() {
	if !g.IsActive() {
		panic("gesture: cannot cancel a pinch gesture that isn't active")
	}

	g.tracker.release()
	g.SetActive(false)
	g.paused = false

	g.info.ScaleDelta = 0
	g.ended.Notify(g.info)
	g.info = PinchInfo{}
}

func (g *PinchGesture) OnPointerDown(p pointer.Pointer, timestamp float64, inputType pointer.InputType) {
	if inputType == g.inputType {
		g.tracker.add(p)
	}
}

func (g *PinchGesture) OnPointerMoved(p pointer.Pointer, timestamp float64) {
	tracked, contributing := g.tracker.move(p)
	if !tracked {
		return
	}

	if !g.IsActive() || g.paused {
		g.tryStart()
		return
	}

	if contributing {
		scale := g.scale()
		g.info.Position = g.tracker.centre()
		g.info.ScaleDelta = scale - g.info.Scale
		g.info.Scale = scale
		g.moved.Notify(g.info)
	}
}

func (g *PinchGesture) OnPointerUp(p pointer.Pointer, timestamp float64, inputType pointer.InputType) {
	if inputType != g.inputType {
		return
	}

	found, wasContributing := g.tracker.remove(p.ID)
	if !found {
		return
	}
	if wasContributing {
		g.paused = true
	}
	if g.tracker.empty() && g.IsActive() {
		g.Cancel()
	}
}

func (g *PinchGesture) tryStart() {
	if !g.tracker.ready() {
		return
	}
	if !g.IsActive() && !g.ResolveConflicts(g) {
		return
	}

	g.tracker.promote()
	g.paused = false

	if !g.IsActive() {
		g.SetActive(true)
		g.initialDistance = g.distance()
		g.info = PinchInfo{
			Position: g.tracker.centre(),
			Scale:    g.scale(),
		}
		g.started.Notify(g.info)
		return
	}

	if g.info.Scale > 0 {
		g.initialDistance = g.distance() / g.info.Scale
	} else {
		g.initialDistance = g.distance()
	}
	g.info.Position = g.tracker.centre()
	g.info.Scale = g.scale()
	g.info.ScaleDelta = 0
	g.moved.Notify(g.info)
}

func (g *PinchGesture) distance() float32 {
	pos := g.tracker.positions()
	return pos[1].Sub(pos[0]).Length()
}

func (g *PinchGesture) scale() float32 {
	if g.initialDistance == 0 {
		return 1
	}
	return g.distance() / g.initialDistance
}
