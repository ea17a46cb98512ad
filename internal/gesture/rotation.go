package gesture

import (
	"github.com/chewxy/math32"

	"github.com/pleimann/gesture-pad/internal/event"
	"github.com/pleimann/gesture-pad/internal/pointer"
)

const rotationPointerCount = 2

// RotationInfo describes the state of a rotation when an event fires.
type RotationInfo struct {
	// Position is the centre of the two contributing pointers.
	Position pointer.Vec2
	// Rotation is the angle rotated since the gesture started, in radians
	// within [-π, π). Positive values turn from the +Y axis towards +X,
	// which is counter-clockwise on a y-down surface.
	Rotation float32
	// RotationDelta is the change since the previous event.
	RotationDelta float32
}

// RotationGesture recognizes two pointers turning around each other.
//
// It becomes active once two tracked pointers have both moved past the drag
// threshold. If one of the two is lifted while active the gesture pauses
// instead of ending, and resumes without a jump in rotation when another
// dragging pointer takes its place. It ends once no tracked pointers remain.
type RotationGesture struct {
	Base

	inputType    pointer.InputType
	tracker      pointerTracker
	paused       bool
	initialAngle float32
	info         RotationInfo

	started event.Event[RotationInfo]
	moved   event.Event[RotationInfo]
	ended   event.Event[RotationInfo]
}

// NewRotationGesture creates a rotation gesture listening to inputType.
// densityScale scales the drag threshold to the surface's pixel density.
func NewRotationGesture(inputType pointer.InputType, densityScale float32) *RotationGesture {
	return &RotationGesture{
		inputType: inputType,
		tracker:   newPointerTracker(rotationPointerCount, densityScale),
	}
}

func (g *RotationGesture) Kind() Kind {
	return KindRotation
}

func (g *RotationGesture) InputType() pointer.InputType {
	return g.inputType
}

// IsPaused reports whether the gesture is active but waiting for a
// replacement pointer.
func (g *RotationGesture) IsPaused() bool {
	return g.paused
}

// Info returns the most recently reported rotation state.
func (g *RotationGesture) Info() RotationInfo {
	return g.info
}

func (g *RotationGesture) Started() event.Connectable[RotationInfo] { return &g.started }
func (g *RotationGesture) Moved() event.Connectable[RotationInfo]   { return &g.moved }
func (g *RotationGesture) Ended() event.Connectable[RotationInfo]   { return &g.ended }

func (g *RotationGesture) Cancel() {
	if !g.IsActive() {
		panic("gesture: cannot cancel a rotation gesture that isn't active")
	}

	g.tracker.release()
	g.SetActive(false)
	g.paused = false

	g.info.RotationDelta = 0
	g.ended.Notify(g.info)
	g.info = RotationInfo{}
}

func (g *RotationGesture) OnPointerDown(p pointer.Pointer, timestamp float64, inputType pointer.InputType) {
	if inputType == g.inputType {
		g.tracker.add(p)
	}
}

func (g *RotationGesture) OnPointerMoved(p pointer.Pointer, timestamp float64) {
	tracked, contributing := g.tracker.move(p)
	if !tracked {
		return
	}

	if !g.IsActive() || g.paused {
		g.tryStart()
		return
	}

	if contributing {
		rotation := g.relativeRotation()
		g.info.Position = g.tracker.centre()
		g.info.RotationDelta = wrapPi(rotation - g.info.Rotation)
		g.info.Rotation = rotation
		g.moved.Notify(g.info)
	}
}

func (g *RotationGesture) OnPointerUp(p pointer.Pointer, timestamp float64, inputType pointer.InputType) {
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

func (g *RotationGesture) tryStart() {
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
		g.initialAngle = g.angle()
		g.info = RotationInfo{
			Position: g.tracker.centre(),
			Rotation: g.relativeRotation(),
		}
		g.started.Notify(g.info)
		return
	}

	// Resuming: rebase the initial angle so the reported rotation carries
	// on from where it was when the pause began.
	g.initialAngle = wrapTwoPi(g.angle() - g.info.Rotation)
	g.info.Position = g.tracker.centre()
	g.info.Rotation = g.relativeRotation()
	g.info.RotationDelta = 0
	g.moved.Notify(g.info)
}

// angle is the direction from the first contributing pointer to the
// second, measured from the +Y axis, in [0, 2π).
func (g *RotationGesture) angle() float32 {
	pos := g.tracker.positions()
	return wrapTwoPi(pos[1].Sub(pos[0]).AngleFromY())
}

func (g *RotationGesture) relativeRotation() float32 {
	return wrapPi(g.angle() - g.initialAngle)
}

func wrapTwoPi(a float32) float32 {
	for a < 0 {
		a += 2 * math32.Pi
	}
	for a >= 2*math32.Pi {
		a -= 2 * math32.Pi
	}
	return a
}

func wrapPi(a float32) float32 {
	for a < -math32.Pi {
		a += 2 * math32.Pi
	}
	for a >= math32.Pi {
		a -= 2 * math32.Pi
	}
	return a
}
