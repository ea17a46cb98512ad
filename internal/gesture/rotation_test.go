package gesture

import (
	"testing"

	"github.com/chewxy/math32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pleimann/gesture-pad/internal/pointer"
)

const angleTolerance = 1e-4

// touchDriver feeds pointer events straight into a gesture system.
type touchDriver struct {
	sys *System
	ts  float64
}

func (d *touchDriver) down(id pointer.ID, x, y float32) {
	d.ts += 0.01
	d.sys.OnPointerDown(pointer.Pointer{ID: id, Position: pointer.V2(x, y)}, d.ts, pointer.InputTouch)
}

func (d *touchDriver) move(id pointer.ID, x, y float32) {
	d.ts += 0.01
	d.sys.OnPointerMoved(pointer.Pointer{ID: id, Position: pointer.V2(x, y)}, d.ts)
}

func (d *touchDriver) up(id pointer.ID, x, y float32) {
	d.ts += 0.01
	d.sys.OnPointerUp(pointer.Pointer{ID: id, Position: pointer.V2(x, y)}, d.ts, pointer.InputTouch)
}

type rotationRecorder struct {
	started, moved, ended []RotationInfo
}

func recordRotation(g *RotationGesture) *rotationRecorder {
	r := &rotationRecorder{}
	g.Started().Connect(func(i RotationInfo) { r.started = append(r.started, i) })
	g.Moved().Connect(func(i RotationInfo) { r.moved = append(r.moved, i) })
	g.Ended().Connect(func(i RotationInfo) { r.ended = append(r.ended, i) })
	return r
}

// startRotation puts two pointers down on the Y axis and drags them apart
// radially until the gesture starts.
func startRotation(t *testing.T, d *touchDriver, g *RotationGesture) {
	t.Helper()
	d.down(1, 0, 100)
	d.down(2, 0, -100)
	d.move(1, 0, 125)
	assert.False(t, g.IsActive(), "one dragging pointer is not enough")
	d.move(2, 0, -125)
	require.True(t, g.IsActive())
}

func TestRotationQuarterTurn(t *testing.T) {
	sys := NewSystem()
	g := NewRotationGesture(pointer.InputTouch, 1)
	sys.AddGesture(g)
	rec := recordRotation(g)
	d := &touchDriver{sys: sys}

	startRotation(t, d, g)
	require.Len(t, rec.started, 1)
	assert.InDelta(t, 0, rec.started[0].Rotation, angleTolerance)
	assert.Equal(t, pointer.V2(0, 0), rec.started[0].Position)

	d.move(1, 100, 0)
	d.move(2, -100, 0)

	require.NotEmpty(t, rec.moved)
	last := rec.moved[len(rec.moved)-1]
	assert.InDelta(t, math32.Pi/2, last.Rotation, angleTolerance)
	assert.Equal(t, pointer.V2(0, 0), last.Position)

	var total float32
	for _, m := range rec.moved {
		assert.NotZero(t, m.RotationDelta)
		total += m.RotationDelta
	}
	assert.InDelta(t, math32.Pi/2, total, angleTolerance, "deltas add up to the rotation")
	assert.Len(t, rec.started, 1)
	assert.Empty(t, rec.ended)
}

func TestRotationPauseResumeKeepsRotation(t *testing.T) {
	sys := NewSystem()
	g := NewRotationGesture(pointer.InputTouch, 1)
	sys.AddGesture(g)
	rec := recordRotation(g)
	d := &touchDriver{sys: sys}

	startRotation(t, d, g)
	d.move(1, 100, 0)
	d.move(2, -100, 0)
	before := g.Info().Rotation
	require.InDelta(t, math32.Pi/2, before, angleTolerance)

	d.up(2, -100, 0)
	assert.True(t, g.IsActive())
	assert.True(t, g.IsPaused())
	assert.Empty(t, rec.ended)

	// Moving the remaining pointer while paused reports nothing.
	moves := len(rec.moved)
	d.move(1, 100, 5)
	assert.Len(t, rec.moved, moves)

	d.down(3, 0, 0)
	d.move(3, 0, -100)
	assert.False(t, g.IsPaused())
	require.Len(t, rec.moved, moves+1)
	resumed := rec.moved[moves]
	assert.InDelta(t, before, resumed.Rotation, angleTolerance, "no jump on resume")
	assert.Zero(t, resumed.RotationDelta)

	// Rotation carries on from the resumed value.
	d.move(3, -100, 5)
	last := rec.moved[len(rec.moved)-1]
	assert.NotZero(t, last.RotationDelta)
	assert.InDelta(t, before+last.RotationDelta, last.Rotation, angleTolerance)
	assert.Len(t, rec.started, 1)
}

func TestRotationEndsOnceWhenAllPointersLift(t *testing.T) {
	sys := NewSystem()
	g := NewRotationGesture(pointer.InputTouch, 1)
	sys.AddGesture(g)
	rec := recordRotation(g)
	d := &touchDriver{sys: sys}

	startRotation(t, d, g)
	d.move(1, 100, 0)

	d.up(1, 100, 0)
	assert.True(t, g.IsActive())
	d.up(2, 0, -125)

	assert.False(t, g.IsActive())
	assert.False(t, g.IsPaused())
	require.Len(t, rec.ended, 1)
	assert.Zero(t, rec.ended[0].RotationDelta)
	assert.Equal(t, RotationInfo{}, g.Info())

	// A fresh pair starts a new gesture.
	startRotation(t, d, g)
	assert.Len(t, rec.started, 2)
}

func TestRotationIgnoresOtherInputTypes(t *testing.T) {
	sys := NewSystem()
	g := NewRotationGesture(pointer.InputLeftMouseButton, 1)
	sys.AddGesture(g)
	d := &touchDriver{sys: sys}

	d.down(1, 0, 100)
	d.down(2, 0, -100)
	d.move(1, 0, 200)
	d.move(2, 0, -200)
	assert.False(t, g.IsActive())
}

func TestRotationRespectsDensityScale(t *testing.T) {
	sys := NewSystem()
	g := NewRotationGesture(pointer.InputTouch, 2)
	sys.AddGesture(g)
	d := &touchDriver{sys: sys}

	d.down(1, 0, 100)
	d.down(2, 0, -100)
	d.move(1, 0, 125)
	d.move(2, 0, -125)
	assert.False(t, g.IsActive(), "25 units is below a doubled threshold")

	d.move(1, 0, 145)
	d.move(2, 0, -145)
	assert.True(t, g.IsActive())
}

func TestRotationCancelledByConflict(t *testing.T) {
	sys := NewSystem()
	g := NewRotationGesture(pointer.InputTouch, 1)
	sys.AddGesture(g)
	rec := recordRotation(g)
	d := &touchDriver{sys: sys}

	startRotation(t, d, g)

	other := newFake("other", new([]string))
	sys.AddGesture(other)
	sys.SetConflictResolutionDelegate(func(existing, candidate Gesture) ConflictResult {
		return NewGesture
	})
	require.True(t, other.activate())

	assert.False(t, g.IsActive())
	assert.Len(t, rec.ended, 1)

	assert.Panics(t, func() { g.Cancel() })

	// The pointers are still tracked, so the next move re-arbitrates and
	// this time the rotation wins.
	d.move(1, 0, 130)
	assert.True(t, g.IsActive())
	assert.False(t, other.IsActive())
	assert.Len(t, rec.started, 2)
}

func TestRotationLosesToActivePinch(t *testing.T) {
	sys := NewSystem()
	pinch := NewPinchGesture(pointer.InputTouch, 1)
	rot := NewRotationGesture(pointer.InputTouch, 1)
	sys.AddGesture(pinch)
	sys.AddGesture(rot)
	sys.SetConflictResolutionDelegate(func(existing, candidate Gesture) ConflictResult {
		return ExistingGesture
	})
	d := &touchDriver{sys: sys}

	d.down(1, 0, 100)
	d.down(2, 0, -100)
	d.move(1, 0, 125)
	d.move(2, 0, -125)

	assert.True(t, pinch.IsActive())
	assert.False(t, rot.IsActive())

	d.move(1, 100, 0)
	assert.False(t, rot.IsActive())
}

func TestWrapAngles(t *testing.T) {
	assert.InDelta(t, 0, wrapTwoPi(2*math32.Pi), angleTolerance)
	assert.InDelta(t, 3*math32.Pi/2, wrapTwoPi(-math32.Pi/2), angleTolerance)
	assert.InDelta(t, -math32.Pi, wrapPi(math32.Pi), angleTolerance)
	assert.InDelta(t, -math32.Pi/2, wrapPi(3*math32.Pi/2), angleTolerance)
	assert.InDelta(t, math32.Pi/4, wrapPi(math32.Pi/4), angleTolerance)
}
