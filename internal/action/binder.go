package action

import (
	"sync"

	"github.com/chewxy/math32"

	"github.com/pleimann/gesture-pad/internal/event"
	"github.com/pleimann/gesture-pad/internal/gesture"
)

// Binder turns continuous gesture events into discrete triggers.
//
// Rotation emits one trigger per step of accumulated angle and pinch one
// per step of scale change, so a slow turn and a fast turn of the same
// size produce the same number of key presses.
type Binder struct {
	mu          sync.RWMutex
	stepRadians float32
	stepRatio   float32

	emit  func(Trigger)
	conns []*event.Connection
}

// NewBinder creates a binder that calls emit for every trigger. emit runs
// on whatever goroutine drives the gesture system.
func NewBinder(stepDegrees, stepRatio float32, emit func(Trigger)) *Binder {
	b := &Binder{emit: emit}
	b.SetSteps(stepDegrees, stepRatio)
	return b
}

// SetSteps changes the step sizes, e.g. after a config reload.
func (b *Binder) SetSteps(stepDegrees, stepRatio float32) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.stepRadians = stepDegrees * math32.Pi / 180
	b.stepRatio = stepRatio
}

func (b *Binder) steps() (float32, float32) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.stepRadians, b.stepRatio
}

// BindRotation emits rotate_ccw for positive rotation and rotate_cw for
// negative rotation.
func (b *Binder) BindRotation(g *gesture.RotationGesture) {
	var accum float32
	b.conns = append(b.conns,
		g.Started().Connect(func(gesture.RotationInfo) { accum = 0 }),
		g.Moved().Connect(func(info gesture.RotationInfo) {
			step, _ := b.steps()
			if step <= 0 {
				return
			}
			accum += info.RotationDelta
			for accum >= step {
				accum -= step
				b.emit(Trigger{Kind: TriggerRotateCCW})
			}
			for accum <= -step {
				accum += step
				b.emit(Trigger{Kind: TriggerRotateCW})
			}
		}),
		g.Ended().Connect(func(gesture.RotationInfo) { accum = 0 }),
	)
}

// BindPinch emits pinch_out as the pointers spread and pinch_in as they
// close.
func (b *Binder) BindPinch(g *gesture.PinchGesture) {
	var base float32 = 1
	b.conns = append(b.conns,
		g.Started().Connect(func(info gesture.PinchInfo) { base = info.Scale }),
		g.Moved().Connect(func(info gesture.PinchInfo) {
			_, step := b.steps()
			if step <= 0 {
				return
			}
			for info.Scale-base >= step {
				base += step
				b.emit(Trigger{Kind: TriggerPinchOut})
			}
			for base-info.Scale >= step {
				base -= step
				b.emit(Trigger{Kind: TriggerPinchIn})
			}
		}),
		g.Ended().Connect(func(gesture.PinchInfo) { base = 1 }),
	)
}

func (b *Binder) BindTap(g *gesture.TapGesture) {
	b.conns = append(b.conns, g.Tapped().Connect(func(info gesture.TapInfo) {
		b.emit(NewTapTrigger(info.Taps, info.Pointers))
	}))
}

// Close disconnects from every bound gesture.
func (b *Binder) Close() {
	for _, c := range b.conns {
		c.Close()
	}
	b.conns = nil
}
