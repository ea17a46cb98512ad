package gesture

import (
	"github.com/pleimann/gesture-pad/internal/event"
	"github.com/pleimann/gesture-pad/internal/pointer"
)

// Tap timing in seconds and displacement limits in density independent
// units.
const (
	minTimeBetweenTaps       = 0.015
	maxTimeForTap            = 0.15
	maxTimeBetweenTaps       = 0.25
	maxTapDisplacement       = float32(20)
	maxRepeatTapDisplacement = float32(40)
)

type tapPointer struct {
	id      pointer.ID
	initial pointer.Vec2
	isDown  bool
}

// TapInfo is reported when a tap gesture completes.
type TapInfo struct {
	// Position is the mean of the first tap's pointer positions.
	Position pointer.Vec2
	Taps     int
	Pointers int
}

// TapGesture recognizes numTaps quick taps made with numPointers pointers
// each. It fires Tapped once the final tap lifts. It never becomes active,
// so it takes no part in conflict resolution.
type TapGesture struct {
	Base

	numTaps     int
	numPointers int
	inputType   pointer.InputType

	maxTapDisplacementSquared       float32
	maxRepeatTapDisplacementSquared float32

	activeTap         bool
	activeTapStart    float64
	lastTapStart      float64
	lastTapEnd        float64
	tapCount          int
	activeTapPointers []tapPointer
	firstTapPointers  []tapPointer

	tapped event.Event[TapInfo]
}

func NewTapGesture(numTaps, numPointers int, inputType pointer.InputType, densityScale float32) *TapGesture {
	if numTaps < 1 || numPointers < 1 {
		panic("gesture: tap gesture needs at least one tap and one pointer")
	}
	tap := maxTapDisplacement * densityScale
	repeat := maxRepeatTapDisplacement * densityScale
	return &TapGesture{
		numTaps:                         numTaps,
		numPointers:                     numPointers,
		inputType:                       inputType,
		maxTapDisplacementSquared:       tap * tap,
		maxRepeatTapDisplacementSquared: repeat * repeat,
		activeTapPointers:               make([]tapPointer, 0, numPointers),
	}
}

func (g *TapGesture) Kind() Kind {
	return KindTap
}

func (g *TapGesture) NumTaps() int {
	return g.numTaps
}

func (g *TapGesture) NumPointers() int {
	return g.numPointers
}

func (g *TapGesture) InputType() pointer.InputType {
	return g.inputType
}

func (g *TapGesture) Tapped() event.Connectable[TapInfo] {
	return &g.tapped
}

func (g *TapGesture) Cancel() {
	if !g.IsActive() {
		panic("gesture: cannot cancel a tap gesture that isn't active")
	}
	g.SetActive(false)
	g.resetGesture()
}

func (g *TapGesture) OnPointerDown(p pointer.Pointer, timestamp float64, inputType pointer.InputType) {
	g.checkForExpiration(timestamp)

	if inputType != g.inputType {
		return
	}

	// Repeat taps have to land near the first one.
	valid := g.tapCount == 0
	if !valid {
		for _, fp := range g.firstTapPointers {
			if p.Position.Sub(fp.initial).LengthSquared() <= g.maxRepeatTapDisplacementSquared {
				valid = true
				break
			}
		}
	}
	if !valid {
		return
	}

	switch {
	case g.activeTap:
		if len(g.activeTapPointers) < g.numPointers {
			g.activeTapPointers = append(g.activeTapPointers, tapPointer{id: p.ID, initial: p.Position, isDown: true})
		} else {
			g.resetTap()
		}
	case g.tapCount == 0 || timestamp-g.lastTapStart > minTimeBetweenTaps:
		g.activeTap = true
		g.activeTapStart = timestamp
		g.lastTapStart = timestamp
		g.activeTapPointers = append(g.activeTapPointers, tapPointer{id: p.ID, initial: p.Position, isDown: true})
	}
}

func (g *TapGesture) OnPointerMoved(p pointer.Pointer, timestamp float64) {
	g.checkForExpiration(timestamp)

	if !g.activeTap {
		return
	}
	for _, tp := range g.activeTapPointers {
		if tp.id == p.ID {
			if p.Position.Sub(tp.initial).LengthSquared() > g.maxTapDisplacementSquared {
				g.resetTap()
			}
			return
		}
	}
}

func (g *TapGesture) OnPointerUp(p pointer.Pointer, timestamp float64, inputType pointer.InputType) {
	g.checkForExpiration(timestamp)

	if inputType != g.inputType || !g.activeTap {
		return
	}
	if len(g.activeTapPointers) != g.numPointers {
		g.resetTap()
		return
	}

	finished := true
	for i := range g.activeTapPointers {
		tp := &g.activeTapPointers[i]
		if tp.id == p.ID {
			tp.isDown = false
		} else if tp.isDown {
			finished = false
		}
	}
	if !finished {
		return
	}

	if g.tapCount == 0 {
		g.firstTapPointers = append(g.firstTapPointers[:0], g.activeTapPointers...)
	}
	g.resetTap()
	g.tapCount++
	g.lastTapEnd = timestamp

	if g.tapCount == g.numTaps {
		var sum pointer.Vec2
		for _, fp := range g.firstTapPointers {
			sum = sum.Add(fp.initial)
		}
		info := TapInfo{
			Position: sum.DivScalar(float32(len(g.firstTapPointers))),
			Taps:     g.numTaps,
			Pointers: g.numPointers,
		}
		g.resetGesture()
		g.tapped.Notify(info)
	}
}

func (g *TapGesture) checkForExpiration(timestamp float64) {
	if g.activeTap && timestamp-g.activeTapStart > maxTimeForTap {
		g.resetTap()
	}
	if !g.activeTap && g.tapCount > 0 && timestamp-g.lastTapEnd > maxTimeBetweenTaps {
		g.resetGesture()
	}
}

func (g *TapGesture) resetTap() {
	g.activeTap = false
	g.activeTapStart = 0
	g.activeTapPointers = g.activeTapPointers[:0]
}

func (g *TapGesture) resetGesture() {
	g.resetTap()
	g.tapCount = 0
	g.lastTapEnd = 0
	g.firstTapPointers = g.firstTapPointers[:0]
}
