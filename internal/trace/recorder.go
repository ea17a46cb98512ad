package trace

import (
	"fmt"
	"sync"

	"github.com/chewxy/math32"

	"github.com/pleimann/gesture-pad/internal/event"
	"github.com/pleimann/gesture-pad/internal/gesture"
	"github.com/pleimann/gesture-pad/internal/pointer"
)

// Note is a timestamped line of gesture activity.
type Note struct {
	Time float64
	Text string
}

func (n Note) String() string {
	return fmt.Sprintf("%7.3fs %s", n.Time, n.Text)
}

// Recorder captures pointer events from a source as a Script and gesture
// notifications as Notes. Times are relative to the first recorded event.
type Recorder struct {
	mu      sync.Mutex
	started bool
	origin  float64
	last    float64
	steps   []Step
	notes   []Note
	names   map[pointer.ID]int

	conns []*event.Connection
}

// NewRecorder creates a recorder listening to src. Create it before
// attaching gesture systems to src so that notes carry the time of the
// event that caused them.
func NewRecorder(src pointer.Source) *Recorder {
	r := &Recorder{names: make(map[pointer.ID]int)}
	r.conns = append(r.conns,
		src.PointerDown().Connect(func(ev pointer.DownEvent) {
			r.record(ev.Timestamp, ev.Pointer, Step{Op: OpDown, Input: ev.InputType.String()})
		}),
		src.PointerMoved().Connect(func(ev pointer.MovedEvent) {
			r.record(ev.Timestamp, ev.Pointer, Step{Op: OpMove, X: ev.Pointer.Position.X, Y: ev.Pointer.Position.Y})
		}),
		src.PointerUp().Connect(func(ev pointer.UpEvent) {
			r.record(ev.Timestamp, ev.Pointer, Step{Op: OpUp, Input: ev.InputType.String()})
		}),
		src.PointerScrolled().Connect(func(ev pointer.ScrolledEvent) {
			r.record(ev.Timestamp, ev.Pointer, Step{Op: OpScroll, DX: ev.Delta.X, DY: ev.Delta.Y})
		}),
	)
	return r
}

// record appends step, preceded by a create step the first time a pointer
// is seen.
func (r *Recorder) record(timestamp float64, p pointer.Pointer, step Step) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t := r.relative(timestamp)
	name, ok := r.names[p.ID]
	if !ok {
		name = len(r.names)
		r.names[p.ID] = name
		start := p.Position
		if step.Op == OpMove {
			start = p.PreviousPosition
		}
		r.steps = append(r.steps, Step{Time: t, Op: OpCreate, Pointer: name, X: start.X, Y: start.Y})
	}

	step.Time = t
	step.Pointer = name
	r.steps = append(r.steps, step)
}

// relative converts an event timestamp to script time. Script times never
// go backwards.
func (r *Recorder) relative(timestamp float64) float64 {
	if !r.started {
		r.started = true
		r.origin = timestamp
	}
	t := timestamp - r.origin
	if t < r.last {
		t = r.last
	}
	r.last = t
	return t
}

// Notef records a gesture note at the given event timestamp.
func (r *Recorder) Notef(timestamp float64, format string, args ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notes = append(r.notes, Note{Time: r.relative(timestamp), Text: fmt.Sprintf(format, args...)})
}

// note records a gesture note at the time of the latest event.
func (r *Recorder) note(format string, args ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notes = append(r.notes, Note{Time: r.last, Text: fmt.Sprintf(format, args...)})
}

// WatchRotation notes when g starts and ends.
func (r *Recorder) WatchRotation(g *gesture.RotationGesture) {
	r.conns = append(r.conns,
		g.Started().Connect(func(info gesture.RotationInfo) {
			r.note("rotation started at %v", info.Position)
		}),
		g.Ended().Connect(func(info gesture.RotationInfo) {
			r.note("rotation ended, %.1f°", info.Rotation*180/math32.Pi)
		}),
	)
}

// WatchPinch notes when g starts and ends.
func (r *Recorder) WatchPinch(g *gesture.PinchGesture) {
	r.conns = append(r.conns,
		g.Started().Connect(func(info gesture.PinchInfo) {
			r.note("pinch started at %v", info.Position)
		}),
		g.Ended().Connect(func(info gesture.PinchInfo) {
			r.note("pinch ended, scale %.2f", info.Scale)
		}),
	)
}

// WatchTap notes every tap g recognizes.
func (r *Recorder) WatchTap(g *gesture.TapGesture) {
	r.conns = append(r.conns,
		g.Tapped().Connect(func(info gesture.TapInfo) {
			r.note("tap %dx%d at %v", info.Taps, info.Pointers, info.Position)
		}),
	)
}

// Script returns a copy of the recorded steps as a script.
func (r *Recorder) Script() *Script {
	r.mu.Lock()
	defer r.mu.Unlock()
	return &Script{Steps: append([]Step(nil), r.steps...)}
}

// Notes returns a copy of the recorded notes.
func (r *Recorder) Notes() []Note {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Note(nil), r.notes...)
}

// Close stops recording.
func (r *Recorder) Close() {
	for _, c := range r.conns {
		c.Close()
	}
	r.conns = nil
}
