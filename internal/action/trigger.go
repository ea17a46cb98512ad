package action

import (
	"fmt"
	"strconv"
	"strings"
)

// TriggerKind is the kind of discrete input a recognized gesture produces.
type TriggerKind int

const (
	TriggerTap TriggerKind = iota
	TriggerRotateCW
	TriggerRotateCCW
	TriggerPinchIn
	TriggerPinchOut
)

func (k TriggerKind) String() string {
	switch k {
	case TriggerTap:
		return "tap"
	case TriggerRotateCW:
		return "rotate_cw"
	case TriggerRotateCCW:
		return "rotate_ccw"
	case TriggerPinchIn:
		return "pinch_in"
	case TriggerPinchOut:
		return "pinch_out"
	default:
		return fmt.Sprintf("unknown(%d)", k)
	}
}

// Trigger is what bindings are keyed on. Taps and Pointers are only set for
// TriggerTap.
type Trigger struct {
	Kind     TriggerKind
	Taps     int
	Pointers int
}

func NewTapTrigger(taps, pointers int) Trigger {
	return Trigger{Kind: TriggerTap, Taps: taps, Pointers: pointers}
}

// Key returns the string used to identify the trigger in bindings, e.g.
// "tap:2x1" for a double tap with one pointer, or "rotate_cw".
func (t Trigger) Key() string {
	if t.Kind == TriggerTap {
		return fmt.Sprintf("tap:%dx%d", t.Taps, t.Pointers)
	}
	return t.Kind.String()
}

func (t Trigger) String() string {
	return t.Key()
}

// ParseTrigger parses the strings produced by Trigger.Key. A bare "tap" is
// a single tap with one pointer.
func ParseTrigger(s string) (Trigger, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "tap":
		return NewTapTrigger(1, 1), nil
	case "rotate_cw":
		return Trigger{Kind: TriggerRotateCW}, nil
	case "rotate_ccw":
		return Trigger{Kind: TriggerRotateCCW}, nil
	case "pinch_in":
		return Trigger{Kind: TriggerPinchIn}, nil
	case "pinch_out":
		return Trigger{Kind: TriggerPinchOut}, nil
	}

	counts, ok := strings.CutPrefix(s, "tap:")
	if !ok {
		return Trigger{}, fmt.Errorf("unknown trigger: %s", s)
	}
	tapsStr, pointersStr, ok := strings.Cut(counts, "x")
	taps, err1 := strconv.Atoi(tapsStr)
	pointers, err2 := strconv.Atoi(pointersStr)
	if !ok || err1 != nil || err2 != nil {
		return Trigger{}, fmt.Errorf("invalid tap trigger %q, want tap:<taps>x<pointers>", s)
	}
	if taps < 1 || pointers < 1 {
		return Trigger{}, fmt.Errorf("invalid tap trigger %q, counts must be positive", s)
	}
	return NewTapTrigger(taps, pointers), nil
}
