package pointer

import (
	"fmt"
	"strings"
)

// ID uniquely identifies a pointer for its whole lifetime.
type ID uint64

// InputType identifies which press on a pointer an event refers to, e.g.
// a touch or a particular mouse button.
type InputType int

const (
	InputNone InputType = iota
	InputTouch
	InputLeftMouseButton
	InputMiddleMouseButton
	InputRightMouseButton
)

func (t InputType) String() string {
	switch t {
	case InputNone:
		return "none"
	case InputTouch:
		return "touch"
	case InputLeftMouseButton:
		return "left_mouse"
	case InputMiddleMouseButton:
		return "middle_mouse"
	case InputRightMouseButton:
		return "right_mouse"
	default:
		return fmt.Sprintf("unknown(%d)", t)
	}
}

// ParseInputType parses the names produced by InputType.String.
func ParseInputType(s string) (InputType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "none":
		return InputNone, nil
	case "touch", "":
		return InputTouch, nil
	case "left_mouse", "left":
		return InputLeftMouseButton, nil
	case "middle_mouse", "middle":
		return InputMiddleMouseButton, nil
	case "right_mouse", "right":
		return InputRightMouseButton, nil
	}
	return InputNone, fmt.Errorf("unknown input type: %s", s)
}

// InputSet is the set of input types currently pressed on a pointer.
type InputSet uint8

func (s InputSet) Has(t InputType) bool {
	return s&(1<<uint(t)) != 0
}

func (s InputSet) With(t InputType) InputSet {
	return s | 1<<uint(t)
}

func (s InputSet) Without(t InputType) InputSet {
	return s &^ (1 << uint(t))
}

// Pointer is a snapshot of a pointer's state at the time an event fired.
type Pointer struct {
	ID               ID
	// Index is the lowest index free when the pointer was created. It is
	// unique among current pointers and kept for the pointer's lifetime.
	Index            int
	Position         Vec2
	PreviousPosition Vec2
	ActiveInput      InputSet
}

// Filter is passed along with an event so that earlier consumers can stop
// later ones from acting on it.
type Filter struct {
	filtered bool
}

// Filter marks the event as consumed.
func (f *Filter) Filter() {
	f.filtered = true
}

func (f *Filter) IsFiltered() bool {
	return f != nil && f.filtered
}

// DownEvent is published when an input is pressed on a pointer.
type DownEvent struct {
	Pointer   Pointer
	Timestamp float64
	InputType InputType
	Filter    *Filter
}

// MovedEvent is published when a pointer changes position.
type MovedEvent struct {
	Pointer   Pointer
	Timestamp float64
	Filter    *Filter
}

// UpEvent is published when an input is released on a pointer.
type UpEvent struct {
	Pointer   Pointer
	Timestamp float64
	InputType InputType
	Filter    *Filter
}

// ScrolledEvent is published for wheel or two-finger scroll input.
type ScrolledEvent struct {
	Pointer   Pointer
	Timestamp float64
	Delta     Vec2
	Filter    *Filter
}
