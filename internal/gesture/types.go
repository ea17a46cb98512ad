package gesture

import (
	"fmt"
	"strings"
)

// Kind identifies the recognizer type of a gesture, used by conflict
// policies and bindings that are configured by name.
type Kind int

const (
	KindUnknown Kind = iota
	KindTap
	KindRotation
	KindPinch
)

func (k Kind) String() string {
	switch k {
	case KindUnknown:
		return "unknown"
	case KindTap:
		return "tap"
	case KindRotation:
		return "rotation"
	case KindPinch:
		return "pinch"
	default:
		return fmt.Sprintf("unknown(%d)", k)
	}
}

// ParseKind parses the names produced by Kind.String.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "tap":
		return KindTap, nil
	case "rotation", "rotate":
		return KindRotation, nil
	case "pinch":
		return KindPinch, nil
	}
	return KindUnknown, fmt.Errorf("unknown gesture kind: %s", s)
}
