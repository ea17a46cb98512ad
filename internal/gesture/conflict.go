package gesture

import (
	"fmt"
	"strings"
)

// ConflictResult is the outcome of arbitrating between an already active
// gesture and one that is trying to activate. It is a pair of effects, so
// every value is one of the four outcomes below; the zero value is
// ExistingGesture.
type ConflictResult struct {
	cancelExisting bool
	allowNew       bool
}

var (
	// NeitherGesture cancels the existing gesture and refuses the new one.
	NeitherGesture = ConflictResult{cancelExisting: true}
	// ExistingGesture keeps the existing gesture and refuses the new one.
	ExistingGesture = ConflictResult{}
	// NewGesture cancels the existing gesture and lets the new one activate.
	NewGesture = ConflictResult{cancelExisting: true, allowNew: true}
	// BothGestures keeps the existing gesture and lets the new one activate.
	BothGestures = ConflictResult{allowNew: true}
)

// CancelsExisting reports whether the existing gesture is cancelled.
func (r ConflictResult) CancelsExisting() bool {
	return r.cancelExisting
}

// AllowsNew reports whether the candidate may still activate.
func (r ConflictResult) AllowsNew() bool {
	return r.allowNew
}

func (r ConflictResult) String() string {
	switch r {
	case NeitherGesture:
		return "neither"
	case NewGesture:
		return "new"
	case BothGestures:
		return "both"
	}
	return "existing"
}

// ParseConflictResult parses the names produced by ConflictResult.String.
func ParseConflictResult(s string) (ConflictResult, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "neither":
		return NeitherGesture, nil
	case "existing":
		return ExistingGesture, nil
	case "new":
		return NewGesture, nil
	case "both":
		return BothGestures, nil
	}
	return ExistingGesture, fmt.Errorf("unknown conflict result: %s", s)
}

// ConflictResolver decides what happens when candidate tries to activate
// while existing is active.
type ConflictResolver func(existing, candidate Gesture) ConflictResult
