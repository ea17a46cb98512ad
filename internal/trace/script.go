// Package trace records, replays and renders pointer input so gestures can
// be exercised without a touch surface attached.
package trace

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/pleimann/gesture-pad/internal/pointer"
)

// Op is the kind of a script step.
type Op string

const (
	OpCreate Op = "create"
	OpDown   Op = "down"
	OpMove   Op = "move"
	OpUp     Op = "up"
	OpScroll Op = "scroll"
	OpRemove Op = "remove"
)

// Step is one pointer event in a script. Pointer is a script-local name for
// the pointer; it is mapped to a real pointer id when the script is played.
type Step struct {
	Time    float64 `yaml:"time"`
	Op      Op      `yaml:"op"`
	Pointer int     `yaml:"pointer"`
	X       float32 `yaml:"x,omitempty"`
	Y       float32 `yaml:"y,omitempty"`
	DX      float32 `yaml:"dx,omitempty"`
	DY      float32 `yaml:"dy,omitempty"`
	Input   string  `yaml:"input,omitempty"`
}

// Position returns the step's x and y as a vector.
func (s Step) Position() pointer.Vec2 {
	return pointer.V2(s.X, s.Y)
}

// Script is a timed sequence of pointer steps.
type Script struct {
	Name string `yaml:"name,omitempty"`
	// Input is the default input type for down and up steps.
	Input string `yaml:"input,omitempty"`
	Steps []Step `yaml:"steps"`
}

// LoadScript reads and validates a YAML script.
func LoadScript(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read script: %w", err)
	}
	return ParseScript(data)
}

// ParseScript decodes and validates a YAML script.
func ParseScript(data []byte) (*Script, error) {
	var s Script
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to parse script: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Save writes the script as YAML.
func (s *Script) Save(path string) error {
	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to encode script: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write script: %w", err)
	}
	return nil
}

// Validate checks that steps are in time order, that every pointer is
// created before use and not reused after removal, and that input names
// parse.
func (s *Script) Validate() error {
	if _, err := pointer.ParseInputType(s.Input); err != nil {
		return fmt.Errorf("script input: %w", err)
	}

	live := make(map[int]bool)
	removed := make(map[int]bool)
	last := 0.0
	for i, step := range s.Steps {
		if step.Time < last {
			return fmt.Errorf("step %d: time %v is before previous step %v", i, step.Time, last)
		}
		last = step.Time

		if step.Input != "" {
			if _, err := pointer.ParseInputType(step.Input); err != nil {
				return fmt.Errorf("step %d: %w", i, err)
			}
		}

		switch Op(strings.ToLower(string(step.Op))) {
		case OpCreate:
			if live[step.Pointer] || removed[step.Pointer] {
				return fmt.Errorf("step %d: pointer %d created twice", i, step.Pointer)
			}
			live[step.Pointer] = true
		case OpDown, OpMove, OpUp, OpScroll:
			if !live[step.Pointer] {
				return fmt.Errorf("step %d: pointer %d used before create", i, step.Pointer)
			}
		case OpRemove:
			if !live[step.Pointer] {
				return fmt.Errorf("step %d: pointer %d removed before create", i, step.Pointer)
			}
			delete(live, step.Pointer)
			removed[step.Pointer] = true
		default:
			return fmt.Errorf("step %d: unknown op %q", i, step.Op)
		}
	}
	return nil
}

// Duration returns the time of the last step.
func (s *Script) Duration() float64 {
	if len(s.Steps) == 0 {
		return 0
	}
	return s.Steps[len(s.Steps)-1].Time
}

// Play queues every step into sys and processes it, with the system clock
// reporting each step's time. After each step tick is called with the time
// elapsed since the previous step, so per-frame work such as
// gesture.System.OnUpdate runs as it would live. tick may be nil.
//
// Play replaces the clock of sys.
func (s *Script) Play(sys *pointer.System, tick func(dt float32)) error {
	if err := s.Validate(); err != nil {
		return err
	}

	defaultInput, _ := pointer.ParseInputType(s.Input)
	now := 0.0
	sys.SetClock(func() float64 { return now })

	ids := make(map[int]pointer.ID)
	for _, step := range s.Steps {
		dt := step.Time - now
		now = step.Time

		input := defaultInput
		if step.Input != "" {
			input, _ = pointer.ParseInputType(step.Input)
		}

		switch Op(strings.ToLower(string(step.Op))) {
		case OpCreate:
			ids[step.Pointer] = sys.AddPointerCreateEvent(step.Position())
		case OpDown:
			sys.AddPointerDownEvent(ids[step.Pointer], input)
		case OpMove:
			sys.AddPointerMovedEvent(ids[step.Pointer], step.Position())
		case OpUp:
			sys.AddPointerUpEvent(ids[step.Pointer], input)
		case OpScroll:
			sys.AddPointerScrollEvent(ids[step.Pointer], pointer.V2(step.DX, step.DY))
		case OpRemove:
			sys.AddPointerRemoveEvent(ids[step.Pointer])
		}
		sys.ProcessQueuedInput()

		if tick != nil {
			tick(float32(dt))
		}
	}
	return nil
}
