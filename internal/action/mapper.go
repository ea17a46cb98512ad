package action

import (
	"fmt"
	"sync"

	"github.com/pleimann/gesture-pad/internal/config"
)

// Mapper maps gesture triggers to key sequences based on configuration
type Mapper struct {
	mu       sync.RWMutex
	bindings map[string][]string // Trigger.Key() -> keys
}

// NewMapper creates a new action mapper from configuration
func NewMapper(cfg *config.Config) (*Mapper, error) {
	bindings, err := buildBindings(cfg)
	if err != nil {
		return nil, err
	}
	return &Mapper{bindings: bindings}, nil
}

func buildBindings(cfg *config.Config) (map[string][]string, error) {
	bindings := make(map[string][]string, len(cfg.Bindings))
	for i, b := range cfg.Bindings {
		trigger, err := ParseTrigger(b.Trigger)
		if err != nil {
			return nil, fmt.Errorf("binding %d: %w", i, err)
		}
		for _, k := range b.Keys {
			if _, err := ParseKey(k); err != nil {
				return nil, fmt.Errorf("binding %d (%s): key %q: %w", i, trigger, k, err)
			}
		}
		bindings[trigger.Key()] = b.Keys
	}
	return bindings, nil
}

// Map returns the key sequence for a trigger, or nil if not mapped
func (m *Mapper) Map(t Trigger) []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.bindings[t.Key()]
}

// Triggers returns the keys of every bound trigger.
func (m *Mapper) Triggers() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, 0, len(m.bindings))
	for k := range m.bindings {
		out = append(out, k)
	}
	return out
}

// Reload updates the mapper with new configuration. On error the previous
// bindings stay in place.
func (m *Mapper) Reload(cfg *config.Config) error {
	bindings, err := buildBindings(cfg)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.bindings = bindings
	m.mu.Unlock()
	return nil
}
