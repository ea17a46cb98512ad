// Package policy builds the gesture conflict delegate from configuration.
package policy

import (
	"fmt"
	"sync"

	"github.com/pleimann/gesture-pad/internal/config"
	"github.com/pleimann/gesture-pad/internal/gesture"
)

type pair struct {
	existing  gesture.Kind
	candidate gesture.Kind
}

// Table resolves conflicts by looking up the kinds of the two gestures.
// Pairs without a rule get the default outcome. Reload may be called from
// the config watcher goroutine while Resolve runs on the input goroutine.
type Table struct {
	mu       sync.RWMutex
	rules    map[pair]gesture.ConflictResult
	fallback gesture.ConflictResult
}

// New builds a table from the conflicts section of cfg.
func New(cfg *config.Config) (*Table, error) {
	t := &Table{}
	if err := t.Reload(cfg); err != nil {
		return nil, err
	}
	return t, nil
}

// Reload replaces the rules with those in cfg. On error the table is left
// unchanged.
func (t *Table) Reload(cfg *config.Config) error {
	fallback, err := gesture.ParseConflictResult(cfg.Conflicts.Default)
	if err != nil {
		return fmt.Errorf("conflicts.default: %w", err)
	}

	rules := make(map[pair]gesture.ConflictResult, len(cfg.Conflicts.Rules))
	for i, r := range cfg.Conflicts.Rules {
		existing, err := gesture.ParseKind(r.Existing)
		if err != nil {
			return fmt.Errorf("conflict rule %d: %w", i, err)
		}
		candidate, err := gesture.ParseKind(r.New)
		if err != nil {
			return fmt.Errorf("conflict rule %d: %w", i, err)
		}
		result, err := gesture.ParseConflictResult(r.Result)
		if err != nil {
			return fmt.Errorf("conflict rule %d: %w", i, err)
		}
		rules[pair{existing, candidate}] = result
	}

	t.mu.Lock()
	t.rules = rules
	t.fallback = fallback
	t.mu.Unlock()
	return nil
}

// Resolve has the gesture.ConflictResolver signature, so it can be passed
// to gesture.System.SetConflictResolutionDelegate directly.
func (t *Table) Resolve(existing, candidate gesture.Gesture) gesture.ConflictResult {
	return t.Lookup(existing.Kind(), candidate.Kind())
}

// Lookup returns the outcome for a pair of gesture kinds.
func (t *Table) Lookup(existing, candidate gesture.Kind) gesture.ConflictResult {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if r, ok := t.rules[pair{existing, candidate}]; ok {
		return r
	}
	return t.fallback
}
