package main

import (
	"fmt"
	"log"

	"github.com/pleimann/gesture-pad/internal/action"
	"github.com/pleimann/gesture-pad/internal/config"
	"github.com/pleimann/gesture-pad/internal/gesture"
	"github.com/pleimann/gesture-pad/internal/policy"
	"github.com/pleimann/gesture-pad/internal/pointer"
	"github.com/pleimann/gesture-pad/internal/trace"
)

// pipeline is the gesture side of the application: pointer input goes in,
// triggers come out. Everything except reload preparation runs on the
// goroutine that calls step.
type pipeline struct {
	pointers *pointer.System
	gestures *gesture.System
	policy   *policy.Table
	mapper   *action.Mapper
	binder   *action.Binder
	recorder *trace.Recorder

	rotation *gesture.RotationGesture
	pinch    *gesture.PinchGesture
	taps     []*gesture.TapGesture
}

// newPipeline builds the pointer and gesture systems described by cfg.
// emit is called for every trigger the gestures produce. If record is set
// a trace recorder is attached before the gestures so that its notes line
// up with the input that caused them.
func newPipeline(cfg *config.Config, record bool, emit func(action.Trigger)) (*pipeline, error) {
	table, err := policy.New(cfg)
	if err != nil {
		return nil, err
	}
	mapper, err := action.NewMapper(cfg)
	if err != nil {
		return nil, err
	}

	p := &pipeline{
		pointers: pointer.NewSystem(),
		gestures: gesture.NewSystem(),
		policy:   table,
		mapper:   mapper,
	}
	p.binder = action.NewBinder(cfg.Gestures.Rotation.StepDegrees, cfg.Gestures.Pinch.StepRatio, emit)

	if record {
		p.recorder = trace.NewRecorder(p.pointers)
	}
	p.gestures.Attach(p.pointers)
	p.gestures.SetConflictResolutionDelegate(p.policy.Resolve)
	p.buildGestures(cfg)

	return p, nil
}

// buildGestures registers a gesture for every enabled recognizer in cfg and
// binds it to the trigger emitter.
func (p *pipeline) buildGestures(cfg *config.Config) {
	input := cfg.InputType()
	density := cfg.Input.DensityScale

	if cfg.Gestures.Rotation.IsEnabled() {
		p.rotation = gesture.NewRotationGesture(input, density)
		p.gestures.AddGesture(p.rotation)
		p.binder.BindRotation(p.rotation)
		if p.recorder != nil {
			p.recorder.WatchRotation(p.rotation)
		}
	}
	if cfg.Gestures.Pinch.IsEnabled() {
		p.pinch = gesture.NewPinchGesture(input, density)
		p.gestures.AddGesture(p.pinch)
		p.binder.BindPinch(p.pinch)
		if p.recorder != nil {
			p.recorder.WatchPinch(p.pinch)
		}
	}
	for _, tc := range cfg.Gestures.Taps {
		tap := gesture.NewTapGesture(tc.Taps, tc.Pointers, input, density)
		p.taps = append(p.taps, tap)
		p.gestures.AddGesture(tap)
		p.binder.BindTap(tap)
		if p.recorder != nil {
			p.recorder.WatchTap(tap)
		}
	}
}

// removeGestures unregisters every gesture. Active ones are cancelled.
func (p *pipeline) removeGestures() {
	p.binder.Close()
	for _, g := range p.gestures.Gestures() {
		p.gestures.RemoveGesture(g)
	}
	p.rotation = nil
	p.pinch = nil
	p.taps = nil
}

// step delivers queued pointer input and advances the gestures by dt
// seconds.
func (p *pipeline) step(dt float32) {
	p.pointers.ProcessQueuedInput()
	p.gestures.OnUpdate(dt)
}

// reload applies a new config. Bindings are checked first, since config
// validation does not parse their triggers and keys, so that a bad binding
// leaves the pipeline as it was. Gestures are rebuilt, which cancels any
// gesture in progress.
func (p *pipeline) reload(cfg *config.Config) error {
	if err := p.mapper.Reload(cfg); err != nil {
		return fmt.Errorf("bindings: %w", err)
	}
	if err := p.policy.Reload(cfg); err != nil {
		return fmt.Errorf("conflict policy: %w", err)
	}
	p.binder.SetSteps(cfg.Gestures.Rotation.StepDegrees, cfg.Gestures.Pinch.StepRatio)

	p.removeGestures()
	p.buildGestures(cfg)

	log.Printf("Gestures rebuilt: %d registered, %d binding(s)", len(p.gestures.Gestures()), len(p.mapper.Triggers()))
	return nil
}

func (p *pipeline) close() {
	p.binder.Close()
	p.gestures.Close()
	if p.recorder != nil {
		p.recorder.Close()
	}
}
