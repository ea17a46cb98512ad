package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/pleimann/gesture-pad/internal/action"
	"github.com/pleimann/gesture-pad/internal/config"
	"github.com/pleimann/gesture-pad/internal/hid"
	"github.com/pleimann/gesture-pad/internal/pty"
)

const (
	// actionQueueSize bounds how many key sequences may wait for the TUI.
	actionQueueSize = 32
	// minReconnectPoll keeps device enumeration cheap while waiting for a
	// disconnected surface.
	minReconnectPoll = 250 * time.Millisecond
)

type App struct {
	config   *config.Config
	watcher  *config.Watcher
	verbose  bool
	device   *hid.Device
	contacts *hid.ContactTracker
	pipeline *pipeline
	executor *action.Executor
	host     *pty.Host

	actions chan []string
	reloads chan *config.Config
}

func newApp(watcher *config.Watcher, verbose bool) (*App, error) {
	cfg := watcher.Get()
	app := &App{
		config:  cfg,
		watcher: watcher,
		verbose: verbose,
		actions: make(chan []string, actionQueueSize),
		reloads: make(chan *config.Config, 1),
	}

	p, err := newPipeline(cfg, false, app.onTrigger)
	if err != nil {
		return nil, fmt.Errorf("failed to build gestures: %w", err)
	}
	app.pipeline = p
	app.contacts = hid.NewContactTracker(p.pointers)

	device, err := hid.NewDevice(cfg.Device.VendorID, cfg.Device.ProductID, cfg.Device.ReportSize)
	if err != nil {
		p.close()
		return nil, fmt.Errorf("failed to open HID device: %w", err)
	}
	app.device = device
	if err := device.SetInputMode(hid.InputModeTouch); err != nil && verbose {
		log.Printf("Device did not accept touch input mode: %v", err)
	}

	host, err := pty.NewHost(cfg.TUI.Command, cfg.TUI.Args, cfg.TUI.WorkingDir)
	if err != nil {
		p.close()
		device.Close()
		return nil, fmt.Errorf("failed to create PTY host: %w", err)
	}
	app.host = host
	app.executor = action.NewExecutor(host, time.Duration(cfg.TUI.KeyDelayMs)*time.Millisecond)

	// Reloads are handed to the input loop, which owns the gestures.
	watcher.OnReload(func(cfg *config.Config) {
		select {
		case app.reloads <- cfg:
		default:
			// A newer reload replaces one that has not been applied yet.
			select {
			case <-app.reloads:
			default:
			}
			app.reloads <- cfg
		}
	})

	return app, nil
}

// onTrigger runs on the input loop for every trigger the gestures emit.
func (a *App) onTrigger(t action.Trigger) {
	keys := a.pipeline.mapper.Map(t)
	if a.verbose {
		log.Printf("Gesture trigger: %s -> %v", t, keys)
	}
	if len(keys) == 0 {
		return
	}
	select {
	case a.actions <- keys:
	default:
		log.Printf("Dropping %s: TUI is not keeping up", t)
	}
}

// runActions writes queued key sequences to the TUI so that key delays
// never stall gesture input.
func (a *App) runActions(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case keys := <-a.actions:
			if err := a.executor.Execute(keys); err != nil {
				log.Printf("Failed to execute action: %v", err)
			}
		}
	}
}

func (a *App) readFrames(ctx context.Context) <-chan hid.TouchFrame {
	frames := make(chan hid.TouchFrame, 64)
	go func() {
		defer close(frames)
		if err := a.device.ReadFrames(ctx, frames); err != nil && ctx.Err() == nil {
			log.Printf("HID read error: %v", err)
		}
	}()
	return frames
}

func (a *App) Run(ctx context.Context) error {
	defer a.shutdown()

	if err := a.host.Start(ctx); err != nil {
		return fmt.Errorf("failed to start PTY: %w", err)
	}
	restore, err := a.host.Attach(os.Stdin, os.Stdout)
	if err != nil {
		log.Printf("Terminal passthrough disabled: %v", err)
	} else {
		defer restore()
	}

	go a.runActions(ctx)

	frameInterval := time.Duration(a.config.Input.FrameIntervalMs) * time.Millisecond
	ticker := time.NewTicker(frameInterval)
	defer ticker.Stop()
	last := time.Now()

	frames := a.readFrames(ctx)

	for {
		select {
		case <-ctx.Done():
			return nil

		case <-a.host.Done():
			if err := a.host.ExitErr(); err != nil {
				return fmt.Errorf("TUI exited: %w", err)
			}
			return nil

		case frame, ok := <-frames:
			if ok {
				a.contacts.Apply(&frame)
				continue
			}
			if err := a.reconnect(ctx); err != nil {
				return err
			}
			frames = a.readFrames(ctx)

		case now := <-ticker.C:
			a.pipeline.step(float32(now.Sub(last).Seconds()))
			last = now

		case cfg := <-a.reloads:
			if err := a.pipeline.reload(cfg); err != nil {
				log.Printf("Config reload not applied: %v", err)
				continue
			}
			a.config = cfg
		}
	}
}

// reconnect releases every contact, so gestures in progress end cleanly,
// and waits for the device to come back.
func (a *App) reconnect(ctx context.Context) error {
	log.Println("Touch surface disconnected, waiting for it to return")
	a.contacts.Reset()
	a.pipeline.step(0)

	poll := max(time.Duration(a.config.Device.PollIntervalMs)*time.Millisecond, minReconnectPoll)
	if err := a.device.WaitForDevice(ctx, poll); err != nil {
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return fmt.Errorf("touch surface did not return: %w", err)
	}
	if err := a.device.SetInputMode(hid.InputModeTouch); err != nil && a.verbose {
		log.Printf("Device did not accept touch input mode: %v", err)
	}
	log.Println("Touch surface reconnected")
	return nil
}

func (a *App) shutdown() {
	if a.verbose {
		log.Println("Shutting down...")
	}
	a.watcher.Stop()
	a.pipeline.close()
	a.host.Stop()
	a.device.Close()
}
