package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/pleimann/gesture-pad/internal/action"
	"github.com/pleimann/gesture-pad/internal/config"
	"github.com/pleimann/gesture-pad/internal/hid"
	"github.com/pleimann/gesture-pad/internal/pointer"
	"github.com/pleimann/gesture-pad/internal/trace"
	"github.com/pleimann/gesture-pad/internal/ui"
)

const Version = "0.1.0"

const defaultConfigPath = "config.yaml"

func main() {
	// Check for subcommands first
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "list-devices":
			runListDevices()
			return
		case "set-device", "select-device":
			runSetDevice(os.Args[2:])
			return
		case "replay":
			runReplay(os.Args[2:])
			return
		case "playground":
			runPlayground(os.Args[2:])
			return
		case "help", "-h", "--help":
			printUsage()
			os.Exit(0)
		}
	}

	// Main command flags
	configPath := flag.String("config", defaultConfigPath, "path to configuration file")
	verbose := flag.Bool("verbose", false, "enable verbose logging")
	version := flag.Bool("version", false, "print version and exit")

	flag.Usage = printUsage
	flag.Parse()

	if *version {
		ui.PrintVersion(Version)
		os.Exit(0)
	}

	watcher, err := config.NewWatcher(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	cfg := watcher.Get()

	if *verbose {
		log.Printf("Loaded configuration from %s", *configPath)
		log.Printf("Device: VendorID=0x%04X, ProductID=0x%04X",
			cfg.Device.VendorID, cfg.Device.ProductID)
		log.Printf("TUI command: %s %v", cfg.TUI.Command, cfg.TUI.Args)
		log.Printf("Gestures: rotation=%t pinch=%t taps=%d, %d binding(s)",
			cfg.Gestures.Rotation.IsEnabled(), cfg.Gestures.Pinch.IsEnabled(),
			len(cfg.Gestures.Taps), len(cfg.Bindings))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	app, err := newApp(watcher, *verbose)
	if err != nil {
		watcher.Stop()
		log.Fatalf("Failed to initialize application: %v", err)
	}
	watcher.Start()

	go func() {
		<-sigChan
		if *verbose {
			log.Println("Received shutdown signal")
		}
		cancel()
	}()

	if err := app.Run(ctx); err != nil && ctx.Err() == nil {
		log.Fatalf("Application error: %v", err)
	}

	if *verbose {
		log.Println("Shutdown complete")
	}
}

func printUsage() {
	ui.PrintUsage(Version)
}

func toUIDevice(d hid.DeviceInfo) ui.DeviceInfo {
	return ui.DeviceInfo{
		VendorID:     d.VendorID,
		ProductID:    d.ProductID,
		Manufacturer: d.Manufacturer,
		Product:      d.Product,
		Touch:        d.IsTouchSurface(),
	}
}

// runListDevices handles the list-devices subcommand
func runListDevices() {
	devices, err := hid.ListDevices()
	if err != nil {
		ui.PrintFatalError("Failed to list devices", err.Error())
		os.Exit(1)
	}
	hid.SortTouchFirst(devices)
	uiDevices := make([]ui.DeviceInfo, len(devices))
	for i, d := range devices {
		uiDevices[i] = toUIDevice(d)
	}
	ui.PrintDeviceList(uiDevices)
}

// runSetDevice handles the set-device subcommand
func runSetDevice(args []string) {
	fs := flag.NewFlagSet("set-device", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "path to configuration file")
	fs.Usage = func() {
		ui.PrintSetDeviceUsage()
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	remaining := fs.Args()

	var vendorID, productID uint16

	if len(remaining) >= 2 {
		vid, err := parseID(remaining[0])
		if err != nil {
			ui.PrintFatalError("Invalid vendor_id", fmt.Sprintf("%q: %v", remaining[0], err))
			os.Exit(1)
		}
		pid, err := parseID(remaining[1])
		if err != nil {
			ui.PrintFatalError("Invalid product_id", fmt.Sprintf("%q: %v", remaining[1], err))
			os.Exit(1)
		}
		vendorID = vid
		productID = pid
		checkDevice(vendorID, productID)
	} else if len(remaining) == 1 {
		ui.PrintFatalError("Invalid arguments", "Both vendor_id and product_id must be provided, or neither")
		os.Exit(1)
	} else {
		device, err := selectDevice()
		if err != nil {
			ui.PrintFatalError("Device selection failed", err.Error())
			os.Exit(1)
		}
		if device == nil {
			fmt.Println(ui.Muted("No device selected"))
			os.Exit(0)
		}
		vendorID = device.VendorID
		productID = device.ProductID
	}

	if config.Exists(*configPath) {
		if err := config.UpdateDeviceIDs(*configPath, vendorID, productID); err != nil {
			ui.PrintFatalError("Failed to update config", err.Error())
			os.Exit(1)
		}
		ui.PrintDeviceUpdated(*configPath, vendorID, productID)
	} else {
		if err := config.CreateDefaultConfig(*configPath, vendorID, productID); err != nil {
			ui.PrintFatalError("Failed to create config", err.Error())
			os.Exit(1)
		}
		ui.PrintDeviceCreated(*configPath, vendorID, productID)
	}
}

// checkDevice warns when the IDs given on the command line name no
// connected device or one without a touch surface. The config is written
// regardless, since the device may simply be unplugged.
func checkDevice(vendorID, productID uint16) {
	info, err := hid.FindDevice(vendorID, productID)
	switch {
	case err != nil:
		fmt.Println(ui.Warning("Could not look up device: " + err.Error()))
	case info == nil:
		fmt.Println(ui.Warning(fmt.Sprintf("No device 0x%04X:0x%04X is connected", vendorID, productID)))
	case !info.IsTouchSurface():
		fmt.Println(ui.Warning(fmt.Sprintf("%s does not report a touch surface", toUIDevice(*info).Name())))
	}
}

// parseID parses a vendor or product ID from string (supports hex with 0x prefix or decimal)
func parseID(s string) (uint16, error) {
	s = strings.TrimSpace(s)

	var val uint64
	var err error

	if strings.HasPrefix(strings.ToLower(s), "0x") {
		val, err = strconv.ParseUint(s[2:], 16, 16)
	} else {
		val, err = strconv.ParseUint(s, 10, 16)
	}

	if err != nil {
		return 0, err
	}

	return uint16(val), nil
}

// selectDevice displays an interactive device selection menu using huh
func selectDevice() (*ui.DeviceInfo, error) {
	devices, err := hid.ListDevices()
	if err != nil {
		return nil, fmt.Errorf("failed to list devices: %w", err)
	}
	hid.SortTouchFirst(devices)

	if len(devices) == 0 {
		return nil, fmt.Errorf("no HID devices found")
	}

	// One entry per vendor/product ID, marked as touch if any of its
	// interfaces is a touch surface.
	index := make(map[uint32]int)
	var unique []ui.DeviceInfo

	for _, d := range devices {
		if d.VendorID == 0 && d.ProductID == 0 {
			continue
		}

		key := uint32(d.VendorID)<<16 | uint32(d.ProductID)
		if i, ok := index[key]; ok {
			unique[i].Touch = unique[i].Touch || d.IsTouchSurface()
			continue
		}
		index[key] = len(unique)
		unique = append(unique, toUIDevice(d))
	}

	if len(unique) == 0 {
		return nil, fmt.Errorf("no identifiable HID devices found")
	}

	return ui.SelectDevice(unique)
}

// loadGestureConfig loads the config for the replay and playground
// commands, falling back to the defaults when the file does not exist.
func loadGestureConfig(path string) *config.Config {
	if !config.Exists(path) {
		fmt.Println(ui.Muted(fmt.Sprintf("No config at %s, using default gestures", path)))
		return config.Default()
	}
	cfg, err := config.LoadGestures(path)
	if err != nil {
		ui.PrintFatalError("Failed to load config", err.Error())
		os.Exit(1)
	}
	return cfg
}

// writeTrace renders a script and its notes to a PNG file.
func writeTrace(cfg *config.Config, path string, script *trace.Script, notes []trace.Note) error {
	r := trace.NewRenderer(cfg.Trace.Width, cfg.Trace.Height)
	r.RenderScript(script, notes)

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create trace image: %w", err)
	}
	if err := r.WritePNG(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// runReplay handles the replay subcommand
func runReplay(args []string) {
	fs := flag.NewFlagSet("replay", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "path to configuration file")
	pngPath := fs.String("png", "", "render the trace to a PNG file")
	fs.Usage = func() {
		ui.PrintReplayUsage()
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	if fs.NArg() != 1 {
		ui.PrintFatalError("Invalid arguments", "Exactly one script file must be given")
		os.Exit(1)
	}
	scriptPath := fs.Arg(0)

	cfg := loadGestureConfig(*configPath)
	script, err := trace.LoadScript(scriptPath)
	if err != nil {
		ui.PrintFatalError("Failed to load script", err.Error())
		os.Exit(1)
	}
	if script.Input != "" {
		cfg.Input.Type = script.Input
	}

	fired := 0
	var p *pipeline
	p, err = newPipeline(cfg, true, func(t action.Trigger) {
		fired++
		ui.PrintTrigger(p.pointers.Now(), t.String(), p.mapper.Map(t))
	})
	if err != nil {
		ui.PrintFatalError("Failed to build gestures", err.Error())
		os.Exit(1)
	}
	defer p.close()

	fmt.Println(ui.Title("Replaying " + scriptPath))
	if err := script.Play(p.pointers, p.gestures.OnUpdate); err != nil {
		ui.PrintFatalError("Replay failed", err.Error())
		os.Exit(1)
	}

	notes := p.recorder.Notes()
	lines := make([]string, len(notes))
	for i, n := range notes {
		lines[i] = n.String()
	}

	if *pngPath != "" {
		if err := writeTrace(cfg, *pngPath, script, notes); err != nil {
			ui.PrintFatalError("Failed to render trace", err.Error())
			os.Exit(1)
		}
	}

	ui.PrintReplaySummary(scriptPath, fired, lines, *pngPath)
}

// activityLog keeps the most recent playground activity lines.
type activityLog struct {
	lines []string
	limit int
}

func (l *activityLog) add(line string) {
	l.lines = append(l.lines, line)
	if len(l.lines) > l.limit {
		l.lines = l.lines[len(l.lines)-l.limit:]
	}
}

// runPlayground handles the playground subcommand
func runPlayground(args []string) {
	fs := flag.NewFlagSet("playground", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "path to configuration file")
	recordPath := fs.String("record", "", "save the session as a script")
	pngPath := fs.String("png", "", "render the session to a PNG file")
	fs.Usage = func() {
		ui.PrintPlaygroundUsage()
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	cfg := loadGestureConfig(*configPath)
	// The mouse stands in for a finger unless a mouse button is configured.
	if cfg.InputType() == pointer.InputTouch {
		cfg.Input.Type = pointer.InputLeftMouseButton.String()
	}

	activity := &activityLog{limit: 50}
	var p *pipeline
	p, err := newPipeline(cfg, true, func(t action.Trigger) {
		keys := p.mapper.Map(t)
		mapped := "(unbound)"
		if len(keys) > 0 {
			mapped = strings.Join(keys, " ")
		}
		activity.add(fmt.Sprintf("%7.3fs %s → %s", p.pointers.Now(), ui.Trigger(t.String()), mapped))
	})
	if err != nil {
		ui.PrintFatalError("Failed to build gestures", err.Error())
		os.Exit(1)
	}
	defer p.close()

	pg := ui.Playground{
		Pointers: p.pointers,
		Step:     p.step,
		Activity: func() []string { return activity.lines },
		Frame:    time.Duration(cfg.Input.FrameIntervalMs) * time.Millisecond,
	}
	if err := pg.Run(); err != nil {
		ui.PrintFatalError("Playground failed", err.Error())
		os.Exit(1)
	}

	script := p.recorder.Script()
	script.Name = "playground session"
	script.Input = cfg.Input.Type

	if *recordPath != "" {
		if err := script.Save(*recordPath); err != nil {
			ui.PrintFatalError("Failed to save recording", err.Error())
			os.Exit(1)
		}
		ui.PrintSaved("Recording", *recordPath)
	}
	if *pngPath != "" {
		if err := writeTrace(cfg, *pngPath, script, p.recorder.Notes()); err != nil {
			ui.PrintFatalError("Failed to render trace", err.Error())
			os.Exit(1)
		}
		ui.PrintSaved("Trace", *pngPath)
	}
}
