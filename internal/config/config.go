package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/pleimann/gesture-pad/internal/gesture"
	"github.com/pleimann/gesture-pad/internal/pointer"
)

type Config struct {
	Device    DeviceConfig    `yaml:"device" toml:"device"`
	Input     InputConfig     `yaml:"input" toml:"input"`
	Gestures  GesturesConfig  `yaml:"gestures" toml:"gestures"`
	Conflicts ConflictsConfig `yaml:"conflicts" toml:"conflicts"`
	TUI       TUIConfig       `yaml:"tui" toml:"tui"`
	Bindings  []Binding       `yaml:"bindings" toml:"bindings"`
	Trace     TraceConfig     `yaml:"trace" toml:"trace"`
}

type DeviceConfig struct {
	VendorID       uint16 `yaml:"vendor_id" toml:"vendor_id"`
	ProductID      uint16 `yaml:"product_id" toml:"product_id"`
	PollIntervalMs int    `yaml:"poll_interval_ms" toml:"poll_interval_ms"`
	// ReportSize is the input report buffer size in bytes.
	ReportSize int `yaml:"report_size" toml:"report_size"`
}

type InputConfig struct {
	// Type is the pointer input the gestures listen to: touch, left, middle
	// or right.
	Type            string  `yaml:"type" toml:"type"`
	DensityScale    float32 `yaml:"density_scale" toml:"density_scale"`
	FrameIntervalMs int     `yaml:"frame_interval_ms" toml:"frame_interval_ms"`
}

type GesturesConfig struct {
	Rotation RotationConfig `yaml:"rotation" toml:"rotation"`
	Pinch    PinchConfig    `yaml:"pinch" toml:"pinch"`
	Taps     []TapConfig    `yaml:"taps" toml:"taps"`
}

type RotationConfig struct {
	Enabled *bool `yaml:"enabled,omitempty" toml:"enabled,omitempty"`
	// StepDegrees is how far the pointers turn per emitted trigger.
	StepDegrees float32 `yaml:"step_degrees" toml:"step_degrees"`
}

func (r RotationConfig) IsEnabled() bool {
	return r.Enabled == nil || *r.Enabled
}

type PinchConfig struct {
	Enabled *bool `yaml:"enabled,omitempty" toml:"enabled,omitempty"`
	// StepRatio is the scale change per emitted trigger.
	StepRatio float32 `yaml:"step_ratio" toml:"step_ratio"`
}

func (p PinchConfig) IsEnabled() bool {
	return p.Enabled == nil || *p.Enabled
}

type TapConfig struct {
	Taps     int `yaml:"taps" toml:"taps"`
	Pointers int `yaml:"pointers" toml:"pointers"`
}

type ConflictsConfig struct {
	// Default is the outcome for pairs no rule matches: neither, existing,
	// new or both.
	Default string         `yaml:"default" toml:"default"`
	Rules   []ConflictRule `yaml:"rules,omitempty" toml:"rules,omitempty"`
}

type ConflictRule struct {
	Existing string `yaml:"existing" toml:"existing"`
	New      string `yaml:"new" toml:"new"`
	Result   string `yaml:"result" toml:"result"`
}

type TUIConfig struct {
	Command    string   `yaml:"command" toml:"command"`
	Args       []string `yaml:"args" toml:"args"`
	WorkingDir string   `yaml:"working_dir,omitempty" toml:"working_dir,omitempty"`
	KeyDelayMs int      `yaml:"key_delay_ms" toml:"key_delay_ms"`
}

// Binding maps a gesture trigger such as "tap:2x1" or "rotate_cw" to a key
// sequence.
type Binding struct {
	Trigger string   `yaml:"trigger" toml:"trigger"`
	Keys    []string `yaml:"keys" toml:"keys"`
}

type TraceConfig struct {
	Width  int `yaml:"width" toml:"width"`
	Height int `yaml:"height" toml:"height"`
}

// Load reads a config file. Files ending in .toml are parsed as TOML,
// anything else as YAML.
func Load(path string) (*Config, error) {
	return load(path, true)
}

// LoadGestures reads a config file for commands that drive neither the
// device nor the TUI, such as replay and playground. The device and tui
// sections are not required.
func LoadGestures(path string) (*Config, error) {
	return load(path, false)
}

func load(path string, requireTargets bool) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if isTOML(path) {
		err = toml.Unmarshal(data, &cfg)
	} else {
		err = yaml.Unmarshal(data, &cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyDefaults()

	if requireTargets {
		err = cfg.validateTargets()
	}
	if err == nil {
		err = cfg.validate()
	}
	if err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// Default returns the configuration used when no file is present, e.g. by
// the playground and replay commands. It names no device or TUI.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// InputType returns the parsed input type. Load has already validated it.
func (c *Config) InputType() pointer.InputType {
	t, err := pointer.ParseInputType(c.Input.Type)
	if err != nil {
		return pointer.InputTouch
	}
	return t
}

// validateTargets checks the sections naming the device to read and the
// TUI to drive.
func (c *Config) validateTargets() error {
	if c.Device.VendorID == 0 {
		return fmt.Errorf("device.vendor_id is required")
	}
	if c.Device.ProductID == 0 {
		return fmt.Errorf("device.product_id is required")
	}
	if c.TUI.Command == "" {
		return fmt.Errorf("tui.command is required")
	}
	return nil
}

func (c *Config) validate() error {
	if _, err := pointer.ParseInputType(c.Input.Type); err != nil {
		return fmt.Errorf("input.type: %w", err)
	}
	if c.Device.ReportSize < 6 {
		return fmt.Errorf("device.report_size must be at least 6")
	}
	if c.Input.DensityScale <= 0 {
		return fmt.Errorf("input.density_scale must be positive")
	}

	seenTaps := make(map[TapConfig]bool)
	for i, tap := range c.Gestures.Taps {
		if tap.Taps < 1 || tap.Pointers < 1 {
			return fmt.Errorf("gestures.taps[%d] needs at least one tap and one pointer", i)
		}
		if seenTaps[tap] {
			return fmt.Errorf("duplicate tap gesture: %d taps with %d pointers", tap.Taps, tap.Pointers)
		}
		seenTaps[tap] = true
	}

	if _, err := gesture.ParseConflictResult(c.Conflicts.Default); err != nil {
		return fmt.Errorf("conflicts.default: %w", err)
	}
	for i, rule := range c.Conflicts.Rules {
		if _, err := gesture.ParseKind(rule.Existing); err != nil {
			return fmt.Errorf("conflicts.rules[%d].existing: %w", i, err)
		}
		if _, err := gesture.ParseKind(rule.New); err != nil {
			return fmt.Errorf("conflicts.rules[%d].new: %w", i, err)
		}
		if _, err := gesture.ParseConflictResult(rule.Result); err != nil {
			return fmt.Errorf("conflicts.rules[%d].result: %w", i, err)
		}
	}

	seenTriggers := make(map[string]bool)
	for i, b := range c.Bindings {
		trigger := strings.ToLower(strings.TrimSpace(b.Trigger))
		if trigger == "" {
			return fmt.Errorf("bindings[%d].trigger is required", i)
		}
		if len(b.Keys) == 0 {
			return fmt.Errorf("bindings[%d] (%s) has no keys", i, b.Trigger)
		}
		if seenTriggers[trigger] {
			return fmt.Errorf("duplicate binding for trigger: %s", b.Trigger)
		}
		seenTriggers[trigger] = true
	}

	return nil
}

func (c *Config) applyDefaults() {
	if c.Device.PollIntervalMs == 0 {
		c.Device.PollIntervalMs = 10
	}
	if c.Device.ReportSize == 0 {
		c.Device.ReportSize = 64
	}
	if c.Input.Type == "" {
		c.Input.Type = pointer.InputTouch.String()
	}
	if c.Input.DensityScale == 0 {
		c.Input.DensityScale = 1
	}
	if c.Input.FrameIntervalMs == 0 {
		c.Input.FrameIntervalMs = 16
	}
	if c.Gestures.Rotation.StepDegrees == 0 {
		c.Gestures.Rotation.StepDegrees = 15
	}
	if c.Gestures.Pinch.StepRatio == 0 {
		c.Gestures.Pinch.StepRatio = 0.25
	}
	if c.Conflicts.Default == "" {
		c.Conflicts.Default = gesture.ExistingGesture.String()
	}
	if c.TUI.KeyDelayMs == 0 {
		c.TUI.KeyDelayMs = 10
	}
	if c.Trace.Width == 0 {
		c.Trace.Width = 640
	}
	if c.Trace.Height == 0 {
		c.Trace.Height = 480
	}
}

func isTOML(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".toml")
}

var (
	vendorIDPattern  = regexp.MustCompile(`(?m)^(\s*vendor_id\s*[:=]\s*)(?:0x[0-9A-Fa-f]+|\d+)`)
	productIDPattern = regexp.MustCompile(`(?m)^(\s*product_id\s*[:=]\s*)(?:0x[0-9A-Fa-f]+|\d+)`)
)

// UpdateDeviceIDs updates the vendor_id and product_id in a config file
// while preserving the rest of the file structure and comments. It handles
// both the YAML (key: value) and TOML (key = value) spellings.
func UpdateDeviceIDs(path string, vendorID, productID uint16) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	content := string(data)
	content = vendorIDPattern.ReplaceAllString(content, fmt.Sprintf("${1}0x%04X", vendorID))
	content = productIDPattern.ReplaceAllString(content, fmt.Sprintf("${1}0x%04X", productID))

	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// CreateDefaultConfig creates a new YAML config file with default values
// and the specified device
func CreateDefaultConfig(path string, vendorID, productID uint16) error {
	content := fmt.Sprintf(`# gesture-pad configuration

device:
  vendor_id: 0x%04X
  product_id: 0x%04X
  poll_interval_ms: 10
  report_size: 64

input:
  type: touch
  density_scale: 1.0
  frame_interval_ms: 16

gestures:
  rotation:
    step_degrees: 15
  pinch:
    step_ratio: 0.25
  taps:
    - taps: 1
      pointers: 1
    - taps: 2
      pointers: 1
    - taps: 1
      pointers: 2

# What happens when a gesture starts while another is active.
conflicts:
  default: existing
  rules:
    - existing: pinch
      new: rotation
      result: both
    - existing: rotation
      new: pinch
      result: both

tui:
  command: "your-tui-app"
  args: []
  key_delay_ms: 10

bindings:
  - trigger: "tap:1x1"
    keys: ["enter"]
  - trigger: "tap:2x1"
    keys: ["escape"]
  - trigger: "tap:1x2"
    keys: ["ctrl+c"]
  - trigger: rotate_cw
    keys: ["down"]
  - trigger: rotate_ccw
    keys: ["up"]
  - trigger: pinch_out
    keys: ["pgdown"]
  - trigger: pinch_in
    keys: ["pgup"]

trace:
  width: 640
  height: 480
`, vendorID, productID)

	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}

	return nil
}

// Exists checks if a config file exists
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
