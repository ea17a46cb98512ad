package action

import (
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

// KeyWriter is the interface for writing key sequences
type KeyWriter interface {
	WriteKey(key KeyPress) error
}

// Executor writes key sequences for triggered bindings
type Executor struct {
	writer KeyWriter
	delay  time.Duration
}

// NewExecutor creates a new action executor. delay is the pause between
// consecutive keys of a sequence; TUIs that debounce input need a few ms.
func NewExecutor(writer KeyWriter, delay time.Duration) *Executor {
	return &Executor{writer: writer, delay: delay}
}

// Execute parses every key first, so a sequence with a bad key writes
// nothing, then writes them in order.
func (e *Executor) Execute(keys []string) error {
	presses := make([]KeyPress, 0, len(keys))
	for _, keyStr := range keys {
		key, err := ParseKey(keyStr)
		if err != nil {
			return fmt.Errorf("invalid key %q: %w", keyStr, err)
		}
		presses = append(presses, key)
	}

	for i, key := range presses {
		if i > 0 && e.delay > 0 {
			time.Sleep(e.delay)
		}
		if err := e.writer.WriteKey(key); err != nil {
			return fmt.Errorf("failed to write key %q: %w", keys[i], err)
		}
	}
	return nil
}

// KeyPress represents a parsed key with modifiers
type KeyPress struct {
	Ctrl  bool
	Alt   bool
	Shift bool
	Meta  bool
	Key   string // The base key (e.g., "c", "enter", "f1")
}

// ParseKey parses a key string like "ctrl+shift+c" into a KeyPress
func ParseKey(s string) (KeyPress, error) {
	var kp KeyPress

	parts := strings.Split(strings.ToLower(s), "+")
	for i, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		// Last part is the actual key
		if i == len(parts)-1 {
			kp.Key = part
			break
		}

		switch part {
		case "ctrl", "control":
			kp.Ctrl = true
		case "alt", "option":
			kp.Alt = true
		case "shift":
			kp.Shift = true
		case "meta", "cmd", "command", "win", "super":
			kp.Meta = true
		default:
			return KeyPress{}, fmt.Errorf("unknown modifier: %s", part)
		}
	}

	if kp.Key == "" {
		return KeyPress{}, fmt.Errorf("no key specified")
	}

	if !isValidKey(kp.Key) {
		return KeyPress{}, fmt.Errorf("invalid key: %s", kp.Key)
	}

	return kp, nil
}

// namedKey describes how a named key is encoded for an xterm-style
// terminal. Keys with a final byte accept modifiers as a CSI parameter;
// the others are sent as plain bytes.
type namedKey struct {
	plain string
	// code and final build the modified form ESC [ code ; mod final.
	code  string
	final byte
}

var namedKeys = map[string]namedKey{
	"enter":     {plain: "\r"},
	"return":    {plain: "\r"},
	"tab":       {plain: "\t"},
	"esc":       {plain: "\x1b"},
	"escape":    {plain: "\x1b"},
	"space":     {plain: " "},
	"backspace": {plain: "\x7f"},
	"delete":    {plain: "\x1b[3~", code: "3", final: '~'},
	"del":       {plain: "\x1b[3~", code: "3", final: '~'},
	"insert":    {plain: "\x1b[2~", code: "2", final: '~'},
	"ins":       {plain: "\x1b[2~", code: "2", final: '~'},
	"home":      {plain: "\x1b[H", code: "1", final: 'H'},
	"end":       {plain: "\x1b[F", code: "1", final: 'F'},
	"pageup":    {plain: "\x1b[5~", code: "5", final: '~'},
	"pgup":      {plain: "\x1b[5~", code: "5", final: '~'},
	"pagedown":  {plain: "\x1b[6~", code: "6", final: '~'},
	"pgdn":      {plain: "\x1b[6~", code: "6", final: '~'},
	"pgdown":    {plain: "\x1b[6~", code: "6", final: '~'},
	"up":        {plain: "\x1b[A", code: "1", final: 'A'},
	"down":      {plain: "\x1b[B", code: "1", final: 'B'},
	"right":     {plain: "\x1b[C", code: "1", final: 'C'},
	"left":      {plain: "\x1b[D", code: "1", final: 'D'},
	"f1":        {plain: "\x1bOP", code: "1", final: 'P'},
	"f2":        {plain: "\x1bOQ", code: "1", final: 'Q'},
	"f3":        {plain: "\x1bOR", code: "1", final: 'R'},
	"f4":        {plain: "\x1bOS", code: "1", final: 'S'},
	"f5":        {plain: "\x1b[15~", code: "15", final: '~'},
	"f6":        {plain: "\x1b[17~", code: "17", final: '~'},
	"f7":        {plain: "\x1b[18~", code: "18", final: '~'},
	"f8":        {plain: "\x1b[19~", code: "19", final: '~'},
	"f9":        {plain: "\x1b[20~", code: "20", final: '~'},
	"f10":       {plain: "\x1b[21~", code: "21", final: '~'},
	"f11":       {plain: "\x1b[23~", code: "23", final: '~'},
	"f12":       {plain: "\x1b[24~", code: "24", final: '~'},
}

// isValidKey checks if a key name is valid
func isValidKey(key string) bool {
	if utf8.RuneCountInString(key) == 1 {
		return true
	}
	_, ok := namedKeys[key]
	return ok
}

// modifierParam is the xterm modifier parameter: 1 plus a bit per modifier.
func (kp KeyPress) modifierParam() int {
	m := 1
	if kp.Shift {
		m += 1
	}
	if kp.Alt {
		m += 2
	}
	if kp.Ctrl {
		m += 4
	}
	if kp.Meta {
		m += 8
	}
	return m
}

// ToBytes converts a KeyPress to the bytes to write to a PTY
func (kp KeyPress) ToBytes() []byte {
	if nk, ok := namedKeys[kp.Key]; ok {
		return kp.namedBytes(nk)
	}

	if len(kp.Key) != 1 {
		return nil
	}
	char := kp.Key[0]

	if kp.Ctrl && !kp.Meta {
		if b, ok := controlByte(char); ok {
			if kp.Alt {
				return []byte{0x1b, b}
			}
			return []byte{b}
		}
	}

	if kp.Shift && char >= 'a' && char <= 'z' {
		char -= 'a' - 'A'
	}
	if kp.Alt {
		return []byte{0x1b, char}
	}
	return []byte{char}
}

func (kp KeyPress) namedBytes(nk namedKey) []byte {
	mod := kp.modifierParam()
	switch {
	case kp.Key == "tab" && mod == 2:
		// shift+tab is the back-tab sequence.
		return []byte("\x1b[Z")
	case mod > 1 && nk.final != 0:
		return []byte("\x1b[" + nk.code + ";" + strconv.Itoa(mod) + string(nk.final))
	case kp.Alt:
		return append([]byte{0x1b}, nk.plain...)
	}
	return []byte(nk.plain)
}

// controlByte maps a character to its ASCII control code, as typed with
// ctrl held.
func controlByte(char byte) (byte, bool) {
	switch {
	case char >= 'a' && char <= 'z':
		return char - 'a' + 1, true
	case char >= 'A' && char <= 'Z':
		return char - 'A' + 1, true
	}
	switch char {
	case '@', ' ':
		return 0x00, true
	case '[':
		return 0x1b, true
	case '\\':
		return 0x1c, true
	case ']':
		return 0x1d, true
	case '^':
		return 0x1e, true
	case '_':
		return 0x1f, true
	case '?':
		return 0x7f, true
	}
	return 0, false
}
