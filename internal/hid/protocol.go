package hid

import (
	"encoding/binary"
	"fmt"
)

// Report IDs
const (
	ReportIDContacts  byte = 0x03
	ReportIDInputMode byte = 0x04
)

// Input modes accepted by the input mode feature report. Surfaces start in
// mouse emulation and only send contact frames once switched to touch.
const (
	InputModeMouse byte = 0x00
	InputModeTouch byte = 0x03
)

const (
	// MaxContacts is the most contacts a single frame can carry.
	MaxContacts = 5

	frameHeaderSize = 6
	contactSize     = 6

	contactFlagTip byte = 0x01
)

// Contact is one finger on the surface as reported in a frame.
type Contact struct {
	ID uint8
	// Tip is set while the finger touches the surface. A contact reported
	// with Tip cleared is lifting.
	Tip bool
	X   uint16
	Y   uint16
}

// TouchFrame is a snapshot of every contact on the surface.
type TouchFrame struct {
	Timestamp uint32 // ms since device boot
	Contacts  []Contact
}

// ParseFrame parses a raw contact report.
// Expected format:
//
//	Byte 0: Report ID (0x03)
//	Byte 1: Contact count (at most 5)
//	Byte 2-5: Timestamp (ms since boot, little-endian u32)
//	Then per contact, 6 bytes:
//	  Byte 0: Contact ID
//	  Byte 1: Flags (bit 0 = tip switch)
//	  Byte 2-3: X (little-endian u16)
//	  Byte 4-5: Y (little-endian u16)
func ParseFrame(data []byte) (*TouchFrame, error) {
	if len(data) < frameHeaderSize {
		return nil, fmt.Errorf("frame data too short: %d bytes", len(data))
	}

	if data[0] != ReportIDContacts {
		return nil, fmt.Errorf("unexpected report ID: 0x%02X", data[0])
	}

	count := int(data[1])
	if count > MaxContacts {
		return nil, fmt.Errorf("too many contacts: %d", count)
	}
	if want := frameHeaderSize + count*contactSize; len(data) < want {
		return nil, fmt.Errorf("frame with %d contacts needs %d bytes, got %d", count, want, len(data))
	}

	frame := &TouchFrame{
		Timestamp: binary.LittleEndian.Uint32(data[2:6]),
		Contacts:  make([]Contact, count),
	}
	for i := range frame.Contacts {
		c := data[frameHeaderSize+i*contactSize:]
		frame.Contacts[i] = Contact{
			ID:  c[0],
			Tip: c[1]&contactFlagTip != 0,
			X:   binary.LittleEndian.Uint16(c[2:4]),
			Y:   binary.LittleEndian.Uint16(c[4:6]),
		}
	}
	return frame, nil
}

// Encode serializes the frame in the format ParseFrame reads.
func (f *TouchFrame) Encode() []byte {
	buf := make([]byte, frameHeaderSize+len(f.Contacts)*contactSize)
	buf[0] = ReportIDContacts
	buf[1] = byte(len(f.Contacts))
	binary.LittleEndian.PutUint32(buf[2:6], f.Timestamp)

	for i, c := range f.Contacts {
		b := buf[frameHeaderSize+i*contactSize:]
		b[0] = c.ID
		if c.Tip {
			b[1] = contactFlagTip
		}
		binary.LittleEndian.PutUint16(b[2:4], c.X)
		binary.LittleEndian.PutUint16(b[4:6], c.Y)
	}
	return buf
}

// EncodeInputMode builds the feature report that switches the surface's
// input mode.
func EncodeInputMode(mode byte) []byte {
	return []byte{ReportIDInputMode, mode}
}
