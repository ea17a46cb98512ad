package hid

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/karalabe/hid"

	"github.com/pleimann/gesture-pad/internal/utils"
)

// ErrClosed is returned by operations on a closed device.
var ErrClosed = errors.New("device closed")

// Device represents a connection to a touch surface HID device
type Device struct {
	vendorID   uint16
	productID  uint16
	reportSize int
	device     *hid.Device
	mu         sync.Mutex
	closed     bool
}

// DefaultReportSize fits a full contact frame.
const DefaultReportSize = 64

// NewDevice opens the HID device with the given vendor and product IDs.
// reportSize is the input report buffer size; 0 selects DefaultReportSize.
func NewDevice(vendorID, productID uint16, reportSize int) (*Device, error) {
	if reportSize <= 0 {
		reportSize = DefaultReportSize
	}
	if reportSize < frameHeaderSize {
		return nil, fmt.Errorf("report size %d is smaller than a contact frame header", reportSize)
	}
	devices := enumerate(vendorID, productID)
	if len(devices) == 0 {
		// List available devices to help user find the right one
		allDevices := hid.Enumerate(0, 0)
		if len(allDevices) == 0 {
			return nil, fmt.Errorf("no HID devices found on system - check USB connection")
		}
		name := utils.ExecutableName()
		return nil, fmt.Errorf("no device found with VendorID=0x%04X, ProductID=0x%04X\n"+
			"  Run '%s list-devices' to see available devices\n"+
			"  Run '%s set-device' to configure the correct device",
			vendorID, productID, name, name)
	}

	dev, err := openFirst(devices)
	if err == nil {
		return &Device{
			vendorID:   vendorID,
			productID:  productID,
			reportSize: reportSize,
			device:     dev,
		}, nil
	}

	if len(devices) == 1 {
		return nil, fmt.Errorf("failed to open device 0x%04X:0x%04X: %w\n"+
			"  This may be a permissions issue. On Linux, add a udev rule granting\n"+
			"  access to /dev/hidraw*; on macOS, allow your terminal under\n"+
			"  System Settings > Privacy & Security > Input Monitoring",
			vendorID, productID, err)
	}
	return nil, fmt.Errorf("failed to open any of %d interfaces for device 0x%04X:0x%04X: %w",
		len(devices), vendorID, productID, err)
}

// openFirst opens the first interface that can be opened, trying touch
// surfaces before the device's other interfaces.
func openFirst(devices []hid.DeviceInfo) (*hid.Device, error) {
	var lastErr error
	for _, info := range devices {
		dev, err := info.Open()
		if err == nil {
			return dev, nil
		}
		lastErr = err
	}
	return nil, lastErr
}

// Close closes the HID device connection. A ReadFrames call blocked in a
// read returns once the device is closed.
func (d *Device) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return nil
	}
	d.closed = true

	if d.device != nil {
		return d.device.Close()
	}
	return nil
}

// SetInputMode switches the surface between mouse emulation and contact
// frames.
func (d *Device) SetInputMode(mode byte) error {
	return d.Write(EncodeInputMode(mode))
}

// ReadFrames reads contact frames until ctx is done or the device fails.
// Reports that are not contact frames are skipped.
func (d *Device) ReadFrames(ctx context.Context, frames chan<- TouchFrame) error {
	buf := make([]byte, d.reportSize)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		d.mu.Lock()
		if d.closed {
			d.mu.Unlock()
			return ErrClosed
		}
		dev := d.device
		d.mu.Unlock()

		n, err := dev.Read(buf)
		if err != nil {
			return fmt.Errorf("read error: %w", err)
		}
		if n == 0 {
			continue
		}

		frame, err := ParseFrame(buf[:n])
		if err != nil {
			continue
		}

		select {
		case frames <- *frame:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Write sends an output report to the HID device
func (d *Device) Write(data []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return ErrClosed
	}

	_, err := d.device.Write(data)
	return err
}

// Reconnect reopens the device after it was unplugged or closed.
func (d *Device) Reconnect() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.device != nil {
		d.device.Close()
		d.device = nil
	}
	d.closed = false

	devices := enumerate(d.vendorID, d.productID)
	if len(devices) == 0 {
		return fmt.Errorf("device 0x%04X:0x%04X not found", d.vendorID, d.productID)
	}

	dev, err := openFirst(devices)
	if err != nil {
		return fmt.Errorf("failed to open device: %w", err)
	}
	d.device = dev
	return nil
}

// WaitForDevice polls until the device can be reopened or ctx is done.
func (d *Device) WaitForDevice(ctx context.Context, pollInterval time.Duration) error {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := d.Reconnect(); err == nil {
				return nil
			}
		}
	}
}
