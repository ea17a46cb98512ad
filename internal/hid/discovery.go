package hid

import (
	"sort"

	"github.com/karalabe/hid"
)

// Digitizer usage page and the touch pad / touch screen usages on it.
const (
	UsagePageDigitizer uint16 = 0x0D
	UsageTouchScreen   uint16 = 0x04
	UsageTouchPad      uint16 = 0x05
)

// DeviceInfo contains information about a discovered HID device
type DeviceInfo struct {
	VendorID     uint16
	ProductID    uint16
	Path         string
	Manufacturer string
	Product      string
	SerialNumber string
	UsagePage    uint16
	Usage        uint16
}

// IsTouchSurface reports whether the interface describes itself as a touch
// pad or touch screen.
func (d DeviceInfo) IsTouchSurface() bool {
	return d.UsagePage == UsagePageDigitizer && (d.Usage == UsageTouchPad || d.Usage == UsageTouchScreen)
}

func fromHID(d hid.DeviceInfo) DeviceInfo {
	return DeviceInfo{
		VendorID:     d.VendorID,
		ProductID:    d.ProductID,
		Path:         d.Path,
		Manufacturer: d.Manufacturer,
		Product:      d.Product,
		SerialNumber: d.Serial,
		UsagePage:    d.UsagePage,
		Usage:        d.Usage,
	}
}

// ListDevices returns a list of all available HID devices
func ListDevices() ([]DeviceInfo, error) {
	devices := hid.Enumerate(0, 0)

	result := make([]DeviceInfo, len(devices))
	for i, d := range devices {
		result[i] = fromHID(d)
	}
	return result, nil
}

// FindDevice returns the interface of a device that gestures are read from,
// preferring a touch surface. It returns nil if nothing matches.
func FindDevice(vendorID, productID uint16) (*DeviceInfo, error) {
	devices := enumerate(vendorID, productID)
	if len(devices) == 0 {
		return nil, nil
	}
	best := fromHID(devices[0])
	return &best, nil
}

// SortTouchFirst reorders devices so that touch surfaces come first,
// keeping the enumeration order otherwise.
func SortTouchFirst(devices []DeviceInfo) {
	sort.SliceStable(devices, func(i, j int) bool {
		return devices[i].IsTouchSurface() && !devices[j].IsTouchSurface()
	})
}

// enumerate lists the interfaces of one device, touch surfaces first.
func enumerate(vendorID, productID uint16) []hid.DeviceInfo {
	devices := hid.Enumerate(vendorID, productID)
	sort.SliceStable(devices, func(i, j int) bool {
		return fromHID(devices[i]).IsTouchSurface() && !fromHID(devices[j]).IsTouchSurface()
	})
	return devices
}
