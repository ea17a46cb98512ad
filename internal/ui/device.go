package ui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
)

// DeviceInfo contains information about a HID device for display
type DeviceInfo struct {
	VendorID     uint16
	ProductID    uint16
	Manufacturer string
	Product      string
	// Touch is set for devices that report a digitizer touch usage.
	Touch bool
}

// deviceSelectModel runs the huh form inside Bubble Tea so that esc and q
// cancel instead of being swallowed by the select field.
type deviceSelectModel struct {
	form     *huh.Form
	devices  []DeviceInfo
	selected int
	aborted  bool
}

func (m deviceSelectModel) Init() tea.Cmd {
	return m.form.Init()
}

func (m deviceSelectModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc", "q":
			m.aborted = true
			return m, tea.Quit
		}
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State == huh.StateCompleted {
		return m, tea.Quit
	}

	return m, cmd
}

func (m deviceSelectModel) View() string {
	if m.form.State == huh.StateCompleted {
		return ""
	}
	return m.form.View()
}

// ID formats the vendor and product IDs the way the config file spells
// them.
func (d DeviceInfo) ID() string {
	return fmt.Sprintf("0x%04X:0x%04X", d.VendorID, d.ProductID)
}

// Name is the product name, or a placeholder for devices that report none.
func (d DeviceInfo) Name() string {
	if d.Product == "" {
		return "Unknown Device"
	}
	return d.Product
}

func (d DeviceInfo) label() string {
	parts := []string{DeviceIDStyle.Render(d.ID()), DeviceNameStyle.Render(d.Name())}
	if d.Manufacturer != "" {
		parts = append(parts, DeviceManufacturerStyle.Render("by "+d.Manufacturer))
	}
	if d.Touch {
		parts = append(parts, TouchTagStyle.Render("[touch]"))
	}
	return strings.Join(parts, " ")
}

// firstTouch returns the index of the first touch surface, or 0.
func firstTouch(devices []DeviceInfo) int {
	for i, d := range devices {
		if d.Touch {
			return i
		}
	}
	return 0
}

// SelectDevice asks which device to read gestures from. It returns nil
// without error if the user cancels.
func SelectDevice(devices []DeviceInfo) (*DeviceInfo, error) {
	if len(devices) == 0 {
		return nil, fmt.Errorf("no devices to select from")
	}

	options := make([]huh.Option[int], len(devices))
	for i, d := range devices {
		options[i] = huh.NewOption(d.label(), i)
	}
	choice := firstTouch(devices)

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[int]().
				Title("Select HID Device").
				Description("Choose the touch surface to read gestures from (esc to cancel)").
				Options(options...).
				Value(&choice),
		),
	).WithTheme(customTheme()).WithShowHelp(false)

	final, err := tea.NewProgram(deviceSelectModel{form: form, devices: devices}).Run()
	if err != nil {
		return nil, err
	}
	if final.(deviceSelectModel).aborted {
		return nil, nil
	}
	return &devices[choice], nil
}

// PrintDeviceList prints every device, noting how many are touch surfaces.
func PrintDeviceList(devices []DeviceInfo) {
	if len(devices) == 0 {
		fmt.Println(Warning("No HID devices found"))
		return
	}

	touch := 0
	for _, d := range devices {
		if d.Touch {
			touch++
		}
	}

	fmt.Println()
	fmt.Println(Title("HID Devices"))
	fmt.Println(Muted(fmt.Sprintf("Found %d device(s), %d touch surface(s)", len(devices), touch)))
	fmt.Println()
	for _, d := range devices {
		fmt.Println("  " + d.label())
	}
	fmt.Println()
}

// PrintDeviceUpdated confirms that an existing config now names the device.
func PrintDeviceUpdated(configPath string, vendorID, productID uint16) {
	printDeviceSaved("Device configuration updated", configPath, vendorID, productID)
}

// PrintDeviceCreated confirms that a new config was written for the device.
func PrintDeviceCreated(configPath string, vendorID, productID uint16) {
	printDeviceSaved("Configuration created", configPath, vendorID, productID)
	fmt.Println(Muted("Edit tui.command and the bindings before running."))
	fmt.Println()
}

func printDeviceSaved(title, configPath string, vendorID, productID uint16) {
	d := DeviceInfo{VendorID: vendorID, ProductID: productID}
	fmt.Println()
	fmt.Println(Success(title))
	fmt.Println()
	fmt.Printf("  %s %s\n", Muted("Config:"), configPath)
	fmt.Printf("  %s %s\n", Muted("Device:"), DeviceIDStyle.Render(d.ID()))
	fmt.Println()
}

// customTheme returns a custom huh theme matching our style palette
func customTheme() *huh.Theme {
	t := huh.ThemeBase()

	t.Focused.Title = t.Focused.Title.Foreground(ColorPrimary).Bold(true)
	t.Focused.Description = t.Focused.Description.Foreground(ColorMuted)
	t.Focused.SelectedOption = t.Focused.SelectedOption.Foreground(ColorPrimary)
	t.Focused.UnselectedOption = t.Focused.UnselectedOption.Foreground(ColorText)
	t.Focused.SelectSelector = t.Focused.SelectSelector.Foreground(ColorPrimary)

	return t
}
