package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/pleimann/gesture-pad/internal/utils"
)

type example struct {
	cmd  string
	desc string
}

// PrintUsage displays the styled help/usage text
func PrintUsage(version string) {
	name := utils.ExecutableName()

	printBanner(version, ColorMuted)
	fmt.Println(Muted("Touch gesture middleware for TUI applications"))
	fmt.Println()

	printSection("Usage", []string{
		name + " [flags]                Run the middleware",
		name + " list-devices           List available HID devices",
		name + " set-device [args]      Configure the touch surface",
		name + " replay [flags] script  Play a recorded pointer script",
		name + " playground [flags]     Try gestures with the mouse",
		name + " help                   Show this help message",
	})

	printSection("Flags", []string{
		"-config string    Path to configuration file (default \"config.yaml\")",
		"-verbose          Enable verbose logging",
		"-version          Print version and exit",
	})

	printCommandSection()

	fmt.Println(Bold("Examples"))
	printExamples([]example{
		{name, "Run with default config.yaml"},
		{name + " -config pad.toml", "Run with a TOML config file"},
		{name + " list-devices", "List connected HID devices"},
		{name + " set-device", "Interactive device selection"},
		{name + " set-device 0x1234 0x5678", "Set device by vendor/product ID"},
		{name + " replay -png out.png turn.yaml", "Replay a script and render it"},
		{name + " playground -record take.yaml", "Record a playground session"},
	})
}

func printBanner(version string, versionColor lipgloss.Color) {
	banner := lipgloss.NewStyle().
		Bold(true).
		Foreground(ColorPrimary).
		Render(utils.ExecutableName())

	versionTag := lipgloss.NewStyle().
		Foreground(versionColor).
		Render("v" + version)

	fmt.Printf("%s %s\n", banner, versionTag)
}

func printSection(title string, items []string) {
	fmt.Println(Bold(title))
	for _, item := range items {
		fmt.Printf("  %s\n", item)
	}
	fmt.Println()
}

func printCommandSection() {
	fmt.Println(Bold("Commands"))

	cmdStyle := lipgloss.NewStyle().
		Foreground(ColorSecondary).
		Bold(true)

	commands := []struct {
		name  string
		lines []string
	}{
		{"list-devices", []string{"List available HID devices, touch surfaces first"}},
		{"set-device", []string{"Set the touch surface in the config file"}},
		{"replay", []string{
			"Feed a YAML pointer script through the gesture pipeline",
			"and print the triggers it produces",
		}},
		{"playground", []string{
			"Drive the gesture pipeline with the mouse in the terminal",
			"Press m to mirror the mouse through the centre for two-pointer gestures",
		}},
	}

	for _, c := range commands {
		fmt.Printf("  %s\n", cmdStyle.Render(c.name))
		for _, line := range c.lines {
			fmt.Printf("      %s\n", line)
		}
		if c.name != "list-devices" {
			fmt.Printf("      Run %s for more information\n", Code(utils.ExecutableName()+" "+c.name+" --help"))
		}
		fmt.Println()
	}
}

func printExamples(examples []example) {
	cmdStyle := lipgloss.NewStyle().
		Foreground(ColorSecondary)

	maxLen := 0
	for _, ex := range examples {
		if len(ex.cmd) > maxLen {
			maxLen = len(ex.cmd)
		}
	}

	for _, ex := range examples {
		padding := strings.Repeat(" ", maxLen-len(ex.cmd)+2)
		fmt.Printf("  %s%s%s\n", cmdStyle.Render(ex.cmd), padding, Muted(ex.desc))
	}
	fmt.Println()
}

func printOption(flag, desc string) {
	fmt.Printf("  %s %s\n", SubtitleStyle.Render(fmt.Sprintf("%-16s", flag)), desc)
}

// PrintSetDeviceUsage displays the styled help text for set-device subcommand
func PrintSetDeviceUsage() {
	name := utils.ExecutableName()

	fmt.Println(Bold("Usage:"), name+" set-device [options] [vendor_id product_id]")
	fmt.Println()
	fmt.Println("Set the touch surface in the configuration file.")
	fmt.Println()
	fmt.Println(Muted("If vendor_id and product_id are provided, updates the config directly."))
	fmt.Println(Muted("Otherwise, displays a list of connected devices to choose from."))
	fmt.Println()

	fmt.Println(Bold("Arguments"))
	printOption("vendor_id", "Device vendor ID (hex with 0x prefix or decimal)")
	printOption("product_id", "Device product ID (hex with 0x prefix or decimal)")
	fmt.Println()

	fmt.Println(Bold("Options"))
	printOption("-config string", "Path to configuration file (default \"config.yaml\")")
	fmt.Println()

	fmt.Println(Bold("Examples"))
	printExamples([]example{
		{name + " set-device", "Interactive selection"},
		{name + " set-device 0x1234 0x5678", "Explicit vendor and product IDs"},
		{name + " set-device -config my.yaml", "Use different config"},
	})
}

// PrintReplayUsage displays the styled help text for the replay subcommand
func PrintReplayUsage() {
	name := utils.ExecutableName()

	fmt.Println(Bold("Usage:"), name+" replay [options] script.yaml")
	fmt.Println()
	fmt.Println("Play a pointer script through the configured gestures and bindings.")
	fmt.Println()
	fmt.Println(Muted("Triggers and their key sequences are printed instead of being sent"))
	fmt.Println(Muted("to the TUI, so no device or TUI process is needed."))
	fmt.Println()

	fmt.Println(Bold("Options"))
	printOption("-config string", "Path to configuration file (default \"config.yaml\")")
	printOption("-png string", "Render the pointer paths and gesture notes to a PNG")
	fmt.Println()

	fmt.Println(Bold("Examples"))
	printExamples([]example{
		{name + " replay turn.yaml", "Print triggers for a script"},
		{name + " replay -png turn.png turn.yaml", "Also render the trace"},
	})
}

// PrintPlaygroundUsage displays the styled help text for the playground subcommand
func PrintPlaygroundUsage() {
	name := utils.ExecutableName()

	fmt.Println(Bold("Usage:"), name+" playground [options]")
	fmt.Println()
	fmt.Println("Drive the configured gestures with the mouse inside the terminal.")
	fmt.Println()

	fmt.Println(Bold("Keys"))
	printOption("m", "Toggle mirror mode: a second pointer mirrors the mouse through the centre")
	printOption("r", "Release all pointers")
	printOption("q", "Quit")
	fmt.Println()

	fmt.Println(Bold("Options"))
	printOption("-config string", "Path to configuration file (default \"config.yaml\")")
	printOption("-record string", "Save the session as a replayable script")
	printOption("-png string", "Render the session to a PNG on exit")
	fmt.Println()

	fmt.Println(Bold("Examples"))
	printExamples([]example{
		{name + " playground", "Try gestures"},
		{name + " playground -record take.yaml", "Record a script to replay later"},
	})
}

// PrintVersion displays the styled version information
func PrintVersion(version string) {
	printBanner(version, ColorSuccess)
}

// PrintError displays a styled error message
func PrintError(message string) {
	fmt.Println(Error(message))
}

// PrintFatalError displays a styled fatal error message with context
func PrintFatalError(context, message string) {
	fmt.Println()
	fmt.Println(Error(context))
	fmt.Printf("  %s\n", Muted(message))
	fmt.Println()
}

// PrintTrigger prints one fired trigger and the keys it maps to
func PrintTrigger(at float64, trigger string, keys []string) {
	mapped := Muted("(unbound)")
	if len(keys) > 0 {
		mapped = strings.Join(keys, " ")
	}
	fmt.Printf("  %s %s %s %s\n", Muted(fmt.Sprintf("%7.3fs", at)), Trigger(trigger), Muted("→"), mapped)
}

// PrintReplaySummary prints the result of a replay
func PrintReplaySummary(script string, triggers int, notes []string, pngPath string) {
	fmt.Println()
	fmt.Println(Success(fmt.Sprintf("Replayed %s", script)))
	fmt.Printf("  %s %d\n", Muted("Triggers:"), triggers)
	for _, n := range notes {
		fmt.Printf("  %s %s\n", Muted("•"), n)
	}
	if pngPath != "" {
		fmt.Printf("  %s %s\n", Muted("Trace:"), pngPath)
	}
	fmt.Println()
}

// PrintSaved reports a file written by the playground or replay
func PrintSaved(what, path string) {
	fmt.Println(Success(fmt.Sprintf("%s saved to %s", what, path)))
}
