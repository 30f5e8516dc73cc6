package ui

import (
	"fmt"
	"os"
	"strings"
)

// Color codes for terminal output
const (
	Reset = "\033[0m"
	Bold  = "\033[1m"
	Dim   = "\033[2m"

	Red     = "\033[31m"
	Green   = "\033[32m"
	Yellow  = "\033[33m"
	Cyan    = "\033[36m"

	BrightBlack  = "\033[90m"
	BrightRed    = "\033[91m"
	BrightGreen  = "\033[92m"
	BrightYellow = "\033[93m"
	BrightCyan   = "\033[96m"
)

// Theme defines the color scheme for different UI elements
type Theme struct {
	Success string
	Warning string
	Error   string
	Info    string

	Header      string
	SubHeader   string
	Label       string
	Value       string
	Command     string
	Description string
	Separator   string

	Version   string
	Timestamp string
}

// DefaultTheme returns the default color theme
func DefaultTheme() *Theme {
	return &Theme{
		Success: BrightGreen,
		Warning: BrightYellow,
		Error:   BrightRed,
		Info:    BrightCyan,

		Header:      Bold + BrightCyan,
		SubHeader:   Bold + Cyan,
		Label:       Bold, // terminal default color for visibility on all backgrounds
		Value:       "",   // terminal default foreground for best contrast
		Command:     BrightGreen,
		Description: BrightBlack,
		Separator:   BrightBlack,

		Version:   BrightBlack,
		Timestamp: BrightBlack,
	}
}

// ColorConfig manages color output settings
type ColorConfig struct {
	Enabled      bool
	EmojiEnabled bool
	Theme        *Theme
}

// NewColorConfig creates a color configuration from the environment:
// colors are off under NO_COLOR, a dumb terminal, or no TERM at all.
func NewColorConfig() *ColorConfig {
	noColor := os.Getenv("NO_COLOR") != ""
	term := os.Getenv("TERM")
	enabled := !noColor && term != "dumb" && term != ""

	return &ColorConfig{
		Enabled:      enabled,
		EmojiEnabled: true,
		Theme:        DefaultTheme(),
	}
}

// Apply applies a color to text if colors are enabled
func (c *ColorConfig) Apply(color, text string) string {
	if !c.Enabled {
		return text
	}
	return color + text + Reset
}

func (c *ColorConfig) Success(text string) string { return c.Apply(c.Theme.Success, text) }
func (c *ColorConfig) Warning(text string) string { return c.Apply(c.Theme.Warning, text) }
func (c *ColorConfig) Error(text string) string   { return c.Apply(c.Theme.Error, text) }
func (c *ColorConfig) Info(text string) string    { return c.Apply(c.Theme.Info, text) }

func (c *ColorConfig) Header(text string) string    { return c.Apply(c.Theme.Header, text) }
func (c *ColorConfig) SubHeader(text string) string { return c.Apply(c.Theme.SubHeader, text) }
func (c *ColorConfig) Label(text string) string     { return c.Apply(c.Theme.Label, text) }
func (c *ColorConfig) Value(text string) string     { return c.Apply(c.Theme.Value, text) }
func (c *ColorConfig) Command(text string) string   { return c.Apply(c.Theme.Command, text) }

// Description formats secondary explanatory text
func (c *ColorConfig) Description(text string) string {
	return c.Apply(c.Theme.Description, text)
}

// Separator returns a colored separator line
func (c *ColorConfig) Separator(width int) string {
	return c.Apply(c.Theme.Separator, strings.Repeat("─", width))
}

// FormatKeyValue formats a key-value pair with proper colors
func (c *ColorConfig) FormatKeyValue(key, value string) string {
	return fmt.Sprintf("%s: %s", c.Label(key), c.Value(value))
}

// FormatCommandAligned formats a command and description in aligned
// columns for help output.
func (c *ColorConfig) FormatCommandAligned(cmd, desc string, width int) string {
	pad := width - len(cmd)
	if pad < 2 {
		pad = 2
	}
	return fmt.Sprintf("  %s%s%s", c.Command(cmd), strings.Repeat(" ", pad), c.Description(desc))
}

// StatusIcon returns a colored status icon (respects emoji settings)
func (c *ColorConfig) StatusIcon(status string) string {
	if !c.EmojiEnabled {
		switch strings.ToLower(status) {
		case "success", "done", "installed":
			return c.Success("[OK]")
		case "warning", "pending", "staged":
			return c.Warning("[WARN]")
		case "error", "failed":
			return c.Error("[ERR]")
		case "info":
			return c.Info("[INFO]")
		default:
			return "[ ]"
		}
	}

	switch strings.ToLower(status) {
	case "success", "done", "installed":
		return c.Success("✓")
	case "warning", "pending", "staged":
		return c.Warning("⚠")
	case "error", "failed":
		return c.Error("✗")
	case "info":
		return c.Info("ℹ")
	default:
		return "○"
	}
}
