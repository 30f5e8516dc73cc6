package ui

import (
	"encoding/json"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Printer centralizes output formatting for commands.
// - Respects --output (text|json|yaml)
// - Uses ColorConfig for styling when printing text
// - Provides helpers for common message types
type Printer struct {
	format string
	Colors *ColorConfig
}

func NewPrinter(format string) Printer {
	return Printer{format: format, Colors: NewColorConfig()}
}

// Format returns the selected output format.
func (p Printer) Format() string { return p.format }

// Textf prints formatted text to stdout (always text path).
func (p Printer) Textf(format string, a ...any) { fmt.Printf(format, a...) }

// JSON pretty-prints a JSON value to stdout.
func (p Printer) JSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

// YAML prints a YAML document to stdout.
func (p Printer) YAML(v any) {
	enc := yaml.NewEncoder(os.Stdout)
	defer enc.Close()
	_ = enc.Encode(v)
}

// Structured emits v in the selected structured format, returning
// false when the format is plain text and the caller should render it.
func (p Printer) Structured(v any) bool {
	switch p.format {
	case "json":
		p.JSON(v)
		return true
	case "yaml":
		p.YAML(v)
		return true
	default:
		return false
	}
}

// Success prints a success line with themed prefix.
func (p Printer) Success(msg string) {
	c := p.Colors
	if c.EmojiEnabled {
		fmt.Println(c.Success("✓"), msg)
	} else {
		fmt.Println(c.Success("[OK]"), msg)
	}
}

// Info prints an informational line.
func (p Printer) Info(msg string) {
	c := p.Colors
	if c.EmojiEnabled {
		fmt.Println(c.Info("ℹ"), msg)
	} else {
		fmt.Println(c.Info("[INFO]"), msg)
	}
}

// Warn prints a warning line.
func (p Printer) Warn(msg string) {
	c := p.Colors
	if c.EmojiEnabled {
		fmt.Println(c.Warning("!"), msg)
	} else {
		fmt.Println(c.Warning("[WARN]"), msg)
	}
}

// Error prints an error line.
func (p Printer) Error(msg string) {
	c := p.Colors
	if c.EmojiEnabled {
		fmt.Println(c.Error("✗"), msg)
	} else {
		fmt.Println(c.Error("[ERR]"), msg)
	}
}

// Header prints a section header.
func (p Printer) Header(title string) {
	fmt.Println(p.Colors.Header(" " + title + " "))
}

// Separator prints a themed separator line of n characters.
func (p Printer) Separator(n int) { fmt.Println(p.Colors.Separator(n)) }

// Section prints a section header with separator
func (p Printer) Section(title string) {
	fmt.Println()
	fmt.Println(p.Colors.SubHeader(title))
	fmt.Println(p.Colors.Separator(40))
}

// KeyValueLine prints a key-value pair with proper formatting
func (p Printer) KeyValueLine(key, value, colorType string) {
	var coloredValue string
	switch colorType {
	case "blue":
		coloredValue = p.Colors.Apply(p.Colors.Theme.Info, value)
	case "yellow":
		coloredValue = p.Colors.Apply(p.Colors.Theme.Warning, value)
	case "green":
		coloredValue = p.Colors.Apply(p.Colors.Theme.Success, value)
	case "dim":
		coloredValue = p.Colors.Apply(p.Colors.Theme.Description, value)
	default:
		coloredValue = p.Colors.Value(value)
	}
	fmt.Printf("%s %s\n", p.Colors.Label(key+":"), coloredValue)
}
