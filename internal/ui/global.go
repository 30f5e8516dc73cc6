package ui

// Config carries the presentation switches shared by every command.
// Only rendering concerns live here; behavioural flags (quiet,
// non-interactive) stay with the commands that read them.
type Config struct {
	NoColor bool
	NoEmoji bool
}

// Set once from the root command's persistent flags, before any
// command body runs.
var globalConfig Config

// InitGlobal records the presentation switches parsed from the CLI.
func InitGlobal(cfg Config) {
	globalConfig = cfg
}

// GetGlobal returns the recorded presentation switches.
func GetGlobal() Config {
	return globalConfig
}

// NewColorConfigFromGlobal builds a ColorConfig from the terminal
// environment, further restricted by the recorded CLI switches.
func NewColorConfigFromGlobal() *ColorConfig {
	cfg := GetGlobal()
	c := NewColorConfig()
	c.Enabled = c.Enabled && !cfg.NoColor
	c.EmojiEnabled = c.EmojiEnabled && !cfg.NoEmoji
	return c
}

// NewPrinterFromGlobal creates a Printer for the given output format
// using the recorded presentation switches.
func NewPrinterFromGlobal(format string) Printer {
	return Printer{
		format: format,
		Colors: NewColorConfigFromGlobal(),
	}
}
