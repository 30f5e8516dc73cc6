package ui

import (
	"fmt"
	"os"
	"time"

	"golang.org/x/term"
)

var terminalInitialized bool

// InitTerminal configures the terminal to prevent escape sequence
// pollution. Must be called before any charmbracelet library (lipgloss,
// bubbletea) usage: muesli/termenv queries the terminal background via
// OSC 11, and the response otherwise ends up mixed into stdout.
func InitTerminal() {
	if terminalInitialized {
		return
	}
	terminalInitialized = true

	// Pre-set COLORFGBG so termenv skips the OSC 11 query entirely.
	if os.Getenv("COLORFGBG") == "" {
		os.Setenv("COLORFGBG", "0;15")
	}

	if term.IsTerminal(int(os.Stdout.Fd())) {
		// Disable focus reporting (CSI ? 1004 l); iTerm2 and friends
		// otherwise emit ^[[I/^[[O into the stream.
		fmt.Fprint(os.Stdout, "\033[?1004l")
		time.Sleep(20 * time.Millisecond)
		FlushStdinWithTimeout(150 * time.Millisecond)
	}
}

// ResetTerminalAfterTUI cleans up terminal state after a bubbletea
// program exits, so delayed terminal responses (cursor position
// reports, OSC replies) do not land in subsequent output.
func ResetTerminalAfterTUI() {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return
	}

	fmt.Fprint(os.Stdout, "\033[?1004l") // focus reporting off
	fmt.Fprint(os.Stdout, "\033[?1003l") // mouse tracking off
	fmt.Fprint(os.Stdout, "\033[?1000l")
	fmt.Fprint(os.Stdout, "\033[?1006l")
	fmt.Fprint(os.Stdout, "\033[?25h") // cursor visible
	fmt.Fprint(os.Stdout, "\r")

	time.Sleep(30 * time.Millisecond)
	FlushStdinWithTimeout(150 * time.Millisecond)
}
