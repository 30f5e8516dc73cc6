package ui

import (
	"fmt"
	"strings"
)

// ErrorMessage is an actionable failure report: what went wrong, why
// it might have happened, and what the user can do about it.
type ErrorMessage struct {
	Problem string
	Causes  []string
	Actions []string
	Hints   []string // follow-up commands worth trying
}

// Format renders the report with the given theme. Empty sections are
// omitted entirely.
func (e ErrorMessage) Format(c *ColorConfig) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s%s\n", c.Error("✗ "), c.Header("Error"))
	if e.Problem != "" {
		fmt.Fprintf(&b, "  %s: %s\n", c.Label("Problem"), e.Problem)
	}
	writeSection(&b, c, "Possible causes", "•", e.Causes)
	writeSection(&b, c, "Try", "→", e.Actions)
	if len(e.Hints) > 0 {
		fmt.Fprintf(&b, "  %s:\n", c.Label("Hints"))
		for _, h := range e.Hints {
			fmt.Fprintf(&b, "   · %s\n", c.Description(h))
		}
	}
	return b.String()
}

func writeSection(b *strings.Builder, c *ColorConfig, label, bullet string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(b, "  %s:\n", c.Label(label))
	for _, it := range items {
		fmt.Fprintf(b, "   %s %s\n", bullet, it)
	}
}

// PrintError renders the report to stdout with the global theme.
func PrintError(e ErrorMessage) {
	fmt.Println(e.Format(NewColorConfigFromGlobal()))
}
