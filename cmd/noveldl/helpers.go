package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/tomato-novel/noveldl/internal/ui"
)

// getPrinter returns a UI printer bound to the current --output flag.
func getPrinter() ui.Printer { return ui.NewPrinterFromGlobal(flagOutput) }

// Prompter abstracts interactive input for testability.
type Prompter interface {
	ReadLine(prompt string) (string, error)
}

type ttyPrompter struct{}

func (ttyPrompter) ReadLine(prompt string) (string, error) {
	if flagNonInteractive {
		return "", fmt.Errorf("interactive prompt in non-interactive mode")
	}
	fmt.Print(prompt)
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// confirm asks a yes/no question, honoring --yes.
func confirm(prompter Prompter, question string) bool {
	if flagYes {
		return true
	}
	response, err := prompter.ReadLine(question + " [Y/n]: ")
	if err != nil {
		return false
	}
	response = strings.ToLower(response)
	return response == "" || response == "y" || response == "yes"
}
