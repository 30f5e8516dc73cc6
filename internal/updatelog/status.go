package updatelog

import (
	"bufio"
	"context"
	"os"
	"regexp"
	"strings"

	"github.com/nxadm/tail"
)

// Status summarizes the outcome of the most recent install attempt, as
// inferred from the log tail. There is no structured status file; marker
// substrings in the last lines are the contract.
type Status struct {
	LogExists   bool
	LastAttempt string // timestamp of the last install start, if seen
	Succeeded   bool
	ErrorLine   string // last ERROR-tagged line, if any
}

// How many trailing lines are considered when inferring status.
const tailWindow = 20

var timestampRe = regexp.MustCompile(`^\[([^\]]+)\]`)

// ScanStatus reads the tail of the log at path and infers the last
// install outcome from marker substrings.
func ScanStatus(path string) (Status, error) {
	if path == "" {
		path = DefaultPath()
	}
	var st Status

	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return st, nil
	}
	if err != nil {
		return st, err
	}
	defer f.Close()
	st.LogExists = true

	var lines []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		lines = append(lines, sc.Text())
		if len(lines) > tailWindow {
			lines = lines[1:]
		}
	}
	if err := sc.Err(); err != nil {
		return st, err
	}

	for _, line := range lines {
		switch {
		case strings.Contains(line, "installing update"):
			if m := timestampRe.FindStringSubmatch(line); m != nil {
				st.LastAttempt = m[1]
			}
		case strings.Contains(line, MarkerUpdateSuccess), strings.Contains(line, MarkerInstallerSuccess):
			st.Succeeded = true
			st.ErrorLine = ""
		case strings.Contains(line, "[ERROR]"):
			st.Succeeded = false
			st.ErrorLine = line
		}
	}
	return st, nil
}

// Follow streams appended log lines to fn until ctx is done. The file
// does not need to exist yet; rotation and truncation are tolerated.
func Follow(ctx context.Context, path string, fn func(line string)) error {
	if path == "" {
		path = DefaultPath()
	}
	t, err := tail.TailFile(path, tail.Config{
		Follow:    true,
		ReOpen:    true,
		MustExist: false,
		Poll:      true,
		Logger:    tail.DiscardingLogger,
	})
	if err != nil {
		return err
	}
	defer t.Cleanup()

	for {
		select {
		case <-ctx.Done():
			_ = t.Stop()
			return ctx.Err()
		case line, ok := <-t.Lines:
			if !ok {
				return nil
			}
			if line.Err != nil {
				continue
			}
			fn(line.Text)
		}
	}
}
