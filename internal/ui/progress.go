package ui

import (
	"fmt"
	"io"
	"os"
	"time"

	"golang.org/x/term"
)

// flushStdin discards pending terminal responses so they do not corrupt
// the progress line.
func flushStdin() {
	FlushStdinWithTimeout(30 * time.Millisecond)
}

// ProgressBar renders a terminal progress bar with download statistics.
// On a TTY it redraws a single line; otherwise it prints at 10%
// intervals so logs stay readable.
type ProgressBar struct {
	out        io.Writer
	total      int64
	current    int64
	startTime  time.Time
	lastUpdate time.Time
	isTTY      bool
	lastPct    float64
	indent     string
}

// NewProgressBar creates a progress bar. total <= 0 shows plain byte
// counts without a percentage.
func NewProgressBar(out io.Writer, total int64) *ProgressBar {
	if out == nil {
		out = os.Stdout
	}

	isTTY := false
	if f, ok := out.(*os.File); ok {
		isTTY = term.IsTerminal(int(f.Fd()))
	}
	if isTTY {
		fmt.Fprint(out, "\033[?1004l")
		time.Sleep(10 * time.Millisecond)
		flushStdin()
	}

	return &ProgressBar{
		out:       out,
		total:     total,
		startTime: time.Now(),
		isTTY:     isTTY,
		lastPct:   -1,
		indent:    "  ",
	}
}

// SetIndent sets the indentation prefix for the progress bar output.
func (p *ProgressBar) SetIndent(indent string) { p.indent = indent }

// Update updates the progress bar with the current byte count.
func (p *ProgressBar) Update(current int64) {
	p.current = current

	// Rate limit redraws to avoid flicker.
	now := time.Now()
	if p.isTTY && now.Sub(p.lastUpdate) < 100*time.Millisecond {
		return
	}
	p.lastUpdate = now

	if p.total <= 0 {
		fmt.Fprintf(p.out, "\r%sDownloading... %s", p.indent, FormatBytes(current))
		return
	}

	pct := float64(current) / float64(p.total) * 100
	if p.isTTY {
		p.renderTTY(pct)
		return
	}
	threshold := float64(int(pct/10) * 10)
	if threshold > p.lastPct {
		p.lastPct = threshold
		fmt.Fprintf(p.out, "%sDownloading... %.0f%%\n", p.indent, threshold)
	}
}

func (p *ProgressBar) renderTTY(pct float64) {
	elapsed := time.Since(p.startTime).Seconds()
	var speed float64
	if elapsed > 0 {
		speed = float64(p.current) / elapsed
	}

	eta := ""
	if speed > 0 && p.current < p.total {
		eta = FormatDuration(float64(p.total-p.current) / speed)
	} else if p.current >= p.total {
		eta = "0s"
	}

	width := 80
	if f, ok := p.out.(*os.File); ok {
		if w, _, err := term.GetSize(int(f.Fd())); err == nil && w > 0 {
			width = w
		}
	}

	barWidth := width - 56 - len(p.indent)
	if barWidth < 10 {
		barWidth = 10
	}
	if barWidth > 40 {
		barWidth = 40
	}

	filled := int(pct / 100 * float64(barWidth))
	if filled > barWidth {
		filled = barWidth
	}
	if filled < 0 {
		filled = 0
	}

	bar := ""
	for i := 0; i < barWidth; i++ {
		if i < filled {
			bar += "█"
		} else {
			bar += "░"
		}
	}

	// \033[K clears to end of line so shrinking stats leave no residue.
	fmt.Fprintf(p.out, "\r%s[%s] %5.1f%%   %s/%s   %s   ETA %s\033[K",
		p.indent, bar, pct,
		FormatBytes(p.current), FormatBytes(p.total),
		FormatSpeed(speed), eta,
	)
}

// Finish completes the progress bar and moves to the next line.
func (p *ProgressBar) Finish() {
	if p.isTTY {
		if p.total > 0 {
			p.current = p.total
			p.renderTTY(100)
		}
		fmt.Fprintln(p.out)
		flushStdin()
	} else if p.total > 0 && p.lastPct < 100 {
		fmt.Fprintf(p.out, "%sDownloading... 100%%\n", p.indent)
	}
}
