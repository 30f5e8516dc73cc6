package ui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// DownloadProgress is one progress sample fed to the download TUI.
type DownloadProgress struct {
	Downloaded int64
	Total      int64
}

// DownloadResult finishes the TUI: Err nil means the download
// completed.
type DownloadResult struct {
	Err error
}

var (
	tuiTitleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("14"))
	tuiStatStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	tuiDoneStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	tuiFailStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

type downloadModel struct {
	title    string
	bar      progress.Model
	updates  <-chan DownloadProgress
	results  <-chan DownloadResult
	cancel   func()
	current  int64
	total    int64
	started  time.Time
	done     bool
	err      error
	quitting bool
}

type progressMsg DownloadProgress
type resultMsg DownloadResult

func (m downloadModel) Init() tea.Cmd {
	return m.waitForUpdate()
}

func (m downloadModel) waitForUpdate() tea.Cmd {
	return func() tea.Msg {
		select {
		case p, ok := <-m.updates:
			if !ok {
				return resultMsg(<-m.results)
			}
			return progressMsg(p)
		case r := <-m.results:
			return resultMsg(r)
		}
	}
}

func (m downloadModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.quitting = true
			if m.cancel != nil {
				m.cancel()
			}
			return m, nil // quit once the canceled download reports back
		}
		return m, nil

	case tea.WindowSizeMsg:
		width := msg.Width - 8
		if width > 60 {
			width = 60
		}
		if width > 0 {
			m.bar.Width = width
		}
		return m, nil

	case progressMsg:
		m.current, m.total = msg.Downloaded, msg.Total
		var cmd tea.Cmd
		if m.total > 0 {
			cmd = m.bar.SetPercent(float64(m.current) / float64(m.total))
		}
		return m, tea.Batch(cmd, m.waitForUpdate())

	case resultMsg:
		m.done = true
		m.err = msg.Err
		return m, tea.Quit

	case progress.FrameMsg:
		pm, cmd := m.bar.Update(msg)
		m.bar = pm.(progress.Model)
		return m, cmd
	}
	return m, nil
}

func (m downloadModel) View() string {
	if m.done {
		if m.err != nil {
			return tuiFailStyle.Render("✗ download failed: "+m.err.Error()) + "\n"
		}
		return tuiDoneStyle.Render("✓ download complete") + "\n"
	}

	elapsed := time.Since(m.started).Seconds()
	var speed float64
	if elapsed > 0 {
		speed = float64(m.current) / elapsed
	}

	stats := fmt.Sprintf("%s / %s   %s",
		FormatBytes(m.current), FormatBytes(m.total), FormatSpeed(speed))
	if m.quitting {
		stats = "canceling..."
	}

	return fmt.Sprintf("\n  %s\n\n  %s\n  %s\n\n  %s\n",
		tuiTitleStyle.Render(m.title),
		m.bar.View(),
		tuiStatStyle.Render(stats),
		tuiStatStyle.Render("press q to cancel"),
	)
}

// RunDownloadTUI renders an interactive progress view for a download.
// updates carries progress samples; results delivers the final outcome
// and unblocks the TUI. cancel, when non-nil, is invoked if the user
// aborts. Returns the download's error.
func RunDownloadTUI(title string, updates <-chan DownloadProgress, results <-chan DownloadResult, cancel func()) error {
	m := downloadModel{
		title:   title,
		bar:     progress.New(progress.WithDefaultGradient()),
		updates: updates,
		results: results,
		cancel:  cancel,
		started: time.Now(),
	}
	p := tea.NewProgram(m)
	final, err := p.Run()
	ResetTerminalAfterTUI()
	if err != nil {
		return err
	}
	if dm, ok := final.(downloadModel); ok {
		return dm.err
	}
	return nil
}
