package tui

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Tiliavir/worklog/internal/reconcile"
)

// progressMsg carries one reconciliation progress event into the program.
type progressMsg reconcile.Progress

type doneMsg struct{}

// ProgressModel shows a spinner, a progress bar and a line per finished
// entry while a submission runs.
type ProgressModel struct {
	title   string
	total   int
	done    int
	current string
	lines   []string

	spinner    spinner.Model
	bar        progress.Model
	cancel     context.CancelFunc
	cancelling bool
	finished   bool
}

// NewProgressModel returns a model for total entries. cancel, if non-nil, is
// called when the user presses ctrl+c.
func NewProgressModel(title string, total int, cancel context.CancelFunc) ProgressModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = TitleStyle

	return ProgressModel{
		title:   title,
		total:   total,
		spinner: s,
		bar:     progress.New(progress.WithDefaultGradient(), progress.WithWidth(40)),
		cancel:  cancel,
	}
}

func (m ProgressModel) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m ProgressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" && !m.cancelling {
			m.cancelling = true
			if m.cancel != nil {
				m.cancel()
			}
		}
		return m, nil

	case progressMsg:
		switch msg.Status {
		case reconcile.StatusProcessing:
			m.current = msg.Entry.Subject
		case reconcile.StatusCompleted:
			m.done++
			m.lines = append(m.lines, SuccessStyle.Render("✓ ")+msg.Entry.Subject)
		case reconcile.StatusFailed:
			m.done++
			m.lines = append(m.lines, ErrorStyle.Render("✗ ")+msg.Entry.Subject+DimStyle.Render(": "+msg.Error))
		}
		return m, nil

	case doneMsg:
		m.finished = true
		return m, tea.Quit

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

// Percent is the share of entries finished so far.
func (m ProgressModel) Percent() float64 {
	if m.total == 0 {
		return 1
	}
	return float64(m.done) / float64(m.total)
}

func (m ProgressModel) View() string {
	var b strings.Builder
	b.WriteString(TitleStyle.Render(m.title))
	b.WriteString("\n")
	for _, l := range m.lines {
		b.WriteString("  " + l + "\n")
	}
	if m.finished {
		return b.String()
	}
	fmt.Fprintf(&b, "%s %s %d/%d", m.spinner.View(), m.bar.ViewAs(m.Percent()), m.done, m.total)
	if m.current != "" {
		b.WriteString(" " + DimStyle.Render(m.current))
	}
	if m.cancelling {
		b.WriteString("\n" + WarningStyle.Render("stopping after the current entry…"))
	}
	b.WriteString("\n")
	return b.String()
}

// RunProgress runs work while rendering its progress to out. work receives
// the function to install as the reconciliation progress hook. RunProgress
// returns once work has returned, even if the display fails.
func RunProgress(title string, total int, cancel context.CancelFunc, in io.Reader, out io.Writer, work func(report func(reconcile.Progress))) error {
	p := tea.NewProgram(NewProgressModel(title, total, cancel), tea.WithInput(in), tea.WithOutput(out))

	finished := make(chan struct{})
	go func() {
		defer close(finished)
		work(func(pr reconcile.Progress) { p.Send(progressMsg(pr)) })
		p.Send(doneMsg{})
	}()

	_, err := p.Run()
	<-finished
	return err
}
