package tui

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Tiliavir/worklog/internal/timecalc"
	"github.com/Tiliavir/worklog/internal/timeline"
)

// ErrAborted is returned when the user leaves a prompt without answering.
var ErrAborted = errors.New("aborted")

// StartHourModel asks for the start hour of one date. An empty answer keeps
// the default.
type StartHourModel struct {
	date    string
	def     float64
	input   textinput.Model
	err     error
	value   float64
	done    bool
	aborted bool
}

// NewStartHourModel returns a prompt for date offering def.
func NewStartHourModel(date string, def float64) StartHourModel {
	ti := textinput.New()
	ti.Placeholder = strconv.FormatFloat(def, 'f', -1, 64)
	ti.CharLimit = 5
	ti.Width = 8
	ti.Focus()

	return StartHourModel{date: date, def: def, input: ti}
}

func (m StartHourModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m StartHourModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.aborted = true
			return m, tea.Quit
		case tea.KeyEnter:
			text := strings.TrimSpace(m.input.Value())
			if text == "" {
				m.value = m.def
				m.done = true
				return m, tea.Quit
			}
			h, err := timeline.ParseStartHour(text)
			if err != nil {
				m.err = err
				return m, nil
			}
			m.value = h
			m.done = true
			return m, tea.Quit
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	m.err = nil
	return m, cmd
}

func (m StartHourModel) View() string {
	if m.done || m.aborted {
		return ""
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Start hour for %s %s\n",
		TitleStyle.Render(m.date),
		DimStyle.Render(fmt.Sprintf("(0-23, enter for %s)", timecalc.FormatClock(m.def))))
	b.WriteString(m.input.View())
	b.WriteString("\n")
	if m.err != nil {
		b.WriteString(ErrorStyle.Render(m.err.Error()))
		b.WriteString("\n")
	}
	return b.String()
}

// Result returns the chosen hour, or ErrAborted.
func (m StartHourModel) Result() (float64, error) {
	if !m.done {
		return 0, ErrAborted
	}
	return m.value, nil
}

// PromptStartHour interactively asks for the start hour of date.
func PromptStartHour(date string, def float64, in io.Reader, out io.Writer) (float64, error) {
	final, err := tea.NewProgram(NewStartHourModel(date, def), tea.WithInput(in), tea.WithOutput(out)).Run()
	if err != nil {
		return 0, fmt.Errorf("start hour prompt: %w", err)
	}
	return final.(StartHourModel).Result()
}
