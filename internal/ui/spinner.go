package ui

import (
	"io"
	"sync"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var spinnerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))

type progressMsg string

type stopMsg struct{}

// spinnerModel renders an animated spinner next to the latest progress message
type spinnerModel struct {
	spinner spinner.Model
	message string
	done    bool
}

func (m spinnerModel) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m spinnerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case progressMsg:
		m.message = string(msg)
		return m, nil
	case stopMsg:
		m.done = true
		return m, tea.Quit
	}

	var cmd tea.Cmd
	m.spinner, cmd = m.spinner.Update(msg)
	return m, cmd
}

func (m spinnerModel) View() string {
	if m.done {
		return ""
	}
	return m.spinner.View() + " " + m.message + "\n"
}

// spinnerProgress drives a bubbletea program in the background until Stop
type spinnerProgress struct {
	program  *tea.Program
	printer  *StreamPrinter
	done     chan struct{}
	stopOnce sync.Once
}

func startSpinner(out io.Writer, printer *StreamPrinter, message string) *spinnerProgress {
	model := spinnerModel{
		spinner: spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(spinnerStyle)),
		message: message,
	}

	s := &spinnerProgress{
		program: tea.NewProgram(model,
			tea.WithOutput(out),
			tea.WithInput(nil),
			tea.WithoutSignalHandler(),
		),
		printer: printer,
		done:    make(chan struct{}),
	}

	go func() {
		defer close(s.done)
		_, _ = s.program.Run()
	}()

	return s
}

func (s *spinnerProgress) Update(message string) {
	select {
	case <-s.done:
	default:
		s.program.Send(progressMsg(message))
	}
}

func (s *spinnerProgress) Stop(message string) {
	s.stopOnce.Do(func() {
		s.program.Send(stopMsg{})
		<-s.done
		if message != "" {
			_ = s.printer.PrintSuccess(message)
		}
	})
}
