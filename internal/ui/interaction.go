package ui

import (
	"bufio"
	"io"
	"os"

	"github.com/fatih/color"
	"golang.org/x/term"
)

// Interaction is everything the orchestrators need from the user: confirmations,
// status lines and a progress indicator.
type Interaction interface {
	Confirm(message string, defaultYes bool) (bool, error)
	Info(message string)
	Success(message string)
	Warn(message string)
	Error(message string)
	// Message prints a preformatted block
	Message(message string)
	// Progress starts an indicator that must be stopped before the next Confirm
	Progress(message string) Progress
}

// Progress is a running progress indicator
type Progress interface {
	Update(message string)
	Stop(message string)
}

// Terminal is the interactive Interaction backed by a reader and a writer
type Terminal struct {
	printer *StreamPrinter
	in      *bufio.Reader
	out     io.Writer
	animate bool
}

// NewTerminal creates a terminal interaction. The spinner is only animated when out is a TTY.
func NewTerminal(in io.Reader, out io.Writer) *Terminal {
	animate := false
	if f, ok := out.(*os.File); ok && !color.NoColor {
		animate = term.IsTerminal(int(f.Fd()))
	}
	return &Terminal{
		printer: NewStreamPrinter(out, WithColor(!color.NoColor)),
		in:      bufio.NewReader(in),
		out:     out,
		animate: animate,
	}
}

func (t *Terminal) Confirm(message string, defaultYes bool) (bool, error) {
	return ConfirmWithDefault(message, defaultYes, t.in, t.out)
}

func (t *Terminal) Info(message string)    { _ = t.printer.PrintInfo(message) }
func (t *Terminal) Success(message string) { _ = t.printer.PrintSuccess(message) }
func (t *Terminal) Warn(message string)    { _ = t.printer.PrintWarning(message) }
func (t *Terminal) Error(message string)   { _ = t.printer.PrintError(message) }
func (t *Terminal) Message(message string) { _ = t.printer.PrintBlock(message) }

func (t *Terminal) Progress(message string) Progress {
	if t.animate {
		return startSpinner(t.out, t.printer, message)
	}
	_ = t.printer.PrintProgress(message)
	return &lineProgress{printer: t.printer}
}

// lineProgress prints every update on its own line
type lineProgress struct {
	printer *StreamPrinter
	stopped bool
}

func (p *lineProgress) Update(message string) {
	if !p.stopped {
		_ = p.printer.PrintProgress(message)
	}
}

func (p *lineProgress) Stop(message string) {
	if p.stopped {
		return
	}
	p.stopped = true
	if message != "" {
		_ = p.printer.PrintSuccess(message)
	}
}

// Silent suppresses everything except errors. Confirmations still reach the wrapped interaction.
type Silent struct {
	Inner Interaction
}

func (s Silent) Confirm(message string, defaultYes bool) (bool, error) {
	return s.Inner.Confirm(message, defaultYes)
}

func (s Silent) Info(string)              {}
func (s Silent) Success(string)           {}
func (s Silent) Warn(string)              {}
func (s Silent) Message(string)           {}
func (s Silent) Error(message string)     { s.Inner.Error(message) }
func (s Silent) Progress(string) Progress { return noopProgress{} }

// AutoAccept answers yes to every confirmation and forwards everything else
type AutoAccept struct {
	Inner Interaction
}

func (a AutoAccept) Confirm(string, bool) (bool, error) { return true, nil }
func (a AutoAccept) Info(message string)                { a.Inner.Info(message) }
func (a AutoAccept) Success(message string)             { a.Inner.Success(message) }
func (a AutoAccept) Warn(message string)                { a.Inner.Warn(message) }
func (a AutoAccept) Error(message string)               { a.Inner.Error(message) }
func (a AutoAccept) Message(message string)             { a.Inner.Message(message) }
func (a AutoAccept) Progress(message string) Progress   { return a.Inner.Progress(message) }

type noopProgress struct{}

func (noopProgress) Update(string) {}
func (noopProgress) Stop(string)   {}

// New builds the interaction for a run from the silent and auto-accept switches
func New(in io.Reader, out io.Writer, silent, autoAccept bool) Interaction {
	var i Interaction = NewTerminal(in, out)
	if silent {
		i = Silent{Inner: i}
	}
	if autoAccept {
		i = AutoAccept{Inner: i}
	}
	return i
}
