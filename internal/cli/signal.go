package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/huimingz/shipit-go/internal/ship"
)

// interruptExitCode is the standard exit code for SIGINT
const interruptExitCode = 130

// ExitCode maps a failed run to the process exit status
func ExitCode(err error) int {
	if errors.Is(err, ship.ErrInterrupted) || errors.Is(err, context.Canceled) {
		return interruptExitCode
	}
	return 1
}

// InterruptHandler cancels the run on the first interrupt and exits on the second.
// Commits already made stay in place either way.
type InterruptHandler struct {
	cancel  context.CancelFunc
	sigChan chan os.Signal
	done    chan struct{}
	exit    func(int)
}

// NewInterruptHandler creates a handler that cancels through cancel
func NewInterruptHandler(cancel context.CancelFunc) *InterruptHandler {
	return &InterruptHandler{
		cancel:  cancel,
		sigChan: make(chan os.Signal, 1),
		done:    make(chan struct{}),
		exit:    os.Exit,
	}
}

// Start listens for SIGINT and SIGTERM in a goroutine
func (h *InterruptHandler) Start() {
	signal.Notify(h.sigChan, os.Interrupt, syscall.SIGTERM)
	go h.handleSignals()
}

func (h *InterruptHandler) handleSignals() {
	select {
	case <-h.sigChan:
	case <-h.done:
		return
	}

	fmt.Fprintln(os.Stderr, "\n⚠️  Received interrupt signal. Stopping after the current step (press Ctrl+C again to quit now).")
	h.cancel()

	select {
	case <-h.sigChan:
		h.exit(interruptExitCode)
	case <-h.done:
	}
}

// Stop stops the signal handling
func (h *InterruptHandler) Stop() {
	signal.Stop(h.sigChan)
	close(h.done)
}

// withInterrupt returns a context cancelled by the first interrupt
func withInterrupt(parent context.Context) (context.Context, func()) {
	ctx, cancel := context.WithCancel(parent)
	h := NewInterruptHandler(cancel)
	h.Start()
	return ctx, func() {
		h.Stop()
		cancel()
	}
}
