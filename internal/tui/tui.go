// Package tui is a live terminal monitor for a running palmwm daemon. It
// polls the daemon over IPC and can drive focus from the keyboard.
package tui

import (
	"errors"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"

	"github.com/1broseidon/palmwm/internal/compositor"
	"github.com/1broseidon/palmwm/internal/ipc"
)

// ErrNotTerminal is returned when stdin or stdout is not a TTY.
var ErrNotTerminal = errors.New("tui requires an interactive terminal (stdin/stdout must be TTYs)")

// DefaultInterval is how often the monitor refreshes when no interval is
// given.
const DefaultInterval = time.Second

// Client is the subset of the IPC client the monitor uses.
type Client interface {
	GetStatus() (*ipc.StatusData, error)
	GetStack() ([]compositor.ViewInfo, error)
	GetOutputs() ([]compositor.OutputInfo, error)
	GetSeats() ([]compositor.SeatInfo, error)
	Focus(seat, view string) error
	CycleFocus(seat string) (string, error)
	Reload() error
}

// Run starts the monitor and blocks until the user quits.
func Run(client Client, interval time.Duration) error {
	if !term.IsTerminal(int(os.Stdin.Fd())) || !term.IsTerminal(int(os.Stdout.Fd())) {
		return ErrNotTerminal
	}
	if interval <= 0 {
		interval = DefaultInterval
	}
	p := tea.NewProgram(newModel(client, interval), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run monitor: %w", err)
	}
	return nil
}
