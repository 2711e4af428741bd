package tui

import (
	"errors"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// ErrTerminal wraps failures to set up, drive or restore the terminal.
var ErrTerminal = errors.New("terminal error")

// shutdownGrace bounds how long quit waits for a canceled download to unwind.
const shutdownGrace = 2 * time.Second

// Run drives the browser until the user quits. The program restores the
// terminal on every exit path, including panics inside the update loop.
func Run(cfg Config, opts ...tea.ProgramOption) error {
	p := tea.NewProgram(New(cfg), opts...)
	final, err := p.Run()
	if m, ok := final.(*model); ok {
		m.shutdown(shutdownGrace)
	}
	if err != nil {
		return fmt.Errorf("%w: %v", ErrTerminal, err)
	}
	return nil
}
