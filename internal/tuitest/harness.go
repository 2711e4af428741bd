// Package tuitest drives a terminal program inside a pseudo terminal and
// records what it draws.
package tuitest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/creack/pty"
)

const (
	defaultCols    = 80
	defaultRows    = 24
	defaultTimeout = 10 * time.Second
	pollInterval   = 20 * time.Millisecond
)

// Keys understood by a terminal in raw mode.
var (
	KeyCtrlC = []byte{0x03}
	KeyCtrlD = []byte{0x04}
	KeyCtrlR = []byte{0x12}
	KeyDown  = []byte("\x1b[B")
	KeyUp    = []byte("\x1b[A")
)

// Step is one scripted interaction. WaitFor, when set, blocks until the
// plain-text output contains it; Delay then elapses before Input is sent.
type Step struct {
	WaitFor string
	Delay   time.Duration
	Input   []byte
}

// Config describes the program and the script to replay against it.
type Config struct {
	Command []string
	Dir     string
	Env     []string
	Cols    int
	Rows    int
	Steps   []Step
	Timeout time.Duration
}

// Recording holds everything the program wrote to the terminal.
type Recording struct {
	Raw      []byte
	Frames   []Frame
	ExitCode int
	Duration time.Duration
}

// Plain returns the whole stream with control sequences removed.
func (r *Recording) Plain() string {
	if r == nil {
		return ""
	}
	return StripANSI(strings.ReplaceAll(string(r.Raw), "\r", ""))
}

// LastFrame returns the final frame, if any were drawn.
func (r *Recording) LastFrame() (Frame, bool) {
	if r == nil || len(r.Frames) == 0 {
		return Frame{}, false
	}
	return r.Frames[len(r.Frames)-1], true
}

type screenBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (s *screenBuffer) Write(p []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.buf.Write(p)
}

func (s *screenBuffer) Bytes() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]byte(nil), s.buf.Bytes()...)
}

func (s *screenBuffer) contains(text string) bool {
	return strings.Contains(StripANSI(string(s.Bytes())), text)
}

// Run starts cfg.Command on a fresh pseudo terminal, plays the steps and
// waits for the program to exit. A non-zero exit is reported through
// Recording.ExitCode rather than as an error.
func Run(ctx context.Context, cfg Config) (*Recording, error) {
	if len(cfg.Command) == 0 {
		return nil, errors.New("tuitest: command is required")
	}
	if cfg.Cols <= 0 {
		cfg.Cols = defaultCols
	}
	if cfg.Rows <= 0 {
		cfg.Rows = defaultRows
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, cfg.Command[0], cfg.Command[1:]...)
	cmd.Dir = cfg.Dir
	cmd.Env = withTerm(append(os.Environ(), cfg.Env...))

	tty, err := pty.StartWithSize(cmd, &pty.Winsize{Rows: uint16(cfg.Rows), Cols: uint16(cfg.Cols)})
	if err != nil {
		return nil, fmt.Errorf("tuitest: start program: %w", err)
	}
	defer func() { _ = tty.Close() }()

	screen := &screenBuffer{}
	drained := make(chan struct{})
	go func() {
		defer close(drained)
		replies := newResponder(tty)
		chunk := make([]byte, 4096)
		for {
			n, readErr := tty.Read(chunk)
			if n > 0 {
				replies.Observe(chunk[:n])
				screen.Write(chunk[:n])
			}
			if readErr != nil {
				return
			}
		}
	}()

	start := time.Now()
	for i, step := range cfg.Steps {
		if step.WaitFor != "" {
			if err := waitFor(ctx, screen, step.WaitFor); err != nil {
				return nil, fmt.Errorf("tuitest: step %d: %w", i, err)
			}
		}
		if step.Delay > 0 {
			select {
			case <-ctx.Done():
				return nil, fmt.Errorf("tuitest: step %d: %w", i, ctx.Err())
			case <-time.After(step.Delay):
			}
		}
		if len(step.Input) > 0 {
			if _, err := tty.Write(step.Input); err != nil {
				return nil, fmt.Errorf("tuitest: step %d: write input: %w", i, err)
			}
		}
	}

	exitCode := 0
	if err := cmd.Wait(); err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) || ctx.Err() != nil {
			return nil, fmt.Errorf("tuitest: wait for exit: %w", err)
		}
		exitCode = exitErr.ExitCode()
	}

	_ = tty.Close()
	<-drained

	raw := screen.Bytes()
	return &Recording{
		Raw:      raw,
		Frames:   splitFrames(string(raw)),
		ExitCode: exitCode,
		Duration: time.Since(start),
	}, nil
}

func waitFor(ctx context.Context, screen *screenBuffer, text string) error {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	for !screen.contains(text) {
		select {
		case <-ctx.Done():
			return fmt.Errorf("waiting for %q: %w", text, ctx.Err())
		case <-ticker.C:
		}
	}
	return nil
}

func withTerm(env []string) []string {
	for _, entry := range env {
		if strings.HasPrefix(entry, "TERM=") && entry != "TERM=" && entry != "TERM=dumb" {
			return env
		}
	}
	return append(env, "TERM=xterm-256color")
}
