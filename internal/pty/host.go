// Package pty runs the target TUI inside a pseudo-terminal and feeds it the
// key sequences produced by gestures.
package pty

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/creack/pty"
	"golang.org/x/term"

	"github.com/pleimann/gesture-pad/internal/action"
)

// ErrNotStarted is returned by writes before Start or after Stop.
var ErrNotStarted = errors.New("PTY not started")

// Host manages a PTY and the TUI process running in it
type Host struct {
	command    string
	args       []string
	workingDir string

	mu     sync.Mutex
	ptmx   *os.File
	cmd    *exec.Cmd
	done   chan struct{}
	exit   error
	mirror io.Writer

	outputMu sync.RWMutex
	output   *RingBuffer
}

// NewHost creates a host for command. Nothing runs until Start.
func NewHost(command string, args []string, workingDir string) (*Host, error) {
	if command == "" {
		return nil, fmt.Errorf("command is required")
	}

	return &Host{
		command:    command,
		args:       args,
		workingDir: workingDir,
		output:     NewRingBuffer(4096), // Keep last 4KB of output
	}, nil
}

// Start starts the TUI process in a PTY
func (h *Host) Start(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.cmd != nil {
		return fmt.Errorf("already started")
	}

	cmd := exec.CommandContext(ctx, h.command, h.args...)
	if h.workingDir != "" {
		cmd.Dir = h.workingDir
	}
	cmd.Env = append(os.Environ(), "TERM="+termName())

	ptmx, err := pty.Start(cmd)
	if err != nil {
		return fmt.Errorf("failed to start PTY: %w", err)
	}

	h.ptmx = ptmx
	h.cmd = cmd
	h.done = make(chan struct{})

	go h.readOutput(ptmx)
	go func(done chan struct{}) {
		err := cmd.Wait()
		h.mu.Lock()
		h.exit = err
		h.mu.Unlock()
		close(done)
	}(h.done)

	return nil
}

func termName() string {
	if t := os.Getenv("TERM"); t != "" {
		return t
	}
	return "xterm-256color"
}

// stopTimeout is how long Stop waits after interrupting the TUI before it
// kills it.
const stopTimeout = 3 * time.Second

// Stop interrupts the TUI process, waits for it and closes the PTY
func (h *Host) Stop() {
	h.mu.Lock()
	cmd, done, ptmx := h.cmd, h.done, h.ptmx
	h.ptmx = nil
	h.mu.Unlock()

	if cmd != nil && cmd.Process != nil {
		cmd.Process.Signal(os.Interrupt)
		select {
		case <-done:
		case <-time.After(stopTimeout):
			cmd.Process.Kill()
			<-done
		}
	}
	if ptmx != nil {
		ptmx.Close()
	}
}

// Done is closed when the TUI process exits. It is nil before Start.
func (h *Host) Done() <-chan struct{} {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.done
}

// ExitErr returns the process's exit error once Done is closed.
func (h *Host) ExitErr() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.exit
}

// IsRunning returns whether the TUI process is running
func (h *Host) IsRunning() bool {
	h.mu.Lock()
	done := h.done
	h.mu.Unlock()

	if done == nil {
		return false
	}
	select {
	case <-done:
		return false
	default:
		return true
	}
}

// readOutput copies PTY output into the ring buffer and to the mirror, if
// one is attached, until the PTY is closed.
func (h *Host) readOutput(ptmx *os.File) {
	buf := make([]byte, 1024)
	for {
		n, err := ptmx.Read(buf)
		if n > 0 {
			h.outputMu.Lock()
			h.output.Write(buf[:n])
			h.outputMu.Unlock()

			h.mu.Lock()
			mirror := h.mirror
			h.mu.Unlock()
			if mirror != nil {
				mirror.Write(buf[:n])
			}
		}
		if err != nil {
			return
		}
	}
}

// WriteKey writes a key press to the PTY. Host implements
// action.KeyWriter.
func (h *Host) WriteKey(key action.KeyPress) error {
	data := key.ToBytes()
	if data == nil {
		return fmt.Errorf("could not convert key to bytes")
	}
	return h.write(data)
}

// WriteString writes a string to the PTY
func (h *Host) WriteString(s string) error {
	return h.write([]byte(s))
}

func (h *Host) write(data []byte) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.ptmx == nil {
		return ErrNotStarted
	}
	_, err := h.ptmx.Write(data)
	return err
}

// RecentOutput returns recent output from the TUI
func (h *Host) RecentOutput() string {
	h.outputMu.RLock()
	defer h.outputMu.RUnlock()
	return h.output.String()
}

// Resize resizes the PTY window
func (h *Host) Resize(rows, cols uint16) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.ptmx == nil {
		return ErrNotStarted
	}

	return pty.Setsize(h.ptmx, &pty.Winsize{
		Rows: rows,
		Cols: cols,
	})
}

// Attach connects the user's terminal to the TUI: stdin is put in raw mode
// and copied to the PTY, and PTY output is mirrored to stdout. The PTY
// follows the terminal's size. The returned function restores the
// terminal. If stdin is not a terminal only the output is mirrored.
func (h *Host) Attach(stdin *os.File, stdout io.Writer) (restore func(), err error) {
	h.mu.Lock()
	ptmx := h.ptmx
	h.mirror = stdout
	h.mu.Unlock()

	if ptmx == nil {
		return nil, ErrNotStarted
	}

	detach := func() {
		h.mu.Lock()
		h.mirror = nil
		h.mu.Unlock()
	}

	fd := int(stdin.Fd())
	if !term.IsTerminal(fd) {
		return detach, nil
	}

	state, err := term.MakeRaw(fd)
	if err != nil {
		detach()
		return nil, fmt.Errorf("failed to put terminal in raw mode: %w", err)
	}

	h.syncSize(fd)
	stopWinch := watchResize(func() { h.syncSize(fd) })

	go io.Copy(ptmx, stdin)

	return func() {
		stopWinch()
		detach()
		term.Restore(fd, state)
	}, nil
}

func (h *Host) syncSize(fd int) {
	cols, rows, err := term.GetSize(fd)
	if err != nil {
		return
	}
	h.Resize(uint16(rows), uint16(cols))
}
