// Package e2e drives the team-monitor binary inside a pseudo terminal.
package e2e

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/creack/pty"
)

// TUITestConfig contains configuration for TUI testing
type TUITestConfig struct {
	// Command and arguments to run
	Command string
	Args    []string

	// Extra environment variables, appended to the current environment
	Env []string

	// Terminal size
	Rows uint16
	Cols uint16

	// Timeout for the entire session
	Timeout time.Duration
}

// TUITestSession is a running binary attached to a PTY. Everything it
// prints is kept raw and also replayed onto a virtual Screen.
type TUITestSession struct {
	cmd    *exec.Cmd
	ptmx   *os.File
	cancel context.CancelFunc
	screen *Screen

	outputLock sync.RWMutex
	output     bytes.Buffer

	exited  chan struct{}
	waitErr error
}

// NewTUITestSession starts config.Command in a PTY
func NewTUITestSession(config *TUITestConfig) (*TUITestSession, error) {
	if config.Timeout == 0 {
		config.Timeout = 10 * time.Second
	}
	if config.Rows == 0 {
		config.Rows = 24
	}
	if config.Cols == 0 {
		config.Cols = 80
	}

	ctx, cancel := context.WithTimeout(context.Background(), config.Timeout)
	cmd := exec.CommandContext(ctx, config.Command, config.Args...)
	cmd.Env = append(os.Environ(), config.Env...)

	ptmx, err := pty.StartWithSize(cmd, &pty.Winsize{Rows: config.Rows, Cols: config.Cols})
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to start PTY: %w", err)
	}

	s := &TUITestSession{
		cmd:    cmd,
		ptmx:   ptmx,
		cancel: cancel,
		screen: NewScreen(int(config.Rows), int(config.Cols)),
		exited: make(chan struct{}),
	}
	go s.captureOutput()
	go func() {
		s.waitErr = cmd.Wait()
		close(s.exited)
	}()
	return s, nil
}

// captureOutput copies PTY output until the process closes it
func (s *TUITestSession) captureOutput() {
	buf := make([]byte, 4096)
	for {
		n, err := s.ptmx.Read(buf)
		if n > 0 {
			s.outputLock.Lock()
			s.output.Write(buf[:n])
			s.outputLock.Unlock()
			_, _ = s.screen.Write(buf[:n])
		}
		if err != nil {
			return
		}
	}
}

// SendKey sends a key press to the TUI
func (s *TUITestSession) SendKey(key byte) error {
	return s.SendString(string([]byte{key}))
}

// SendString types str into the TUI
func (s *TUITestSession) SendString(str string) error {
	if !s.IsRunning() {
		return errors.New("session not running")
	}
	_, err := io.WriteString(s.ptmx, str)
	return err
}

// GetOutput returns everything printed so far
func (s *TUITestSession) GetOutput() string {
	s.outputLock.RLock()
	defer s.outputLock.RUnlock()
	return s.output.String()
}

// GetCleanOutput returns output with ANSI escape codes removed
func (s *TUITestSession) GetCleanOutput() string {
	return StripANSI(s.GetOutput())
}

// Screenshot renders what the terminal currently shows
func (s *TUITestSession) Screenshot() string {
	return s.screen.Render()
}

// WaitForText waits until text has been printed at any point
func (s *TUITestSession) WaitForText(text string, timeout time.Duration) error {
	if !waitFor(timeout, func() bool { return strings.Contains(s.GetCleanOutput(), text) }) {
		return fmt.Errorf("timeout waiting for text: %s", text)
	}
	return nil
}

// ExpectScreen waits until the current screen shows text
func (s *TUITestSession) ExpectScreen(text string, timeout time.Duration) error {
	if !waitFor(timeout, func() bool { return s.screen.ContainsText(text) }) {
		return fmt.Errorf("screen did not show %q:\n%s", text, s.Screenshot())
	}
	return nil
}

func waitFor(timeout time.Duration, cond func() bool) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(50 * time.Millisecond)
	}
	return cond()
}

// AssertNoText ensures specific text has not been printed
func (s *TUITestSession) AssertNoText(text string) error {
	if strings.Contains(s.GetCleanOutput(), text) {
		return fmt.Errorf("unexpected text found: %s", text)
	}
	return nil
}

// IsRunning reports whether the process is still alive
func (s *TUITestSession) IsRunning() bool {
	select {
	case <-s.exited:
		return false
	default:
		return true
	}
}

// WaitExit waits for the process to exit on its own
func (s *TUITestSession) WaitExit(timeout time.Duration) error {
	select {
	case <-s.exited:
		return s.waitErr
	case <-time.After(timeout):
		return fmt.Errorf("process still running after %s", timeout)
	}
}

// Stop sends 'q', waits briefly for a clean exit, then kills the process
func (s *TUITestSession) Stop() error {
	if s.IsRunning() {
		_ = s.SendKey('q')
	}
	err := s.WaitExit(2 * time.Second)
	if err != nil && s.IsRunning() {
		return s.ForceStop()
	}
	s.cancel()
	s.ptmx.Close()
	return err
}

// ForceStop kills the process
func (s *TUITestSession) ForceStop() error {
	s.cancel()
	if s.cmd.Process != nil {
		_ = s.cmd.Process.Kill()
	}
	<-s.exited
	s.ptmx.Close()
	return nil
}
