//go:build e2e && unix

package main

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/creack/pty"
)

const ringSize = 1 << 20 // 1 MiB of scrollback

var binPath = "fwatch_e2e"

// Keys as a terminal sends them
const (
	KeyEnter  = "\r"
	KeyEsc    = "\x1b"
	KeyCtrlC  = "\x03"
	KeyQuit   = "q"
	KeyTop    = "g"
	KeyBottom = "G"
	KeySearch = "/"
)

// ansiRe strips CSI, OSC, charset and keypad sequences plus carriage returns
var ansiRe = regexp.MustCompile(
	`(?:\x1b\[[0-9;?]*[ -/]*[@-~])|` +
		`(?:\x1b\][^\x07]*\x07)|` +
		`(?:\x1b[\(\)][A-Za-z])|` +
		`(?:\x1b=|\x1b>)|` +
		`\r`,
)

// Session drives one fwatch process inside a pseudo-terminal
type Session struct {
	t         *testing.T
	pty       *os.File
	tty       *os.File
	cmd       *exec.Cmd
	workspace string
	exited    chan error

	mu   sync.Mutex
	buf  []byte
	head int
	full bool
}

// NewSession prepares a session with an empty workspace directory
func NewSession(t *testing.T) *Session {
	s := &Session{
		t:         t,
		buf:       make([]byte, ringSize),
		workspace: t.TempDir(),
	}
	t.Cleanup(s.Cleanup)
	return s
}

// Path returns name inside the workspace
func (s *Session) Path(name ...string) string {
	return filepath.Join(append([]string{s.workspace}, name...)...)
}

// WriteFile creates or rewrites a file in the workspace, making parents
func (s *Session) WriteFile(name, contents string) string {
	s.t.Helper()
	path := s.Path(name)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		s.t.Fatalf("mkdir for %s: %v", name, err)
	}
	if err := os.WriteFile(path, []byte(contents), 0644); err != nil {
		s.t.Fatalf("write %s: %v", name, err)
	}
	return path
}

// Mkdir creates a directory in the workspace
func (s *Session) Mkdir(name string) string {
	s.t.Helper()
	path := s.Path(name)
	if err := os.MkdirAll(path, 0755); err != nil {
		s.t.Fatalf("mkdir %s: %v", name, err)
	}
	return path
}

// Start launches fwatch with args in a 120x40 terminal. The working
// directory is a separate scratch dir so log files stay out of the
// watched tree.
func (s *Session) Start(args ...string) error {
	s.cmd = exec.Command(binPath, args...)
	s.cmd.Dir = s.t.TempDir()
	s.cmd.Env = append(os.Environ(),
		"TERM=xterm-256color",
		"LC_ALL=C",
		"LANG=C",
		"HOME="+s.workspace,
	)

	ptyFile, tty, err := pty.Open()
	if err != nil {
		return fmt.Errorf("failed to open pty: %w", err)
	}
	if err := pty.Setsize(ptyFile, &pty.Winsize{Rows: 40, Cols: 120}); err != nil {
		ptyFile.Close()
		tty.Close()
		return fmt.Errorf("failed to size pty: %w", err)
	}

	s.pty = ptyFile
	s.tty = tty
	s.cmd.Stdin = tty
	s.cmd.Stdout = tty
	s.cmd.Stderr = tty

	if err := s.cmd.Start(); err != nil {
		ptyFile.Close()
		tty.Close()
		return fmt.Errorf("failed to start command: %w", err)
	}

	s.exited = make(chan error, 1)
	go func(cmd *exec.Cmd) {
		s.exited <- cmd.Wait()
	}(s.cmd)

	s.startReader()
	return nil
}

func (s *Session) startReader() {
	go func() {
		buf := make([]byte, 8192)
		for {
			n, err := s.pty.Read(buf)
			if n > 0 {
				s.mu.Lock()
				for i := 0; i < n; i++ {
					s.buf[s.head] = buf[i]
					s.head = (s.head + 1) % ringSize
					if s.head == 0 {
						s.full = true
					}
				}
				s.mu.Unlock()
			}
			if err != nil {
				return
			}
		}
	}()
}

// SendKeys writes raw keystrokes to the terminal
func (s *Session) SendKeys(keys string) error {
	s.t.Helper()
	_, err := s.pty.Write([]byte(keys))
	return err
}

// SeePlain waits for text to appear in the output with ANSI removed
func (s *Session) SeePlain(text string) bool {
	s.t.Helper()
	return s.OutputContainsPlain(text, 5*time.Second)
}

// OutputContainsPlain checks the normalized output for text within timeout
func (s *Session) OutputContainsPlain(text string, timeout time.Duration) bool {
	s.t.Helper()
	return s.WaitFor(func(out string) bool {
		return strings.Contains(ansiRe.ReplaceAllString(out, ""), text)
	}, timeout)
}

// WaitFor polls the output until pred holds or timeout passes
func (s *Session) WaitFor(pred func(string) bool, timeout time.Duration) bool {
	s.t.Helper()
	deadline := time.Now().Add(timeout)
	for {
		if pred(s.Snapshot()) {
			return true
		}
		if time.Now().After(deadline) {
			return false
		}
		time.Sleep(25 * time.Millisecond)
	}
}

// WaitExit waits for the process to end and returns its wait error
func (s *Session) WaitExit(timeout time.Duration) (error, bool) {
	select {
	case err := <-s.exited:
		return err, true
	case <-time.After(timeout):
		return nil, false
	}
}

// Snapshot returns everything captured so far
func (s *Session) Snapshot() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.full {
		return string(s.buf[:s.head])
	}
	out := make([]byte, ringSize)
	copy(out, s.buf[s.head:])
	copy(out[ringSize-s.head:], s.buf[:s.head])
	return string(out)
}

// SnapshotPlain returns the captured output with ANSI sequences removed
func (s *Session) SnapshotPlain() string {
	return ansiRe.ReplaceAllString(s.Snapshot(), "")
}

// Mark returns the current length of the plain output, for SeeSince
func (s *Session) Mark() int {
	return len(s.SnapshotPlain())
}

// SeeSince waits for text to appear in output produced after mark
func (s *Session) SeeSince(mark int, text string) bool {
	s.t.Helper()
	return s.WaitFor(func(out string) bool {
		plain := ansiRe.ReplaceAllString(out, "")
		if mark > len(plain) {
			mark = 0
		}
		return strings.Contains(plain[mark:], text)
	}, 5*time.Second)
}

// Tail returns the last n bytes of plain output, for failure messages
func (s *Session) Tail(n int) string {
	out := s.SnapshotPlain()
	if len(out) > n {
		out = out[len(out)-n:]
	}
	return out
}

// Cleanup closes the terminal and kills the process if it is still running
func (s *Session) Cleanup() {
	if s.pty != nil {
		_ = s.pty.Close()
		s.pty = nil
	}
	if s.tty != nil {
		_ = s.tty.Close()
		s.tty = nil
	}
	if s.cmd != nil && s.cmd.Process != nil {
		_ = s.cmd.Process.Kill()
		if s.exited != nil {
			select {
			case <-s.exited:
			case <-time.After(2 * time.Second):
			}
		}
		s.cmd = nil
	}
}
