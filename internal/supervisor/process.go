package supervisor

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"syscall"
	"time"

	"golang.org/x/sys/unix"

	"fwatch/internal/domain"
)

// Process is one spawned command. A waiter goroutine reaps it and closes
// Done; Err and ExitCode are only meaningful after that. Exit callbacks
// registered with OnExit run after Done is closed.
type Process struct {
	run  domain.Run
	cmd  *exec.Cmd
	done chan struct{}
	err  error
}

// Start spawns argv in its own process group. With out set, stdout and
// stderr both go to it; otherwise they are inherited. Stdin is never
// connected.
func Start(path string, argv []string, out *os.File) (*Process, error) {
	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Stdin = nil
	if out != nil {
		cmd.Stdout = out
		cmd.Stderr = out
	} else {
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start %s: %w", argv[0], err)
	}

	p := &Process{
		run: domain.Run{
			Pid:       cmd.Process.Pid,
			Path:      path,
			Argv:      argv,
			StartedAt: time.Now(),
		},
		cmd:  cmd,
		done: make(chan struct{}),
	}
	go p.wait()
	return p, nil
}

func (p *Process) wait() {
	p.err = p.cmd.Wait()
	close(p.done)
}

// OnExit runs fn on its own goroutine once the process has been reaped.
// Anything the caller does before OnExit happens before fn runs, even when
// the process already exited.
func (p *Process) OnExit(fn func(*Process)) {
	go func() {
		<-p.done
		fn(p)
	}()
}

// Run describes the invocation
func (p *Process) Run() domain.Run {
	return p.run
}

// Pid returns the child's process id, which is also its group id
func (p *Process) Pid() int {
	return p.run.Pid
}

// Done is closed once the process has been reaped
func (p *Process) Done() <-chan struct{} {
	return p.done
}

// Exited reports whether the process has been reaped
func (p *Process) Exited() bool {
	select {
	case <-p.done:
		return true
	default:
		return false
	}
}

// Err returns the wait error
func (p *Process) Err() error {
	<-p.done
	return p.err
}

// ExitCode returns the exit status, or -1 when killed by a signal
func (p *Process) ExitCode() int {
	<-p.done
	if p.cmd.ProcessState == nil {
		return -1
	}
	return p.cmd.ProcessState.ExitCode()
}

// Terminate kills the whole process group and waits for the waiter to reap
// the child. If the signal cannot be delivered the error is returned and
// Terminate does not wait.
func (p *Process) Terminate() error {
	if p.Exited() {
		return nil
	}
	if err := unix.Kill(-p.run.Pid, unix.SIGKILL); err != nil {
		if !errors.Is(err, unix.ESRCH) {
			if kerr := p.cmd.Process.Kill(); kerr != nil && !errors.Is(kerr, os.ErrProcessDone) {
				return fmt.Errorf("failed to kill process %d: %w", p.run.Pid, err)
			}
		}
	}
	<-p.done
	return nil
}
