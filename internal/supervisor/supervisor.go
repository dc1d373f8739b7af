package supervisor

import (
	"context"
	"log"
	"os"
	"time"

	"fwatch/internal/domain"
	"fwatch/internal/eventbus"
	"fwatch/internal/relay"
)

// Console is where command output goes when it is not inherited
type Console interface {
	// Reset clears previous output before a new run starts
	Reset()
	// Sink returns a sink bound to the current run
	Sink() relay.Sink
}

// Options configures a Supervisor
type Options struct {
	// Console captures output through a pipe; nil inherits the terminal
	Console Console
	// Bus receives process lifecycle events, may be nil
	Bus eventbus.EventBus
}

// Status is a snapshot of the supervisor's state
type Status struct {
	Current    *domain.Run
	Running    bool
	Started    int
	Superseded int
	Failed     int
}

// Supervisor runs at most one command at a time. A new trigger starts a
// fresh process and kills the previous one. All state lives on the Run
// goroutine and is reached through channels.
type Supervisor struct {
	template Template
	console  Console
	bus      eventbus.EventBus
	triggers chan domain.Trigger
	queries  chan chan Status

	current *Process
	status  Status
}

// New creates a supervisor for template
func New(template Template, opts Options) *Supervisor {
	return &Supervisor{
		template: template,
		console:  opts.Console,
		bus:      opts.Bus,
		triggers: make(chan domain.Trigger, 64),
		queries:  make(chan chan Status),
	}
}

// Trigger queues a run for path. Triggers are handled in order.
func (s *Supervisor) Trigger(ctx context.Context, path string) error {
	select {
	case s.triggers <- domain.Trigger{Path: path, At: time.Now()}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Status asks the Run goroutine for a snapshot
func (s *Supervisor) Status(ctx context.Context) (Status, error) {
	reply := make(chan Status, 1)
	select {
	case s.queries <- reply:
	case <-ctx.Done():
		return Status{}, ctx.Err()
	}
	select {
	case st := <-reply:
		return st, nil
	case <-ctx.Done():
		return Status{}, ctx.Err()
	}
}

// Run handles triggers until ctx is cancelled, then kills the current
// process before returning.
func (s *Supervisor) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			s.shutdown()
			return nil
		case trigger := <-s.triggers:
			s.handle(trigger)
		case reply := <-s.queries:
			reply <- s.snapshot()
		}
	}
}

func (s *Supervisor) handle(trigger domain.Trigger) {
	argv := s.template.Argv(trigger.Path)

	var out, pipe *os.File
	if s.console != nil {
		r, w, err := os.Pipe()
		if err != nil {
			s.spawnFailed(trigger, argv, err)
			return
		}
		pipe, out = r, w
	}

	p, err := Start(trigger.Path, argv, out)
	if out != nil {
		// The child holds its own copy; ours would keep the relay from seeing EOF
		out.Close()
	}
	if err != nil {
		if pipe != nil {
			pipe.Close()
		}
		// The previous run keeps its console
		s.spawnFailed(trigger, argv, err)
		return
	}

	if pipe != nil {
		// Output waits in the pipe until the relay starts
		s.console.Reset()
		sink := s.console.Sink()
		go func() {
			defer pipe.Close()
			if err := relay.Run(pipe, sink); err != nil {
				log.Printf("supervisor: error reading output of pid %d: %v", p.Pid(), err)
			}
		}()
	}

	log.Printf("supervisor: started pid %d: %v", p.Pid(), argv)
	s.status.Started++
	s.publish(domain.ProcessStartedEvent{Run: p.Run()})
	p.OnExit(s.exited)

	if s.current != nil {
		s.terminate(s.current)
	}
	s.current = p
}

func (s *Supervisor) terminate(p *Process) {
	err := p.Terminate()
	if err != nil {
		log.Printf("supervisor: warning: %v", err)
	}
	s.status.Superseded++
	s.publish(domain.ProcessTerminatedEvent{Run: p.Run(), Err: err})
}

func (s *Supervisor) spawnFailed(trigger domain.Trigger, argv []string, err error) {
	log.Printf("supervisor: error starting command: %v", err)
	s.status.Failed++
	s.publish(domain.SpawnFailedEvent{Trigger: trigger, Argv: argv, Err: err})
}

// exited runs once per process after it was reaped. It is registered after
// ProcessStartedEvent is published, so the bus sees start before exit.
func (s *Supervisor) exited(p *Process) {
	s.publish(domain.ProcessExitedEvent{Run: p.Run(), ExitCode: p.ExitCode(), Err: p.Err()})
}

func (s *Supervisor) shutdown() {
	if s.current == nil {
		return
	}
	if err := s.current.Terminate(); err != nil {
		log.Printf("supervisor: warning: %v", err)
	}
	s.current = nil
}

func (s *Supervisor) snapshot() Status {
	st := s.status
	if s.current != nil {
		run := s.current.Run()
		st.Current = &run
		st.Running = !s.current.Exited()
	}
	return st
}

func (s *Supervisor) publish(event domain.DomainEvent) {
	if s.bus != nil {
		s.bus.Publish(event)
	}
}
