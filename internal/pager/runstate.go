package pager

import (
	"fmt"
	"path/filepath"

	"fwatch/internal/eventbus"
)

// RunState is what the status row shows about the command
type RunState struct {
	Path     string
	Pid      int
	Running  bool
	ExitCode int
	Failure  string
}

func (r RunState) String() string {
	switch {
	case r.Failure != "":
		return "failed: " + r.Failure
	case r.Running:
		return fmt.Sprintf("running %s (pid %d)", filepath.Base(r.Path), r.Pid)
	case r.Path != "":
		return fmt.Sprintf("exit %d %s", r.ExitCode, filepath.Base(r.Path))
	default:
		return "waiting for changes"
	}
}

// Follow keeps the run state in step with process events on bus.
// The returned function unsubscribes.
func (p *Pager) Follow(bus eventbus.EventBus) func() {
	unsubs := []func(){
		bus.Subscribe(eventbus.EventProcessStarted, func(e eventbus.DomainEvent) {
			if ev, ok := e.(eventbus.ProcessStartedEvent); ok {
				p.SetRunState(RunState{Path: ev.Run.Path, Pid: ev.Run.Pid, Running: true})
			}
		}),
		bus.Subscribe(eventbus.EventProcessExited, func(e eventbus.DomainEvent) {
			ev, ok := e.(eventbus.ProcessExitedEvent)
			if !ok {
				return
			}
			// Exits of superseded runs arrive after their replacement started
			if p.RunState().Pid != ev.Run.Pid {
				return
			}
			p.SetRunState(RunState{Path: ev.Run.Path, Pid: ev.Run.Pid, ExitCode: ev.ExitCode})
		}),
		bus.Subscribe(eventbus.EventSpawnFailed, func(e eventbus.DomainEvent) {
			if ev, ok := e.(eventbus.SpawnFailedEvent); ok && ev.Err != nil {
				p.SetRunState(RunState{Path: ev.Trigger.Path, Failure: ev.Err.Error()})
			}
		}),
	}
	return func() {
		for _, u := range unsubs {
			u()
		}
	}
}
