package domain

import "time"

// Watch is one registered directory and the kernel handle it was given
type Watch struct {
	Handle int
	Path   string
}

// Trigger is a qualifying file event that should (re)start the command
type Trigger struct {
	Path string
	At   time.Time
}

// Run describes one spawned command invocation
type Run struct {
	Pid       int
	Path      string
	Argv      []string
	StartedAt time.Time
}
