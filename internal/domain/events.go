package domain

// EventType represents the type of domain event
type EventType string

// Event types
const (
	EventWatchAdded        EventType = "WatchAdded"
	EventWatchFailed       EventType = "WatchFailed"
	EventWatchRemoved      EventType = "WatchRemoved"
	EventWalkError         EventType = "WalkError"
	EventTriggered         EventType = "Triggered"
	EventProcessStarted    EventType = "ProcessStarted"
	EventProcessExited     EventType = "ProcessExited"
	EventProcessTerminated EventType = "ProcessTerminated"
	EventSpawnFailed       EventType = "SpawnFailed"
	EventError             EventType = "Error"
	EventConfigLoaded      EventType = "ConfigLoaded"
	EventConfigSaved       EventType = "ConfigSaved"
)

// DomainEvent is the interface for all domain events
type DomainEvent interface {
	Type() EventType
}

// WatchAddedEvent is emitted when a directory is registered with the kernel
type WatchAddedEvent struct {
	Watch Watch
}

func (e WatchAddedEvent) Type() EventType { return EventWatchAdded }

// WatchFailedEvent is emitted when a directory could not be registered
type WatchFailedEvent struct {
	Path string
	Err  error
}

func (e WatchFailedEvent) Type() EventType { return EventWatchFailed }

// WatchRemovedEvent is emitted when a handle leaves the watch table
type WatchRemovedEvent struct {
	Watch Watch
}

func (e WatchRemovedEvent) Type() EventType { return EventWatchRemoved }

// WalkErrorEvent is emitted when an entry could not be read during a walk
type WalkErrorEvent struct {
	Path string
	Err  error
}

func (e WalkErrorEvent) Type() EventType { return EventWalkError }

// TriggeredEvent is emitted when a file event qualifies to run the command
type TriggeredEvent struct {
	Trigger Trigger
}

func (e TriggeredEvent) Type() EventType { return EventTriggered }

// ProcessStartedEvent is emitted after a command was spawned
type ProcessStartedEvent struct {
	Run Run
}

func (e ProcessStartedEvent) Type() EventType { return EventProcessStarted }

// ProcessExitedEvent is emitted by the waiter once a child has been reaped
type ProcessExitedEvent struct {
	Run      Run
	ExitCode int
	Err      error
}

func (e ProcessExitedEvent) Type() EventType { return EventProcessExited }

// ProcessTerminatedEvent is emitted when a run is superseded by a newer one
type ProcessTerminatedEvent struct {
	Run Run
	Err error
}

func (e ProcessTerminatedEvent) Type() EventType { return EventProcessTerminated }

// SpawnFailedEvent is emitted when a command could not be started
type SpawnFailedEvent struct {
	Trigger Trigger
	Argv    []string
	Err     error
}

func (e SpawnFailedEvent) Type() EventType { return EventSpawnFailed }

// ErrorEvent is emitted when an error occurs
type ErrorEvent struct {
	Message string
	Err     error
}

func (e ErrorEvent) Type() EventType { return EventError }

// ConfigLoadedEvent is emitted when configuration is loaded
type ConfigLoadedEvent struct {
	Path string
}

func (e ConfigLoadedEvent) Type() EventType { return EventConfigLoaded }

// ConfigSavedEvent is emitted when configuration is saved
type ConfigSavedEvent struct {
	Path string
}

func (e ConfigSavedEvent) Type() EventType { return EventConfigSaved }
