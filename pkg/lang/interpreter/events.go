package interpreter

import "fmt"

// ExecutionEvent represents events that can occur during execution
type ExecutionEvent int

const (
	// EventStep is fired after an assignment or expression executes
	EventStep ExecutionEvent = iota
	// EventDelay is fired after a delay completes
	EventDelay
	// EventError is fired when an instruction fails. Execution continues
	// with the next instruction
	EventError
	// EventCancelled is fired when the run context is cancelled
	EventCancelled
)

// String returns the string representation of an ExecutionEvent
func (e ExecutionEvent) String() string {
	switch e {
	case EventStep:
		return "step"
	case EventDelay:
		return "delay"
	case EventError:
		return "error"
	case EventCancelled:
		return "cancelled"
	default:
		return fmt.Sprintf("unknown(%d)", e)
	}
}

// StopReason indicates why execution stopped
type StopReason int

const (
	// StopNone indicates execution has not stopped
	StopNone StopReason = iota
	// StopCompleted indicates every instruction was executed
	StopCompleted
	// StopCancelled indicates the run context was cancelled
	StopCancelled
	// StopCallback indicates the event callback asked to stop
	StopCallback
)

// String returns the string representation of a StopReason
func (r StopReason) String() string {
	switch r {
	case StopNone:
		return "none"
	case StopCompleted:
		return "completed"
	case StopCancelled:
		return "cancelled"
	case StopCallback:
		return "stopped"
	default:
		return fmt.Sprintf("unknown(%d)", r)
	}
}

// MarshalText makes stop reasons readable in exported reports
func (r StopReason) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// EventCallback is called after each step. step is nil for EventCancelled.
// Return true to continue execution, false to stop.
type EventCallback func(event ExecutionEvent, step *StepResult) bool
