package log

import "time"

// Logger is the interface components use to emit domain events.
// Pass nil or NoopLogger to disable logging.
type Logger interface {
	// Log records an event. Implementations must be thread-safe.
	// The event should be processed quickly or queued; blocking affects
	// the emitting event loop.
	Log(event Event)
}

// NoopLogger discards all events. Use when logging is disabled.
// NoopLogger is safe for concurrent use and usable as a zero value.
type NoopLogger struct{}

// Log discards the event.
func (NoopLogger) Log(Event) {}

// MultiLogger fans each event out to several loggers, typically a
// SlogAdapter for the console next to a FileLogger for wardlog.
type MultiLogger struct {
	loggers []Logger
}

// NewMultiLogger combines the given loggers into one.
func NewMultiLogger(loggers ...Logger) *MultiLogger {
	return &MultiLogger{loggers: loggers}
}

// Log delivers the event to every logger in order.
func (m *MultiLogger) Log(event Event) {
	for _, l := range m.loggers {
		l.Log(event)
	}
}

var (
	_ Logger = NoopLogger{}
	_ Logger = (*MultiLogger)(nil)
)

// ModeChange builds a mode transition event.
func ModeChange(oldMode, newMode, cause string) Event {
	return Event{
		Timestamp: time.Now(),
		Component: ComponentArbiter,
		Category:  CategoryStateChange,
		ModeChange: &ModeChangeEvent{
			OldMode: oldMode,
			NewMode: newMode,
			Cause:   cause,
		},
	}
}

// SupervisorChange builds a supervisor state transition event.
func SupervisorChange(oldState, newState, reason string) Event {
	return Event{
		Timestamp: time.Now(),
		Component: ComponentSupervisor,
		Category:  CategoryStateChange,
		Supervisor: &SupervisorStateEvent{
			OldState: oldState,
			NewState: newState,
			Reason:   reason,
		},
	}
}

// HardwareCall builds a hardware control protocol call event.
func HardwareCall(call, status string) Event {
	return Event{
		Timestamp: time.Now(),
		Component: ComponentSupervisor,
		Category:  CategoryHardware,
		Hardware: &HardwareCallEvent{
			Call:   call,
			Status: status,
		},
	}
}

// Recovery builds a recovery action event.
func Recovery(reason string, severe, applied bool) Event {
	return Event{
		Timestamp: time.Now(),
		Component: ComponentArbiter,
		Category:  CategoryRecovery,
		Recovery: &RecoveryEvent{
			Reason:  reason,
			Severe:  severe,
			Applied: applied,
		},
	}
}

// Failure builds an absorbed-failure event for the given component.
func Failure(component Component, context, message string) Event {
	return Event{
		Timestamp: time.Now(),
		Component: component,
		Category:  CategoryError,
		Error: &ErrorEventData{
			Context: context,
			Message: message,
		},
	}
}
