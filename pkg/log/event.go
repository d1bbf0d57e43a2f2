package log

import "time"

// Event is one structured log record. CBOR encoding uses integer keys
// for compactness. Exactly one of the payload pointers is set.
type Event struct {
	// Timestamp when the event occurred (nanosecond precision).
	Timestamp time.Time `cbor:"1,keyasint"`

	// Component that emitted the event.
	Component Component `cbor:"2,keyasint"`

	// Category classifies the event.
	Category Category `cbor:"3,keyasint"`

	// Type-specific payload (one of these will be set).
	ModeChange *ModeChangeEvent       `cbor:"4,keyasint,omitempty"`
	Supervisor *SupervisorStateEvent  `cbor:"5,keyasint,omitempty"`
	Hardware   *HardwareCallEvent     `cbor:"6,keyasint,omitempty"`
	Recovery   *RecoveryEvent         `cbor:"7,keyasint,omitempty"`
	Error      *ErrorEventData        `cbor:"8,keyasint,omitempty"`
}

// Component identifies the emitting component.
type Component uint8

const (
	// ComponentArbiter is the mode arbitration state machine.
	ComponentArbiter Component = 0
	// ComponentSupervisor is the hardware service supervisor.
	ComponentSupervisor Component = 1
	// ComponentDaemon is the daemon wiring layer.
	ComponentDaemon Component = 2
)

// String returns the component name.
func (c Component) String() string {
	switch c {
	case ComponentArbiter:
		return "ARBITER"
	case ComponentSupervisor:
		return "SUPERVISOR"
	case ComponentDaemon:
		return "DAEMON"
	default:
		return "UNKNOWN"
	}
}

// Category classifies the event type.
type Category uint8

const (
	// CategoryStateChange indicates a mode or supervisor state change.
	CategoryStateChange Category = 0
	// CategoryHardware indicates a hardware control protocol call.
	CategoryHardware Category = 1
	// CategoryRecovery indicates a recovery action.
	CategoryRecovery Category = 2
	// CategoryError indicates a failure absorbed by the system.
	CategoryError Category = 3
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case CategoryStateChange:
		return "STATE_CHANGE"
	case CategoryHardware:
		return "HARDWARE"
	case CategoryRecovery:
		return "RECOVERY"
	case CategoryError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ModeChangeEvent records an operating mode transition.
type ModeChangeEvent struct {
	// OldMode and NewMode are mode names.
	OldMode string `cbor:"1,keyasint"`
	NewMode string `cbor:"2,keyasint"`

	// Cause is the command name that triggered the transition.
	Cause string `cbor:"3,keyasint,omitempty"`
}

// SupervisorStateEvent records a supervisor state transition.
type SupervisorStateEvent struct {
	OldState string `cbor:"1,keyasint"`
	NewState string `cbor:"2,keyasint"`

	// Reason is a short free-form explanation (e.g. "service death").
	Reason string `cbor:"3,keyasint,omitempty"`
}

// HardwareCallEvent records a call into the hardware control protocol.
type HardwareCallEvent struct {
	// Call is the operation name (start, stop, registerEventCallback).
	Call string `cbor:"1,keyasint"`

	// Status is the returned status name.
	Status string `cbor:"2,keyasint"`
}

// RecoveryEvent records a recovery command and its classification.
type RecoveryEvent struct {
	// Reason is the recovery reason name.
	Reason string `cbor:"1,keyasint"`

	// Severe indicates the reason triggered a diagnostic report.
	Severe bool `cbor:"2,keyasint"`

	// Applied is false when the command was ignored due to the current
	// priority state.
	Applied bool `cbor:"3,keyasint"`
}

// ErrorEventData records an absorbed failure.
type ErrorEventData struct {
	// Context names the operation that failed.
	Context string `cbor:"1,keyasint"`

	// Message is the failure description.
	Message string `cbor:"2,keyasint"`
}
