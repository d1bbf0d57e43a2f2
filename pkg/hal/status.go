package hal

// Status is a hardware-level status code returned by HardwareService
// operations.
type Status uint8

const (
	// StatusSuccess indicates the operation was accepted.
	StatusSuccess Status = iota

	// StatusNotAvailable indicates the hardware is not currently usable.
	StatusNotAvailable

	// StatusNotStarted indicates an operation that requires a started
	// hardware service was issued while it was stopped.
	StatusNotStarted

	// StatusInvalidArgs indicates a malformed request.
	StatusInvalidArgs

	// StatusUnknownError indicates an unclassified hardware failure.
	StatusUnknownError
)

// OK reports whether the status indicates success.
func (s Status) OK() bool { return s == StatusSuccess }

// String returns the status name.
func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "SUCCESS"
	case StatusNotAvailable:
		return "NOT_AVAILABLE"
	case StatusNotStarted:
		return "NOT_STARTED"
	case StatusInvalidArgs:
		return "INVALID_ARGS"
	case StatusUnknownError:
		return "UNKNOWN_ERROR"
	default:
		return "UNKNOWN"
	}
}
