package arbiter

import "github.com/ward-project/ward-go/pkg/driver"

// Cmd identifies an arbiter input event.
type Cmd uint8

const (
	// CmdWifiToggled reports a change of the user wifi toggle. Arg is
	// 1 for enabled, 0 for disabled.
	CmdWifiToggled Cmd = iota

	// CmdAirplaneToggled reports a change of airplane mode. Arg is 1
	// for on, 0 for off.
	CmdAirplaneToggled

	// CmdScanAlwaysChanged reports a change of the scan-always setting.
	CmdScanAlwaysChanged

	// CmdLocationModeChanged reports a change of the location mode.
	CmdLocationModeChanged

	// CmdSetAP requests the access point on (Arg 1, Config set) or off
	// (Arg 0).
	CmdSetAP

	// CmdAPStopped reports that the access point stopped on its own.
	CmdAPStopped

	// CmdAPStartFailure reports that the access point failed to start.
	CmdAPStartFailure

	// CmdStaStartFailure reports that client mode failed to start.
	CmdStaStartFailure

	// CmdStaStopped reports that client mode stopped.
	CmdStaStopped

	// CmdScanningStopped reports that scan-only mode stopped.
	CmdScanningStopped

	// CmdEmergencyModeChanged reports emergency mode entry (Arg 1) or
	// exit (Arg 0).
	CmdEmergencyModeChanged

	// CmdEmergencyCallChanged reports an emergency call starting
	// (Arg 1) or ending (Arg 0).
	CmdEmergencyCallChanged

	// CmdRecoveryRestart requests a restart-style recovery. Reason is
	// set.
	CmdRecoveryRestart

	// CmdRecoveryDisable requests recovery by disabling wifi entirely.
	CmdRecoveryDisable

	// cmdDeferredToggle replays a toggle that arrived during the
	// re-enable holdoff. Serial guards against superseded deferrals.
	cmdDeferredToggle

	// cmdRecoveryContinue completes a restart-style recovery after the
	// disable step.
	cmdRecoveryContinue

	// cmdDump requests a state snapshot, delivered in queue order.
	cmdDump
)

// String returns the command name.
func (c Cmd) String() string {
	switch c {
	case CmdWifiToggled:
		return "WIFI_TOGGLED"
	case CmdAirplaneToggled:
		return "AIRPLANE_TOGGLED"
	case CmdScanAlwaysChanged:
		return "SCAN_ALWAYS_CHANGED"
	case CmdLocationModeChanged:
		return "LOCATION_MODE_CHANGED"
	case CmdSetAP:
		return "SET_AP"
	case CmdAPStopped:
		return "AP_STOPPED"
	case CmdAPStartFailure:
		return "AP_START_FAILURE"
	case CmdStaStartFailure:
		return "STA_START_FAILURE"
	case CmdStaStopped:
		return "STA_STOPPED"
	case CmdScanningStopped:
		return "SCANNING_STOPPED"
	case CmdEmergencyModeChanged:
		return "EMERGENCY_MODE_CHANGED"
	case CmdEmergencyCallChanged:
		return "EMERGENCY_CALL_CHANGED"
	case CmdRecoveryRestart:
		return "RECOVERY_RESTART"
	case CmdRecoveryDisable:
		return "RECOVERY_DISABLE"
	case cmdDeferredToggle:
		return "DEFERRED_TOGGLE"
	case cmdRecoveryContinue:
		return "RECOVERY_CONTINUE"
	case cmdDump:
		return "DUMP"
	default:
		return "UNKNOWN"
	}
}

// RecoveryReason classifies a restart-style recovery trigger.
type RecoveryReason uint8

const (
	// ReasonHalFailure is an unrecoverable hardware layer failure.
	ReasonHalFailure RecoveryReason = iota

	// ReasonIfaceDown is an unexpected interface loss.
	ReasonIfaceDown

	// ReasonWatchdog is a routine watchdog-initiated restart.
	ReasonWatchdog
)

// Severe reports whether the reason warrants a diagnostics report.
func (r RecoveryReason) Severe() bool {
	return r == ReasonHalFailure || r == ReasonIfaceDown
}

// String returns the reason name.
func (r RecoveryReason) String() string {
	switch r {
	case ReasonHalFailure:
		return "HAL_FAILURE"
	case ReasonIfaceDown:
		return "IFACE_DOWN"
	case ReasonWatchdog:
		return "WATCHDOG"
	default:
		return "UNKNOWN"
	}
}

// Event is a single arbiter input.
type Event struct {
	Cmd    Cmd
	Arg    int
	Reason RecoveryReason
	Config driver.SoftApConfig

	serial int
	inner  *Event
	reply  chan DumpState
}
