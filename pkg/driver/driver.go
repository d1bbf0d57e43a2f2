// Package driver defines the mode-driver facade: the externally owned
// actuator the mode arbiter calls to actually change the operating mode
// of the radio subsystem.
//
// All methods are fire-and-forget from the arbiter's perspective. The
// driver is assumed idempotent-safe to call; real completion (or
// failure) of a transition is reported back to the arbiter later as an
// event, never awaited in place.
package driver

// Band selects the radio band for a soft AP.
type Band uint8

const (
	// BandAny lets the driver pick a band.
	BandAny Band = iota
	// Band2GHz restricts the AP to 2.4 GHz.
	Band2GHz
	// Band5GHz restricts the AP to 5 GHz.
	Band5GHz
)

// String returns the band name.
func (b Band) String() string {
	switch b {
	case BandAny:
		return "ANY"
	case Band2GHz:
		return "2GHZ"
	case Band5GHz:
		return "5GHZ"
	default:
		return "UNKNOWN"
	}
}

// SoftApConfig carries the access-point parameters handed to the driver
// when entering soft AP mode. The arbiter treats it as opaque input.
type SoftApConfig struct {
	SSID    string
	Band    Band
	Channel int
}

// ModeDriver is the actuator interface for mode transitions.
type ModeDriver interface {
	// EnterClientMode brings the radio up as a network client.
	EnterClientMode()

	// EnterScanOnlyMode brings the radio up for scanning only.
	EnterScanOnlyMode()

	// EnterSoftApMode brings the radio up as an access point.
	EnterSoftApMode(cfg SoftApConfig)

	// DisableWifi tears the radio down entirely.
	DisableWifi()
}
