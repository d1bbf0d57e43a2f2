// Package settings holds the externally owned toggle state the mode
// arbiter consults: the wifi enable toggle, airplane mode, the
// scan-always-available preference and the platform location mode.
//
// The store is a live snapshot, not an event source: external signal
// sources update it and then post the corresponding change event to the
// arbiter, which re-reads the store when processing the event. This
// mirrors the split between settings state and change broadcasts in the
// platform this subsystem integrates with.
package settings

import "sync"

// LocationMode is the platform location service mode.
type LocationMode uint8

const (
	// LocationModeOff means location services are disabled. Scan-only
	// mode is not permitted while off.
	LocationModeOff LocationMode = iota

	// LocationModeSensorsOnly uses device sensors only.
	LocationModeSensorsOnly

	// LocationModeBatterySaving uses network-based location.
	LocationModeBatterySaving

	// LocationModeHighAccuracy uses all location sources.
	LocationModeHighAccuracy
)

// String returns the mode name.
func (m LocationMode) String() string {
	switch m {
	case LocationModeOff:
		return "OFF"
	case LocationModeSensorsOnly:
		return "SENSORS_ONLY"
	case LocationModeBatterySaving:
		return "BATTERY_SAVING"
	case LocationModeHighAccuracy:
		return "HIGH_ACCURACY"
	default:
		return "UNKNOWN"
	}
}

// Store is a thread-safe holder of the arbitration inputs. The zero
// value of every field is the conservative default: everything off.
type Store struct {
	mu           sync.RWMutex
	wifiEnabled  bool
	airplaneOn   bool
	scanAlways   bool
	locationMode LocationMode
}

// NewStore creates a Store with all toggles off.
func NewStore() *Store {
	return &Store{}
}

// SetWifiEnabled records the user wifi toggle.
func (s *Store) SetWifiEnabled(enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.wifiEnabled = enabled
}

// WifiEnabled reports the user wifi toggle.
func (s *Store) WifiEnabled() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.wifiEnabled
}

// SetAirplaneMode records the airplane mode state.
func (s *Store) SetAirplaneMode(on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.airplaneOn = on
}

// AirplaneModeOn reports the airplane mode state.
func (s *Store) AirplaneModeOn() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.airplaneOn
}

// SetScanAlwaysAvailable records the scan-always-available preference.
func (s *Store) SetScanAlwaysAvailable(available bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scanAlways = available
}

// ScanAlwaysAvailable reports the scan-always-available preference.
func (s *Store) ScanAlwaysAvailable() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.scanAlways
}

// SetLocationMode records the platform location mode.
func (s *Store) SetLocationMode(m LocationMode) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.locationMode = m
}

// LocationMode reports the platform location mode.
func (s *Store) LocationMode() LocationMode {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.locationMode
}
