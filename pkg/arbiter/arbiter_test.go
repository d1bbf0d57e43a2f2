package arbiter

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ward-project/ward-go/pkg/driver"
	"github.com/ward-project/ward-go/pkg/settings"
)

// fakeDriver records facade calls in order.
type fakeDriver struct {
	mu    sync.Mutex
	calls []string
}

func (d *fakeDriver) record(call string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls = append(d.calls, call)
}

func (d *fakeDriver) EnterClientMode()   { d.record("client") }
func (d *fakeDriver) EnterScanOnlyMode() { d.record("scan") }
func (d *fakeDriver) DisableWifi()       { d.record("disable") }

func (d *fakeDriver) EnterSoftApMode(cfg driver.SoftApConfig) {
	d.record("ap:" + cfg.SSID)
}

func (d *fakeDriver) snapshot() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]string, len(d.calls))
	copy(out, d.calls)
	return out
}

func (d *fakeDriver) last() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.calls) == 0 {
		return ""
	}
	return d.calls[len(d.calls)-1]
}

// waitForCall polls until the driver's latest call equals want.
func (d *fakeDriver) waitForCall(t *testing.T, want string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if d.last() == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("driver never saw %q, calls: %v", want, d.snapshot())
}

type fakeReporter struct {
	mu      sync.Mutex
	reports []string
}

func (r *fakeReporter) TakeReport(title, detail string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reports = append(r.reports, title)
}

func (r *fakeReporter) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.reports)
}

type fixture struct {
	store    *settings.Store
	drv      *fakeDriver
	reporter *fakeReporter
	arb      *Arbiter
}

// newFixture builds an arbiter with short timings. prepare runs against
// the settings store before the arbiter starts, so it shapes the
// initial mode.
func newFixture(t *testing.T, prepare func(*settings.Store), mutate func(*Config)) *fixture {
	t.Helper()

	store := settings.NewStore()
	if prepare != nil {
		prepare(store)
	}

	drv := &fakeDriver{}
	reporter := &fakeReporter{}

	cfg := Config{
		ReenableDelay:    30 * time.Millisecond,
		DeferMargin:      5 * time.Millisecond,
		DisableWifiInECM: true,
		Reporter:         reporter,
	}
	if mutate != nil {
		mutate(&cfg)
	}

	arb := New(store, drv, cfg)
	arb.Start()
	t.Cleanup(arb.Stop)

	return &fixture{store: store, drv: drv, reporter: reporter, arb: arb}
}

func TestStartupModeDerivation(t *testing.T) {
	tests := []struct {
		name     string
		prepare  func(*settings.Store)
		wantMode Mode
		wantCall string
	}{
		{
			name:     "AllOff",
			prepare:  nil,
			wantMode: ModeDisabled,
			wantCall: "disable",
		},
		{
			name: "WifiEnabled",
			prepare: func(s *settings.Store) {
				s.SetWifiEnabled(true)
			},
			wantMode: ModeClientActive,
			wantCall: "client",
		},
		{
			name: "ScanAlwaysWithLocation",
			prepare: func(s *settings.Store) {
				s.SetScanAlwaysAvailable(true)
				s.SetLocationMode(settings.LocationModeHighAccuracy)
			},
			wantMode: ModeScanOnly,
			wantCall: "scan",
		},
		{
			// Scan-always alone is not enough: location off vetoes
			// scan-only and the radio must actually be turned off.
			name: "ScanAlwaysLocationOff",
			prepare: func(s *settings.Store) {
				s.SetScanAlwaysAvailable(true)
			},
			wantMode: ModeDisabled,
			wantCall: "disable",
		},
		{
			name: "WifiEnabledButAirplane",
			prepare: func(s *settings.Store) {
				s.SetWifiEnabled(true)
				s.SetAirplaneMode(true)
			},
			wantMode: ModeDisabled,
			wantCall: "disable",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, tt.prepare, nil)
			d := f.arb.Dump()
			assert.Equal(t, tt.wantMode, d.Mode)
			assert.Equal(t, []string{tt.wantCall}, f.drv.snapshot())
		})
	}
}

func TestWifiToggle(t *testing.T) {
	f := newFixture(t, nil, nil)

	f.store.SetWifiEnabled(true)
	f.arb.SendWifiToggled()
	require.Equal(t, ModeClientActive, f.arb.Mode())
	assert.Equal(t, []string{"disable", "client"}, f.drv.snapshot())

	f.store.SetWifiEnabled(false)
	f.arb.SendWifiToggled()
	require.Equal(t, ModeDisabled, f.arb.Mode())
	assert.Equal(t, "disable", f.drv.last())
}

func TestToggleOffFallsBackToScanOnly(t *testing.T) {
	f := newFixture(t, func(s *settings.Store) {
		s.SetWifiEnabled(true)
		s.SetScanAlwaysAvailable(true)
		s.SetLocationMode(settings.LocationModeBatterySaving)
	}, nil)
	require.Equal(t, ModeClientActive, f.arb.Mode())

	f.store.SetWifiEnabled(false)
	f.arb.SendWifiToggled()
	assert.Equal(t, ModeScanOnly, f.arb.Mode())
	assert.Equal(t, "scan", f.drv.last())
}

func TestAirplaneRoundTrip(t *testing.T) {
	f := newFixture(t, func(s *settings.Store) {
		s.SetWifiEnabled(true)
		s.SetScanAlwaysAvailable(true)
		s.SetLocationMode(settings.LocationModeHighAccuracy)
	}, nil)
	require.Equal(t, ModeClientActive, f.arb.Mode())

	// Airplane overrides everything, including available scan-only.
	f.store.SetAirplaneMode(true)
	f.arb.SendAirplaneToggled()
	require.Equal(t, ModeDisabled, f.arb.Mode())
	assert.Equal(t, "disable", f.drv.last())

	// Re-enabling lands within the holdoff, so the client comeback is
	// deferred rather than dropped.
	f.store.SetAirplaneMode(false)
	f.arb.SendAirplaneToggled()
	f.drv.waitForCall(t, "client")
	assert.Equal(t, ModeClientActive, f.arb.Mode())
}

func TestLocationGatesScanOnly(t *testing.T) {
	f := newFixture(t, func(s *settings.Store) {
		s.SetScanAlwaysAvailable(true)
		s.SetLocationMode(settings.LocationModeHighAccuracy)
	}, nil)
	require.Equal(t, ModeScanOnly, f.arb.Mode())

	f.store.SetLocationMode(settings.LocationModeOff)
	f.arb.SendLocationModeChanged()
	require.Equal(t, ModeDisabled, f.arb.Mode())
	assert.Equal(t, "disable", f.drv.last())

	f.store.SetLocationMode(settings.LocationModeSensorsOnly)
	f.arb.SendLocationModeChanged()
	assert.Equal(t, ModeScanOnly, f.arb.Mode())
	assert.Equal(t, "scan", f.drv.last())
}

func TestScanChangesIgnoredInClientMode(t *testing.T) {
	f := newFixture(t, func(s *settings.Store) {
		s.SetWifiEnabled(true)
	}, nil)
	require.Equal(t, ModeClientActive, f.arb.Mode())

	f.store.SetScanAlwaysAvailable(true)
	f.store.SetLocationMode(settings.LocationModeHighAccuracy)
	f.arb.SendScanAlwaysChanged()

	assert.Equal(t, ModeClientActive, f.arb.Mode())
	assert.Equal(t, []string{"client"}, f.drv.snapshot())
}

func TestSoftApFromClientRestoresClient(t *testing.T) {
	f := newFixture(t, func(s *settings.Store) {
		s.SetWifiEnabled(true)
	}, nil)
	require.Equal(t, ModeClientActive, f.arb.Mode())

	f.arb.SendSetAP(true, driver.SoftApConfig{SSID: "hotspot"})
	d := f.arb.Dump()
	require.Equal(t, ModeSoftApActive, d.Mode)
	assert.True(t, d.PreApClient)
	assert.Equal(t, "ap:hotspot", f.drv.last())

	f.arb.SendSetAP(false, driver.SoftApConfig{})
	d = f.arb.Dump()
	assert.Equal(t, ModeClientActive, d.Mode)
	assert.False(t, d.PreApClient)
	assert.Equal(t, "client", f.drv.last())
}

func TestSoftApStartFailureRestores(t *testing.T) {
	f := newFixture(t, func(s *settings.Store) {
		s.SetScanAlwaysAvailable(true)
		s.SetLocationMode(settings.LocationModeHighAccuracy)
	}, nil)
	require.Equal(t, ModeScanOnly, f.arb.Mode())

	f.arb.SendSetAP(true, driver.SoftApConfig{SSID: "hotspot"})
	require.Equal(t, ModeSoftApActive, f.arb.Mode())

	f.arb.SendAPStartFailure()
	assert.Equal(t, ModeScanOnly, f.arb.Mode())
	assert.Equal(t, "scan", f.drv.last())
}

func TestSoftApRequestDroppedInAirplaneDisabled(t *testing.T) {
	f := newFixture(t, func(s *settings.Store) {
		s.SetAirplaneMode(true)
	}, nil)
	require.Equal(t, ModeDisabled, f.arb.Mode())

	f.arb.SendSetAP(true, driver.SoftApConfig{SSID: "hotspot"})
	assert.Equal(t, ModeDisabled, f.arb.Mode())
	assert.Equal(t, []string{"disable"}, f.drv.snapshot())
}

func TestSoftApReplaysToggleOnRestore(t *testing.T) {
	f := newFixture(t, nil, nil)
	require.Equal(t, ModeDisabled, f.arb.Mode())

	f.arb.SendSetAP(true, driver.SoftApConfig{SSID: "hotspot"})
	require.Equal(t, ModeSoftApActive, f.arb.Mode())

	// The user enables wifi while tethering; the mode change waits
	// until the access point winds down.
	f.store.SetWifiEnabled(true)
	f.arb.SendWifiToggled()
	require.Equal(t, ModeSoftApActive, f.arb.Mode())

	f.arb.SendAPStopped()
	assert.Equal(t, ModeClientActive, f.arb.Mode())
	assert.Equal(t, "client", f.drv.last())
}

func TestSoftApRestoreHonorsToggleOff(t *testing.T) {
	f := newFixture(t, func(s *settings.Store) {
		s.SetWifiEnabled(true)
	}, nil)
	require.Equal(t, ModeClientActive, f.arb.Mode())

	f.arb.SendSetAP(true, driver.SoftApConfig{SSID: "hotspot"})
	require.True(t, f.arb.Dump().PreApClient)

	// The toggle flipped off while tethering. The remembered client
	// session does not outrank the current settings on restore.
	f.store.SetWifiEnabled(false)
	f.arb.SendWifiToggled()

	f.arb.SendAPStopped()
	d := f.arb.Dump()
	assert.Equal(t, ModeDisabled, d.Mode)
	assert.False(t, d.PreApClient)
	assert.Equal(t, "disable", f.drv.last())
}

func TestAirplaneKillsSoftAp(t *testing.T) {
	f := newFixture(t, func(s *settings.Store) {
		s.SetWifiEnabled(true)
	}, nil)
	f.arb.SendSetAP(true, driver.SoftApConfig{SSID: "hotspot"})
	require.Equal(t, ModeSoftApActive, f.arb.Mode())

	f.store.SetAirplaneMode(true)
	f.arb.SendAirplaneToggled()
	d := f.arb.Dump()
	assert.Equal(t, ModeDisabled, d.Mode)
	assert.False(t, d.PreApClient)
	assert.Equal(t, "disable", f.drv.last())
}

func TestEmergencyCountersBothMustClear(t *testing.T) {
	f := newFixture(t, func(s *settings.Store) {
		s.SetWifiEnabled(true)
	}, nil)
	require.Equal(t, ModeClientActive, f.arb.Mode())

	f.arb.SendEmergencyMode(true)
	d := f.arb.Dump()
	require.Equal(t, ModeEmergencyOverride, d.Mode)
	assert.Equal(t, 1, d.EcmModeCount)
	assert.Equal(t, "disable", f.drv.last())

	f.arb.SendEmergencyCall(true)
	d = f.arb.Dump()
	assert.Equal(t, 1, d.EcmCallCount)

	// Clearing only one condition keeps the override.
	f.arb.SendEmergencyMode(false)
	d = f.arb.Dump()
	require.Equal(t, ModeEmergencyOverride, d.Mode)
	assert.Equal(t, 0, d.EcmModeCount)

	f.arb.SendEmergencyCall(false)
	d = f.arb.Dump()
	assert.Equal(t, ModeClientActive, d.Mode)
	assert.Equal(t, "client", f.drv.last())
}

func TestEmergencyCounterClampsAtZero(t *testing.T) {
	f := newFixture(t, nil, nil)

	f.arb.SendEmergencyCall(false)
	f.arb.SendEmergencyCall(false)
	f.arb.SendEmergencyCall(true)
	d := f.arb.Dump()

	// Unbalanced exits must not bank negative counts.
	assert.Equal(t, 1, d.EcmCallCount)
	assert.Equal(t, ModeEmergencyOverride, d.Mode)
}

func TestEmergencyIgnoredWhenShutdownDisabled(t *testing.T) {
	f := newFixture(t, func(s *settings.Store) {
		s.SetWifiEnabled(true)
	}, func(cfg *Config) {
		cfg.DisableWifiInECM = false
	})
	require.Equal(t, ModeClientActive, f.arb.Mode())

	// With the shutdown flag off an emergency never takes the radio
	// over. The counters still track the condition.
	f.arb.SendEmergencyMode(true)
	d := f.arb.Dump()
	assert.Equal(t, ModeClientActive, d.Mode)
	assert.Equal(t, 1, d.EcmModeCount)
	assert.Equal(t, []string{"client"}, f.drv.snapshot())

	// Other inputs keep working while the condition is outstanding.
	f.store.SetWifiEnabled(false)
	f.arb.SendWifiToggled()
	assert.Equal(t, ModeDisabled, f.arb.Mode())

	f.arb.SendEmergencyMode(false)
	assert.Equal(t, 0, f.arb.Dump().EcmModeCount)
	assert.Equal(t, ModeDisabled, f.arb.Mode())
}

func TestEmergencySuppressesOtherInputsUntilExit(t *testing.T) {
	f := newFixture(t, func(s *settings.Store) {
		s.SetWifiEnabled(true)
	}, nil)

	f.arb.SendEmergencyMode(true)
	require.Equal(t, ModeEmergencyOverride, f.arb.Mode())

	// The toggle lands in the store but takes effect only on exit.
	f.store.SetWifiEnabled(false)
	f.store.SetScanAlwaysAvailable(true)
	f.store.SetLocationMode(settings.LocationModeHighAccuracy)
	f.arb.SendWifiToggled()
	require.Equal(t, ModeEmergencyOverride, f.arb.Mode())

	f.arb.SendEmergencyMode(false)
	assert.Equal(t, ModeScanOnly, f.arb.Mode())
	assert.Equal(t, "scan", f.drv.last())
}

func TestRecoveryRestart(t *testing.T) {
	f := newFixture(t, func(s *settings.Store) {
		s.SetWifiEnabled(true)
	}, nil)
	require.Equal(t, ModeClientActive, f.arb.Mode())

	f.arb.SendRecoveryRestart(ReasonWatchdog)
	f.drv.waitForCall(t, "client")

	// Restart cycles through a full disable.
	assert.Equal(t, []string{"client", "disable", "client"}, f.drv.snapshot())
	assert.Equal(t, 0, f.reporter.count())
}

func TestRecoveryRestartSevereTakesOneReport(t *testing.T) {
	f := newFixture(t, func(s *settings.Store) {
		s.SetWifiEnabled(true)
	}, nil)

	f.arb.SendRecoveryRestart(ReasonHalFailure)
	f.drv.waitForCall(t, "client")
	assert.Equal(t, 1, f.reporter.count())
}

func TestRecoveryRestartIgnoredDuringSoftAp(t *testing.T) {
	f := newFixture(t, func(s *settings.Store) {
		s.SetWifiEnabled(true)
	}, nil)
	f.arb.SendSetAP(true, driver.SoftApConfig{SSID: "hotspot"})
	require.Equal(t, ModeSoftApActive, f.arb.Mode())

	f.arb.SendRecoveryRestart(ReasonHalFailure)
	assert.Equal(t, ModeSoftApActive, f.arb.Mode())
	assert.Equal(t, "ap:hotspot", f.drv.last())
	assert.Equal(t, 0, f.reporter.count())
}

func TestRecoveryDisable(t *testing.T) {
	f := newFixture(t, func(s *settings.Store) {
		s.SetWifiEnabled(true)
	}, nil)

	f.arb.SendRecoveryDisable()
	require.Equal(t, ModeDisabled, f.arb.Mode())
	assert.Equal(t, "disable", f.drv.last())

	// Already disabled: a second disable request is a no-op.
	before := len(f.drv.snapshot())
	f.arb.SendRecoveryDisable()
	f.arb.Dump()
	assert.Equal(t, before, len(f.drv.snapshot()))
}

func TestRecoveryIgnoredDuringEmergency(t *testing.T) {
	f := newFixture(t, func(s *settings.Store) {
		s.SetWifiEnabled(true)
	}, nil)
	f.arb.SendEmergencyMode(true)
	require.Equal(t, ModeEmergencyOverride, f.arb.Mode())

	before := f.drv.snapshot()
	f.arb.SendRecoveryRestart(ReasonHalFailure)
	f.arb.SendRecoveryDisable()
	f.arb.Dump()

	assert.Equal(t, ModeEmergencyOverride, f.arb.Mode())
	assert.Equal(t, before, f.drv.snapshot())
	assert.Equal(t, 0, f.reporter.count())
}

func TestClientStartFailureFallsBack(t *testing.T) {
	f := newFixture(t, func(s *settings.Store) {
		s.SetWifiEnabled(true)
		s.SetScanAlwaysAvailable(true)
		s.SetLocationMode(settings.LocationModeHighAccuracy)
	}, nil)
	require.Equal(t, ModeClientActive, f.arb.Mode())

	f.arb.SendStaStartFailure()
	assert.Equal(t, ModeScanOnly, f.arb.Mode())
	assert.Equal(t, "scan", f.drv.last())
}

func TestQuickReenableIsDeferred(t *testing.T) {
	f := newFixture(t, func(s *settings.Store) {
		s.SetWifiEnabled(true)
	}, nil)
	require.Equal(t, ModeClientActive, f.arb.Mode())

	f.store.SetWifiEnabled(false)
	f.arb.SendWifiToggled()
	require.Equal(t, ModeDisabled, f.arb.Mode())

	// Re-enable inside the holdoff: applied only after it elapses.
	f.store.SetWifiEnabled(true)
	f.arb.SendWifiToggled()
	d := f.arb.Dump()
	require.Equal(t, ModeDisabled, d.Mode)
	assert.True(t, d.DeferredPending)

	f.drv.waitForCall(t, "client")
	assert.Equal(t, ModeClientActive, f.arb.Mode())
}

func TestDeferredTogglePairCancelsOut(t *testing.T) {
	f := newFixture(t, func(s *settings.Store) {
		s.SetWifiEnabled(true)
	}, nil)

	f.store.SetWifiEnabled(false)
	f.arb.SendWifiToggled()
	require.Equal(t, ModeDisabled, f.arb.Mode())

	// Two enable toggles inside the holdoff invalidate each other.
	f.store.SetWifiEnabled(true)
	f.arb.SendWifiToggled()
	f.store.SetWifiEnabled(true)
	f.arb.SendWifiToggled()

	time.Sleep(100 * time.Millisecond)
	d := f.arb.Dump()
	assert.Equal(t, ModeDisabled, d.Mode)
	assert.False(t, d.DeferredPending)
}
