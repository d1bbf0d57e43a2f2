package arbiter

import (
	"log/slog"
	"time"

	"github.com/ward-project/ward-go/pkg/driver"
	"github.com/ward-project/ward-go/pkg/executor"
	wlog "github.com/ward-project/ward-go/pkg/log"
	"github.com/ward-project/ward-go/pkg/settings"
)

// Mode is the radio operating mode the arbiter has selected.
type Mode uint8

const (
	// ModeDisabled means the radio is fully off.
	ModeDisabled Mode = iota

	// ModeScanOnly means the radio scans but carries no connections.
	ModeScanOnly

	// ModeClientActive means the radio runs full client mode.
	ModeClientActive

	// ModeSoftApActive means the radio runs as an access point.
	ModeSoftApActive

	// ModeEmergencyOverride means an emergency condition holds the
	// radio in a fixed configuration until all conditions clear.
	ModeEmergencyOverride
)

// String returns the mode name.
func (m Mode) String() string {
	switch m {
	case ModeDisabled:
		return "DISABLED"
	case ModeScanOnly:
		return "SCAN_ONLY"
	case ModeClientActive:
		return "CLIENT_ACTIVE"
	case ModeSoftApActive:
		return "SOFT_AP_ACTIVE"
	case ModeEmergencyOverride:
		return "EMERGENCY_OVERRIDE"
	default:
		return "UNKNOWN"
	}
}

// DiagnosticsReporter receives a report request when a severe failure
// triggers recovery.
type DiagnosticsReporter interface {
	TakeReport(title, detail string)
}

// Config configures an Arbiter.
type Config struct {
	// ReenableDelay is the holdoff after a disable during which an
	// enable toggle is deferred rather than applied immediately.
	ReenableDelay time.Duration

	// DeferMargin is added on top of the remaining holdoff when
	// scheduling a deferred toggle.
	DeferMargin time.Duration

	// DisableWifiInECM controls whether emergency conditions take the
	// radio over. When false, emergency events only maintain the
	// counters and the current mode is left alone.
	DisableWifiInECM bool

	// Reporter, if set, receives diagnostics requests for severe
	// recovery triggers. Calls are dispatched on ReportExec when that
	// is set, inline otherwise.
	Reporter   DiagnosticsReporter
	ReportExec *executor.Serial

	// Logger receives debug logging. Nil disables it.
	Logger *slog.Logger

	// EventLog receives domain events. Nil disables it.
	EventLog wlog.Logger

	// QueueDepth is the input channel capacity. Zero means a default.
	QueueDepth int
}

// DumpState is a point-in-time diagnostic snapshot.
type DumpState struct {
	Mode            Mode
	EcmModeCount    int
	EcmCallCount    int
	PreApClient     bool
	DeferredPending bool
}

// Arbiter decides the radio operating mode from user settings, access
// point requests, emergency conditions and failure reports. All inputs
// are processed on a single goroutine in arrival order; callers update
// the settings store first and then send the matching event.
type Arbiter struct {
	settings *settings.Store
	drv      driver.ModeDriver

	cfg    Config
	logger *slog.Logger
	events wlog.Logger

	in   chan Event
	quit chan struct{}
	done chan struct{}

	// Everything below is owned by the loop goroutine.
	mode            Mode
	preApClient     bool
	pendingApConfig driver.SoftApConfig
	apDeferred      []Event
	ecmModeCount    int
	ecmCallCount    int
	deferredSerial  int
	haveDeferred    bool
	disabledAt      time.Time
}

const defaultQueueDepth = 256

// New creates an Arbiter over the given settings store and mode driver.
// Call Start to begin processing.
func New(store *settings.Store, drv driver.ModeDriver, cfg Config) *Arbiter {
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}
	if cfg.EventLog == nil {
		cfg.EventLog = wlog.NoopLogger{}
	}
	depth := cfg.QueueDepth
	if depth <= 0 {
		depth = defaultQueueDepth
	}
	return &Arbiter{
		settings: store,
		drv:      drv,
		cfg:      cfg,
		logger:   cfg.Logger,
		events:   cfg.EventLog,
		in:       make(chan Event, depth),
		quit:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start evaluates the initial mode from the current settings, issues
// the matching driver call, and starts the event loop.
func (a *Arbiter) Start() {
	go a.run()
}

// Stop terminates the event loop. Pending events are discarded.
func (a *Arbiter) Stop() {
	close(a.quit)
	<-a.done
}

// Mode returns the current mode, consistent with the event loop at the
// time of the call.
func (a *Arbiter) Mode() Mode {
	return a.Dump().Mode
}

// Dump returns a diagnostic snapshot for operational visibility. The
// snapshot reflects all events sent before the call.
func (a *Arbiter) Dump() DumpState {
	ch := make(chan DumpState, 1)
	a.post(Event{Cmd: cmdDump, reply: ch})
	select {
	case d := <-ch:
		return d
	case <-a.done:
		return DumpState{Mode: ModeDisabled}
	}
}

// ---- input senders ----

// SendWifiToggled reports that the wifi toggle changed. The settings
// store must already hold the new value.
func (a *Arbiter) SendWifiToggled() {
	a.post(Event{Cmd: CmdWifiToggled})
}

// SendAirplaneToggled reports that airplane mode changed.
func (a *Arbiter) SendAirplaneToggled() {
	a.post(Event{Cmd: CmdAirplaneToggled})
}

// SendScanAlwaysChanged reports that the scan-always setting changed.
func (a *Arbiter) SendScanAlwaysChanged() {
	a.post(Event{Cmd: CmdScanAlwaysChanged})
}

// SendLocationModeChanged reports that the location mode changed.
func (a *Arbiter) SendLocationModeChanged() {
	a.post(Event{Cmd: CmdLocationModeChanged})
}

// SendSetAP requests the access point on or off.
func (a *Arbiter) SendSetAP(enable bool, cfg driver.SoftApConfig) {
	ev := Event{Cmd: CmdSetAP, Config: cfg}
	if enable {
		ev.Arg = 1
	}
	a.post(ev)
}

// SendAPStopped reports that the access point stopped on its own.
func (a *Arbiter) SendAPStopped() {
	a.post(Event{Cmd: CmdAPStopped})
}

// SendAPStartFailure reports that the access point failed to start.
func (a *Arbiter) SendAPStartFailure() {
	a.post(Event{Cmd: CmdAPStartFailure})
}

// SendStaStartFailure reports that client mode failed to start.
func (a *Arbiter) SendStaStartFailure() {
	a.post(Event{Cmd: CmdStaStartFailure})
}

// SendEmergencyMode reports emergency mode entry or exit.
func (a *Arbiter) SendEmergencyMode(active bool) {
	ev := Event{Cmd: CmdEmergencyModeChanged}
	if active {
		ev.Arg = 1
	}
	a.post(ev)
}

// SendEmergencyCall reports an emergency call starting or ending.
func (a *Arbiter) SendEmergencyCall(active bool) {
	ev := Event{Cmd: CmdEmergencyCallChanged}
	if active {
		ev.Arg = 1
	}
	a.post(ev)
}

// SendRecoveryRestart requests a restart-style recovery.
func (a *Arbiter) SendRecoveryRestart(reason RecoveryReason) {
	a.post(Event{Cmd: CmdRecoveryRestart, Reason: reason})
}

// SendRecoveryDisable requests recovery by disabling the radio.
func (a *Arbiter) SendRecoveryDisable() {
	a.post(Event{Cmd: CmdRecoveryDisable})
}

func (a *Arbiter) post(ev Event) {
	select {
	case a.in <- ev:
	case <-a.quit:
	}
}

// ---- loop-side implementation ----

func (a *Arbiter) run() {
	defer close(a.done)

	a.enter(a.initialMode(), "startup")
	// The holdoff only applies to disables observed at runtime.
	a.disabledAt = time.Time{}

	for {
		select {
		case ev := <-a.in:
			a.process(ev)
		case <-a.quit:
			return
		}
	}
}

func (a *Arbiter) initialMode() Mode {
	if a.settings.WifiEnabled() && !a.settings.AirplaneModeOn() {
		return ModeClientActive
	}
	if a.scanAvailable() {
		return ModeScanOnly
	}
	return ModeDisabled
}

// scanAvailable reports whether scan-only mode may run: the scan-always
// setting is on and location is not fully off.
func (a *Arbiter) scanAvailable() bool {
	return a.settings.ScanAlwaysAvailable() &&
		a.settings.LocationMode() != settings.LocationModeOff
}

func (a *Arbiter) process(ev Event) {
	if ev.Cmd == cmdDump {
		ev.reply <- DumpState{
			Mode:            a.mode,
			EcmModeCount:    a.ecmModeCount,
			EcmCallCount:    a.ecmCallCount,
			PreApClient:     a.preApClient,
			DeferredPending: a.haveDeferred,
		}
		return
	}

	a.logger.Debug("processing event", "cmd", ev.Cmd, "arg", ev.Arg, "mode", a.mode)

	switch a.mode {
	case ModeEmergencyOverride:
		a.processInEcm(ev)
	case ModeSoftApActive:
		a.processInSoftAp(ev)
	default:
		a.processBaseline(ev)
	}
}

func (a *Arbiter) processBaseline(ev Event) {
	switch ev.Cmd {
	case CmdWifiToggled, CmdAirplaneToggled:
		a.applyToggles(ev)

	case CmdScanAlwaysChanged, CmdLocationModeChanged:
		if a.mode == ModeClientActive {
			return
		}
		if a.scanAvailable() {
			a.enterIfNot(ModeScanOnly, "scan availability change")
		} else {
			a.enterIfNot(ModeDisabled, "scan availability change")
		}

	case CmdSetAP:
		if ev.Arg != 1 {
			return
		}
		if a.mode == ModeDisabled && a.settings.AirplaneModeOn() {
			a.logger.Info("access point request dropped, airplane mode on")
			return
		}
		a.preApClient = a.mode == ModeClientActive
		a.pendingApConfig = ev.Config
		a.enter(ModeSoftApActive, "access point requested")

	case CmdStaStartFailure:
		if a.mode != ModeClientActive {
			return
		}
		if a.scanAvailable() {
			a.enter(ModeScanOnly, "client start failure")
		} else {
			a.enter(ModeDisabled, "client start failure")
		}

	case CmdStaStopped, CmdScanningStopped, CmdAPStopped, CmdAPStartFailure:
		a.logger.Debug("ignoring stop report outside its mode", "cmd", ev.Cmd)

	case CmdEmergencyModeChanged, CmdEmergencyCallChanged:
		a.adjustEcmCounters(ev)
		if a.cfg.DisableWifiInECM && a.ecmActive() {
			a.enter(ModeEmergencyOverride, "emergency condition")
		}

	case CmdRecoveryDisable:
		if a.mode == ModeDisabled {
			return
		}
		a.events.Log(wlog.Recovery("disable requested", false, true))
		a.enter(ModeDisabled, "recovery disable")

	case CmdRecoveryRestart:
		a.beginRestart(ev.Reason)

	case cmdRecoveryContinue:
		a.enterIfNot(a.initialMode(), "recovery restart")

	case cmdDeferredToggle:
		if ev.serial != a.deferredSerial {
			a.logger.Debug("stale deferred toggle ignored", "serial", ev.serial)
			return
		}
		a.haveDeferred = false
		if ev.inner != nil {
			a.process(*ev.inner)
		}
	}
}

// applyToggles handles wifi and airplane toggle events in the baseline
// modes.
func (a *Arbiter) applyToggles(ev Event) {
	if a.settings.AirplaneModeOn() {
		a.enterIfNot(ModeDisabled, "airplane mode on")
		return
	}
	if a.settings.WifiEnabled() {
		if a.mode == ModeClientActive {
			return
		}
		if a.deferToggle(ev) {
			if a.haveDeferred {
				// Two toggles within the holdoff cancel out.
				a.deferredSerial++
			}
			a.haveDeferred = !a.haveDeferred
			return
		}
		a.enter(ModeClientActive, "wifi enabled")
		return
	}
	if a.scanAvailable() {
		a.enterIfNot(ModeScanOnly, "wifi disabled")
	} else {
		a.enterIfNot(ModeDisabled, "wifi disabled")
	}
}

// deferToggle schedules ev for replay if the radio was disabled less
// than the re-enable holdoff ago. Returns false when the toggle can be
// applied immediately.
func (a *Arbiter) deferToggle(ev Event) bool {
	if a.disabledAt.IsZero() {
		return false
	}
	delaySoFar := time.Since(a.disabledAt)
	if delaySoFar >= a.cfg.ReenableDelay {
		return false
	}
	a.deferredSerial++
	inner := ev
	deferred := Event{Cmd: cmdDeferredToggle, serial: a.deferredSerial, inner: &inner}
	wait := a.cfg.ReenableDelay - delaySoFar + a.cfg.DeferMargin
	a.logger.Debug("deferring enable toggle", "wait", wait, "serial", a.deferredSerial)
	time.AfterFunc(wait, func() { a.post(deferred) })
	return true
}

func (a *Arbiter) processInSoftAp(ev Event) {
	switch ev.Cmd {
	case CmdAirplaneToggled:
		if a.settings.AirplaneModeOn() {
			a.preApClient = false
			a.apDeferred = nil
			a.enter(ModeDisabled, "airplane mode on")
			return
		}
		a.recordForRestore(ev)

	case CmdWifiToggled, CmdScanAlwaysChanged, CmdLocationModeChanged:
		a.recordForRestore(ev)

	case CmdSetAP:
		if ev.Arg == 1 {
			return
		}
		a.restoreFromAp("access point stop requested")

	case CmdAPStopped:
		a.restoreFromAp("access point stopped")

	case CmdAPStartFailure:
		a.restoreFromAp("access point start failure")

	case CmdEmergencyModeChanged, CmdEmergencyCallChanged:
		a.adjustEcmCounters(ev)
		if a.cfg.DisableWifiInECM && a.ecmActive() {
			a.preApClient = false
			a.apDeferred = nil
			a.enter(ModeEmergencyOverride, "emergency condition")
		}

	case CmdRecoveryDisable:
		a.preApClient = false
		a.apDeferred = nil
		a.events.Log(wlog.Recovery("disable requested", false, true))
		a.enter(ModeDisabled, "recovery disable")

	case CmdRecoveryRestart:
		// Restarting under tethering would strand clients silently.
		a.logger.Info("recovery restart ignored while access point active")
		a.events.Log(wlog.Recovery(ev.Reason.String(), ev.Reason.Severe(), false))
	}
}

// recordForRestore queues a settings event observed during access point
// operation for replay once the access point winds down.
func (a *Arbiter) recordForRestore(ev Event) {
	a.apDeferred = append(a.apDeferred, ev)
}

// restoreFromAp leaves access point mode and re-derives the mode from
// the current settings. Toggles that changed during access point
// operation already landed in the store, so the derivation covers a
// remembered client session and settings flips alike.
func (a *Arbiter) restoreFromAp(cause string) {
	var target Mode
	switch {
	case a.settings.WifiEnabled() && !a.settings.AirplaneModeOn():
		target = ModeClientActive
	case a.scanAvailable():
		target = ModeScanOnly
	default:
		target = ModeDisabled
	}
	a.preApClient = false
	replay := a.apDeferred
	a.apDeferred = nil

	a.enter(target, cause)
	for _, ev := range replay {
		a.process(ev)
	}
}

func (a *Arbiter) processInEcm(ev Event) {
	switch ev.Cmd {
	case CmdEmergencyModeChanged, CmdEmergencyCallChanged:
		a.adjustEcmCounters(ev)
		if !a.ecmActive() {
			a.enter(a.initialMode(), "emergency cleared")
		}

	case CmdAPStopped:
		a.preApClient = false

	case CmdRecoveryRestart, CmdRecoveryDisable:
		a.logger.Info("recovery ignored during emergency override", "cmd", ev.Cmd)
		a.events.Log(wlog.Recovery("suppressed during emergency", false, false))

	default:
		// Settings changes land in the store and are honored on exit.
		a.logger.Debug("event suppressed during emergency override", "cmd", ev.Cmd)
	}
}

// adjustEcmCounters applies an emergency event to the matching counter,
// clamping at zero so unbalanced exits cannot go negative.
func (a *Arbiter) adjustEcmCounters(ev Event) {
	counter := &a.ecmModeCount
	if ev.Cmd == CmdEmergencyCallChanged {
		counter = &a.ecmCallCount
	}
	if ev.Arg == 1 {
		*counter++
	} else if *counter > 0 {
		*counter--
	}
}

// ecmActive reports whether any emergency condition is outstanding.
func (a *Arbiter) ecmActive() bool {
	return a.ecmModeCount > 0 || a.ecmCallCount > 0
}

// beginRestart performs a restart-style recovery: disable now, then
// re-derive the mode on a follow-up event so the disable is observable
// as its own transition.
func (a *Arbiter) beginRestart(reason RecoveryReason) {
	a.events.Log(wlog.Recovery(reason.String(), reason.Severe(), true))
	if reason.Severe() {
		a.takeReport(reason)
	}
	a.enter(ModeDisabled, "recovery restart: "+reason.String())
	a.post(Event{Cmd: cmdRecoveryContinue})
}

func (a *Arbiter) takeReport(reason RecoveryReason) {
	if a.cfg.Reporter == nil {
		return
	}
	rep := a.cfg.Reporter
	title := "radio recovery: " + reason.String()
	detail := "restart-style recovery triggered while in mode " + a.mode.String()
	if a.cfg.ReportExec != nil {
		a.cfg.ReportExec.Post(func() { rep.TakeReport(title, detail) })
		return
	}
	rep.TakeReport(title, detail)
}

// enter transitions to mode m and runs its entry action. The driver
// call is issued even if m equals the current mode; use enterIfNot to
// skip redundant transitions.
func (a *Arbiter) enter(m Mode, cause string) {
	prev := a.mode
	a.mode = m
	a.logger.Info("mode change", "from", prev, "to", m, "cause", cause)
	a.events.Log(wlog.ModeChange(prev.String(), m.String(), cause))

	switch m {
	case ModeDisabled:
		a.drv.DisableWifi()
		a.noteDisabled()
	case ModeScanOnly:
		a.drv.EnterScanOnlyMode()
		a.noteDisabled()
	case ModeClientActive:
		a.drv.EnterClientMode()
	case ModeSoftApActive:
		a.drv.EnterSoftApMode(a.pendingApConfig)
	case ModeEmergencyOverride:
		a.drv.DisableWifi()
		a.noteDisabled()
	}
}

func (a *Arbiter) enterIfNot(m Mode, cause string) {
	if a.mode == m {
		return
	}
	a.enter(m, cause)
}

// noteDisabled records that the client radio went down, starting the
// re-enable holdoff and invalidating any pending deferred toggle.
func (a *Arbiter) noteDisabled() {
	a.disabledAt = time.Now()
	a.deferredSerial++
	a.haveDeferred = false
}
