package supervisor

import (
	"log/slog"

	"github.com/ward-project/ward-go/pkg/executor"
	"github.com/ward-project/ward-go/pkg/hal"
	wlog "github.com/ward-project/ward-go/pkg/log"
)

// State is the supervisor lifecycle state.
type State uint8

const (
	// StateNotDiscovered means Initialize has not run yet.
	StateNotDiscovered State = iota

	// StateDiscovering means the presence watch is armed but the
	// service has not been seen.
	StateDiscovering

	// StateServiceUnavailable means the hardware is not running: either
	// the service is present but stopped, or it died and the watch is
	// waiting for it to reappear.
	StateServiceUnavailable

	// StateStartingHardware means a start was issued and the hardware
	// has not yet reported up.
	StateStartingHardware

	// StateReady means the hardware reported up.
	StateReady
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateNotDiscovered:
		return "NOT_DISCOVERED"
	case StateDiscovering:
		return "DISCOVERING"
	case StateServiceUnavailable:
		return "SERVICE_UNAVAILABLE"
	case StateStartingHardware:
		return "STARTING_HARDWARE"
	case StateReady:
		return "READY"
	default:
		return "UNKNOWN"
	}
}

// Config configures a Supervisor.
type Config struct {
	// Service and Instance name the hardware service in the registry.
	Service  string
	Instance string

	// Logger receives debug logging. Nil disables it.
	Logger *slog.Logger

	// EventLog receives domain events. Nil disables it.
	EventLog wlog.Logger
}

// DumpState is a point-in-time diagnostic snapshot.
type DumpState struct {
	State          string
	ServicePresent bool
	Started        bool
	WantStarted    bool
	Subscribers    int
}

// Supervisor supervises the hardware service. See the package
// documentation for the lifecycle it implements.
type Supervisor struct {
	registry hal.Registry
	status   *StatusCallbackRegistry
	loop     *executor.Serial

	service  string
	instance string
	logger   *slog.Logger
	events   wlog.Logger

	// Everything below is owned by the loop goroutine.
	state        State
	svc          hal.HardwareService
	deathToken   string
	gen          uint64 // incarnation generation, guards stale hw events
	started      bool
	startPending bool
	wantStarted  bool
	registryLost bool
	initialized  bool
}

// New creates a Supervisor over the given registry. Call Initialize to
// arm discovery.
func New(registry hal.Registry, cfg Config) *Supervisor {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	events := cfg.EventLog
	if events == nil {
		events = wlog.NoopLogger{}
	}
	return &Supervisor{
		registry: registry,
		status:   NewStatusCallbackRegistry(),
		loop:     executor.NewSerial(),
		service:  cfg.Service,
		instance: cfg.Instance,
		logger:   logger,
		events:   events,
	}
}

// RegisterStatusCallback registers cb for started/stopped notifications
// dispatched on exec. Duplicate callback registrations are ignored.
// There is no sticky behavior: use Started for the current status.
func (s *Supervisor) RegisterStatusCallback(cb StatusCallback, exec *executor.Serial) {
	s.status.Register(cb, exec)
}

// Initialize arms the presence watch for the hardware service and links
// to the registry's own death. Safe to call once; the watch persists
// for the process lifetime and is never re-armed by callers - crash
// recovery happens internally.
func (s *Supervisor) Initialize() {
	s.loop.Post(s.initialize)
}

// Start requests the hardware to start. Asynchronous and best-effort:
// if the service is currently absent the request is remembered and
// retried once the service appears; failures surface to subscribers as
// a stopped notification. Calling Start while started (or while a start
// is pending) is a no-op.
func (s *Supervisor) Start() {
	s.loop.Post(s.start)
}

// Stop requests the hardware to stop. The stopped notification is
// delivered as soon as the hardware call returns; the supervisor does
// not wait for the hardware's own callback. Calling Stop when never
// started is a no-op.
func (s *Supervisor) Stop() {
	s.loop.Post(s.stop)
}

// Started reports whether the hardware has reported up. The answer is
// consistent with the supervisor's event loop at the time of the call.
func (s *Supervisor) Started() bool {
	return s.dump().Started
}

// Dump returns a diagnostic snapshot for operational visibility.
func (s *Supervisor) Dump() DumpState {
	return s.dump()
}

// Close stops the supervisor's event loop. The presence watch on the
// registry side is not unregistered; this is process-teardown only.
func (s *Supervisor) Close() {
	s.loop.Stop()
}

func (s *Supervisor) dump() DumpState {
	ch := make(chan DumpState, 1)
	ok := s.loop.Post(func() {
		ch <- DumpState{
			State:          s.state.String(),
			ServicePresent: s.svc != nil,
			Started:        s.started,
			WantStarted:    s.wantStarted,
			Subscribers:    s.status.Len(),
		}
	})
	if !ok {
		return DumpState{State: "CLOSED"}
	}
	return <-ch
}

// ---- loop-side implementation ----

func (s *Supervisor) initialize() {
	if s.initialized {
		return
	}
	s.initialized = true

	registryToken := hal.NewDeathToken()
	if !s.registry.LinkToDeath(s.postDeath(true), registryToken) {
		s.logger.Error("failed to link to registry death")
	}

	if err := s.registry.RegisterForNotifications(s.service, s.instance, presenceListener{s}); err != nil {
		// System-breaking in any case: without the watch the service
		// can never be supervised.
		s.logger.Error("failed to register presence listener", "error", err)
		s.events.Log(wlog.Failure(wlog.ComponentSupervisor, "registerForNotifications", err.Error()))
		return
	}

	s.setState(StateDiscovering, "presence watch armed")
}

// onPresence handles a service registration notification, marshaled
// from the registry's thread of control.
func (s *Supervisor) onPresence(service, instance string, preexisting bool) {
	s.logger.Debug("service registration notification",
		"service", service, "instance", instance, "preexisting", preexisting)

	if s.svc != nil {
		// The preexisting-fire and a live notification can race across
		// listener installation; the handle is already good.
		s.logger.Debug("already holding a service handle, ignoring")
		return
	}

	svc, err := s.registry.Service(s.service, s.instance)
	if err != nil {
		s.logger.Warn("service not (yet) obtainable, waiting for next notification", "error", err)
		return
	}

	token := hal.NewDeathToken()
	if !svc.LinkToDeath(token, s.postDeath(false)) {
		s.logger.Error("link to death failed, will retry on next notification")
		return
	}

	s.gen++
	if st := svc.RegisterEventCallback(hwEvents{s: s, gen: s.gen}); !st.OK() {
		// Possible indication the service died right after discovery;
		// the death link will do the rest.
		s.logger.Error("registerEventCallback failed", "status", st)
		s.events.Log(wlog.HardwareCall("registerEventCallback", st.String()))
	}

	s.svc = svc
	s.deathToken = token
	if s.state == StateDiscovering {
		s.setState(StateServiceUnavailable, "service present")
	}

	if s.wantStarted && !s.started && !s.startPending {
		s.logger.Info("service appeared, issuing deferred start")
		s.issueStart()
	}
}

func (s *Supervisor) start() {
	if s.started || s.startPending {
		return
	}
	s.wantStarted = true

	if s.svc == nil {
		s.logger.Info("start requested while service absent, deferred")
		return
	}
	s.issueStart()
}

func (s *Supervisor) issueStart() {
	st := s.svc.Start()
	s.events.Log(wlog.HardwareCall("start", st.String()))
	if !st.OK() {
		// StartRejected: no retry, surfaces as stopped.
		s.logger.Error("hardware start rejected", "status", st)
		s.wantStarted = false
		s.status.NotifyStopped()
		return
	}
	s.startPending = true
	s.setState(StateStartingHardware, "start accepted")
}

func (s *Supervisor) stop() {
	s.wantStarted = false
	if !s.started && !s.startPending {
		return
	}

	if s.svc != nil {
		st := s.svc.Stop()
		s.events.Log(wlog.HardwareCall("stop", st.String()))
		if !st.OK() {
			s.logger.Error("hardware stop failed", "status", st)
		}
	}

	// Stopped is declared synchronously, whatever the hardware said.
	s.started = false
	s.startPending = false
	s.setState(StateServiceUnavailable, "stop requested")
	s.status.NotifyStopped()
}

// onHwStart handles the hardware's asynchronous started callback.
func (s *Supervisor) onHwStart(gen uint64) {
	if gen != s.gen {
		s.logger.Debug("stale hardware start callback ignored", "gen", gen)
		return
	}
	if !s.startPending {
		s.logger.Warn("unsolicited hardware start callback ignored")
		return
	}
	s.startPending = false
	s.started = true
	s.setState(StateReady, "hardware up")
	s.status.NotifyStarted()
}

// onHwDown handles the hardware's stop/failure callbacks. Both surface
// to subscribers as stopped; the handle stays valid because the service
// process itself is still alive.
func (s *Supervisor) onHwDown(gen uint64, reason string) {
	if gen != s.gen {
		s.logger.Debug("stale hardware down callback ignored", "gen", gen)
		return
	}
	s.logger.Warn("hardware reported down", "reason", reason)
	s.events.Log(wlog.Failure(wlog.ComponentSupervisor, "hardware", reason))

	s.wantStarted = false
	s.started = false
	s.startPending = false
	s.setState(StateServiceUnavailable, reason)
	s.status.NotifyStopped()
}

// onDeath handles a death notification for the service or the registry.
func (s *Supervisor) onDeath(token string, registryDied bool) {
	if registryDied {
		// Most likely the whole system is going down; nothing sensible
		// to re-arm.
		s.logger.Error("naming registry died")
		s.registryLost = true
		return
	}

	if token != s.deathToken {
		s.logger.Debug("stale death notification ignored", "token", token)
		return
	}

	s.logger.Warn("hardware service died")
	s.events.Log(wlog.Failure(wlog.ComponentSupervisor, "service", "death notification"))

	s.svc = nil
	s.deathToken = ""
	s.wantStarted = false
	s.started = false
	s.startPending = false
	s.setState(StateServiceUnavailable, "service death")

	// Subscribers cannot tell a crash from a clean stop.
	s.status.NotifyStopped()

	// The presence watch is still armed: recovery happens on the next
	// registration notification.
}

func (s *Supervisor) setState(next State, reason string) {
	if s.state == next {
		return
	}
	prev := s.state
	s.state = next
	s.logger.Debug("supervisor state change", "from", prev, "to", next, "reason", reason)
	s.events.Log(wlog.SupervisorChange(prev.String(), next.String(), reason))
}

// postDeath returns a hal.DeathRecipient that marshals onto the loop.
func (s *Supervisor) postDeath(registry bool) hal.DeathRecipient {
	return func(token string) {
		s.loop.Post(func() { s.onDeath(token, registry) })
	}
}

// presenceListener marshals registry notifications onto the loop.
type presenceListener struct {
	s *Supervisor
}

func (l presenceListener) OnRegistration(service, instance string, preexisting bool) {
	l.s.loop.Post(func() { l.s.onPresence(service, instance, preexisting) })
}

// hwEvents marshals hardware callbacks onto the loop, tagged with the
// incarnation generation so callbacks from a replaced incarnation are
// discarded.
type hwEvents struct {
	s   *Supervisor
	gen uint64
}

func (h hwEvents) OnStart() {
	h.s.loop.Post(func() { h.s.onHwStart(h.gen) })
}

func (h hwEvents) OnStop() {
	h.s.loop.Post(func() { h.s.onHwDown(h.gen, "hardware stop callback") })
}

func (h hwEvents) OnFailure(status hal.Status) {
	h.s.loop.Post(func() { h.s.onHwDown(h.gen, "hardware failure: "+status.String()) })
}
