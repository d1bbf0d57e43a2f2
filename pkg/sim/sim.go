// Package sim provides an in-process simulated hardware service and
// registry for running and testing the daemon without real hardware.
//
// The simulation mirrors the contract the daemon sees from a real
// hardware control service: asynchronous start callbacks, death links
// that fire when an incarnation goes away, and a registry that
// announces new incarnations to presence listeners.
package sim

import (
	"sync"
	"time"

	"github.com/ward-project/ward-go/pkg/hal"
)

// Registry is an in-process hardware service registry.
type Registry struct {
	mu        sync.Mutex
	services  map[string]*Hardware // keyed by instance
	listeners map[string][]hal.PresenceListener
	service   string
}

// NewRegistry creates a registry serving the named service type.
func NewRegistry(service string) *Registry {
	return &Registry{
		services:  make(map[string]*Hardware),
		listeners: make(map[string][]hal.PresenceListener),
		service:   service,
	}
}

// Add registers a hardware instance and notifies presence listeners.
func (r *Registry) Add(hw *Hardware) {
	r.mu.Lock()
	r.services[hw.instance] = hw
	notify := append([]hal.PresenceListener(nil), r.listeners[hw.instance]...)
	notify = append(notify, r.listeners[""]...)
	r.mu.Unlock()

	for _, l := range notify {
		l.OnRegistration(r.service, hw.instance, false)
	}
}

// remove drops a crashed instance without notification; death links on
// the instance itself carry the news.
func (r *Registry) remove(instance string) {
	r.mu.Lock()
	delete(r.services, instance)
	r.mu.Unlock()
}

func (r *Registry) RegisterForNotifications(service, instance string, l hal.PresenceListener) error {
	r.mu.Lock()
	r.listeners[instance] = append(r.listeners[instance], l)
	var existing []string
	for name := range r.services {
		if instance == "" || name == instance {
			existing = append(existing, name)
		}
	}
	r.mu.Unlock()

	for _, name := range existing {
		l.OnRegistration(service, name, true)
	}
	return nil
}

func (r *Registry) Service(service, instance string) (hal.HardwareService, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for name, hw := range r.services {
		if instance == "" || name == instance {
			return hw, nil
		}
	}
	return nil, hal.ErrServiceAbsent
}

func (r *Registry) LinkToDeath(fn hal.DeathRecipient, token string) bool {
	return true
}

var _ hal.Registry = (*Registry)(nil)

// Hardware is one simulated hardware service incarnation. Started
// callbacks arrive asynchronously after a short delay, matching real
// hardware bring-up.
type Hardware struct {
	registry *Registry
	instance string
	startLag time.Duration

	mu      sync.Mutex
	running bool
	dead    bool
	cb      hal.EventCallback
	deaths  []deathLink
}

type deathLink struct {
	token string
	fn    hal.DeathRecipient
}

// NewHardware creates an incarnation. Call Registry.Add to make it
// discoverable.
func NewHardware(registry *Registry, instance string, startLag time.Duration) *Hardware {
	return &Hardware{registry: registry, instance: instance, startLag: startLag}
}

func (h *Hardware) Start() hal.Status {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.dead {
		return hal.StatusNotAvailable
	}
	if h.running {
		return hal.StatusSuccess
	}
	h.running = true
	cb := h.cb
	go func() {
		time.Sleep(h.startLag)
		h.mu.Lock()
		stillUp := h.running && !h.dead
		h.mu.Unlock()
		if stillUp && cb != nil {
			cb.OnStart()
		}
	}()
	return hal.StatusSuccess
}

func (h *Hardware) Stop() hal.Status {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.dead {
		return hal.StatusNotAvailable
	}
	h.running = false
	return hal.StatusSuccess
}

func (h *Hardware) RegisterEventCallback(cb hal.EventCallback) hal.Status {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.dead {
		return hal.StatusNotAvailable
	}
	h.cb = cb
	return hal.StatusSuccess
}

func (h *Hardware) LinkToDeath(token string, fn hal.DeathRecipient) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.dead {
		return false
	}
	h.deaths = append(h.deaths, deathLink{token, fn})
	return true
}

// Crash terminates this incarnation: the registry forgets it and all
// death links fire.
func (h *Hardware) Crash() {
	h.mu.Lock()
	if h.dead {
		h.mu.Unlock()
		return
	}
	h.dead = true
	h.running = false
	links := h.deaths
	h.deaths = nil
	h.mu.Unlock()

	h.registry.remove(h.instance)
	for _, link := range links {
		link.fn(link.token)
	}
}

// Fail delivers an unrecoverable-failure callback, as the hardware
// does when it shuts itself down.
func (h *Hardware) Fail(status hal.Status) {
	h.mu.Lock()
	cb := h.cb
	h.running = false
	h.mu.Unlock()
	if cb != nil {
		cb.OnFailure(status)
	}
}

var _ hal.HardwareService = (*Hardware)(nil)

// DefaultRespawnDelay is how long a crashed incarnation stays gone
// before the controller registers a fresh one.
const DefaultRespawnDelay = time.Second

// Controller owns the current incarnation and respawns a fresh one
// after a crash, the way the platform supervisor restarts the real
// hardware service.
type Controller struct {
	registry *Registry
	instance string
	startLag time.Duration

	// RespawnDelay overrides DefaultRespawnDelay when set before the
	// first Crash.
	RespawnDelay time.Duration

	mu sync.Mutex
	hw *Hardware
}

// NewController creates a controller. Call Spawn to register the first
// incarnation.
func NewController(registry *Registry, instance string, startLag time.Duration) *Controller {
	return &Controller{
		registry:     registry,
		instance:     instance,
		startLag:     startLag,
		RespawnDelay: DefaultRespawnDelay,
	}
}

// Spawn registers a new incarnation with the registry.
func (c *Controller) Spawn() {
	hw := NewHardware(c.registry, c.instance, c.startLag)
	c.mu.Lock()
	c.hw = hw
	c.mu.Unlock()
	c.registry.Add(hw)
}

// Crash kills the current incarnation and schedules a replacement.
func (c *Controller) Crash() {
	c.mu.Lock()
	hw := c.hw
	c.mu.Unlock()
	if hw == nil {
		return
	}
	hw.Crash()
	time.AfterFunc(c.RespawnDelay, c.Spawn)
}

// Fail injects a failure callback on the current incarnation.
func (c *Controller) Fail(status hal.Status) {
	c.mu.Lock()
	hw := c.hw
	c.mu.Unlock()
	if hw != nil {
		hw.Fail(status)
	}
}
