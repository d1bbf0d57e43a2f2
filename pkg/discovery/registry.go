package discovery

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"sync"

	"github.com/enbility/zeroconf/v3"

	"github.com/ward-project/ward-go/pkg/hal"
)

// Default service naming.
const (
	// DefaultService is the mDNS service type of the hardware control
	// daemon.
	DefaultService = "_wardhal._tcp"

	// DefaultDomain is the mDNS browse domain.
	DefaultDomain = "local."
)

// ServiceEntry describes one discovered service instance.
type ServiceEntry struct {
	Instance  string
	Host      string
	Port      int
	Addresses []string
	Text      []string
}

// Connector dials a discovered instance and returns a handle to it.
type Connector func(entry ServiceEntry) (hal.HardwareService, error)

// RegistryConfig configures an MDNSRegistry.
type RegistryConfig struct {
	// Service is the mDNS service type to browse. Empty means
	// DefaultService.
	Service string

	// Domain is the browse domain. Empty means DefaultDomain.
	Domain string

	// Interface restricts browsing to one network interface by name.
	// Empty means all interfaces.
	Interface string

	// Connector dials discovered instances. Required.
	Connector Connector

	// Logger receives debug logging. Nil disables it.
	Logger *slog.Logger
}

// MDNSRegistry is a hardware service registry backed by mDNS browsing.
// Instances appearing on the network fire presence notifications;
// instances disappearing fire the death recipients linked against
// handles to them.
type MDNSRegistry struct {
	config RegistryConfig
	logger *slog.Logger

	mu        sync.Mutex
	present   map[string]ServiceEntry           // keyed by instance
	listeners map[string][]hal.PresenceListener // keyed by instance, "" matches any
	deaths    map[string][]deathLink            // keyed by instance
	cancel    context.CancelFunc
	started   bool
}

type deathLink struct {
	token string
	fn    hal.DeathRecipient
}

// NewMDNSRegistry creates a registry. Call Start to begin browsing.
func NewMDNSRegistry(config RegistryConfig) (*MDNSRegistry, error) {
	if config.Connector == nil {
		return nil, fmt.Errorf("discovery: Connector is required")
	}
	if config.Service == "" {
		config.Service = DefaultService
	}
	if config.Domain == "" {
		config.Domain = DefaultDomain
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &MDNSRegistry{
		config:    config,
		logger:    logger,
		present:   make(map[string]ServiceEntry),
		listeners: make(map[string][]hal.PresenceListener),
		deaths:    make(map[string][]deathLink),
	}, nil
}

// Start begins browsing. Browsing continues until Stop or ctx ends.
func (r *MDNSRegistry) Start(ctx context.Context) error {
	r.mu.Lock()
	if r.started {
		r.mu.Unlock()
		return nil
	}
	r.started = true
	ctx, r.cancel = context.WithCancel(ctx)
	r.mu.Unlock()

	entries := make(chan *zeroconf.ServiceEntry)
	removed := make(chan *zeroconf.ServiceEntry)

	go r.processEntries(ctx, entries, removed)
	go func() {
		err := zeroconf.Browse(ctx, r.config.Service, r.config.Domain, entries, removed, r.browserOptions()...)
		if err != nil {
			r.logger.Error("mdns browse failed", "error", err)
		}
	}()
	return nil
}

// Stop ends browsing. Present-service state is retained.
func (r *MDNSRegistry) Stop() {
	r.mu.Lock()
	cancel := r.cancel
	r.cancel = nil
	r.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// RegisterForNotifications installs l as a presence listener for the
// named instance. An empty instance matches any instance of the
// service. If a matching instance is already present, l is notified
// immediately with preexisting=true.
func (r *MDNSRegistry) RegisterForNotifications(service, instance string, l hal.PresenceListener) error {
	if service != r.config.Service {
		return fmt.Errorf("discovery: unknown service %q", service)
	}

	r.mu.Lock()
	r.listeners[instance] = append(r.listeners[instance], l)
	var existing []ServiceEntry
	for _, entry := range r.present {
		if instance == "" || entry.Instance == instance {
			existing = append(existing, entry)
		}
	}
	r.mu.Unlock()

	for _, entry := range existing {
		l.OnRegistration(service, entry.Instance, true)
	}
	return nil
}

// Service dials the named instance and returns a handle to it. An
// empty instance picks any present instance.
func (r *MDNSRegistry) Service(service, instance string) (hal.HardwareService, error) {
	if service != r.config.Service {
		return nil, fmt.Errorf("discovery: unknown service %q", service)
	}

	r.mu.Lock()
	var entry ServiceEntry
	found := false
	for _, e := range r.present {
		if instance == "" || e.Instance == instance {
			entry = e
			found = true
			break
		}
	}
	r.mu.Unlock()

	if !found {
		return nil, hal.ErrServiceAbsent
	}

	inner, err := r.config.Connector(entry)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %q: %w", entry.Instance, err)
	}
	return &trackedService{inner: inner, registry: r, instance: entry.Instance}, nil
}

// LinkToDeath links fn to the registry's own death. The mDNS browser
// lives in-process, so the link is accepted but never fires.
func (r *MDNSRegistry) LinkToDeath(fn hal.DeathRecipient, token string) bool {
	return true
}

func (r *MDNSRegistry) processEntries(ctx context.Context, entries, removed <-chan *zeroconf.ServiceEntry) {
	for {
		select {
		case entry, ok := <-entries:
			if !ok {
				return
			}
			r.onAppeared(toServiceEntry(entry))

		case entry, ok := <-removed:
			if !ok {
				// A nil channel never becomes ready again.
				removed = nil
				continue
			}
			r.onDisappeared(entry.Instance)

		case <-ctx.Done():
			return
		}
	}
}

func (r *MDNSRegistry) onAppeared(entry ServiceEntry) {
	r.mu.Lock()
	existing, known := r.present[entry.Instance]
	if known {
		// Same instance seen on another interface: merge addresses,
		// no new notification.
		existing.Addresses = mergeAddresses(existing.Addresses, entry.Addresses)
		r.present[entry.Instance] = existing
		r.mu.Unlock()
		return
	}
	r.present[entry.Instance] = entry
	notify := append([]hal.PresenceListener(nil), r.listeners[entry.Instance]...)
	notify = append(notify, r.listeners[""]...)
	r.mu.Unlock()

	r.logger.Info("hardware service registered", "instance", entry.Instance, "host", entry.Host)
	for _, l := range notify {
		l.OnRegistration(r.config.Service, entry.Instance, false)
	}
}

func (r *MDNSRegistry) onDisappeared(instance string) {
	r.mu.Lock()
	if _, known := r.present[instance]; !known {
		r.mu.Unlock()
		return
	}
	delete(r.present, instance)
	links := r.deaths[instance]
	delete(r.deaths, instance)
	r.mu.Unlock()

	r.logger.Warn("hardware service disappeared", "instance", instance)
	for _, link := range links {
		link.fn(link.token)
	}
}

func (r *MDNSRegistry) linkServiceDeath(instance, token string, fn hal.DeathRecipient) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, known := r.present[instance]; !known {
		return false
	}
	r.deaths[instance] = append(r.deaths[instance], deathLink{token: token, fn: fn})
	return true
}

func (r *MDNSRegistry) browserOptions() []zeroconf.ClientOption {
	var opts []zeroconf.ClientOption
	if r.config.Interface != "" {
		iface, err := net.InterfaceByName(r.config.Interface)
		if err == nil {
			opts = append(opts, zeroconf.SelectIfaces([]net.Interface{*iface}))
		}
	}
	return opts
}

// trackedService routes death links through the registry so an mDNS
// disappearance of the instance fires them.
type trackedService struct {
	inner    hal.HardwareService
	registry *MDNSRegistry
	instance string
}

func (s *trackedService) Start() hal.Status { return s.inner.Start() }
func (s *trackedService) Stop() hal.Status  { return s.inner.Stop() }

func (s *trackedService) RegisterEventCallback(cb hal.EventCallback) hal.Status {
	return s.inner.RegisterEventCallback(cb)
}

func (s *trackedService) LinkToDeath(token string, fn hal.DeathRecipient) bool {
	if !s.registry.linkServiceDeath(s.instance, token, fn) {
		return false
	}
	// Best effort on the inner handle too; transports without their own
	// death signal report false and the mDNS watch covers them.
	s.inner.LinkToDeath(token, fn)
	return true
}

func toServiceEntry(entry *zeroconf.ServiceEntry) ServiceEntry {
	addrs := make([]string, 0, len(entry.AddrIPv4)+len(entry.AddrIPv6))
	for _, ip := range entry.AddrIPv4 {
		addrs = append(addrs, ip.String())
	}
	for _, ip := range entry.AddrIPv6 {
		addrs = append(addrs, ip.String())
	}
	return ServiceEntry{
		Instance:  entry.Instance,
		Host:      entry.HostName,
		Port:      entry.Port,
		Addresses: addrs,
		Text:      entry.Text,
	}
}

// mergeAddresses adds new addresses to the existing list, avoiding
// duplicates.
func mergeAddresses(existing, more []string) []string {
	seen := make(map[string]bool, len(existing))
	for _, addr := range existing {
		seen[addr] = true
	}
	for _, addr := range more {
		if !seen[addr] {
			existing = append(existing, addr)
			seen[addr] = true
		}
	}
	return existing
}

// Ensure MDNSRegistry implements the registry contract.
var _ hal.Registry = (*MDNSRegistry)(nil)
