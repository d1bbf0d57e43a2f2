package discovery

import (
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/enbility/zeroconf/v3"
)

// AnnouncerConfig configures an Announcer.
type AnnouncerConfig struct {
	// Service is the mDNS service type to announce. Empty means
	// DefaultService.
	Service string

	// Domain is the mDNS domain. Empty means DefaultDomain.
	Domain string

	// Interface restricts announcing to one network interface by name.
	// Empty means all interfaces.
	Interface string

	// TTL overrides the record TTL. Zero keeps the zeroconf default.
	TTL time.Duration
}

// Announcer publishes a hardware service instance over mDNS so
// registries on the network can discover it.
type Announcer struct {
	config AnnouncerConfig

	mu     sync.Mutex
	server *zeroconf.Server
}

// NewAnnouncer creates an announcer.
func NewAnnouncer(config AnnouncerConfig) *Announcer {
	if config.Service == "" {
		config.Service = DefaultService
	}
	if config.Domain == "" {
		config.Domain = DefaultDomain
	}
	return &Announcer{config: config}
}

// Announce starts advertising the named instance on the given port. A
// previous announcement is replaced.
func (a *Announcer) Announce(instance string, port int, txt []string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.server != nil {
		a.server.Shutdown()
		a.server = nil
	}

	var opts []zeroconf.ServerOption
	if a.config.TTL > 0 {
		opts = append(opts, zeroconf.TTL(uint32(a.config.TTL.Seconds())))
	}

	server, err := zeroconf.Register(
		instance,
		a.config.Service,
		a.config.Domain,
		port,
		txt,
		a.interfaces(),
		opts...,
	)
	if err != nil {
		return fmt.Errorf("failed to announce %q: %w", instance, err)
	}

	a.server = server
	return nil
}

// Shutdown withdraws the announcement.
func (a *Announcer) Shutdown() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.server != nil {
		a.server.Shutdown()
		a.server = nil
	}
}

// interfaces returns the network interfaces to announce on. Nil means
// all interfaces.
func (a *Announcer) interfaces() []net.Interface {
	if a.config.Interface == "" {
		return nil
	}
	iface, err := net.InterfaceByName(a.config.Interface)
	if err != nil {
		return nil
	}
	return []net.Interface{*iface}
}
