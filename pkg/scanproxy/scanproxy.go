// Package scanproxy gates scan requests on the current radio mode.
//
// In scan-only operation the radio accepts scans but no connections;
// the proxy is the choke point that forwards or drops scan requests as
// the arbiter flips the gate.
package scanproxy

import (
	"log/slog"
	"sync"
)

// Forwarder executes a forwarded scan request.
type Forwarder interface {
	// StartScan runs a scan on behalf of the given requester. Returns
	// false when the scan could not be started.
	StartScan(requester int) bool
}

// ForwarderFunc adapts a function to the Forwarder interface.
type ForwarderFunc func(requester int) bool

// StartScan calls f.
func (f ForwarderFunc) StartScan(requester int) bool { return f(requester) }

// Stats counts proxy activity.
type Stats struct {
	Forwarded uint64
	Dropped   uint64
}

// Proxy forwards scan requests while scanning is permitted and drops
// them otherwise. Safe for concurrent use.
type Proxy struct {
	fw     Forwarder
	logger *slog.Logger

	mu      sync.Mutex
	enabled bool
	stats   Stats
}

// New creates a proxy in the disabled state.
func New(fw Forwarder, logger *slog.Logger) *Proxy {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Proxy{fw: fw, logger: logger}
}

// SetEnabled flips the scan gate.
func (p *Proxy) SetEnabled(enabled bool) {
	p.mu.Lock()
	changed := p.enabled != enabled
	p.enabled = enabled
	p.mu.Unlock()
	if changed {
		p.logger.Debug("scan gate changed", "enabled", enabled)
	}
}

// Enabled reports whether scans are currently forwarded.
func (p *Proxy) Enabled() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.enabled
}

// StartScan forwards the request if the gate is open. Returns false
// when the request was dropped or the forwarder refused it.
func (p *Proxy) StartScan(requester int) bool {
	p.mu.Lock()
	if !p.enabled {
		p.stats.Dropped++
		p.mu.Unlock()
		p.logger.Debug("scan request dropped", "requester", requester)
		return false
	}
	p.stats.Forwarded++
	p.mu.Unlock()

	return p.fw.StartScan(requester)
}

// Stats returns a copy of the activity counters.
func (p *Proxy) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stats
}
