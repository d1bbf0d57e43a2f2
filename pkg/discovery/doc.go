// Package discovery provides an mDNS-backed hardware service registry.
//
// The registry browses for the hardware control service on the local
// network, notifies interested listeners when an instance registers,
// and synthesizes death notifications when an instance disappears.
// It implements the registry contract the supervisor builds on, so a
// networked hardware daemon and an in-process simulation are
// interchangeable.
package discovery
