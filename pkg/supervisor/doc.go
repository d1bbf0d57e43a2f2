// Package supervisor manages the lifecycle of the out-of-process radio
// hardware abstraction service.
//
// The Supervisor discovers the service through a hal.Registry, links a
// death token to each incarnation, starts and stops the hardware, and
// republishes started/stopped transitions to subscribers through the
// StatusCallbackRegistry. It survives service crashes: a death
// notification invalidates the current handle and the persistent
// presence watch re-establishes a working session when the service
// reappears, without a second Initialize.
//
// The supervisor is a single-threaded event consumer. Every
// asynchronous notification (presence, death, hardware events) is
// posted onto its serialized loop; state is owned by that loop alone.
package supervisor
