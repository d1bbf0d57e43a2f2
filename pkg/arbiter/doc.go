// Package arbiter selects the radio operating mode.
//
// The arbiter consumes toggle changes, access point requests, emergency
// conditions and failure reports, and drives a ModeDriver with the
// resulting mode. Modes form a strict priority order: an emergency
// override preempts everything, an active access point preempts the
// client and scan modes, and the client mode preempts scan-only.
//
// All decisions happen on one goroutine; inputs are queued and applied
// in arrival order. Callers write the underlying setting to the
// settings store first and then send the matching event, so the loop
// always reads settings that are at least as new as the event.
package arbiter
