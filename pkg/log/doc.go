// Package log provides structured event logging for the radio
// supervision daemon.
//
// Events capture the behavior-bearing moments of the system: mode
// transitions decided by the arbiter, state changes in the hardware
// service supervisor, calls into the hardware control protocol and
// recovery actions. Events are written as a CBOR stream (integer keys
// for compactness) so that long-running captures stay small and can be
// replayed later with Reader.
//
// Implementations of Logger must be safe for concurrent use. Pass nil
// or NoopLogger to disable event logging; components treat the logger
// as optional.
package log
