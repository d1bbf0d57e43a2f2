// Package hal defines the boundary to the out-of-process radio hardware
// abstraction service.
//
// Three surfaces make up the boundary:
//
//   - HardwareService: the control protocol spoken to one incarnation of
//     the service (start, stop, event callback registration, death link).
//   - Registry: the naming/notification service through which the
//     hardware service is discovered and its presence is watched.
//   - EventCallback: the asynchronous lifecycle events the hardware
//     service delivers back.
//
// The package contains interfaces and small value types only. The
// supervisor in pkg/supervisor consumes these; concrete transports
// (mDNS discovery in pkg/discovery, the simulated service in cmd/wardd)
// provide them. All callbacks arrive on the producer's thread of
// control - consumers must marshal onto their own event loop before
// touching state.
package hal
