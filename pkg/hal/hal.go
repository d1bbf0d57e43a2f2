package hal

import (
	"errors"

	"github.com/google/uuid"
)

// Registry errors.
var (
	// ErrServiceAbsent is returned by Registry.Service when the named
	// service is not currently registered.
	ErrServiceAbsent = errors.New("hardware service not present")
)

// EventCallback receives asynchronous lifecycle events from a started
// hardware service.
type EventCallback interface {
	// OnStart fires once the hardware has actually come up after a
	// successful Start call.
	OnStart()

	// OnStop fires when the hardware stopped on its own initiative.
	// Stops requested through HardwareService.Stop are not echoed back.
	OnStop()

	// OnFailure fires when the hardware hit an unrecoverable error and
	// shut itself down.
	OnFailure(status Status)
}

// DeathRecipient is invoked when a linked service incarnation terminates.
// The token identifies the incarnation the link was established against;
// recipients must ignore tokens they do not recognize.
type DeathRecipient func(token string)

// HardwareService is a handle to one incarnation of the radio hardware
// abstraction service. Handles are never reused across incarnations:
// after a death notification the handle is dead and a fresh one must be
// obtained from the Registry.
type HardwareService interface {
	// Start asks the hardware to start the radio. A StatusSuccess return
	// only means the request was accepted; the actual "started" signal
	// arrives later through the registered EventCallback.
	Start() Status

	// Stop asks the hardware to stop the radio. Stopping is complete
	// once the call returns.
	Stop() Status

	// RegisterEventCallback registers cb for lifecycle events from this
	// incarnation. Later registrations replace earlier ones.
	RegisterEventCallback(cb EventCallback) Status

	// LinkToDeath arranges for fn(token) to be invoked if this
	// incarnation terminates. Returns false when the link could not be
	// established (usually because the incarnation is already gone).
	LinkToDeath(token string, fn DeathRecipient) bool
}

// PresenceListener receives service registration notifications from the
// Registry.
type PresenceListener interface {
	// OnRegistration fires whenever the watched service (re)registers.
	// preexisting is true when the service was already registered at the
	// time the listener was installed; such a notification fires
	// immediately on registration of the listener.
	OnRegistration(service, instance string, preexisting bool)
}

// Registry is the naming/notification service used to discover the
// hardware service and watch its presence. A presence watch, once
// registered, persists for the lifetime of the process.
type Registry interface {
	// RegisterForNotifications installs l as a presence listener for the
	// named service. If the service is already present the listener is
	// notified immediately with preexisting=true.
	RegisterForNotifications(service, instance string, l PresenceListener) error

	// Service returns a handle to the current incarnation of the named
	// service, or ErrServiceAbsent if it is not registered.
	Service(service, instance string) (HardwareService, error)

	// LinkToDeath links fn to the registry's own death. Returns false if
	// the link could not be established.
	LinkToDeath(fn DeathRecipient, token string) bool
}

// NewDeathToken returns a fresh token identifying one service
// incarnation. Tokens are unique for the lifetime of the process.
func NewDeathToken() string {
	return uuid.NewString()
}
