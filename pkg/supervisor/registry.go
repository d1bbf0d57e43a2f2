package supervisor

import (
	"sync"

	"github.com/ward-project/ward-go/pkg/executor"
)

// StatusCallback receives supervisor lifecycle notifications.
type StatusCallback interface {
	// OnStarted indicates the hardware service is up.
	OnStarted()

	// OnStopped indicates the hardware service is down. Clean stops and
	// crashes are not distinguished here.
	OnStopped()
}

// subscriberEntry pairs a callback with its delivery context. Identity
// is the callback value.
type subscriberEntry struct {
	cb   StatusCallback
	exec *executor.Serial
}

// StatusCallbackRegistry fans started/stopped events out to registered
// callbacks. Each callback is dispatched on its own executor, never on
// the notifier's goroutine. Registration order is preserved per event,
// but there is no ordering guarantee across subscribers once
// dispatched.
type StatusCallbackRegistry struct {
	mu   sync.Mutex
	subs []subscriberEntry
}

// NewStatusCallbackRegistry creates an empty registry.
func NewStatusCallbackRegistry() *StatusCallbackRegistry {
	return &StatusCallbackRegistry{}
}

// Register adds the (callback, executor) pair. Registering a callback
// that is already present - under any executor - is a no-op, so
// duplicate registrations yield a single notification per event.
func (r *StatusCallbackRegistry) Register(cb StatusCallback, exec *executor.Serial) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, s := range r.subs {
		if s.cb == cb {
			return
		}
	}
	r.subs = append(r.subs, subscriberEntry{cb: cb, exec: exec})
}

// Len returns the number of registered subscribers.
func (r *StatusCallbackRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.subs)
}

// NotifyStarted dispatches OnStarted to every subscriber.
func (r *StatusCallbackRegistry) NotifyStarted() {
	r.dispatch(StatusCallback.OnStarted)
}

// NotifyStopped dispatches OnStopped to every subscriber.
func (r *StatusCallbackRegistry) NotifyStopped() {
	r.dispatch(StatusCallback.OnStopped)
}

func (r *StatusCallbackRegistry) dispatch(fn func(StatusCallback)) {
	r.mu.Lock()
	subs := make([]subscriberEntry, len(r.subs))
	copy(subs, r.subs)
	r.mu.Unlock()

	for _, s := range subs {
		cb := s.cb
		s.exec.Post(func() { fn(cb) })
	}
}
