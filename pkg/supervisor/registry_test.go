package supervisor

import (
	"testing"
	"time"

	"github.com/ward-project/ward-go/pkg/executor"
)

type recordingCallback struct {
	ch chan string
}

func newRecordingCallback() *recordingCallback {
	return &recordingCallback{ch: make(chan string, 16)}
}

func (c *recordingCallback) OnStarted() { c.ch <- "started" }
func (c *recordingCallback) OnStopped() { c.ch <- "stopped" }

func (c *recordingCallback) expect(t *testing.T, want string) {
	t.Helper()
	select {
	case got := <-c.ch:
		if got != want {
			t.Fatalf("notification = %q, want %q", got, want)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for %q notification", want)
	}
}

func (c *recordingCallback) expectNone(t *testing.T) {
	t.Helper()
	select {
	case got := <-c.ch:
		t.Fatalf("unexpected notification %q", got)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestRegistryNotifiesAllSubscribers(t *testing.T) {
	reg := NewStatusCallbackRegistry()
	exec := executor.NewSerial()
	defer exec.Stop()

	a := newRecordingCallback()
	b := newRecordingCallback()
	reg.Register(a, exec)
	reg.Register(b, exec)

	if reg.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", reg.Len())
	}

	reg.NotifyStarted()
	a.expect(t, "started")
	b.expect(t, "started")

	reg.NotifyStopped()
	a.expect(t, "stopped")
	b.expect(t, "stopped")
}

func TestRegistryDeduplicatesCallbacks(t *testing.T) {
	reg := NewStatusCallbackRegistry()
	exec := executor.NewSerial()
	defer exec.Stop()
	other := executor.NewSerial()
	defer other.Stop()

	cb := newRecordingCallback()
	reg.Register(cb, exec)
	reg.Register(cb, exec)
	reg.Register(cb, other) // same callback, different executor

	if reg.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", reg.Len())
	}

	reg.NotifyStarted()
	cb.expect(t, "started")
	cb.expectNone(t)
}

func TestRegistryDeliveryOnSubscriberExecutor(t *testing.T) {
	reg := NewStatusCallbackRegistry()
	exec := executor.NewSerial()
	defer exec.Stop()

	ran := make(chan struct{})
	cb := &execCheckCallback{exec: exec, ran: ran}
	reg.Register(cb, exec)

	// Block the executor so the notification must queue behind it.
	gate := make(chan struct{})
	exec.Post(func() { <-gate })

	reg.NotifyStarted() // must not block the notifier

	select {
	case <-ran:
		t.Fatal("callback ran while its executor was blocked")
	case <-time.After(50 * time.Millisecond):
	}

	close(gate)
	select {
	case <-ran:
	case <-time.After(2 * time.Second):
		t.Fatal("callback never ran after executor unblocked")
	}
}

type execCheckCallback struct {
	exec *executor.Serial
	ran  chan struct{}
}

func (c *execCheckCallback) OnStarted() { close(c.ran) }
func (c *execCheckCallback) OnStopped() {}
