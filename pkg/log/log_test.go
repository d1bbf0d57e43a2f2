package log

import (
	"bytes"
	"path/filepath"
	"testing"
	"time"
)

func TestEncodeDecodeRoundtrip(t *testing.T) {
	event := ModeChange("DISABLED", "CLIENT_ACTIVE", "WIFI_TOGGLED")

	data, err := EncodeEvent(event)
	if err != nil {
		t.Fatalf("EncodeEvent() error = %v", err)
	}

	decoded, err := DecodeEvent(data)
	if err != nil {
		t.Fatalf("DecodeEvent() error = %v", err)
	}

	if decoded.Component != ComponentArbiter {
		t.Errorf("Component = %v, want ComponentArbiter", decoded.Component)
	}
	if decoded.Category != CategoryStateChange {
		t.Errorf("Category = %v, want CategoryStateChange", decoded.Category)
	}
	if decoded.ModeChange == nil {
		t.Fatal("ModeChange payload missing")
	}
	if decoded.ModeChange.OldMode != "DISABLED" || decoded.ModeChange.NewMode != "CLIENT_ACTIVE" {
		t.Errorf("ModeChange = %+v", decoded.ModeChange)
	}
	if decoded.ModeChange.Cause != "WIFI_TOGGLED" {
		t.Errorf("Cause = %q, want WIFI_TOGGLED", decoded.ModeChange.Cause)
	}
	if !decoded.Timestamp.Equal(event.Timestamp) {
		t.Errorf("Timestamp = %v, want %v", decoded.Timestamp, event.Timestamp)
	}
}

func TestBuilders(t *testing.T) {
	tests := []struct {
		name      string
		event     Event
		component Component
		category  Category
	}{
		{"ModeChange", ModeChange("a", "b", "c"), ComponentArbiter, CategoryStateChange},
		{"SupervisorChange", SupervisorChange("a", "b", "c"), ComponentSupervisor, CategoryStateChange},
		{"HardwareCall", HardwareCall("start", "SUCCESS"), ComponentSupervisor, CategoryHardware},
		{"Recovery", Recovery("WATCHDOG", false, true), ComponentArbiter, CategoryRecovery},
		{"Failure", Failure(ComponentDaemon, "announce", "boom"), ComponentDaemon, CategoryError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.event.Component != tt.component {
				t.Errorf("Component = %v, want %v", tt.event.Component, tt.component)
			}
			if tt.event.Category != tt.category {
				t.Errorf("Category = %v, want %v", tt.event.Category, tt.category)
			}
			if tt.event.Timestamp.IsZero() {
				t.Error("Timestamp is zero")
			}
		})
	}
}

func TestFileLoggerAndReader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.cbor")

	logger, err := NewFileLogger(path)
	if err != nil {
		t.Fatalf("NewFileLogger() error = %v", err)
	}

	logger.Log(ModeChange("DISABLED", "SCAN_ONLY", "SCAN_ALWAYS_CHANGED"))
	logger.Log(HardwareCall("start", "SUCCESS"))
	logger.Log(Recovery("HAL_FAILURE", true, true))
	if err := logger.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	// Log after close is a no-op.
	logger.Log(HardwareCall("stop", "SUCCESS"))

	reader, err := NewReader(path)
	if err != nil {
		t.Fatalf("NewReader() error = %v", err)
	}
	defer reader.Close()

	events, err := reader.ReadAll()
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("read %d events, want 3", len(events))
	}
	if events[0].ModeChange == nil || events[1].Hardware == nil || events[2].Recovery == nil {
		t.Errorf("payloads out of order: %+v", events)
	}
}

func TestFilteredReader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.cbor")

	logger, err := NewFileLogger(path)
	if err != nil {
		t.Fatal(err)
	}
	logger.Log(ModeChange("DISABLED", "CLIENT_ACTIVE", "WIFI_TOGGLED"))
	logger.Log(HardwareCall("start", "SUCCESS"))
	logger.Log(SupervisorChange("DISCOVERING", "SERVICE_UNAVAILABLE", "service present"))
	if err := logger.Close(); err != nil {
		t.Fatal(err)
	}

	category := CategoryHardware
	reader, err := NewFilteredReader(path, Filter{Category: &category})
	if err != nil {
		t.Fatal(err)
	}
	defer reader.Close()

	events, err := reader.ReadAll()
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("read %d events, want 1", len(events))
	}
	if events[0].Hardware == nil || events[0].Hardware.Call != "start" {
		t.Errorf("event = %+v, want hardware start", events[0])
	}
}

func TestFilterTimeWindow(t *testing.T) {
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	event := Event{Timestamp: base, Component: ComponentArbiter}

	start := base.Add(-time.Minute)
	end := base.Add(time.Minute)
	before := base.Add(-2 * time.Minute)

	f := Filter{TimeStart: &start, TimeEnd: &end}
	if !f.matches(event) {
		t.Error("event inside window did not match")
	}

	f = Filter{TimeEnd: &before}
	if f.matches(event) {
		t.Error("event after TimeEnd matched")
	}

	f = Filter{TimeStart: &end}
	if f.matches(event) {
		t.Error("event before TimeStart matched")
	}
}

func TestMultiLogger(t *testing.T) {
	var a, b capture
	multi := NewMultiLogger(&a, &b)

	multi.Log(HardwareCall("start", "SUCCESS"))

	if len(a.events) != 1 || len(b.events) != 1 {
		t.Errorf("fanout counts = %d, %d, want 1, 1", len(a.events), len(b.events))
	}
}

func TestWriterLoggerStream(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWriterLogger(nopCloser{&buf})

	logger.Log(ModeChange("DISABLED", "CLIENT_ACTIVE", "WIFI_TOGGLED"))
	logger.Log(SupervisorChange("DISCOVERING", "SERVICE_UNAVAILABLE", "service present"))
	if err := logger.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	component := ComponentSupervisor
	reader := NewStreamReader(&buf, Filter{Component: &component})
	events, err := reader.ReadAll()
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	if len(events) != 1 || events[0].Supervisor == nil {
		t.Fatalf("events = %+v, want one supervisor event", events)
	}
	if err := reader.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}

type capture struct {
	events []Event
}

func (c *capture) Log(event Event) {
	c.events = append(c.events, event)
}

type nopCloser struct {
	*bytes.Buffer
}

func (nopCloser) Close() error { return nil }
