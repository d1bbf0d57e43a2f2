// Package commands implements the wardlog CLI commands.
package commands

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/ward-project/ward-go/pkg/log"
)

// ParseComponentFlag parses a component name from a CLI flag.
func ParseComponentFlag(s string) (log.Component, error) {
	switch strings.ToLower(s) {
	case "arbiter":
		return log.ComponentArbiter, nil
	case "supervisor":
		return log.ComponentSupervisor, nil
	case "daemon":
		return log.ComponentDaemon, nil
	default:
		return 0, fmt.Errorf("unknown component %q (want arbiter, supervisor or daemon)", s)
	}
}

// ParseCategoryFlag parses a category name from a CLI flag.
func ParseCategoryFlag(s string) (log.Category, error) {
	switch strings.ToLower(s) {
	case "state":
		return log.CategoryStateChange, nil
	case "hardware":
		return log.CategoryHardware, nil
	case "recovery":
		return log.CategoryRecovery, nil
	case "error":
		return log.CategoryError, nil
	default:
		return 0, fmt.Errorf("unknown category %q (want state, hardware, recovery or error)", s)
	}
}

// formatEvent writes a human-readable representation of the event to w.
func formatEvent(w io.Writer, event log.Event) {
	ts := event.Timestamp.UTC().Format("2006-01-02T15:04:05.000000Z")
	fmt.Fprintf(w, "%s %-10s %s\n", ts, event.Component, describeEvent(event))
}

// describeEvent renders the payload of the event as one line.
func describeEvent(event log.Event) string {
	switch {
	case event.ModeChange != nil:
		mc := event.ModeChange
		s := fmt.Sprintf("mode %s -> %s", mc.OldMode, mc.NewMode)
		if mc.Cause != "" {
			s += " (" + mc.Cause + ")"
		}
		return s
	case event.Supervisor != nil:
		sv := event.Supervisor
		s := fmt.Sprintf("supervisor %s -> %s", sv.OldState, sv.NewState)
		if sv.Reason != "" {
			s += " (" + sv.Reason + ")"
		}
		return s
	case event.Hardware != nil:
		return fmt.Sprintf("hal %s = %s", event.Hardware.Call, event.Hardware.Status)
	case event.Recovery != nil:
		r := event.Recovery
		s := "recovery " + r.Reason
		if r.Severe {
			s += " severe"
		}
		if !r.Applied {
			s += " (ignored)"
		}
		return s
	case event.Error != nil:
		return fmt.Sprintf("error %s: %s", event.Error.Context, event.Error.Message)
	default:
		return "unknown event"
	}
}

// RunView reads the log file and prints matching events to w.
func RunView(path string, filter log.Filter, w io.Writer) error {
	reader, err := log.NewFilteredReader(path, filter)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer reader.Close()

	count := 0
	for {
		event, err := reader.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}
		formatEvent(w, event)
		count++
	}

	fmt.Fprintf(w, "\n%d events\n", count)
	return nil
}
