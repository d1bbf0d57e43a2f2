package commands

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/ward-project/ward-go/pkg/log"
)

// exportRecord is the flattened JSON form of one event.
type exportRecord struct {
	Timestamp string `json:"timestamp"`
	Component string `json:"component"`
	Category  string `json:"category"`
	Detail    string `json:"detail"`

	ModeChange *log.ModeChangeEvent      `json:"mode_change,omitempty"`
	Supervisor *log.SupervisorStateEvent `json:"supervisor,omitempty"`
	Hardware   *log.HardwareCallEvent    `json:"hardware,omitempty"`
	Recovery   *log.RecoveryEvent        `json:"recovery,omitempty"`
	Error      *log.ErrorEventData       `json:"error,omitempty"`
}

func toRecord(event log.Event) exportRecord {
	return exportRecord{
		Timestamp:  event.Timestamp.UTC().Format(time.RFC3339Nano),
		Component:  event.Component.String(),
		Category:   event.Category.String(),
		Detail:     describeEvent(event),
		ModeChange: event.ModeChange,
		Supervisor: event.Supervisor,
		Hardware:   event.Hardware,
		Recovery:   event.Recovery,
		Error:      event.Error,
	}
}

// RunExport reads the log file and writes it in the given format to
// output ("" means stdout).
func RunExport(path, format, output string) error {
	var w io.Writer = os.Stdout
	if output != "" {
		f, err := os.Create(output)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		w = f
	}

	reader, err := log.NewReader(path)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer reader.Close()

	switch format {
	case "jsonl":
		return exportJSONL(reader, w)
	case "csv":
		return exportCSV(reader, w)
	default:
		return fmt.Errorf("unknown format %q (want jsonl or csv)", format)
	}
}

func exportJSONL(reader *log.Reader, w io.Writer) error {
	enc := json.NewEncoder(w)
	for {
		event, err := reader.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}
		if err := enc.Encode(toRecord(event)); err != nil {
			return fmt.Errorf("failed to encode event: %w", err)
		}
	}
}

func exportCSV(reader *log.Reader, w io.Writer) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write([]string{"timestamp", "component", "category", "detail"}); err != nil {
		return err
	}

	for {
		event, err := reader.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}
		rec := toRecord(event)
		if err := cw.Write([]string{rec.Timestamp, rec.Component, rec.Category, rec.Detail}); err != nil {
			return err
		}
	}
}
