package commands

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/ward-project/ward-go/pkg/log"
)

// FilterOptions configures the filter command.
type FilterOptions struct {
	// Output is the destination log file path. Required.
	Output string

	// Component and Category restrict by name; empty matches all.
	Component string
	Category  string

	// TimeStart and TimeEnd restrict by RFC3339 timestamps; empty
	// means unbounded.
	TimeStart string
	TimeEnd   string
}

// buildFilter translates the string options into a log.Filter.
func (o FilterOptions) buildFilter() (log.Filter, error) {
	var filter log.Filter

	if o.Component != "" {
		c, err := ParseComponentFlag(o.Component)
		if err != nil {
			return filter, err
		}
		filter.Component = &c
	}
	if o.Category != "" {
		c, err := ParseCategoryFlag(o.Category)
		if err != nil {
			return filter, err
		}
		filter.Category = &c
	}
	if o.TimeStart != "" {
		t, err := time.Parse(time.RFC3339, o.TimeStart)
		if err != nil {
			return filter, fmt.Errorf("invalid time-start: %w", err)
		}
		filter.TimeStart = &t
	}
	if o.TimeEnd != "" {
		t, err := time.Parse(time.RFC3339, o.TimeEnd)
		if err != nil {
			return filter, fmt.Errorf("invalid time-end: %w", err)
		}
		filter.TimeEnd = &t
	}

	return filter, nil
}

// RunFilter reads the log file and writes the matching events to a new
// log file.
func RunFilter(path string, opts FilterOptions) error {
	filter, err := opts.buildFilter()
	if err != nil {
		return err
	}

	reader, err := log.NewFilteredReader(path, filter)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer reader.Close()

	out, err := log.NewFileLogger(opts.Output)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer out.Close()

	count := 0
	for {
		event, err := reader.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}
		out.Log(event)
		count++
	}

	fmt.Printf("Wrote %d events to %s\n", count, opts.Output)
	return nil
}
