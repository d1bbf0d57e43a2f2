package commands

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/ward-project/ward-go/pkg/log"
)

// Stats holds aggregate statistics about a log file.
type Stats struct {
	TotalEvents      int
	EventsByCategory map[log.Category]int
	ModeTransitions  map[string]int // "OLD -> NEW"
	Recoveries       int
	RecoveriesSevere int
	Errors           int
	TimeRange        struct {
		Start time.Time
		End   time.Time
	}
}

// RunStats analyzes the log file and prints statistics.
func RunStats(path string, w io.Writer) error {
	reader, err := log.NewReader(path)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer reader.Close()

	stats := &Stats{
		EventsByCategory: make(map[log.Category]int),
		ModeTransitions:  make(map[string]int),
	}

	for {
		event, err := reader.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}
		collect(stats, event)
	}

	printStats(w, stats)
	return nil
}

func collect(stats *Stats, event log.Event) {
	stats.TotalEvents++
	stats.EventsByCategory[event.Category]++

	if stats.TimeRange.Start.IsZero() || event.Timestamp.Before(stats.TimeRange.Start) {
		stats.TimeRange.Start = event.Timestamp
	}
	if event.Timestamp.After(stats.TimeRange.End) {
		stats.TimeRange.End = event.Timestamp
	}

	switch {
	case event.ModeChange != nil:
		key := event.ModeChange.OldMode + " -> " + event.ModeChange.NewMode
		stats.ModeTransitions[key]++
	case event.Recovery != nil:
		stats.Recoveries++
		if event.Recovery.Severe {
			stats.RecoveriesSevere++
		}
	case event.Error != nil:
		stats.Errors++
	}
}

func printStats(w io.Writer, stats *Stats) {
	fmt.Fprintf(w, "Total events: %d\n", stats.TotalEvents)

	if stats.TotalEvents > 0 {
		fmt.Fprintf(w, "Time range:   %s .. %s (%s)\n",
			stats.TimeRange.Start.UTC().Format(time.RFC3339),
			stats.TimeRange.End.UTC().Format(time.RFC3339),
			stats.TimeRange.End.Sub(stats.TimeRange.Start).Round(time.Millisecond))
	}

	fmt.Fprintln(w, "\nBy category:")
	for _, cat := range []log.Category{
		log.CategoryStateChange, log.CategoryHardware, log.CategoryRecovery, log.CategoryError,
	} {
		if n := stats.EventsByCategory[cat]; n > 0 {
			fmt.Fprintf(w, "  %-14s %d\n", cat, n)
		}
	}

	if len(stats.ModeTransitions) > 0 {
		fmt.Fprintln(w, "\nMode transitions:")
		keys := make([]string, 0, len(stats.ModeTransitions))
		for k := range stats.ModeTransitions {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(w, "  %-30s %d\n", k, stats.ModeTransitions[k])
		}
	}

	if stats.Recoveries > 0 {
		fmt.Fprintf(w, "\nRecoveries: %d (%d severe)\n", stats.Recoveries, stats.RecoveriesSevere)
	}
	if stats.Errors > 0 {
		fmt.Fprintf(w, "Errors: %d\n", stats.Errors)
	}
}
