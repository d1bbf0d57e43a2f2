// Command wardlog is a tool for viewing and analyzing wardd event log
// files.
//
// Event logs are created by running wardd with the -event-log flag (or
// the event_log config setting).
//
// Usage:
//
//	wardlog <command> [flags] <file>
//
// Commands:
//
//	view     View log file in human-readable format
//	export   Export log file to JSONL or CSV format
//	filter   Filter log file and write to new file
//	stats    Show statistics about the log file
//
// Examples:
//
//	# View all events
//	wardlog view wardd.events
//
//	# View only recovery events
//	wardlog view -category recovery wardd.events
//
//	# Export to JSONL
//	wardlog export -format jsonl wardd.events
//
//	# Keep only arbiter events in a new file
//	wardlog filter -component arbiter -o arbiter.events wardd.events
//
//	# Show statistics
//	wardlog stats wardd.events
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/ward-project/ward-go/cmd/wardlog/commands"
	"github.com/ward-project/ward-go/pkg/log"
)

const usage = `wardlog - WARD Event Log Analyzer

Usage:
  wardlog <command> [flags] <file>

Commands:
  view     View log file in human-readable format
  export   Export log file to JSONL or CSV format
  filter   Filter log file and write to new file
  stats    Show statistics about the log file

Use "wardlog <command> -help" for more information about a command.
`

var subcommands = map[string]func(args []string){
	"view":   runView,
	"export": runExport,
	"filter": runFilter,
	"stats":  runStats,
}

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}

	name := os.Args[1]
	switch name {
	case "-h", "-help", "--help", "help":
		fmt.Print(usage)
		return
	}

	run, ok := subcommands[name]
	if !ok {
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", name)
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}
	run(os.Args[2:])
}

func runView(args []string) {
	fs := flag.NewFlagSet("view", flag.ExitOnError)
	component := fs.String("component", "", "Filter by component (arbiter, supervisor, daemon)")
	category := fs.String("category", "", "Filter by category (state, hardware, recovery, error)")

	path := parseWithFile(fs, args)

	var filter log.Filter
	if *component != "" {
		c, err := commands.ParseComponentFlag(*component)
		if err != nil {
			fatal(err)
		}
		filter.Component = &c
	}
	if *category != "" {
		c, err := commands.ParseCategoryFlag(*category)
		if err != nil {
			fatal(err)
		}
		filter.Category = &c
	}

	if err := commands.RunView(path, filter, os.Stdout); err != nil {
		fatal(err)
	}
}

func runExport(args []string) {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	format := fs.String("format", "jsonl", "Output format (jsonl, csv)")
	output := fs.String("o", "", "Output file (default: stdout)")

	path := parseWithFile(fs, args)

	if err := commands.RunExport(path, *format, *output); err != nil {
		fatal(err)
	}
}

func runFilter(args []string) {
	fs := flag.NewFlagSet("filter", flag.ExitOnError)
	output := fs.String("o", "", "Output file (required)")
	component := fs.String("component", "", "Filter by component (arbiter, supervisor, daemon)")
	category := fs.String("category", "", "Filter by category (state, hardware, recovery, error)")
	timeStart := fs.String("time-start", "", "Filter by start time (RFC3339)")
	timeEnd := fs.String("time-end", "", "Filter by end time (RFC3339)")

	path := parseWithFile(fs, args)

	if *output == "" {
		fmt.Fprintln(os.Stderr, "Error: output file (-o) required")
		os.Exit(1)
	}

	opts := commands.FilterOptions{
		Output:    *output,
		Component: *component,
		Category:  *category,
		TimeStart: *timeStart,
		TimeEnd:   *timeEnd,
	}
	if err := commands.RunFilter(path, opts); err != nil {
		fatal(err)
	}
}

func runStats(args []string) {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	path := parseWithFile(fs, args)

	if err := commands.RunStats(path, os.Stdout); err != nil {
		fatal(err)
	}
}

// parseWithFile parses flags and returns the required positional log
// file argument.
func parseWithFile(fs *flag.FlagSet, args []string) string {
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Error: log file path required")
		os.Exit(1)
	}
	return fs.Arg(0)
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}
