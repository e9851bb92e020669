// Command opclink-log is a tool for viewing and analyzing opclink
// diagnostics files.
//
// Diagnostics files are created by running opclink with the -log-file
// flag; they contain CBOR-encoded events covering the session
// lifecycle, connect retries and every read and write.
//
// Usage:
//
//	opclink-log <command> [flags] <file.cbor>
//
// Commands:
//
//	view     View diagnostics in human-readable format
//	export   Export diagnostics to JSONL or CSV format
//	filter   Filter diagnostics and write to a new file
//	stats    Show statistics about the diagnostics file
//
// Examples:
//
//	# View all events
//	opclink-log view client.cbor
//
//	# View only warnings and errors
//	opclink-log view -min-level warn client.cbor
//
//	# View the reads of one node
//	opclink-log view -code read_done -node "ns=2;s=Tank.Level" client.cbor
//
//	# Export to JSONL
//	opclink-log export -format jsonl client.cbor
//
//	# Keep one session's events and save to a new file
//	opclink-log filter -session 7f3a9c41 -o session.cbor client.cbor
//
//	# Show statistics
//	opclink-log stats client.cbor
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/opclink/opclink-go/cmd/opclink-log/commands"
	"github.com/opclink/opclink-go/pkg/diag"
)

const usage = `opclink-log - opclink Diagnostics Analyzer

Usage:
  opclink-log <command> [flags] <file.cbor>

Commands:
  view     View diagnostics in human-readable format
  export   Export diagnostics to JSONL or CSV format
  filter   Filter diagnostics and write to a new file
  stats    Show statistics about the diagnostics file

Use "opclink-log <command> -help" for more information about a command.
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	switch cmd {
	case "view":
		runView(args)
	case "export":
		runExport(args)
	case "filter":
		runFilter(args)
	case "stats":
		runStats(args)
	case "-h", "-help", "--help", "help":
		fmt.Print(usage)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}
}

func runView(args []string) {
	fs := flag.NewFlagSet("view", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `opclink-log view - View diagnostics in human-readable format

Usage:
  opclink-log view [flags] <file.cbor>

Flags:
`)
		fs.PrintDefaults()
	}

	level := fs.String("level", "", "Filter by exact level (debug, info, warn, error)")
	minLevel := fs.String("min-level", "", "Filter by minimum level (debug, info, warn, error)")
	code := fs.String("code", "", "Filter by event code (e.g. retry_wait, read_done)")
	session := fs.String("session", "", "Filter by session ID")
	node := fs.String("node", "", "Filter by node ID")
	timeStart := fs.String("time-start", "", "Filter by start time (RFC3339)")
	timeEnd := fs.String("time-end", "", "Filter by end time (RFC3339)")

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Error: diagnostics file path required")
		fs.Usage()
		os.Exit(1)
	}

	path := fs.Arg(0)

	// Build filter
	var filter diag.Filter

	if *level != "" {
		l, err := commands.ParseLevelFlag(*level)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		filter.Level = &l
	}

	if *minLevel != "" {
		l, err := commands.ParseLevelFlag(*minLevel)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		filter.MinLevel = &l
	}

	if *code != "" {
		c, err := commands.ParseCodeFlag(*code)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		filter.Code = &c
	}

	filter.SessionID = *session
	filter.NodeID = *node

	if *timeStart != "" {
		ts, err := time.Parse(time.RFC3339, *timeStart)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: invalid time-start: %v\n", err)
			os.Exit(1)
		}
		filter.TimeStart = &ts
	}

	if *timeEnd != "" {
		ts, err := time.Parse(time.RFC3339, *timeEnd)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: invalid time-end: %v\n", err)
			os.Exit(1)
		}
		filter.TimeEnd = &ts
	}

	if err := commands.RunView(path, filter, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runExport(args []string) {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `opclink-log export - Export diagnostics to JSONL or CSV format

Usage:
  opclink-log export [flags] <file.cbor>

Flags:
`)
		fs.PrintDefaults()
	}

	format := fs.String("format", "jsonl", "Output format (jsonl, csv)")
	output := fs.String("o", "", "Output file (default: stdout)")

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Error: diagnostics file path required")
		fs.Usage()
		os.Exit(1)
	}

	path := fs.Arg(0)

	if err := commands.RunExport(path, *format, *output); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runFilter(args []string) {
	fs := flag.NewFlagSet("filter", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `opclink-log filter - Filter diagnostics and write to a new file

Usage:
  opclink-log filter [flags] <file.cbor>

Flags:
`)
		fs.PrintDefaults()
	}

	output := fs.String("o", "", "Output file (required)")
	level := fs.String("level", "", "Filter by exact level (debug, info, warn, error)")
	minLevel := fs.String("min-level", "", "Filter by minimum level (debug, info, warn, error)")
	code := fs.String("code", "", "Filter by event code (e.g. retry_wait, read_done)")
	session := fs.String("session", "", "Filter by session ID")
	node := fs.String("node", "", "Filter by node ID")
	timeStart := fs.String("time-start", "", "Filter by start time (RFC3339)")
	timeEnd := fs.String("time-end", "", "Filter by end time (RFC3339)")

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Error: diagnostics file path required")
		fs.Usage()
		os.Exit(1)
	}

	if *output == "" {
		fmt.Fprintln(os.Stderr, "Error: output file (-o) required")
		fs.Usage()
		os.Exit(1)
	}

	path := fs.Arg(0)

	opts := commands.FilterOptions{
		Output:    *output,
		Level:     *level,
		MinLevel:  *minLevel,
		Code:      *code,
		SessionID: *session,
		NodeID:    *node,
		TimeStart: *timeStart,
		TimeEnd:   *timeEnd,
	}

	if err := commands.RunFilter(path, opts); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runStats(args []string) {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `opclink-log stats - Show statistics about the diagnostics file

Usage:
  opclink-log stats <file.cbor>

`)
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Error: diagnostics file path required")
		fs.Usage()
		os.Exit(1)
	}

	path := fs.Arg(0)

	if err := commands.RunStats(path, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
