// Package commands implements the opclink-log CLI commands.
package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/opclink/opclink-go/pkg/diag"
)

// allCodes lists the event codes in declaration order, for flag parsing
// and stable stats output.
var allCodes = []diag.Code{
	diag.CodeConnected,
	diag.CodeDisconnected,
	diag.CodeRetryWait,
	diag.CodeConnectFailed,
	diag.CodeCloseFailed,
	diag.CodeCacheCleared,
	diag.CodeResolved,
	diag.CodeReadDone,
	diag.CodeWriteDone,
	diag.CodeValidationWarn,
}

// formatEvent writes a human-readable representation of the event to w.
func formatEvent(w io.Writer, event diag.Event) {
	// Header line: timestamp LEVEL CODE [sess:id]
	ts := event.Time.UTC().Format("2006-01-02T15:04:05.000000Z")

	fmt.Fprintf(w, "%s %-5s %s", ts, event.Level, event.Code)
	if event.SessionID != "" {
		fmt.Fprintf(w, " [sess:%s]", shortenSessionID(event.SessionID))
	}
	fmt.Fprintln(w)

	if event.Endpoint != "" {
		fmt.Fprintf(w, "  Endpoint: %s\n", event.Endpoint)
	}
	if event.NodeID != "" {
		fmt.Fprintf(w, "  Node: %s\n", event.NodeID)
	}
	if event.Attempt > 0 {
		if event.MaxAttempts > 0 {
			fmt.Fprintf(w, "  Attempt: %d/%d\n", event.Attempt, event.MaxAttempts)
		} else {
			fmt.Fprintf(w, "  Attempt: %d\n", event.Attempt)
		}
	}
	if event.Wait > 0 {
		fmt.Fprintf(w, "  Wait: %s\n", event.Wait)
	}
	if event.Elapsed > 0 {
		fmt.Fprintf(w, "  Duration: %s\n", event.Elapsed)
	}
	if event.Message != "" {
		fmt.Fprintf(w, "  Message: %s\n", event.Message)
	}
	if event.Err != "" {
		fmt.Fprintf(w, "  Error: %s\n", event.Err)
	}

	fmt.Fprintln(w) // Blank line between events
}

// shortenSessionID returns the first 8 characters of the session ID.
func shortenSessionID(id string) string {
	if len(id) >= 8 {
		return id[:8]
	}
	return id
}

// ParseLevelFlag parses a severity name from a command-line flag
// (case-insensitive).
func ParseLevelFlag(s string) (diag.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return diag.LevelDebug, nil
	case "info":
		return diag.LevelInfo, nil
	case "warn":
		return diag.LevelWarn, nil
	case "error":
		return diag.LevelError, nil
	default:
		return 0, fmt.Errorf("invalid level: %s (must be debug, info, warn, or error)", s)
	}
}

// ParseCodeFlag parses an event code name from a command-line flag
// (case-insensitive), e.g. "retry_wait" or "READ_DONE".
func ParseCodeFlag(s string) (diag.Code, error) {
	for _, c := range allCodes {
		if strings.EqualFold(s, c.String()) {
			return c, nil
		}
	}
	return 0, fmt.Errorf("invalid code: %s", s)
}

// RunView executes the view command.
func RunView(path string, filter diag.Filter, output io.Writer) error {
	reader, err := diag.NewFilteredReader(path, filter)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer reader.Close()

	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}

		formatEvent(output, event)
	}

	return nil
}
