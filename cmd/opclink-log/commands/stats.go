package commands

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/opclink/opclink-go/pkg/diag"
)

// Stats holds aggregate statistics about a diagnostics file.
type Stats struct {
	TotalEvents   int
	EventsByLevel map[diag.Level]int
	EventsByCode  map[diag.Code]int
	Sessions      map[string]*SessionStats
	Retries       int
	Failures      int
	TimeRange     struct {
		Start time.Time
		End   time.Time
	}
}

// SessionStats holds statistics for a single session.
type SessionStats struct {
	FirstSeen time.Time
	LastSeen  time.Time
	Events    int
	Endpoint  string
	Reads     int
	Writes    int
	Resolves  int
}

// RunStats analyzes the diagnostics file and prints statistics.
func RunStats(path string, w io.Writer) error {
	reader, err := diag.NewReader(path)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer reader.Close()

	stats := &Stats{
		EventsByLevel: make(map[diag.Level]int),
		EventsByCode:  make(map[diag.Code]int),
		Sessions:      make(map[string]*SessionStats),
	}

	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}

		stats.TotalEvents++
		stats.EventsByLevel[event.Level]++
		stats.EventsByCode[event.Code]++

		// Track time range
		if stats.TimeRange.Start.IsZero() || event.Time.Before(stats.TimeRange.Start) {
			stats.TimeRange.Start = event.Time
		}
		if event.Time.After(stats.TimeRange.End) {
			stats.TimeRange.End = event.Time
		}

		switch event.Code {
		case diag.CodeRetryWait:
			stats.Retries++
		case diag.CodeConnectFailed:
			stats.Failures++
		}

		// Track per-session stats; retry events happen before a
		// session exists and carry no ID.
		if event.SessionID == "" {
			continue
		}
		sess, ok := stats.Sessions[event.SessionID]
		if !ok {
			sess = &SessionStats{
				FirstSeen: event.Time,
				LastSeen:  event.Time,
			}
			stats.Sessions[event.SessionID] = sess
		}
		sess.Events++
		if event.Time.After(sess.LastSeen) {
			sess.LastSeen = event.Time
		}
		if event.Endpoint != "" && sess.Endpoint == "" {
			sess.Endpoint = event.Endpoint
		}
		switch event.Code {
		case diag.CodeReadDone:
			sess.Reads++
		case diag.CodeWriteDone:
			sess.Writes++
		case diag.CodeResolved:
			sess.Resolves++
		}
	}

	printStats(w, stats)
	return nil
}

func printStats(w io.Writer, stats *Stats) {
	fmt.Fprintln(w, "=== opclink Diagnostics Statistics ===")
	fmt.Fprintln(w)

	// Time range
	if stats.TotalEvents > 0 {
		fmt.Fprintf(w, "Time Range: %s to %s\n",
			stats.TimeRange.Start.Format(time.RFC3339),
			stats.TimeRange.End.Format(time.RFC3339))
		fmt.Fprintf(w, "Duration:   %s\n", stats.TimeRange.End.Sub(stats.TimeRange.Start).Round(time.Second))
		fmt.Fprintln(w)
	}

	// Total events
	fmt.Fprintf(w, "Total Events: %d\n", stats.TotalEvents)
	fmt.Fprintln(w)

	// Events by level
	fmt.Fprintln(w, "Events by Level:")
	for _, level := range []diag.Level{diag.LevelDebug, diag.LevelInfo, diag.LevelWarn, diag.LevelError} {
		if count := stats.EventsByLevel[level]; count > 0 {
			fmt.Fprintf(w, "  %-16s %d\n", level.String()+":", count)
		}
	}
	fmt.Fprintln(w)

	// Events by code
	fmt.Fprintln(w, "Events by Code:")
	for _, code := range allCodes {
		if count := stats.EventsByCode[code]; count > 0 {
			fmt.Fprintf(w, "  %-16s %d\n", code.String()+":", count)
		}
	}
	fmt.Fprintln(w)

	// Sessions
	fmt.Fprintf(w, "Sessions: %d\n", len(stats.Sessions))
	if len(stats.Sessions) > 0 {
		// Sort by first seen time
		type sessInfo struct {
			id    string
			stats *SessionStats
		}
		sessions := make([]sessInfo, 0, len(stats.Sessions))
		for id, ss := range stats.Sessions {
			sessions = append(sessions, sessInfo{id, ss})
		}
		sort.Slice(sessions, func(i, j int) bool {
			return sessions[i].stats.FirstSeen.Before(sessions[j].stats.FirstSeen)
		})

		fmt.Fprintln(w, "")
		for _, s := range sessions {
			duration := s.stats.LastSeen.Sub(s.stats.FirstSeen).Round(time.Millisecond)
			fmt.Fprintf(w, "  [%s] %d events, duration %s\n", shortenSessionID(s.id), s.stats.Events, duration)
			if s.stats.Endpoint != "" {
				fmt.Fprintf(w, "           Endpoint: %s\n", s.stats.Endpoint)
			}
			if s.stats.Reads > 0 || s.stats.Writes > 0 {
				fmt.Fprintf(w, "           Reads: %d, Writes: %d\n", s.stats.Reads, s.stats.Writes)
			}
			if s.stats.Resolves > 0 {
				fmt.Fprintf(w, "           Resolved nodes: %d\n", s.stats.Resolves)
			}
		}
	}

	// Connect health
	if stats.Retries > 0 || stats.Failures > 0 {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "Connect retries:  %d\n", stats.Retries)
		fmt.Fprintf(w, "Connect failures: %d\n", stats.Failures)
	}
}
