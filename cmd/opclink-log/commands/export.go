package commands

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/opclink/opclink-go/pkg/diag"
)

// record is the flattened export shape: level, code and durations are
// rendered as strings so downstream tools need no decoder tables.
type record struct {
	Time        string `json:"time"`
	Level       string `json:"level"`
	Code        string `json:"code"`
	SessionID   string `json:"session_id,omitempty"`
	Endpoint    string `json:"endpoint,omitempty"`
	NodeID      string `json:"node_id,omitempty"`
	Attempt     int    `json:"attempt,omitempty"`
	MaxAttempts int    `json:"max_attempts,omitempty"`
	Wait        string `json:"wait,omitempty"`
	Elapsed     string `json:"elapsed,omitempty"`
	Message     string `json:"message,omitempty"`
	Err         string `json:"error,omitempty"`
}

func toRecord(event diag.Event) record {
	r := record{
		Time:        event.Time.UTC().Format("2006-01-02T15:04:05.000000Z"),
		Level:       event.Level.String(),
		Code:        event.Code.String(),
		SessionID:   event.SessionID,
		Endpoint:    event.Endpoint,
		NodeID:      event.NodeID,
		Attempt:     event.Attempt,
		MaxAttempts: event.MaxAttempts,
		Message:     event.Message,
		Err:         event.Err,
	}
	if event.Wait > 0 {
		r.Wait = event.Wait.String()
	}
	if event.Elapsed > 0 {
		r.Elapsed = event.Elapsed.String()
	}
	return r
}

// RunExport exports the log file to the specified format.
func RunExport(path, format, output string) error {
	reader, err := diag.NewReader(path)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer reader.Close()

	// Determine output writer
	var w io.Writer = os.Stdout
	if output != "" {
		f, err := os.Create(output)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		w = f
	}

	switch format {
	case "jsonl":
		return exportJSONL(reader, w)
	case "csv":
		return exportCSV(reader, w)
	default:
		return fmt.Errorf("unknown format: %s (supported: jsonl, csv)", format)
	}
}

func exportJSONL(reader *diag.Reader, w io.Writer) error {
	encoder := json.NewEncoder(w)
	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}
		if err := encoder.Encode(toRecord(event)); err != nil {
			return fmt.Errorf("failed to encode event: %w", err)
		}
	}
	return nil
}

func exportCSV(reader *diag.Reader, w io.Writer) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	// Write header
	header := []string{"time", "level", "code", "session_id", "endpoint", "node_id", "attempt", "max_attempts", "wait", "elapsed", "message", "error"}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}

		r := toRecord(event)
		attempt := ""
		if r.Attempt > 0 {
			attempt = strconv.Itoa(r.Attempt)
		}
		maxAttempts := ""
		if r.MaxAttempts > 0 {
			maxAttempts = strconv.Itoa(r.MaxAttempts)
		}

		row := []string{
			r.Time,
			r.Level,
			r.Code,
			r.SessionID,
			r.Endpoint,
			r.NodeID,
			attempt,
			maxAttempts,
			r.Wait,
			r.Elapsed,
			r.Message,
			r.Err,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}
	return nil
}
