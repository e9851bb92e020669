package commands

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/opclink/opclink-go/pkg/diag"
)

// FilterOptions specifies criteria for the filter command. String
// fields are parsed here so main can pass flag values through.
type FilterOptions struct {
	Output    string
	Level     string
	MinLevel  string
	Code      string
	SessionID string
	NodeID    string
	TimeStart string
	TimeEnd   string
}

// buildFilter parses the option strings into a diag.Filter.
func buildFilter(opts FilterOptions) (diag.Filter, error) {
	var filter diag.Filter

	if opts.Level != "" {
		l, err := ParseLevelFlag(opts.Level)
		if err != nil {
			return diag.Filter{}, err
		}
		filter.Level = &l
	}
	if opts.MinLevel != "" {
		l, err := ParseLevelFlag(opts.MinLevel)
		if err != nil {
			return diag.Filter{}, err
		}
		filter.MinLevel = &l
	}
	if opts.Code != "" {
		c, err := ParseCodeFlag(opts.Code)
		if err != nil {
			return diag.Filter{}, err
		}
		filter.Code = &c
	}
	filter.SessionID = opts.SessionID
	filter.NodeID = opts.NodeID

	if opts.TimeStart != "" {
		ts, err := time.Parse(time.RFC3339, opts.TimeStart)
		if err != nil {
			return diag.Filter{}, fmt.Errorf("invalid time-start: %w", err)
		}
		filter.TimeStart = &ts
	}
	if opts.TimeEnd != "" {
		ts, err := time.Parse(time.RFC3339, opts.TimeEnd)
		if err != nil {
			return diag.Filter{}, fmt.Errorf("invalid time-end: %w", err)
		}
		filter.TimeEnd = &ts
	}

	return filter, nil
}

// RunFilter reads the log file, keeps events matching the criteria and
// writes them to a new CBOR log file.
func RunFilter(path string, opts FilterOptions) error {
	filter, err := buildFilter(opts)
	if err != nil {
		return err
	}

	reader, err := diag.NewFilteredReader(path, filter)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer reader.Close()

	out, err := os.Create(opts.Output)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer out.Close()

	encoder := diag.NewEncoder(out)
	count := 0
	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}
		if err := encoder.Encode(event); err != nil {
			return fmt.Errorf("failed to write event: %w", err)
		}
		count++
	}

	fmt.Printf("Wrote %d events to %s\n", count, opts.Output)
	return nil
}
