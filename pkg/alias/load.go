package alias

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// LoadJSON builds a registry from a JSON file containing a flat
// alias-to-identifier object, the format the simulator's alias export
// produces:
//
//	{"Tank.Level": "ns=2;s=Tank.Level", "Pump.Running": "ns=2;i=12"}
func LoadJSON(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read alias file: %w", err)
	}

	var entries map[string]string
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parse alias file %s: %w", path, err)
	}

	r, err := New(entries)
	if err != nil {
		return nil, fmt.Errorf("alias file %s: %w", path, err)
	}
	return r, nil
}

// LoadCSV builds a registry from a CSV file with one "alias,identifier"
// pair per row. Blank lines and lines starting with # are skipped; a
// leading "alias,nodeid" header row is recognized and skipped too.
func LoadCSV(path string) (*Registry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("read alias file: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = 2
	reader.Comment = '#'
	reader.TrimLeadingSpace = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse alias file %s: %w", path, err)
	}

	entries := make(map[string]string, len(rows))
	for i, row := range rows {
		name := strings.TrimSpace(row[0])
		id := strings.TrimSpace(row[1])
		if i == 0 && strings.EqualFold(name, "alias") && strings.EqualFold(id, "nodeid") {
			continue
		}
		if _, dup := entries[name]; dup {
			return nil, fmt.Errorf("alias file %s: duplicate alias %q", path, name)
		}
		entries[name] = id
	}

	r, err := New(entries)
	if err != nil {
		return nil, fmt.Errorf("alias file %s: %w", path, err)
	}
	return r, nil
}
