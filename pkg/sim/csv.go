package sim

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/opclink/opclink-go/pkg/driver"
)

// LoadCSV adds variables from a node definition file. Each row is
// "name,type,initial" where type is one of boolean, int32, double or
// string. Blank lines and lines starting with # are skipped; a leading
// "name,type,initial" header row is recognized and skipped too.
//
// Initial values follow plant-floor conventions: booleans accept
// 1/true/yes/si and 0/false/no in any case, doubles accept a decimal
// comma, and an empty initial selects the type's zero value.
func (s *AddressSpace) LoadCSV(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("read node file: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = 3
	reader.Comment = '#'
	reader.TrimLeadingSpace = true

	rows, err := reader.ReadAll()
	if err != nil {
		return fmt.Errorf("parse node file %s: %w", path, err)
	}

	for i, row := range rows {
		name := strings.TrimSpace(row[0])
		typ := strings.TrimSpace(row[1])
		initial := strings.TrimSpace(row[2])
		if i == 0 && strings.EqualFold(name, "name") && strings.EqualFold(typ, "type") {
			continue
		}
		kind, value, err := parseDefinition(typ, initial)
		if err != nil {
			return fmt.Errorf("node file %s row %d (%s): %w", path, i+1, name, err)
		}
		if _, err := s.AddVariable(name, kind, value); err != nil {
			return fmt.Errorf("node file %s row %d: %w", path, i+1, err)
		}
	}
	return nil
}

func parseDefinition(typ, initial string) (driver.ValueKind, any, error) {
	switch strings.ToLower(typ) {
	case "boolean":
		if initial == "" {
			return driver.ValueKindBoolean, false, nil
		}
		b, err := parseBool(initial)
		if err != nil {
			return 0, nil, err
		}
		return driver.ValueKindBoolean, b, nil
	case "int32":
		if initial == "" {
			return driver.ValueKindInteger, int32(0), nil
		}
		n, err := strconv.ParseInt(initial, 10, 32)
		if err != nil {
			return 0, nil, fmt.Errorf("initial %q is not an int32", initial)
		}
		return driver.ValueKindInteger, int32(n), nil
	case "double":
		if initial == "" {
			return driver.ValueKindFloat, float64(0), nil
		}
		f, err := strconv.ParseFloat(strings.ReplaceAll(initial, ",", "."), 64)
		if err != nil {
			return 0, nil, fmt.Errorf("initial %q is not a double", initial)
		}
		return driver.ValueKindFloat, f, nil
	case "string":
		return driver.ValueKindString, initial, nil
	default:
		return 0, nil, fmt.Errorf("unknown node type %q", typ)
	}
}

func parseBool(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "1", "true", "yes", "si":
		return true, nil
	case "0", "false", "no":
		return false, nil
	default:
		return false, fmt.Errorf("initial %q is not a boolean", s)
	}
}
