package sim

import (
	"errors"
	"fmt"
	"math"

	"github.com/opclink/opclink-go/pkg/driver"
)

// ErrTypeMismatch reports a value whose Go type does not match a
// variable's declared kind.
var ErrTypeMismatch = errors.New("value type mismatch")

// coerce normalizes value to the canonical Go type for kind: bool,
// int32, float64 or string. nil selects the kind's zero value.
func coerce(kind driver.ValueKind, value any) (any, error) {
	if value == nil {
		return zeroOf(kind)
	}
	switch kind {
	case driver.ValueKindBoolean:
		if b, ok := value.(bool); ok {
			return b, nil
		}
	case driver.ValueKindInteger:
		if n, ok := toInt32(value); ok {
			return n, nil
		}
	case driver.ValueKindFloat:
		if f, ok := toFloat64(value); ok {
			return f, nil
		}
	case driver.ValueKindString:
		if s, ok := value.(string); ok {
			return s, nil
		}
	default:
		return nil, fmt.Errorf("unknown value kind %d", kind)
	}
	return nil, fmt.Errorf("%w: %T is not %s", ErrTypeMismatch, value, kind)
}

func zeroOf(kind driver.ValueKind) (any, error) {
	switch kind {
	case driver.ValueKindBoolean:
		return false, nil
	case driver.ValueKindInteger:
		return int32(0), nil
	case driver.ValueKindFloat:
		return float64(0), nil
	case driver.ValueKindString:
		return "", nil
	default:
		return nil, fmt.Errorf("unknown value kind %d", kind)
	}
}

func toInt32(value any) (int32, bool) {
	var wide int64
	switch n := value.(type) {
	case int32:
		return n, true
	case int:
		wide = int64(n)
	case int8:
		wide = int64(n)
	case int16:
		wide = int64(n)
	case int64:
		wide = n
	case uint8:
		wide = int64(n)
	case uint16:
		wide = int64(n)
	case uint32:
		wide = int64(n)
	case uint:
		if uint64(n) > math.MaxInt32 {
			return 0, false
		}
		wide = int64(n)
	case uint64:
		if n > math.MaxInt32 {
			return 0, false
		}
		wide = int64(n)
	default:
		return 0, false
	}
	if wide < math.MinInt32 || wide > math.MaxInt32 {
		return 0, false
	}
	return int32(wide), true
}

func toFloat64(value any) (float64, bool) {
	switch n := value.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	default:
		return 0, false
	}
}
