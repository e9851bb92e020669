package access

import (
	"github.com/opclink/opclink-go/pkg/driver"
)

// matchesKind checks whether value conforms to the node's declared
// basic kind. ValueKindUnknown always matches: when the engine cannot
// tell what the node expects there is nothing to validate against.
func matchesKind(value any, kind driver.ValueKind) bool {
	switch kind {
	case driver.ValueKindBoolean:
		_, ok := value.(bool)
		return ok
	case driver.ValueKindInteger:
		return isIntegerType(value)
	case driver.ValueKindFloat:
		return isNumericType(value)
	case driver.ValueKindString:
		_, ok := value.(string)
		return ok
	default:
		return true
	}
}

func isIntegerType(v any) bool {
	switch v.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return true
	default:
		return false
	}
}

func isNumericType(v any) bool {
	switch v.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return true
	default:
		return false
	}
}
