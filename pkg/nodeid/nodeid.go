package nodeid

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/opclink/opclink-go/pkg/uaerrors"
)

// Parse errors wrapped into the returned uaerrors record.
var (
	ErrEmptyIdentifier = errors.New("empty identifier")
	ErrBadNamespace    = errors.New("namespace index out of range")
	ErrBadForm         = errors.New("unknown identifier form")
)

// Form identifies how the node identifier addresses its node.
type Form uint8

const (
	// FormNumeric is an unsigned integer identifier (i=).
	FormNumeric Form = iota

	// FormString is a string identifier (s=).
	FormString

	// FormGUID is a GUID identifier (g=).
	FormGUID

	// FormOpaque is an opaque byte-string identifier (b=, base64).
	FormOpaque
)

// String returns the form's prefix letter.
func (f Form) String() string {
	switch f {
	case FormNumeric:
		return "i"
	case FormString:
		return "s"
	case FormGUID:
		return "g"
	case FormOpaque:
		return "b"
	default:
		return "?"
	}
}

// ID is a parsed node identifier: a namespace index plus one of the
// four identifier forms. The zero value is i=0 in namespace 0.
type ID struct {
	Namespace uint16
	Form      Form

	numeric uint32
	str     string
	guid    uuid.UUID
	opaque  []byte
}

// NewNumeric creates an i= identifier.
func NewNumeric(ns uint16, id uint32) ID {
	return ID{Namespace: ns, Form: FormNumeric, numeric: id}
}

// NewString creates an s= identifier.
func NewString(ns uint16, id string) ID {
	return ID{Namespace: ns, Form: FormString, str: id}
}

// NewGUID creates a g= identifier.
func NewGUID(ns uint16, id uuid.UUID) ID {
	return ID{Namespace: ns, Form: FormGUID, guid: id}
}

// NewOpaque creates a b= identifier.
func NewOpaque(ns uint16, id []byte) ID {
	return ID{Namespace: ns, Form: FormOpaque, opaque: id}
}

// Numeric returns the numeric value; zero unless Form is FormNumeric.
func (id ID) Numeric() uint32 { return id.numeric }

// Text returns the string value; empty unless Form is FormString.
func (id ID) Text() string { return id.str }

// GUID returns the GUID value; zero unless Form is FormGUID.
func (id ID) GUID() uuid.UUID { return id.guid }

// Opaque returns the byte-string value; nil unless Form is FormOpaque.
func (id ID) Opaque() []byte { return id.opaque }

// String renders the identifier in its canonical text form.
// Namespace 0 omits the ns= prefix.
func (id ID) String() string {
	var b strings.Builder
	if id.Namespace != 0 {
		fmt.Fprintf(&b, "ns=%d;", id.Namespace)
	}
	switch id.Form {
	case FormNumeric:
		fmt.Fprintf(&b, "i=%d", id.numeric)
	case FormString:
		fmt.Fprintf(&b, "s=%s", id.str)
	case FormGUID:
		fmt.Fprintf(&b, "g=%s", id.guid)
	case FormOpaque:
		fmt.Fprintf(&b, "b=%s", base64.StdEncoding.EncodeToString(id.opaque))
	}
	return b.String()
}

// Parse parses a node identifier in text form: an optional "ns=<idx>;"
// prefix followed by "i=", "s=", "g=" or "b=" and the value. Failures
// are uaerrors records of kind KindInvalidNodeID.
func Parse(s string) (ID, error) {
	if s == "" {
		return ID{}, uaerrors.InvalidNodeID(s, ErrEmptyIdentifier)
	}

	rest := s
	var ns uint16
	if strings.HasPrefix(rest, "ns=") {
		idx := strings.Index(rest, ";")
		if idx < 0 {
			return ID{}, uaerrors.InvalidNodeID(s, fmt.Errorf("missing ';' after namespace"))
		}
		n, err := strconv.ParseUint(rest[3:idx], 10, 16)
		if err != nil {
			return ID{}, uaerrors.InvalidNodeID(s, fmt.Errorf("%w: %v", ErrBadNamespace, err))
		}
		ns = uint16(n)
		rest = rest[idx+1:]
	}

	if len(rest) < 2 || rest[1] != '=' {
		return ID{}, uaerrors.InvalidNodeID(s, ErrBadForm)
	}
	value := rest[2:]

	switch rest[0] {
	case 'i':
		n, err := strconv.ParseUint(value, 10, 32)
		if err != nil {
			return ID{}, uaerrors.InvalidNodeID(s, fmt.Errorf("numeric identifier: %v", err))
		}
		return NewNumeric(ns, uint32(n)), nil
	case 's':
		if value == "" {
			return ID{}, uaerrors.InvalidNodeID(s, ErrEmptyIdentifier)
		}
		return NewString(ns, value), nil
	case 'g':
		u, err := uuid.Parse(value)
		if err != nil {
			return ID{}, uaerrors.InvalidNodeID(s, fmt.Errorf("guid identifier: %v", err))
		}
		return NewGUID(ns, u), nil
	case 'b':
		raw, err := base64.StdEncoding.DecodeString(value)
		if err != nil {
			return ID{}, uaerrors.InvalidNodeID(s, fmt.Errorf("opaque identifier: %v", err))
		}
		return NewOpaque(ns, raw), nil
	default:
		return ID{}, uaerrors.InvalidNodeID(s, ErrBadForm)
	}
}

// IsIdentifier reports whether s looks like a node identifier rather
// than an alias. Callers use this to decide whether a name needs alias
// resolution first.
func IsIdentifier(s string) bool {
	if strings.HasPrefix(s, "ns=") {
		return true
	}
	if len(s) >= 2 && s[1] == '=' {
		switch s[0] {
		case 'i', 's', 'g', 'b':
			return true
		}
	}
	return false
}
