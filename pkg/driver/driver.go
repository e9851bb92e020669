package driver

import (
	"context"
	"time"
)

// Endpoint describes where and how to open a session. The session
// manager fills it from the client configuration; drivers consume the
// fields they understand.
type Endpoint struct {
	// URL is the server endpoint, e.g. "opc.tcp://192.168.0.5:4840".
	URL string

	// ConnectTimeout bounds a single open attempt. The session manager
	// additionally enforces it through the context deadline.
	ConnectTimeout time.Duration

	// RequestTimeout bounds individual read/write calls, when the
	// engine supports per-request deadlines.
	RequestTimeout time.Duration

	// SecurityPolicy and SecurityMode select the channel security
	// profile ("None", "Basic256Sha256", ... / "None", "Sign",
	// "SignAndEncrypt"). Empty means the driver's default.
	SecurityPolicy string
	SecurityMode   string

	// Username and Password select user-token authentication when
	// Username is non-empty; otherwise the session is anonymous.
	Username string
	Password string

	// ApplicationName identifies this client to the server.
	ApplicationName string
}

// ValueKind is the basic kind of a node's value, used for soft write
// validation. Engines that cannot determine a node's type report
// ValueKindUnknown and validation is skipped.
type ValueKind uint8

const (
	// ValueKindUnknown means the node's type could not be determined.
	ValueKindUnknown ValueKind = iota

	// ValueKindBoolean is a true/false node.
	ValueKindBoolean

	// ValueKindInteger is a signed or unsigned integer node.
	ValueKindInteger

	// ValueKindFloat is a floating-point node.
	ValueKindFloat

	// ValueKindString is a text node.
	ValueKindString
)

// String returns the kind name.
func (k ValueKind) String() string {
	switch k {
	case ValueKindBoolean:
		return "boolean"
	case ValueKindInteger:
		return "integer"
	case ValueKindFloat:
		return "float"
	case ValueKindString:
		return "string"
	default:
		return "unknown"
	}
}

// StatusGood is the all-clear status code for read results.
const StatusGood uint32 = 0

// Value is one read result from a node.
type Value struct {
	// Raw is the decoded value.
	Raw any

	// Status is the server's status code for this value. StatusGood
	// means the value is trustworthy.
	Status uint32

	// SourceTime is the server-reported source timestamp, or the local
	// read time when the server does not report one.
	SourceTime time.Time
}

// Driver opens sessions against a server endpoint. Implementations
// own the wire protocol and channel security; the session manager owns
// lifecycle, retries and caching on top.
type Driver interface {
	// Open establishes a session. It must honor ctx cancellation and
	// deadline; a failed open returns no session to close.
	Open(ctx context.Context, ep Endpoint) (Session, error)
}

// Session is one established connection to a server.
// All methods may be called from multiple goroutines.
type Session interface {
	// Resolve looks up a live node handle for the identifier.
	Resolve(ctx context.Context, id string) (Node, error)

	// Close tears the session down. The handle is unusable afterwards
	// regardless of the returned error.
	Close(ctx context.Context) error
}

// Node is a live handle to one variable in the server's address space.
type Node interface {
	// ID returns the node identifier this handle was resolved from.
	ID() string

	// Read fetches the node's current value.
	Read(ctx context.Context) (Value, error)

	// Write sets the node's value. The server may reject values whose
	// type does not match the node's declared type.
	Write(ctx context.Context, value any) error

	// Kind reports the node's basic value kind for soft validation.
	// ValueKindUnknown (with nil error) means the engine cannot say.
	Kind(ctx context.Context) (ValueKind, error)
}
