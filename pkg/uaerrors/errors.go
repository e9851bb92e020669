package uaerrors

import (
	"fmt"
	"time"
)

// Kind classifies a failure. Kinds are sentinels: use errors.Is to test
// whether an error belongs to a kind, and errors.As to extract the
// full *Error record.
type Kind uint8

const (
	// KindConnect indicates the session could not be established after
	// exhausting the configured retry budget.
	KindConnect Kind = iota

	// KindNotConnected indicates an operation that requires an active
	// session was invoked while disconnected.
	KindNotConnected

	// KindUnknownAlias indicates an alias with no registered node identifier.
	KindUnknownAlias

	// KindNodeRead indicates a read on a resolved node failed.
	KindNodeRead

	// KindNodeWrite indicates a write on a resolved node failed.
	KindNodeWrite

	// KindInvalidNodeID indicates a node identifier string that does not
	// parse as any known identifier form.
	KindInvalidNodeID
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindConnect:
		return "CONNECT"
	case KindNotConnected:
		return "NOT_CONNECTED"
	case KindUnknownAlias:
		return "UNKNOWN_ALIAS"
	case KindNodeRead:
		return "NODE_READ"
	case KindNodeWrite:
		return "NODE_WRITE"
	case KindInvalidNodeID:
		return "INVALID_NODE_ID"
	default:
		return "UNKNOWN"
	}
}

// Error makes Kind usable as a match target for errors.Is.
func (k Kind) Error() string {
	return k.String()
}

// Error is the root failure record for all client operations.
// Every failure surfaced by this module is an *Error, so callers can
// handle the whole family generically or match a specific Kind.
type Error struct {
	// Kind classifies the failure.
	Kind Kind

	// Target names what the failure concerns: the endpoint URL for
	// connection errors, the node identifier or alias for node errors.
	Target string

	// Message is the human-readable description.
	Message string

	// Cause is the underlying failure, if any. It is never discarded;
	// Unwrap exposes it for errors.Is/As chains.
	Cause error

	// At records when the error was created.
	At time.Time
}

// Error returns the formatted message including the target and cause.
func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = e.Kind.String()
	}
	if e.Target != "" {
		msg = fmt.Sprintf("%s (%s)", msg, e.Target)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error's kind.
// It makes errors.Is(err, KindNodeRead) work without unwrapping by hand.
func (e *Error) Is(target error) bool {
	k, ok := target.(Kind)
	return ok && e.Kind == k
}

// New creates an error of the given kind.
func New(kind Kind, target, message string) *Error {
	return &Error{
		Kind:    kind,
		Target:  target,
		Message: message,
		At:      time.Now(),
	}
}

// Wrap creates an error of the given kind carrying cause.
func Wrap(kind Kind, target, message string, cause error) *Error {
	return &Error{
		Kind:    kind,
		Target:  target,
		Message: message,
		Cause:   cause,
		At:      time.Now(),
	}
}

// Connect reports a failed connection attempt against endpoint.
func Connect(endpoint string, cause error) *Error {
	return Wrap(KindConnect, endpoint, "connection failed", cause)
}

// NotConnected reports an operation attempted without an active session.
func NotConnected(op string) *Error {
	return New(KindNotConnected, "", fmt.Sprintf("%s requires an active session", op))
}

// UnknownAlias reports an alias with no registered identifier.
func UnknownAlias(alias string) *Error {
	return New(KindUnknownAlias, alias, "alias not registered")
}

// NodeRead reports a failed read on nodeID.
func NodeRead(nodeID string, cause error) *Error {
	return Wrap(KindNodeRead, nodeID, "read failed", cause)
}

// NodeWrite reports a failed write on nodeID.
func NodeWrite(nodeID string, cause error) *Error {
	return Wrap(KindNodeWrite, nodeID, "write failed", cause)
}

// InvalidNodeID reports an unparseable node identifier string.
func InvalidNodeID(s string, cause error) *Error {
	return Wrap(KindInvalidNodeID, s, "invalid node identifier", cause)
}
