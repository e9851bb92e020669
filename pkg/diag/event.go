package diag

import (
	"time"
)

// Event is one diagnostic record emitted by the client.
// CBOR encoding uses integer keys for compactness.
type Event struct {
	// Time when the event occurred (nanosecond precision).
	Time time.Time `cbor:"1,keyasint"`

	// Level is the event severity.
	Level Level `cbor:"2,keyasint"`

	// Code classifies the event.
	Code Code `cbor:"3,keyasint"`

	// Message is an optional human-readable summary.
	Message string `cbor:"4,keyasint,omitempty"`

	// Endpoint is the server endpoint URL the event concerns.
	Endpoint string `cbor:"5,keyasint,omitempty"`

	// SessionID identifies the session (UUID), once one exists.
	SessionID string `cbor:"6,keyasint,omitempty"`

	// NodeID is the node identifier for read/write/resolve events.
	NodeID string `cbor:"7,keyasint,omitempty"`

	// Attempt and MaxAttempts describe retry progress (1-based).
	Attempt     int `cbor:"8,keyasint,omitempty"`
	MaxAttempts int `cbor:"9,keyasint,omitempty"`

	// Wait is the backoff delay before the next attempt.
	Wait time.Duration `cbor:"10,keyasint,omitempty"`

	// Elapsed is the measured duration of the operation.
	Elapsed time.Duration `cbor:"11,keyasint,omitempty"`

	// Err is the failure description for warn/error events.
	Err string `cbor:"12,keyasint,omitempty"`
}

// Level is the event severity.
type Level uint8

const (
	// LevelDebug is for per-operation measurements.
	LevelDebug Level = 0
	// LevelInfo is for lifecycle events (connected, disconnected).
	LevelInfo Level = 1
	// LevelWarn is for recoverable conditions (retries, soft validation).
	LevelWarn Level = 2
	// LevelError is for surfaced failures (retry budget exhausted).
	LevelError Level = 3
)

// String returns the level name.
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Code classifies the event.
type Code uint8

const (
	// CodeConnected is emitted once per successful connect.
	CodeConnected Code = iota

	// CodeDisconnected is emitted when a live session is torn down.
	CodeDisconnected

	// CodeRetryWait is emitted before sleeping between connect attempts.
	CodeRetryWait

	// CodeConnectFailed is emitted when the retry budget is exhausted.
	CodeConnectFailed

	// CodeCloseFailed is emitted when closing the session errored;
	// the error is swallowed.
	CodeCloseFailed

	// CodeCacheCleared is emitted when the node cache is dropped.
	CodeCacheCleared

	// CodeResolved is emitted when an identifier is resolved to a
	// live node handle.
	CodeResolved

	// CodeReadDone is emitted after a read, with its elapsed time.
	CodeReadDone

	// CodeWriteDone is emitted after a write, with its elapsed time.
	CodeWriteDone

	// CodeValidationWarn is emitted when a write value does not match
	// the node's declared kind; the write proceeds anyway.
	CodeValidationWarn
)

// String returns the code name.
func (c Code) String() string {
	switch c {
	case CodeConnected:
		return "CONNECTED"
	case CodeDisconnected:
		return "DISCONNECTED"
	case CodeRetryWait:
		return "RETRY_WAIT"
	case CodeConnectFailed:
		return "CONNECT_FAILED"
	case CodeCloseFailed:
		return "CLOSE_FAILED"
	case CodeCacheCleared:
		return "CACHE_CLEARED"
	case CodeResolved:
		return "RESOLVED"
	case CodeReadDone:
		return "READ_DONE"
	case CodeWriteDone:
		return "WRITE_DONE"
	case CodeValidationWarn:
		return "VALIDATION_WARN"
	default:
		return "UNKNOWN"
	}
}
