package uaerrors

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"
)

func TestKindString(t *testing.T) {
	cases := map[Kind]string{
		KindConnect:       "CONNECT",
		KindNotConnected:  "NOT_CONNECTED",
		KindUnknownAlias:  "UNKNOWN_ALIAS",
		KindNodeRead:      "NODE_READ",
		KindNodeWrite:     "NODE_WRITE",
		KindInvalidNodeID: "INVALID_NODE_ID",
		Kind(99):          "UNKNOWN",
	}
	for kind, want := range cases {
		if got := kind.String(); got != want {
			t.Errorf("Kind(%d).String() = %q, want %q", kind, got, want)
		}
	}
}

func TestErrorMessage(t *testing.T) {
	t.Run("WithTargetAndCause", func(t *testing.T) {
		cause := errors.New("dial tcp: connection refused")
		err := Connect("opc.tcp://plc:4840", cause)

		msg := err.Error()
		if !strings.Contains(msg, "opc.tcp://plc:4840") {
			t.Errorf("message should name the endpoint, got %q", msg)
		}
		if !strings.Contains(msg, "connection refused") {
			t.Errorf("message should include the cause, got %q", msg)
		}
	})

	t.Run("MessageFallsBackToKind", func(t *testing.T) {
		err := &Error{Kind: KindNodeRead}
		if err.Error() != "NODE_READ" {
			t.Errorf("expected kind name, got %q", err.Error())
		}
	})
}

func TestKindMatching(t *testing.T) {
	cause := errors.New("bad status")
	err := NodeWrite("ns=2;s=Tank.Level", cause)

	if !errors.Is(err, KindNodeWrite) {
		t.Error("errors.Is should match KindNodeWrite")
	}
	if errors.Is(err, KindNodeRead) {
		t.Error("errors.Is should not match KindNodeRead")
	}

	// Matching survives further wrapping.
	wrapped := fmt.Errorf("batch item: %w", err)
	if !errors.Is(wrapped, KindNodeWrite) {
		t.Error("errors.Is should match through fmt.Errorf wrapping")
	}
}

func TestCausePreserved(t *testing.T) {
	cause := errors.New("timeout awaiting response")
	err := NodeRead("ns=2;i=42", cause)

	if !errors.Is(err, cause) {
		t.Error("errors.Is should find the original cause")
	}

	var ue *Error
	if !errors.As(err, &ue) {
		t.Fatal("errors.As should extract *Error")
	}
	if ue.Cause != cause {
		t.Errorf("Cause = %v, want original", ue.Cause)
	}
	if ue.Target != "ns=2;i=42" {
		t.Errorf("Target = %q, want node id", ue.Target)
	}
}

func TestTimestampSet(t *testing.T) {
	before := time.Now()
	err := NotConnected("read")
	after := time.Now()

	if err.At.Before(before) || err.At.After(after) {
		t.Errorf("At = %v, want between %v and %v", err.At, before, after)
	}
}
