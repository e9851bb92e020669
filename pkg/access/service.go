package access

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/opclink/opclink-go/pkg/alias"
	"github.com/opclink/opclink-go/pkg/diag"
	"github.com/opclink/opclink-go/pkg/nodeid"
	"github.com/opclink/opclink-go/pkg/session"
	"github.com/opclink/opclink-go/pkg/uaerrors"
)

// Value is one read result: the decoded value, the server's status
// code and the source timestamp.
type Value struct {
	Raw        any
	Status     uint32
	SourceTime time.Time
}

// Result is one entry in a batch read: either a Value or the error
// that item failed with.
type Result struct {
	Value Value
	Err   error
}

// Snapshot is a point-in-time diagnostic view of the client.
type Snapshot struct {
	// Endpoint is the configured server endpoint URL.
	Endpoint string

	// State is the connection state at snapshot time.
	State session.State

	// SessionID identifies the current session, or "" when disconnected.
	SessionID string

	// CachedNodes is the number of resolved handles held for the session.
	CachedNodes int

	// LastRead and LastWrite are the completion times of the most
	// recent successful operations; zero when none happened yet.
	LastRead  time.Time
	LastWrite time.Time
}

// Service performs reads and writes against the server through a
// session manager. It holds no connection state of its own: every
// operation is gated by the manager's state and served through its
// node cache.
type Service struct {
	mgr *session.Manager
	reg *alias.Registry
	rec diag.Recorder

	mu        sync.Mutex
	lastRead  time.Time
	lastWrite time.Time
}

// New creates a Service on top of mgr. A nil registry means names must
// already be node identifiers; a nil recorder disables diagnostics.
func New(mgr *session.Manager, reg *alias.Registry, rec diag.Recorder) *Service {
	if reg == nil {
		reg = alias.Empty()
	}
	return &Service{
		mgr: mgr,
		reg: reg,
		rec: diag.OrNop(rec),
	}
}

// Registry returns the alias registry the service resolves names with.
func (s *Service) Registry() *alias.Registry {
	return s.reg
}

// resolveName turns an alias or identifier string into a node
// identifier. Identifier forms pass through untouched; everything else
// is looked up in the registry.
func (s *Service) resolveName(name string) (string, error) {
	if nodeid.IsIdentifier(name) {
		return name, nil
	}
	return s.reg.Resolve(name)
}

// Read reads the value of the node named by an alias or identifier.
// It requires an active session and fails with
// uaerrors.KindNotConnected otherwise. Transport failures are wrapped
// as uaerrors.KindNodeRead with the original cause preserved.
func (s *Service) Read(ctx context.Context, name string) (Value, error) {
	if !s.mgr.IsConnected() {
		return Value{}, uaerrors.NotConnected("read")
	}

	id, err := s.resolveName(name)
	if err != nil {
		return Value{}, err
	}

	node, err := s.mgr.Node(ctx, id)
	if err != nil {
		if errors.Is(err, uaerrors.KindNotConnected) {
			return Value{}, err
		}
		return Value{}, uaerrors.NodeRead(id, err)
	}

	start := time.Now()
	v, err := node.Read(ctx)
	elapsed := time.Since(start)
	if err != nil {
		return Value{}, uaerrors.NodeRead(id, err)
	}

	s.rec.Record(diag.Event{
		Time:      time.Now(),
		Level:     diag.LevelDebug,
		Code:      diag.CodeReadDone,
		SessionID: s.mgr.SessionID(),
		NodeID:    id,
		Elapsed:   elapsed,
	})

	s.mu.Lock()
	s.lastRead = time.Now()
	s.mu.Unlock()

	sourceTime := v.SourceTime
	if sourceTime.IsZero() {
		sourceTime = time.Now()
	}
	return Value{Raw: v.Raw, Status: v.Status, SourceTime: sourceTime}, nil
}

// Write writes value to the node named by an alias or identifier.
// It requires an active session. When the node's declared kind is
// known and the value does not conform, a warning is recorded and the
// write proceeds anyway; only a rejection by the server fails the
// call, as uaerrors.KindNodeWrite with the rejection preserved.
func (s *Service) Write(ctx context.Context, name string, value any) error {
	if !s.mgr.IsConnected() {
		return uaerrors.NotConnected("write")
	}

	id, err := s.resolveName(name)
	if err != nil {
		return err
	}

	node, err := s.mgr.Node(ctx, id)
	if err != nil {
		if errors.Is(err, uaerrors.KindNotConnected) {
			return err
		}
		return uaerrors.NodeWrite(id, err)
	}

	if kind, kerr := node.Kind(ctx); kerr == nil && !matchesKind(value, kind) {
		s.rec.Record(diag.Event{
			Time:      time.Now(),
			Level:     diag.LevelWarn,
			Code:      diag.CodeValidationWarn,
			SessionID: s.mgr.SessionID(),
			NodeID:    id,
			Message:   "value type does not match node kind " + kind.String(),
		})
	}

	start := time.Now()
	err = node.Write(ctx, value)
	elapsed := time.Since(start)
	if err != nil {
		return uaerrors.NodeWrite(id, err)
	}

	s.rec.Record(diag.Event{
		Time:      time.Now(),
		Level:     diag.LevelDebug,
		Code:      diag.CodeWriteDone,
		SessionID: s.mgr.SessionID(),
		NodeID:    id,
		Elapsed:   elapsed,
	})

	s.mu.Lock()
	s.lastWrite = time.Now()
	s.mu.Unlock()

	return nil
}

// ReadMany reads every named node independently and returns a complete
// map keyed by the caller's names. A failure on one name becomes that
// entry's Err and never aborts the rest of the batch.
func (s *Service) ReadMany(ctx context.Context, names []string) map[string]Result {
	results := make(map[string]Result, len(names))
	for _, name := range names {
		v, err := s.Read(ctx, name)
		results[name] = Result{Value: v, Err: err}
	}
	return results
}

// WriteMany writes every pair independently and returns a complete
// outcome map keyed by the caller's names: nil for success, the write
// error otherwise. One failure never aborts the rest of the batch.
func (s *Service) WriteMany(ctx context.Context, pairs map[string]any) map[string]error {
	outcomes := make(map[string]error, len(pairs))
	for name, value := range pairs {
		outcomes[name] = s.Write(ctx, name, value)
	}
	return outcomes
}

// Diagnostics returns a snapshot of connection state, cache size and
// the most recent operation times.
func (s *Service) Diagnostics() Snapshot {
	s.mu.Lock()
	lastRead, lastWrite := s.lastRead, s.lastWrite
	s.mu.Unlock()

	return Snapshot{
		Endpoint:    s.mgr.Endpoint(),
		State:       s.mgr.State(),
		SessionID:   s.mgr.SessionID(),
		CachedNodes: s.mgr.CachedNodes(),
		LastRead:    lastRead,
		LastWrite:   lastWrite,
	}
}
