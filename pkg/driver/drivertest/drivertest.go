// Package drivertest provides a scripted in-memory driver for unit
// tests. Failures are injected per call, and every open, resolve, read
// and write is counted so tests can assert how often the engine was
// actually hit.
package drivertest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/opclink/opclink-go/pkg/driver"
)

// Fake errors.
var (
	ErrUnknownNode   = errors.New("unknown node")
	ErrSessionClosed = errors.New("session closed")
)

// Driver is a scripted driver.Driver. The zero value is not usable;
// create one with New.
type Driver struct {
	mu sync.Mutex

	// openErrs is consumed one entry per Open call. A nil entry means
	// that call succeeds. When the queue is empty, Open succeeds.
	openErrs []error

	// OpenDelay makes each Open call sleep first, for timeout tests.
	OpenDelay time.Duration

	openCalls int
	sessions  []*Session
	nodes     map[string]*Node
}

// New creates an empty fake driver.
func New() *Driver {
	return &Driver{nodes: make(map[string]*Node)}
}

// AddNode registers a node in the fake address space and returns it
// for further scripting.
func (d *Driver) AddNode(id string, kind driver.ValueKind, value any) *Node {
	d.mu.Lock()
	defer d.mu.Unlock()

	n := &Node{id: id, kind: kind, value: value, status: driver.StatusGood}
	d.nodes[id] = n
	return n
}

// FailOpens queues errors for the next Open calls, one per call.
func (d *Driver) FailOpens(errs ...error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.openErrs = append(d.openErrs, errs...)
}

// OpenCalls returns how many times Open was invoked.
func (d *Driver) OpenCalls() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.openCalls
}

// LastSession returns the most recently opened session, or nil.
func (d *Driver) LastSession() *Session {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.sessions) == 0 {
		return nil
	}
	return d.sessions[len(d.sessions)-1]
}

// Open consumes the next scripted error or hands out a new session.
func (d *Driver) Open(ctx context.Context, ep driver.Endpoint) (driver.Session, error) {
	d.mu.Lock()
	delay := d.OpenDelay
	d.mu.Unlock()

	if delay > 0 {
		select {
		case <-ctx.Done():
			d.mu.Lock()
			d.openCalls++
			d.mu.Unlock()
			return nil, ctx.Err()
		case <-time.After(delay):
		}
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	d.openCalls++
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(d.openErrs) > 0 {
		err := d.openErrs[0]
		d.openErrs = d.openErrs[1:]
		if err != nil {
			return nil, err
		}
	}

	s := &Session{drv: d, resolveCalls: make(map[string]int)}
	d.sessions = append(d.sessions, s)
	return s, nil
}

// Session is one scripted session.
type Session struct {
	drv *Driver

	mu sync.Mutex

	// CloseErr is returned by Close; the session still closes.
	CloseErr error

	closed       bool
	resolveCalls map[string]int
}

// Resolve returns the node registered under id, counting the call.
func (s *Session) Resolve(ctx context.Context, id string) (driver.Node, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, ErrSessionClosed
	}
	s.resolveCalls[id]++
	s.mu.Unlock()

	s.drv.mu.Lock()
	n, ok := s.drv.nodes[id]
	s.drv.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownNode, id)
	}
	return n, nil
}

// Close marks the session closed and returns CloseErr.
func (s *Session) Close(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return s.CloseErr
}

// Closed reports whether Close was called.
func (s *Session) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// ResolveCalls returns how many times id was resolved on this session.
func (s *Session) ResolveCalls(id string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.resolveCalls[id]
}

// Node is one scripted node handle.
type Node struct {
	id string

	mu sync.Mutex

	// ReadErr and WriteErr are returned by every Read/Write call while set.
	ReadErr  error
	WriteErr error

	kind       driver.ValueKind
	value      any
	status     uint32
	readCalls  int
	writeCalls int
}

// ID returns the node identifier.
func (n *Node) ID() string { return n.id }

// Read returns the scripted value or ReadErr.
func (n *Node) Read(ctx context.Context) (driver.Value, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.readCalls++
	if n.ReadErr != nil {
		return driver.Value{}, n.ReadErr
	}
	return driver.Value{Raw: n.value, Status: n.status, SourceTime: time.Now()}, nil
}

// Write stores value or returns WriteErr.
func (n *Node) Write(ctx context.Context, value any) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.writeCalls++
	if n.WriteErr != nil {
		return n.WriteErr
	}
	n.value = value
	return nil
}

// Kind returns the node's scripted value kind.
func (n *Node) Kind(ctx context.Context) (driver.ValueKind, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.kind, nil
}

// SetStatus scripts the status code returned with subsequent reads.
func (n *Node) SetStatus(status uint32) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.status = status
}

// Value returns the node's current stored value.
func (n *Node) Value() any {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.value
}

// ReadCalls returns how many Read calls the node received.
func (n *Node) ReadCalls() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.readCalls
}

// WriteCalls returns how many Write calls the node received.
func (n *Node) WriteCalls() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.writeCalls
}

// Compile-time interface satisfaction checks.
var (
	_ driver.Driver  = (*Driver)(nil)
	_ driver.Session = (*Session)(nil)
	_ driver.Node    = (*Node)(nil)
)
