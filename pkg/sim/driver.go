package sim

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/opclink/opclink-go/pkg/driver"
)

// Sentinel errors returned by the in-process driver.
var (
	ErrUnknownNode   = errors.New("unknown node id")
	ErrSessionClosed = errors.New("session closed")
)

// Driver serves an AddressSpace through the driver interfaces, so the
// session manager and access layer run against a live address space
// without a network in between.
type Driver struct {
	space *AddressSpace

	mu       sync.Mutex
	openErrs []error
	opens    int
}

// Driver returns an in-process driver over the address space.
func (s *AddressSpace) Driver() *Driver {
	return &Driver{space: s}
}

// FailOpens queues errors for the next Open calls, one per call, after
// which opens succeed again. It exercises the session manager's retry
// path against the simulator.
func (d *Driver) FailOpens(errs ...error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.openErrs = append(d.openErrs, errs...)
}

// Opens reports how many Open calls were made so far.
func (d *Driver) Opens() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.opens
}

// Open implements driver.Driver.
func (d *Driver) Open(ctx context.Context, _ driver.Endpoint) (driver.Session, error) {
	d.mu.Lock()
	d.opens++
	var err error
	if len(d.openErrs) > 0 {
		err = d.openErrs[0]
		d.openErrs = d.openErrs[1:]
	}
	d.mu.Unlock()

	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &Session{space: d.space}, nil
}

// Session is one in-process connection to the address space.
type Session struct {
	space *AddressSpace

	mu     sync.Mutex
	closed bool
}

// Resolve implements driver.Session.
func (s *Session) Resolve(ctx context.Context, id string) (driver.Node, error) {
	if err := s.guard(ctx); err != nil {
		return nil, err
	}
	v, ok := s.space.lookup(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownNode, id)
	}
	return &Node{v: v, session: s}, nil
}

// Close implements driver.Session. It always succeeds; handles
// resolved from this session fail afterwards.
func (s *Session) Close(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *Session) guard(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSessionClosed
	}
	return nil
}

// Node is a live handle to one simulated variable.
type Node struct {
	v       *Variable
	session *Session
}

// ID implements driver.Node.
func (n *Node) ID() string { return n.v.ID() }

// Read implements driver.Node.
func (n *Node) Read(ctx context.Context) (driver.Value, error) {
	if err := n.session.guard(ctx); err != nil {
		return driver.Value{}, err
	}
	return n.v.snapshot(), nil
}

// Write implements driver.Node. Values whose type does not match the
// variable's declared kind are rejected with ErrTypeMismatch.
func (n *Node) Write(ctx context.Context, value any) error {
	if err := n.session.guard(ctx); err != nil {
		return err
	}
	return n.v.Set(value)
}

// Kind implements driver.Node.
func (n *Node) Kind(ctx context.Context) (driver.ValueKind, error) {
	if err := n.session.guard(ctx); err != nil {
		return driver.ValueKindUnknown, err
	}
	return n.v.Kind(), nil
}

var (
	_ driver.Driver  = (*Driver)(nil)
	_ driver.Session = (*Session)(nil)
	_ driver.Node    = (*Node)(nil)
)
