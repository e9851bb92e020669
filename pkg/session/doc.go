// Package session owns the client's connection lifecycle.
//
// A Manager drives one state machine (DISCONNECTED, CONNECTING,
// CONNECTED) over a driver.Driver. Connect makes a bounded number of
// open attempts with exponential backoff between them; Disconnect is
// best-effort cleanup that never fails and always leaves the manager
// disconnected with an empty node cache.
//
// # Connection Status
//
// IsConnected is derived from the presence of the session handle, not
// stored separately, so it can never drift from reality. The handle,
// state and node cache form one unit of shared state behind one lock.
//
// # Node Cache
//
// Resolving an identifier to a live node handle costs a server round
// trip. The manager caches resolved handles for the lifetime of the
// session: each identifier is resolved at most once per session, and
// the whole cache is dropped on every transition to DISCONNECTED so a
// handle can never outlive the session it belongs to.
//
// # Scoped Use
//
// With runs a function inside a connected session and guarantees
// teardown on every exit path:
//
//	err := mgr.With(ctx, func(ctx context.Context) error {
//	    _, err := svc.Read(ctx, "Level")
//	    return err
//	})
package session
