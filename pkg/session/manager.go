package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/opclink/opclink-go/pkg/diag"
	"github.com/opclink/opclink-go/pkg/driver"
	"github.com/opclink/opclink-go/pkg/uaerrors"
)

// ErrAborted is the cause carried by a connect failure when Disconnect
// was called while the connect was still in flight.
var ErrAborted = errors.New("connect aborted by disconnect")

// closeTimeout bounds the session close call made during Disconnect.
const closeTimeout = 5 * time.Second

// Manager owns the session lifecycle: one connection state machine,
// the retry policy, and the node handle cache whose lifetime is bound
// to the session.
//
// State, session handle and cache are one unit of shared state guarded
// by a single lock. Connected means exactly "a session handle is held";
// there is no separate connected flag that could drift.
type Manager struct {
	mu sync.RWMutex

	state     State
	session   driver.Session
	sessionID string
	cache     nodeCache

	// gen increments on every disconnect so an in-flight connect can
	// tell that its result is stale.
	gen uint64

	// connecting coalesces concurrent Connect callers: followers wait
	// on connectDone and then re-check the state.
	connecting  bool
	connectDone chan struct{}

	drv driver.Driver
	cfg Config
	rec diag.Recorder
}

// NewManager creates a Manager for the endpoint in cfg, opening
// sessions through drv. The manager starts Disconnected; nothing is
// dialed until Connect.
func NewManager(drv driver.Driver, cfg Config) (*Manager, error) {
	if drv == nil {
		return nil, errors.New("driver is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &Manager{
		state: StateDisconnected,
		cache: newNodeCache(),
		drv:   drv,
		cfg:   cfg,
		rec:   diag.OrNop(cfg.Recorder),
	}, nil
}

// State returns the current connection state.
func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// IsConnected reports whether a live session handle is held.
func (m *Manager) IsConnected() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.session != nil
}

// SessionID returns the current session's identifier, or "" when
// disconnected.
func (m *Manager) SessionID() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sessionID
}

// CachedNodes returns the number of resolved handles in the cache.
func (m *Manager) CachedNodes() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cache.len()
}

// Endpoint returns the configured endpoint URL.
func (m *Manager) Endpoint() string {
	return m.cfg.Endpoint.URL
}

// Connect establishes the session. Calling it while connected is a
// no-op: no second session is opened. Otherwise it attempts up to the
// configured number of opens, sleeping an exponentially growing delay
// between attempts, and fails with a uaerrors.KindConnect error once
// the budget is exhausted. After a failed Connect the manager is
// Disconnected with an empty cache, exactly as before the call.
func (m *Manager) Connect(ctx context.Context) error {
	m.mu.Lock()
	for {
		if m.session != nil {
			m.mu.Unlock()
			return nil
		}
		if !m.connecting {
			break
		}
		// Another goroutine is connecting: wait for it to finish and
		// re-check rather than dialing a second session.
		done := m.connectDone
		m.mu.Unlock()
		select {
		case <-done:
		case <-ctx.Done():
			return uaerrors.Connect(m.cfg.Endpoint.URL, ctx.Err())
		}
		m.mu.Lock()
	}

	m.connecting = true
	m.connectDone = make(chan struct{})
	startGen := m.gen
	m.state = StateConnecting
	m.mu.Unlock()

	sess, err := m.openWithRetry(ctx)

	m.mu.Lock()
	m.connecting = false
	close(m.connectDone)

	if err != nil {
		m.state = StateDisconnected
		m.session = nil
		m.sessionID = ""
		m.cache.clear()
		m.mu.Unlock()
		return err
	}

	if m.gen != startGen {
		// Disconnect ran while we were dialing; the fresh session must
		// not outlive it.
		m.state = StateDisconnected
		m.mu.Unlock()
		m.closeSession(sess, "")
		return uaerrors.Connect(m.cfg.Endpoint.URL, ErrAborted)
	}

	m.session = sess
	m.sessionID = uuid.New().String()
	m.state = StateConnected
	sid := m.sessionID
	m.mu.Unlock()

	m.rec.Record(diag.Event{
		Time:      time.Now(),
		Level:     diag.LevelInfo,
		Code:      diag.CodeConnected,
		Endpoint:  m.cfg.Endpoint.URL,
		SessionID: sid,
	})
	return nil
}

// openWithRetry runs the bounded attempt loop. Each attempt is bounded
// by the endpoint's connect timeout; between failed attempts it sleeps
// the backoff delay, honoring ctx. All terminal failures are recorded
// and wrapped as uaerrors.KindConnect.
func (m *Manager) openWithRetry(ctx context.Context) (driver.Session, error) {
	backoff := NewBackoffWithConfig(BackoffConfig{
		Initial:    m.cfg.Retry.InitialDelay,
		Max:        m.cfg.Retry.MaxDelay,
		Multiplier: m.cfg.Retry.Multiplier,
		Jitter:     m.cfg.Retry.Jitter,
	})
	maxAttempts := m.cfg.Retry.MaxAttempts

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		sess, err := m.openOnce(ctx)
		if err == nil {
			return sess, nil
		}
		lastErr = err

		if attempt == maxAttempts {
			break
		}

		wait := backoff.Next()
		m.rec.Record(diag.Event{
			Time:        time.Now(),
			Level:       diag.LevelWarn,
			Code:        diag.CodeRetryWait,
			Endpoint:    m.cfg.Endpoint.URL,
			Attempt:     attempt,
			MaxAttempts: maxAttempts,
			Wait:        wait,
			Err:         err.Error(),
		})

		select {
		case <-ctx.Done():
			lastErr = ctx.Err()
			m.recordConnectFailed(maxAttempts, lastErr)
			return nil, uaerrors.Connect(m.cfg.Endpoint.URL, lastErr)
		case <-time.After(wait):
		}
	}

	m.recordConnectFailed(maxAttempts, lastErr)
	return nil, uaerrors.Connect(m.cfg.Endpoint.URL, lastErr)
}

// openOnce makes a single open attempt bounded by the endpoint's
// connect timeout.
func (m *Manager) openOnce(ctx context.Context) (driver.Session, error) {
	if m.cfg.Endpoint.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.cfg.Endpoint.ConnectTimeout)
		defer cancel()
	}
	return m.drv.Open(ctx, m.cfg.Endpoint)
}

func (m *Manager) recordConnectFailed(maxAttempts int, cause error) {
	m.rec.Record(diag.Event{
		Time:        time.Now(),
		Level:       diag.LevelError,
		Code:        diag.CodeConnectFailed,
		Endpoint:    m.cfg.Endpoint.URL,
		MaxAttempts: maxAttempts,
		Err:         cause.Error(),
	})
}

// Disconnect tears the session down. It always ends Disconnected with
// no session handle and an empty cache, never returns an error, and is
// safe to call any number of times. Close errors from the underlying
// session are recorded and swallowed: cleanup must not fail.
func (m *Manager) Disconnect() {
	m.mu.Lock()
	sess := m.session
	sid := m.sessionID
	idle := m.state == StateDisconnected && sess == nil

	m.gen++
	m.session = nil
	m.sessionID = ""
	m.state = StateDisconnected
	dropped := m.cache.clear()
	m.mu.Unlock()

	if idle {
		return
	}

	if dropped > 0 {
		m.rec.Record(diag.Event{
			Time:      time.Now(),
			Level:     diag.LevelDebug,
			Code:      diag.CodeCacheCleared,
			Endpoint:  m.cfg.Endpoint.URL,
			SessionID: sid,
			Message:   "node cache cleared",
		})
	}

	if sess != nil {
		m.closeSession(sess, sid)
		m.rec.Record(diag.Event{
			Time:      time.Now(),
			Level:     diag.LevelInfo,
			Code:      diag.CodeDisconnected,
			Endpoint:  m.cfg.Endpoint.URL,
			SessionID: sid,
		})
	}
}

// closeSession closes sess, recording close errors instead of
// propagating them.
func (m *Manager) closeSession(sess driver.Session, sid string) {
	ctx, cancel := context.WithTimeout(context.Background(), closeTimeout)
	defer cancel()

	if err := sess.Close(ctx); err != nil {
		m.rec.Record(diag.Event{
			Time:      time.Now(),
			Level:     diag.LevelWarn,
			Code:      diag.CodeCloseFailed,
			Endpoint:  m.cfg.Endpoint.URL,
			SessionID: sid,
			Err:       err.Error(),
		})
	}
}

// Node returns the live handle for the node identifier, resolving it
// through the session on first use and caching it for the rest of the
// session. A given identifier is resolved at most once per session.
// Fails with uaerrors.KindNotConnected when no session is held.
func (m *Manager) Node(ctx context.Context, id string) (driver.Node, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.session == nil {
		return nil, uaerrors.NotConnected("node resolution")
	}
	if n, ok := m.cache.get(id); ok {
		return n, nil
	}

	n, err := m.session.Resolve(ctx, id)
	if err != nil {
		return nil, err
	}
	m.cache.put(id, n)

	m.rec.Record(diag.Event{
		Time:      time.Now(),
		Level:     diag.LevelDebug,
		Code:      diag.CodeResolved,
		Endpoint:  m.cfg.Endpoint.URL,
		SessionID: m.sessionID,
		NodeID:    id,
	})
	return n, nil
}

// With runs fn inside a connected session and guarantees the session
// is torn down on every exit path, including an error or panic from
// fn. Connect failures propagate without running fn.
func (m *Manager) With(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := m.Connect(ctx); err != nil {
		return err
	}
	defer m.Disconnect()
	return fn(ctx)
}
