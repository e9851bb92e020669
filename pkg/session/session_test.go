package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/opclink/opclink-go/pkg/diag"
	"github.com/opclink/opclink-go/pkg/driver/drivertest"
	"github.com/opclink/opclink-go/pkg/uaerrors"
)

// captureRecorder collects diagnostic events for assertions.
type captureRecorder struct {
	mu     sync.Mutex
	events []diag.Event
}

func (c *captureRecorder) Record(event diag.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, event)
}

func (c *captureRecorder) byCode(code diag.Code) []diag.Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []diag.Event
	for _, e := range c.events {
		if e.Code == code {
			out = append(out, e)
		}
	}
	return out
}

func testConfig(rec diag.Recorder) Config {
	cfg := DefaultConfig("opc.tcp://test:4840")
	cfg.Endpoint.ConnectTimeout = time.Second
	cfg.Retry = RetryConfig{
		MaxAttempts:  3,
		InitialDelay: 10 * time.Millisecond,
		Multiplier:   2.0,
		MaxDelay:     time.Second,
	}
	cfg.Recorder = rec
	return cfg
}

func TestBackoff(t *testing.T) {
	t.Run("DefaultConfig", func(t *testing.T) {
		b := NewBackoff()
		if b.Current() != DefaultInitialDelay {
			t.Errorf("initial = %v, want %v", b.Current(), DefaultInitialDelay)
		}
	})

	t.Run("CustomSequence", func(t *testing.T) {
		b := NewBackoffWithConfig(BackoffConfig{
			Initial:    100 * time.Millisecond,
			Max:        500 * time.Millisecond,
			Multiplier: 2.0,
			Jitter:     0,
		})

		expected := []time.Duration{
			100 * time.Millisecond,
			200 * time.Millisecond,
			400 * time.Millisecond,
			500 * time.Millisecond, // capped
			500 * time.Millisecond,
		}
		for i, want := range expected {
			if got := b.Next(); got != want {
				t.Errorf("Next() #%d = %v, want %v", i+1, got, want)
			}
		}
		if b.Attempts() != len(expected) {
			t.Errorf("Attempts = %d, want %d", b.Attempts(), len(expected))
		}
	})

	t.Run("Reset", func(t *testing.T) {
		b := NewBackoffWithConfig(BackoffConfig{
			Initial:    100 * time.Millisecond,
			Max:        time.Second,
			Multiplier: 2.0,
		})
		b.Next()
		b.Next()
		b.Reset()

		if b.Attempts() != 0 {
			t.Errorf("Attempts after Reset = %d, want 0", b.Attempts())
		}
		if b.Current() != 100*time.Millisecond {
			t.Errorf("Current after Reset = %v, want 100ms", b.Current())
		}
	})

	t.Run("JitterStaysBounded", func(t *testing.T) {
		b := NewBackoffWithConfig(BackoffConfig{
			Initial:    100 * time.Millisecond,
			Max:        time.Second,
			Multiplier: 2.0,
			Jitter:     0.25,
		})
		got := b.Peek()
		if got < 100*time.Millisecond || got > 125*time.Millisecond {
			t.Errorf("Peek with jitter = %v, want within [100ms, 125ms]", got)
		}
	})
}

func TestStateString(t *testing.T) {
	cases := map[State]string{
		StateDisconnected: "DISCONNECTED",
		StateConnecting:   "CONNECTING",
		StateConnected:    "CONNECTED",
		State(9):          "UNKNOWN",
	}
	for state, want := range cases {
		if got := state.String(); got != want {
			t.Errorf("State(%d).String() = %q, want %q", state, got, want)
		}
	}
}

func TestConnect(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		drv := drivertest.New()
		m, err := NewManager(drv, testConfig(nil))
		if err != nil {
			t.Fatalf("NewManager failed: %v", err)
		}

		if err := m.Connect(context.Background()); err != nil {
			t.Fatalf("Connect failed: %v", err)
		}
		if !m.IsConnected() {
			t.Error("IsConnected = false after successful Connect")
		}
		if m.State() != StateConnected {
			t.Errorf("State = %v, want CONNECTED", m.State())
		}
		if m.SessionID() == "" {
			t.Error("SessionID should be set while connected")
		}
		if drv.OpenCalls() != 1 {
			t.Errorf("OpenCalls = %d, want 1", drv.OpenCalls())
		}
	})

	t.Run("IdempotentWhenConnected", func(t *testing.T) {
		drv := drivertest.New()
		m, _ := NewManager(drv, testConfig(nil))

		if err := m.Connect(context.Background()); err != nil {
			t.Fatalf("first Connect failed: %v", err)
		}
		if err := m.Connect(context.Background()); err != nil {
			t.Fatalf("second Connect failed: %v", err)
		}
		if drv.OpenCalls() != 1 {
			t.Errorf("OpenCalls = %d, want 1 (no second open while connected)", drv.OpenCalls())
		}
	})

	t.Run("RetriesThenSucceeds", func(t *testing.T) {
		drv := drivertest.New()
		rec := &captureRecorder{}

		cfg := testConfig(rec)
		cfg.Retry.InitialDelay = 100 * time.Millisecond

		m, _ := NewManager(drv, cfg)
		dialErr := errors.New("dial tcp: connection refused")
		drv.FailOpens(dialErr, dialErr)

		start := time.Now()
		if err := m.Connect(context.Background()); err != nil {
			t.Fatalf("Connect failed: %v", err)
		}
		elapsed := time.Since(start)

		if drv.OpenCalls() != 3 {
			t.Errorf("OpenCalls = %d, want 3", drv.OpenCalls())
		}
		retries := rec.byCode(diag.CodeRetryWait)
		if len(retries) != 2 {
			t.Fatalf("retry events = %d, want 2", len(retries))
		}
		for i, e := range retries {
			if e.Level != diag.LevelWarn {
				t.Errorf("retry event %d level = %v, want WARN", i, e.Level)
			}
			if e.Attempt != i+1 || e.MaxAttempts != 3 {
				t.Errorf("retry event %d = attempt %d/%d, want %d/3", i, e.Attempt, e.MaxAttempts, i+1)
			}
		}
		if retries[0].Wait != 100*time.Millisecond || retries[1].Wait != 200*time.Millisecond {
			t.Errorf("waits = %v, %v; want 100ms, 200ms", retries[0].Wait, retries[1].Wait)
		}

		// Two sleeps: 100ms then 200ms.
		if elapsed < 300*time.Millisecond {
			t.Errorf("elapsed = %v, want >= 300ms", elapsed)
		}
	})

	t.Run("ExhaustsRetries", func(t *testing.T) {
		drv := drivertest.New()
		rec := &captureRecorder{}
		m, _ := NewManager(drv, testConfig(rec))

		dialErr := errors.New("dial tcp: connection refused")
		drv.FailOpens(dialErr, dialErr, dialErr)

		err := m.Connect(context.Background())
		if err == nil {
			t.Fatal("Connect should fail once retries are exhausted")
		}
		if !errors.Is(err, uaerrors.KindConnect) {
			t.Errorf("error kind = %v, want KindConnect", err)
		}
		if !errors.Is(err, dialErr) {
			t.Error("the last dial error should be preserved as cause")
		}

		if drv.OpenCalls() != 3 {
			t.Errorf("OpenCalls = %d, want 3", drv.OpenCalls())
		}
		if m.IsConnected() {
			t.Error("IsConnected = true after failed Connect")
		}
		if m.State() != StateDisconnected {
			t.Errorf("State = %v, want DISCONNECTED", m.State())
		}
		if m.CachedNodes() != 0 {
			t.Errorf("CachedNodes = %d, want 0", m.CachedNodes())
		}
		if m.SessionID() != "" {
			t.Error("SessionID should be empty after failed Connect")
		}

		failures := rec.byCode(diag.CodeConnectFailed)
		if len(failures) != 1 {
			t.Fatalf("connect-failed events = %d, want 1", len(failures))
		}
		if failures[0].Level != diag.LevelError {
			t.Errorf("connect-failed level = %v, want ERROR", failures[0].Level)
		}
	})

	t.Run("CancelledContext", func(t *testing.T) {
		drv := drivertest.New()
		m, _ := NewManager(drv, testConfig(nil))

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		drv.FailOpens(errors.New("unreachable"))

		err := m.Connect(ctx)
		if err == nil {
			t.Fatal("Connect should fail with a cancelled context")
		}
		if !errors.Is(err, uaerrors.KindConnect) {
			t.Errorf("error kind = %v, want KindConnect", err)
		}
		if !errors.Is(err, context.Canceled) {
			t.Errorf("cause = %v, want context.Canceled", err)
		}
		if m.IsConnected() {
			t.Error("IsConnected = true after cancelled Connect")
		}
	})

	t.Run("ConcurrentCallersShareOneOpen", func(t *testing.T) {
		drv := drivertest.New()
		drv.OpenDelay = 50 * time.Millisecond
		m, _ := NewManager(drv, testConfig(nil))

		var wg sync.WaitGroup
		errs := make([]error, 2)
		for i := 0; i < 2; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				errs[i] = m.Connect(context.Background())
			}(i)
		}
		wg.Wait()

		for i, err := range errs {
			if err != nil {
				t.Errorf("caller %d: Connect failed: %v", i, err)
			}
		}
		if drv.OpenCalls() != 1 {
			t.Errorf("OpenCalls = %d, want 1 (concurrent callers must share)", drv.OpenCalls())
		}
	})
}

func TestDisconnect(t *testing.T) {
	t.Run("AlwaysEndsClean", func(t *testing.T) {
		drv := drivertest.New()
		drv.AddNode("ns=2;s=Tank.Level", 0, 42.0)
		rec := &captureRecorder{}
		m, _ := NewManager(drv, testConfig(rec))

		if err := m.Connect(context.Background()); err != nil {
			t.Fatalf("Connect failed: %v", err)
		}
		if _, err := m.Node(context.Background(), "ns=2;s=Tank.Level"); err != nil {
			t.Fatalf("Node failed: %v", err)
		}
		if m.CachedNodes() != 1 {
			t.Fatalf("CachedNodes = %d, want 1", m.CachedNodes())
		}

		sess := drv.LastSession()
		m.Disconnect()

		if m.IsConnected() {
			t.Error("IsConnected = true after Disconnect")
		}
		if m.CachedNodes() != 0 {
			t.Errorf("CachedNodes = %d, want 0 after Disconnect", m.CachedNodes())
		}
		if !sess.Closed() {
			t.Error("underlying session should be closed")
		}
	})

	t.Run("Idempotent", func(t *testing.T) {
		drv := drivertest.New()
		rec := &captureRecorder{}
		m, _ := NewManager(drv, testConfig(rec))

		// Disconnect without ever connecting.
		m.Disconnect()
		if m.IsConnected() || m.State() != StateDisconnected {
			t.Error("Disconnect on a fresh manager should be a clean no-op")
		}

		if err := m.Connect(context.Background()); err != nil {
			t.Fatalf("Connect failed: %v", err)
		}
		m.Disconnect()
		m.Disconnect()
		m.Disconnect()

		if got := len(rec.byCode(diag.CodeDisconnected)); got != 1 {
			t.Errorf("disconnected events = %d, want 1 (repeats are no-ops)", got)
		}
	})

	t.Run("SwallowsCloseErrors", func(t *testing.T) {
		drv := drivertest.New()
		rec := &captureRecorder{}
		m, _ := NewManager(drv, testConfig(rec))

		if err := m.Connect(context.Background()); err != nil {
			t.Fatalf("Connect failed: %v", err)
		}
		drv.LastSession().CloseErr = errors.New("secure channel already gone")

		m.Disconnect() // must not panic or surface the close error

		if m.IsConnected() {
			t.Error("IsConnected = true after Disconnect")
		}
		warns := rec.byCode(diag.CodeCloseFailed)
		if len(warns) != 1 {
			t.Fatalf("close-failed events = %d, want 1", len(warns))
		}
		if warns[0].Level != diag.LevelWarn {
			t.Errorf("close-failed level = %v, want WARN", warns[0].Level)
		}
	})
}

func TestNode(t *testing.T) {
	t.Run("ResolvedOncePerSession", func(t *testing.T) {
		drv := drivertest.New()
		drv.AddNode("ns=2;s=Tank.Level", 0, 42.0)
		m, _ := NewManager(drv, testConfig(nil))

		if err := m.Connect(context.Background()); err != nil {
			t.Fatalf("Connect failed: %v", err)
		}

		n1, err := m.Node(context.Background(), "ns=2;s=Tank.Level")
		if err != nil {
			t.Fatalf("first Node failed: %v", err)
		}
		n2, err := m.Node(context.Background(), "ns=2;s=Tank.Level")
		if err != nil {
			t.Fatalf("second Node failed: %v", err)
		}
		if n1 != n2 {
			t.Error("second lookup should return the cached handle")
		}
		if calls := drv.LastSession().ResolveCalls("ns=2;s=Tank.Level"); calls != 1 {
			t.Errorf("ResolveCalls = %d, want 1", calls)
		}
	})

	t.Run("NotConnected", func(t *testing.T) {
		drv := drivertest.New()
		m, _ := NewManager(drv, testConfig(nil))

		_, err := m.Node(context.Background(), "ns=2;s=Tank.Level")
		if !errors.Is(err, uaerrors.KindNotConnected) {
			t.Errorf("error kind = %v, want KindNotConnected", err)
		}
		if m.CachedNodes() != 0 {
			t.Error("failed lookup must not populate the cache")
		}
	})

	t.Run("ResolveFailureNotCached", func(t *testing.T) {
		drv := drivertest.New()
		m, _ := NewManager(drv, testConfig(nil))

		if err := m.Connect(context.Background()); err != nil {
			t.Fatalf("Connect failed: %v", err)
		}

		if _, err := m.Node(context.Background(), "ns=2;s=Missing"); err == nil {
			t.Fatal("Node should fail for an unknown identifier")
		}
		if m.CachedNodes() != 0 {
			t.Errorf("CachedNodes = %d, want 0 after failed resolve", m.CachedNodes())
		}

		// A later call tries the server again rather than serving a
		// cached failure.
		m.Node(context.Background(), "ns=2;s=Missing")
		if calls := drv.LastSession().ResolveCalls("ns=2;s=Missing"); calls != 2 {
			t.Errorf("ResolveCalls = %d, want 2", calls)
		}
	})

	t.Run("CacheDoesNotSurviveReconnect", func(t *testing.T) {
		drv := drivertest.New()
		drv.AddNode("ns=2;i=7", 0, true)
		m, _ := NewManager(drv, testConfig(nil))

		if err := m.Connect(context.Background()); err != nil {
			t.Fatalf("Connect failed: %v", err)
		}
		if _, err := m.Node(context.Background(), "ns=2;i=7"); err != nil {
			t.Fatalf("Node failed: %v", err)
		}
		m.Disconnect()

		if err := m.Connect(context.Background()); err != nil {
			t.Fatalf("reconnect failed: %v", err)
		}
		if _, err := m.Node(context.Background(), "ns=2;i=7"); err != nil {
			t.Fatalf("Node after reconnect failed: %v", err)
		}

		if calls := drv.LastSession().ResolveCalls("ns=2;i=7"); calls != 1 {
			t.Errorf("new session ResolveCalls = %d, want 1 (fresh resolution)", calls)
		}
	})
}

func TestWith(t *testing.T) {
	t.Run("DisconnectsAfterSuccess", func(t *testing.T) {
		drv := drivertest.New()
		m, _ := NewManager(drv, testConfig(nil))

		var sawConnected bool
		err := m.With(context.Background(), func(ctx context.Context) error {
			sawConnected = m.IsConnected()
			return nil
		})
		if err != nil {
			t.Fatalf("With failed: %v", err)
		}
		if !sawConnected {
			t.Error("fn should run while connected")
		}
		if m.IsConnected() {
			t.Error("IsConnected = true after With returned")
		}
	})

	t.Run("DisconnectsAfterError", func(t *testing.T) {
		drv := drivertest.New()
		m, _ := NewManager(drv, testConfig(nil))

		opErr := errors.New("boom")
		err := m.With(context.Background(), func(ctx context.Context) error {
			return opErr
		})
		if !errors.Is(err, opErr) {
			t.Errorf("With = %v, want the fn error", err)
		}
		if m.IsConnected() {
			t.Error("IsConnected = true after fn error")
		}
	})

	t.Run("DisconnectsAfterPanic", func(t *testing.T) {
		drv := drivertest.New()
		m, _ := NewManager(drv, testConfig(nil))

		func() {
			defer func() {
				if recover() == nil {
					t.Error("panic should propagate out of With")
				}
			}()
			m.With(context.Background(), func(ctx context.Context) error {
				panic("mid-scope failure")
			})
		}()

		if m.IsConnected() {
			t.Error("IsConnected = true after panic inside With")
		}
		if m.CachedNodes() != 0 {
			t.Error("cache should be empty after panic inside With")
		}
	})

	t.Run("PropagatesConnectFailure", func(t *testing.T) {
		drv := drivertest.New()
		dialErr := errors.New("refused")
		drv.FailOpens(dialErr, dialErr, dialErr)
		m, _ := NewManager(drv, testConfig(nil))

		ran := false
		err := m.With(context.Background(), func(ctx context.Context) error {
			ran = true
			return nil
		})
		if !errors.Is(err, uaerrors.KindConnect) {
			t.Errorf("With = %v, want KindConnect", err)
		}
		if ran {
			t.Error("fn must not run when Connect fails")
		}
	})
}

func TestNewManagerValidation(t *testing.T) {
	if _, err := NewManager(nil, testConfig(nil)); err == nil {
		t.Error("NewManager should reject a nil driver")
	}

	cfg := testConfig(nil)
	cfg.Endpoint.URL = ""
	if _, err := NewManager(drivertest.New(), cfg); err == nil {
		t.Error("NewManager should reject an empty endpoint URL")
	}

	cfg = testConfig(nil)
	cfg.Retry.MaxAttempts = 0
	if _, err := NewManager(drivertest.New(), cfg); err == nil {
		t.Error("NewManager should reject zero retry attempts")
	}
}
