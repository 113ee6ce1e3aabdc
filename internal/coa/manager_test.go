package coa

import (
	"context"
	"encoding/binary"
	"errors"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/oyaguma3/subscriber-radius/internal/config"
	internalradius "github.com/oyaguma3/subscriber-radius/internal/radius"
	"github.com/oyaguma3/subscriber-radius/internal/session"
	"github.com/oyaguma3/subscriber-radius/pkg/apperr"
	"github.com/oyaguma3/subscriber-radius/pkg/model"
	"layeh.com/radius"
)

var testSecret = []byte("testing123")

func newTestConfig() *config.Config {
	return &config.Config{
		CoAListenAddr: "127.0.0.1:0",
		CoATimeout:    100 * time.Millisecond,
		CoARetries:    3,
	}
}

type nopNotifier struct{}

func (nopNotifier) SessionEvent(_ context.Context, _ string, _ *model.Session) {}

func newTestManager(t *testing.T) (*Manager, *session.Manager) {
	t.Helper()
	sm := session.NewManager(nil)
	m, err := NewManager(newTestConfig(), sm, nopNotifier{})
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}
	t.Cleanup(func() { m.Close() })
	return m, sm
}

// newTestNAS はNAS役のUDPソケットを起動する。respondはnilなら無応答。
func newTestNAS(t *testing.T, respond func(req []byte) []byte) string {
	t.Helper()
	conn, err := net.ListenPacket("udp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("ListenPacket failed: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	go func() {
		buf := make([]byte, 4096)
		for {
			n, src, err := conn.ReadFrom(buf)
			if err != nil {
				return
			}
			if respond == nil {
				continue
			}
			req := make([]byte, n)
			copy(req, buf[:n])
			if resp := respond(req); resp != nil {
				_, _ = conn.WriteTo(resp, src)
			}
		}
	}()
	return conn.LocalAddr().String()
}

// buildResponse は受信した要求に対する応答パケットを組み立てる
func buildResponse(t *testing.T, req []byte, code radius.Code, errorCause uint32) []byte {
	t.Helper()
	resp := radius.New(code, testSecret)
	resp.Identifier = req[1]
	copy(resp.Authenticator[:], req[4:20])
	if errorCause != 0 {
		v := make([]byte, 4)
		binary.BigEndian.PutUint32(v, errorCause)
		resp.Attributes = append(resp.Attributes, &radius.AVP{
			Type:      radius.Type(internalradius.AttrTypeErrorCause),
			Attribute: radius.Attribute(v),
		})
	}
	wire, err := resp.Encode()
	if err != nil {
		t.Fatalf("response encode failed: %v", err)
	}
	return wire
}

func activeSession(t *testing.T, sm *session.Manager) *model.Session {
	t.Helper()
	ctx := context.Background()
	sess, err := sm.Create(ctx, "alice", "10.0.0.5", 15, "192.168.5.10")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := sm.Activate(ctx, sess.UUID, "SESS001"); err != nil {
		t.Fatalf("Activate failed: %v", err)
	}
	sess, _ = sm.Get(sess.UUID)
	return sess
}

func TestDisconnectSessionACK(t *testing.T) {
	m, sm := newTestManager(t)
	sess := activeSession(t, sm)

	nasAddr := newTestNAS(t, func(req []byte) []byte {
		return buildResponse(t, req, radius.CodeDisconnectACK, 0)
	})

	if err := m.DisconnectSession(context.Background(), sess, testSecret, nasAddr); err != nil {
		t.Fatalf("DisconnectSession failed: %v", err)
	}

	got, _ := sm.Get(sess.UUID)
	if got.Status != model.StatusTerminated {
		t.Errorf("status = %q, want TERMINATED", got.Status)
	}
	if got.TerminateCause != internalradius.TermCauseAdminReset {
		t.Errorf("terminate_cause = %d, want %d", got.TerminateCause, internalradius.TermCauseAdminReset)
	}
}

func TestDisconnectSessionNAK(t *testing.T) {
	m, sm := newTestManager(t)
	sess := activeSession(t, sm)

	nasAddr := newTestNAS(t, func(req []byte) []byte {
		return buildResponse(t, req, radius.CodeDisconnectNAK, 503)
	})

	err := m.DisconnectSession(context.Background(), sess, testSecret, nasAddr)
	if !errors.Is(err, apperr.ErrCoANak) {
		t.Fatalf("expected ErrCoANak, got: %v", err)
	}
	var nakErr *apperr.NakError
	if !errors.As(err, &nakErr) {
		t.Fatalf("expected *NakError, got: %T", err)
	}
	if nakErr.ErrorCause != 503 {
		t.Errorf("error_cause = %d, want 503", nakErr.ErrorCause)
	}

	// NAKではセッションは終了しない
	got, _ := sm.Get(sess.UUID)
	if got.Status != model.StatusActive {
		t.Errorf("status = %q, want ACTIVE", got.Status)
	}
}

func TestDisconnectSessionTimeout(t *testing.T) {
	m, sm := newTestManager(t)
	sess := activeSession(t, sm)

	nasAddr := newTestNAS(t, nil) // 無応答

	start := time.Now()
	err := m.DisconnectSession(context.Background(), sess, testSecret, nasAddr)
	elapsed := time.Since(start)

	if !errors.Is(err, apperr.ErrCoATimeout) {
		t.Fatalf("expected ErrCoATimeout, got: %v", err)
	}
	if errors.Is(err, apperr.ErrCoANak) {
		t.Error("timeout must be distinguishable from NAK")
	}
	// 100ms × 3リトライ分は待っているはず
	if elapsed < 300*time.Millisecond {
		t.Errorf("elapsed = %v, want >= 300ms (per-attempt timeout x retries)", elapsed)
	}
}

func TestDisconnectSessionBadAuthenticatorIgnored(t *testing.T) {
	m, sm := newTestManager(t)
	sess := activeSession(t, sm)

	// Response Authenticatorが壊れた応答は破棄され、タイムアウトになる
	nasAddr := newTestNAS(t, func(req []byte) []byte {
		wire := buildResponse(t, req, radius.CodeDisconnectACK, 0)
		wire[4] ^= 0xff
		return wire
	})

	err := m.DisconnectSession(context.Background(), sess, testSecret, nasAddr)
	if !errors.Is(err, apperr.ErrCoATimeout) {
		t.Fatalf("expected ErrCoATimeout, got: %v", err)
	}

	got, _ := sm.Get(sess.UUID)
	if got.Status != model.StatusActive {
		t.Errorf("status = %q, want ACTIVE", got.Status)
	}
}

func TestChangeAuthorizationACK(t *testing.T) {
	m, sm := newTestManager(t)
	sess := activeSession(t, sm)

	nasAddr := newTestNAS(t, func(req []byte) []byte {
		return buildResponse(t, req, radius.CodeCoAACK, 0)
	})

	change := CoAChange{FilterID: "premium-filter", SessionTimeout: 3600}
	if err := m.ChangeAuthorization(context.Background(), sess, testSecret, nasAddr, change); err != nil {
		t.Fatalf("ChangeAuthorization failed: %v", err)
	}

	// CoAはセッション状態を変更しない
	got, _ := sm.Get(sess.UUID)
	if got.Status != model.StatusActive {
		t.Errorf("status = %q, want ACTIVE", got.Status)
	}
}

func TestChangeAuthorizationNAK(t *testing.T) {
	m, sm := newTestManager(t)
	sess := activeSession(t, sm)

	nasAddr := newTestNAS(t, func(req []byte) []byte {
		return buildResponse(t, req, radius.CodeCoANAK, 405)
	})

	err := m.ChangeAuthorization(context.Background(), sess, testSecret, nasAddr, CoAChange{FilterID: "x"})
	var nakErr *apperr.NakError
	if !errors.As(err, &nakErr) {
		t.Fatalf("expected *NakError, got: %v", err)
	}
	if nakErr.ErrorCause != 405 {
		t.Errorf("error_cause = %d, want 405", nakErr.ErrorCause)
	}
}

// flakyConn は最初のReadFromで一時エラーを返すPacketConn。
// 以降はrespChに入れられた応答を返す。
type flakyConn struct {
	mu     sync.Mutex
	failed bool

	reqCh     chan []byte
	respCh    chan []byte
	closed    chan struct{}
	closeOnce sync.Once
}

func newFlakyConn() *flakyConn {
	return &flakyConn{
		reqCh:  make(chan []byte, 8),
		respCh: make(chan []byte, 1),
		closed: make(chan struct{}),
	}
}

func (c *flakyConn) ReadFrom(p []byte) (int, net.Addr, error) {
	c.mu.Lock()
	if !c.failed {
		c.failed = true
		c.mu.Unlock()
		return 0, nil, errors.New("recvfrom: resource temporarily unavailable")
	}
	c.mu.Unlock()
	select {
	case wire := <-c.respCh:
		n := copy(p, wire)
		return n, &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 3799}, nil
	case <-c.closed:
		return 0, nil, net.ErrClosed
	}
}

func (c *flakyConn) WriteTo(p []byte, _ net.Addr) (int, error) {
	wire := make([]byte, len(p))
	copy(wire, p)
	c.reqCh <- wire
	return len(p), nil
}

func (c *flakyConn) Close() error {
	c.closeOnce.Do(func() { close(c.closed) })
	return nil
}

func (c *flakyConn) LocalAddr() net.Addr                { return &net.UDPAddr{} }
func (c *flakyConn) SetDeadline(_ time.Time) error      { return nil }
func (c *flakyConn) SetReadDeadline(_ time.Time) error  { return nil }
func (c *flakyConn) SetWriteDeadline(_ time.Time) error { return nil }

func TestReadLoopSurvivesTransientError(t *testing.T) {
	conn := newFlakyConn()
	sm := session.NewManager(nil)
	m := &Manager{
		conn:     conn,
		cfg:      &config.Config{CoATimeout: 600 * time.Millisecond, CoARetries: 3},
		sessions: sm,
		notifier: nopNotifier{},
		pending:  make(map[uint8]*pendingRequest),
		done:     make(chan struct{}),
	}
	m.wg.Add(1)
	go m.readLoop()
	t.Cleanup(func() { m.Close() })

	sess := activeSession(t, sm)

	// 受信ループがエラー後も生きていれば、このACKは配送される
	go func() {
		req := <-conn.reqCh
		conn.respCh <- buildResponse(t, req, radius.CodeDisconnectACK, 0)
	}()

	if err := m.DisconnectSession(context.Background(), sess, testSecret, "127.0.0.1:3799"); err != nil {
		t.Fatalf("DisconnectSession after read error failed: %v", err)
	}
}

func TestUnrecognizedResponseCodeIgnored(t *testing.T) {
	m, sm := newTestManager(t)
	sess := activeSession(t, sm)

	// 未知のCodeを持つ応答はAuthenticatorが正しくても破棄される
	nasAddr := newTestNAS(t, func(req []byte) []byte {
		wire := buildResponse(t, req, radius.CodeDisconnectACK, 0)
		wire[0] = 200
		var reqAuth [16]byte
		copy(reqAuth[:], req[4:20])
		auth := internalradius.ResponseAuthenticator(wire, reqAuth, testSecret)
		copy(wire[4:20], auth[:])
		return wire
	})

	err := m.DisconnectSession(context.Background(), sess, testSecret, nasAddr)
	if !errors.Is(err, apperr.ErrCoATimeout) {
		t.Fatalf("expected ErrCoATimeout, got: %v", err)
	}
}

func TestCloseInterruptsPending(t *testing.T) {
	sm := session.NewManager(nil)
	m, err := NewManager(&config.Config{
		CoAListenAddr: "127.0.0.1:0",
		CoATimeout:    5 * time.Second,
		CoARetries:    3,
	}, sm, nopNotifier{})
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}

	sess := activeSession(t, sm)
	nasAddr := newTestNAS(t, nil)

	errCh := make(chan error, 1)
	go func() {
		errCh <- m.DisconnectSession(context.Background(), sess, testSecret, nasAddr)
	}()

	time.Sleep(50 * time.Millisecond)
	_ = m.Close()

	select {
	case err := <-errCh:
		if !errors.Is(err, apperr.ErrShuttingDown) {
			t.Errorf("expected ErrShuttingDown, got: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("DisconnectSession did not return after Close")
	}
}

func TestContextCancelInterruptsExchange(t *testing.T) {
	m, sm := newTestManager(t)
	sess := activeSession(t, sm)
	nasAddr := newTestNAS(t, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	err := m.DisconnectSession(ctx, sess, testSecret, nasAddr)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected DeadlineExceeded, got: %v", err)
	}
}
