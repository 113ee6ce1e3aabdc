// Package coa はサーバー起点のDisconnect/CoA要求の送信を提供する。
package coa

import (
	"context"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/oyaguma3/subscriber-radius/internal/config"
	"github.com/oyaguma3/subscriber-radius/internal/notify"
	internalradius "github.com/oyaguma3/subscriber-radius/internal/radius"
	"github.com/oyaguma3/subscriber-radius/internal/session"
	"github.com/oyaguma3/subscriber-radius/pkg/apperr"
	"github.com/oyaguma3/subscriber-radius/pkg/model"
	"layeh.com/radius"
	"layeh.com/radius/rfc2865"
	"layeh.com/radius/rfc2866"
)

// CoAChange はCoA-Requestで変更を要求する属性の組
type CoAChange struct {
	FilterID       string // 空なら送信しない
	SessionTimeout uint32 // 0なら送信しない
	IdleTimeout    uint32 // 0なら送信しない
}

// pendingRequest は応答待ちの要求。Identifierで相関させる。
type pendingRequest struct {
	secret  []byte
	reqAuth [16]byte
	ch      chan *radius.Packet
}

// Manager はNASへのDisconnect/CoA要求を管理する。
// 専用のUDPソケットを持ち、Identifier空間をこのソケットで占有する。
type Manager struct {
	conn     net.PacketConn
	cfg      *config.Config
	sessions *session.Manager
	notifier notify.Notifier

	nextID  atomic.Uint32
	mu      sync.Mutex
	pending map[uint8]*pendingRequest

	done chan struct{}
	wg   sync.WaitGroup
}

// NewManager は新しいManagerを生成し、応答受信ループを開始する。
func NewManager(cfg *config.Config, sessions *session.Manager, notifier notify.Notifier) (*Manager, error) {
	conn, err := net.ListenPacket("udp", cfg.CoAListenAddr)
	if err != nil {
		return nil, err
	}

	m := &Manager{
		conn:     conn,
		cfg:      cfg,
		sessions: sessions,
		notifier: notifier,
		pending:  make(map[uint8]*pendingRequest),
		done:     make(chan struct{}),
	}
	m.wg.Add(1)
	go m.readLoop()
	return m, nil
}

// Close はソケットを閉じ、応答待ちの要求をすべて中断する。
func (m *Manager) Close() error {
	close(m.done)
	err := m.conn.Close()
	m.wg.Wait()
	return err
}

// DisconnectSession はNASへDisconnect-Requestを送り、セッションの強制切断を
// 要求する。ACK受信時はセッションをAdmin-Reset要因で終了させる。
// NAK受信時は*apperr.NakErrorを、応答がないままリトライを使い切った場合は
// apperr.ErrCoATimeoutを返す。
func (m *Manager) DisconnectSession(ctx context.Context, sess *model.Session, secret []byte, nasAddr string) error {
	id := m.allocID()

	packet := radius.New(radius.CodeDisconnectRequest, secret)
	packet.Identifier = id
	setSessionAttributes(packet, sess)

	resp, err := m.exchange(ctx, packet, id, nasAddr, secret)
	if err != nil {
		return err
	}

	switch resp.Code {
	case radius.CodeDisconnectACK:
		if err := m.sessions.Terminate(ctx, sess.UUID, internalradius.TermCauseAdminReset, 0); err != nil {
			slog.Warn("session terminate after disconnect ACK failed",
				"event_id", "SESSION_TERMINATE_ERR",
				"session_id", sess.UUID,
				"error", err,
			)
		}
		if snap, err := m.sessions.Get(sess.UUID); err == nil {
			m.notifier.SessionEvent(ctx, notify.EventSessionDisconnected, snap)
		}
		slog.Info("disconnect acknowledged",
			"event_id", "COA_DISCONNECT_ACK",
			"session_id", sess.UUID,
			"nas_addr", nasAddr,
		)
		return nil

	case radius.CodeDisconnectNAK:
		cause := errorCause(resp)
		slog.Warn("disconnect rejected",
			"event_id", "COA_DISCONNECT_NAK",
			"session_id", sess.UUID,
			"nas_addr", nasAddr,
			"error_cause", cause,
		)
		return apperr.NewNakError(uint8(resp.Code), cause)

	default:
		slog.Warn("unexpected disconnect response code",
			"event_id", "COA_UNEXPECTED_CODE",
			"session_id", sess.UUID,
			"code", int(resp.Code),
		)
		return apperr.ErrCoATimeout
	}
}

// ChangeAuthorization はNASへCoA-Requestを送り、セッション属性の変更を
// 要求する。応答の扱いはDisconnectSessionと同様だが、セッション状態は
// 変更しない。
func (m *Manager) ChangeAuthorization(ctx context.Context, sess *model.Session, secret []byte, nasAddr string, change CoAChange) error {
	id := m.allocID()

	packet := radius.New(radius.CodeCoARequest, secret)
	packet.Identifier = id
	setSessionAttributes(packet, sess)
	if change.FilterID != "" {
		rfc2865.FilterID_SetString(packet, change.FilterID)
	}
	if change.SessionTimeout > 0 {
		rfc2865.SessionTimeout_Set(packet, rfc2865.SessionTimeout(change.SessionTimeout))
	}
	if change.IdleTimeout > 0 {
		rfc2865.IdleTimeout_Set(packet, rfc2865.IdleTimeout(change.IdleTimeout))
	}

	resp, err := m.exchange(ctx, packet, id, nasAddr, secret)
	if err != nil {
		return err
	}

	switch resp.Code {
	case radius.CodeCoAACK:
		slog.Info("coa acknowledged",
			"event_id", "COA_CHANGE_ACK",
			"session_id", sess.UUID,
			"nas_addr", nasAddr,
		)
		return nil

	case radius.CodeCoANAK:
		cause := errorCause(resp)
		slog.Warn("coa rejected",
			"event_id", "COA_CHANGE_NAK",
			"session_id", sess.UUID,
			"nas_addr", nasAddr,
			"error_cause", cause,
		)
		return apperr.NewNakError(uint8(resp.Code), cause)

	default:
		slog.Warn("unexpected coa response code",
			"event_id", "COA_UNEXPECTED_CODE",
			"session_id", sess.UUID,
			"code", int(resp.Code),
		)
		return apperr.ErrCoATimeout
	}
}

// exchange は要求を送信し、応答・タイムアウト・リトライを処理する。
// 再送は同一Identifier・同一Authenticatorの同一パケットで行う。
func (m *Manager) exchange(ctx context.Context, packet *radius.Packet, id uint8, nasAddr string, secret []byte) (*radius.Packet, error) {
	wire, err := packet.Encode()
	if err != nil {
		return nil, err
	}
	var reqAuth [16]byte
	copy(reqAuth[:], wire[4:20])

	addr, err := net.ResolveUDPAddr("udp", nasAddr)
	if err != nil {
		return nil, err
	}

	pr := &pendingRequest{
		secret:  secret,
		reqAuth: reqAuth,
		ch:      make(chan *radius.Packet, 1),
	}
	m.mu.Lock()
	m.pending[id] = pr
	m.mu.Unlock()
	defer func() {
		m.mu.Lock()
		delete(m.pending, id)
		m.mu.Unlock()
	}()

	start := time.Now()
	for attempt := 1; attempt <= m.cfg.CoARetries; attempt++ {
		if _, err := m.conn.WriteTo(wire, addr); err != nil {
			return nil, err
		}

		timer := time.NewTimer(m.cfg.CoATimeout)
		select {
		case resp := <-pr.ch:
			timer.Stop()
			return resp, nil
		case <-timer.C:
			slog.Debug("coa request timeout, retrying",
				"event_id", "COA_RETRY",
				"nas_addr", nasAddr,
				"retry_count", attempt,
			)
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-m.done:
			timer.Stop()
			return nil, apperr.ErrShuttingDown
		}
	}

	slog.Warn("coa request timed out",
		"event_id", "COA_TIMEOUT",
		"nas_addr", nasAddr,
		"retry_count", m.cfg.CoARetries,
		"latency_ms", time.Since(start).Milliseconds(),
	)
	return nil, apperr.ErrCoATimeout
}

// readLoop はNASからの応答を受信し、Identifierで待機中の要求へ配送する。
func (m *Manager) readLoop() {
	defer m.wg.Done()
	buf := make([]byte, 4096)
	for {
		n, src, err := m.conn.ReadFrom(buf)
		if err != nil {
			select {
			case <-m.done:
				return
			default:
			}
			// 一時的な受信エラーでループを止めると以降のACK/NAK相関が
			// すべてタイムアウトに落ちるため、少し待って受信を続ける
			slog.Error("coa socket read error",
				"event_id", "COA_READ_ERR",
				"error", err,
			)
			select {
			case <-m.done:
				return
			case <-time.After(config.ListenerRestartDelay):
			}
			continue
		}
		wire := make([]byte, n)
		copy(wire, buf[:n])
		m.deliver(wire, src)
	}
}

// deliver は受信した応答を検証し、対応する待機要求へ渡す。
// 相関しない応答やAuthenticator不一致の応答は黙って破棄する。
func (m *Manager) deliver(wire []byte, src net.Addr) {
	if len(wire) < 20 {
		return
	}
	id := wire[1]

	m.mu.Lock()
	pr := m.pending[id]
	m.mu.Unlock()
	if pr == nil {
		slog.Debug("unsolicited coa response",
			"event_id", "COA_UNSOLICITED",
			"src_addr", src.String(),
			"identifier", id,
		)
		return
	}

	if !internalradius.VerifyResponseAuthenticator(wire, pr.reqAuth, pr.secret) {
		slog.Warn("coa response authenticator mismatch",
			"event_id", "COA_BAD_AUTHENTICATOR",
			"src_addr", src.String(),
			"identifier", id,
		)
		return
	}

	resp, err := internalradius.Parse(wire, pr.secret)
	if err != nil {
		slog.Warn("coa response parse failed",
			"event_id", "COA_PARSE_ERR",
			"src_addr", src.String(),
			"error", err,
		)
		return
	}

	select {
	case pr.ch <- resp:
	default:
	}
}

// allocID は次のIdentifierを割り当てる
func (m *Manager) allocID() uint8 {
	return uint8(m.nextID.Add(1))
}

// setSessionAttributes はセッション特定用の属性を要求に積む（RFC 5176 §3）
func setSessionAttributes(packet *radius.Packet, sess *model.Session) {
	if sess.Username != "" {
		rfc2865.UserName_SetString(packet, sess.Username)
	}
	if ip := net.ParseIP(sess.NasIP); ip != nil {
		rfc2865.NASIPAddress_Set(packet, ip)
	}
	if sess.NasPort > 0 {
		rfc2865.NASPort_Set(packet, rfc2865.NASPort(sess.NasPort))
	}
	if sess.AcctSessionID != "" {
		rfc2866.AcctSessionID_SetString(packet, sess.AcctSessionID)
	}
	if ip := net.ParseIP(sess.FramedIP); ip != nil {
		rfc2865.FramedIPAddress_Set(packet, ip)
	}
}

// errorCause は応答からError-Cause属性値を取り出す（RFC 5176 §3.5）
func errorCause(resp *radius.Packet) uint32 {
	return internalradius.ExtractCoAResponseAttributes(resp).ErrorCause
}
