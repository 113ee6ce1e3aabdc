// Package session はプロセス内セッションテーブルを提供する。
// 一次データはメモリ上のテーブルで、Valkeyミラーは外部参照用の
// ベストエフォート書き込み。
package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/oyaguma3/subscriber-radius/internal/store"
	"github.com/oyaguma3/subscriber-radius/pkg/apperr"
	"github.com/oyaguma3/subscriber-radius/pkg/model"
)

// Counters はAccounting要求が運ぶ累積カウンタのスナップショット
type Counters struct {
	InputOctets   uint64
	OutputOctets  uint64
	InputPackets  uint64
	OutputPackets uint64
	SessionTime   uint32
}

// entry はテーブル上の1セッション。entry単位のロックで更新を直列化する。
type entry struct {
	mu   sync.Mutex
	sess model.Session
}

// snapshot はロックを取ってセッションのコピーを返す
func (e *entry) snapshot() *model.Session {
	e.mu.Lock()
	defer e.mu.Unlock()
	s := e.sess
	return &s
}

// Manager はセッションテーブルを管理する。
// テーブルロックはマップ操作のみを守り、セッション更新はentryロックで行う。
// 両ロックを同時に保持する場合はテーブルロック→entryロックの順とする。
type Manager struct {
	mu        sync.RWMutex
	sessions  map[string]*entry
	byAcctID  map[string]string // Acct-Session-Id → セッションUUID
	byNasPort map[string]string // "nasIP:nasPort" → セッションUUID

	mirror store.SessionStore
}

// NewManager は新しいManagerを生成する
func NewManager(mirror store.SessionStore) *Manager {
	return &Manager{
		sessions:  make(map[string]*entry),
		byAcctID:  make(map[string]string),
		byNasPort: make(map[string]string),
		mirror:    mirror,
	}
}

// Create は認証成功時にPENDING状態のセッションを作成する
func (m *Manager) Create(ctx context.Context, username, nasIP string, nasPort uint32, framedIP string) (*model.Session, error) {
	id := uuid.NewString()
	sess := model.NewSession(id, username, nasIP, nasPort, framedIP, time.Now().Unix())
	e := &entry{sess: *sess}

	m.mu.Lock()
	m.sessions[id] = e
	if nasIP != "" {
		m.byNasPort[nasPortKey(nasIP, nasPort)] = id
	}
	m.mu.Unlock()

	m.mirrorWrite(ctx, sess)
	return sess, nil
}

// Get はセッションのスナップショットを返す
func (m *Manager) Get(id string) (*model.Session, error) {
	e, ok := m.lookup(id)
	if !ok {
		return nil, apperr.ErrSessionNotFound
	}
	return e.snapshot(), nil
}

// LookupByAcctSessionID はAcct-Session-Idからセッションを引く
func (m *Manager) LookupByAcctSessionID(acctSessionID string) (*model.Session, error) {
	m.mu.RLock()
	id, ok := m.byAcctID[acctSessionID]
	m.mu.RUnlock()
	if !ok {
		return nil, apperr.ErrSessionNotFound
	}
	return m.Get(id)
}

// LookupByNASPort はNASのIPアドレスとポート番号からセッションを引く
func (m *Manager) LookupByNASPort(nasIP string, nasPort uint32) (*model.Session, error) {
	m.mu.RLock()
	id, ok := m.byNasPort[nasPortKey(nasIP, nasPort)]
	m.mu.RUnlock()
	if !ok {
		return nil, apperr.ErrSessionNotFound
	}
	return m.Get(id)
}

// Activate はAccounting-Start受信時にPENDINGセッションをACTIVEへ遷移させる。
// すでにACTIVEの場合は何もしない。TERMINATED済みのセッションは
// 存在しないものとして扱う。
func (m *Manager) Activate(ctx context.Context, id, acctSessionID string) error {
	e, ok := m.lookup(id)
	if !ok {
		return apperr.ErrSessionNotFound
	}

	e.mu.Lock()
	if e.sess.Terminated() {
		e.mu.Unlock()
		return apperr.ErrSessionNotFound
	}
	e.sess.Status = model.StatusActive
	e.sess.AcctSessionID = acctSessionID
	e.sess.LastUpdate = time.Now().Unix()
	snap := e.sess
	e.mu.Unlock()

	if acctSessionID != "" {
		m.mu.Lock()
		m.byAcctID[acctSessionID] = id
		m.mu.Unlock()
	}

	m.mirrorWrite(ctx, &snap)
	return nil
}

// UpdateCounters はInterim-Updateの累積カウンタをそのまま採用する。
// カウンタは加算ではなく最新値で置き換える（RFC 2866のカウンタは累積値）。
func (m *Manager) UpdateCounters(ctx context.Context, id string, c Counters) error {
	e, ok := m.lookup(id)
	if !ok {
		return apperr.ErrSessionNotFound
	}

	e.mu.Lock()
	if e.sess.Terminated() {
		e.mu.Unlock()
		return apperr.ErrSessionNotFound
	}
	e.sess.InputOctets = c.InputOctets
	e.sess.OutputOctets = c.OutputOctets
	e.sess.InputPackets = c.InputPackets
	e.sess.OutputPackets = c.OutputPackets
	e.sess.SessionTime = c.SessionTime
	e.sess.LastUpdate = time.Now().Unix()
	snap := e.sess
	e.mu.Unlock()

	m.mirrorWrite(ctx, &snap)
	return nil
}

// Terminate はセッションをTERMINATEDへ遷移させる。冪等で、すでに
// TERMINATEDの場合は何もせず成功を返す。sessionTimeが0の場合は
// last_update - start_timeから算出する。
func (m *Manager) Terminate(ctx context.Context, id string, cause uint32, sessionTime uint32) error {
	e, ok := m.lookup(id)
	if !ok {
		return apperr.ErrSessionNotFound
	}

	e.mu.Lock()
	if e.sess.Terminated() {
		e.mu.Unlock()
		return nil
	}
	now := time.Now().Unix()
	e.sess.Status = model.StatusTerminated
	e.sess.TerminateCause = cause
	if sessionTime > 0 {
		e.sess.SessionTime = sessionTime
	} else if now > e.sess.StartTime {
		e.sess.SessionTime = uint32(now - e.sess.StartTime)
	}
	e.sess.LastUpdate = now
	snap := e.sess
	e.mu.Unlock()

	// 終了済みセッションの識別子は新しいセッションに明け渡す。
	// Acct-Session-IdはNAS再起動後に再利用されるため、残すと次のStartが
	// 終了済みセッションへ誤って相関してしまう。
	m.mu.Lock()
	key := nasPortKey(snap.NasIP, snap.NasPort)
	if m.byNasPort[key] == id {
		delete(m.byNasPort, key)
	}
	if snap.AcctSessionID != "" && m.byAcctID[snap.AcctSessionID] == id {
		delete(m.byAcctID, snap.AcctSessionID)
	}
	m.mu.Unlock()

	m.mirrorWrite(ctx, &snap)
	return nil
}

// TerminateByNAS は指定NASのPENDING/ACTIVEセッションをすべて終了させ、
// 終了したセッションのUUIDを返す。Accounting-On/Off受信時に使用する。
func (m *Manager) TerminateByNAS(ctx context.Context, nasIP string, cause uint32) []string {
	m.mu.RLock()
	var targets []string
	for id, e := range m.sessions {
		if e.snapshot().NasIP == nasIP {
			targets = append(targets, id)
		}
	}
	m.mu.RUnlock()

	var terminated []string
	for _, id := range targets {
		sess, err := m.Get(id)
		if err != nil || sess.Terminated() {
			continue
		}
		if err := m.Terminate(ctx, id, cause, 0); err == nil {
			terminated = append(terminated, id)
		}
	}
	return terminated
}

// ActiveSessions はACTIVE状態のセッションのスナップショット一覧を返す
func (m *Manager) ActiveSessions() []*model.Session {
	m.mu.RLock()
	entries := make([]*entry, 0, len(m.sessions))
	for _, e := range m.sessions {
		entries = append(entries, e)
	}
	m.mu.RUnlock()

	var out []*model.Session
	for _, e := range entries {
		if s := e.snapshot(); s.Status == model.StatusActive {
			out = append(out, s)
		}
	}
	return out
}

// All は状態を問わず全セッションのスナップショット一覧を返す。
// TERMINATEDを含むため、保持ポリシーを持つ外部の管理面向け。
func (m *Manager) All() []*model.Session {
	m.mu.RLock()
	entries := make([]*entry, 0, len(m.sessions))
	for _, e := range m.sessions {
		entries = append(entries, e)
	}
	m.mu.RUnlock()

	out := make([]*model.Session, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.snapshot())
	}
	return out
}

// lookup はテーブルからentryを取得する
func (m *Manager) lookup(id string) (*entry, bool) {
	m.mu.RLock()
	e, ok := m.sessions[id]
	m.mu.RUnlock()
	return e, ok
}

// mirrorWrite はValkeyミラーへの書き込みを行う。失敗してもセッション
// テーブルの状態は確定済みなので、ログのみ残して処理は継続する。
func (m *Manager) mirrorWrite(ctx context.Context, sess *model.Session) {
	if m.mirror == nil {
		return
	}
	if err := m.mirror.Save(ctx, sess); err != nil {
		slog.Warn("セッションミラー書き込み失敗",
			"event_id", "DB_WRITE_ERR",
			"session_id", sess.UUID,
			"error", err,
		)
	}
}

// nasPortKey はNASポートインデックスのキーを生成する
func nasPortKey(nasIP string, nasPort uint32) string {
	return fmt.Sprintf("%s:%d", nasIP, nasPort)
}
