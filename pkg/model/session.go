// Package model は共通データ構造体を提供する。
package model

// SessionStatus はセッションの状態を表す。
type SessionStatus string

const (
	// StatusPending は認証成功済み・Accounting-Start待ちの状態
	StatusPending SessionStatus = "PENDING"
	// StatusActive は通信中の状態
	StatusActive SessionStatus = "ACTIVE"
	// StatusTerminated は終了状態（終端状態、以降の遷移なし）
	StatusTerminated SessionStatus = "TERMINATED"
)

// Session は加入者セッションを表す。
// UUIDはサーバー生成の安定識別子。NAS側のAcct-Session-IdはNAS再起動で
// 重複しうるため、外部相関キーとしてのみ扱う。
// Valkeyキー: sess:{UUID}
type Session struct {
	UUID           string        `redis:"uuid" json:"uuid"`
	Username       string        `redis:"username" json:"username"`
	NasIP          string        `redis:"nas_ip" json:"nas_ip"`
	NasPort        uint32        `redis:"nas_port" json:"nas_port"`
	FramedIP       string        `redis:"framed_ip" json:"framed_ip"`
	AcctSessionID  string        `redis:"acct_session_id" json:"acct_session_id"`
	Status         SessionStatus `redis:"status" json:"status"`
	StartTime      int64         `redis:"start_time" json:"start_time"` // Unix秒
	LastUpdate     int64         `redis:"last_update" json:"last_update"`
	InputOctets    uint64        `redis:"input_octets" json:"input_octets"`
	OutputOctets   uint64        `redis:"output_octets" json:"output_octets"`
	InputPackets   uint64        `redis:"input_packets" json:"input_packets"`
	OutputPackets  uint64        `redis:"output_packets" json:"output_packets"`
	SessionTime    uint32        `redis:"session_time" json:"session_time"` // 秒
	TerminateCause uint32        `redis:"terminate_cause" json:"terminate_cause"`
}

// NewSession は新しいSessionをPENDING状態で生成する。
func NewSession(uuid, username, nasIP string, nasPort uint32, framedIP string, startTime int64) *Session {
	return &Session{
		UUID:       uuid,
		Username:   username,
		NasIP:      nasIP,
		NasPort:    nasPort,
		FramedIP:   framedIP,
		Status:     StatusPending,
		StartTime:  startTime,
		LastUpdate: startTime,
	}
}

// Terminated はセッションが終端状態かどうかを返す。
func (s *Session) Terminated() bool {
	return s.Status == StatusTerminated
}
