package config

import "time"

// Valkey接続設定
const (
	ValkeyConnectTimeout = 3 * time.Second
	ValkeyCommandTimeout = 2 * time.Second
	ValkeyPoolSize       = 10
	ValkeyMinIdleConns   = 2
	ValkeyMaxRetries     = 3
	ValkeyMinRetryDelay  = 100 * time.Millisecond
	ValkeyMaxRetryDelay  = 1 * time.Second
)

// セッション管理
const (
	// SessionTTL はValkey上のセッションミラーの保持期間。
	// プロセス内テーブルからの削除は外部の保持ポリシーに委ねる。
	SessionTTL = 24 * time.Hour
)

// 再送検出TTL
const (
	RetransmitDetectTTL = 5 * time.Minute
)

// リスナー監視設定
const (
	ListenerRestartDelay = 1 * time.Second
)

// セッションイベント通知（Circuit Breaker設定）
const (
	CBName             = "session-webhook"
	CBMaxRequests      = 3
	CBInterval         = 10 * time.Second
	CBTimeout          = 30 * time.Second
	CBFailureThreshold = 5

	NotifyRequestTimeout = 5 * time.Second
)

// サーバーシャットダウン設定
const (
	ShutdownTimeout = 5 * time.Second
)
