package logging

import "log/slog"

// ログフィールド名の定数
const (
	FieldTraceID    = "trace_id"
	FieldEventID    = "event_id"
	FieldError      = "error"
	FieldSrcIP      = "src_ip"
	FieldUsername   = "username"
	FieldSessionID  = "session_id"
	FieldRetryCount = "retry_count"
	FieldLatencyMs  = "latency_ms"
)

// WithTraceID はトレースIDのslog.Attrを返す。
func WithTraceID(traceID string) slog.Attr {
	return slog.String(FieldTraceID, traceID)
}

// WithEventID はイベントIDのslog.Attrを返す。
func WithEventID(eventID string) slog.Attr {
	return slog.String(FieldEventID, eventID)
}

// WithError はエラーのslog.Attrを返す。
func WithError(err error) slog.Attr {
	if err == nil {
		return slog.String(FieldError, "")
	}
	return slog.String(FieldError, err.Error())
}

// WithSrcIP はソースIPアドレスのslog.Attrを返す。
func WithSrcIP(ip string) slog.Attr {
	return slog.String(FieldSrcIP, ip)
}

// WithSessionID はセッションIDのslog.Attrを返す。
func WithSessionID(id string) slog.Attr {
	return slog.String(FieldSessionID, id)
}

// WithRetryCount はリトライ回数のslog.Attrを返す。
func WithRetryCount(count int) slog.Attr {
	return slog.Int(FieldRetryCount, count)
}

// CommonFields はマスキング設定を保持するログフィールド生成器。
type CommonFields struct {
	masker *Masker
}

// NewCommonFields は新しいCommonFieldsを生成する。
func NewCommonFields(masker *Masker) *CommonFields {
	if masker == nil {
		masker = NewMasker(false)
	}
	return &CommonFields{masker: masker}
}

// WithUsername はマスキングされたユーザー名のslog.Attrを返す。
func (cf *CommonFields) WithUsername(username string) slog.Attr {
	return slog.String(FieldUsername, cf.masker.Username(username))
}

// AuthLogFields は認証ログ用の共通フィールドを返す。
func (cf *CommonFields) AuthLogFields(traceID, eventID, username string) []any {
	return []any{
		WithTraceID(traceID),
		WithEventID(eventID),
		cf.WithUsername(username),
	}
}
