// Package apperr は共通エラー定義を提供する。
package apperr

import "errors"

// パケット処理関連エラー
var (
	// ErrMalformedPacket は不正なRADIUSパケットエラー（破棄・無応答）
	ErrMalformedPacket = errors.New("malformed RADIUS packet")
	// ErrUnknownClient は未登録クライアントからのパケットエラー（破棄・無応答）
	ErrUnknownClient = errors.New("unknown RADIUS client")
	// ErrInvalidAuthenticator はAuthenticator検証失敗エラー
	ErrInvalidAuthenticator = errors.New("invalid authenticator")
)

// 認証関連エラー
var (
	// ErrAuthFailed は認証失敗エラー。
	// ユーザー不存在・無効ユーザー・パスワード不一致は外部に区別を漏らさない
	// ため、いずれもこのエラーに集約する。
	ErrAuthFailed = errors.New("authentication failed")
)

// セッション関連エラー
var (
	// ErrSessionNotFound はセッションが見つからない場合のエラー
	ErrSessionNotFound = errors.New("session not found")
)

// CoA/Disconnect関連エラー
var (
	// ErrCoATimeout はリトライ回数を使い切っても応答がなかった場合のエラー。
	// NAKとは必ず区別して呼び出し元へ返す。
	ErrCoATimeout = errors.New("CoA request timed out")
	// ErrCoANak はNASがNAKを返した場合のエラー
	ErrCoANak = errors.New("CoA request rejected by NAS")
	// ErrShuttingDown はシャットダウンにより処理が中断された場合のエラー
	ErrShuttingDown = errors.New("server shutting down")
)

// インフラ関連エラー
var (
	// ErrValkeyUnavailable はValkeyへの接続が利用不可能な場合のエラー
	ErrValkeyUnavailable = errors.New("valkey unavailable")
	// ErrKeyNotFound は指定されたキーが存在しない場合のエラー
	ErrKeyNotFound = errors.New("key not found")
)
