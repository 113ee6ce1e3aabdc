package store

import (
	"context"

	"github.com/oyaguma3/subscriber-radius/pkg/model"
)

// ClientStore はRADIUSクライアント（NAS）レジストリへのアクセスを定義する。
// 登録・削除は信頼された管理系からの入力のみを想定する。
type ClientStore interface {
	// Get は指定されたIPのクライアントを取得する。
	// 未登録の場合はapperr.ErrKeyNotFoundを返す。
	Get(ctx context.Context, ip string) (*model.RadiusClient, error)
	// Put はクライアントを登録・更新する
	Put(ctx context.Context, client *model.RadiusClient) error
	// Delete はクライアントを削除する
	Delete(ctx context.Context, ip string) error
}

// UserStore は加入者レジストリへのアクセスを定義する
type UserStore interface {
	// Get は指定されたユーザー名の加入者を取得する。
	// 未登録の場合はapperr.ErrKeyNotFoundを返す。
	Get(ctx context.Context, username string) (*model.RadiusUser, error)
	// Put は加入者を登録・更新する
	Put(ctx context.Context, user *model.RadiusUser) error
	// Delete は加入者を削除する
	Delete(ctx context.Context, username string) error
}

// SessionStore はセッションミラーへのアクセスを定義する。
// 一次データはプロセス内のセッションテーブルであり、Valkey側は外部参照用の
// ベストエフォートなミラー。
type SessionStore interface {
	// Save はセッションを書き込み、Acct-Session-Idインデックスを更新する
	Save(ctx context.Context, sess *model.Session) error
	// Get はセッションを取得する
	Get(ctx context.Context, uuid string) (*model.Session, error)
	// LookupByAcctSessionID はAcct-Session-IdからセッションUUIDを引く
	LookupByAcctSessionID(ctx context.Context, acctSessionID string) (string, error)
	// Delete はセッションを削除する
	Delete(ctx context.Context, uuid string) error
}

// RetransmitStore はAccounting再送検出用のValkey操作を定義する
type RetransmitStore interface {
	// Get は指定キーの値を取得する（未存在時は空文字列とnilを返す）
	Get(ctx context.Context, acctSessionID string) (string, error)
	// Set は指定キーに値を設定する
	Set(ctx context.Context, acctSessionID, value string) error
}
