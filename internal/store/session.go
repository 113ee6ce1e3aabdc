package store

import (
	"context"
	"fmt"

	"github.com/oyaguma3/subscriber-radius/internal/config"
	"github.com/oyaguma3/subscriber-radius/pkg/apperr"
	"github.com/oyaguma3/subscriber-radius/pkg/model"
	"github.com/redis/go-redis/v9"
)

// sessionStore はSessionStoreインターフェースの実装。
// セッション本体とAcct-Session-Id索引をまとめて管理する。
type sessionStore struct {
	vc *ValkeyClient
}

// NewSessionStore は新しいSessionStoreを生成する。
func NewSessionStore(vc *ValkeyClient) SessionStore {
	return &sessionStore{vc: vc}
}

// Save はセッションをTTL付きで保存する。
// Acct-Session-Idが設定されていれば索引キーも同時に更新する。
func (s *sessionStore) Save(ctx context.Context, sess *model.Session) error {
	key := KeyPrefixSession + sess.UUID
	_, err := s.vc.Client().Pipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key, StructToMap(sess))
		pipe.Expire(ctx, key, config.SessionTTL)
		if sess.AcctSessionID != "" {
			idxKey := KeyPrefixAcctIndex + sess.AcctSessionID
			pipe.Set(ctx, idxKey, sess.UUID, config.SessionTTL)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", apperr.ErrValkeyUnavailable, err)
	}
	return nil
}

// Get は指定されたUUIDのセッションを取得する。
func (s *sessionStore) Get(ctx context.Context, id string) (*model.Session, error) {
	key := KeyPrefixSession + id
	m, err := s.vc.Client().HGetAll(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrValkeyUnavailable, err)
	}
	if len(m) == 0 {
		return nil, apperr.ErrSessionNotFound
	}
	var sess model.Session
	if err := MapToStruct(m, &sess); err != nil {
		return nil, err
	}
	return &sess, nil
}

// LookupByAcctSessionID はAcct-Session-Id索引からセッションUUIDを引く。
func (s *sessionStore) LookupByAcctSessionID(ctx context.Context, acctSessionID string) (string, error) {
	idxKey := KeyPrefixAcctIndex + acctSessionID
	id, err := s.vc.Client().Get(ctx, idxKey).Result()
	if err == redis.Nil {
		return "", apperr.ErrSessionNotFound
	}
	if err != nil {
		return "", fmt.Errorf("%w: %v", apperr.ErrValkeyUnavailable, err)
	}
	return id, nil
}

// Delete はセッションと索引キーを削除する。
func (s *sessionStore) Delete(ctx context.Context, id string) error {
	sess, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	keys := []string{KeyPrefixSession + id}
	if sess.AcctSessionID != "" {
		keys = append(keys, KeyPrefixAcctIndex+sess.AcctSessionID)
	}
	if err := s.vc.Client().Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("%w: %v", apperr.ErrValkeyUnavailable, err)
	}
	return nil
}
