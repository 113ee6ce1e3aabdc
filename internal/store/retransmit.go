package store

import (
	"context"
	"fmt"

	"github.com/oyaguma3/subscriber-radius/internal/config"
	"github.com/oyaguma3/subscriber-radius/pkg/apperr"
	"github.com/redis/go-redis/v9"
)

// retransmitStore はRetransmitStoreインターフェースの実装。
// NASからの再送検出用に、処理済みアカウンティング要求の
// ダイジェストを短期TTLで保持する。
type retransmitStore struct {
	vc *ValkeyClient
}

// NewRetransmitStore は新しいRetransmitStoreを生成する。
func NewRetransmitStore(vc *ValkeyClient) RetransmitStore {
	return &retransmitStore{vc: vc}
}

// Get は指定キーに記録された値を返す。未存在なら空文字列。
func (s *retransmitStore) Get(ctx context.Context, acctSessionID string) (string, error) {
	v, err := s.vc.Client().Get(ctx, KeyPrefixAcctSeen+acctSessionID).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("%w: %v", apperr.ErrValkeyUnavailable, err)
	}
	return v, nil
}

// Set は指定キーに値を記録する。
func (s *retransmitStore) Set(ctx context.Context, acctSessionID, value string) error {
	err := s.vc.Client().Set(ctx, KeyPrefixAcctSeen+acctSessionID, value, config.RetransmitDetectTTL).Err()
	if err != nil {
		return fmt.Errorf("%w: %v", apperr.ErrValkeyUnavailable, err)
	}
	return nil
}
