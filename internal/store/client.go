package store

import (
	"context"
	"fmt"

	"github.com/oyaguma3/subscriber-radius/pkg/apperr"
	"github.com/oyaguma3/subscriber-radius/pkg/model"
)

// clientStore はClientStoreインターフェースの実装。
type clientStore struct {
	vc *ValkeyClient
}

// NewClientStore は新しいClientStoreを生成する。
func NewClientStore(vc *ValkeyClient) ClientStore {
	return &clientStore{vc: vc}
}

// Get は指定されたIPのクライアントを取得する。
func (s *clientStore) Get(ctx context.Context, ip string) (*model.RadiusClient, error) {
	key := KeyPrefixClient + ip
	m, err := s.vc.Client().HGetAll(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrValkeyUnavailable, err)
	}
	if len(m) == 0 {
		return nil, apperr.ErrKeyNotFound
	}
	var client model.RadiusClient
	if err := MapToStruct(m, &client); err != nil {
		return nil, err
	}
	return &client, nil
}

// Put はクライアントを登録・更新する。
func (s *clientStore) Put(ctx context.Context, client *model.RadiusClient) error {
	key := KeyPrefixClient + client.IP
	if err := s.vc.Client().HSet(ctx, key, StructToMap(client)).Err(); err != nil {
		return fmt.Errorf("%w: %v", apperr.ErrValkeyUnavailable, err)
	}
	return nil
}

// Delete はクライアントを削除する。
func (s *clientStore) Delete(ctx context.Context, ip string) error {
	key := KeyPrefixClient + ip
	if err := s.vc.Client().Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("%w: %v", apperr.ErrValkeyUnavailable, err)
	}
	return nil
}
