package store

import (
	"context"
	"fmt"

	"github.com/oyaguma3/subscriber-radius/pkg/apperr"
	"github.com/oyaguma3/subscriber-radius/pkg/model"
)

// userStore はUserStoreインターフェースの実装。
type userStore struct {
	vc *ValkeyClient
}

// NewUserStore は新しいUserStoreを生成する。
func NewUserStore(vc *ValkeyClient) UserStore {
	return &userStore{vc: vc}
}

// Get は指定されたユーザー名の加入者を取得する。
func (s *userStore) Get(ctx context.Context, username string) (*model.RadiusUser, error) {
	key := KeyPrefixUser + username
	m, err := s.vc.Client().HGetAll(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrValkeyUnavailable, err)
	}
	if len(m) == 0 {
		return nil, apperr.ErrKeyNotFound
	}
	var user model.RadiusUser
	if err := MapToStruct(m, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Put は加入者を登録・更新する。
func (s *userStore) Put(ctx context.Context, user *model.RadiusUser) error {
	key := KeyPrefixUser + user.Username
	if err := s.vc.Client().HSet(ctx, key, StructToMap(user)).Err(); err != nil {
		return fmt.Errorf("%w: %v", apperr.ErrValkeyUnavailable, err)
	}
	return nil
}

// Delete は加入者を削除する。
func (s *userStore) Delete(ctx context.Context, username string) error {
	key := KeyPrefixUser + username
	if err := s.vc.Client().Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("%w: %v", apperr.ErrValkeyUnavailable, err)
	}
	return nil
}
