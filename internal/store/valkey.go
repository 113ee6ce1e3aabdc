// Package store はValkeyへのデータアクセスを提供する。
// クライアント・ユーザー・セッションミラー・再送検出の各ストアは
// このパッケージのValkeyClientを共有する。
package store

import (
	"context"
	"fmt"

	"github.com/oyaguma3/subscriber-radius/internal/config"
	"github.com/redis/go-redis/v9"
)

// ValkeyClient はValkeyクライアントをラップする。
type ValkeyClient struct {
	client *redis.Client
}

// valkeyOptions は接続オプションを組み立てる。
// 認証・アカウンティングのホットパスから呼ばれるため、タイムアウトと
// リトライ回数は短めに抑えてある（constants.go参照）。
func valkeyOptions(cfg *config.Config) *redis.Options {
	return &redis.Options{
		Addr:            cfg.ValkeyAddr(),
		Password:        cfg.RedisPass,
		DB:              0,
		DialTimeout:     config.ValkeyConnectTimeout,
		ReadTimeout:     config.ValkeyCommandTimeout,
		WriteTimeout:    config.ValkeyCommandTimeout,
		PoolSize:        config.ValkeyPoolSize,
		MinIdleConns:    config.ValkeyMinIdleConns,
		MaxRetries:      config.ValkeyMaxRetries,
		MinRetryBackoff: config.ValkeyMinRetryDelay,
		MaxRetryBackoff: config.ValkeyMaxRetryDelay,
	}
}

// NewValkeyClient は新しいValkeyClientを生成し、疎通を確認する。
func NewValkeyClient(cfg *config.Config) (*ValkeyClient, error) {
	client := redis.NewClient(valkeyOptions(cfg))

	ctx, cancel := context.WithTimeout(context.Background(), config.ValkeyConnectTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("valkey接続失敗 (%s): %w", cfg.ValkeyAddr(), err)
	}

	return &ValkeyClient{client: client}, nil
}

// Close は接続を閉じる。
func (v *ValkeyClient) Close() error {
	return v.client.Close()
}

// Client は内部のredis.Clientを返す。
func (v *ValkeyClient) Client() *redis.Client {
	return v.client
}
