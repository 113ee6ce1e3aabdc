package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config はアプリケーション設定を保持する
type Config struct {
	// Valkey接続設定
	RedisHost string `envconfig:"REDIS_HOST" required:"true"`
	RedisPort string `envconfig:"REDIS_PORT" required:"true"`
	RedisPass string `envconfig:"REDIS_PASS" required:"true"`

	// RADIUSリスナー設定
	AuthListenAddr string `envconfig:"AUTH_LISTEN_ADDR" default:":1812"`
	AcctListenAddr string `envconfig:"ACCT_LISTEN_ADDR" default:":1813"`
	CoAListenAddr  string `envconfig:"COA_LISTEN_ADDR" default:":3799"`

	// CoA/Disconnect設定
	CoATimeout time.Duration `envconfig:"COA_TIMEOUT" default:"5s"`
	CoARetries int           `envconfig:"COA_RETRIES" default:"3"`

	// セッションイベント通知先（空文字列なら通知無効）
	NotifyWebhookURL string `envconfig:"NOTIFY_WEBHOOK_URL"`

	// ログ設定
	LogMaskUsername bool `envconfig:"LOG_MASK_USERNAME" default:"true"`
}

// Load は環境変数から設定を読み込む
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

// ValkeyAddr はValkey接続アドレスを "host:port" 形式で返す
func (c *Config) ValkeyAddr() string {
	return fmt.Sprintf("%s:%s", c.RedisHost, c.RedisPort)
}

// validate は設定値のバリデーションを行う
func (c *Config) validate() error {
	if c.CoATimeout <= 0 {
		return fmt.Errorf("COA_TIMEOUT must be positive")
	}
	if c.CoARetries < 1 {
		return fmt.Errorf("COA_RETRIES must be at least 1")
	}
	return nil
}
