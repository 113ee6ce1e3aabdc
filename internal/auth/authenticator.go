// Package auth はPAP/CHAPによる加入者認証を提供する。
package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"log/slog"

	"github.com/oyaguma3/subscriber-radius/internal/config"
	"github.com/oyaguma3/subscriber-radius/internal/radius"
	"github.com/oyaguma3/subscriber-radius/internal/store"
	"github.com/oyaguma3/subscriber-radius/pkg/apperr"
	"github.com/oyaguma3/subscriber-radius/pkg/logging"
	"github.com/oyaguma3/subscriber-radius/pkg/model"
)

// Authenticator は加入者の資格情報検証を定義する
type Authenticator interface {
	// Authenticate は抽出済みのAccess-Request属性を検証し、成功時に加入者を返す。
	// 認証失敗（未登録・無効・パスワード不一致・資格情報なし）はすべて
	// apperr.ErrAuthFailedを返す。失敗理由の区別はログのみで行う。
	Authenticate(ctx context.Context, traceID string, attrs *radius.AccessAttributes, requestAuth [16]byte, secret []byte) (*model.RadiusUser, error)
}

// AuthenticatorImpl はAuthenticatorの実装
type AuthenticatorImpl struct {
	users store.UserStore
	cfg   *config.Config
}

// NewAuthenticator は新しいAuthenticatorを生成する
func NewAuthenticator(users store.UserStore, cfg *config.Config) *AuthenticatorImpl {
	return &AuthenticatorImpl{users: users, cfg: cfg}
}

// Authenticate は加入者認証を実行する
func (a *AuthenticatorImpl) Authenticate(ctx context.Context, traceID string, attrs *radius.AccessAttributes, requestAuth [16]byte, secret []byte) (*model.RadiusUser, error) {
	maskedUser := a.maskUsername(attrs.Username)

	user, err := a.users.Get(ctx, attrs.Username)
	if err != nil {
		if errors.Is(err, apperr.ErrKeyNotFound) {
			slog.Warn("未登録ユーザーの認証要求",
				"event_id", "AUTH_USER_UNKNOWN",
				"trace_id", traceID,
				"username", maskedUser,
			)
			return nil, apperr.ErrAuthFailed
		}
		slog.Error("加入者情報取得失敗",
			"event_id", "DB_READ_ERR",
			"trace_id", traceID,
			"username", maskedUser,
			"error", err,
		)
		return nil, err
	}

	if !user.Active {
		slog.Warn("無効化されたユーザーの認証要求",
			"event_id", "AUTH_USER_INACTIVE",
			"trace_id", traceID,
			"username", maskedUser,
		)
		return nil, apperr.ErrAuthFailed
	}

	switch {
	case len(attrs.CHAPPassword) > 0:
		if !radius.VerifyCHAP(attrs.CHAPPassword, attrs.CHAPChallenge, requestAuth, user.Password) {
			slog.Warn("CHAP検証失敗",
				"event_id", "AUTH_CHAP_MISMATCH",
				"trace_id", traceID,
				"username", maskedUser,
			)
			return nil, apperr.ErrAuthFailed
		}

	case len(attrs.RawUserPassword) > 0:
		plain, err := radius.DecryptUserPassword(attrs.RawUserPassword, secret, requestAuth)
		if err != nil {
			slog.Warn("User-Password復号失敗",
				"event_id", "AUTH_PAP_DECODE_ERR",
				"trace_id", traceID,
				"username", maskedUser,
				"error", err,
			)
			return nil, apperr.ErrAuthFailed
		}
		if subtle.ConstantTimeCompare([]byte(plain), []byte(user.Password)) != 1 {
			slog.Warn("PAPパスワード不一致",
				"event_id", "AUTH_PAP_MISMATCH",
				"trace_id", traceID,
				"username", maskedUser,
			)
			return nil, apperr.ErrAuthFailed
		}

	default:
		slog.Warn("資格情報のないAccess-Request",
			"event_id", "AUTH_NO_CREDENTIAL",
			"trace_id", traceID,
			"username", maskedUser,
		)
		return nil, apperr.ErrAuthFailed
	}

	slog.Info("認証成功",
		"event_id", "AUTH_SUCCESS",
		"trace_id", traceID,
		"username", maskedUser,
	)
	return user, nil
}

// maskUsername はユーザー名マスキングのラッパー
func (a *AuthenticatorImpl) maskUsername(username string) string {
	return logging.MaskUsername(username, a.cfg.LogMaskUsername)
}
