package server

import (
	"context"
	"errors"
	"log/slog"
	"net"

	"github.com/oyaguma3/subscriber-radius/internal/store"
	"github.com/oyaguma3/subscriber-radius/pkg/apperr"
)

// ValkeySecretSource はValkey登録情報に基づくRADIUS Secret解決を行う。
// layeh.com/radius.SecretSourceインターフェースの実装。
// nilを返したパケットはライブラリ側で黙って破棄されるため、未登録・無効
// クライアントからの要求は自然に無応答となる。
type ValkeySecretSource struct {
	clients store.ClientStore
}

// NewSecretSource は新しいValkeySecretSourceを生成する。
func NewSecretSource(cs store.ClientStore) *ValkeySecretSource {
	return &ValkeySecretSource{clients: cs}
}

// RADIUSSecret はリモートアドレスに対応するRADIUS Secretを返す。
func (s *ValkeySecretSource) RADIUSSecret(ctx context.Context, remoteAddr net.Addr) ([]byte, error) {
	ip := extractIP(remoteAddr)
	if ip == "" {
		var addrStr string
		if remoteAddr != nil {
			addrStr = remoteAddr.String()
		}
		slog.Warn("IPアドレス抽出失敗",
			"event_id", "RADIUS_IP_EXTRACT_ERR",
			"remote_addr", addrStr,
		)
		return nil, nil
	}

	client, err := s.clients.Get(ctx, ip)
	if err != nil {
		if errors.Is(err, apperr.ErrKeyNotFound) {
			slog.Warn("未登録クライアントからのパケット",
				"event_id", "RADIUS_UNKNOWN_CLIENT",
				"src_ip", ip,
				"error", apperr.ErrUnknownClient,
			)
			return nil, nil
		}
		slog.Error("クライアント検索エラー",
			"event_id", "RADIUS_SECRET_ERR",
			"src_ip", ip,
			"error", err,
		)
		return nil, nil
	}

	if !client.Active {
		slog.Warn("無効化されたクライアントからのパケット",
			"event_id", "RADIUS_CLIENT_INACTIVE",
			"src_ip", ip,
		)
		return nil, nil
	}

	return []byte(client.Secret), nil
}

// extractIP はnet.AddrからIPアドレス文字列を抽出する
func extractIP(addr net.Addr) string {
	if addr == nil {
		return ""
	}
	if udpAddr, ok := addr.(*net.UDPAddr); ok {
		return udpAddr.IP.String()
	}
	host, _, err := net.SplitHostPort(addr.String())
	if err != nil {
		return ""
	}
	return host
}
