package model

// RadiusClient はRADIUSクライアント（NAS）情報を表す。
// Valkeyキー: client:{IP}
type RadiusClient struct {
	IP     string `redis:"ip" json:"ip"`         // NASのIPアドレス（検索キー）
	Secret string `redis:"secret" json:"secret"` // 共有シークレット（ログ出力禁止）
	Name   string `redis:"name" json:"name"`     // クライアント名（識別用）
	Active bool   `redis:"active" json:"active"` // 有効フラグ
}

// NewRadiusClient は新しいRadiusClientを生成する。
func NewRadiusClient(ip, secret, name string) *RadiusClient {
	return &RadiusClient{
		IP:     ip,
		Secret: secret,
		Name:   name,
		Active: true,
	}
}
