package model

import "strings"

// RadiusUser は加入者の認証情報を表す。
// Valkeyキー: user:{username}
// PasswordはPAP/CHAP検証に平文が必要なため平文で保持する（CHAPはMD5計算に
// 平文パスワードを要求する。RFC 2865 §2.2）。
type RadiusUser struct {
	Username string `redis:"username" json:"username"`
	Password string `redis:"password" json:"password"`   // 平文パスワード（ログ出力禁止）
	FramedIP string `redis:"framed_ip" json:"framed_ip"` // 払い出す固定IP（空なら割当なし）
	Groups   string `redis:"groups" json:"groups"`       // カンマ区切りグループ名
	Active   bool   `redis:"active" json:"active"`
}

// NewRadiusUser は新しいRadiusUserを生成する。
func NewRadiusUser(username, password string) *RadiusUser {
	return &RadiusUser{
		Username: username,
		Password: password,
		Active:   true,
	}
}

// GroupList はGroupsをスライスに分解して返す。
func (u *RadiusUser) GroupList() []string {
	if u.Groups == "" {
		return nil
	}
	parts := strings.Split(u.Groups, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if g := strings.TrimSpace(p); g != "" {
			out = append(out, g)
		}
	}
	return out
}
