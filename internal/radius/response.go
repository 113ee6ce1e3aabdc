package radius

import (
	"net"

	"layeh.com/radius"
	"layeh.com/radius/rfc2865"
)

// AcceptParams はAccess-Accept生成に必要なパラメータ
type AcceptParams struct {
	// FramedIP は払い出すIPアドレス（nilなら属性なし）
	FramedIP net.IP
	// SessionUUID はセッションUUID（Class属性に格納し、Accountingで相関する）
	SessionUUID string
	// ReplyMessage は応答メッセージ（空なら属性なし）
	ReplyMessage string
}

// BuildAccessAccept はAccess-Acceptパケットを構築する。
// Response AuthenticatorはEncode時にlayeh.com/radiusが計算する。
func BuildAccessAccept(request *radius.Packet, params *AcceptParams) *radius.Packet {
	resp := request.Response(radius.CodeAccessAccept)

	if params.FramedIP != nil {
		_ = rfc2865.FramedIPAddress_Set(resp, params.FramedIP)
	}
	if params.SessionUUID != "" {
		_ = rfc2865.Class_Set(resp, []byte(params.SessionUUID))
	}
	if params.ReplyMessage != "" {
		_ = rfc2865.ReplyMessage_SetString(resp, params.ReplyMessage)
	}

	return resp
}

// BuildAccessReject はAccess-Rejectパケットを構築する。
// Reply-Messageは失敗理由によらず固定文言とする（ユーザー列挙の防止）。
func BuildAccessReject(request *radius.Packet, replyMessage string) *radius.Packet {
	resp := request.Response(radius.CodeAccessReject)
	if replyMessage != "" {
		_ = rfc2865.ReplyMessage_SetString(resp, replyMessage)
	}
	return resp
}

// BuildAccountingResponse はAccounting-Responseパケットを構築する（RFC 2866）。
func BuildAccountingResponse(request *radius.Packet) *radius.Packet {
	return request.Response(radius.CodeAccountingResponse)
}
