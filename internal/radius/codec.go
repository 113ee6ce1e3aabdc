// Package radius はRADIUSワイヤフォーマットの検証・属性抽出・
// Authenticator計算を提供する。
package radius

import (
	"encoding/binary"
	"fmt"

	"github.com/oyaguma3/subscriber-radius/pkg/apperr"
	"layeh.com/radius"
)

const (
	// headerLength はRADIUSヘッダ長（Code+Identifier+Length+Authenticator）
	headerLength = 20
	// maxPacketLength はRFC 2865 §3の最大パケット長
	maxPacketLength = 4096
)

// recognizedCodes は処理対象のRADIUSコード（RFC 2865/2866/5176）
var recognizedCodes = map[radius.Code]struct{}{
	radius.CodeAccessRequest:      {},
	radius.CodeAccessAccept:       {},
	radius.CodeAccessReject:       {},
	radius.CodeAccessChallenge:    {},
	radius.CodeAccountingRequest:  {},
	radius.CodeAccountingResponse: {},
	radius.CodeDisconnectRequest:  {},
	radius.CodeDisconnectACK:      {},
	radius.CodeDisconnectNAK:      {},
	radius.CodeCoARequest:         {},
	radius.CodeCoAACK:             {},
	radius.CodeCoANAK:             {},
}

// Parse はワイヤフォーマットを検証してパケットを復元する。
// 次の場合はapperr.ErrMalformedPacketにラップしたエラーを返す:
//   - バッファがヘッダ長未満
//   - Lengthフィールドとバッファ長の不一致
//   - 属性の長さバイトが2未満、または属性がバッファを超過
//   - 未知のCode
//
// 不正パケットには決して応答してはならない（増幅攻撃の防止）。
// 破棄とログ出力は呼び出し側の責務。
func Parse(buf []byte, secret []byte) (*radius.Packet, error) {
	if len(buf) < headerLength {
		return nil, apperr.NewMalformedError(fmt.Sprintf("packet too short: %d bytes", len(buf)))
	}

	declared := int(binary.BigEndian.Uint16(buf[2:4]))
	if declared < headerLength || declared > maxPacketLength {
		return nil, apperr.NewMalformedError(fmt.Sprintf("invalid length field: %d", declared))
	}
	if declared != len(buf) {
		return nil, apperr.NewMalformedError(
			fmt.Sprintf("length field %d disagrees with buffer length %d", declared, len(buf)))
	}

	if _, ok := recognizedCodes[radius.Code(buf[0])]; !ok {
		return nil, apperr.NewMalformedError(fmt.Sprintf("unrecognized code: %d", buf[0]))
	}

	// 属性領域の境界検証
	offset := headerLength
	for offset < declared {
		if declared-offset < 2 {
			return nil, apperr.NewMalformedError("truncated attribute header")
		}
		attrLen := int(buf[offset+1])
		if attrLen < 2 {
			return nil, apperr.NewMalformedError(fmt.Sprintf("attribute length %d below minimum", attrLen))
		}
		if offset+attrLen > declared {
			return nil, apperr.NewMalformedError("attribute overruns packet")
		}
		offset += attrLen
	}

	p, err := radius.Parse(buf, secret)
	if err != nil {
		return nil, apperr.NewMalformedError(err.Error())
	}
	return p, nil
}

// GetAttribute は最初に一致した属性値を返す。
// 属性の並びはワイヤ上の順序を保持している。
func GetAttribute(p *radius.Packet, t radius.Type) ([]byte, bool) {
	for _, avp := range p.Attributes {
		if avp.Type == t {
			return avp.Attribute, true
		}
	}
	return nil, false
}

// GetAttributes は一致した属性値すべてをワイヤ上の順序で返す。
func GetAttributes(p *radius.Packet, t radius.Type) [][]byte {
	var out [][]byte
	for _, avp := range p.Attributes {
		if avp.Type == t {
			out = append(out, avp.Attribute)
		}
	}
	return out
}
