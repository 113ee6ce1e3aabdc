package radius

import (
	"crypto/md5"
	"crypto/subtle"

	"layeh.com/radius"
)

// VerifyRequestAuthenticator はAccounting-RequestおよびCoA/Disconnect-Requestの
// Request Authenticatorを検証する（RFC 2866 §3 / RFC 5176 §2.3）。
// 検証式: Authenticator = MD5(Code + ID + Length + 16 zero octets + Attributes + Secret)
func VerifyRequestAuthenticator(packet *radius.Packet, secret []byte) bool {
	data, err := packet.MarshalBinary()
	if err != nil {
		return false
	}
	if len(data) < headerLength {
		return false
	}

	var origAuth [16]byte
	copy(origAuth[:], data[4:20])

	// Authenticatorフィールドを16個のゼロバイトに置換
	copy(data[4:20], make([]byte, 16))

	h := md5.New()
	h.Write(data)
	h.Write(secret)
	expected := h.Sum(nil)

	return subtle.ConstantTimeCompare(origAuth[:], expected) == 1
}

// ResponseAuthenticator は応答パケットのResponse Authenticatorを計算する。
// 計算式: MD5(Code + ID + Length + Request Authenticator + Attributes + Secret)
// （RFC 2865 §3）。ここでのMD5使用はワイヤフォーマット互換のためのプロトコル
// 要件であり、セキュリティ強度の設計選択ではない。
// wireは[4:20]の内容を問わないエンコード済み応答パケット。
func ResponseAuthenticator(wire []byte, requestAuth [16]byte, secret []byte) [16]byte {
	var out [16]byte
	if len(wire) < headerLength {
		return out
	}
	h := md5.New()
	h.Write(wire[:4])
	h.Write(requestAuth[:])
	h.Write(wire[20:])
	h.Write(secret)
	copy(out[:], h.Sum(nil))
	return out
}

// VerifyResponseAuthenticator は受信した応答（ACK/NAK等）のAuthenticatorを
// 送信時のRequest Authenticatorに対して検証する。
func VerifyResponseAuthenticator(wire []byte, requestAuth [16]byte, secret []byte) bool {
	if len(wire) < headerLength {
		return false
	}
	expected := ResponseAuthenticator(wire, requestAuth, secret)
	return subtle.ConstantTimeCompare(wire[4:20], expected[:]) == 1
}
