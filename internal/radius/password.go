package radius

import (
	"bytes"
	"crypto/md5"
	"crypto/subtle"
	"errors"
)

// User-Password復号エラー
var (
	// ErrInvalidPasswordLength はUser-Password属性長が不正な場合のエラー
	ErrInvalidPasswordLength = errors.New("invalid User-Password attribute length")
)

// DecryptUserPassword はUser-Password属性を復号する（RFC 2865 §5.2）。
// 鍵ストリームは MD5(secret + Request Authenticator) を初項とし、以降は
// MD5(secret + 直前の暗号ブロック) を16バイト単位で生成、暗号文とXORする。
func DecryptUserPassword(enc []byte, secret []byte, requestAuth [16]byte) (string, error) {
	if len(enc) == 0 || len(enc)%16 != 0 || len(enc) > 128 {
		return "", ErrInvalidPasswordLength
	}

	plain := make([]byte, len(enc))
	prev := requestAuth[:]
	for off := 0; off < len(enc); off += 16 {
		h := md5.New()
		h.Write(secret)
		h.Write(prev)
		block := h.Sum(nil)
		for i := 0; i < 16; i++ {
			plain[off+i] = enc[off+i] ^ block[i]
		}
		prev = enc[off : off+16]
	}

	// パディングのNULを除去
	if i := bytes.IndexByte(plain, 0); i >= 0 {
		plain = plain[:i]
	}
	return string(plain), nil
}

// VerifyCHAP はCHAP-Password属性を検証する（RFC 2865 §2.2）。
// chapPasswordはIdent(1バイト) + CHAP応答(16バイト)。
// challengeが空の場合はRequest Authenticatorをチャレンジとして使用する。
// 検証式: 応答 = MD5(Ident + 平文パスワード + チャレンジ)
func VerifyCHAP(chapPassword, challenge []byte, requestAuth [16]byte, password string) bool {
	if len(chapPassword) != 17 {
		return false
	}
	if len(challenge) == 0 {
		challenge = requestAuth[:]
	}

	h := md5.New()
	h.Write(chapPassword[:1])
	h.Write([]byte(password))
	h.Write(challenge)
	expected := h.Sum(nil)

	return subtle.ConstantTimeCompare(chapPassword[1:], expected) == 1
}
