package radius

import (
	"crypto/md5"
	"errors"
	"testing"

	"layeh.com/radius"
	"layeh.com/radius/rfc2865"
)

// encryptedUserPassword はrfc2865のセッターで暗号化し、属性の生バイトを返す
func encryptedUserPassword(t *testing.T, password string) ([]byte, [16]byte) {
	t.Helper()
	p := radius.New(radius.CodeAccessRequest, testSecret)
	if err := rfc2865.UserPassword_SetString(p, password); err != nil {
		t.Fatalf("UserPassword_SetString failed: %v", err)
	}
	enc, ok := GetAttribute(p, radius.Type(AttrTypeUserPassword))
	if !ok {
		t.Fatal("User-Password attribute missing after set")
	}
	return enc, p.Authenticator
}

func TestDecryptUserPassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
	}{
		{"short", "pw"},
		{"exact 16 bytes", "0123456789abcdef"},
		{"multi block", "a-password-longer-than-sixteen-bytes"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			enc, auth := encryptedUserPassword(t, tt.password)

			got, err := DecryptUserPassword(enc, testSecret, auth)
			if err != nil {
				t.Fatalf("DecryptUserPassword failed: %v", err)
			}
			if got != tt.password {
				t.Errorf("decrypted = %q, want %q", got, tt.password)
			}
		})
	}
}

func TestDecryptUserPasswordWrongSecret(t *testing.T) {
	enc, auth := encryptedUserPassword(t, "alicepw")

	got, err := DecryptUserPassword(enc, []byte("othersecret"), auth)
	if err != nil {
		t.Fatalf("DecryptUserPassword failed: %v", err)
	}
	if got == "alicepw" {
		t.Error("wrong secret produced original password")
	}
}

func TestDecryptUserPasswordInvalidLength(t *testing.T) {
	var auth [16]byte

	for _, enc := range [][]byte{nil, make([]byte, 15), make([]byte, 17), make([]byte, 144)} {
		if _, err := DecryptUserPassword(enc, testSecret, auth); !errors.Is(err, ErrInvalidPasswordLength) {
			t.Errorf("len %d: error = %v, want ErrInvalidPasswordLength", len(enc), err)
		}
	}
}

// buildCHAPPassword はIdent + MD5(Ident + password + challenge)を構築する
func buildCHAPPassword(ident byte, password string, challenge []byte) []byte {
	h := md5.New()
	h.Write([]byte{ident})
	h.Write([]byte(password))
	h.Write(challenge)
	return append([]byte{ident}, h.Sum(nil)...)
}

func TestVerifyCHAP(t *testing.T) {
	challenge := []byte("challenge-bytes-")
	var requestAuth [16]byte
	copy(requestAuth[:], "request-auth-16b")

	chap := buildCHAPPassword(0x42, "alicepw", challenge)
	if !VerifyCHAP(chap, challenge, requestAuth, "alicepw") {
		t.Error("VerifyCHAP = false, want true")
	}
	if VerifyCHAP(chap, challenge, requestAuth, "wrongpw") {
		t.Error("VerifyCHAP accepted wrong password")
	}
}

func TestVerifyCHAPImplicitChallenge(t *testing.T) {
	// CHAP-Challenge属性がない場合はRequest Authenticatorがチャレンジになる
	var requestAuth [16]byte
	copy(requestAuth[:], "request-auth-16b")

	chap := buildCHAPPassword(0x01, "alicepw", requestAuth[:])
	if !VerifyCHAP(chap, nil, requestAuth, "alicepw") {
		t.Error("VerifyCHAP with implicit challenge = false, want true")
	}
}

func TestVerifyCHAPInvalidLength(t *testing.T) {
	var requestAuth [16]byte
	if VerifyCHAP(make([]byte, 16), nil, requestAuth, "alicepw") {
		t.Error("VerifyCHAP accepted 16-byte attribute, want 17")
	}
}
