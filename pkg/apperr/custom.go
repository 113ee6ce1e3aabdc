package apperr

import "fmt"

// NakError はNASからのNAK応答を表す。
// RFC 5176のError-Cause属性値を保持する。
type NakError struct {
	Code       uint8  // 応答コード（Disconnect-NAK=42, CoA-NAK=45）
	ErrorCause uint32 // Error-Cause属性値（0なら属性なし）
}

// Error はerrorインターフェースを実装する。
func (e *NakError) Error() string {
	if e.ErrorCause != 0 {
		return fmt.Sprintf("%v: code=%d, error_cause=%d", ErrCoANak, e.Code, e.ErrorCause)
	}
	return fmt.Sprintf("%v: code=%d", ErrCoANak, e.Code)
}

// Unwrap はErrCoANakを返し、errors.Isでの判定を可能にする。
func (e *NakError) Unwrap() error {
	return ErrCoANak
}

// NewNakError はNakErrorを生成する。
func NewNakError(code uint8, errorCause uint32) *NakError {
	return &NakError{Code: code, ErrorCause: errorCause}
}

// MalformedError は破棄理由を保持するパケット不正エラー。
type MalformedError struct {
	Reason string // 破棄理由
}

// Error はerrorインターフェースを実装する。
func (e *MalformedError) Error() string {
	return fmt.Sprintf("%v: %s", ErrMalformedPacket, e.Reason)
}

// Unwrap はErrMalformedPacketを返す。
func (e *MalformedError) Unwrap() error {
	return ErrMalformedPacket
}

// NewMalformedError はMalformedErrorを生成する。
func NewMalformedError(reason string) *MalformedError {
	return &MalformedError{Reason: reason}
}
