package acct

import "errors"

var (
	// ErrUnknownStatusType は未知のAcct-Status-Typeの場合のエラー
	ErrUnknownStatusType = errors.New("unknown Acct-Status-Type")
)
