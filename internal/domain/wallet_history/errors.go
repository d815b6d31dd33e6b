package wallet_history

import "errors"

var (
	// ErrEntryNotFound 履歴エントリが見つからないエラー
	ErrEntryNotFound = errors.New("wallet history entry not found")
	// ErrInvalidChangeMethod 無効な変更メソッドエラー
	ErrInvalidChangeMethod = errors.New("invalid change method")
	// ErrInvalidSourceType 無効な操作主体エラー
	ErrInvalidSourceType = errors.New("invalid source type")
	// ErrDuplicateEntryID 重複エントリIDエラー
	ErrDuplicateEntryID = errors.New("duplicate entry id")
)
