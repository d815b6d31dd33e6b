package wallet

import "errors"

var (
	// ErrInsufficientBalance 残高不足エラー
	ErrInsufficientBalance = errors.New("insufficient balance")
	// ErrInvalidAmount 無効な金額エラー
	ErrInvalidAmount = errors.New("invalid amount")
	// ErrInvalidWalletType 無効なウォレットタイプエラー
	ErrInvalidWalletType = errors.New("invalid wallet type")
	// ErrWalletNotFound ウォレットが見つからないエラー
	ErrWalletNotFound = errors.New("wallet not found")
	// ErrVersionConflict 楽観的ロックの競合エラー
	ErrVersionConflict = errors.New("wallet version conflict")
)
