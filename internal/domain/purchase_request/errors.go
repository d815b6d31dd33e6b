package purchase_request

import "errors"

var (
	// ErrPurchaseRequestNotFound 購入リクエストが見つからないエラー
	ErrPurchaseRequestNotFound = errors.New("purchase request not found")
	// ErrInvalidPurchaseRequest 無効な購入リクエストエラー
	ErrInvalidPurchaseRequest = errors.New("invalid purchase request")
	// ErrInvalidStatusTransition 無効なステータス遷移エラー
	ErrInvalidStatusTransition = errors.New("invalid status transition")
	// ErrDuplicateIdempotencyKey 冪等性キーの重複エラー
	ErrDuplicateIdempotencyKey = errors.New("duplicate idempotency key")
	// ErrIdempotencyKeyUsed 冪等性キーが終端状態のリクエストで使用済みエラー
	ErrIdempotencyKeyUsed = errors.New("idempotency key already used by a terminal request")
	// ErrAlreadyFinalized 対象リクエストが既に終端状態エラー
	ErrAlreadyFinalized = errors.New("purchase request already finalized")
)
