package purchase

import "errors"

var (
	// ErrProviderTimeout 決済プロバイダのセッション作成がタイムアウトしたエラー
	// リクエストはpendingのままなので、同じ冪等性キーで再試行できる
	ErrProviderTimeout = errors.New("payment provider timed out")
	// ErrProviderFailure 決済プロバイダがセッション作成に失敗したエラー
	ErrProviderFailure = errors.New("payment provider failure")
	// ErrForbidden 他ユーザーの購入リクエストへのアクセスエラー
	ErrForbidden = errors.New("access to this purchase request is forbidden")
)
