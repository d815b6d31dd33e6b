package purchase_request

import (
	"context"
	"time"
)

// PurchaseRequestRepository 購入リクエストリポジトリインターフェース
type PurchaseRequestRepository interface {
	// Create 新しい購入リクエストを作成
	// 冪等性キーが既に存在する場合はErrDuplicateIdempotencyKeyを返す
	Create(ctx context.Context, pr *PurchaseRequest) error

	// Update 購入リクエストを更新
	Update(ctx context.Context, pr *PurchaseRequest) error

	// FindByRequestID リクエストIDで購入リクエストを取得
	FindByRequestID(ctx context.Context, requestID string) (*PurchaseRequest, error)

	// FindByIdempotencyKey 冪等性キーで購入リクエストを取得
	FindByIdempotencyKey(ctx context.Context, idempotencyKey string) (*PurchaseRequest, error)

	// FindByProviderSessionID プロバイダセッションIDで購入リクエストを取得
	FindByProviderSessionID(ctx context.Context, sessionID string) (*PurchaseRequest, error)

	// MarkExpiredBefore 指定時刻より前に作成されたpending/processingのリクエストを
	// expiredに遷移させ、更新件数を返す（ウォレットには一切触れない）
	MarkExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error)
}
