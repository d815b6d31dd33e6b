package purchase

import (
	"net/http"
	"time"
)

// InitiateRequest 購入開始リクエスト
type InitiateRequest struct {
	UserID         string
	IdempotencyKey string
	WalletType     string // "regular_coin" or "bonus_coin"
	Amount         int64  // 付与されるポイント数
	PaymentAmount  int64  // 決済金額（通貨の最小単位）
	PaymentMethod  string
	ProviderName   string // 空の場合はデフォルトプロバイダ
}

// InitiateResponse 購入開始レスポンス
type InitiateResponse struct {
	RequestID         string
	Status            string
	RedirectURL       string
	AlreadyProcessing bool // 同じ冪等性キーのリクエストが進行中
	AlreadyCompleted  bool // 同じ冪等性キーのリクエストが完了済み
}

// WebhookRequest 決済プロバイダからのWebhookリクエスト
type WebhookRequest struct {
	ProviderName string
	Header       http.Header
	Body         []byte
}

// WebhookResponse Webhook処理結果
type WebhookResponse struct {
	Received  bool
	RequestID string
	Result    string // "completed", "failed", "duplicate", "ignored"
}

// GetStatusRequest ステータス取得リクエスト
type GetStatusRequest struct {
	RequestID string
	UserID    string
	IsAdmin   bool
}

// GetStatusResponse ステータス取得レスポンス
type GetStatusResponse struct {
	RequestID     string
	UserID        string
	WalletType    string
	Amount        int64
	PaymentAmount int64
	PaymentMethod string
	Status        string
	RedirectURL   *string
	CompletedAt   *time.Time
	ErrorCode     *string
	ErrorMessage  *string
	CreatedAt     time.Time
}
