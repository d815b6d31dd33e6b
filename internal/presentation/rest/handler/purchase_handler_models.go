package handler

// InitiatePurchaseRequest 購入開始リクエスト
// @Description 購入開始リクエスト
type InitiatePurchaseRequest struct {
	IdempotencyKey string `json:"idempotency_key" example:"7a1883dc-2b55-4b14-a5bb-0a6ba1a17c30"`
	WalletType     string `json:"wallet_type" example:"regular_coin" enums:"regular_coin,bonus_coin"`
	Amount         string `json:"amount" example:"1000"`
	PaymentAmount  string `json:"payment_amount" example:"900"`
	PaymentMethod  string `json:"payment_method" example:"credit_card"`
	Provider       string `json:"provider,omitempty" example:"dummy"`
}

// InitiatePurchaseResponse 購入開始レスポンス
// @Description 購入開始レスポンス
type InitiatePurchaseResponse struct {
	RequestID         string `json:"request_id" example:"a1b2c3d4-e5f6-7890-abcd-ef1234567890"`
	Status            string `json:"status" example:"processing"`
	RedirectURL       string `json:"redirect_url,omitempty" example:"http://localhost:8080/checkout/sess-1"`
	AlreadyProcessing bool   `json:"already_processing" example:"false"`
	AlreadyCompleted  bool   `json:"already_completed" example:"false"`
}

// PurchaseStatusResponse 購入ステータスレスポンス
// @Description 購入ステータスレスポンス
type PurchaseStatusResponse struct {
	RequestID     string  `json:"request_id"`
	UserID        string  `json:"user_id" example:"user123"`
	WalletType    string  `json:"wallet_type" example:"regular_coin"`
	Amount        string  `json:"amount" example:"1000"`
	PaymentAmount string  `json:"payment_amount" example:"900"`
	PaymentMethod string  `json:"payment_method" example:"credit_card"`
	Status        string  `json:"status" example:"completed"`
	RedirectURL   *string `json:"redirect_url,omitempty"`
	CompletedAt   *string `json:"completed_at,omitempty" example:"2026-08-28T12:00:00Z"`
	ErrorCode     *string `json:"error_code,omitempty"`
	ErrorMessage  *string `json:"error_message,omitempty"`
	CreatedAt     string  `json:"created_at" example:"2026-08-28T11:55:00Z"`
}

// WebhookResponse Webhook受信レスポンス
// @Description Webhook受信レスポンス
type WebhookResponse struct {
	Received bool   `json:"received" example:"true"`
	Result   string `json:"result,omitempty" example:"completed"`
}
