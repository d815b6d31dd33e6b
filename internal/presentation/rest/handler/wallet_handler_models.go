package handler

// BalanceItem ウォレットタイプ別の残高
// @Description ウォレットタイプ別の残高
type BalanceItem struct {
	RegularCoin string `json:"regular_coin" example:"1000"`
	BonusCoin   string `json:"bonus_coin" example:"500"`
}

// BalanceResponse 残高レスポンス
// @Description 残高レスポンス
type BalanceResponse struct {
	UserID   string      `json:"user_id" example:"user123"`
	Balances BalanceItem `json:"balances"`
	Total    string      `json:"total" example:"1500"`
}

// AdjustBalanceRequest 残高調整リクエスト
// @Description 残高調整リクエスト
type AdjustBalanceRequest struct {
	WalletType     string                 `json:"wallet_type" example:"regular_coin" enums:"regular_coin,bonus_coin"`
	ChangeMethod   string                 `json:"change_method" example:"increment" enums:"increment,decrement,set"`
	Amount         string                 `json:"amount" example:"100"`
	Reason         string                 `json:"reason" example:"キャンペーン付与"`
	RequestBatchID *string                `json:"request_batch_id,omitempty" example:"batch-2026-08"`
	Meta           map[string]interface{} `json:"meta,omitempty"`
}

// AdjustBalanceResponse 残高調整レスポンス
// @Description 残高調整レスポンス
type AdjustBalanceResponse struct {
	EntryID       string `json:"entry_id" example:"a1b2c3d4-e5f6-7890-abcd-ef1234567890"`
	UserID        string `json:"user_id" example:"user123"`
	WalletType    string `json:"wallet_type" example:"regular_coin"`
	BalanceBefore string `json:"balance_before" example:"1000"`
	BalanceAfter  string `json:"balance_after" example:"1100"`
}
