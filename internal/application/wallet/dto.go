package wallet

// GetBalanceRequest 残高取得リクエスト
type GetBalanceRequest struct {
	UserID string
}

// GetBalanceResponse 残高取得レスポンス
type GetBalanceResponse struct {
	UserID   string
	Balances map[string]int64 // "regular_coin" => 1000, "bonus_coin" => 500
	Total    int64
}

// AdjustBalanceRequest 残高調整リクエスト
type AdjustBalanceRequest struct {
	UserID         string
	WalletType     string // "regular_coin" or "bonus_coin"
	ChangeMethod   string // "increment", "decrement", "set"
	Amount         int64  // SETの場合は設定先残高
	SourceType     string // "user_action", "admin_action", "system"
	RequestBatchID *string
	Reason         string
	Meta           map[string]interface{}
}

// AdjustBalanceResponse 残高調整レスポンス
type AdjustBalanceResponse struct {
	EntryID       string
	UserID        string
	WalletType    string
	BalanceBefore int64
	BalanceAfter  int64
}
