package handler

// BatchSummaryItem バッチ単位の履歴サマリ
// @Description バッチ単位の履歴サマリ
type BatchSummaryItem struct {
	BatchID       string   `json:"batch_id" example:"batch-2026-08"`
	StartedAt     string   `json:"started_at" example:"2026-08-28T12:00:00Z"`
	CompletedAt   string   `json:"completed_at" example:"2026-08-28T12:00:05Z"`
	BalanceBefore string   `json:"balance_before" example:"0"`
	BalanceAfter  string   `json:"balance_after" example:"100"`
	TotalDelta    string   `json:"total_delta" example:"100"`
	ChangeMethods []string `json:"change_methods" example:"increment,decrement"`
	SourceTypes   []string `json:"source_types" example:"admin_action"`
	EntryCount    int      `json:"entry_count" example:"3"`
}

// ListBatchSummariesResponse バッチサマリ一覧レスポンス
// @Description バッチサマリ一覧レスポンス
type ListBatchSummariesResponse struct {
	Items []BatchSummaryItem `json:"items"`
	Total int                `json:"total" example:"1"`
	Limit int                `json:"limit" example:"20"`
	Page  int                `json:"page" example:"1"`
}
