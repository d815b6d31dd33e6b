package history

import "time"

// ListBatchSummariesRequest バッチサマリ一覧取得リクエスト
type ListBatchSummariesRequest struct {
	UserID string
	Limit  int // デフォルト20、最大100
	Page   int // 1始まり
}

// BatchSummary バッチ単位の履歴サマリ
// requestBatchIDを持たないエントリは自身のIDで単独バッチとして扱う
type BatchSummary struct {
	BatchID       string
	StartedAt     time.Time
	CompletedAt   time.Time
	BalanceBefore int64
	BalanceAfter  int64
	TotalDelta    int64
	ChangeMethods []string
	SourceTypes   []string
	EntryCount    int
}

// ListBatchSummariesResponse バッチサマリ一覧取得レスポンス
type ListBatchSummariesResponse struct {
	Items []*BatchSummary
	Total int // グルーピング後の総バッチ数
	Limit int
	Page  int
}
