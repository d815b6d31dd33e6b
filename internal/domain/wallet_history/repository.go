package wallet_history

import (
	"context"
)

// EntryRepository ウォレット履歴リポジトリインターフェース
// 台帳は追記のみ: 更新・削除のメソッドは存在しない
type EntryRepository interface {
	// Save 履歴エントリを保存（INSERTのみ）
	Save(ctx context.Context, entry *Entry) error

	// FindByUserID ユーザーIDで履歴エントリ一覧を取得（created_at昇順）
	FindByUserID(ctx context.Context, userID string) ([]*Entry, error)

	// FindByBatchID バッチ相関IDで履歴エントリ一覧を取得（created_at昇順）
	FindByBatchID(ctx context.Context, batchID string) ([]*Entry, error)
}
