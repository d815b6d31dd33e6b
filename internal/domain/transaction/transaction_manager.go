package transaction

import "context"

// TransactionManager はトランザクション管理のインターフェース
// fn に渡される context はトランザクションを保持しており、同じ context を
// 使ったリポジトリ操作は同一トランザクション内で実行される。
// fn がエラーを返した場合はロールバック、nil を返した場合はコミットする。
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
