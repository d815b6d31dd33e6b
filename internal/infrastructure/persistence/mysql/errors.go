package mysql

import (
	"errors"

	"github.com/go-sql-driver/mysql"
)

// mysqlErrDuplicateEntry MySQLの一意制約違反エラーコード
const mysqlErrDuplicateEntry = 1062

// isDuplicateKeyError 一意制約違反かどうかを判定
func isDuplicateKeyError(err error) bool {
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		return mysqlErr.Number == mysqlErrDuplicateEntry
	}
	return false
}
