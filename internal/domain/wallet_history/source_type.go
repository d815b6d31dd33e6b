package wallet_history

import (
	"fmt"
)

// SourceType 残高変更の操作主体を表す値オブジェクト
type SourceType string

const (
	SourceTypeUserAction  SourceType = "user_action"  // ユーザー操作
	SourceTypeAdminAction SourceType = "admin_action" // 管理者操作
	SourceTypeSystem      SourceType = "system"       // システム（決済Webhook等）
)

// NewSourceType 新しいSourceTypeを作成
func NewSourceType(s string) (SourceType, error) {
	switch s {
	case "user_action", "admin_action", "system":
		return SourceType(s), nil
	default:
		return "", fmt.Errorf("invalid source type: %s", s)
	}
}

// String 文字列表現を返す
func (st SourceType) String() string {
	return string(st)
}

// Valid 有効な操作主体かどうかを返す
func (st SourceType) Valid() bool {
	switch st {
	case SourceTypeUserAction, SourceTypeAdminAction, SourceTypeSystem:
		return true
	default:
		return false
	}
}
