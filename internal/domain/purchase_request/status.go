package purchase_request

import (
	"fmt"
)

// Status 購入リクエストのステータスを表す値オブジェクト
type Status string

const (
	StatusPending    Status = "pending"    // 作成済み、プロバイダセッション未作成
	StatusProcessing Status = "processing" // プロバイダセッション作成済み、決済待ち
	StatusCompleted  Status = "completed"  // 決済成功、ウォレット加算適用済み
	StatusFailed     Status = "failed"     // 決済失敗
	StatusExpired    Status = "expired"    // 時間切れ
)

// NewStatus 新しいStatusを作成
func NewStatus(s string) (Status, error) {
	switch s {
	case "pending", "processing", "completed", "failed", "expired":
		return Status(s), nil
	default:
		return "", fmt.Errorf("invalid purchase request status: %s", s)
	}
}

// String 文字列表現を返す
func (s Status) String() string {
	return string(s)
}

// Valid 有効なステータスかどうかを返す
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusCompleted, StatusFailed, StatusExpired:
		return true
	default:
		return false
	}
}

// IsTerminal 終端状態（以後一切遷移しない）かどうかを返す
func (s Status) IsTerminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusExpired:
		return true
	default:
		return false
	}
}

// IsCompleted 完了状態かどうかを返す
func (s Status) IsCompleted() bool {
	return s == StatusCompleted
}
