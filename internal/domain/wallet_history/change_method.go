package wallet_history

import (
	"fmt"
)

// ChangeMethod 残高の変更メソッドを表す値オブジェクト
type ChangeMethod string

const (
	ChangeMethodIncrement ChangeMethod = "increment" // 加算
	ChangeMethodDecrement ChangeMethod = "decrement" // 減算
	ChangeMethodSet       ChangeMethod = "set"       // 指定値に設定
)

// NewChangeMethod 新しいChangeMethodを作成
func NewChangeMethod(s string) (ChangeMethod, error) {
	switch s {
	case "increment", "decrement", "set":
		return ChangeMethod(s), nil
	default:
		return "", fmt.Errorf("invalid change method: %s", s)
	}
}

// String 文字列表現を返す
func (cm ChangeMethod) String() string {
	return string(cm)
}

// Valid 有効な変更メソッドかどうかを返す
func (cm ChangeMethod) Valid() bool {
	switch cm {
	case ChangeMethodIncrement, ChangeMethodDecrement, ChangeMethodSet:
		return true
	default:
		return false
	}
}
