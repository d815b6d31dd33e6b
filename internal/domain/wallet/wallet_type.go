package wallet

import (
	"fmt"
)

// WalletType ウォレットタイプを表す値オブジェクト
type WalletType string

const (
	WalletTypeRegularCoin WalletType = "regular_coin" // 通常コイン（購入で付与）
	WalletTypeBonusCoin   WalletType = "bonus_coin"   // ボーナスコイン（キャンペーン等で付与）
)

// NewWalletType 新しいWalletTypeを作成
func NewWalletType(s string) (WalletType, error) {
	switch s {
	case "regular_coin", "bonus_coin":
		return WalletType(s), nil
	default:
		return "", fmt.Errorf("%w: %s", ErrInvalidWalletType, s)
	}
}

// String 文字列表現を返す
func (wt WalletType) String() string {
	return string(wt)
}

// Valid 有効なウォレットタイプかどうかを返す
func (wt WalletType) Valid() bool {
	return wt == WalletTypeRegularCoin || wt == WalletTypeBonusCoin
}

// AllWalletTypes すべてのウォレットタイプを返す
func AllWalletTypes() []WalletType {
	return []WalletType{WalletTypeRegularCoin, WalletTypeBonusCoin}
}
