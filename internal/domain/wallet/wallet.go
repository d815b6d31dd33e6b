package wallet

import (
	"errors"
	"regexp"
	"time"
)

var (
	// ErrInvalidUserID ユーザーIDが無効
	ErrInvalidUserID = errors.New("invalid user id")
	// ErrBalanceOutOfRange 残高が範囲外
	ErrBalanceOutOfRange = errors.New("balance out of range")
	// ErrAmountTooLarge 金額が大きすぎる
	ErrAmountTooLarge = errors.New("amount too large")
)

const (
	// MaxAmount 最大金額 (10兆)
	MaxAmount = 10_000_000_000_000
)

var userIDRegex = regexp.MustCompile(`^[a-zA-Z0-9_\-\.\@]{1,255}$`)

// Wallet ウォレットエンティティ
// 残高は常に0以上（マイナス残高は許可しない）
type Wallet struct {
	userID        string
	walletType    WalletType
	balance       int64 // 整数値（最小通貨単位）
	lockedBalance int64 // 予約済み残高（払い出し保留など）
	version       int   // 楽観的ロック用
	updatedAt     time.Time
}

// NewWallet 新しいWalletエンティティを作成
func NewWallet(userID string, walletType WalletType, balance, lockedBalance int64, version int) (*Wallet, error) {
	if !userIDRegex.MatchString(userID) {
		return nil, ErrInvalidUserID
	}
	if !walletType.Valid() {
		return nil, ErrInvalidWalletType
	}
	if balance < 0 || balance > MaxAmount {
		return nil, ErrBalanceOutOfRange
	}
	if lockedBalance < 0 || lockedBalance > MaxAmount {
		return nil, ErrBalanceOutOfRange
	}
	return &Wallet{
		userID:        userID,
		walletType:    walletType,
		balance:       balance,
		lockedBalance: lockedBalance,
		version:       version,
		updatedAt:     time.Now(),
	}, nil
}

// UserID ユーザーIDを返す
func (w *Wallet) UserID() string {
	return w.userID
}

// WalletType ウォレットタイプを返す
func (w *Wallet) WalletType() WalletType {
	return w.walletType
}

// Balance 残高を返す
func (w *Wallet) Balance() int64 {
	return w.balance
}

// LockedBalance 予約済み残高を返す
func (w *Wallet) LockedBalance() int64 {
	return w.lockedBalance
}

// Version バージョンを返す（楽観的ロック用）
func (w *Wallet) Version() int {
	return w.version
}

// UpdatedAt 更新日時を返す
func (w *Wallet) UpdatedAt() time.Time {
	return w.updatedAt
}

// Increment 残高を加算する
func (w *Wallet) Increment(amount int64) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	if amount > MaxAmount {
		return ErrAmountTooLarge
	}
	// オーバーフローチェック
	if w.balance > MaxAmount-amount {
		return ErrBalanceOutOfRange
	}
	w.balance += amount
	w.touch()
	return nil
}

// Decrement 残高を減算する（マイナス残高は許可しない）
func (w *Wallet) Decrement(amount int64) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	if amount > MaxAmount {
		return ErrAmountTooLarge
	}
	if w.balance < amount {
		return ErrInsufficientBalance
	}
	w.balance -= amount
	w.touch()
	return nil
}

// SetBalance 残高を指定値に設定する（管理用の補正操作）
func (w *Wallet) SetBalance(target int64) error {
	if target < 0 || target > MaxAmount {
		return ErrBalanceOutOfRange
	}
	w.balance = target
	w.touch()
	return nil
}

// Reserve 残高の一部を予約済みに移す
func (w *Wallet) Reserve(amount int64) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	if w.balance < amount {
		return ErrInsufficientBalance
	}
	w.balance -= amount
	w.lockedBalance += amount
	w.touch()
	return nil
}

// Release 予約済み残高を利用可能残高に戻す
func (w *Wallet) Release(amount int64) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	if w.lockedBalance < amount {
		return ErrInsufficientBalance
	}
	w.lockedBalance -= amount
	w.balance += amount
	w.touch()
	return nil
}

func (w *Wallet) touch() {
	w.version++
	w.updatedAt = time.Now()
}

// MustNewWallet テスト用ヘルパー: NewWalletを呼び出し、エラーが発生した場合はpanicする
func MustNewWallet(userID string, walletType WalletType, balance, lockedBalance int64, version int) *Wallet {
	w, err := NewWallet(userID, walletType, balance, lockedBalance, version)
	if err != nil {
		panic(err)
	}
	return w
}
