package wallet_history

import (
	"errors"
	"regexp"
	"time"

	"wallet-server/internal/domain/wallet"
)

var (
	// ErrInvalidEntryID エントリIDが無効
	ErrInvalidEntryID = errors.New("invalid entry id")
	// ErrInvalidUserID ユーザーIDが無効
	ErrInvalidUserID = errors.New("invalid user id")
	// ErrInvalidPointsDelta 変動量が無効
	ErrInvalidPointsDelta = errors.New("invalid points delta")
	// ErrBalanceOutOfRange 残高が範囲外
	ErrBalanceOutOfRange = errors.New("balance out of range")
)

var (
	idRegex     = regexp.MustCompile(`^[a-zA-Z0-9_\-\.\@]{1,255}$`)
	userIDRegex = regexp.MustCompile(`^[a-zA-Z0-9_\-\.\@]{1,255}$`)
)

// Entry ウォレット履歴エントリ（台帳の1行、追記のみで更新されない）
// balanceAfterは適用直後のウォレット残高と常に一致する
type Entry struct {
	entryID        string
	userID         string
	walletType     wallet.WalletType
	changeMethod   ChangeMethod
	pointsDelta    int64 // 変動量の絶対値（SETの場合は設定先残高）
	balanceBefore  int64
	balanceAfter   int64
	sourceType     SourceType
	requestBatchID *string // 1つの論理操作に属する複数エントリの相関ID
	reason         string
	meta           map[string]interface{}
	createdAt      time.Time
}

// NewEntry 新しい履歴エントリを作成
func NewEntry(
	entryID string,
	userID string,
	walletType wallet.WalletType,
	changeMethod ChangeMethod,
	pointsDelta int64,
	balanceBefore int64,
	balanceAfter int64,
	sourceType SourceType,
	requestBatchID *string,
	reason string,
	meta map[string]interface{},
) (*Entry, error) {
	return Reconstruct(
		entryID, userID, walletType, changeMethod, pointsDelta,
		balanceBefore, balanceAfter, sourceType, requestBatchID, reason, meta,
		time.Now(),
	)
}

// Reconstruct 永続化済みデータから履歴エントリを再構築（createdAtを保持する）
func Reconstruct(
	entryID string,
	userID string,
	walletType wallet.WalletType,
	changeMethod ChangeMethod,
	pointsDelta int64,
	balanceBefore int64,
	balanceAfter int64,
	sourceType SourceType,
	requestBatchID *string,
	reason string,
	meta map[string]interface{},
	createdAt time.Time,
) (*Entry, error) {
	if !idRegex.MatchString(entryID) {
		return nil, ErrInvalidEntryID
	}
	if !userIDRegex.MatchString(userID) {
		return nil, ErrInvalidUserID
	}
	if !changeMethod.Valid() {
		return nil, ErrInvalidChangeMethod
	}
	if !sourceType.Valid() {
		return nil, ErrInvalidSourceType
	}
	if pointsDelta < 0 || pointsDelta > wallet.MaxAmount {
		return nil, ErrInvalidPointsDelta
	}
	if balanceBefore < 0 || balanceBefore > wallet.MaxAmount {
		return nil, ErrBalanceOutOfRange
	}
	if balanceAfter < 0 || balanceAfter > wallet.MaxAmount {
		return nil, ErrBalanceOutOfRange
	}

	return &Entry{
		entryID:        entryID,
		userID:         userID,
		walletType:     walletType,
		changeMethod:   changeMethod,
		pointsDelta:    pointsDelta,
		balanceBefore:  balanceBefore,
		balanceAfter:   balanceAfter,
		sourceType:     sourceType,
		requestBatchID: requestBatchID,
		reason:         reason,
		meta:           meta,
		createdAt:      createdAt,
	}, nil
}

// EntryID エントリIDを返す
func (e *Entry) EntryID() string {
	return e.entryID
}

// UserID ユーザーIDを返す
func (e *Entry) UserID() string {
	return e.userID
}

// WalletType ウォレットタイプを返す
func (e *Entry) WalletType() wallet.WalletType {
	return e.walletType
}

// ChangeMethod 変更メソッドを返す
func (e *Entry) ChangeMethod() ChangeMethod {
	return e.changeMethod
}

// PointsDelta 変動量（絶対値）を返す
func (e *Entry) PointsDelta() int64 {
	return e.pointsDelta
}

// BalanceBefore 適用前の残高を返す
func (e *Entry) BalanceBefore() int64 {
	return e.balanceBefore
}

// BalanceAfter 適用後の残高を返す
func (e *Entry) BalanceAfter() int64 {
	return e.balanceAfter
}

// SourceType 操作主体を返す
func (e *Entry) SourceType() SourceType {
	return e.sourceType
}

// RequestBatchID バッチ相関IDを返す
func (e *Entry) RequestBatchID() *string {
	return e.requestBatchID
}

// Reason 理由を返す
func (e *Entry) Reason() string {
	return e.reason
}

// Meta メタデータを返す
func (e *Entry) Meta() map[string]interface{} {
	return e.meta
}

// CreatedAt 作成日時を返す
func (e *Entry) CreatedAt() time.Time {
	return e.createdAt
}

// SignedDelta 符号付きの残高変動を返す
// INCREMENTは+delta、DECREMENTは-delta、SETはbalanceAfter-balanceBefore
func (e *Entry) SignedDelta() int64 {
	switch e.changeMethod {
	case ChangeMethodIncrement:
		return e.pointsDelta
	case ChangeMethodDecrement:
		return -e.pointsDelta
	case ChangeMethodSet:
		return e.balanceAfter - e.balanceBefore
	default:
		return 0
	}
}

// BatchKey グルーピング用のキーを返す（バッチIDがない場合は自身のIDで単独バッチになる）
func (e *Entry) BatchKey() string {
	if e.requestBatchID != nil && *e.requestBatchID != "" {
		return *e.requestBatchID
	}
	return e.entryID
}

// MustNewEntry テスト用ヘルパー: NewEntryを呼び出し、エラーが発生した場合はpanicする
func MustNewEntry(
	entryID string,
	userID string,
	walletType wallet.WalletType,
	changeMethod ChangeMethod,
	pointsDelta int64,
	balanceBefore int64,
	balanceAfter int64,
	sourceType SourceType,
	requestBatchID *string,
	reason string,
	meta map[string]interface{},
) *Entry {
	e, err := NewEntry(entryID, userID, walletType, changeMethod, pointsDelta, balanceBefore, balanceAfter, sourceType, requestBatchID, reason, meta)
	if err != nil {
		panic(err)
	}
	return e
}
