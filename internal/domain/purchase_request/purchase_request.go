package purchase_request

import (
	"time"

	"wallet-server/internal/domain/wallet"
)

// PurchaseRequest 購入リクエストエンティティ
// idempotencyKeyごとに最大1件しか存在しない。statusがcompletedになった時点で
// 対応するウォレット加算はちょうど1回適用済みであり、二度と再適用されない。
// 監査・紛争対応のため行は削除されない。
type PurchaseRequest struct {
	requestID         string
	idempotencyKey    string
	userID            string
	walletType        wallet.WalletType
	amount            int64 // 付与されるポイント数
	paymentAmount     int64 // 決済金額（通貨の最小単位）
	paymentMethod     string
	status            Status
	providerName      string
	providerSessionID *string
	redirectURL       *string
	completedAt       *time.Time
	errorCode         *string
	errorMessage      *string
	createdAt         time.Time
	updatedAt         time.Time
}

// NewPurchaseRequest 新しいPurchaseRequestエンティティを作成（status=pending）
func NewPurchaseRequest(
	requestID string,
	idempotencyKey string,
	userID string,
	walletType wallet.WalletType,
	amount int64,
	paymentAmount int64,
	paymentMethod string,
	providerName string,
) (*PurchaseRequest, error) {
	if requestID == "" || idempotencyKey == "" {
		return nil, ErrInvalidPurchaseRequest
	}
	if userID == "" {
		return nil, ErrInvalidPurchaseRequest
	}
	if amount <= 0 || paymentAmount <= 0 {
		return nil, ErrInvalidPurchaseRequest
	}
	if !walletType.Valid() {
		return nil, wallet.ErrInvalidWalletType
	}

	now := time.Now()
	return &PurchaseRequest{
		requestID:      requestID,
		idempotencyKey: idempotencyKey,
		userID:         userID,
		walletType:     walletType,
		amount:         amount,
		paymentAmount:  paymentAmount,
		paymentMethod:  paymentMethod,
		status:         StatusPending,
		providerName:   providerName,
		createdAt:      now,
		updatedAt:      now,
	}, nil
}

// RequestID リクエストIDを返す
func (pr *PurchaseRequest) RequestID() string {
	return pr.requestID
}

// IdempotencyKey 冪等性キーを返す
func (pr *PurchaseRequest) IdempotencyKey() string {
	return pr.idempotencyKey
}

// UserID ユーザーIDを返す
func (pr *PurchaseRequest) UserID() string {
	return pr.userID
}

// WalletType ウォレットタイプを返す
func (pr *PurchaseRequest) WalletType() wallet.WalletType {
	return pr.walletType
}

// Amount 付与ポイント数を返す
func (pr *PurchaseRequest) Amount() int64 {
	return pr.amount
}

// PaymentAmount 決済金額を返す
func (pr *PurchaseRequest) PaymentAmount() int64 {
	return pr.paymentAmount
}

// PaymentMethod 決済手段を返す
func (pr *PurchaseRequest) PaymentMethod() string {
	return pr.paymentMethod
}

// Status ステータスを返す
func (pr *PurchaseRequest) Status() Status {
	return pr.status
}

// ProviderName 決済プロバイダ名を返す
func (pr *PurchaseRequest) ProviderName() string {
	return pr.providerName
}

// ProviderSessionID プロバイダセッションIDを返す
func (pr *PurchaseRequest) ProviderSessionID() *string {
	return pr.providerSessionID
}

// RedirectURL リダイレクトURLを返す
func (pr *PurchaseRequest) RedirectURL() *string {
	return pr.redirectURL
}

// CompletedAt 完了日時を返す
func (pr *PurchaseRequest) CompletedAt() *time.Time {
	return pr.completedAt
}

// ErrorCode エラーコードを返す
func (pr *PurchaseRequest) ErrorCode() *string {
	return pr.errorCode
}

// ErrorMessage エラーメッセージを返す
func (pr *PurchaseRequest) ErrorMessage() *string {
	return pr.errorMessage
}

// CreatedAt 作成日時を返す
func (pr *PurchaseRequest) CreatedAt() time.Time {
	return pr.createdAt
}

// UpdatedAt 更新日時を返す
func (pr *PurchaseRequest) UpdatedAt() time.Time {
	return pr.updatedAt
}

// StartProcessing プロバイダセッション作成成功によりpending→processingへ遷移
func (pr *PurchaseRequest) StartProcessing(sessionID, redirectURL string) error {
	if pr.status != StatusPending {
		return ErrInvalidStatusTransition
	}
	pr.status = StatusProcessing
	pr.providerSessionID = &sessionID
	pr.redirectURL = &redirectURL
	pr.updatedAt = time.Now()
	return nil
}

// Complete 決済成功によりcompletedへ遷移
// ウォレット加算と同一トランザクション内で永続化されることを前提とする
func (pr *PurchaseRequest) Complete(completedAt time.Time) error {
	if pr.status.IsTerminal() {
		return ErrInvalidStatusTransition
	}
	pr.status = StatusCompleted
	pr.completedAt = &completedAt
	pr.updatedAt = time.Now()
	return nil
}

// Fail 決済失敗によりfailedへ遷移
func (pr *PurchaseRequest) Fail(errorCode, errorMessage string) error {
	if pr.status.IsTerminal() {
		return ErrInvalidStatusTransition
	}
	pr.status = StatusFailed
	pr.errorCode = &errorCode
	pr.errorMessage = &errorMessage
	pr.updatedAt = time.Now()
	return nil
}

// Expire 時間切れによりexpiredへ遷移（ウォレットには一切触れない）
func (pr *PurchaseRequest) Expire() error {
	if pr.status.IsTerminal() {
		return ErrInvalidStatusTransition
	}
	pr.status = StatusExpired
	pr.updatedAt = time.Now()
	return nil
}

// Reconstruct 永続化済みデータからPurchaseRequestを再構築
func Reconstruct(
	requestID string,
	idempotencyKey string,
	userID string,
	walletType wallet.WalletType,
	amount int64,
	paymentAmount int64,
	paymentMethod string,
	status Status,
	providerName string,
	providerSessionID *string,
	redirectURL *string,
	completedAt *time.Time,
	errorCode *string,
	errorMessage *string,
	createdAt time.Time,
	updatedAt time.Time,
) (*PurchaseRequest, error) {
	if !status.Valid() {
		return nil, ErrInvalidPurchaseRequest
	}
	pr, err := NewPurchaseRequest(requestID, idempotencyKey, userID, walletType, amount, paymentAmount, paymentMethod, providerName)
	if err != nil {
		return nil, err
	}
	pr.status = status
	pr.providerSessionID = providerSessionID
	pr.redirectURL = redirectURL
	pr.completedAt = completedAt
	pr.errorCode = errorCode
	pr.errorMessage = errorMessage
	pr.createdAt = createdAt
	pr.updatedAt = updatedAt
	return pr, nil
}

// MustNewPurchaseRequest テスト用ヘルパー: NewPurchaseRequestを呼び出し、エラーが発生した場合はpanicする
func MustNewPurchaseRequest(
	requestID string,
	idempotencyKey string,
	userID string,
	walletType wallet.WalletType,
	amount int64,
	paymentAmount int64,
	paymentMethod string,
	providerName string,
) *PurchaseRequest {
	pr, err := NewPurchaseRequest(requestID, idempotencyKey, userID, walletType, amount, paymentAmount, paymentMethod, providerName)
	if err != nil {
		panic(err)
	}
	return pr
}
